// Package catalog holds the in-memory book catalogue and the availability
// state machine applied to it.
//
// The catalogue is loaded once from the backing store. Every state change on a
// book runs inside that book's exclusive section, which spans reading the
// current status, deciding the transition, writing the backing store and
// committing the new record to the snapshot. Readers never see a transition
// that the store has not accepted.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrBookNotFound = errors.New("book not found")
	// ErrStaleSnapshot means the backing store no longer matched the snapshot
	// when a transition was written. The snapshot is refreshed before returning.
	ErrStaleSnapshot = errors.New("book changed in the backing store")
)

// Book is one catalogue copy. BID identifies the copy, ISBN the work.
type Book struct {
	ISBN      int64
	BID       int64
	Name      string
	Authors   []string
	Published string
	Status    Status
}

type Author struct {
	ID   int64
	Name string
}

// Authorship is one row of the author/work relation.
type Authorship struct {
	AuthorID int64
	ISBN     int64
}

// Source supplies the catalogue contents at load time. Books come back with
// their status already decoded and without author names.
type Source interface {
	LoadBooks(ctx context.Context) ([]Book, error)
	LoadAuthors(ctx context.Context) ([]Author, error)
	LoadAuthorship(ctx context.Context) ([]Authorship, error)
}

// Persister writes transitions back. SaveStatus must only succeed when the
// stored status still equals from, and return ErrStaleSnapshot otherwise.
type Persister interface {
	SaveStatus(ctx context.Context, bid int64, from, to Status) error
	LoadBook(ctx context.Context, bid int64) (Book, error)
}

type Backend interface {
	Source
	Persister
}

type slot struct {
	mu   sync.Mutex // held for the whole transition on this book
	book Book       // guarded by Catalogue.mu
}

type Catalogue struct {
	mu      sync.RWMutex
	books   map[int64]*slot
	authors map[int64][]Author
	names   map[int64][]string

	store Persister
	now   func() time.Time
	log   zerolog.Logger
}

type Option func(*Catalogue)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Catalogue) { c.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Catalogue) { c.log = log }
}

// Load reads books, authors and authorship from the backend and builds the
// snapshot. Any error aborts the load; there is no partial catalogue.
func Load(ctx context.Context, b Backend, opts ...Option) (*Catalogue, error) {
	c := newCatalogue(b, opts...)

	authors, err := b.LoadAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	links, err := b.LoadAuthorship(ctx)
	if err != nil {
		return nil, fmt.Errorf("load authorship: %w", err)
	}
	books, err := b.LoadBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	c.indexAuthors(authors, links)
	for _, bk := range books {
		bk.Authors = slices.Clone(c.names[bk.ISBN])
		c.books[bk.BID] = &slot{book: bk}
	}
	c.log.Info().Int("books", len(c.books)).Int("authors", len(authors)).Msg("catalogue loaded")
	return c, nil
}

func newCatalogue(p Persister, opts ...Option) *Catalogue {
	c := &Catalogue{
		books:   make(map[int64]*slot),
		authors: make(map[int64][]Author),
		names:   make(map[int64][]string),
		store:   p,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalogue) indexAuthors(authors []Author, links []Authorship) {
	byID := make(map[int64]Author, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}
	for _, l := range links {
		a, ok := byID[l.AuthorID]
		if !ok {
			c.log.Warn().Int64("author_id", l.AuthorID).Int64("isbn", l.ISBN).Msg("authorship references unknown author")
			continue
		}
		c.authors[l.ISBN] = append(c.authors[l.ISBN], a)
	}
	for isbn, as := range c.authors {
		sort.Slice(as, func(i, j int) bool { return as[i].ID < as[j].ID })
		names := make([]string, len(as))
		for i, a := range as {
			names[i] = a.Name
		}
		c.names[isbn] = names
	}
}

// Today is the catalogue clock's current calendar day.
func (c *Catalogue) Today() time.Time { return Day(c.now()) }

func (c *Catalogue) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}

// Get returns a copy of the book with the given bid.
func (c *Catalogue) Get(bid int64) (Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.books[bid]
	if !ok {
		return Book{}, false
	}
	return clone(s.book), true
}

// ListSortedByName returns a copy of every book ordered by name, ties by bid.
func (c *Catalogue) ListSortedByName() []Book {
	c.mu.RLock()
	out := make([]Book, 0, len(c.books))
	for _, s := range c.books {
		out = append(out, clone(s.book))
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].BID < out[j].BID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Search filters ListSortedByName by a case-insensitive substring of the
// book name or any author name. An empty query matches everything.
func (c *Catalogue) Search(query string) []Book {
	all := c.ListSortedByName()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := all[:0]
	for _, b := range all {
		if matches(b, q) {
			out = append(out, b)
		}
	}
	return out
}

func matches(b Book, q string) bool {
	if strings.Contains(strings.ToLower(b.Name), q) {
		return true
	}
	for _, a := range b.Authors {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

func (c *Catalogue) Authors(isbn int64) []Author {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.authors[isbn])
}

func (c *Catalogue) AuthorNames(isbn int64) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.names[isbn])
}

// Counts returns how many books are in each state.
func (c *Catalogue) Counts() map[State]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := map[State]int{Available: 0, Reserved: 0, Borrowed: 0}
	for _, s := range c.books {
		out[s.book.Status.State()]++
	}
	return out
}

// Put replaces the record stored for bid. It waits for any transition running
// on that book.
func (c *Catalogue) Put(bid int64, b Book) {
	b.BID = bid
	s := c.slotFor(bid, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.commit(s, b)
}

// Reserve applies a reservation by caller to the book. AlreadyReserved and
// AlreadyBorrowed come back as outcomes, not errors, and leave the book as it
// was. The returned error is reserved for missing books and storage failures.
func (c *Catalogue) Reserve(ctx context.Context, bid, caller int64) (ReserveOutcome, error) {
	var out ReserveOutcome
	_, err := c.transition(ctx, bid, func(cur Status, today time.Time) (Status, bool) {
		var next Status
		next, out = cur.Reserve(caller, today)
		return next, out.Succeeded()
	})
	if err != nil {
		return ReserveOutcome{}, err
	}
	return out, nil
}

// transition runs decide inside the book's exclusive section. When decide
// reports a change, the new status is written to the store first and then
// committed to the snapshot.
func (c *Catalogue) transition(ctx context.Context, bid int64, decide func(Status, time.Time) (Status, bool)) (Book, error) {
	s := c.slotFor(bid, false)
	if s == nil {
		return Book{}, fmt.Errorf("bid %d: %w", bid, ErrBookNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c.mu.RLock()
	cur := clone(s.book)
	c.mu.RUnlock()

	next, changed := decide(cur.Status, c.Today())
	if !changed {
		return cur, nil
	}

	if err := c.store.SaveStatus(ctx, bid, cur.Status, next); err != nil {
		if errors.Is(err, ErrStaleSnapshot) {
			c.refresh(ctx, s, bid)
		}
		return Book{}, fmt.Errorf("save status of bid %d: %w", bid, err)
	}

	cur.Status = next
	c.commit(s, cur)
	c.log.Debug().Int64("bid", bid).Stringer("status", next).Msg("book status committed")
	return cur, nil
}

// refresh reloads one book from the store after a conflicting write. The
// caller holds s.mu.
func (c *Catalogue) refresh(ctx context.Context, s *slot, bid int64) {
	fresh, err := c.store.LoadBook(ctx, bid)
	if err != nil {
		c.log.Error().Err(err).Int64("bid", bid).Msg("reload after stale snapshot failed")
		return
	}
	c.mu.RLock()
	fresh.Authors = slices.Clone(c.names[fresh.ISBN])
	c.mu.RUnlock()
	c.commit(s, fresh)
	c.log.Warn().Int64("bid", bid).Stringer("status", fresh.Status).Msg("snapshot refreshed from store")
}

func (c *Catalogue) commit(s *slot, b Book) {
	c.mu.Lock()
	s.book = b
	c.mu.Unlock()
}

func (c *Catalogue) slotFor(bid int64, create bool) *slot {
	c.mu.RLock()
	s, ok := c.books[bid]
	c.mu.RUnlock()
	if ok || !create {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok = c.books[bid]; !ok {
		s = &slot{book: Book{BID: bid}}
		c.books[bid] = s
	}
	return s
}

func clone(b Book) Book {
	b.Authors = slices.Clone(b.Authors)
	return b
}
