package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend keeps the stored status per bid and applies the same
// compare-and-set rule as the database repo.
type fakeBackend struct {
	mu      sync.Mutex
	books   map[int64]Book
	authors []Author
	links   []Authorship
	saves   int
	failErr error
}

func newFakeBackend(books ...Book) *fakeBackend {
	f := &fakeBackend{books: make(map[int64]Book)}
	for _, b := range books {
		f.books[b.BID] = b
	}
	return f
}

func (f *fakeBackend) LoadBooks(context.Context) ([]Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBackend) LoadAuthors(context.Context) ([]Author, error) { return f.authors, nil }

func (f *fakeBackend) LoadAuthorship(context.Context) ([]Authorship, error) { return f.links, nil }

func (f *fakeBackend) SaveStatus(_ context.Context, bid int64, from, to Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	b, ok := f.books[bid]
	if !ok || b.Status != from {
		return ErrStaleSnapshot
	}
	b.Status = to
	f.books[bid] = b
	f.saves++
	return nil
}

func (f *fakeBackend) LoadBook(_ context.Context, bid int64) (Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bid]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return b, nil
}

func (f *fakeBackend) set(bid int64, st Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.books[bid]
	b.Status = st
	f.books[bid] = b
}

var testToday = time.Date(2024, 6, 3, 15, 4, 5, 0, time.UTC)

func loadTest(t *testing.T, f *fakeBackend) *Catalogue {
	t.Helper()
	c, err := Load(context.Background(), f, WithClock(func() time.Time { return testToday }))
	require.NoError(t, err)
	return c
}

func TestLoad_DenormalizesAuthorsInIDOrder(t *testing.T) {
	f := newFakeBackend(Book{ISBN: 100, BID: 1, Name: "Dune"})
	f.authors = []Author{{ID: 2, Name: "Second"}, {ID: 1, Name: "First"}}
	f.links = []Authorship{{AuthorID: 2, ISBN: 100}, {AuthorID: 1, ISBN: 100}, {AuthorID: 9, ISBN: 100}}

	c := loadTest(t, f)

	b, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, []string{"First", "Second"}, b.Authors)
	assert.Equal(t, []string{"First", "Second"}, c.AuthorNames(100))
	assert.Equal(t, []Author{{ID: 1, Name: "First"}, {ID: 2, Name: "Second"}}, c.Authors(100))
	assert.Empty(t, c.AuthorNames(999))
}

type failingSource struct{ *fakeBackend }

func (failingSource) LoadBooks(context.Context) ([]Book, error) {
	return nil, errors.New("connection refused")
}

func TestLoad_FailureIsReturned(t *testing.T) {
	_, err := Load(context.Background(), failingSource{newFakeBackend()})
	assert.ErrorContains(t, err, "connection refused")
}

func TestGet_ReturnsCopy(t *testing.T) {
	f := newFakeBackend(Book{ISBN: 1, BID: 1, Name: "A"})
	f.authors = []Author{{ID: 1, Name: "Ann"}}
	f.links = []Authorship{{AuthorID: 1, ISBN: 1}}
	c := loadTest(t, f)

	b, _ := c.Get(1)
	b.Authors[0] = "mutated"
	b.Name = "mutated"

	again, _ := c.Get(1)
	assert.Equal(t, "A", again.Name)
	assert.Equal(t, []string{"Ann"}, again.Authors)

	_, ok := c.Get(42)
	assert.False(t, ok)
}

func TestListSortedByName_StableOnTies(t *testing.T) {
	c := loadTest(t, newFakeBackend(
		Book{BID: 4, Name: "Beta"},
		Book{BID: 3, Name: "Alpha"},
		Book{BID: 1, Name: "Beta"},
		Book{BID: 2, Name: "Alpha"},
	))

	var got []int64
	for _, b := range c.ListSortedByName() {
		got = append(got, b.BID)
	}
	assert.Equal(t, []int64{2, 3, 1, 4}, got)
}

func TestSearch(t *testing.T) {
	f := newFakeBackend(
		Book{ISBN: 1, BID: 1, Name: "The Hobbit"},
		Book{ISBN: 2, BID: 2, Name: "Emma"},
	)
	f.authors = []Author{{ID: 1, Name: "Jane Austen"}}
	f.links = []Authorship{{AuthorID: 1, ISBN: 2}}
	c := loadTest(t, f)

	assert.Len(t, c.Search(""), 2)
	hits := c.Search("hobb")
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].BID)
	hits = c.Search("AUSTEN")
	require.Len(t, hits, 1)
	assert.Equal(t, int64(2), hits[0].BID)
	assert.Empty(t, c.Search("tolstoy"))
}

func TestPut_ReplacesAndInserts(t *testing.T) {
	c := loadTest(t, newFakeBackend(Book{BID: 1, Name: "Old"}))

	c.Put(1, Book{Name: "New"})
	c.Put(7, Book{Name: "Fresh", Status: BorrowedStatus(2, day("2024-06-01"))})

	b, _ := c.Get(1)
	assert.Equal(t, "New", b.Name)
	b, ok := c.Get(7)
	require.True(t, ok)
	assert.Equal(t, int64(7), b.BID)
	assert.True(t, b.Status.IsBorrowed())
	assert.Equal(t, 2, c.Len())
}

func TestReserve_AliceTakesBookFive(t *testing.T) {
	f := newFakeBackend(Book{ISBN: 9, BID: 5, Name: "Dune"})
	c := loadTest(t, f)
	ctx := context.Background()
	due := day("2024-06-10")

	out, err := c.Reserve(ctx, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, ReserveOutcome{Kind: OutcomeReserved, Due: due}, out)

	b, _ := c.Get(5)
	assert.Equal(t, ReservedStatus(1, due), b.Status)

	out, err = c.Reserve(ctx, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, ReserveOutcome{Kind: OutcomeAlreadyReserved, Due: due}, out)

	b, _ = c.Get(5)
	assert.Equal(t, ReservedStatus(1, due), b.Status)
	assert.Equal(t, 1, f.saves)
}

func TestReserve_BorrowedBookUnchanged(t *testing.T) {
	due := day("2024-06-01")
	f := newFakeBackend(Book{BID: 1, Status: BorrowedStatus(3, due)})
	c := loadTest(t, f)

	out, err := c.Reserve(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyBorrowed, out.Kind)
	assert.Equal(t, due, out.Due)

	b, _ := c.Get(1)
	assert.Equal(t, BorrowedStatus(3, due), b.Status)
	assert.Zero(t, f.saves)
}

func TestReserve_UnknownBook(t *testing.T) {
	c := loadTest(t, newFakeBackend())
	_, err := c.Reserve(context.Background(), 404, 1)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestReserve_StorageFailureLeavesSnapshot(t *testing.T) {
	f := newFakeBackend(Book{BID: 1})
	c := loadTest(t, f)
	f.failErr = errors.New("disk full")

	_, err := c.Reserve(context.Background(), 1, 1)
	assert.ErrorContains(t, err, "disk full")

	b, _ := c.Get(1)
	assert.True(t, b.Status.IsAvailable())
}

func TestReserve_StaleSnapshotIsRefreshed(t *testing.T) {
	f := newFakeBackend(Book{BID: 1, Name: "Shared"})
	c := loadTest(t, f)

	// another process borrowed the copy behind our back
	other := BorrowedStatus(8, day("2024-06-20"))
	f.set(1, other)

	_, err := c.Reserve(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrStaleSnapshot)

	b, _ := c.Get(1)
	assert.Equal(t, other, b.Status)
	assert.Equal(t, "Shared", b.Name)

	out, err := c.Reserve(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyBorrowed, out.Kind)
}

func TestReserve_ConcurrentCallersOneWins(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFakeBackend(Book{BID: 1})
		c := loadTest(t, f)

		const callers = 8
		outcomes := make([]ReserveOutcome, callers)
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				out, err := c.Reserve(context.Background(), 1, int64(i+1))
				assert.NoError(t, err)
				outcomes[i] = out
			}(i)
		}
		close(start)
		wg.Wait()

		winners := 0
		var winner int64
		for i, out := range outcomes {
			switch out.Kind {
			case OutcomeReserved:
				winners++
				winner = int64(i + 1)
			case OutcomeAlreadyReserved:
			default:
				t.Fatalf("unexpected outcome %v", out.Kind)
			}
		}
		require.Equal(t, 1, winners)
		assert.Equal(t, 1, f.saves)

		b, _ := c.Get(1)
		holder, _ := b.Status.Holder()
		assert.Equal(t, winner, holder)
	}
}

func TestCounts(t *testing.T) {
	c := loadTest(t, newFakeBackend(
		Book{BID: 1},
		Book{BID: 2, Status: ReservedStatus(1, day("2024-06-05"))},
		Book{BID: 3, Status: BorrowedStatus(1, day("2024-06-05"))},
		Book{BID: 4, Status: BorrowedStatus(2, day("2024-06-05"))},
	))
	assert.Equal(t, map[State]int{Available: 1, Reserved: 1, Borrowed: 2}, c.Counts())
}

func TestToday(t *testing.T) {
	c := loadTest(t, newFakeBackend())
	assert.Equal(t, day("2024-06-03"), c.Today())
}

func TestReserve_DueFollowsUTCCalendar(t *testing.T) {
	// 20:00 at UTC-7 on June 3 is already June 4 in UTC.
	pdt := time.FixedZone("PDT", -7*60*60)
	evening := time.Date(2024, 6, 3, 20, 0, 0, 0, pdt)

	f := newFakeBackend(Book{ISBN: 9, BID: 5, Name: "Dune"})
	c, err := Load(context.Background(), f, WithClock(func() time.Time { return evening }))
	require.NoError(t, err)

	assert.Equal(t, day("2024-06-04"), c.Today())

	out, err := c.Reserve(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, day("2024-06-11"), out.Due)
	stored, _ := f.LoadBook(context.Background(), 5)
	assert.Equal(t, ReservedStatus(1, day("2024-06-11")), stored.Status)
}
