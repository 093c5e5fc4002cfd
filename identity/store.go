package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Repo is the persistent side of the account store.
type Repo interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	// CreateAccount inserts a row and returns the uid the store assigned.
	CreateAccount(ctx context.Context, a Account) (int64, error)
	UpdatePassHash(ctx context.Context, uid int64, hash string) error
}

type Store struct {
	mu      sync.RWMutex
	byUID   map[int64]Account
	byEmail map[string]int64

	repo   Repo
	hasher Hasher
	log    zerolog.Logger
}

type Option func(*Store)

func WithHasher(h Hasher) Option { return func(s *Store) { s.hasher = h } }

func WithLogger(log zerolog.Logger) Option { return func(s *Store) { s.log = log } }

func NewStore(repo Repo, opts ...Option) *Store {
	s := &Store{
		byUID:   make(map[int64]Account),
		byEmail: make(map[string]int64),
		repo:    repo,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load builds a store holding every persisted account.
func Load(ctx context.Context, repo Repo, opts ...Option) (*Store, error) {
	s := NewStore(repo, opts...)
	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	for _, a := range accounts {
		s.Index(a)
	}
	s.log.Info().Int("accounts", len(accounts)).Msg("accounts loaded")
	return s, nil
}

// Index stores a under its uid and email, replacing any previous entry for
// that uid.
func (s *Store) Index(a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index(a)
}

func (s *Store) index(a Account) {
	if old, ok := s.byUID[a.UID]; ok && old.Email != a.Email {
		delete(s.byEmail, old.Email)
	}
	s.byUID[a.UID] = a
	s.byEmail[a.Email] = a.UID
}

func (s *Store) ByUID(uid int64) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byUID[uid]
	return a, ok
}

func (s *Store) ByEmail(email string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uid, ok := s.byEmail[email]
	if !ok {
		return Account{}, false
	}
	return s.byUID[uid], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUID)
}

// Register validates the input, persists a new account and indexes it. The
// write lock is held across the insert so that two registrations for one
// email cannot both pass the uniqueness check.
func (s *Store) Register(ctx context.Context, name, email, password string) (Account, error) {
	in := registration{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validate.Struct(in); err != nil {
		return Account{}, validationError(err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[in.Email]; taken {
		return Account{}, &StorageError{Op: "register", Err: ErrEmailTaken}
	}
	a := Account{Name: in.Name, Email: in.Email, PassHash: hash}
	uid, err := s.repo.CreateAccount(ctx, a)
	if err != nil {
		return Account{}, &StorageError{Op: "register", Err: err}
	}
	a.UID = uid
	s.index(a)
	s.log.Info().Int64("uid", uid).Msg("account registered")
	return a, nil
}

// Login checks the password for the account registered under email.
func (s *Store) Login(ctx context.Context, email, password string) (Account, error) {
	a, ok := s.ByEmail(strings.TrimSpace(email))
	if !ok {
		return Account{}, ErrNotFound
	}
	match, legacy := s.hasher.Verify(a.PassHash, password)
	if !match {
		return Account{}, ErrInvalidCredentials
	}
	if legacy {
		a = s.upgrade(ctx, a, password)
	}
	return a, nil
}

// upgrade replaces a legacy hash with bcrypt. Failures are logged and the
// login still succeeds.
func (s *Store) upgrade(ctx context.Context, a Account, password string) Account {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn().Err(err).Int64("uid", a.UID).Msg("rehash legacy password")
		return a
	}
	if err := s.repo.UpdatePassHash(ctx, a.UID, hash); err != nil {
		s.log.Warn().Err(err).Int64("uid", a.UID).Msg("persist upgraded password hash")
		return a
	}
	a.PassHash = hash

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.byUID[a.UID]; ok {
		cur.PassHash = hash
		s.index(cur)
		a = cur
	}
	s.log.Info().Int64("uid", a.UID).Msg("legacy password hash upgraded")
	return a
}
