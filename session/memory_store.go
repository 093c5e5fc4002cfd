package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	uid     int64
	expires time.Time // zero means never
}

type MemoryStore struct {
	mu     sync.Mutex
	byTok  map[string]memEntry
	byUser map[int64]map[string]struct{}
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		byTok:  make(map[string]memEntry),
		byUser: make(map[int64]map[string]struct{}),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, token string, uid int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry{uid: uid}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.byTok[token] = e
	if s.byUser[uid] == nil {
		s.byUser[uid] = make(map[string]struct{})
	}
	s.byUser[uid][token] = struct{}{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byTok[token]
	if !ok {
		return 0, ErrNoSession
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.remove(token, e.uid)
		return 0, ErrNoSession
	}
	return e.uid, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byTok[token]; ok {
		s.remove(token, e.uid)
	}
	return nil
}

func (s *MemoryStore) RevokeAllForUser(_ context.Context, uid int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t := range s.byUser[uid] {
		delete(s.byTok, t)
	}
	delete(s.byUser, uid)
	return nil
}

func (s *MemoryStore) remove(token string, uid int64) {
	delete(s.byTok, token)
	if set := s.byUser[uid]; set != nil {
		delete(set, token)
		if len(set) == 0 {
			delete(s.byUser, uid)
		}
	}
}
