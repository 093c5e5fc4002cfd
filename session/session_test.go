package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"lsys/identity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Create(ctx, "t1", 1))
	require.NoError(t, s.Create(ctx, "t2", 1))
	require.NoError(t, s.Create(ctx, "t3", 2))

	uid, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), uid)

	require.NoError(t, s.Delete(ctx, "t1"))
	_, err = s.Get(ctx, "t1")
	assert.ErrorIs(t, err, ErrNoSession)
	require.NoError(t, s.Delete(ctx, "t1"))

	require.NoError(t, s.RevokeAllForUser(ctx, 1))
	_, err = s.Get(ctx, "t2")
	assert.ErrorIs(t, err, ErrNoSession)

	uid, err = s.Get(ctx, "t3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), uid)
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t, 0)
	storeContract(t, s)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(0))
}

func TestRedisStore_KeysAndNoExpiry(t *testing.T) {
	s, mr := newRedisStore(t, 0)
	require.NoError(t, s.Create(context.Background(), "abc", 7))

	assert.True(t, mr.Exists("lsys:sess:abc"))
	assert.Zero(t, mr.TTL("lsys:sess:abc"))
	members, err := mr.Members("lsys:user_sessions:7")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, members)
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "abc", 7))
	assert.Equal(t, time.Hour, mr.TTL("lsys:sess:abc"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStore_CorruptEntry(t *testing.T) {
	s, mr := newRedisStore(t, 0)
	require.NoError(t, mr.Set("lsys:sess:bad", "{not json"))
	_, err := s.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestMemoryStore_TTL(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "t", 1))
	now = now.Add(59 * time.Second)
	_, err := s.Get(ctx, "t")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Get(ctx, "t")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, s.byUser)
}

type accounts map[int64]identity.Account

func (a accounts) ByUID(uid int64) (identity.Account, bool) {
	acc, ok := a[uid]
	return acc, ok
}

type brokenStore struct{ MemoryStore }

func (*brokenStore) Get(context.Context, string) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	r := Resolver{Store: store, Accounts: accounts{1: {UID: 1, Name: "Alice"}}}

	_, err := r.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = r.Resolve(ctx, "unknown")
	assert.ErrorIs(t, err, ErrAuthRequired)

	token, err := r.Issue(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, token, 36)

	acc, err := r.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", acc.Name)

	orphan, err := r.Issue(ctx, 2)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, orphan)
	assert.ErrorIs(t, err, ErrAuthRequired)

	require.NoError(t, r.Revoke(ctx, token))
	_, err = r.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.NoError(t, r.Revoke(ctx, ""))
}

func TestResolver_StoreFailure(t *testing.T) {
	r := Resolver{Store: &brokenStore{}, Accounts: accounts{}}
	_, err := r.Resolve(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.ErrorContains(t, err, "connection reset")
}

func TestNewToken_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := NewToken()
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}
