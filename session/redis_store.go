package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in redis so they survive restarts and can be
// shared by several instances.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a store whose entries expire after ttl; zero keeps
// them until logout.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

type record struct {
	UID      int64 `json:"uid"`
	IssuedAt int64 `json:"iat"`
}

func key(token string) string     { return fmt.Sprintf("lsys:sess:%s", token) }
func userSetKey(uid int64) string { return "lsys:user_sessions:" + strconv.FormatInt(uid, 10) }

func (s *RedisStore) Create(ctx context.Context, token string, uid int64) error {
	b, err := json.Marshal(record{UID: uid, IssuedAt: time.Now().Unix()})
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(token), b, s.ttl)
	pipe.SAdd(ctx, userSetKey(uid), token)
	if s.ttl > 0 {
		pipe.Expire(ctx, userSetKey(uid), s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, token string) (int64, error) {
	rec, err := s.get(ctx, token)
	if err != nil {
		return 0, err
	}
	return rec.UID, nil
}

func (s *RedisStore) get(ctx context.Context, token string) (*record, error) {
	b, err := s.rdb.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	rec, _ := s.get(ctx, token) // a missing entry still gets its key removed
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(token))
	if rec != nil {
		pipe.SRem(ctx, userSetKey(rec.UID), token)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) RevokeAllForUser(ctx context.Context, uid int64) error {
	tokens, err := s.rdb.SMembers(ctx, userSetKey(uid)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, t := range tokens {
		pipe.Del(ctx, key(t))
	}
	pipe.Del(ctx, userSetKey(uid))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
