package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session in one hash "<prefix>:<sid>". The hash TTL
// slides forward on every write and read.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store writing under prefix with the given TTL.
// A zero ttl keeps entries until deleted.
func NewRedisStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sid string) string { return s.prefix + ":" + sid }

func (s *RedisStore) touch(ctx context.Context, sid string) {
	if s.ttl > 0 {
		_ = s.rdb.Expire(ctx, s.key(sid), s.ttl).Err()
	}
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, error) {
	v, err := s.rdb.HGet(ctx, s.key(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	s.touch(ctx, sid)
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	if err := s.rdb.HSet(ctx, s.key(sid), key, value).Err(); err != nil {
		return err
	}
	s.touch(ctx, sid)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sid, key string) (bool, error) {
	n, err := s.rdb.HDel(ctx, s.key(sid), key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// takeScript reads and deletes a hash field atomically.
var takeScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], ARGV[1])
if v then redis.call('HDEL', KEYS[1], ARGV[1]) end
return v
`)

func (s *RedisStore) Take(ctx context.Context, sid, key string) (string, error) {
	v, err := takeScript.Run(ctx, s.rdb, []string{s.key(sid)}, key).Text()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, s.key(sid)).Err()
}
