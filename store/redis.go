package store

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultRedisPrefix = "materna"

// RedisStore is a Redis-backed [CredentialStore]. Every key is namespaced
// under a prefix so several installations can share one Redis database.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore on client. An empty prefix falls back
// to "materna".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) trim(namespaced string) string {
	return strings.TrimPrefix(namespaced, s.prefix+":")
}

// Get implements [CredentialStore].
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", errors.Join(ErrRedisUnavailable, err)
	}
	return value, nil
}

// Set implements [CredentialStore]. Values are stored without expiry; the
// session client decides when credentials die.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// MultiSet implements [CredentialStore]. All pairs are written in one
// transactional pipeline.
func (s *RedisStore) MultiSet(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for key, value := range pairs {
		pipe.Set(ctx, s.key(key), value, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// Remove implements [CredentialStore].
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// MultiRemove implements [CredentialStore].
func (s *RedisStore) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = s.key(key)
	}
	if err := s.client.Del(ctx, namespaced...).Err(); err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// Keys implements [CredentialStore]. Enumeration uses SCAN, never KEYS, so
// it stays safe against shared databases.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.prefix+":*", 100).Result()
		if err != nil {
			return nil, errors.Join(ErrRedisUnavailable, err)
		}
		for _, namespaced := range batch {
			keys = append(keys, s.trim(namespaced))
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
