package storage

import (
	"context"
	"errors"
	"fmt"

	"course-portal/internal/domain"
	"course-portal/internal/observability"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries as plain redis strings under a key prefix.
// Entries never expire; logout and forced expiry delete them explicitly.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		err = fmt.Errorf("get %s: %w", key, domain.ErrKeyNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed to get %s: %w", key, err)
	}
	observability.ObserveStorage(BackendRedis, "get", err)
	return value, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	err := s.client.Set(ctx, s.key(key), value, 0).Err()
	if err != nil {
		err = fmt.Errorf("failed to set %s: %w", key, err)
	}
	observability.ObserveStorage(BackendRedis, "set", err)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := s.client.Del(ctx, s.key(key)).Err()
	if err != nil {
		err = fmt.Errorf("failed to delete %s: %w", key, err)
	}
	observability.ObserveStorage(BackendRedis, "delete", err)
	return err
}

// Ping reports whether redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
