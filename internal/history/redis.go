package history

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the history log as a Redis list per channel key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a store backed by the Redis instance at addr.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies the Redis connection is usable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Append pushes a record onto the tail of the channel's list.
func (s *RedisStore) Append(ctx context.Context, key string, record []byte) error {
	if err := s.client.RPush(ctx, key, record).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}

// Range reads records by list position using LRANGE index semantics.
func (s *RedisStore) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	values, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	records := make([][]byte, len(values))
	for i, v := range values {
		records[i] = []byte(v)
	}
	return records, nil
}

// Close releases the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
