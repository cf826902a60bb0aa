package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPollInterval = 50 * time.Millisecond

// RedisStore backs the bootstrap store with a Redis server shared by all
// hosts in the job. Blocking reads are implemented by polling, bounded
// by the caller's context.
type RedisStore struct {
	client       *redis.Client
	pollInterval time.Duration
}

// NewRedis wraps an existing Redis client.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:       client,
		pollInterval: defaultPollInterval,
	}
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		value, err := r.client.Get(ctx, key).Bytes()
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis get %q: %w", key, err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for key %q: %w", key, ctx.Err())
		}
	}
}

func (r *RedisStore) Add(ctx context.Context, key string, delta int64) (int64, error) {
	value, err := r.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incrby %q: %w", key, err)
	}
	return value, nil
}
