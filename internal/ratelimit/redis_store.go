package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each window in a Redis hash that expires just after ResetAt, so
// several server instances can share one identity space.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr. Keys are stored under prefix.
func NewRedisStore(addr, password, prefix string) (*RedisStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "tenxcards"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (Window, bool, error) {
	vals, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return Window{}, false, fmt.Errorf("redis get window: %w", err)
	}
	if len(vals) == 0 {
		return Window{}, false, nil
	}
	count, err := strconv.Atoi(vals["count"])
	if err != nil {
		return Window{}, false, fmt.Errorf("redis window count: %w", err)
	}
	resetAt, err := strconv.ParseInt(vals["reset_at"], 10, 64)
	if err != nil {
		return Window{}, false, fmt.Errorf("redis window reset: %w", err)
	}
	return Window{Count: count, ResetAt: resetAt}, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, w Window) error {
	k := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "count", w.Count, "reset_at", w.ResetAt)
		pipe.PExpireAt(ctx, k, expiresAt(w))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set window: %w", err)
	}
	return nil
}

// Sweep is a no-op; Redis expires windows itself.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// PingContext reports whether the Redis server answers.
func (s *RedisStore) PingContext(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
