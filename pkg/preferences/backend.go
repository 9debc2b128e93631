package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps preferences in Redis. A zero ttl means no expiry.
type RedisBackend struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisBackend(client redis.Cmdable) *RedisBackend {
	return &RedisBackend{client: client}
}

// WithTTL returns a copy whose writes expire after ttl.
func (b *RedisBackend) WithTTL(ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: b.client, ttl: ttl}
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	if err := b.client.Set(ctx, key, value, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// ReadThroughBackend serves reads from cache and falls back to source, which
// stays the system of record. Writes go to source first; a failed cache write
// is tolerated and heals when the cached entry expires.
type ReadThroughBackend struct {
	cache  Backend
	source Backend
}

func NewReadThroughBackend(cache, source Backend) *ReadThroughBackend {
	return &ReadThroughBackend{cache: cache, source: source}
}

func (b *ReadThroughBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok, err := b.cache.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}

	v, ok, err := b.source.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	_ = b.cache.Set(ctx, key, v)
	return v, true, nil
}

func (b *ReadThroughBackend) Set(ctx context.Context, key, value string) error {
	if err := b.source.Set(ctx, key, value); err != nil {
		return err
	}
	_ = b.cache.Set(ctx, key, value)
	return nil
}
