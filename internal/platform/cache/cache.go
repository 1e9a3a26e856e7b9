package cache

import (
	"context"
	"time"

	"greenhouse/internal/platform/logger"
	"greenhouse/internal/platform/store"

	"golang.org/x/sync/singleflight"
)

// Cache is a read-through helper over the shared kv store.
// A nil or failing kv degrades to calling fill every time; cache trouble is
// never surfaced to callers
type Cache struct {
	kv    store.KV
	log   logger.Logger
	group singleflight.Group
}

// New builds a Cache; kv may be nil (caching disabled)
func New(kv store.KV, log logger.Logger) *Cache {
	return &Cache{kv: kv, log: log}
}

// GetOrFill returns the cached value for key or computes it via fill and
// stores it with ttl. Concurrent fills for the same key are collapsed to a
// single execution via singleflight
func (c *Cache) GetOrFill(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fill func(ctx context.Context) ([]byte, error),
) ([]byte, error) {
	if c == nil || c.kv == nil {
		return fill(ctx)
	}

	if b, err := c.kv.Get(ctx, key); err == nil {
		return b, nil
	} else if err != store.ErrKVMiss {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed; falling through to storage")
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		b, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.kv.Set(ctx, key, b, ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache set failed; value served uncached")
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Delete removes a key best-effort
func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil || c.kv == nil {
		return
	}
	if err := c.kv.Delete(ctx, key); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
}
