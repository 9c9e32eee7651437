// Package cache is a read-through Redis cache for directory lookups. Concurrent
// misses on one key share a single load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a Redis client. A Cache with a nil client loads on every call.
type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group
}

// New builds a cache. rdb may be nil.
func New(rdb *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *Cache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// GetOrLoad returns the cached bytes for key, calling load on a miss and
// storing its result. Errors from load are returned and never cached. Redis
// failures degrade to calling load.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	full := c.key(key)
	if c.rdb != nil {
		b, err := c.rdb.Get(ctx, full).Bytes()
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("key", full), zap.Error(err))
		}
	}

	v, err, _ := c.sf.Do(full, func() (any, error) {
		b, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if c.rdb != nil {
			if err := c.rdb.Set(ctx, full, b, c.ttl).Err(); err != nil {
				c.logger.Warn("cache write failed", zap.String("key", full), zap.Error(err))
			}
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Strings("keys", full), zap.Error(err))
	}
}

// Load is the typed form of GetOrLoad, JSON-encoding values in Redis. A nil
// cache calls load directly.
func Load[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (*T, error)) (*T, error) {
	if c == nil {
		return load(ctx)
	}
	var loaded *T
	b, err := c.GetOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		loaded = v
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		return loaded, nil
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
