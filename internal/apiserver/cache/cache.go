// Package cache provides a small read cache for dashboard and analytics
// responses: an in-memory layer with an optional Redis layer behind it so
// multiple API server replicas share warm entries. Mutation handlers
// invalidate through the same routing table the subscription client uses.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plotdesk/plotdesk/internal/common/config"
)

const defaultTTL = time.Minute

type entry struct {
	data      []byte
	expiresAt time.Time
}

// QueryCache caches serialized responses keyed by their query path.
type QueryCache struct {
	logger *zap.Logger
	ttl    time.Duration
	prefix string

	mu      sync.RWMutex
	entries map[string]entry

	rdb redis.Cmdable // nil when running memory-only
}

// New creates a query cache from configuration. With type "redis" a second
// shared layer is kept in Redis; anything else runs memory-only.
func New(cfg config.CacheConfig, logger *zap.Logger) *QueryCache {
	var rdb redis.Cmdable
	if cfg.Type == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return newQueryCache(cfg, logger, rdb)
}

func newQueryCache(cfg config.CacheConfig, logger *zap.Logger, rdb redis.Cmdable) *QueryCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "plotdesk:query:"
	}
	return &QueryCache{
		logger:  logger.Named("cache"),
		ttl:     ttl,
		prefix:  prefix,
		entries: make(map[string]entry),
		rdb:     rdb,
	}
}

// Get returns the cached bytes for key, consulting the memory layer first
// and falling back to Redis. A Redis hit repopulates the memory layer.
func (c *QueryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.data, true
	}

	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	c.mu.Lock()
	c.entries[key] = entry{data: data, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return data, true
}

// Set stores the bytes in both layers.
func (c *QueryCache) Set(ctx context.Context, key string, data []byte) {
	c.mu.Lock()
	c.entries[key] = entry{data: data, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Invalidate drops the entry for key along with every entry scoped under it
// (e.g. invalidating "/api/leads" also drops "/api/leads/contacted" is NOT
// implied — scoping means "/api/call-logs/lead" drops "/api/call-logs/lead/l-1").
func (c *QueryCache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	scoped := key + "/"
	for k := range c.entries {
		if strings.HasPrefix(k, scoped) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()

	if c.rdb != nil {
		if err := c.rdb.Del(ctx, c.prefix+key).Err(); err != nil {
			c.logger.Warn("redis del failed", zap.String("key", key), zap.Error(err))
		}
		keys, err := c.rdb.Keys(ctx, c.prefix+scoped+"*").Result()
		if err == nil && len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("redis scoped del failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

// Len reports the number of live entries in the memory layer.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := time.Now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}
