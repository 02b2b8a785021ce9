// Package resultcache stores answered queries in Redis keyed on the raw
// question text. A cache fault never fails the request: lookups degrade
// to a miss and writes are best-effort.
package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/db"
	"github.com/askdb/askdb/internal/domain"
)

// Store is the key-value surface this repository needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Cache is the question-keyed answer cache.
type Cache struct {
	store     Store
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// New creates a result cache with the given key prefix and entry TTL.
// ttl <= 0 stores entries without expiration.
func New(store Store, keyPrefix string, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		store:     store,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// Get returns the cached entry for the question, or ok=false on a miss.
// Store faults and corrupt entries are logged and reported as misses.
func (c *Cache) Get(ctx context.Context, question string) (domain.CacheEntry, bool) {
	key := c.key(question)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("result cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return domain.CacheEntry{}, false
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt result cache entry", zap.String("key", key), zap.Error(err))
		return domain.CacheEntry{}, false
	}
	return entry, true
}

// Set stores the entry with the configured TTL. Failures are logged, not returned.
func (c *Cache) Set(ctx context.Context, question string, entry domain.CacheEntry) {
	key := c.key(question)

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("encode result cache entry failed", zap.String("key", key), zap.Error(err))
		return
	}

	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("result cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate deletes all cache entries whose question matches the glob
// pattern ("*" clears everything) and returns the number deleted.
func (c *Cache) Invalidate(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		pattern = "*"
	}

	keys, err := c.store.Scan(ctx, c.keyPrefix+pattern)
	if err != nil {
		return 0, fmt.Errorf("scan cache keys: %w", err)
	}

	deleted := 0
	for _, key := range keys {
		if err := c.store.Del(ctx, key); err != nil {
			return deleted, fmt.Errorf("delete cache key %s: %w", key, err)
		}
		deleted++
	}

	c.logger.Info("result cache invalidated",
		zap.String("pattern", pattern),
		zap.Int("deleted", deleted),
	)
	return deleted, nil
}

func (c *Cache) key(question string) string {
	return c.keyPrefix + question
}
