package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roastery/assistant/internal/models"
	"github.com/roastery/assistant/internal/observability"
	"github.com/roastery/assistant/internal/repository"
)

// ResponseCacheStore provides the persistent response cache operations.
// Implemented by repository.ResponseCacheRepository.
type ResponseCacheStore interface {
	Get(ctx context.Context, key string) (*models.ResponseCacheEntry, error)
	Set(ctx context.Context, key string, data json.RawMessage, ttl *time.Duration) error
	Invalidate(ctx context.Context, key string) (int64, error)
	InvalidateAll(ctx context.Context) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// ResponseCache caches assembled response payloads under opaque keys. Reads
// and writes are best-effort: a broken cache degrades to misses and dropped
// writes, never to request failures.
type ResponseCache struct {
	store        ResponseCacheStore
	defaultTTL   time.Duration
	cacheMetrics observability.CacheMetrics
	logger       *slog.Logger
}

// ResponseCacheParams configures ResponseCache. DefaultTTL <= 0 means entries
// never expire unless a per-call TTL is given; CacheMetrics may be nil.
type ResponseCacheParams struct {
	Store        ResponseCacheStore
	DefaultTTL   time.Duration
	CacheMetrics observability.CacheMetrics
	Logger       *slog.Logger
}

// NewResponseCache creates a ResponseCache.
func NewResponseCache(p ResponseCacheParams) *ResponseCache {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ResponseCache{
		store:        p.Store,
		defaultTTL:   p.DefaultTTL,
		cacheMetrics: p.CacheMetrics,
		logger:       logger,
	}
}

// Get returns the cached payload for key, or (nil, false) on a miss or any
// cache failure.
func (c *ResponseCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheEntryNotFound) {
			c.logger.Warn("response cache: get failed", "error", err)
		}

		c.recordCache(ctx, false)

		return nil, false
	}

	c.recordCache(ctx, true)

	return entry.ResponseData, true
}

// Set stores the payload under key with the default TTL. A write failure is
// logged and swallowed.
func (c *ResponseCache) Set(ctx context.Context, key string, data json.RawMessage) {
	c.SetWithTTL(ctx, key, data, c.defaultTTL)
}

// SetWithTTL stores the payload under key. ttl <= 0 stores without expiry;
// such entries live until Invalidate.
func (c *ResponseCache) SetWithTTL(ctx context.Context, key string, data json.RawMessage, ttl time.Duration) {
	var ttlArg *time.Duration
	if ttl > 0 {
		ttlArg = &ttl
	}

	if err := c.store.Set(context.WithoutCancel(ctx), key, data, ttlArg); err != nil {
		c.logger.Warn("response cache: set failed", "error", err)
	}
}

// Invalidate removes the entry for key. Returns whether an entry was removed.
func (c *ResponseCache) Invalidate(ctx context.Context, key string) (bool, error) {
	n, err := c.store.Invalidate(ctx, key)
	if err != nil {
		return false, fmt.Errorf("invalidate response: %w", err)
	}

	return n > 0, nil
}

// InvalidateAll removes every entry. Returns the number removed.
func (c *ResponseCache) InvalidateAll(ctx context.Context) (int64, error) {
	n, err := c.store.InvalidateAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("invalidate all responses: %w", err)
	}

	return n, nil
}

// CleanupExpired removes expired entries. Returns the number removed.
func (c *ResponseCache) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := c.store.CleanupExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired responses: %w", err)
	}

	return n, nil
}

func (c *ResponseCache) recordCache(ctx context.Context, hit bool) {
	if c.cacheMetrics == nil {
		return
	}

	if hit {
		c.cacheMetrics.RecordHit(ctx, observability.CacheNameResponse)
	} else {
		c.cacheMetrics.RecordMiss(ctx, observability.CacheNameResponse)
	}
}
