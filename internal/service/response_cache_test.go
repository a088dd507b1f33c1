package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery/assistant/internal/models"
	"github.com/roastery/assistant/internal/repository"
)

type fakeResponseStore struct {
	now     func() time.Time
	entries map[string]*models.ResponseCacheEntry
	getErr  error
	setErr  error
}

func newFakeResponseStore(now func() time.Time) *fakeResponseStore {
	return &fakeResponseStore{now: now, entries: make(map[string]*models.ResponseCacheEntry)}
}

func (f *fakeResponseStore) Get(_ context.Context, key string) (*models.ResponseCacheEntry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	entry, ok := f.entries[key]
	if !ok {
		return nil, repository.ErrCacheEntryNotFound
	}

	if entry.ExpiresAt != nil && !entry.ExpiresAt.After(f.now()) {
		return nil, repository.ErrCacheEntryNotFound
	}

	return entry, nil
}

func (f *fakeResponseStore) Set(_ context.Context, key string, data json.RawMessage, ttl *time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}

	entry := &models.ResponseCacheEntry{CacheKey: key, ResponseData: data}

	if ttl != nil {
		t := f.now().Add(*ttl)
		entry.ExpiresAt = &t
	}

	f.entries[key] = entry

	return nil
}

func (f *fakeResponseStore) Invalidate(_ context.Context, key string) (int64, error) {
	if _, ok := f.entries[key]; !ok {
		return 0, nil
	}

	delete(f.entries, key)

	return 1, nil
}

func (f *fakeResponseStore) InvalidateAll(context.Context) (int64, error) {
	n := int64(len(f.entries))
	f.entries = make(map[string]*models.ResponseCacheEntry)

	return n, nil
}

func (f *fakeResponseStore) CleanupExpired(context.Context) (int64, error) {
	var n int64

	for key, entry := range f.entries {
		if entry.ExpiresAt != nil && !entry.ExpiresAt.After(f.now()) {
			delete(f.entries, key)
			n++
		}
	}

	return n, nil
}

func newTestResponseCache(store ResponseCacheStore, ttl time.Duration) *ResponseCache {
	return NewResponseCache(ResponseCacheParams{Store: store, DefaultTTL: ttl})
}

func TestResponseCache_SetGetRoundTrip(t *testing.T) {
	store := newFakeResponseStore(time.Now)
	cache := newTestResponseCache(store, 5*time.Minute)

	payload := json.RawMessage(`{"answer":"We open at 7am."}`)
	cache.Set(context.Background(), "store-hours", payload)

	got, ok := cache.Get(context.Background(), "store-hours")
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(got))
}

func TestResponseCache_ExpiredEntryIsAMiss(t *testing.T) {
	clock := time.Now()
	store := newFakeResponseStore(func() time.Time { return clock })
	cache := newTestResponseCache(store, time.Minute)

	cache.Set(context.Background(), "k", json.RawMessage(`{}`))

	clock = clock.Add(2 * time.Minute)

	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)

	removed, err := cache.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestResponseCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := time.Now()
	store := newFakeResponseStore(func() time.Time { return clock })
	cache := newTestResponseCache(store, 0)

	cache.Set(context.Background(), "pinned", json.RawMessage(`{"v":1}`))

	clock = clock.Add(24 * 365 * time.Hour)

	_, ok := cache.Get(context.Background(), "pinned")
	assert.True(t, ok)

	removed, err := cache.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed, "unexpiring entries survive cleanup")

	invalidated, err := cache.Invalidate(context.Background(), "pinned")
	require.NoError(t, err)
	assert.True(t, invalidated)

	_, ok = cache.Get(context.Background(), "pinned")
	assert.False(t, ok)
}

func TestResponseCache_FailuresAreBestEffort(t *testing.T) {
	store := newFakeResponseStore(time.Now)
	store.getErr = errors.New("timeout")
	store.setErr = errors.New("timeout")
	cache := newTestResponseCache(store, time.Minute)

	cache.Set(context.Background(), "k", json.RawMessage(`{}`)) // must not panic or error

	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestResponseCache_InvalidateAll(t *testing.T) {
	store := newFakeResponseStore(time.Now)
	cache := newTestResponseCache(store, time.Minute)

	cache.Set(context.Background(), "a", json.RawMessage(`{}`))
	cache.Set(context.Background(), "b", json.RawMessage(`{}`))

	n, err := cache.InvalidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
