package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roastery/assistant/internal/models"
)

// ResponseCacheRepository handles data access for the response_cache table,
// which stores fully-assembled response payloads under opaque keys. A NULL
// expires_at means the entry never expires.
type ResponseCacheRepository struct {
	db *pgxpool.Pool
}

// NewResponseCacheRepository creates a new response cache repository.
func NewResponseCacheRepository(db *pgxpool.Pool) *ResponseCacheRepository {
	return &ResponseCacheRepository{db: db}
}

// Get returns the unexpired entry for key, or ErrCacheEntryNotFound when no
// live row exists.
func (r *ResponseCacheRepository) Get(ctx context.Context, key string) (*models.ResponseCacheEntry, error) {
	var entry models.ResponseCacheEntry

	err := r.db.QueryRow(ctx, `
		SELECT id, cache_key, response_data, expires_at, created_at
		FROM response_cache
		WHERE cache_key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key, time.Now(),
	).Scan(&entry.ID, &entry.CacheKey, &entry.ResponseData, &entry.ExpiresAt, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCacheEntryNotFound
		}

		return nil, fmt.Errorf("get response cache entry: %w", err)
	}

	return &entry, nil
}

// Set inserts or replaces the entry for key. A nil ttl stores the entry
// without expiry.
func (r *ResponseCacheRepository) Set(ctx context.Context, key string, data json.RawMessage, ttl *time.Duration) error {
	now := time.Now()

	var expiresAt *time.Time
	if ttl != nil {
		t := now.Add(*ttl)
		expiresAt = &t
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO response_cache (cache_key, response_data, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key)
		DO UPDATE SET response_data = EXCLUDED.response_data, expires_at = EXCLUDED.expires_at, created_at = $4`,
		key, data, expiresAt, now,
	)
	if err != nil {
		return fmt.Errorf("set response cache entry: %w", err)
	}

	return nil
}

// Invalidate removes the entry for key. Returns the number of rows removed
// (0 or 1).
func (r *ResponseCacheRepository) Invalidate(ctx context.Context, key string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM response_cache WHERE cache_key = $1`, key)
	if err != nil {
		return 0, fmt.Errorf("invalidate response cache entry: %w", err)
	}

	return tag.RowsAffected(), nil
}

// InvalidateAll removes every entry. Returns the number of rows removed.
func (r *ResponseCacheRepository) InvalidateAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM response_cache`)
	if err != nil {
		return 0, fmt.Errorf("invalidate response cache: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CleanupExpired removes rows past their expiry. Rows without expiry are never
// touched. Returns the number of rows removed.
func (r *ResponseCacheRepository) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM response_cache WHERE expires_at IS NOT NULL AND expires_at <= $1`,
		time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired response cache: %w", err)
	}

	return tag.RowsAffected(), nil
}
