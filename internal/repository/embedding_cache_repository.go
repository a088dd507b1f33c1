// Package repository contains pgx-based data access for the assistant core
// tables: embedding cache, intent exemplars, products, search cache, and
// response cache.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/roastery/assistant/internal/models"
)

// EmbeddingCacheRepository handles data access for the embedding_cache table,
// the persistent tier of the embedding cache keyed by (text_hash, model).
type EmbeddingCacheRepository struct {
	db *pgxpool.Pool
}

// NewEmbeddingCacheRepository creates a new embedding cache repository.
func NewEmbeddingCacheRepository(db *pgxpool.Pool) *EmbeddingCacheRepository {
	return &EmbeddingCacheRepository{db: db}
}

// ErrCacheEntryNotFound is returned when no cache row exists for the given
// text hash and model.
var ErrCacheEntryNotFound = errors.New("embedding cache entry not found")

// Get returns the cached embedding for (textHash, model) without touching
// hit_count. Returns ErrCacheEntryNotFound when no row exists.
func (r *EmbeddingCacheRepository) Get(ctx context.Context, textHash, model string) ([]float32, error) {
	var vec pgvector.Vector

	err := r.db.QueryRow(ctx,
		`SELECT embedding FROM embedding_cache WHERE text_hash = $1 AND model = $2`,
		textHash, model,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCacheEntryNotFound
		}

		return nil, fmt.Errorf("get cached embedding: %w", err)
	}

	return vec.Slice(), nil
}

// TouchHit records one cache hit: increments hit_count and stamps
// last_accessed. Kept separate from Get so reads that never surface the value
// (or memory-tier hits) do not mutate the row.
func (r *EmbeddingCacheRepository) TouchHit(ctx context.Context, textHash, model string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE embedding_cache
		SET hit_count = hit_count + 1, last_accessed = $3
		WHERE text_hash = $1 AND model = $2`,
		textHash, model, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("touch cached embedding: %w", err)
	}

	return nil
}

// Put inserts the embedding for (textHash, model). On conflict the stored
// vector is replaced and hit_count is bumped: a concurrent miss that raced
// past the read still counts as a use of the entry.
func (r *EmbeddingCacheRepository) Put(ctx context.Context, textHash, model string, embedding []float32) error {
	vec := pgvector.NewVector(embedding)

	_, err := r.db.Exec(ctx, `
		INSERT INTO embedding_cache (text_hash, model, embedding, hit_count, created_at)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (text_hash, model)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			hit_count = embedding_cache.hit_count + 1`,
		textHash, model, vec, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("put cached embedding: %w", err)
	}

	return nil
}

// DeleteOlderThan removes cache rows whose last access (or creation, if never
// accessed) is before cutoff. Returns the number of rows removed.
func (r *EmbeddingCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM embedding_cache WHERE COALESCE(last_accessed, created_at) < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale cached embeddings: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Clear removes all rows from the embedding cache. Returns the number of rows
// removed.
func (r *EmbeddingCacheRepository) Clear(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM embedding_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear embedding cache: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Stats returns row and hit totals for the embedding cache.
func (r *EmbeddingCacheRepository) Stats(ctx context.Context) (models.CacheStats, error) {
	var stats models.CacheStats

	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM embedding_cache`,
	).Scan(&stats.EmbeddingEntries, &stats.TotalEmbeddingHits)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("embedding cache stats: %w", err)
	}

	return stats, nil
}
