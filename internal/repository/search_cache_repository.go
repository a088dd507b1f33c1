package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roastery/assistant/internal/models"
)

// SearchCacheRepository handles data access for the search_cache table, which
// stores product id-lists of recent similarity searches keyed by
// (embedding_hash, similarity_threshold, result_limit).
type SearchCacheRepository struct {
	db *pgxpool.Pool
}

// NewSearchCacheRepository creates a new search cache repository.
func NewSearchCacheRepository(db *pgxpool.Pool) *SearchCacheRepository {
	return &SearchCacheRepository{db: db}
}

// Get returns the unexpired cache entry for the given key, or
// ErrCacheEntryNotFound when no live row exists. Expired rows are treated as
// absent; they are removed later by CleanupExpired.
func (r *SearchCacheRepository) Get(
	ctx context.Context, embeddingHash string, similarityThreshold float64, resultLimit int,
) (*models.SearchCacheEntry, error) {
	var entry models.SearchCacheEntry

	err := r.db.QueryRow(ctx, `
		SELECT id, embedding_hash, similarity_threshold, result_limit, product_ids, results_count,
		       expires_at, created_at, last_accessed, hit_count
		FROM search_cache
		WHERE embedding_hash = $1 AND similarity_threshold = $2 AND result_limit = $3 AND expires_at > $4`,
		embeddingHash, similarityThreshold, resultLimit, time.Now(),
	).Scan(
		&entry.ID, &entry.EmbeddingHash, &entry.SimilarityThreshold, &entry.ResultLimit,
		&entry.ProductIDs, &entry.ResultsCount, &entry.ExpiresAt, &entry.CreatedAt,
		&entry.LastAccessed, &entry.HitCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCacheEntryNotFound
		}

		return nil, fmt.Errorf("get search cache entry: %w", err)
	}

	return &entry, nil
}

// TouchHit records one cache hit on the entry.
func (r *SearchCacheRepository) TouchHit(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE search_cache SET hit_count = hit_count + 1, last_accessed = $2 WHERE id = $1`,
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("touch search cache entry: %w", err)
	}

	return nil
}

// Put inserts or refreshes the entry for the given key with a new id-list and
// expiry ttl from now. On conflict the previous result set and its hit_count
// are replaced; a refreshed entry starts cold.
func (r *SearchCacheRepository) Put(
	ctx context.Context, entry *models.SearchCacheEntry, ttl time.Duration,
) error {
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO search_cache (embedding_hash, similarity_threshold, result_limit, product_ids, results_count,
		                          expires_at, created_at, hit_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
		ON CONFLICT (embedding_hash, similarity_threshold, result_limit)
		DO UPDATE SET product_ids = EXCLUDED.product_ids, results_count = EXCLUDED.results_count,
		              expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at, hit_count = 0`,
		entry.EmbeddingHash, entry.SimilarityThreshold, entry.ResultLimit,
		entry.ProductIDs, entry.ResultsCount, now.Add(ttl), now,
	)
	if err != nil {
		return fmt.Errorf("put search cache entry: %w", err)
	}

	return nil
}

// CleanupExpired removes rows past their expiry. Returns the number of rows
// removed.
func (r *SearchCacheRepository) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM search_cache WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired search cache: %w", err)
	}

	return tag.RowsAffected(), nil
}
