package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/roastery/assistant/internal/models"
)

// ExemplarRepository handles data access for the intent_exemplars table.
type ExemplarRepository struct {
	db *pgxpool.Pool
}

// NewExemplarRepository creates a new exemplar repository.
func NewExemplarRepository(db *pgxpool.Pool) *ExemplarRepository {
	return &ExemplarRepository{db: db}
}

// Upsert inserts or updates the exemplar for (intent, phrase). On conflict the
// embedding and threshold are replaced; usage_count is preserved so reseeding
// the corpus does not reset usage statistics.
func (r *ExemplarRepository) Upsert(
	ctx context.Context, intent, phrase string, embedding []float32, confidenceThreshold float64,
) error {
	vec := pgvector.NewVector(embedding)
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO intent_exemplars (intent, phrase, embedding, confidence_threshold, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
		ON CONFLICT (intent, phrase)
		DO UPDATE SET embedding = EXCLUDED.embedding, confidence_threshold = EXCLUDED.confidence_threshold, updated_at = $5`,
		intent, phrase, vec, confidenceThreshold, now,
	)
	if err != nil {
		return fmt.Errorf("exemplar upsert: %w", err)
	}

	return nil
}

// SearchSimilar returns the exemplars nearest to queryEmbedding with
// similarity strictly above minSimilarity, ordered by similarity descending
// and id ascending so ties resolve to the earliest-seeded exemplar. A
// non-empty targetIntent restricts the search to that intent's exemplars.
// Uses cosine distance (<=>); similarity = 1 - distance.
func (r *ExemplarRepository) SearchSimilar(
	ctx context.Context, queryEmbedding []float32, minSimilarity float64, limit int, targetIntent string,
) ([]models.ExemplarMatch, error) {
	queryVec := pgvector.NewVector(queryEmbedding)

	var (
		rows pgx.Rows
		err  error
	)

	if targetIntent == "" {
		rows, err = r.db.Query(ctx, `
			SELECT id, intent, phrase, (1 - (embedding <=> $1)) AS similarity, confidence_threshold, usage_count
			FROM intent_exemplars
			WHERE (1 - (embedding <=> $1)) > $2
			ORDER BY similarity DESC, id ASC
			LIMIT $3`, queryVec, minSimilarity, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT id, intent, phrase, (1 - (embedding <=> $1)) AS similarity, confidence_threshold, usage_count
			FROM intent_exemplars
			WHERE intent = $2 AND (1 - (embedding <=> $1)) > $3
			ORDER BY similarity DESC, id ASC
			LIMIT $4`, queryVec, targetIntent, minSimilarity, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("search similar exemplars: %w", err)
	}

	defer rows.Close()

	var matches []models.ExemplarMatch

	for rows.Next() {
		var m models.ExemplarMatch
		if err := rows.Scan(&m.ID, &m.Intent, &m.Phrase, &m.Similarity, &m.ConfidenceThreshold, &m.UsageCount); err != nil {
			return nil, fmt.Errorf("scan exemplar match: %w", err)
		}

		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exemplar matches: %w", err)
	}

	return matches, nil
}

// IncrementUsage bumps usage_count for the exemplar that produced an accepted
// classification.
func (r *ExemplarRepository) IncrementUsage(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE intent_exemplars SET usage_count = usage_count + 1, updated_at = $2 WHERE id = $1`,
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("increment exemplar usage: %w", err)
	}

	return nil
}

// ListByIntent returns all exemplars for one intent, oldest first.
func (r *ExemplarRepository) ListByIntent(ctx context.Context, intent string) ([]models.IntentExemplar, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, intent, phrase, embedding, confidence_threshold, usage_count, created_at, updated_at
		FROM intent_exemplars
		WHERE intent = $1
		ORDER BY id ASC`, intent)
	if err != nil {
		return nil, fmt.Errorf("list exemplars by intent: %w", err)
	}
	defer rows.Close()

	var exemplars []models.IntentExemplar

	for rows.Next() {
		var (
			e   models.IntentExemplar
			vec pgvector.Vector
		)

		if err := rows.Scan(&e.ID, &e.Intent, &e.Phrase, &vec, &e.ConfidenceThreshold, &e.UsageCount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exemplar: %w", err)
		}

		e.Embedding = vec.Slice()
		exemplars = append(exemplars, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exemplars: %w", err)
	}

	return exemplars, nil
}

// Delete removes one exemplar by (intent, phrase). Returns the number of rows
// removed (0 or 1).
func (r *ExemplarRepository) Delete(ctx context.Context, intent, phrase string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM intent_exemplars WHERE intent = $1 AND phrase = $2`,
		intent, phrase,
	)
	if err != nil {
		return 0, fmt.Errorf("exemplar delete: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteUnused removes exemplars that have never matched a query and whose
// last update is older than cutoff. Returns the number of rows removed.
func (r *ExemplarRepository) DeleteUnused(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM intent_exemplars WHERE usage_count = 0 AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete unused exemplars: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Stats returns aggregate counts for the exemplar store, with per-intent usage
// ordered by total usage descending.
func (r *ExemplarRepository) Stats(ctx context.Context) (models.IntentStats, error) {
	var stats models.IntentStats

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT intent), COALESCE(AVG(usage_count), 0)
		FROM intent_exemplars`,
	).Scan(&stats.TotalExemplars, &stats.IntentsCount, &stats.AverageUsage)
	if err != nil {
		return models.IntentStats{}, fmt.Errorf("exemplar stats: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT intent, COUNT(*), COALESCE(SUM(usage_count), 0), COALESCE(AVG(confidence_threshold), 0)
		FROM intent_exemplars
		GROUP BY intent
		ORDER BY SUM(usage_count) DESC`)
	if err != nil {
		return models.IntentStats{}, fmt.Errorf("exemplar usage by intent: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.IntentUsageRow
		if err := rows.Scan(&row.Intent, &row.ExemplarCount, &row.TotalUsage, &row.AvgThreshold); err != nil {
			return models.IntentStats{}, fmt.Errorf("scan intent usage: %w", err)
		}

		stats.TopIntents = append(stats.TopIntents, row)
	}

	if err := rows.Err(); err != nil {
		return models.IntentStats{}, fmt.Errorf("iterating intent usage: %w", err)
	}

	return stats, nil
}
