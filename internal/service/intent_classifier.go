package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roastery/assistant/internal/intents"
	"github.com/roastery/assistant/internal/models"
	"github.com/roastery/assistant/internal/observability"
)

// ErrEmptyQuery is returned when the query is empty after trimming.
var ErrEmptyQuery = errors.New("query is required and must be non-empty")

// QueryEmbedder provides the embedding operation the classifier needs.
// Implemented by EmbeddingService.
type QueryEmbedder interface {
	EmbedWithStatus(ctx context.Context, text string) ([]float32, bool, error)
}

// ExemplarSearcher provides the exemplar store operations the classifier
// needs. Implemented by repository.ExemplarRepository.
type ExemplarSearcher interface {
	SearchSimilar(
		ctx context.Context, queryEmbedding []float32, minSimilarity float64, limit int, targetIntent string,
	) ([]models.ExemplarMatch, error)
	IncrementUsage(ctx context.Context, id int64) error
}

// IntentClassifier maps a free-text query to one of the fixed intents by
// nearest-exemplar search. The best candidate above the global floor is
// accepted when its similarity meets that exemplar's own threshold; otherwise
// the fallback intent is returned with the observed confidence, so callers can
// still see how close the query came.
type IntentClassifier struct {
	embedder      QueryEmbedder
	exemplars     ExemplarSearcher
	minSimilarity float64
	maxResults    int
	metrics       observability.IntentMetrics
	logger        *slog.Logger
}

// IntentClassifierParams configures IntentClassifier. Zero MinSimilarity and
// MaxResults fall back to the intents package defaults; Metrics may be nil.
type IntentClassifierParams struct {
	Embedder      QueryEmbedder
	Exemplars     ExemplarSearcher
	MinSimilarity float64
	MaxResults    int
	Metrics       observability.IntentMetrics
	Logger        *slog.Logger
}

// NewIntentClassifier creates an IntentClassifier.
func NewIntentClassifier(p IntentClassifierParams) *IntentClassifier {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	minSimilarity := p.MinSimilarity
	if minSimilarity == 0 {
		minSimilarity = intents.DefaultMinSimilarity
	}

	maxResults := p.MaxResults
	if maxResults == 0 {
		maxResults = intents.DefaultMaxResults
	}

	return &IntentClassifier{
		embedder:      p.Embedder,
		exemplars:     p.Exemplars,
		minSimilarity: minSimilarity,
		maxResults:    maxResults,
		metrics:       p.Metrics,
		logger:        logger,
	}
}

// Classify embeds the query and classifies it against the exemplar store.
// Embedding failures propagate as typed errors; falling back silently would
// hide a provider outage behind GENERAL_CONVERSATION.
func (c *IntentClassifier) Classify(ctx context.Context, query string) (models.IntentResult, error) {
	result, _, err := c.classify(ctx, query, nil, false)

	return result, err
}

// ClassifyEmbedded classifies with a query embedding the caller already has,
// avoiding a second provider round-trip. cacheHit reports how the embedding
// was obtained and is carried into the result.
func (c *IntentClassifier) ClassifyEmbedded(
	ctx context.Context, query string, embedding []float32, cacheHit bool,
) (models.IntentResult, error) {
	if strings.TrimSpace(query) == "" {
		return models.IntentResult{}, ErrEmptyQuery
	}

	if len(embedding) == 0 {
		return models.IntentResult{}, errors.New("query embedding is required")
	}

	result, _, err := c.classifyEmbedded(ctx, embedding, cacheHit)

	return result, err
}

// ClassifyWithAlternatives classifies the query and also returns the full
// candidate list for diagnostics.
func (c *IntentClassifier) ClassifyWithAlternatives(
	ctx context.Context, query string,
) (models.IntentResult, []models.ExemplarMatch, error) {
	return c.classify(ctx, query, nil, false)
}

func (c *IntentClassifier) classify(
	ctx context.Context, query string, embedding []float32, cacheHit bool,
) (models.IntentResult, []models.ExemplarMatch, error) {
	if strings.TrimSpace(query) == "" {
		return models.IntentResult{}, nil, ErrEmptyQuery
	}

	if embedding == nil {
		var err error

		embedding, cacheHit, err = c.embedder.EmbedWithStatus(ctx, query)
		if err != nil {
			c.recordClassification(ctx, "", observability.OutcomeError, 0)

			return models.IntentResult{}, nil, fmt.Errorf("embed query: %w", err)
		}
	}

	return c.classifyEmbedded(ctx, embedding, cacheHit)
}

func (c *IntentClassifier) classifyEmbedded(
	ctx context.Context, embedding []float32, cacheHit bool,
) (models.IntentResult, []models.ExemplarMatch, error) {
	start := time.Now()

	matches, err := c.exemplars.SearchSimilar(ctx, embedding, c.minSimilarity, c.maxResults, "")
	if err != nil {
		c.recordClassification(ctx, "", observability.OutcomeError, time.Since(start))

		return models.IntentResult{}, nil, fmt.Errorf("search exemplars: %w", err)
	}

	if len(matches) == 0 {
		// Nothing above the floor, or an unseeded store. Fall back rather
		// than error so the assistant keeps answering.
		result := models.IntentResult{
			Intent:            intents.Fallback,
			Confidence:        0,
			EmbeddingCacheHit: cacheHit,
			FallbackUsed:      true,
		}

		c.recordClassification(ctx, intents.Fallback, observability.OutcomeNoCandidates, time.Since(start))

		return result, nil, nil
	}

	best := matches[0]

	if best.Similarity >= best.ConfidenceThreshold {
		if err := c.exemplars.IncrementUsage(ctx, best.ID); err != nil {
			c.logger.Warn("intent classify: usage increment failed",
				"exemplar_id", best.ID, "intent", best.Intent, "error", err)
		}

		result := models.IntentResult{
			Intent:            best.Intent,
			Confidence:        best.Similarity,
			ExemplarPhrase:    best.Phrase,
			EmbeddingCacheHit: cacheHit,
		}

		c.recordClassification(ctx, best.Intent, observability.OutcomeAccepted, time.Since(start))

		return result, matches, nil
	}

	c.logger.Debug("intent classify: best match below threshold",
		"intent", best.Intent, "similarity", best.Similarity, "threshold", best.ConfidenceThreshold)

	result := models.IntentResult{
		Intent:            intents.Fallback,
		Confidence:        best.Similarity,
		ExemplarPhrase:    best.Phrase,
		EmbeddingCacheHit: cacheHit,
		FallbackUsed:      true,
	}

	c.recordClassification(ctx, intents.Fallback, observability.OutcomeBelowThreshold, time.Since(start))

	return result, matches, nil
}

func (c *IntentClassifier) recordClassification(
	ctx context.Context, intent, outcome string, duration time.Duration,
) {
	if c.metrics == nil {
		return
	}

	c.metrics.RecordClassification(ctx, observability.NormalizeIntent(intent), outcome)

	if duration > 0 {
		c.metrics.RecordClassifyDuration(ctx, duration, outcome)
	}
}
