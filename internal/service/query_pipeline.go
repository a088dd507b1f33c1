package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roastery/assistant/internal/intents"
	"github.com/roastery/assistant/internal/models"
)

// MetricsSink receives one QueryMetric per handled query. Implementations
// persist or export them; recording is best-effort and must not fail the
// query.
type MetricsSink interface {
	Record(ctx context.Context, metric models.QueryMetric)
}

// ProductMatcher provides the cached product search the pipeline routes
// product intents to. Implemented by ProductSearchService.
type ProductMatcher interface {
	SearchWithCache(
		ctx context.Context, queryEmbedding []float32, threshold float64, limit int,
	) ([]models.ProductMatch, bool, error)
}

// EmbeddedClassifier classifies a query whose embedding the caller already
// holds. Implemented by IntentClassifier.
type EmbeddedClassifier interface {
	ClassifyEmbedded(ctx context.Context, query string, embedding []float32, cacheHit bool) (models.IntentResult, error)
}

// PipelineResult is the outcome of one handled query: the classified intent
// and, when the intent routes to the catalog, the matched products.
type PipelineResult struct {
	Intent         models.IntentResult
	Products       []models.ProductMatch
	SearchCacheHit bool
}

// QueryPipeline orchestrates one query end to end: embed once, classify,
// route product intents through the similarity search, and emit a QueryMetric.
// Response generation happens upstream; the pipeline only produces the
// structured inputs for it.
type QueryPipeline struct {
	embedder        QueryEmbedder
	classifier      EmbeddedClassifier
	products        ProductMatcher
	searchThreshold float64
	searchLimit     int
	sink            MetricsSink
	logger          *slog.Logger
}

// QueryPipelineParams configures QueryPipeline. Sink may be nil (no metric
// records emitted).
type QueryPipelineParams struct {
	Embedder        QueryEmbedder
	Classifier      EmbeddedClassifier
	Products        ProductMatcher
	SearchThreshold float64
	SearchLimit     int
	Sink            MetricsSink
	Logger          *slog.Logger
}

// NewQueryPipeline creates a QueryPipeline.
func NewQueryPipeline(p QueryPipelineParams) *QueryPipeline {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	searchLimit := p.SearchLimit
	if searchLimit <= 0 {
		searchLimit = 5
	}

	return &QueryPipeline{
		embedder:        p.Embedder,
		classifier:      p.Classifier,
		products:        p.Products,
		searchThreshold: p.SearchThreshold,
		searchLimit:     searchLimit,
		sink:            p.Sink,
		logger:          logger,
	}
}

// Handle classifies the query and runs product search when the intent calls
// for it. The query is embedded exactly once; classification and search share
// the vector.
func (p *QueryPipeline) Handle(ctx context.Context, query string) (PipelineResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return PipelineResult{}, ErrEmptyQuery
	}

	totalStart := time.Now()

	embedding, embedCacheHit, err := p.embedder.EmbedWithStatus(ctx, query)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("embed query: %w", err)
	}

	classifyStart := time.Now()

	intent, err := p.classifier.ClassifyEmbedded(ctx, query, embedding, embedCacheHit)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("classify query: %w", err)
	}

	classifyDuration := time.Since(classifyStart)

	result := PipelineResult{Intent: intent}

	var searchDuration time.Duration

	if intents.RoutesToProductSearch(intent.Intent) && p.products != nil {
		searchStart := time.Now()

		matches, cacheHit, searchErr := p.products.SearchWithCache(ctx, embedding, p.searchThreshold, p.searchLimit)
		if searchErr != nil {
			return PipelineResult{}, fmt.Errorf("product search: %w", searchErr)
		}

		searchDuration = time.Since(searchStart)
		result.Products = matches
		result.SearchCacheHit = cacheHit
	}

	p.emit(ctx, models.QueryMetric{
		Query:                  query,
		Intent:                 intent.Intent,
		Confidence:             intent.Confidence,
		EmbeddingCacheHit:      intent.EmbeddingCacheHit,
		FallbackUsed:           intent.FallbackUsed,
		SearchCacheHit:         result.SearchCacheHit,
		SimilarityResultsCount: len(result.Products),
		ClassifyDuration:       classifyDuration,
		SearchDuration:         searchDuration,
		TotalDuration:          time.Since(totalStart),
	})

	return result, nil
}

func (p *QueryPipeline) emit(ctx context.Context, metric models.QueryMetric) {
	if p.sink == nil {
		return
	}

	p.sink.Record(ctx, metric)
}
