// Package app assembles the assistant core dependency graph: database pool,
// embedding provider, caches, classifier, product search, and the query
// pipeline. Commands and embedding hosts construct one App per process.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/roastery/assistant/internal/config"
	"github.com/roastery/assistant/internal/observability"
	"github.com/roastery/assistant/internal/openai"
	"github.com/roastery/assistant/internal/repository"
	"github.com/roastery/assistant/internal/service"
	"github.com/roastery/assistant/pkg/database"
)

// App holds the assembled assistant core and coordinates shutdown.
type App struct {
	Config           *config.Config
	DB               *pgxpool.Pool
	EmbeddingService *service.EmbeddingService
	Classifier       *service.IntentClassifier
	ProductSearch    *service.ProductSearchService
	ResponseCache    *service.ResponseCache
	Pipeline         *service.QueryPipeline

	meterProvider *sdkmetric.MeterProvider
}

// Options tweak assembly for non-default hosts.
type Options struct {
	// Sink receives one QueryMetric per handled query; nil disables emission.
	Sink service.MetricsSink
	// Logger overrides the default JSON logger.
	Logger *slog.Logger
}

// New assembles the core from configuration. The returned App owns the
// database pool and meter provider; call Close when done.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(observability.NewTraceContextHandler(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
		))
		slog.SetDefault(logger)
	}

	meterProvider, err := observability.NewMeterProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}

	var (
		cacheMetrics     observability.CacheMetrics
		intentMetrics    observability.IntentMetrics
		embeddingMetrics observability.EmbeddingMetrics
	)

	if meterProvider != nil {
		meter := meterProvider.Meter("assistant")

		cacheMetrics, err = observability.NewCacheMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create cache metrics: %w", err)
		}

		intentMetrics, err = observability.NewIntentMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create intent metrics: %w", err)
		}

		embeddingMetrics, err = observability.NewEmbeddingMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create embedding metrics: %w", err)
		}
	}

	db, err := database.NewVectorPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	embeddingClient := openai.NewClient(
		cfg.OpenAIAPIKey,
		openai.WithModel(cfg.EmbeddingModel),
		openai.WithDimensions(cfg.EmbeddingDimensions),
		openai.WithChunkSize(cfg.EmbeddingBatchSize),
		openai.WithRequestsPerSecond(cfg.EmbeddingRequestsPerSecond),
	)

	embeddingService, err := service.NewEmbeddingService(service.EmbeddingServiceParams{
		Client:           embeddingClient,
		CacheRepo:        repository.NewEmbeddingCacheRepository(db),
		Model:            cfg.EmbeddingModel,
		MemoryCacheSize:  cfg.MemoryCacheSize,
		CacheMetrics:     cacheMetrics,
		EmbeddingMetrics: embeddingMetrics,
		Logger:           logger,
	})
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("create embedding service: %w", err)
	}

	classifier := service.NewIntentClassifier(service.IntentClassifierParams{
		Embedder:      embeddingService,
		Exemplars:     repository.NewExemplarRepository(db),
		MinSimilarity: cfg.IntentMinSimilarity,
		MaxResults:    cfg.IntentMaxResults,
		Metrics:       intentMetrics,
		Logger:        logger,
	})

	productSearch := service.NewProductSearchService(service.ProductSearchServiceParams{
		Products:     repository.NewProductsRepository(db),
		SearchCache:  repository.NewSearchCacheRepository(db),
		CacheTTL:     cfg.SearchCacheTTL,
		KeyDims:      cfg.SearchCacheKeyDims,
		CacheMetrics: cacheMetrics,
		Logger:       logger,
	})

	responseCache := service.NewResponseCache(service.ResponseCacheParams{
		Store:        repository.NewResponseCacheRepository(db),
		DefaultTTL:   cfg.ResponseCacheTTL,
		CacheMetrics: cacheMetrics,
		Logger:       logger,
	})

	pipeline := service.NewQueryPipeline(service.QueryPipelineParams{
		Embedder:        embeddingService,
		Classifier:      classifier,
		Products:        productSearch,
		SearchThreshold: cfg.ProductSimilarityThreshold,
		SearchLimit:     cfg.ProductSearchLimit,
		Sink:            opts.Sink,
		Logger:          logger,
	})

	return &App{
		Config:           cfg,
		DB:               db,
		EmbeddingService: embeddingService,
		Classifier:       classifier,
		ProductSearch:    productSearch,
		ResponseCache:    responseCache,
		Pipeline:         pipeline,
		meterProvider:    meterProvider,
	}, nil
}

// Close releases the pool and flushes metrics.
func (a *App) Close(ctx context.Context) error {
	a.DB.Close()

	if err := observability.ShutdownMeterProvider(ctx, a.meterProvider); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}

	return nil
}
