// backfill-embeddings enqueues River embedding jobs for catalog products that
// have no embedding yet. With RUN_WORKERS=true it also runs the embedding
// worker in-process until interrupted, so a one-off backfill can drain its own
// queue.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/roastery/assistant/internal/config"
	"github.com/roastery/assistant/internal/observability"
	"github.com/roastery/assistant/internal/openai"
	"github.com/roastery/assistant/internal/repository"
	"github.com/roastery/assistant/internal/service"
	"github.com/roastery/assistant/internal/workers"
	"github.com/roastery/assistant/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	logger := slog.New(observability.NewTraceContextHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.NewVectorPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	productsRepo := repository.NewProductsRepository(db)
	cacheRepo := repository.NewEmbeddingCacheRepository(db)

	embeddingClient := openai.NewClient(
		cfg.OpenAIAPIKey,
		openai.WithModel(cfg.EmbeddingModel),
		openai.WithDimensions(cfg.EmbeddingDimensions),
		openai.WithChunkSize(cfg.EmbeddingBatchSize),
		openai.WithRequestsPerSecond(cfg.EmbeddingRequestsPerSecond),
	)

	embeddingService, err := service.NewEmbeddingService(service.EmbeddingServiceParams{
		Client:          embeddingClient,
		CacheRepo:       cacheRepo,
		Model:           cfg.EmbeddingModel,
		MemoryCacheSize: cfg.MemoryCacheSize,
		Logger:          logger,
	})
	if err != nil {
		slog.Error("Failed to create embedding service", "error", err)

		return exitFailure
	}

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewProductEmbeddingWorker(productsRepo, embeddingService, nil))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
		},
		Workers: riverWorkers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)

		return exitFailure
	}

	catalog := service.NewProductCatalogService(service.ProductCatalogServiceParams{
		Products:    productsRepo,
		Inserter:    riverClient,
		MaxAttempts: cfg.EmbeddingBackfillMaxAttempts,
		Logger:      logger,
	})

	enqueued, err := catalog.BackfillEmbeddings(ctx)
	if err != nil {
		slog.Error("Backfill failed", "error", err)

		return exitFailure
	}

	slog.Info("Backfill complete", "enqueued", enqueued)
	fmt.Printf("Enqueued %d embedding job(s).\n", enqueued)

	if os.Getenv("RUN_WORKERS") != "true" {
		return exitSuccess
	}

	if err := riverClient.Start(ctx); err != nil {
		slog.Error("Failed to start workers", "error", err)

		return exitFailure
	}

	slog.Info("Workers running; interrupt to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := riverClient.Stop(ctx); err != nil {
		slog.Error("Failed to stop workers cleanly", "error", err)

		return exitFailure
	}

	return exitSuccess
}
