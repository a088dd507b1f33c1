// seed-exemplars loads the intent exemplar corpus into the database, embedding
// every phrase through the cached embedding service. Safe to re-run: existing
// (intent, phrase) rows are updated in place and keep their usage counts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/roastery/assistant/internal/config"
	"github.com/roastery/assistant/internal/intents"
	"github.com/roastery/assistant/internal/observability"
	"github.com/roastery/assistant/internal/openai"
	"github.com/roastery/assistant/internal/repository"
	"github.com/roastery/assistant/internal/service"
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

	embeddingClient := openai.NewClient(
		cfg.OpenAIAPIKey,
		openai.WithModel(cfg.EmbeddingModel),
		openai.WithDimensions(cfg.EmbeddingDimensions),
		openai.WithChunkSize(cfg.EmbeddingBatchSize),
		openai.WithRequestsPerSecond(cfg.EmbeddingRequestsPerSecond),
	)

	embeddingService, err := service.NewEmbeddingService(service.EmbeddingServiceParams{
		Client:          embeddingClient,
		CacheRepo:       repository.NewEmbeddingCacheRepository(db),
		Model:           cfg.EmbeddingModel,
		MemoryCacheSize: cfg.MemoryCacheSize,
		Logger:          logger,
	})
	if err != nil {
		slog.Error("Failed to create embedding service", "error", err)

		return exitFailure
	}

	loader := service.NewExemplarLoader(service.ExemplarLoaderParams{
		Embedder:   embeddingService,
		Exemplars:  repository.NewExemplarRepository(db),
		Dimensions: cfg.EmbeddingDimensions,
		Logger:     logger,
	})

	loaded, err := loader.BulkLoad(ctx, intents.Corpus)
	if err != nil {
		slog.Error("Seeding failed", "error", err)

		return exitFailure
	}

	slog.Info("Seeding complete", "loaded", loaded)
	fmt.Printf("Loaded %d exemplar(s).\n", loaded)

	return exitSuccess
}
