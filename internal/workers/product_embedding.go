// Package workers provides River job workers (e.g. product embedding backfill).
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/roastery/assistant/internal/assistanterrors"
	"github.com/roastery/assistant/internal/models"
	"github.com/roastery/assistant/internal/observability"
	"github.com/roastery/assistant/internal/repository"
	"github.com/roastery/assistant/internal/service"
)

// ProductEmbeddingWorker generates and stores embeddings for catalog products.
type ProductEmbeddingWorker struct {
	river.WorkerDefaults[service.ProductEmbeddingArgs]

	products productStore
	embedder productEmbedder
	metrics  observability.EmbeddingMetrics
}

// productStore is the minimal catalog access needed by the worker.
type productStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// productEmbedder generates the embedding, going through the shared cache so a
// product text already embedded elsewhere costs nothing.
type productEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewProductEmbeddingWorker creates a worker that loads the product, embeds
// its text, and stores the vector. metrics may be nil when metrics are
// disabled.
func NewProductEmbeddingWorker(
	products productStore,
	embedder productEmbedder,
	metrics observability.EmbeddingMetrics,
) *ProductEmbeddingWorker {
	return &ProductEmbeddingWorker{
		products: products,
		embedder: embedder,
		metrics:  metrics,
	}
}

const productEmbeddingTimeout = 30 * time.Second

// Timeout limits how long a single embedding job can run.
func (w *ProductEmbeddingWorker) Timeout(*river.Job[service.ProductEmbeddingArgs]) time.Duration {
	return productEmbeddingTimeout
}

// Work loads the product, generates the embedding, and persists it. Products
// deleted since enqueue and permanently-rejected inputs complete without
// retry; transient provider failures retry until the attempt budget runs out.
func (w *ProductEmbeddingWorker) Work(ctx context.Context, job *river.Job[service.ProductEmbeddingArgs]) error {
	args := job.Args

	product, err := w.products.GetByID(ctx, args.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			slog.Info("product embedding: product gone, skipping", "product_id", args.ProductID)

			return nil
		}

		slog.Error("product embedding: get product failed", "product_id", args.ProductID, "error", err)

		return fmt.Errorf("get product: %w", err)
	}

	embedding, err := w.embedder.Embed(ctx, product.EmbeddingText())
	if err != nil {
		isLastAttempt := job.Attempt >= job.MaxAttempts

		if w.metrics != nil {
			w.metrics.RecordProviderError(ctx, "backfill_embed_failed")
		}

		if !assistanterrors.IsTransientEmbeddingError(err) || isLastAttempt {
			slog.Error("product embedding: embed failed, giving up",
				"product_id", args.ProductID,
				"last_attempt", isLastAttempt,
				"error", err,
			)

			return nil
		}

		return fmt.Errorf("embed product text: %w", err)
	}

	if err := w.products.UpdateEmbedding(ctx, args.ProductID, embedding); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			slog.Info("product embedding: product deleted mid-job", "product_id", args.ProductID)

			return nil
		}

		slog.Error("product embedding: store failed", "product_id", args.ProductID, "error", err)

		return fmt.Errorf("update product embedding: %w", err)
	}

	slog.Info("product embedding: stored", "product_id", args.ProductID)

	return nil
}
