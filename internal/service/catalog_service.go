package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// uniqueByPeriodEmbedding keeps duplicate backfill enqueues from piling up
// when the backfill command is run repeatedly.
const uniqueByPeriodEmbedding = 15 * time.Minute

// defaultBackfillBatchLimit bounds how many products one backfill run picks
// up; the next run catches the rest.
const defaultBackfillBatchLimit = 1000

// ProductLister provides the catalog read the backfill needs. Implemented by
// repository.ProductsRepository.
type ProductLister interface {
	ListWithoutEmbeddings(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// ProductCatalogService enqueues embedding generation for catalog products
// that do not have a vector yet. The actual embedding happens in the
// product_embedding River worker.
type ProductCatalogService struct {
	products    ProductLister
	inserter    ProductEmbeddingInserter
	queueName   string
	maxAttempts int
	batchLimit  int
	logger      *slog.Logger
}

// ProductCatalogServiceParams configures ProductCatalogService.
type ProductCatalogServiceParams struct {
	Products    ProductLister
	Inserter    ProductEmbeddingInserter
	QueueName   string
	MaxAttempts int
	BatchLimit  int
	Logger      *slog.Logger
}

// NewProductCatalogService creates a ProductCatalogService.
func NewProductCatalogService(p ProductCatalogServiceParams) *ProductCatalogService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	queueName := p.QueueName
	if queueName == "" {
		queueName = river.QueueDefault
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	batchLimit := p.BatchLimit
	if batchLimit <= 0 {
		batchLimit = defaultBackfillBatchLimit
	}

	return &ProductCatalogService{
		products:    p.Products,
		inserter:    p.Inserter,
		queueName:   queueName,
		maxAttempts: maxAttempts,
		batchLimit:  batchLimit,
		logger:      logger,
	}
}

// BackfillEmbeddings enqueues one embedding job per product without a vector.
// Jobs are unique by product ID within a window, so re-running is safe while a
// previous backfill is still draining. Returns the number of jobs enqueued.
func (s *ProductCatalogService) BackfillEmbeddings(ctx context.Context) (int, error) {
	ids, err := s.products.ListWithoutEmbeddings(ctx, s.batchLimit)
	if err != nil {
		return 0, fmt.Errorf("list products without embeddings: %w", err)
	}

	opts := &river.InsertOpts{
		Queue:       s.queueName,
		MaxAttempts: s.maxAttempts,
		UniqueOpts:  river.UniqueOpts{ByArgs: true, ByPeriod: uniqueByPeriodEmbedding},
	}

	enqueued := 0

	for _, id := range ids {
		if _, err := s.inserter.Insert(ctx, ProductEmbeddingArgs{ProductID: id}, opts); err != nil {
			s.logger.Error("backfill: enqueue failed", "product_id", id, "error", err)

			return enqueued, fmt.Errorf("enqueue product embedding job: %w", err)
		}

		enqueued++
	}

	s.logger.Info("backfill: jobs enqueued", "count", enqueued)

	return enqueued, nil
}
