package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roastery/assistant/internal/models"
	"github.com/roastery/assistant/internal/observability"
	"github.com/roastery/assistant/internal/repository"
)

// ProductSearcher provides the product read operations needed for similarity
// search. Implemented by repository.ProductsRepository.
type ProductSearcher interface {
	SearchByEmbedding(
		ctx context.Context, queryEmbedding []float32, minSimilarity float64, limit int,
	) ([]models.ProductMatch, error)
	GetByIDsPreservingOrder(
		ctx context.Context, ids []uuid.UUID, queryEmbedding []float32,
	) ([]models.ProductMatch, error)
}

// SearchCacheStore provides the vector search cache operations. Implemented by
// repository.SearchCacheRepository.
type SearchCacheStore interface {
	Get(
		ctx context.Context, embeddingHash string, similarityThreshold float64, resultLimit int,
	) (*models.SearchCacheEntry, error)
	TouchHit(ctx context.Context, id int64) error
	Put(ctx context.Context, entry *models.SearchCacheEntry, ttl time.Duration) error
}

// ProductSearchService performs pgvector similarity search over the product
// catalog, optionally through a short-TTL result cache that stores product id
// lists rather than rows, so cached hits always reflect current stock and
// pricing.
type ProductSearchService struct {
	products     ProductSearcher
	searchCache  SearchCacheStore
	cacheTTL     time.Duration
	keyDims      int
	cacheMetrics observability.CacheMetrics
	logger       *slog.Logger
}

// ProductSearchServiceParams configures ProductSearchService. SearchCache may
// be nil (every search hits the database); CacheMetrics may be nil.
type ProductSearchServiceParams struct {
	Products     ProductSearcher
	SearchCache  SearchCacheStore
	CacheTTL     time.Duration
	KeyDims      int
	CacheMetrics observability.CacheMetrics
	Logger       *slog.Logger
}

// NewProductSearchService creates a ProductSearchService.
func NewProductSearchService(p ProductSearchServiceParams) *ProductSearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cacheTTL := p.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	keyDims := p.KeyDims
	if keyDims <= 0 {
		keyDims = 10
	}

	return &ProductSearchService{
		products:     p.Products,
		searchCache:  p.SearchCache,
		cacheTTL:     cacheTTL,
		keyDims:      keyDims,
		cacheMetrics: p.CacheMetrics,
		logger:       logger,
	}
}

// Search returns in-stock products similar to queryEmbedding, bypassing the
// cache.
func (s *ProductSearchService) Search(
	ctx context.Context, queryEmbedding []float32, threshold float64, limit int,
) ([]models.ProductMatch, error) {
	matches, err := s.products.SearchByEmbedding(ctx, queryEmbedding, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	return matches, nil
}

// SearchWithCache returns similar products, consulting the search cache first
// and reporting whether the id list came from it. A hit refetches full rows in
// cached order with fresh similarity, dropping products that went out of
// stock. Cache failures degrade to the uncached path.
func (s *ProductSearchService) SearchWithCache(
	ctx context.Context, queryEmbedding []float32, threshold float64, limit int,
) ([]models.ProductMatch, bool, error) {
	if s.searchCache == nil {
		matches, err := s.Search(ctx, queryEmbedding, threshold, limit)

		return matches, false, err
	}

	hash := searchEmbeddingHash(queryEmbedding, s.keyDims, threshold, limit)

	entry, err := s.searchCache.Get(ctx, hash, threshold, limit)
	if err == nil {
		s.recordCache(ctx, true)

		if touchErr := s.searchCache.TouchHit(ctx, entry.ID); touchErr != nil {
			s.logger.Warn("search cache: touch failed", "error", touchErr)
		}

		matches, refetchErr := s.products.GetByIDsPreservingOrder(ctx, entry.ProductIDs, queryEmbedding)
		if refetchErr == nil {
			return matches, true, nil
		}

		// A stale id list we cannot materialize is no better than a miss.
		s.logger.Warn("search cache: refetch failed", "error", refetchErr)
	} else if !errors.Is(err, repository.ErrCacheEntryNotFound) {
		s.logger.Warn("search cache: get failed", "error", err)
	}

	s.recordCache(ctx, false)

	matches, err := s.Search(ctx, queryEmbedding, threshold, limit)
	if err != nil {
		return nil, false, err
	}

	ids := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	putEntry := &models.SearchCacheEntry{
		EmbeddingHash:       hash,
		SimilarityThreshold: threshold,
		ResultLimit:         limit,
		ProductIDs:          ids,
		ResultsCount:        len(ids),
	}

	// Detached so a canceled request still warms the cache for the next one.
	if putErr := s.searchCache.Put(context.WithoutCancel(ctx), putEntry, s.cacheTTL); putErr != nil {
		s.logger.Warn("search cache: put failed", "error", putErr)
	}

	return matches, false, nil
}

func (s *ProductSearchService) recordCache(ctx context.Context, hit bool) {
	if s.cacheMetrics == nil {
		return
	}

	if hit {
		s.cacheMetrics.RecordHit(ctx, observability.CacheNameVectorSearch)
	} else {
		s.cacheMetrics.RecordMiss(ctx, observability.CacheNameVectorSearch)
	}
}
