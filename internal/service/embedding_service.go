// Package service contains the assistant core services: embedding generation
// with two-tier caching, intent classification, product similarity search,
// exemplar loading, response caching, and the query pipeline that ties them
// together.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/roastery/assistant/internal/assistanterrors"
	"github.com/roastery/assistant/internal/embeddings"
	"github.com/roastery/assistant/internal/observability"
	"github.com/roastery/assistant/internal/repository"
)

// EmbeddingCacheStore provides the persistent-tier operations EmbeddingService
// needs. Implemented by repository.EmbeddingCacheRepository.
type EmbeddingCacheStore interface {
	Get(ctx context.Context, textHash, model string) ([]float32, error)
	TouchHit(ctx context.Context, textHash, model string) error
	Put(ctx context.Context, textHash, model string, embedding []float32) error
}

// hashText returns the cache key for a text: hex sha256 over the exact bytes.
// No normalization; "Latte" and "latte" are distinct entries.
func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))

	return hex.EncodeToString(sum[:])
}

// EmbeddingService generates embeddings through a two-tier cache: an in-process
// LRU in front of a persistent store, with the provider as the source of truth
// on a full miss. Concurrent misses for the same text are collapsed to one
// provider call.
type EmbeddingService struct {
	client           embeddings.Client
	cacheRepo        EmbeddingCacheStore
	model            string
	memory           *lru.Cache[string, []float32]
	loadGroup        singleflight.Group
	cacheMetrics     observability.CacheMetrics
	embeddingMetrics observability.EmbeddingMetrics
	logger           *slog.Logger
}

// EmbeddingServiceParams configures EmbeddingService. MemoryCacheSize <= 0
// disables the memory tier; CacheRepo may be nil to disable the persistent
// tier; metrics may be nil when metrics are disabled.
type EmbeddingServiceParams struct {
	Client           embeddings.Client
	CacheRepo        EmbeddingCacheStore
	Model            string
	MemoryCacheSize  int
	CacheMetrics     observability.CacheMetrics
	EmbeddingMetrics observability.EmbeddingMetrics
	Logger           *slog.Logger
}

// NewEmbeddingService creates an EmbeddingService.
func NewEmbeddingService(p EmbeddingServiceParams) (*EmbeddingService, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var memory *lru.Cache[string, []float32]

	if p.MemoryCacheSize > 0 {
		var err error

		memory, err = lru.New[string, []float32](p.MemoryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
	}

	return &EmbeddingService{
		client:           p.Client,
		cacheRepo:        p.CacheRepo,
		model:            p.Model,
		memory:           memory,
		cacheMetrics:     p.CacheMetrics,
		embeddingMetrics: p.EmbeddingMetrics,
		logger:           logger,
	}, nil
}

// Model returns the embedding model this service is bound to.
func (s *EmbeddingService) Model() string { return s.model }

// Embed returns the embedding for text, from cache when possible.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, _, err := s.EmbedWithStatus(ctx, text)

	return vec, err
}

// loadResult carries the singleflight payload so dedup followers learn whether
// the vector came from the persistent cache.
type loadResult struct {
	vec       []float32
	fromCache bool
}

// EmbedWithStatus returns the embedding for text and whether it was served
// from either cache tier. Persistent-cache read and write failures degrade to
// a miss with a warning; only provider failures are returned.
func (s *EmbeddingService) EmbedWithStatus(ctx context.Context, text string) ([]float32, bool, error) {
	key := hashText(text)

	if s.memory != nil {
		if vec, ok := s.memory.Get(key); ok {
			s.recordCache(ctx, observability.CacheNameEmbeddingMemory, true)

			return vec, true, nil
		}

		s.recordCache(ctx, observability.CacheNameEmbeddingMemory, false)
	}

	// The load runs detached from the caller's context so an abandoned
	// request still finishes the provider call and populates both tiers, and
	// singleflight followers never inherit the first caller's cancellation.
	val, err, _ := s.loadGroup.Do(key, func() (any, error) {
		return s.loadEmbedding(context.WithoutCancel(ctx), key, text)
	})
	if err != nil {
		return nil, false, err
	}

	res := val.(loadResult)

	return res.vec, res.fromCache, nil
}

// loadEmbedding resolves one full memory-tier miss: persistent lookup, then
// provider call with write-through.
func (s *EmbeddingService) loadEmbedding(ctx context.Context, key, text string) (loadResult, error) {
	if s.cacheRepo != nil {
		vec, err := s.cacheRepo.Get(ctx, key, s.model)

		switch {
		case err == nil:
			s.recordCache(ctx, observability.CacheNameEmbeddingStore, true)

			if touchErr := s.cacheRepo.TouchHit(ctx, key, s.model); touchErr != nil {
				s.logger.Warn("embedding cache: touch failed", "error", touchErr)
			}

			s.memoryAdd(key, vec)

			return loadResult{vec: vec, fromCache: true}, nil
		case errors.Is(err, repository.ErrCacheEntryNotFound):
			s.recordCache(ctx, observability.CacheNameEmbeddingStore, false)
		default:
			// Treat a broken cache as a miss; the provider still works.
			s.logger.Warn("embedding cache: get failed", "error", err)
			s.recordCache(ctx, observability.CacheNameEmbeddingStore, false)
		}
	}

	vec, err := s.generate(ctx, text)
	if err != nil {
		return loadResult{}, err
	}

	s.writeThrough(ctx, key, vec)
	s.memoryAdd(key, vec)

	return loadResult{vec: vec, fromCache: false}, nil
}

// EmbedBatch returns embeddings for texts in input order, serving each from
// cache when possible and generating the remainder with one provider batch
// call. Duplicate texts resolve to the same vector.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var (
		uncachedTexts []string
		uncachedIdx   []int
	)

	seen := make(map[string]int, len(texts))

	for i, text := range texts {
		key := hashText(text)

		if _, dup := seen[key]; dup {
			// Filled from the first occurrence after generation.
			continue
		}

		seen[key] = i

		if vec, ok := s.lookupCached(ctx, key); ok {
			results[i] = vec

			continue
		}

		uncachedTexts = append(uncachedTexts, text)
		uncachedIdx = append(uncachedIdx, i)
	}

	if len(uncachedTexts) > 0 {
		vecs, err := s.generateBatch(ctx, uncachedTexts)
		if err != nil {
			return nil, err
		}

		for j, vec := range vecs {
			i := uncachedIdx[j]
			key := hashText(texts[i])

			s.writeThrough(ctx, key, vec)
			s.memoryAdd(key, vec)
			results[i] = vec
		}
	}

	// Fill duplicate slots from their first occurrence.
	for i, text := range texts {
		if results[i] == nil {
			results[i] = results[seen[hashText(text)]]
		}
	}

	return results, nil
}

// EmbedUncached generates a fresh embedding from the provider and updates both
// cache tiers, replacing any stale entry.
func (s *EmbeddingService) EmbedUncached(ctx context.Context, text string) ([]float32, error) {
	key := hashText(text)

	vec, err := s.generate(ctx, text)
	if err != nil {
		return nil, err
	}

	s.writeThrough(ctx, key, vec)
	s.memoryAdd(key, vec)

	return vec, nil
}

// lookupCached checks memory then the persistent store, recording metrics and
// the persistent hit. Returns false on any miss or cache failure.
func (s *EmbeddingService) lookupCached(ctx context.Context, key string) ([]float32, bool) {
	if s.memory != nil {
		if vec, ok := s.memory.Get(key); ok {
			s.recordCache(ctx, observability.CacheNameEmbeddingMemory, true)

			return vec, true
		}

		s.recordCache(ctx, observability.CacheNameEmbeddingMemory, false)
	}

	if s.cacheRepo == nil {
		return nil, false
	}

	vec, err := s.cacheRepo.Get(ctx, key, s.model)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheEntryNotFound) {
			s.logger.Warn("embedding cache: get failed", "error", err)
		}

		s.recordCache(ctx, observability.CacheNameEmbeddingStore, false)

		return nil, false
	}

	s.recordCache(ctx, observability.CacheNameEmbeddingStore, true)

	if touchErr := s.cacheRepo.TouchHit(ctx, key, s.model); touchErr != nil {
		s.logger.Warn("embedding cache: touch failed", "error", touchErr)
	}

	s.memoryAdd(key, vec)

	return vec, true
}

func (s *EmbeddingService) generate(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()

	vec, err := s.client.CreateEmbedding(ctx, text)
	if err != nil {
		s.recordProviderError(ctx, err)

		return nil, fmt.Errorf("create embedding: %w", err)
	}

	s.recordGenerated(ctx, 1, time.Since(start))

	return vec, nil
}

func (s *EmbeddingService) generateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	vecs, err := s.client.CreateEmbeddings(ctx, texts)
	if err != nil {
		s.recordProviderError(ctx, err)

		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	s.recordGenerated(ctx, int64(len(vecs)), time.Since(start))

	return vecs, nil
}

// writeThrough stores a freshly generated vector in the persistent tier.
// Detached from the request context so a canceled request does not lose the
// paid-for provider result; failures are logged and swallowed.
func (s *EmbeddingService) writeThrough(ctx context.Context, key string, vec []float32) {
	if s.cacheRepo == nil {
		return
	}

	if err := s.cacheRepo.Put(context.WithoutCancel(ctx), key, s.model, vec); err != nil {
		s.logger.Warn("embedding cache: put failed", "error", err)
	}
}

func (s *EmbeddingService) memoryAdd(key string, vec []float32) {
	if s.memory != nil {
		s.memory.Add(key, vec)
	}
}

func (s *EmbeddingService) recordCache(ctx context.Context, cacheName string, hit bool) {
	if s.cacheMetrics == nil {
		return
	}

	if hit {
		s.cacheMetrics.RecordHit(ctx, cacheName)
	} else {
		s.cacheMetrics.RecordMiss(ctx, cacheName)
	}
}

func (s *EmbeddingService) recordGenerated(ctx context.Context, count int64, duration time.Duration) {
	if s.embeddingMetrics == nil {
		return
	}

	s.embeddingMetrics.RecordGenerated(ctx, count)
	s.embeddingMetrics.RecordGenerateDuration(ctx, duration)
}

func (s *EmbeddingService) recordProviderError(ctx context.Context, err error) {
	if s.embeddingMetrics == nil {
		return
	}

	s.embeddingMetrics.RecordProviderError(ctx, embeddingErrorReason(err))
}

// embeddingErrorReason maps a provider error to a bounded metric reason.
func embeddingErrorReason(err error) string {
	var ee *assistanterrors.EmbeddingError
	if errors.As(err, &ee) {
		return string(ee.Kind)
	}

	return "other"
}
