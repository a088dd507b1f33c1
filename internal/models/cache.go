package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EmbeddingCacheEntry is one persistent-cache row mapping (text_hash, model)
// to an embedding vector. Created on first miss; hit_count and last_accessed
// are bumped on every subsequent hit; rows are only removed by explicit cleanup.
type EmbeddingCacheEntry struct {
	ID           int64      `json:"id"`
	TextHash     string     `json:"text_hash"`
	Model        string     `json:"model"`
	Embedding    []float32  `json:"embedding"`
	HitCount     int64      `json:"hit_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SearchCacheEntry caches the result id-list of one product similarity search,
// keyed by (embedding_hash, similarity_threshold, result_limit). The hash
// covers only a prefix of the embedding dimensions; collisions across
// near-duplicate queries are acceptable given the short TTL.
type SearchCacheEntry struct {
	ID                  int64       `json:"id"`
	EmbeddingHash       string      `json:"embedding_hash"`
	SimilarityThreshold float64     `json:"similarity_threshold"`
	ResultLimit         int         `json:"result_limit"`
	ProductIDs          []uuid.UUID `json:"product_ids"`
	ResultsCount        int         `json:"results_count"`
	ExpiresAt           time.Time   `json:"expires_at"`
	CreatedAt           time.Time   `json:"created_at"`
	LastAccessed        *time.Time  `json:"last_accessed,omitempty"`
	HitCount            int64       `json:"hit_count"`
}

// ResponseCacheEntry caches one fully-assembled response payload under an
// opaque key. A nil ExpiresAt means the entry never expires and is removed
// only by explicit invalidation.
type ResponseCacheEntry struct {
	ID           int64           `json:"id"`
	CacheKey     string          `json:"cache_key"`
	ResponseData json.RawMessage `json:"response_data"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CacheStats summarizes the persistent cache tables for diagnostics.
type CacheStats struct {
	EmbeddingEntries   int64 `json:"embedding_cache_entries"`
	TotalEmbeddingHits int64 `json:"total_embedding_hits"`
}
