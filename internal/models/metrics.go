package models

import "time"

// QueryMetric is the per-query observability record the core emits. The core
// does not persist metrics itself; an injected sink owns storage.
type QueryMetric struct {
	Query                  string        `json:"query"`
	Intent                 string        `json:"intent"`
	Confidence             float64       `json:"confidence"`
	EmbeddingCacheHit      bool          `json:"embedding_cache_hit"`
	FallbackUsed           bool          `json:"fallback_used"`
	SearchCacheHit         bool          `json:"search_cache_hit"`
	SimilarityResultsCount int           `json:"similarity_results_count"`
	ClassifyDuration       time.Duration `json:"classify_duration"`
	SearchDuration         time.Duration `json:"search_duration"`
	TotalDuration          time.Duration `json:"total_duration"`
}
