package models

import "time"

// IntentExemplar is one labeled example phrase for an intent, with its own
// acceptance threshold. Unique on (intent, phrase); IDs are assigned in
// insertion order so similarity ties can be broken deterministically.
type IntentExemplar struct {
	ID                  int64     `json:"id"`
	Intent              string    `json:"intent"`
	Phrase              string    `json:"phrase"`
	Embedding           []float32 `json:"embedding"`
	ConfidenceThreshold float64   `json:"confidence_threshold"`
	UsageCount          int64     `json:"usage_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ExemplarMatch is one row of a similarity search against the exemplar store.
// Similarity is 1 - cosine distance, in [0, 1] for unit-norm embeddings.
type ExemplarMatch struct {
	ID                  int64   `json:"id"`
	Intent              string  `json:"intent"`
	Phrase              string  `json:"phrase"`
	Similarity          float64 `json:"similarity"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	UsageCount          int64   `json:"usage_count"`
}

// IntentResult is the outcome of classifying one query. It is transient and
// never persisted by the core.
type IntentResult struct {
	Intent            string  `json:"intent"`
	Confidence        float64 `json:"confidence"`
	ExemplarPhrase    string  `json:"exemplar_phrase"`
	EmbeddingCacheHit bool    `json:"embedding_cache_hit"`
	FallbackUsed      bool    `json:"fallback_used"`
}

// IntentStats summarizes the exemplar store for diagnostics.
type IntentStats struct {
	TotalExemplars int64            `json:"total_exemplars"`
	IntentsCount   int64            `json:"intents_count"`
	AverageUsage   float64          `json:"average_usage"`
	TopIntents     []IntentUsageRow `json:"top_intents"`
}

// IntentUsageRow is one intent's aggregate usage in IntentStats.
type IntentUsageRow struct {
	Intent        string  `json:"intent"`
	ExemplarCount int64   `json:"exemplar_count"`
	TotalUsage    int64   `json:"total_usage"`
	AvgThreshold  float64 `json:"avg_threshold"`
}
