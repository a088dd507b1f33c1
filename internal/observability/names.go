// Package observability provides OpenTelemetry metrics and logging helpers for
// the assistant core.
package observability

import "github.com/roastery/assistant/internal/intents"

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameCacheHits               = "assistant_cache_hits_total"
	MetricNameCacheMisses             = "assistant_cache_misses_total"
	MetricNameIntentClassifications   = "assistant_intent_classifications_total"
	MetricNameIntentClassifyDuration  = "assistant_intent_classify_duration_seconds"
	MetricNameEmbeddingsGenerated     = "assistant_embeddings_generated_total"
	MetricNameEmbeddingProviderErrors = "assistant_embedding_provider_errors_total"
	MetricNameEmbeddingDuration       = "assistant_embedding_duration_seconds"
)

// Attribute keys.
const (
	AttrCache   = "cache"
	AttrIntent  = "intent"
	AttrOutcome = "outcome"
	AttrReason  = "reason"
)

// Cache names used as the bounded "cache" attribute.
const (
	CacheNameEmbeddingMemory = "embedding_memory"
	CacheNameEmbeddingStore  = "embedding_store"
	CacheNameVectorSearch    = "vector_search"
	CacheNameResponse        = "response"
)

// allowedCacheNames bounds cardinality of the cache attribute.
var allowedCacheNames = map[string]bool{
	CacheNameEmbeddingMemory: true,
	CacheNameEmbeddingStore:  true,
	CacheNameVectorSearch:    true,
	CacheNameResponse:        true,
}

// Classification outcomes for assistant_intent_classifications_total.
const (
	OutcomeAccepted       = "accepted"
	OutcomeBelowThreshold = "below_threshold"
	OutcomeNoCandidates   = "no_candidates"
	OutcomeError          = "error"
)

var allowedOutcomes = map[string]bool{
	OutcomeAccepted:       true,
	OutcomeBelowThreshold: true,
	OutcomeNoCandidates:   true,
	OutcomeError:          true,
}

// AllowedEmbeddingErrorReasons for assistant_embedding_provider_errors_total.
var AllowedEmbeddingErrorReasons = map[string]bool{
	"transient":          true,
	"invalid_input":      true,
	"malformed_response": true,
}

// NormalizeCacheName returns name if allowed, otherwise "unknown".
func NormalizeCacheName(name string) string {
	if allowedCacheNames[name] {
		return name
	}

	return "unknown"
}

// NormalizeIntent returns intent if it is a member of the fixed intent set,
// otherwise "unknown".
func NormalizeIntent(intent string) string {
	if intents.IsValid(intent) {
		return intent
	}

	return "unknown"
}

// NormalizeOutcome returns outcome if allowed, otherwise "other".
func NormalizeOutcome(outcome string) string {
	if allowedOutcomes[outcome] {
		return outcome
	}

	return "other"
}

// NormalizeReason returns reason when present in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}
