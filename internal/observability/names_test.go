package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roastery/assistant/internal/intents"
)

func TestNormalizeCacheName(t *testing.T) {
	assert.Equal(t, CacheNameEmbeddingMemory, NormalizeCacheName(CacheNameEmbeddingMemory))
	assert.Equal(t, CacheNameVectorSearch, NormalizeCacheName(CacheNameVectorSearch))
	assert.Equal(t, "unknown", NormalizeCacheName("per_user_cache"))
}

func TestNormalizeIntent(t *testing.T) {
	for _, intent := range intents.All() {
		assert.Equal(t, intent, NormalizeIntent(intent))
	}

	assert.Equal(t, "unknown", NormalizeIntent("ESPRESSO_LORE"))
}

func TestNormalizeOutcome(t *testing.T) {
	assert.Equal(t, OutcomeAccepted, NormalizeOutcome(OutcomeAccepted))
	assert.Equal(t, "other", NormalizeOutcome("shrug"))
}

func TestNormalizeReason(t *testing.T) {
	assert.Equal(t, "transient", NormalizeReason("transient", AllowedEmbeddingErrorReasons))
	assert.Equal(t, "other", NormalizeReason("cosmic_rays", AllowedEmbeddingErrorReasons))
}
