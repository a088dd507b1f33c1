package intents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllAndIsValid(t *testing.T) {
	all := All()
	assert.Len(t, all, 5)

	for _, intent := range all {
		assert.True(t, IsValid(intent), intent)
	}

	assert.False(t, IsValid(""))
	assert.False(t, IsValid("product_search"), "intent names are case-sensitive")
}

func TestFallbackIsValidIntent(t *testing.T) {
	assert.True(t, IsValid(Fallback))
	assert.Equal(t, GeneralConversation, Fallback)
}

func TestRoutesToProductSearch(t *testing.T) {
	assert.True(t, RoutesToProductSearch(ProductSearch))
	assert.True(t, RoutesToProductSearch(PriceInquiry))
	assert.False(t, RoutesToProductSearch(BrewingHelp))
	assert.False(t, RoutesToProductSearch(GeneralConversation))
	assert.False(t, RoutesToProductSearch(StoreInfo))
}

func TestCorpusCoversEveryIntent(t *testing.T) {
	for _, intent := range All() {
		phrases, ok := Corpus[intent]
		require.True(t, ok, "missing corpus for %s", intent)
		assert.GreaterOrEqual(t, len(phrases), 10, "%s needs enough exemplars to classify against", intent)

		seen := make(map[string]bool, len(phrases))
		for _, phrase := range phrases {
			assert.NotEmpty(t, phrase)
			assert.False(t, seen[phrase], "duplicate phrase %q in %s", phrase, intent)
			seen[phrase] = true
		}
	}

	assert.Len(t, Corpus, len(All()), "no corpus entries for unknown intents")
}

func TestThresholds(t *testing.T) {
	for _, intent := range All() {
		threshold, ok := Thresholds[intent]
		require.True(t, ok, "missing threshold for %s", intent)
		assert.Greater(t, threshold, 0.0)
		assert.LessOrEqual(t, threshold, 1.0)
		assert.GreaterOrEqual(t, threshold, DefaultMinSimilarity,
			"per-intent thresholds sit at or above the global floor")
	}

	assert.InDelta(t, 0.75, Thresholds[ProductSearch], 1e-9)
	assert.InDelta(t, 0.65, Thresholds[GeneralConversation], 1e-9)
}

func TestThresholdFor(t *testing.T) {
	assert.InDelta(t, 0.72, ThresholdFor(BrewingHelp, 0.5), 1e-9)
	assert.InDelta(t, 0.5, ThresholdFor("UNKNOWN", 0.5), 1e-9)
}
