package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery/assistant/internal/assistanterrors"
	"github.com/roastery/assistant/internal/intents"
	"github.com/roastery/assistant/internal/models"
)

type fakeQueryEmbedder struct {
	vec      []float32
	cacheHit bool
	err      error
	calls    int
}

func (f *fakeQueryEmbedder) EmbedWithStatus(context.Context, string) ([]float32, bool, error) {
	f.calls++

	if f.err != nil {
		return nil, false, f.err
	}

	return f.vec, f.cacheHit, nil
}

type fakeExemplarSearcher struct {
	matches    []models.ExemplarMatch
	searchErr  error
	usageErr   error
	usageCalls []int64
}

func (f *fakeExemplarSearcher) SearchSimilar(
	context.Context, []float32, float64, int, string,
) ([]models.ExemplarMatch, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	return f.matches, nil
}

func (f *fakeExemplarSearcher) IncrementUsage(_ context.Context, id int64) error {
	f.usageCalls = append(f.usageCalls, id)

	return f.usageErr
}

func newTestClassifier(embedder *fakeQueryEmbedder, exemplars *fakeExemplarSearcher) *IntentClassifier {
	return NewIntentClassifier(IntentClassifierParams{
		Embedder:  embedder,
		Exemplars: exemplars,
	})
}

func TestClassify_AcceptsAtExactThreshold(t *testing.T) {
	exemplars := &fakeExemplarSearcher{matches: []models.ExemplarMatch{
		{ID: 7, Intent: intents.PriceInquiry, Phrase: "how much is a latte", Similarity: 0.70, ConfidenceThreshold: 0.70},
	}}
	c := newTestClassifier(&fakeQueryEmbedder{vec: []float32{1, 0}}, exemplars)

	result, err := c.Classify(context.Background(), "what does a latte cost")
	require.NoError(t, err)

	assert.Equal(t, intents.PriceInquiry, result.Intent)
	assert.InDelta(t, 0.70, result.Confidence, 1e-9)
	assert.Equal(t, "how much is a latte", result.ExemplarPhrase)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t, []int64{7}, exemplars.usageCalls)
}

func TestClassify_FallsBackJustBelowThreshold(t *testing.T) {
	exemplars := &fakeExemplarSearcher{matches: []models.ExemplarMatch{
		{ID: 7, Intent: intents.PriceInquiry, Phrase: "how much is a latte", Similarity: 0.699, ConfidenceThreshold: 0.70},
	}}
	c := newTestClassifier(&fakeQueryEmbedder{vec: []float32{1, 0}}, exemplars)

	result, err := c.Classify(context.Background(), "latte thoughts")
	require.NoError(t, err)

	assert.Equal(t, intents.Fallback, result.Intent)
	assert.True(t, result.FallbackUsed)
	assert.InDelta(t, 0.699, result.Confidence, 1e-9, "near-miss confidence is surfaced")
	assert.Empty(t, exemplars.usageCalls, "fallback must not bump usage")
}

func TestClassify_EmptyStoreFallsBackWithoutError(t *testing.T) {
	c := newTestClassifier(&fakeQueryEmbedder{vec: []float32{1, 0}}, &fakeExemplarSearcher{})

	result, err := c.Classify(context.Background(), "hello there")
	require.NoError(t, err)

	assert.Equal(t, intents.Fallback, result.Intent)
	assert.Zero(t, result.Confidence)
	assert.True(t, result.FallbackUsed)
}

func TestClassify_BestOfRankedCandidatesWins(t *testing.T) {
	exemplars := &fakeExemplarSearcher{matches: []models.ExemplarMatch{
		{ID: 1, Intent: intents.ProductSearch, Phrase: "show me dark roasts", Similarity: 0.95, ConfidenceThreshold: 0.75},
		{ID: 2, Intent: intents.ProductSearch, Phrase: "what coffee do you have", Similarity: 0.90, ConfidenceThreshold: 0.75},
		{ID: 3, Intent: intents.BrewingHelp, Phrase: "how do I brew dark roast", Similarity: 0.85, ConfidenceThreshold: 0.72},
	}}
	c := newTestClassifier(&fakeQueryEmbedder{vec: []float32{1, 0}, cacheHit: true}, exemplars)

	result, err := c.Classify(context.Background(), "What dark roasts do you have?")
	require.NoError(t, err)

	assert.Equal(t, intents.ProductSearch, result.Intent)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.Equal(t, "show me dark roasts", result.ExemplarPhrase)
	assert.True(t, result.EmbeddingCacheHit)
	assert.Equal(t, []int64{1}, exemplars.usageCalls, "only the winning exemplar's usage is bumped")
}

func TestClassify_UsageIncrementFailureDoesNotFailClassification(t *testing.T) {
	exemplars := &fakeExemplarSearcher{
		matches: []models.ExemplarMatch{
			{ID: 4, Intent: intents.StoreInfo, Phrase: "when do you open", Similarity: 0.9, ConfidenceThreshold: 0.73},
		},
		usageErr: errors.New("deadlock"),
	}
	c := newTestClassifier(&fakeQueryEmbedder{vec: []float32{1, 0}}, exemplars)

	result, err := c.Classify(context.Background(), "store hours?")
	require.NoError(t, err)
	assert.Equal(t, intents.StoreInfo, result.Intent)
}

func TestClassify_EmbeddingErrorPropagates(t *testing.T) {
	embedder := &fakeQueryEmbedder{
		err: assistanterrors.NewEmbeddingError(assistanterrors.EmbeddingErrorTransient, errors.New("timeout")),
	}
	c := newTestClassifier(embedder, &fakeExemplarSearcher{})

	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, assistanterrors.ErrEmbedding, "provider outages must not be masked by the fallback intent")
}

func TestClassify_SearchErrorPropagates(t *testing.T) {
	exemplars := &fakeExemplarSearcher{searchErr: errors.New("db down")}
	c := newTestClassifier(&fakeQueryEmbedder{vec: []float32{1, 0}}, exemplars)

	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
}

func TestClassify_EmptyQueryRejected(t *testing.T) {
	embedder := &fakeQueryEmbedder{vec: []float32{1, 0}}
	c := newTestClassifier(embedder, &fakeExemplarSearcher{})

	_, err := c.Classify(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, embedder.calls)
}

func TestClassifyEmbedded_SkipsEmbedding(t *testing.T) {
	embedder := &fakeQueryEmbedder{vec: []float32{1, 0}}
	exemplars := &fakeExemplarSearcher{matches: []models.ExemplarMatch{
		{ID: 9, Intent: intents.BrewingHelp, Phrase: "grind size for pour over", Similarity: 0.8, ConfidenceThreshold: 0.72},
	}}
	c := newTestClassifier(embedder, exemplars)

	result, err := c.ClassifyEmbedded(context.Background(), "what grind for pour over", []float32{0, 1}, true)
	require.NoError(t, err)

	assert.Equal(t, intents.BrewingHelp, result.Intent)
	assert.True(t, result.EmbeddingCacheHit)
	assert.Zero(t, embedder.calls, "caller-supplied embedding must be reused")
}

func TestClassifyWithAlternatives_ReturnsCandidateList(t *testing.T) {
	matches := []models.ExemplarMatch{
		{ID: 1, Intent: intents.ProductSearch, Phrase: "a", Similarity: 0.9, ConfidenceThreshold: 0.75},
		{ID: 2, Intent: intents.PriceInquiry, Phrase: "b", Similarity: 0.8, ConfidenceThreshold: 0.70},
	}
	c := newTestClassifier(&fakeQueryEmbedder{vec: []float32{1, 0}}, &fakeExemplarSearcher{matches: matches})

	result, alternatives, err := c.ClassifyWithAlternatives(context.Background(), "coffee?")
	require.NoError(t, err)
	assert.Equal(t, intents.ProductSearch, result.Intent)
	assert.Equal(t, matches, alternatives)
}
