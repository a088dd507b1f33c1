package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery/assistant/internal/intents"
)

type fakeBatchEmbedder struct {
	dims        int
	calls       [][]string
	singleCalls []string
	err         error
	// shortPhrases return a wrong-dimension vector to trigger the malformed check.
	shortPhrases map[string]bool
	// failPhrases make the single-phrase Embed fail for those texts.
	failPhrases map[string]bool
}

func (f *fakeBatchEmbedder) vecFor(text string) []float32 {
	dims := f.dims
	if f.shortPhrases[text] {
		dims = f.dims / 2
	}

	return make([]float32, dims)
}

func (f *fakeBatchEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.singleCalls = append(f.singleCalls, text)

	if f.failPhrases[text] {
		return nil, errors.New("embed failed")
	}

	return f.vecFor(text), nil
}

func (f *fakeBatchEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.calls = append(f.calls, texts)

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = f.vecFor(text)
	}

	return vecs, nil
}

type fakeExemplarWriter struct {
	upserts []string // "intent|phrase"
	errOn   map[string]error
}

func (f *fakeExemplarWriter) Upsert(
	_ context.Context, intent, phrase string, _ []float32, _ float64,
) error {
	key := intent + "|" + phrase
	if err := f.errOn[key]; err != nil {
		return err
	}

	f.upserts = append(f.upserts, key)

	return nil
}

func TestBulkLoad_LoadsEveryPhraseWithIntentThreshold(t *testing.T) {
	embedder := &fakeBatchEmbedder{dims: 8}
	writer := &fakeExemplarWriter{}
	loader := NewExemplarLoader(ExemplarLoaderParams{Embedder: embedder, Exemplars: writer, Dimensions: 8})

	corpus := map[string][]string{
		intents.ProductSearch: {"show me dark roasts", "what coffee do you have"},
		intents.BrewingHelp:   {"how do I use a french press"},
	}

	loaded, err := loader.BulkLoad(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded)
	assert.Len(t, writer.upserts, 3)
	assert.Len(t, embedder.calls, 2, "one batch per intent")
}

func TestBulkLoad_SkipsMalformedEmbeddings(t *testing.T) {
	embedder := &fakeBatchEmbedder{dims: 8, shortPhrases: map[string]bool{"bad phrase": true}}
	writer := &fakeExemplarWriter{}
	loader := NewExemplarLoader(ExemplarLoaderParams{Embedder: embedder, Exemplars: writer, Dimensions: 8})

	corpus := map[string][]string{
		intents.StoreInfo: {"when do you open", "bad phrase", "where are you located"},
	}

	loaded, err := loader.BulkLoad(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded, "bad item skipped, batch continues")
	assert.NotContains(t, writer.upserts, intents.StoreInfo+"|bad phrase")
}

func TestBulkLoad_SkipsFailedUpserts(t *testing.T) {
	embedder := &fakeBatchEmbedder{dims: 4}
	writer := &fakeExemplarWriter{errOn: map[string]error{
		intents.PriceInquiry + "|how much": errors.New("constraint violation"),
	}}
	loader := NewExemplarLoader(ExemplarLoaderParams{Embedder: embedder, Exemplars: writer, Dimensions: 4})

	corpus := map[string][]string{
		intents.PriceInquiry: {"how much", "what does it cost"},
	}

	loaded, err := loader.BulkLoad(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
}

func TestBulkLoad_FailedBatchFallsBackPerPhrase(t *testing.T) {
	embedder := &fakeBatchEmbedder{dims: 4, err: errors.New("rate limited")}
	writer := &fakeExemplarWriter{}
	loader := NewExemplarLoader(ExemplarLoaderParams{Embedder: embedder, Exemplars: writer, Dimensions: 4})

	loaded, err := loader.BulkLoad(context.Background(), map[string][]string{
		intents.BrewingHelp: {"how to brew", "grind size for espresso"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, loaded, "batch failure retried phrase by phrase")
	assert.Equal(t, []string{"how to brew", "grind size for espresso"}, embedder.singleCalls)
	assert.Len(t, writer.upserts, 2)
}

func TestBulkLoad_FallbackSkipsOnlyFailingPhrases(t *testing.T) {
	embedder := &fakeBatchEmbedder{
		dims:        4,
		err:         errors.New("rate limited"),
		failPhrases: map[string]bool{"poison phrase": true},
	}
	writer := &fakeExemplarWriter{}
	loader := NewExemplarLoader(ExemplarLoaderParams{Embedder: embedder, Exemplars: writer, Dimensions: 4})

	loaded, err := loader.BulkLoad(context.Background(), map[string][]string{
		intents.BrewingHelp: {"how to brew", "poison phrase", "water temperature"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.NotContains(t, writer.upserts, intents.BrewingHelp+"|poison phrase")
}

func TestBulkLoad_EmptyCorpus(t *testing.T) {
	loader := NewExemplarLoader(ExemplarLoaderParams{
		Embedder: &fakeBatchEmbedder{dims: 4}, Exemplars: &fakeExemplarWriter{},
	})

	loaded, err := loader.BulkLoad(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, loaded)
}

func TestBulkLoad_FullCorpusIsLoadable(t *testing.T) {
	embedder := &fakeBatchEmbedder{dims: 16}
	writer := &fakeExemplarWriter{}
	loader := NewExemplarLoader(ExemplarLoaderParams{Embedder: embedder, Exemplars: writer, Dimensions: 16})

	loaded, err := loader.BulkLoad(context.Background(), intents.Corpus)
	require.NoError(t, err)

	want := 0
	for _, phrases := range intents.Corpus {
		want += len(phrases)
	}

	assert.Equal(t, want, loaded)
	assert.Len(t, embedder.calls, len(intents.Corpus))
}
