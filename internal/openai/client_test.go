package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery/assistant/internal/assistanterrors"
)

func TestChunkTexts(t *testing.T) {
	texts := []string{"a", "b", "c", "d", "e", "f", "g"}

	chunks := chunkTexts(texts, 3)

	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "b", "c"}, chunks[0])
	assert.Equal(t, []string{"d", "e", "f"}, chunks[1])
	assert.Equal(t, []string{"g"}, chunks[2])
}

func TestChunkTexts_exactMultiple(t *testing.T) {
	chunks := chunkTexts([]string{"a", "b", "c", "d"}, 2)

	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"c", "d"}, chunks[1])
}

func TestChunkTexts_invalidSizeUsesDefault(t *testing.T) {
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = "t"
	}

	chunks := chunkTexts(texts, 0)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], defaultChunkSize)
}

func TestCreateEmbedding_emptyInputIsInvalid(t *testing.T) {
	c := NewClient("sk-test")

	_, err := c.CreateEmbedding(context.Background(), "   ")

	require.Error(t, err)

	var ee *assistanterrors.EmbeddingError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, assistanterrors.EmbeddingErrorInvalidInput, ee.Kind)
}

func TestCreateEmbeddings_rejectsEmptyElement(t *testing.T) {
	c := NewClient("sk-test")

	_, err := c.CreateEmbeddings(context.Background(), []string{"ok", ""})

	require.Error(t, err)

	var ee *assistanterrors.EmbeddingError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, assistanterrors.EmbeddingErrorInvalidInput, ee.Kind)
	assert.False(t, assistanterrors.IsTransientEmbeddingError(err))
}

func TestToVector_dimensionMismatch(t *testing.T) {
	c := NewClient("sk-test", WithDimensions(4))

	_, err := c.toVector([]float64{1, 2, 3})

	require.Error(t, err)
	assert.ErrorIs(t, err, assistanterrors.ErrEmbedding)
	assert.False(t, assistanterrors.IsTransientEmbeddingError(err))
}

func TestToVector_convertsInOrder(t *testing.T) {
	c := NewClient("sk-test", WithDimensions(3))

	vec, err := c.toVector([]float64{0.1, 0.2, 0.3})

	require.NoError(t, err)
	assert.InDelta(t, 0.1, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.3, float64(vec[2]), 1e-6)
}
