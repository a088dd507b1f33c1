package embeddings

import (
	"context"
	"crypto/sha256"
	"fmt"

	vecmath "github.com/roastery/assistant/pkg/embeddings"
)

// MockClient implements Client with deterministic embeddings derived from the
// input text hash. Identical texts always map to identical unit-norm vectors,
// which makes cache behavior testable without a provider.
type MockClient struct {
	dimensions int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock client with 1536 dimensions
// (matching text-embedding-3-small).
func NewMockClient() *MockClient {
	return &MockClient{dimensions: 1536}
}

// NewMockClientWithDimensions creates a mock client with custom dimensions.
func NewMockClientWithDimensions(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding returns the deterministic embedding for text.
func (c *MockClient) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	return c.deterministicEmbedding(text), nil
}

// CreateEmbeddings returns deterministic embeddings for all texts in order.
func (c *MockClient) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	out := make([][]float32, len(texts))

	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("text at index %d cannot be empty", i)
		}

		out[i] = c.deterministicEmbedding(text)
	}

	return out, nil
}

// deterministicEmbedding builds a unit-norm vector from the SHA-256 of text,
// cycling hash bytes across dimensions.
func (c *MockClient) deterministicEmbedding(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float32, c.dimensions)

	for i := range vec {
		b := hash[i%len(hash)]
		vec[i] = (float32(b) / 127.5) - 1.0
	}

	vecmath.NormalizeL2(vec)

	return vec
}
