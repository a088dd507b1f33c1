// Package embeddings defines the embedding provider contract consumed by the
// assistant core, plus a deterministic mock for tests and local development.
package embeddings

import "context"

// Client generates embedding vectors for text. Implemented by provider-specific
// adapters (e.g. OpenAI) and by MockClient.
type Client interface {
	// CreateEmbedding generates an embedding vector for the given text.
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)

	// CreateEmbeddings generates embedding vectors for multiple texts.
	// More efficient than calling CreateEmbedding per text; implementations
	// may chunk and pace requests to respect provider rate limits.
	// Results are returned in input order.
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}
