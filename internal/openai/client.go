// Package openai provides a thin wrapper around the official OpenAI Go SDK for
// embeddings, with batch chunking, rate pacing, and error classification.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"golang.org/x/time/rate"

	"github.com/roastery/assistant/internal/assistanterrors"
	"github.com/roastery/assistant/internal/embeddings"
)

var (
	// ErrEmptyInput is returned when an input text is empty after trimming.
	ErrEmptyInput = errors.New("openai: input text is empty")
	// ErrNoEmbeddingInResponse is returned when the API response contains no embedding data.
	ErrNoEmbeddingInResponse = errors.New("openai: no embedding in response")
	// ErrDimensionMismatch is returned when a response embedding length does not match configured dimensions.
	ErrDimensionMismatch = errors.New("openai: embedding dimension mismatch")
	// ErrEmbeddingCountMismatch is returned when a batch response has fewer embeddings than inputs.
	ErrEmbeddingCountMismatch = errors.New("openai: embedding count mismatch")
)

const (
	defaultDimension = 1536
	defaultChunkSize = 5
)

// Client calls the OpenAI embeddings API via the official SDK. Batch requests
// are chunked and paced with a rate limiter; chunks run sequentially so a
// large batch never bursts past provider limits.
type Client struct {
	sdk        openaisdk.Client
	model      openaisdk.EmbeddingModel
	dimensions int
	chunkSize  int
	limiter    *rate.Limiter
}

var _ embeddings.Client = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithDimensions sets the requested embedding dimension (must match the DB column).
func WithDimensions(dim int) ClientOption {
	return func(c *Client) {
		c.dimensions = dim
	}
}

// WithModel overrides the embedding model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = openaisdk.EmbeddingModel(model)
	}
}

// WithChunkSize sets the max texts per batch request.
func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithRequestsPerSecond paces chunked batch requests.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates an OpenAI embeddings client using the official SDK.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		sdk:        openaisdk.NewClient(option.WithAPIKey(apiKey)),
		model:      openaisdk.EmbeddingModelTextEmbedding3Small,
		dimensions: defaultDimension,
		chunkSize:  defaultChunkSize,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// CreateEmbedding returns the embedding vector for the given text. The
// returned slice length equals the configured dimensions.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, assistanterrors.NewEmbeddingError(assistanterrors.EmbeddingErrorInvalidInput, ErrEmptyInput)
	}

	resp, err := c.sdk.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(input),
		},
		Model:      c.model,
		Dimensions: param.NewOpt(int64(c.dimensions)),
	})
	if err != nil {
		return nil, classifyAPIError(err)
	}

	if len(resp.Data) == 0 {
		return nil, assistanterrors.NewEmbeddingError(
			assistanterrors.EmbeddingErrorMalformedResponse, ErrNoEmbeddingInResponse)
	}

	return c.toVector(resp.Data[0].Embedding)
}

// CreateEmbeddings returns embedding vectors for all texts in input order.
// Inputs are chunked (chunkSize per request); chunks are sequential and paced
// by the configured limiter.
func (c *Client) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, assistanterrors.NewEmbeddingError(
			assistanterrors.EmbeddingErrorInvalidInput, errors.New("openai: no input texts"))
	}

	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, assistanterrors.NewEmbeddingError(
				assistanterrors.EmbeddingErrorInvalidInput,
				fmt.Errorf("openai: text at index %d is empty", i))
		}
	}

	out := make([][]float32, 0, len(texts))

	for _, chunk := range chunkTexts(texts, c.chunkSize) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, assistanterrors.NewEmbeddingError(assistanterrors.EmbeddingErrorTransient, err)
			}
		}

		vectors, err := c.createChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}

		out = append(out, vectors...)
	}

	return out, nil
}

func (c *Client) createChunk(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.sdk.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:      c.model,
		Dimensions: param.NewOpt(int64(c.dimensions)),
	})
	if err != nil {
		return nil, classifyAPIError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, assistanterrors.NewEmbeddingError(
			assistanterrors.EmbeddingErrorMalformedResponse,
			fmt.Errorf("%w: got %d, want %d", ErrEmbeddingCountMismatch, len(resp.Data), len(texts)))
	}

	vectors := make([][]float32, len(resp.Data))

	for i, data := range resp.Data {
		vec, err := c.toVector(data.Embedding)
		if err != nil {
			return nil, err
		}

		vectors[i] = vec
	}

	return vectors, nil
}

func (c *Client) toVector(emb []float64) ([]float32, error) {
	if len(emb) != c.dimensions {
		return nil, assistanterrors.NewEmbeddingError(
			assistanterrors.EmbeddingErrorMalformedResponse,
			fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), c.dimensions))
	}

	out := make([]float32, len(emb))
	for i := range emb {
		out[i] = float32(emb[i])
	}

	return out, nil
}

// chunkTexts splits texts into slices of at most size elements, preserving order.
func chunkTexts(texts []string, size int) [][]string {
	if size <= 0 {
		size = defaultChunkSize
	}

	chunks := make([][]string, 0, (len(texts)+size-1)/size)

	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}

		chunks = append(chunks, texts[start:end])
	}

	return chunks
}

// classifyAPIError maps SDK errors to the embedding error taxonomy: rate
// limiting and server errors are transient (caller may retry with backoff),
// 4xx client errors are invalid input, transport failures are transient.
func classifyAPIError(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429 || apiErr.StatusCode >= 500:
			return assistanterrors.NewEmbeddingError(assistanterrors.EmbeddingErrorTransient, err)
		case apiErr.StatusCode >= 400:
			return assistanterrors.NewEmbeddingError(assistanterrors.EmbeddingErrorInvalidInput, err)
		}
	}

	return assistanterrors.NewEmbeddingError(assistanterrors.EmbeddingErrorTransient, err)
}
