package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roastery/assistant/internal/assistanterrors"
	"github.com/roastery/assistant/internal/intents"
)

// ExemplarWriter provides the write operation bulk loading needs. Implemented
// by repository.ExemplarRepository.
type ExemplarWriter interface {
	Upsert(ctx context.Context, intent, phrase string, embedding []float32, confidenceThreshold float64) error
}

// BatchEmbedder provides the embedding operations bulk loading needs.
// Implemented by EmbeddingService.
type BatchEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ExemplarLoader seeds the exemplar store from a phrase corpus. Loading is
// idempotent: re-running upserts existing (intent, phrase) rows without
// resetting their usage counts.
type ExemplarLoader struct {
	embedder   BatchEmbedder
	exemplars  ExemplarWriter
	dimensions int
	logger     *slog.Logger
}

// ExemplarLoaderParams configures ExemplarLoader. Dimensions guards each
// embedding before it is written; zero disables the check.
type ExemplarLoaderParams struct {
	Embedder   BatchEmbedder
	Exemplars  ExemplarWriter
	Dimensions int
	Logger     *slog.Logger
}

// NewExemplarLoader creates an ExemplarLoader.
func NewExemplarLoader(p ExemplarLoaderParams) *ExemplarLoader {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ExemplarLoader{
		embedder:   p.Embedder,
		exemplars:  p.Exemplars,
		dimensions: p.Dimensions,
		logger:     logger,
	}
}

// BulkLoad embeds and upserts every phrase in corpus, one batch embedding call
// per intent. Individual bad items are logged and skipped so one malformed
// phrase cannot abort seeding; a failed batch embedding falls back to
// embedding that intent's phrases one by one, skipping only the phrases that
// still fail. Returns the number of exemplars written.
func (l *ExemplarLoader) BulkLoad(ctx context.Context, corpus map[string][]string) (int, error) {
	if len(corpus) == 0 {
		return 0, nil
	}

	// Deterministic load order so exemplar IDs are stable across fresh seeds.
	intentNames := make([]string, 0, len(corpus))
	for intent := range corpus {
		intentNames = append(intentNames, intent)
	}

	sort.Strings(intentNames)

	loaded := 0

	for _, intent := range intentNames {
		phrases := corpus[intent]
		if len(phrases) == 0 {
			continue
		}

		threshold := intents.ThresholdFor(intent, intents.DefaultMinSimilarity)

		vecs, err := l.embedder.EmbedBatch(ctx, phrases)
		if err != nil {
			if ctx.Err() != nil {
				return loaded, fmt.Errorf("bulk load canceled: %w", ctx.Err())
			}

			// One bad phrase in the batch must not take the whole intent
			// down; fall back to embedding phrase by phrase.
			l.logger.Warn("exemplar load: batch embedding failed, retrying per phrase",
				"intent", intent, "phrases", len(phrases), "error", err)

			n, err := l.loadPerPhrase(ctx, intent, phrases, threshold)
			if err != nil {
				return loaded + n, err
			}

			loaded += n

			continue
		}

		for i, phrase := range phrases {
			if err := l.loadOne(ctx, intent, phrase, vecs[i], threshold); err != nil {
				l.logger.Warn("exemplar load: item skipped",
					"intent", intent, "phrase", phrase, "error", err)

				continue
			}

			loaded++
		}
	}

	l.logger.Info("exemplar load complete", "loaded", loaded)

	return loaded, nil
}

// loadPerPhrase embeds and upserts phrases one at a time, skipping individual
// failures. Only a canceled context aborts the load.
func (l *ExemplarLoader) loadPerPhrase(
	ctx context.Context, intent string, phrases []string, threshold float64,
) (int, error) {
	loaded := 0

	for _, phrase := range phrases {
		vec, err := l.embedder.Embed(ctx, phrase)
		if err != nil {
			if ctx.Err() != nil {
				return loaded, fmt.Errorf("bulk load canceled: %w", ctx.Err())
			}

			l.logger.Warn("exemplar load: item skipped",
				"intent", intent, "phrase", phrase, "error", err)

			continue
		}

		if err := l.loadOne(ctx, intent, phrase, vec, threshold); err != nil {
			l.logger.Warn("exemplar load: item skipped",
				"intent", intent, "phrase", phrase, "error", err)

			continue
		}

		loaded++
	}

	return loaded, nil
}

func (l *ExemplarLoader) loadOne(
	ctx context.Context, intent, phrase string, embedding []float32, threshold float64,
) error {
	if l.dimensions > 0 && len(embedding) != l.dimensions {
		return assistanterrors.NewMalformedExemplarError(intent, phrase,
			fmt.Sprintf("embedding has %d dimensions, want %d", len(embedding), l.dimensions))
	}

	if err := l.exemplars.Upsert(ctx, intent, phrase, embedding, threshold); err != nil {
		return fmt.Errorf("upsert exemplar: %w", err)
	}

	return nil
}
