package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EmbeddingMetrics records embedding generation metrics (provider calls, errors, latency).
type EmbeddingMetrics interface {
	RecordGenerated(ctx context.Context, count int64)
	RecordProviderError(ctx context.Context, reason string)
	RecordGenerateDuration(ctx context.Context, duration time.Duration)
}

type embeddingMetrics struct {
	generated      metric.Int64Counter
	providerErrors metric.Int64Counter
	duration       metric.Float64Histogram
}

// NewEmbeddingMetrics creates EmbeddingMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewEmbeddingMetrics(meter metric.Meter) (EmbeddingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	generated, err := meter.Int64Counter(
		MetricNameEmbeddingsGenerated,
		metric.WithDescription("Total embedding vectors generated by the provider (cache misses)."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embeddings generated counter: %w", err)
	}

	providerErrors, err := meter.Int64Counter(
		MetricNameEmbeddingProviderErrors,
		metric.WithDescription("Total embedding provider errors by reason "+
			"(transient, invalid_input, malformed_response)."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider errors counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameEmbeddingDuration,
		metric.WithDescription("Provider embedding request duration (seconds)."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding duration histogram: %w", err)
	}

	return &embeddingMetrics{
		generated:      generated,
		providerErrors: providerErrors,
		duration:       duration,
	}, nil
}

func (m *embeddingMetrics) RecordGenerated(ctx context.Context, count int64) {
	m.generated.Add(ctx, count)
}

func (m *embeddingMetrics) RecordProviderError(ctx context.Context, reason string) {
	reason = NormalizeReason(reason, AllowedEmbeddingErrorReasons)
	m.providerErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

func (m *embeddingMetrics) RecordGenerateDuration(ctx context.Context, duration time.Duration) {
	m.duration.Record(ctx, duration.Seconds())
}
