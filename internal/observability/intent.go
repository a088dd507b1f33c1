package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// IntentMetrics records intent classification outcomes and latency.
type IntentMetrics interface {
	RecordClassification(ctx context.Context, intent, outcome string)
	RecordClassifyDuration(ctx context.Context, duration time.Duration, outcome string)
}

type intentMetrics struct {
	classifications metric.Int64Counter
	duration        metric.Float64Histogram
}

// NewIntentMetrics creates IntentMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewIntentMetrics(meter metric.Meter) (IntentMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	classifications, err := meter.Int64Counter(
		MetricNameIntentClassifications,
		metric.WithDescription("Total intent classifications by resolved intent and outcome "+
			"(accepted, below_threshold, no_candidates, error)."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create intent classifications counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameIntentClassifyDuration,
		metric.WithDescription("Intent classification duration (seconds), including embedding and exemplar search."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create intent classify duration histogram: %w", err)
	}

	return &intentMetrics{classifications: classifications, duration: duration}, nil
}

func (m *intentMetrics) RecordClassification(ctx context.Context, intent, outcome string) {
	m.classifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrIntent, NormalizeIntent(intent)),
		attribute.String(AttrOutcome, NormalizeOutcome(outcome)),
	))
}

func (m *intentMetrics) RecordClassifyDuration(ctx context.Context, duration time.Duration, outcome string) {
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOutcome, NormalizeOutcome(outcome)),
	))
}
