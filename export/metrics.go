package export

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SelfMetrics records the exporter's own behavior: span volume, failures,
// retries and delivery latency.
type SelfMetrics struct {
	spans    metric.Int64Counter
	failures metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewSelfMetrics builds the exporter's instrument set on meter.
func NewSelfMetrics(meter metric.Meter) (*SelfMetrics, error) {
	spans, err := meter.Int64Counter(
		"lantern.export.spans",
		metric.WithDescription("Spans handed to the exporter"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"lantern.export.failures",
		metric.WithDescription("Export batches that ultimately failed"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"lantern.export.retries",
		metric.WithDescription("Transient-failure retry attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"lantern.export.duration_ms",
		metric.WithDescription("Batch delivery duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &SelfMetrics{
		spans:    spans,
		failures: failures,
		retries:  retries,
		duration: duration,
	}, nil
}

func (m *SelfMetrics) record(ctx context.Context, spans int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.spans.Add(ctx, int64(spans))
	if err != nil {
		m.failures.Add(ctx, 1)
	}
	m.duration.Record(ctx, float64(elapsed.Milliseconds()))
}

func (m *SelfMetrics) retried(ctx context.Context) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1)
}
