// Package observe provides application-wide observability primitives for
// Muninn: OpenTelemetry metrics with a Prometheus exporter bridge so the
// standard /metrics endpoint keeps working, plus HTTP middleware that ties
// request handling into the same instruments.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Muninn metrics.
const meterName = "github.com/bwyatt92/muninn"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Counters ---

	// Resolutions counts resolved utterances. Use with attributes:
	//   attribute.String("intent", ...), attribute.String("strategy", ...)
	Resolutions metric.Int64Counter

	// Unresolved counts utterances no strategy claimed.
	Unresolved metric.Int64Counter

	// Corrections counts phonetic correction rules applied by the
	// transcript normalizer. Use with attribute:
	//   attribute.String("replacement", ...)
	Corrections metric.Int64Counter

	// HandlerFailures counts command handlers that returned an error. Use
	// with attribute: attribute.String("intent", ...)
	HandlerFailures metric.Int64Counter

	// SpeakFailures counts speech outputs that failed to render.
	SpeakFailures metric.Int64Counter

	// --- Histograms ---

	// ResolutionConfidence tracks the confidence of accepted resolutions.
	ResolutionConfidence metric.Float64Histogram

	// TurnDuration tracks wall time per conversation turn, capture through
	// dispatch.
	TurnDuration metric.Float64Histogram

	// --- Gauges ---

	// ActiveSessions tracks the number of live conversation sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// confidenceBuckets covers the [0,1] confidence range with extra resolution
// around the acceptance threshold.
var confidenceBuckets = []float64{
	0.5, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1,
}

// turnBuckets defines histogram bucket boundaries (in seconds) sized for
// conversational turns, which include capture timeouts up to several seconds.
var turnBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2, 4, 8, 12, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Counters.
	if met.Resolutions, err = m.Int64Counter("muninn.intent.resolutions",
		metric.WithDescription("Total resolved utterances by intent and strategy."),
	); err != nil {
		return nil, err
	}
	if met.Unresolved, err = m.Int64Counter("muninn.intent.unresolved",
		metric.WithDescription("Total utterances no resolution strategy claimed."),
	); err != nil {
		return nil, err
	}
	if met.Corrections, err = m.Int64Counter("muninn.transcript.corrections",
		metric.WithDescription("Total phonetic correction rules applied by replacement."),
	); err != nil {
		return nil, err
	}
	if met.HandlerFailures, err = m.Int64Counter("muninn.command.handler_failures",
		metric.WithDescription("Total command handler errors by intent."),
	); err != nil {
		return nil, err
	}
	if met.SpeakFailures, err = m.Int64Counter("muninn.speech.failures",
		metric.WithDescription("Total speech outputs that failed to render."),
	); err != nil {
		return nil, err
	}

	// Histograms.
	if met.ResolutionConfidence, err = m.Float64Histogram("muninn.intent.confidence",
		metric.WithDescription("Confidence of accepted resolutions."),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(confidenceBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("muninn.conversation.turn.duration",
		metric.WithDescription("Wall time per conversation turn, capture through dispatch."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(turnBuckets...),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("muninn.active_sessions",
		metric.WithDescription("Number of live conversation sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("muninn.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordResolution records an accepted resolution with its confidence.
func (m *Metrics) RecordResolution(ctx context.Context, intent, strategy string, confidence float64) {
	m.Resolutions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("intent", intent),
			attribute.String("strategy", strategy),
		),
	)
	m.ResolutionConfidence.Record(ctx, confidence)
}

// RecordUnresolved records an utterance that no strategy claimed.
func (m *Metrics) RecordUnresolved(ctx context.Context) {
	m.Unresolved.Add(ctx, 1)
}

// RecordCorrection records a normalizer correction by its replacement text.
func (m *Metrics) RecordCorrection(ctx context.Context, replacement string) {
	m.Corrections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("replacement", replacement)),
	)
}

// RecordHandlerFailure records a command handler error for an intent.
func (m *Metrics) RecordHandlerFailure(ctx context.Context, intent string) {
	m.HandlerFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("intent", intent)),
	)
}
