// Package observe provides application-wide observability primitives for
// fretsense: OpenTelemetry metrics, request tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all fretsense metrics.
const meterName = "github.com/fretsense/fretsense"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// AnalysisDuration tracks per-frame analysis latency (volume, pitch,
	// classification, tracker update).
	AnalysisDuration metric.Float64Histogram

	// FramesProcessed counts frames through the pipeline. Use with attribute:
	//   attribute.String("result", "analyzed"|"gated")
	FramesProcessed metric.Int64Counter

	// PitchDetections counts pitch-estimator outcomes. Use with attribute:
	//   attribute.String("outcome", "accepted"|"rejected")
	PitchDetections metric.Int64Counter

	// LockTransitions counts stability-tracker lock changes. Use with attributes:
	//   attribute.String("from", ...), attribute.String("to", ...)
	LockTransitions metric.Int64Counter

	// ReadFailures counts transient frame-source read errors (skipped cycles).
	ReadFailures metric.Int64Counter

	// ActiveSessions tracks the number of running listening sessions
	// (0 or 1 in the current single-source deployment).
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// analysisBuckets defines histogram bucket boundaries (in seconds) sized for
// per-frame DSP work, which sits well under the 100 ms cycle budget.
var analysisBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25,
}

// httpBuckets defines histogram bucket boundaries (in seconds) for the thin
// API surface.
var httpBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AnalysisDuration, err = m.Float64Histogram("fretsense.analysis.duration",
		metric.WithDescription("Latency of per-frame signal analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(analysisBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FramesProcessed, err = m.Int64Counter("fretsense.frames.processed",
		metric.WithDescription("Audio frames consumed by the pipeline."),
	); err != nil {
		return nil, err
	}
	if met.PitchDetections, err = m.Int64Counter("fretsense.pitch.detections",
		metric.WithDescription("Pitch-estimator outcomes by acceptance."),
	); err != nil {
		return nil, err
	}
	if met.LockTransitions, err = m.Int64Counter("fretsense.lock.transitions",
		metric.WithDescription("Stability-tracker lock changes."),
	); err != nil {
		return nil, err
	}
	if met.ReadFailures, err = m.Int64Counter("fretsense.source.read_failures",
		metric.WithDescription("Transient frame-source read errors."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("fretsense.sessions.active",
		metric.WithDescription("Currently running listening sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("fretsense.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide [Metrics] instance built on the
// global OTel MeterProvider. Instruments are created on first call; if
// creation fails the instance falls back to no-op instruments, so callers
// on hot paths never need to handle instrument errors.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			m, _ = NewMetrics(noop.NewMeterProvider())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordLockTransition records a lock change on m with the standard from/to
// attributes. Helper for the session loop's hot path.
func (m *Metrics) RecordLockTransition(ctx context.Context, from, to string) {
	if m.LockTransitions == nil {
		return
	}
	m.LockTransitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		),
	)
}
