// Package observe provides the observability primitives of mowa:
// OpenTelemetry metrics, tracing, trace-aware logging, and the HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported to
// Prometheus by [InitProvider]. [DefaultMetrics] uses the global meter
// provider; tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Line status values for [Metrics.RecordLine].
const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusError    = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// LineDuration tracks the time to normalize one line. Attributes:
	//   attribute.String("source", ...)
	LineDuration metric.Float64Histogram

	// Lines counts normalized lines. Attributes:
	//   attribute.String("source", ...), attribute.String("status", ...)
	Lines metric.Int64Counter

	// Words counts emitted spoken words. Attributes:
	//   attribute.String("source", ...)
	Words metric.Int64Counter

	// Groups counts classified groups. Attributes:
	//   attribute.String("kind", ...)
	Groups metric.Int64Counter

	// IntegrityErrors counts lines rejected by the alignment check.
	IntegrityErrors metric.Int64Counter

	// ToolCalls counts MCP tool invocations. Attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// ToolExecutionDuration tracks MCP tool latency.
	ToolExecutionDuration metric.Float64Histogram

	// ActiveRuns tracks batch runs in progress.
	ActiveRuns metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// lineBuckets are histogram boundaries (in seconds) for per-line work,
// which is typically well below a millisecond.
var lineBuckets = []float64{
	0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.1,
}

// requestBuckets are histogram boundaries (in seconds) for requests and tool
// calls.
var requestBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(scopeName)
	var err error
	met := &Metrics{}

	if met.LineDuration, err = m.Float64Histogram("mowa.line.duration",
		metric.WithDescription("Latency of normalizing one line."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(lineBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("mowa.tool_execution.duration",
		metric.WithDescription("Latency of MCP tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(requestBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("mowa.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(requestBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Lines, err = m.Int64Counter("mowa.lines",
		metric.WithDescription("Total normalized lines by source and status."),
	); err != nil {
		return nil, err
	}
	if met.Words, err = m.Int64Counter("mowa.words",
		metric.WithDescription("Total spoken words emitted by source."),
	); err != nil {
		return nil, err
	}
	if met.Groups, err = m.Int64Counter("mowa.groups",
		metric.WithDescription("Total classified token groups by kind."),
	); err != nil {
		return nil, err
	}
	if met.IntegrityErrors, err = m.Int64Counter("mowa.integrity_errors",
		metric.WithDescription("Total lines rejected because words and alignment disagree."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("mowa.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}

	if met.ActiveRuns, err = m.Int64UpDownCounter("mowa.active_runs",
		metric.WithDescription("Number of batch runs in progress."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails.
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

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordLine records one normalized line: its status, latency and, for
// successful lines, the number of spoken words.
func (m *Metrics) RecordLine(ctx context.Context, source, status string, words int, d time.Duration) {
	src := metric.WithAttributes(attribute.String("source", source))
	m.Lines.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
	m.LineDuration.Record(ctx, d.Seconds(), src)
	if words > 0 {
		m.Words.Add(ctx, int64(words), src)
	}
	if status == StatusMismatch {
		m.IntegrityErrors.Add(ctx, 1)
	}
}

// RecordGroups adds n groups of the given kind.
func (m *Metrics) RecordGroups(ctx context.Context, kind string, n int) {
	m.Groups.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordToolCall records a tool call counter increment and its latency.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, d time.Duration) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
	m.ToolExecutionDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}
