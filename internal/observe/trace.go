package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// scopeName is the instrumentation scope of every span and metric.
const scopeName = "github.com/MrWong99/mowa"

// Tracer returns the mowa tracer of the global [trace.TracerProvider].
func Tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// StartSpan starts a span named name as a child of any span in ctx.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// Fail marks span as failed with err. A nil err is a no-op.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// CorrelationID is the hex trace ID of the span in ctx, or "" without one.
// HTTP responses carry it in X-Correlation-ID so clients can quote it.
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

type logAttrsKey struct{}

// WithLogAttrs attaches args to ctx for every later [Logger] call, after the
// attributes already attached. Batch runs use it for run_id.
func WithLogAttrs(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(logAttrsKey{}).([]any)
	return context.WithValue(ctx, logAttrsKey{}, append(prev[:len(prev):len(prev)], args...))
}

// Logger is [slog.Default] with the attributes of [WithLogAttrs] and, inside a
// span, trace_id and span_id.
func Logger(ctx context.Context) *slog.Logger {
	args, _ := ctx.Value(logAttrsKey{}).([]any)
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		args = append(args[:len(args):len(args)],
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if len(args) == 0 {
		return slog.Default()
	}
	return slog.Default().With(args...)
}
