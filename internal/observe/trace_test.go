package observe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
)

// captureLogs redirects the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestStartSpan_Nesting(t *testing.T) {
	exp := withTracing(t)

	ctx, run := StartSpan(context.Background(), "batch.run")
	_, line := StartSpan(ctx, "textnorm.normalize")
	line.End()
	run.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	child, parent := spans[0], spans[1]
	if child.Name != "textnorm.normalize" || parent.Name != "batch.run" {
		t.Fatalf("span names = %q, %q", child.Name, parent.Name)
	}
	if child.Parent.SpanID() != parent.SpanContext.SpanID() {
		t.Error("normalize span is not a child of the run span")
	}
	if CorrelationID(ctx) != parent.SpanContext.TraceID().String() {
		t.Error("correlation id differs from the run trace id")
	}
}

func TestCorrelationID_NoSpan(t *testing.T) {
	t.Parallel()

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID = %q, want empty", got)
	}
}

func TestFail(t *testing.T) {
	exp := withTracing(t)

	_, ok := StartSpan(context.Background(), "ok")
	Fail(ok, nil)
	ok.End()
	_, bad := StartSpan(context.Background(), "bad")
	Fail(bad, errors.New("mismatch"))
	bad.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Status.Code != codes.Unset {
		t.Errorf("nil error set status %v", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != "mismatch" {
		t.Errorf("status = %+v", spans[1].Status)
	}
	if len(spans[1].Events) != 1 {
		t.Errorf("events = %d, want one exception event", len(spans[1].Events))
	}
}

func TestLogger(t *testing.T) {
	withTracing(t)
	buf := captureLogs(t)

	Logger(context.Background()).Info("plain")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("trace id logged without a span: %s", buf)
	}

	buf.Reset()
	ctx := WithLogAttrs(context.Background(), "run_id", "r1")
	ctx = WithLogAttrs(ctx, "input", "a.txt")
	ctx, span := StartSpan(ctx, "batch.run")
	defer span.End()
	Logger(ctx).Info("line skipped")

	for _, want := range []string{"run_id=r1", "input=a.txt", "trace_id=" + CorrelationID(ctx), "span_id="} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q: %s", want, buf)
		}
	}
}

func TestWithLogAttrs_DoesNotAlias(t *testing.T) {
	buf := captureLogs(t)

	base := WithLogAttrs(context.Background(), "run_id", "r1")
	a := WithLogAttrs(base, "input", "a")
	b := WithLogAttrs(base, "input", "b")
	Logger(a).Info("x")
	Logger(b).Info("y")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "input=a") || !strings.Contains(lines[1], "input=b") {
		t.Errorf("attrs leaked between contexts:\n%s", buf)
	}
}
