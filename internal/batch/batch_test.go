package batch_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/mowa/internal/batch"
	"github.com/MrWong99/mowa/internal/config"
	"github.com/MrWong99/mowa/internal/observe"
	"github.com/MrWong99/mowa/internal/textnorm"
	"github.com/MrWong99/mowa/pkg/corpus"
	"github.com/MrWong99/mowa/pkg/corpus/mock"
)

func TestSplitLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line     string
		ids      bool
		wantID   string
		wantText string
	}{
		{"  mam   5\tkotów ", false, "", "mam 5 kotów"},
		{"utt1 godz. 12:04", true, "utt1", "godz. 12:04"},
		{"utt2", true, "utt2", ""},
		{"", true, "", ""},
		{"   ", false, "", ""},
	}
	for _, tt := range tests {
		id, text := batch.SplitLine(tt.line, tt.ids)
		if id != tt.wantID || text != tt.wantText {
			t.Errorf("SplitLine(%q, %v) = %q, %q, want %q, %q", tt.line, tt.ids, id, text, tt.wantID, tt.wantText)
		}
	}
}

func TestRun_OrderAndAlignment(t *testing.T) {
	t.Parallel()

	// Enough lines to span several chunks with two workers.
	var b strings.Builder
	const n = 300
	for i := range n {
		if i%3 == 0 {
			b.WriteString("godz.   12:04\n")
		} else {
			b.WriteString("mam 5 kotów\n")
		}
	}

	sink := &mock.Sink{}
	runID := uuid.New()
	r := batch.New(textnorm.New(), sink, batch.WithWorkers(2), batch.WithRunID(runID))

	run, err := r.Run(context.Background(), "stdin", strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.ID != runID || run.Lines != n || run.Skipped != 0 {
		t.Errorf("run = %+v", run)
	}

	records := sink.Records()
	if len(records) != n {
		t.Fatalf("records = %d, want %d", len(records), n)
	}
	for i, rec := range records {
		if rec.Seq != i || rec.RunID != runID {
			t.Fatalf("record %d has seq %d run %s", i, rec.Seq, rec.RunID)
		}
		if len(rec.Words()) != len(rec.Spans) || len(rec.Spans) != len(rec.Surfaces) {
			t.Fatalf("record %d misaligned: %+v", i, rec)
		}
	}
	first := records[0]
	if first.Source != "godz. 12:04" || first.Text != "godzina dwanaście cztery" {
		t.Errorf("record 0 = %+v", first)
	}
	if first.Spans[1] != (corpus.Span{Start: 6, End: 11}) {
		t.Errorf("record 0 span 1 = %+v, want {6 11} in the collapsed line", first.Spans[1])
	}
	if records[1].Text != "mam pięć kotów" {
		t.Errorf("record 1 text = %q", records[1].Text)
	}

	if sink.CallCount("Begin") != 1 || sink.CallCount("End") != 1 {
		t.Errorf("calls = %+v", sink.Calls())
	}
	if runs := sink.Runs(); len(runs) != 1 || runs[0].Lines != n {
		t.Errorf("ended runs = %+v", runs)
	}
}

func TestRun_IDs(t *testing.T) {
	t.Parallel()

	sink := &mock.Sink{}
	r := batch.New(textnorm.New(), sink, batch.WithIDs(true))
	if _, err := r.Run(context.Background(), "in", strings.NewReader("a1 XX w.\na2\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	records := sink.Records()
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != "a1" || records[0].Source != "XX w." {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].ID != "a2" || records[1].Text != "" || len(records[1].Spans) != 0 {
		t.Errorf("record 1 = %+v", records[1])
	}
}

// flaky fails the alignment check for lines containing "zepsute".
type flaky struct{ norm *textnorm.Normalizer }

func (f flaky) NormalizeContext(ctx context.Context, line string) (*textnorm.Result, error) {
	if strings.Contains(line, "zepsute") {
		return nil, &textnorm.IntegrityError{Line: line, Words: 1}
	}
	return f.norm.NormalizeContext(ctx, line)
}

func TestRun_MismatchPolicy(t *testing.T) {
	t.Parallel()

	const input = "raz\nzepsute\ndwa\n"

	t.Run("abort", func(t *testing.T) {
		t.Parallel()

		sink := &mock.Sink{}
		r := batch.New(flaky{textnorm.New()}, sink)
		run, err := r.Run(context.Background(), "in", strings.NewReader(input))
		if !errors.Is(err, textnorm.ErrAlignmentMismatch) {
			t.Fatalf("Run = %v, want ErrAlignmentMismatch", err)
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("error %q does not name line 2", err)
		}
		if run.Lines != 1 {
			t.Errorf("lines written before abort = %d, want 1", run.Lines)
		}
		if sink.CallCount("End") != 0 {
			t.Error("End called on an aborted run")
		}
	})

	t.Run("skip", func(t *testing.T) {
		t.Parallel()

		sink := &mock.Sink{}
		r := batch.New(flaky{textnorm.New()}, sink, batch.WithMismatchPolicy(config.MismatchSkip))
		run, err := r.Run(context.Background(), "in", strings.NewReader(input))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if run.Lines != 2 || run.Skipped != 1 {
			t.Errorf("run = %+v, want 2 lines 1 skipped", run)
		}
		records := sink.Records()
		if len(records) != 2 || records[0].Seq != 0 || records[1].Seq != 2 {
			t.Errorf("records = %+v", records)
		}
	})
}

func TestRun_SinkErrors(t *testing.T) {
	t.Parallel()

	writeErr := errors.New("disk full")
	sink := &mock.Sink{WriteErr: writeErr}
	_, err := batch.New(textnorm.New(), sink).Run(context.Background(), "in", strings.NewReader("raz\n"))
	if !errors.Is(err, writeErr) {
		t.Errorf("Run = %v, want %v", err, writeErr)
	}

	beginErr := errors.New("no table")
	sink = &mock.Sink{BeginErr: beginErr}
	_, err = batch.New(textnorm.New(), sink).Run(context.Background(), "in", strings.NewReader("raz\n"))
	if !errors.Is(err, beginErr) {
		t.Errorf("Run = %v, want %v", err, beginErr)
	}
	if sink.CallCount("Write") != 0 {
		t.Error("Write called after Begin failed")
	}
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &mock.Sink{}
	_, err := batch.New(textnorm.New(), sink).Run(ctx, "in", strings.NewReader("raz\ndwa\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestRun_ActiveRunsMetric(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	norm := textnorm.New(textnorm.WithMetrics(m), textnorm.WithSource("batch"))
	if _, err := batch.New(norm, &mock.Sink{}, batch.WithMetrics(m)).Run(context.Background(), "in", strings.NewReader("raz\ndwa\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if sum, ok := met.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[met.Name] += dp.Value
				}
			}
		}
	}
	if sums["mowa.active_runs"] != 0 {
		t.Errorf("active runs after completion = %d, want 0", sums["mowa.active_runs"])
	}
	if sums["mowa.lines"] != 2 {
		t.Errorf("lines = %d, want 2", sums["mowa.lines"])
	}
}
