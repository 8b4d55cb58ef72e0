// Package batch normalizes a line stream into a [corpus.Sink].
//
// Lines are read in chunks, normalized concurrently by a bounded pool of
// workers and written to the sink in input order. Before normalization each
// line loses its optional leading ID token and has its whitespace collapsed
// to single spaces; record spans index this collapsed form.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/mowa/internal/config"
	"github.com/MrWong99/mowa/internal/observe"
	"github.com/MrWong99/mowa/internal/textnorm"
	"github.com/MrWong99/mowa/internal/textnorm/group"
	"github.com/MrWong99/mowa/pkg/corpus"
)

// maxLineSize is the longest input line accepted.
const maxLineSize = 1 << 20

// linesPerWorker sets the chunk size: workers*linesPerWorker lines are held
// in memory at once.
const linesPerWorker = 64

// Option configures a [Runner].
type Option func(*Runner)

// WithWorkers sets the number of concurrent normalizations. Values below 1
// select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithIDs treats the first whitespace-separated token of every line as the
// line ID.
func WithIDs(enabled bool) Option {
	return func(r *Runner) {
		r.ids = enabled
	}
}

// WithMismatchPolicy sets what happens to a line failing the alignment
// check. Default: [config.MismatchAbort].
func WithMismatchPolicy(p config.MismatchPolicy) Option {
	return func(r *Runner) {
		if p != "" {
			r.policy = p
		}
	}
}

// WithMetrics tracks active runs in m. Line metrics are recorded by the
// normalizer itself.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithDebug logs the classified groups of every line at debug level.
func WithDebug(enabled bool) Option {
	return func(r *Runner) {
		r.debug = enabled
	}
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// Normalizer is the part of [textnorm.Normalizer] a [Runner] uses.
type Normalizer interface {
	NormalizeContext(ctx context.Context, line string) (*textnorm.Result, error)
}

var _ Normalizer = (*textnorm.Normalizer)(nil)

// Runner executes one batch run. A Runner may be reused for several runs;
// each gets a fresh run ID unless [WithRunID] was given.
type Runner struct {
	norm    Normalizer
	sink    corpus.Sink
	workers int
	ids     bool
	policy  config.MismatchPolicy
	metrics *observe.Metrics
	debug   bool
	runID   uuid.UUID
}

// New creates a [Runner] writing normalizations of norm to sink.
func New(norm Normalizer, sink corpus.Sink, opts ...Option) *Runner {
	r := &Runner{
		norm:   norm,
		sink:   sink,
		policy: config.MismatchAbort,
	}
	for _, o := range opts {
		o(r)
	}
	if r.workers < 1 {
		r.workers = runtime.NumCPU()
	}
	return r
}

// SplitLine separates the optional ID token from line and collapses the
// remaining whitespace to single spaces.
func SplitLine(line string, ids bool) (id, text string) {
	fields := strings.Fields(line)
	if ids && len(fields) > 0 {
		id, fields = fields[0], fields[1:]
	}
	return id, strings.Join(fields, " ")
}

type job struct {
	seq  int
	id   string
	text string

	res *textnorm.Result
	err error
}

// Run normalizes every line of src. input names the source in the run
// record and logs. The returned run carries the final counters even when an
// error is returned.
func (r *Runner) Run(ctx context.Context, input string, src io.Reader) (corpus.Run, error) {
	run := corpus.Run{ID: r.runID, Input: input, StartedAt: time.Now().UTC()}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	ctx, span := observe.StartSpan(ctx, "batch.run",
		trace.WithAttributes(
			attribute.String("run_id", run.ID.String()),
			attribute.String("input", input),
		))
	defer span.End()
	ctx = observe.WithLogAttrs(ctx, slog.String("run_id", run.ID.String()))
	log := observe.Logger(ctx)

	if r.metrics != nil {
		r.metrics.ActiveRuns.Add(ctx, 1)
		defer r.metrics.ActiveRuns.Add(ctx, -1)
	}

	err := r.run(ctx, &run, src)
	run.FinishedAt = time.Now().UTC()
	if err == nil {
		err = r.sink.End(ctx, run)
	}

	span.SetAttributes(attribute.Int("lines", run.Lines), attribute.Int("skipped", run.Skipped))
	if err != nil {
		observe.Fail(span, err)
		log.Error("batch run failed", "input", input, "lines", run.Lines, "err", err)
		return run, err
	}
	log.Info("batch run completed",
		"input", input,
		"lines", run.Lines,
		"skipped", run.Skipped,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}

func (r *Runner) run(ctx context.Context, run *corpus.Run, src io.Reader) error {
	if err := r.sink.Begin(ctx, *run); err != nil {
		return fmt.Errorf("batch: begin: %w", err)
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	chunk := make([]job, 0, r.workers*linesPerWorker)
	seq := 0
	for sc.Scan() {
		id, text := SplitLine(sc.Text(), r.ids)
		chunk = append(chunk, job{seq: seq, id: id, text: text})
		seq++
		if len(chunk) == cap(chunk) {
			if err := r.process(ctx, run, chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("batch: read line %d: %w", seq+1, err)
	}
	return r.process(ctx, run, chunk)
}

// process normalizes chunk concurrently, then writes it in order.
func (r *Runner) process(ctx context.Context, run *corpus.Run, chunk []job) error {
	if len(chunk) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range chunk {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			j := &chunk[i]
			j.res, j.err = r.norm.NormalizeContext(gctx, j.text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	log := observe.Logger(ctx)
	for i := range chunk {
		j := &chunk[i]
		if j.err != nil {
			if errors.Is(j.err, textnorm.ErrAlignmentMismatch) && r.policy == config.MismatchSkip {
				run.Skipped++
				log.Warn("skipping line", "line", j.seq+1, "id", j.id, "err", j.err)
				continue
			}
			return fmt.Errorf("batch: line %d: %w", j.seq+1, j.err)
		}
		if r.debug {
			log.Debug("classified line", "line", j.seq+1, "groups", group.Debug(j.res.Groups))
		}
		if err := r.sink.Write(ctx, Record(run.ID, j.seq, j.id, j.text, j.res)); err != nil {
			return fmt.Errorf("batch: write line %d: %w", j.seq+1, err)
		}
		run.Lines++
	}
	return ctx.Err()
}

// Record converts a normalization result into a [corpus.Record].
func Record(runID uuid.UUID, seq int, id, source string, res *textnorm.Result) corpus.Record {
	spans := make([]corpus.Span, len(res.Spans))
	for i, sp := range res.Spans {
		spans[i] = corpus.Span{Start: sp.Start, End: sp.End}
	}
	return corpus.Record{
		RunID:    runID,
		Seq:      seq,
		ID:       id,
		Source:   source,
		Text:     res.Text,
		Spans:    spans,
		Surfaces: res.Surfaces,
	}
}
