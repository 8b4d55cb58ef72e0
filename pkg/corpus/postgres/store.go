package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/mowa/pkg/corpus"
)

var _ corpus.Sink = (*Store)(nil)

// DefaultBatchSize is the number of records buffered before a COPY.
const DefaultBatchSize = 500

// Option configures a [Store].
type Option func(*Store)

// WithBatchSize sets the number of records buffered per COPY. Values below 1
// are ignored.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Store is a [corpus.Sink] backed by a [pgxpool.Pool]. Reads are safe for
// concurrent use; writes follow the single-writer contract of [corpus.Sink].
type Store struct {
	pool      *pgxpool.Pool
	batchSize int
	pending   []corpus.Record
	closed    bool
}

// NewStore connects to dsn, pings the database and runs [Migrate].
func NewStore(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	s := &Store{pool: pool, batchSize: DefaultBatchSize}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Ping checks database connectivity. It is used as a readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Begin implements [corpus.Sink]. It inserts the run row.
func (s *Store) Begin(ctx context.Context, run corpus.Run) error {
	if s.closed {
		return corpus.ErrSinkClosed
	}
	const q = `
		INSERT INTO normalization_runs (id, input, started_at)
		VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, q, run.ID, run.Input, run.StartedAt); err != nil {
		return fmt.Errorf("postgres store: begin run: %w", err)
	}
	return nil
}

// Write implements [corpus.Sink]. Records are buffered and copied in
// batches.
func (s *Store) Write(ctx context.Context, rec corpus.Record) error {
	if s.closed {
		return corpus.ErrSinkClosed
	}
	s.pending = append(s.pending, rec)
	if len(s.pending) >= s.batchSize {
		return s.flush(ctx)
	}
	return nil
}

// End implements [corpus.Sink]. It copies the remaining records and stores
// the final counters of run.
func (s *Store) End(ctx context.Context, run corpus.Run) error {
	if s.closed {
		return corpus.ErrSinkClosed
	}
	if err := s.flush(ctx); err != nil {
		return err
	}
	const q = `
		UPDATE normalization_runs
		SET    finished_at = $2, lines = $3, skipped = $4
		WHERE  id = $1`
	tag, err := s.pool.Exec(ctx, q, run.ID, run.FinishedAt, run.Lines, run.Skipped)
	if err != nil {
		return fmt.Errorf("postgres store: end run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres store: end run %s: run not found", run.ID)
	}
	return nil
}

func (s *Store) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(s.pending))
	for _, rec := range s.pending {
		spans, err := json.Marshal(nonNilSpans(rec.Spans))
		if err != nil {
			return fmt.Errorf("postgres store: encode spans: %w", err)
		}
		surfaces := rec.Surfaces
		if surfaces == nil {
			surfaces = []string{}
		}
		rows = append(rows, []any{rec.RunID, int64(rec.Seq), rec.ID, rec.Source, rec.Text, spans, surfaces})
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"normalized_lines"},
		[]string{"run_id", "seq", "line_id", "source", "text", "spans", "surfaces"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("postgres store: copy %d records: %w", len(rows), err)
	}
	s.pending = s.pending[:0]
	return nil
}

// GetRun returns the run row for id.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (corpus.Run, error) {
	const q = `
		SELECT id, input, started_at, COALESCE(finished_at, started_at), lines, skipped
		FROM   normalization_runs
		WHERE  id = $1`

	var (
		run            corpus.Run
		lines, skipped int64
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(&run.ID, &run.Input, &run.StartedAt, &run.FinishedAt, &lines, &skipped)
	if err != nil {
		return corpus.Run{}, fmt.Errorf("postgres store: get run %s: %w", id, err)
	}
	run.Lines, run.Skipped = int(lines), int(skipped)
	return run, nil
}

// ReadRun returns the records of a run ordered by sequence number.
func (s *Store) ReadRun(ctx context.Context, runID uuid.UUID) ([]corpus.Record, error) {
	const q = `
		SELECT run_id, seq, line_id, source, text, spans, surfaces
		FROM   normalized_lines
		WHERE  run_id = $1
		ORDER  BY seq`

	rows, err := s.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: read run: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (corpus.Record, error) {
		var (
			rec   corpus.Record
			seq   int64
			spans []byte
		)
		if err := row.Scan(&rec.RunID, &seq, &rec.ID, &rec.Source, &rec.Text, &spans, &rec.Surfaces); err != nil {
			return corpus.Record{}, err
		}
		rec.Seq = int(seq)
		if err := json.Unmarshal(spans, &rec.Spans); err != nil {
			return corpus.Record{}, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan rows: %w", err)
	}
	if records == nil {
		records = []corpus.Record{}
	}
	return records, nil
}

// Close releases the pool. Buffered records not yet flushed by
// [Store.End] are dropped.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pool.Close()
	return nil
}

func nonNilSpans(spans []corpus.Span) []corpus.Span {
	if spans == nil {
		return []corpus.Span{}
	}
	return spans
}
