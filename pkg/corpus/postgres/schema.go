// Package postgres stores normalization runs in PostgreSQL.
//
// Each run is a row in normalization_runs; its records go to normalized_lines
// keyed by (run_id, seq). Records are buffered and written with COPY.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	err = batch.New(norm, store).Run(ctx, "input.txt", r)
//	records, err := store.ReadRun(ctx, runID)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlRuns = `
CREATE TABLE IF NOT EXISTS normalization_runs (
    id           UUID         PRIMARY KEY,
    input        TEXT         NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
    finished_at  TIMESTAMPTZ,
    lines        BIGINT       NOT NULL DEFAULT 0,
    skipped      BIGINT       NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_normalization_runs_started_at
    ON normalization_runs (started_at);
`

const ddlLines = `
CREATE TABLE IF NOT EXISTS normalized_lines (
    run_id    UUID    NOT NULL REFERENCES normalization_runs (id) ON DELETE CASCADE,
    seq       BIGINT  NOT NULL,
    line_id   TEXT    NOT NULL DEFAULT '',
    source    TEXT    NOT NULL,
    text      TEXT    NOT NULL,
    spans     JSONB   NOT NULL DEFAULT '[]',
    surfaces  TEXT[]  NOT NULL DEFAULT '{}',
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_normalized_lines_line_id
    ON normalized_lines (line_id);
`

// Migrate creates the tables if they do not exist. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range []string{ddlRuns, ddlLines} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
