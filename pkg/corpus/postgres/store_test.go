package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/mowa/pkg/corpus"
	"github.com/MrWong99/mowa/pkg/corpus/postgres"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if MOWA_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MOWA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MOWA_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a [postgres.Store] on a clean schema.
func newTestStore(t *testing.T, opts ...postgres.Option) *postgres.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS normalized_lines CASCADE",
		"DROP TABLE IF EXISTS normalization_runs CASCADE",
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("drop schema %q: %v", stmt, err)
		}
	}

	store, err := postgres.NewStore(ctx, dsn, opts...)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RunRoundTrip(t *testing.T) {
	// Batch size 2 forces one COPY during Write and one in End.
	store := newTestStore(t, postgres.WithBatchSize(2))
	ctx := context.Background()

	run := corpus.Run{ID: uuid.New(), Input: "sesja.txt", StartedAt: time.Now().UTC().Truncate(time.Microsecond)}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	records := []corpus.Record{
		{
			RunID: run.ID, Seq: 0, ID: "utt1", Source: "godz. 12:04",
			Text:     "godzina dwanaście cztery",
			Spans:    []corpus.Span{{Start: 0, End: 5}, {Start: 6, End: 11}, {Start: 6, End: 11}},
			Surfaces: []string{"godz.", "12:04", "12:04"},
		},
		{RunID: run.ID, Seq: 1, ID: "utt2", Source: "", Text: ""},
		{
			RunID: run.ID, Seq: 2, ID: "utt3", Source: "XX w.",
			Text:     "dwudziesty wiek",
			Spans:    []corpus.Span{{Start: 0, End: 2}, {Start: 3, End: 5}},
			Surfaces: []string{"XX", "w."},
		},
	}
	for _, rec := range records {
		if err := store.Write(ctx, rec); err != nil {
			t.Fatalf("Write(%d): %v", rec.Seq, err)
		}
	}

	run.FinishedAt = run.StartedAt.Add(time.Second)
	run.Lines, run.Skipped = 3, 1
	if err := store.End(ctx, run); err != nil {
		t.Fatalf("End: %v", err)
	}

	got, err := store.ReadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadRun: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("ReadRun returned %d records, want %d", len(got), len(records))
	}
	for i, rec := range got {
		want := records[i]
		if rec.Seq != want.Seq || rec.ID != want.ID || rec.Text != want.Text || rec.Source != want.Source {
			t.Errorf("record %d = %+v, want %+v", i, rec, want)
		}
		if len(rec.Spans) != len(want.Spans) || len(rec.Surfaces) != len(want.Surfaces) {
			t.Errorf("record %d alignment = %v/%v, want %v/%v", i, rec.Spans, rec.Surfaces, want.Spans, want.Surfaces)
		}
	}
	if got[0].Spans[2] != (corpus.Span{Start: 6, End: 11}) {
		t.Errorf("record 0 span 2 = %+v", got[0].Spans[2])
	}

	stored, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if stored.Lines != 3 || stored.Skipped != 1 || stored.Input != "sesja.txt" {
		t.Errorf("GetRun = %+v", stored)
	}
}

func TestStore_EndUnknownRun(t *testing.T) {
	store := newTestStore(t)
	if err := store.End(context.Background(), corpus.Run{ID: uuid.New()}); err == nil {
		t.Error("End on unknown run succeeded")
	}
}

func TestStore_ReadRunEmpty(t *testing.T) {
	store := newTestStore(t)
	got, err := store.ReadRun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ReadRun: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ReadRun = %v, want empty non-nil slice", got)
	}
}

func TestStore_WriteAfterClose(t *testing.T) {
	store := newTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Write(context.Background(), corpus.Record{}); !errors.Is(err, corpus.ErrSinkClosed) {
		t.Errorf("Write after Close = %v, want ErrSinkClosed", err)
	}
}

func TestStore_Ping(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
