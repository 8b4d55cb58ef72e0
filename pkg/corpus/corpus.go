// Package corpus defines the records produced by normalizing a transcript
// and the [Sink] interface that persists them.
//
// A [Record] holds one input line in spoken form together with its alignment:
// Spans[i] and Surfaces[i] describe where Words[i] came from. Sinks receive
// records in input order.
//
// Implementations live in subpackages: textfile writes the classic pair of
// text and offset streams, postgres stores runs in a database and mock is a
// test double.
package corpus

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrSinkClosed is returned by [Sink.Write] after [Sink.Close].
var ErrSinkClosed = errors.New("corpus: sink closed")

// Span is a half-open range of character offsets into Record.Source.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Record is one normalized line.
type Record struct {
	// RunID identifies the batch run the record belongs to.
	RunID uuid.UUID

	// Seq is the zero-based position of the line in its input.
	Seq int

	// ID is the line identifier taken from the first token of the input line
	// when IDs are enabled. Empty otherwise.
	ID string

	// Source is the line the spans index into, after ID removal and
	// whitespace collapsing.
	Source string

	// Text is the spoken form: words joined by single spaces.
	Text string

	// Spans holds one span per word of Text.
	Spans []Span

	// Surfaces holds, per word, the source text its span covers.
	Surfaces []string
}

// Words splits Text into its words.
func (r *Record) Words() []string { return strings.Fields(r.Text) }

// Run describes one batch run.
type Run struct {
	ID         uuid.UUID
	Input      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Lines is the number of records written.
	Lines int

	// Skipped is the number of input lines dropped by the mismatch policy.
	Skipped int
}

// Sink consumes records. Write is called from a single goroutine in input
// order; implementations need not be safe for concurrent Write calls.
type Sink interface {
	// Begin announces a run before its first record.
	Begin(ctx context.Context, run Run) error

	// Write persists one record.
	Write(ctx context.Context, rec Record) error

	// End completes the run, flushing buffered records. run carries the
	// final counters.
	End(ctx context.Context, run Run) error

	// Close releases the sink's resources. Further writes fail with
	// [ErrSinkClosed].
	Close() error
}
