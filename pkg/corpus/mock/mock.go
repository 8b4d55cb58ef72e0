// Package mock provides an in-memory [corpus.Sink] for tests.
//
// Typical usage:
//
//	sink := &mock.Sink{}
//	// run a batch into sink …
//	if got := len(sink.Records()); got != 3 {
//	    t.Errorf("records = %d, want 3", got)
//	}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/mowa/pkg/corpus"
)

var _ corpus.Sink = (*Sink)(nil)

// Call records the name of a single method invocation.
type Call struct {
	Method string
	Args   []any
}

// Sink is a configurable test double for [corpus.Sink]. Exported *Err fields
// default to nil (success). It is safe for concurrent use.
type Sink struct {
	mu sync.Mutex

	calls   []Call
	records []corpus.Record
	runs    []corpus.Run
	closed  bool

	// BeginErr is returned by [Sink.Begin] when non-nil.
	BeginErr error

	// WriteErr is returned by [Sink.Write] when non-nil. The record is not
	// stored.
	WriteErr error

	// EndErr is returned by [Sink.End] when non-nil.
	EndErr error
}

// Begin implements [corpus.Sink].
func (m *Sink) Begin(_ context.Context, run corpus.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Begin", Args: []any{run}})
	return m.BeginErr
}

// Write implements [corpus.Sink].
func (m *Sink) Write(_ context.Context, rec corpus.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Write", Args: []any{rec}})
	if m.closed {
		return corpus.ErrSinkClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.records = append(m.records, rec)
	return nil
}

// End implements [corpus.Sink].
func (m *Sink) End(_ context.Context, run corpus.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "End", Args: []any{run}})
	if m.EndErr != nil {
		return m.EndErr
	}
	m.runs = append(m.runs, run)
	return nil
}

// Close implements [corpus.Sink].
func (m *Sink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Close"})
	m.closed = true
	return nil
}

// Records returns a copy of the stored records.
func (m *Sink) Records() []corpus.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]corpus.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Runs returns the runs passed to successful [Sink.End] calls.
func (m *Sink) Runs() []corpus.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]corpus.Run, len(m.runs))
	copy(out, m.runs)
	return out
}

// Calls returns a copy of all recorded method invocations.
func (m *Sink) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *Sink) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears all recorded state.
func (m *Sink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.records = nil
	m.runs = nil
	m.closed = false
}
