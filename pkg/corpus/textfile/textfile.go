// Package textfile writes records as two parallel line streams: the spoken
// text and the JSON offsets of each word, e.g.
//
//	text:    godzina dwanaście cztery
//	offsets: [[0, 5], [6, 11], [6, 11]]
//
// With IDs enabled both lines start with the record ID and a tab.
package textfile

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MrWong99/mowa/pkg/corpus"
)

var _ corpus.Sink = (*Sink)(nil)

// Extensions of the files written next to an input by [Create].
const (
	TextExt    = ".norm"
	OffsetsExt = ".normoff"
)

// Option configures a [Sink].
type Option func(*Sink)

// WithIDs prefixes every line with the record ID and a tab.
func WithIDs(enabled bool) Option {
	return func(s *Sink) {
		s.ids = enabled
	}
}

// Sink writes to a text and an offsets stream. The offsets stream may be nil,
// in which case only text is written.
type Sink struct {
	text    *bufio.Writer
	offsets *bufio.Writer
	closers []io.Closer
	ids     bool
	closed  bool
}

// New creates a [Sink] over the given writers. The caller keeps ownership of
// them; [Sink.Close] only flushes.
func New(text, offsets io.Writer, opts ...Option) *Sink {
	s := &Sink{text: bufio.NewWriter(text)}
	if offsets != nil {
		s.offsets = bufio.NewWriter(offsets)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Paths returns the text and offsets file paths for input: the input path
// with its extension replaced by [TextExt] and [OffsetsExt].
func Paths(input string) (text, offsets string) {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + TextExt, base + OffsetsExt
}

// Create opens (truncating) the files [Paths] derives from input. Unless
// force is set, an existing text file is an error wrapping [os.ErrExist].
func Create(input string, force bool, opts ...Option) (*Sink, error) {
	textPath, offPath := Paths(input)
	if !force {
		if _, err := os.Stat(textPath); err == nil {
			return nil, fmt.Errorf("textfile: %s: %w", textPath, os.ErrExist)
		}
	}
	tf, err := os.Create(textPath)
	if err != nil {
		return nil, fmt.Errorf("textfile: %w", err)
	}
	of, err := os.Create(offPath)
	if err != nil {
		tf.Close()
		return nil, fmt.Errorf("textfile: %w", err)
	}
	s := New(tf, of, opts...)
	s.closers = []io.Closer{tf, of}
	return s, nil
}

// Begin implements [corpus.Sink]. It writes nothing.
func (s *Sink) Begin(context.Context, corpus.Run) error { return nil }

// Write implements [corpus.Sink].
func (s *Sink) Write(_ context.Context, rec corpus.Record) error {
	if s.closed {
		return corpus.ErrSinkClosed
	}
	prefix := ""
	if s.ids {
		prefix = rec.ID + "\t"
	}
	if _, err := s.text.WriteString(prefix + rec.Text + "\n"); err != nil {
		return fmt.Errorf("textfile: write text: %w", err)
	}
	if s.offsets == nil {
		return nil
	}
	if _, err := s.offsets.WriteString(prefix + FormatSpans(rec.Spans) + "\n"); err != nil {
		return fmt.Errorf("textfile: write offsets: %w", err)
	}
	return nil
}

// End implements [corpus.Sink]. It flushes both streams.
func (s *Sink) End(context.Context, corpus.Run) error {
	return s.flush()
}

// Close flushes and, for sinks opened by [Create], closes the files.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	errs := []error{s.flush()}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (s *Sink) flush() error {
	var errs []error
	if err := s.text.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("textfile: flush text: %w", err))
	}
	if s.offsets != nil {
		if err := s.offsets.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("textfile: flush offsets: %w", err))
		}
	}
	return errors.Join(errs...)
}

// FormatSpans renders spans as a JSON array of [start, end] pairs with a
// space after each comma.
func FormatSpans(spans []corpus.Span) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, sp := range spans {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(sp.Start))
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(sp.End))
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// ParseSpans reads the format written by [FormatSpans]. Any JSON array of
// two-element integer arrays is accepted.
func ParseSpans(s string) ([]corpus.Span, error) {
	var pairs [][2]int
	if err := json.Unmarshal([]byte(s), &pairs); err != nil {
		return nil, fmt.Errorf("textfile: parse spans: %w", err)
	}
	out := make([]corpus.Span, len(pairs))
	for i, p := range pairs {
		out[i] = corpus.Span{Start: p[0], End: p[1]}
	}
	return out, nil
}
