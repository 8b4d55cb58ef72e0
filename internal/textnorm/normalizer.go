// Package textnorm rewrites written text into its spoken form for speech
// corpora, keeping a link from every spoken word back to the characters of
// the input it was derived from.
//
// A line flows through four stages:
//
//  1. Sanitizing: NFC composition and masking of bracketed non-speech markers
//     and control characters with spaces of equal length. Offsets into the
//     composed line are mapped back to the input, so spans always index the
//     line as given.
//  2. Tokenizing ([token.Tokenize]) into maximal runs of one character class.
//  3. Classifying ([group.Classify]) runs into words, numbers, clock times,
//     abbreviations, Roman numerals, punctuation and symbols.
//  4. Verbalizing ([verbalize.Verbalizer]) each group into spoken words, each
//     word carrying its group's character span.
//
// The externally annotated variant ([Normalizer.NormalizeAnnotated]) replaces
// stages 1–3 with [annotate.Classify] and shares stage 4.
//
// The result always satisfies len(strings.Fields(Text)) == len(Spans) ==
// len(Surfaces). A violation is reported as an [*IntegrityError] and no
// result is returned for that line.
//
// A [Normalizer] is immutable after construction and safe for concurrent use.
package textnorm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/MrWong99/mowa/internal/observe"
	"github.com/MrWong99/mowa/internal/textnorm/annotate"
	"github.com/MrWong99/mowa/internal/textnorm/group"
	"github.com/MrWong99/mowa/internal/textnorm/lang"
	"github.com/MrWong99/mowa/internal/textnorm/token"
	"github.com/MrWong99/mowa/internal/textnorm/verbalize"
)

// Span is a half-open range of character (rune) offsets into the input line.
type Span = group.Span

// ErrAlignmentMismatch is the sentinel wrapped by every [IntegrityError].
var ErrAlignmentMismatch = errors.New("textnorm: word count does not match alignment count")

// IntegrityError reports a line whose spoken words and alignment entries
// disagree in number. Downstream aligners depend on positional correctness,
// so such a line must not be emitted.
type IntegrityError struct {
	Line     string
	Words    int
	Spans    int
	Surfaces int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("textnorm: line %q: %d words, %d spans, %d surfaces", e.Line, e.Words, e.Spans, e.Surfaces)
}

func (e *IntegrityError) Unwrap() error { return ErrAlignmentMismatch }

// Result is the normalized form of one line.
type Result struct {
	// Text is the spoken words joined by single spaces.
	Text string `json:"text"`

	// Words are the spoken words in order.
	Words []string `json:"words"`

	// Spans holds, per word, the character span of the group it came from.
	Spans []Span `json:"spans"`

	// Surfaces holds, per word, the surface text of the group it came from
	// (the padded alignment form).
	Surfaces []string `json:"surfaces"`

	// Groups are the verbalized groups, in input order.
	Groups []group.Group `json:"-"`
}

// Option is a functional option for configuring a [Normalizer].
type Option func(*Normalizer)

// WithTables replaces the compiled-in Polish tables.
func WithTables(t *lang.Tables) Option {
	return func(n *Normalizer) {
		if t != nil {
			n.tables = t
		}
	}
}

// WithMetrics records line metrics in the context-aware methods.
func WithMetrics(m *observe.Metrics) Option {
	return func(n *Normalizer) {
		n.metrics = m
	}
}

// WithSource sets the source attribute ("batch", "http", "mcp") reported with
// line metrics. Default: "library".
func WithSource(source string) Option {
	return func(n *Normalizer) {
		if source != "" {
			n.source = source
		}
	}
}

// WithSanitizing toggles input sanitizing (default: enabled).
func WithSanitizing(enabled bool) Option {
	return func(n *Normalizer) {
		n.sanitize = enabled
	}
}

// Normalizer turns lines of written text into spoken words with alignment.
type Normalizer struct {
	tables     *lang.Tables
	verbalizer *verbalize.Verbalizer
	sanitize   bool
	metrics    *observe.Metrics
	source     string
}

// New constructs a [Normalizer]. Without options it uses [lang.Polish] and
// sanitizes input.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		tables:   lang.Polish(),
		sanitize: true,
		source:   "library",
	}
	for _, o := range opts {
		o(n)
	}
	n.verbalizer = verbalize.New(n.tables)
	return n
}

// Tables returns the lookup tables in use.
func (n *Normalizer) Tables() *lang.Tables { return n.tables }

// Verbalizer returns the verbalizer in use.
func (n *Normalizer) Verbalizer() *verbalize.Verbalizer { return n.verbalizer }

// Classify sanitizes, tokenizes and classifies line without verbalizing it.
// Token and group offsets index the characters of line as given.
func (n *Normalizer) Classify(line string) []group.Group {
	var offs offsets
	if n.sanitize {
		line, offs = sanitize(line)
	}
	toks := token.Tokenize(line)
	if offs != nil {
		for i := range toks {
			toks[i].Start, toks[i].End = offs.at(toks[i].Start), offs.at(toks[i].End)
		}
	}
	return group.Classify(toks, n.tables)
}

// Normalize converts one line.
func (n *Normalizer) Normalize(line string) (*Result, error) {
	return n.finish(line, n.Classify(line))
}

// NormalizeAnnotated converts the token stream of an external annotator,
// starting at first. A nil first yields an empty result.
func (n *Normalizer) NormalizeAnnotated(first annotate.Token) (*Result, error) {
	groups := annotate.Classify(first, n.tables)
	return n.finish(group.Join(groups), groups)
}

// NormalizeContext is [Normalizer.Normalize] inside a trace span, with line
// metrics recorded when the normalizer was built [WithMetrics].
func (n *Normalizer) NormalizeContext(ctx context.Context, line string) (*Result, error) {
	return n.observed(ctx, func() (*Result, error) { return n.Normalize(line) })
}

// NormalizeAnnotatedContext is the context-aware form of
// [Normalizer.NormalizeAnnotated].
func (n *Normalizer) NormalizeAnnotatedContext(ctx context.Context, first annotate.Token) (*Result, error) {
	return n.observed(ctx, func() (*Result, error) { return n.NormalizeAnnotated(first) })
}

func (n *Normalizer) observed(ctx context.Context, run func() (*Result, error)) (*Result, error) {
	ctx, span := observe.StartSpan(ctx, "textnorm.normalize",
		trace.WithAttributes(attribute.String("source", n.source)))
	defer span.End()

	start := time.Now()
	res, err := run()
	elapsed := time.Since(start)

	status, words := observe.StatusOK, 0
	switch {
	case errors.Is(err, ErrAlignmentMismatch):
		status = observe.StatusMismatch
	case err != nil:
		status = observe.StatusError
	default:
		words = len(res.Words)
	}
	if err != nil {
		observe.Fail(span, err)
	} else {
		span.SetAttributes(attribute.Int("words", words))
	}

	if n.metrics != nil {
		n.metrics.RecordLine(ctx, n.source, status, words, elapsed)
		if res != nil {
			for kind, count := range res.KindCounts() {
				n.metrics.RecordGroups(ctx, kind.String(), count)
			}
		}
	}
	return res, err
}

func (n *Normalizer) finish(line string, groups []group.Group) (*Result, error) {
	n.verbalizer.All(groups)

	res := &Result{
		Words:    []string{},
		Spans:    []Span{},
		Surfaces: []string{},
		Groups:   groups,
	}
	for i := range groups {
		g := &groups[i]
		surface := g.Text()
		// Words are expected to be single and non-empty; a verbalization
		// breaking that shows up as a mismatch in Check.
		for _, w := range g.Words() {
			res.Words = append(res.Words, w)
			res.Spans = append(res.Spans, g.Span)
			res.Surfaces = append(res.Surfaces, surface)
		}
	}
	res.Text = strings.Join(res.Words, " ")

	if err := Check(line, res); err != nil {
		return nil, err
	}
	return res, nil
}

// KindCounts returns the number of groups per kind.
func (r *Result) KindCounts() map[group.Kind]int {
	counts := make(map[group.Kind]int)
	for i := range r.Groups {
		counts[r.Groups[i].Kind]++
	}
	return counts
}

// Check verifies the alignment invariant of res.
func Check(line string, res *Result) error {
	words := len(strings.Fields(res.Text))
	if words != len(res.Spans) || words != len(res.Surfaces) || words != len(res.Words) {
		return &IntegrityError{Line: line, Words: words, Spans: len(res.Spans), Surfaces: len(res.Surfaces)}
	}
	return nil
}

// markerRe matches bracketed non-speech markers such as "[śmiech]",
// "[szum w tle]" or "<noise>". Angle markers hold no whitespace, so
// comparisons like "3 < 5 i 7 > 2" stay speech.
var markerRe = regexp.MustCompile(`\[[^\[\]]*\]|<[^<>\s]+>`)

// Sanitize returns line in NFC with non-speech markers and control
// characters replaced by spaces of equal length. Composition may shorten the
// line; [Normalizer.Normalize] maps spans back to the characters of the
// input.
func Sanitize(line string) string {
	s, _ := sanitize(line)
	return s
}

func sanitize(line string) (string, offsets) {
	line, offs := compose(line)
	line = markerRe.ReplaceAllStringFunc(line, func(m string) string {
		return strings.Repeat(" ", utf8.RuneCountInString(m))
	})
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, line), offs
}

// offsets maps each rune boundary of a composed line to the boundary in the
// input it came from. A nil offsets maps every boundary to itself.
type offsets []int

func (o offsets) at(i int) int {
	if o == nil {
		return i
	}
	return o[i]
}

// compose returns the NFC form of line and, when that differs from line, the
// boundary map back to line. Each segment (a starter and its combining marks)
// is composed on its own; when it shrinks, its inner boundaries keep their
// distance from the segment start and its end maps to the segment end.
func compose(line string) (string, offsets) {
	if norm.NFC.IsNormalString(line) {
		return line, nil
	}
	var b strings.Builder
	b.Grow(len(line))
	offs := offsets{0}
	src := 0
	for rest := line; rest != ""; {
		n := norm.NFC.NextBoundaryInString(rest, true)
		if n <= 0 {
			n = len(rest)
		}
		seg := norm.NFC.String(rest[:n])
		in := utf8.RuneCountInString(rest[:n])
		rest = rest[n:]

		b.WriteString(seg)
		for j := 1; j < utf8.RuneCountInString(seg); j++ {
			offs = append(offs, src+min(j, in))
		}
		src += in
		offs = append(offs, src)
	}
	return b.String(), offs
}
