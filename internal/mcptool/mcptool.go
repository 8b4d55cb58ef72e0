// Package mcptool exposes the normalizer as MCP tools, so agents can turn
// written text into its spoken form with the same alignment the batch and
// HTTP paths produce.
//
// Tools:
//   - "normalize_text"      spoken form, words, spans and surfaces of a line.
//   - "spell_number"        spoken form of a digit string.
//   - "find_abbreviations"  unknown abbreviation candidates over a set of lines.
//
// All handlers are safe for concurrent use.
package mcptool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/mowa/internal/observe"
	"github.com/MrWong99/mowa/internal/textnorm"
	"github.com/MrWong99/mowa/internal/textnorm/abbrev"
	"github.com/MrWong99/mowa/internal/textnorm/annotate"
)

// Tool names.
const (
	ToolNormalizeText     = "normalize_text"
	ToolSpellNumber       = "spell_number"
	ToolFindAbbreviations = "find_abbreviations"
)

// NormalizeInput is the input of "normalize_text".
type NormalizeInput struct {
	Text   string            `json:"text,omitempty" jsonschema:"the line of written text to normalize"`
	Tokens []annotate.Record `json:"tokens,omitempty" jsonschema:"optional annotator tokens; when present text is ignored"`
}

// NormalizeOutput is the output of "normalize_text".
type NormalizeOutput struct {
	Text     string          `json:"text"`
	Words    []string        `json:"words"`
	Spans    []textnorm.Span `json:"spans"`
	Surfaces []string        `json:"surfaces"`
}

// SpellInput is the input of "spell_number".
type SpellInput struct {
	Number string `json:"number" jsonschema:"digits to spell; other characters are ignored"`
}

// SpellOutput is the output of "spell_number".
type SpellOutput struct {
	Text  string   `json:"text"`
	Words []string `json:"words"`
}

// AbbreviationsInput is the input of "find_abbreviations".
type AbbreviationsInput struct {
	Lines []string `json:"lines" jsonschema:"transcript lines to scan"`
}

// AbbreviationsOutput is the output of "find_abbreviations".
type AbbreviationsOutput struct {
	Candidates []abbrev.Candidate `json:"candidates"`
}

// Option configures the tool server.
type Option func(*config)

type config struct {
	metrics *observe.Metrics
	version string
}

// WithMetrics records tool calls in m. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithVersion sets the implementation version announced to clients.
func WithVersion(v string) Option {
	return func(c *config) {
		if v != "" {
			c.version = v
		}
	}
}

// NewServer returns an MCP server with all tools registered on n.
func NewServer(n *textnorm.Normalizer, opts ...Option) *mcpsdk.Server {
	cfg := config{version: "dev"}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.metrics == nil {
		cfg.metrics = observe.DefaultMetrics()
	}

	srv := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "mowa", Version: cfg.version}, nil)
	h := &handlers{norm: n}

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        ToolNormalizeText,
		Description: "Rewrite one line of Polish text into its spoken form. Every output word carries the character span of the input it came from.",
	}, instrument(cfg.metrics, ToolNormalizeText, h.normalize))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        ToolSpellNumber,
		Description: "Spell a number in Polish words, e.g. 2000 -> dwa tysiące.",
	}, instrument(cfg.metrics, ToolSpellNumber, h.spell))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        ToolFindAbbreviations,
		Description: "List words that look like abbreviations missing from the abbreviation table, most frequent first, with the closest known abbreviation.",
	}, instrument(cfg.metrics, ToolFindAbbreviations, h.abbreviations))

	return srv
}

// ServeStdio runs srv over stdin/stdout until ctx is done or the client
// disconnects.
func ServeStdio(ctx context.Context, srv *mcpsdk.Server) error {
	return srv.Run(ctx, &mcpsdk.StdioTransport{})
}

type handlers struct {
	norm *textnorm.Normalizer
}

func (h *handlers) normalize(ctx context.Context, in NormalizeInput) (NormalizeOutput, error) {
	var (
		res *textnorm.Result
		err error
	)
	switch {
	case len(in.Tokens) > 0:
		res, err = h.norm.NormalizeAnnotatedContext(ctx, annotate.Link(in.Tokens))
	case in.Text != "":
		res, err = h.norm.NormalizeContext(ctx, in.Text)
	default:
		return NormalizeOutput{}, errors.New("mcptool: one of text or tokens is required")
	}
	if err != nil {
		return NormalizeOutput{}, err
	}
	return NormalizeOutput{Text: res.Text, Words: res.Words, Spans: res.Spans, Surfaces: res.Surfaces}, nil
}

func (h *handlers) spell(_ context.Context, in SpellInput) (SpellOutput, error) {
	words, ok := h.norm.Verbalizer().Numbers().SpellDigits(in.Number)
	if !ok {
		return SpellOutput{}, fmt.Errorf("mcptool: no digits in %q", in.Number)
	}
	return SpellOutput{Text: strings.Join(words, " "), Words: words}, nil
}

func (h *handlers) abbreviations(ctx context.Context, in AbbreviationsInput) (AbbreviationsOutput, error) {
	f := abbrev.New(h.norm.Tables())
	for _, line := range in.Lines {
		if err := ctx.Err(); err != nil {
			return AbbreviationsOutput{}, err
		}
		f.Add(h.norm.Classify(line))
	}
	out := AbbreviationsOutput{Candidates: f.Candidates()}
	if out.Candidates == nil {
		out.Candidates = []abbrev.Candidate{}
	}
	return out, nil
}

// instrument adapts a typed handler to the SDK signature, wrapping it in a
// span and recording [observe.Metrics.RecordToolCall].
func instrument[In, Out any](m *observe.Metrics, name string, fn func(context.Context, In) (Out, error)) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, Out, error) {
		ctx, span := observe.StartSpan(ctx, "mcp.tool "+name,
			trace.WithAttributes(attribute.String("tool", name)))
		defer span.End()

		start := time.Now()
		out, err := fn(ctx, in)
		status := "ok"
		if err != nil {
			status = "error"
			observe.Fail(span, err)
			observe.Logger(ctx).Warn("tool call failed", "tool", name, "err", err)
		}
		m.RecordToolCall(ctx, name, status, time.Since(start))
		return nil, out, err
	}
}
