package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MrWong99/mowa/internal/batch"
	"github.com/MrWong99/mowa/internal/config"
	"github.com/MrWong99/mowa/internal/observe"
	"github.com/MrWong99/mowa/internal/textnorm"
	"github.com/MrWong99/mowa/pkg/corpus"
	"github.com/MrWong99/mowa/pkg/corpus/postgres"
	"github.com/MrWong99/mowa/pkg/corpus/textfile"
)

// NormalizeCmd normalizes line streams. Each input file gets a .norm text
// file and a .normoff offsets file next to it; stdin is written to stdout.
type NormalizeCmd struct {
	Inputs     []string `arg:"" optional:"" help:"Input files. Reads stdin when empty or '-'." type:"path"`
	IDs        bool     `name:"ids" help:"Treat the first token of every line as its ID."`
	Force      bool     `help:"Overwrite existing output files."`
	Workers    int      `help:"Concurrent normalizations (0 = config or one per CPU)."`
	OnMismatch string   `name:"on-mismatch" help:"Policy for lines failing the alignment check: abort or skip."`
	Sink       string   `help:"Override sink.kind: text or postgres."`
	Offsets    string   `help:"Offsets file when reading stdin." type:"path"`
	Debug      bool     `help:"Log the classified groups of every line."`
}

// Run implements the normalize command.
func (c *NormalizeCmd) Run(g *Globals, e *env) error {
	cfg, err := g.load(e)
	if err != nil {
		return err
	}
	c.override(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	metrics := observe.DefaultMetrics()
	norm, err := normalizer(cfg, textnorm.WithSource("batch"), textnorm.WithMetrics(metrics))
	if err != nil {
		return err
	}
	opts := []batch.Option{
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithIDs(cfg.Batch.IDs),
		batch.WithMismatchPolicy(cfg.Batch.OnMismatch),
		batch.WithDebug(c.Debug),
		batch.WithMetrics(metrics),
	}

	var store *postgres.Store
	if cfg.Sink.Kind == config.SinkPostgres {
		store, err = postgres.NewStore(e.ctx, cfg.Sink.PostgresDSN)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	inputs := c.Inputs
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	for _, input := range inputs {
		if err := c.runOne(e, cfg, input, store, norm, opts); err != nil {
			return err
		}
	}
	return nil
}

func (c *NormalizeCmd) override(cfg *config.Config) {
	if c.IDs {
		cfg.Batch.IDs = true
	}
	if c.Workers > 0 {
		cfg.Batch.Workers = c.Workers
	}
	if c.OnMismatch != "" {
		cfg.Batch.OnMismatch = config.MismatchPolicy(c.OnMismatch)
	}
	if c.Sink != "" {
		cfg.Sink.Kind = config.SinkKind(c.Sink)
	}
}

func (c *NormalizeCmd) runOne(e *env, cfg *config.Config, input string, store *postgres.Store, norm *textnorm.Normalizer, opts []batch.Option) error {
	src, closeSrc, err := openInput(input, e.stdin)
	if err != nil {
		return err
	}
	defer closeSrc()

	var sink corpus.Sink
	if store != nil {
		sink = store
	} else {
		sink, err = c.textSink(e, cfg, input)
		if errors.Is(err, os.ErrExist) {
			slog.Info("skipping input, output exists", "input", input)
			return nil
		}
		if err != nil {
			return err
		}
		defer sink.Close()
	}

	run, err := batch.New(norm, sink, opts...).Run(e.ctx, input, src)
	if err != nil {
		return err
	}
	if store != nil {
		slog.Info("run stored", "input", input, "run_id", run.ID, "lines", run.Lines)
	}
	return nil
}

func (c *NormalizeCmd) textSink(e *env, cfg *config.Config, input string) (corpus.Sink, error) {
	ids := textfile.WithIDs(cfg.Batch.IDs)
	if input != "-" {
		return textfile.Create(input, c.Force, ids)
	}
	if c.Offsets == "" {
		return textfile.New(e.stdout, nil, ids), nil
	}
	f, err := os.Create(c.Offsets)
	if err != nil {
		return nil, fmt.Errorf("offsets: %w", err)
	}
	return &ownedSink{Sink: textfile.New(e.stdout, f, ids), closer: f}, nil
}

// ownedSink closes an extra resource after the wrapped sink.
type ownedSink struct {
	*textfile.Sink
	closer io.Closer
}

func (s *ownedSink) Close() error {
	return errors.Join(s.Sink.Close(), s.closer.Close())
}

// openInput opens path, or returns stdin for "-".
func openInput(path string, stdin io.Reader) (io.Reader, func() error, error) {
	if path == "-" {
		return stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

var _ corpus.Sink = (*ownedSink)(nil)

// forEachLine calls fn for every line of every input, reading stdin for "-".
func forEachLine(ctx context.Context, inputs []string, stdin io.Reader, fn func(line string)) error {
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	for _, input := range inputs {
		src, closeSrc, err := openInput(input, stdin)
		if err != nil {
			return err
		}
		err = scanLines(ctx, src, fn)
		closeSrc()
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
	}
	return nil
}
