// Command mowa rewrites written Polish transcripts into their spoken form
// and keeps, for every spoken word, the character span it came from.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/MrWong99/mowa/internal/config"
	"github.com/MrWong99/mowa/internal/textnorm"
	"github.com/MrWong99/mowa/internal/textnorm/lang"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `short:"c" help:"Path to the YAML configuration file. Defaults apply when empty." type:"path"`
	LogLevel string `name:"log-level" help:"Override server.log_level (debug, info, warn, error)."`
}

// env carries the process context and streams into command Run methods.
type env struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	level  *slog.LevelVar
}

// CLI defines the command-line interface of mowa.
type CLI struct {
	Globals

	Normalize NormalizeCmd `cmd:"" help:"Normalize transcript lines from files or stdin."`
	Serve     ServeCmd     `cmd:"" help:"Serve the HTTP API."`
	MCP       MCPCmd       `cmd:"" name:"mcp" help:"Serve the MCP tools over stdio."`
	Abbrev    AbbrevCmd    `cmd:"" help:"List unknown abbreviation candidates."`
	Spell     SpellCmd     `cmd:"" help:"Spell numbers in words."`
	Version   VersionCmd   `cmd:"" help:"Print version information."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("mowa"),
		kong.Description("Spoken-form text normalization with source alignment."),
		kong.UsageOnError(),
		kong.Writers(stdout, os.Stderr),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if err != nil {
		slog.Error("cli setup failed", "err", err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%v", err)
		return 2
	}

	e := &env{ctx: ctx, stdin: stdin, stdout: stdout, level: new(slog.LevelVar)}
	slog.SetDefault(newLogger(e.level))

	if err := kctx.Run(&cli.Globals, e); err != nil {
		slog.Error("mowa failed", "command", kctx.Command(), "err", err)
		return 1
	}
	return 0
}

// newLogger returns a text logger on stderr whose level follows level.
func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// load reads the configuration, applies flag overrides and sets the log
// level.
func (g *Globals) load(e *env) (*config.Config, error) {
	cfg := config.Default()
	if g.Config != "" {
		var err error
		if cfg, err = config.Load(g.Config); err != nil {
			return nil, err
		}
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = config.LogLevel(g.LogLevel)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	e.level.Set(cfg.Server.LogLevel.Level())
	return cfg, nil
}

// tables resolves the configured lookup tables.
func tables(cfg *config.Config) (*lang.Tables, error) {
	return config.DefaultRegistry().Tables(cfg.Tables)
}

// normalizer builds a normalizer on the configured tables.
func normalizer(cfg *config.Config, opts ...textnorm.Option) (*textnorm.Normalizer, error) {
	t, err := tables(cfg)
	if err != nil {
		return nil, err
	}
	return textnorm.New(append([]textnorm.Option{textnorm.WithTables(t)}, opts...)...), nil
}
