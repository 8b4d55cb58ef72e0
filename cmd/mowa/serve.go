package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/mowa/internal/app"
	"github.com/MrWong99/mowa/internal/mcptool"
	"github.com/MrWong99/mowa/internal/observe"
	"github.com/MrWong99/mowa/internal/textnorm"
)

// shutdownTimeout bounds graceful shutdown after the serve context ends.
const shutdownTimeout = 15 * time.Second

// ServeCmd serves the HTTP API until interrupted.
type ServeCmd struct {
	Listen       string        `help:"Override server.listen_addr."`
	PollInterval time.Duration `name:"poll-interval" default:"5s" help:"How often the config file is checked for changes."`
}

// Run implements the serve command.
func (c *ServeCmd) Run(g *Globals, e *env) error {
	cfg, err := g.load(e)
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.Server.ListenAddr = c.Listen
	}

	shutdownOTel, err := observe.InitProvider(e.ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(ctx); err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	}()

	opts := []app.Option{app.WithLevelVar(e.level)}
	if g.Config != "" {
		opts = append(opts, app.WithConfigPath(g.Config, c.PollInterval))
	}
	a, err := app.New(e.ctx, cfg, opts...)
	if err != nil {
		return err
	}

	slog.Info("serving", "addr", cfg.Server.ListenAddr, "version", version)
	runErr := a.Run(e.ctx)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		slog.Warn("shutdown incomplete", "err", err)
	}
	return runErr
}

// MCPCmd serves the MCP tools on stdin and stdout.
type MCPCmd struct{}

// Run implements the mcp command.
func (c *MCPCmd) Run(g *Globals, e *env) error {
	cfg, err := g.load(e)
	if err != nil {
		return err
	}
	norm, err := normalizer(cfg, textnorm.WithSource("mcp"), textnorm.WithMetrics(observe.DefaultMetrics()))
	if err != nil {
		return err
	}
	srv := mcptool.NewServer(norm, mcptool.WithVersion(version))
	slog.Debug("mcp server ready", "tables", cfg.Tables.Language)
	return mcptool.ServeStdio(e.ctx, srv)
}
