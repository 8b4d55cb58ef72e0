// Package app wires the subsystems of the long-running mowa service.
//
// The App struct owns the full lifecycle: New loads the tables and builds the
// normalizer, HTTP server and probes, Run serves until the context is done,
// and Shutdown tears everything down in order.
//
// When built [WithConfigPath], the App watches the configuration (and the
// tables file it points to) and applies log level and table changes without
// a restart.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrWong99/mowa/internal/config"
	"github.com/MrWong99/mowa/internal/health"
	"github.com/MrWong99/mowa/internal/observe"
	"github.com/MrWong99/mowa/internal/server"
	"github.com/MrWong99/mowa/internal/textnorm"
)

// readHeaderTimeout bounds slow clients.
const readHeaderTimeout = 10 * time.Second

// smokeLine is normalized by the readiness probe.
const smokeLine = "godz. 12:04"

// App owns all subsystem lifetimes of the service.
type App struct {
	cfg        *config.Config
	registry   *config.Registry
	metrics    *observe.Metrics
	level      *slog.LevelVar
	gatherer   prometheus.Gatherer
	configPath string
	interval   time.Duration

	server  *server.Server
	httpSrv *http.Server
	watcher *config.Watcher

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithRegistry sets the table registry. Default: [config.DefaultRegistry].
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithMetrics sets the metric instruments. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLevelVar lets configuration reloads change the log level.
func WithLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.level = v }
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *App) { a.gatherer = g }
}

// WithConfigPath enables hot reload of the file at path, polled every
// interval (zero selects the watcher default).
func WithConfigPath(path string, interval time.Duration) Option {
	return func(a *App) {
		a.configPath = path
		a.interval = interval
	}
}

// New creates an App from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.registry == nil {
		a.registry = config.DefaultRegistry()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Normalizer ────────────────────────────────────────────────────
	norm, err := a.buildNormalizer(cfg)
	if err != nil {
		return nil, fmt.Errorf("app: init normalizer: %w", err)
	}

	// ── 2. HTTP server ───────────────────────────────────────────────────
	srvOpts := []server.Option{
		server.WithMetrics(a.metrics),
		server.WithHealth(health.New(a.checkers())),
	}
	if a.gatherer != nil {
		srvOpts = append(srvOpts, server.WithGatherer(a.gatherer))
	}
	a.server = server.New(norm, srvOpts...)
	a.httpSrv = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// ── 3. Config watcher ────────────────────────────────────────────────
	if a.configPath != "" {
		var wopts []config.WatcherOption
		if a.interval > 0 {
			wopts = append(wopts, config.WithInterval(a.interval))
		}
		w, err := config.NewWatcher(a.configPath, a.onConfigChange, wopts...)
		if err != nil {
			return nil, fmt.Errorf("app: init watcher: %w", err)
		}
		a.watcher = w
		a.closers = append(a.closers, func() error { w.Stop(); return nil })
	}

	return a, nil
}

// Server returns the HTTP API.
func (a *App) Server() *server.Server { return a.server }

// Handler returns the instrumented HTTP handler.
func (a *App) Handler() http.Handler { return a.httpSrv.Handler }

func (a *App) buildNormalizer(cfg *config.Config) (*textnorm.Normalizer, error) {
	tables, err := a.registry.Tables(cfg.Tables)
	if err != nil {
		return nil, err
	}
	return textnorm.New(
		textnorm.WithTables(tables),
		textnorm.WithMetrics(a.metrics),
		textnorm.WithSource("http"),
	), nil
}

func (a *App) checkers() []health.Checker {
	return []health.Checker{
		health.CheckFunc("normalizer", func(context.Context) error {
			_, err := a.server.Normalizer().Normalize(smokeLine)
			return err
		}),
	}
}

// onConfigChange applies what can change at runtime and logs the rest.
func (a *App) onConfigChange(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.level != nil {
		a.level.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}

	// A tables file may change in place, which Diff cannot see.
	if d.TablesChanged || new.Tables.Path != "" {
		norm, err := a.buildNormalizer(new)
		if err != nil {
			slog.Error("keeping previous tables", "err", err)
		} else {
			a.server.SetNormalizer(norm)
			slog.Info("tables reloaded", "language", new.Tables.Language, "path", new.Tables.Path)
		}
	}

	for _, key := range d.RestartRequired {
		slog.Warn("config change requires restart", "key", key)
	}
}

// Run serves HTTP and blocks until ctx is cancelled or the listener fails.
// It returns ctx.Err() on cancellation.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.httpSrv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("app running", "listen_addr", a.cfg.Server.ListenAddr, "tls", a.cfg.Server.TLS != nil)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	}
}

// Shutdown stops the HTTP server gracefully and runs the closers. It
// respects the context deadline: if ctx expires, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.httpSrv.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown error", "err", err)
			shutdownErr = err
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
