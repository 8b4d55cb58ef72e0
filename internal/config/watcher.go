package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultWatchInterval is how often a [Watcher] polls without [WithInterval].
const DefaultWatchInterval = 5 * time.Second

// fingerprint identifies the content of the config file together with the
// table file it names. newest is the latest mtime among them and lets most
// polls skip reading.
type fingerprint struct {
	newest time.Time
	sum    [sha256.Size]byte
}

// Watcher polls a config file, and the table file its tables.path names, and
// reports content changes to a callback. A change that fails to load or
// validate is logged and ignored; [Watcher.Current] keeps the last good
// config.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)

	mu      sync.Mutex
	current *Config
	seen    fingerprint

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. Non-positive values are ignored.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads path and starts polling it. onChange may be nil; it runs
// on the polling goroutine after [Watcher.Current] already returns new.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: DefaultWatchInterval,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, fp, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.current, w.seen = cfg, fp

	go w.loop()
	return w, nil
}

// Current returns the last config that loaded and validated.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop ends polling. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) loop() {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-t.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	w.mu.Lock()
	prev, tables := w.seen, w.current.Tables.Path
	w.mu.Unlock()

	newest, err := newestMtime(w.path, tables)
	if err != nil {
		slog.Warn("config watcher: stat failed", "path", w.path, "err", err)
		return
	}
	if newest.Equal(prev.newest) {
		return
	}

	cfg, fp, err := w.read()
	if err != nil {
		slog.Warn("config watcher: reload rejected", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	w.seen = fp
	if fp.sum == prev.sum {
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current = cfg
	w.mu.Unlock()

	slog.Info("config watcher: configuration reloaded", "path", w.path, "tables", cfg.Tables.Path)
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}

// read loads and validates the config and fingerprints it with its tables.
func (w *Watcher) read() (*Config, fingerprint, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fingerprint{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fingerprint{}, err
	}

	h := sha256.New()
	h.Write(data)
	if p := cfg.Tables.Path; p != "" {
		tables, err := os.ReadFile(p)
		if err != nil {
			return nil, fingerprint{}, fmt.Errorf("read tables: %w", err)
		}
		h.Write([]byte{0})
		h.Write(tables)
	}

	newest, err := newestMtime(w.path, cfg.Tables.Path)
	if err != nil {
		return nil, fingerprint{}, err
	}
	fp := fingerprint{newest: newest}
	h.Sum(fp.sum[:0])
	return cfg, fp, nil
}

// newestMtime is the latest modification time of path and, when set and
// present, tables.
func newestMtime(path, tables string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	newest := info.ModTime()
	if tables != "" {
		if ti, err := os.Stat(tables); err == nil && ti.ModTime().After(newest) {
			newest = ti.ModTime()
		}
	}
	return newest, nil
}
