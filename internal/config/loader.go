package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Default values applied by [ApplyDefaults].
const (
	DefaultListenAddr  = ":8080"
	DefaultLanguage    = "pl"
	DefaultServiceName = "mowa"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills in defaults and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Tables.Language == "" {
		cfg.Tables.Language = DefaultLanguage
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = runtime.NumCPU()
	}
	if cfg.Batch.OnMismatch == "" {
		cfg.Batch.OnMismatch = MismatchAbort
	}
	if cfg.Sink.Kind == "" {
		cfg.Sink.Kind = SinkText
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Tables
	if cfg.Tables.Path != "" {
		if _, err := os.Stat(cfg.Tables.Path); err != nil {
			errs = append(errs, fmt.Errorf("tables.path: %w", err))
		}
		if cfg.Tables.Language != "" && cfg.Tables.Language != DefaultLanguage {
			slog.Warn("tables.path is set; tables.language is ignored", "language", cfg.Tables.Language, "path", cfg.Tables.Path)
		}
	}

	// Batch
	if cfg.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers %d must not be negative", cfg.Batch.Workers))
	}
	if cfg.Batch.OnMismatch != "" && !cfg.Batch.OnMismatch.IsValid() {
		errs = append(errs, fmt.Errorf("batch.on_mismatch %q is invalid; valid values: abort, skip", cfg.Batch.OnMismatch))
	}
	if cfg.Batch.OnMismatch == MismatchSkip {
		slog.Warn("batch.on_mismatch is skip; lines failing the alignment check will be missing from the output")
	}

	// Sink
	if cfg.Sink.Kind != "" && !cfg.Sink.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("sink.kind %q is invalid; valid values: text, postgres", cfg.Sink.Kind))
	}
	if cfg.Sink.Kind == SinkPostgres && cfg.Sink.PostgresDSN == "" {
		errs = append(errs, errors.New("sink.postgres_dsn is required when sink.kind is postgres"))
	}
	if cfg.Sink.Kind != SinkPostgres && cfg.Sink.PostgresDSN != "" {
		slog.Warn("sink.postgres_dsn is set but sink.kind is not postgres; it will not be used")
	}

	return errors.Join(errs...)
}
