package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/mowa/internal/textnorm/lang"
)

// ErrLanguageNotRegistered is returned by [Registry.Tables] when no factory
// has been registered under the requested language.
var ErrLanguageNotRegistered = errors.New("config: language not registered")

// TablesFactory builds a table set.
type TablesFactory func() (*lang.Tables, error)

// Registry maps language names to table factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]TablesFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]TablesFactory)}
}

// DefaultRegistry returns a registry with the compiled-in table sets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(DefaultLanguage, func() (*lang.Tables, error) {
		return lang.New(lang.PolishDefinition())
	})
	return r
}

// Register registers factory under name. Subsequent calls with the same name
// overwrite the previous registration.
func (r *Registry) Register(name string, factory TablesFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Languages returns the registered language names in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Tables builds the tables selected by cfg: the file at cfg.Path when set,
// otherwise the factory registered under cfg.Language.
func (r *Registry) Tables(cfg TablesConfig) (*lang.Tables, error) {
	if cfg.Path != "" {
		t, err := lang.LoadTables(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("config: tables: %w", err)
		}
		return t, nil
	}

	r.mu.RLock()
	factory, ok := r.factories[cfg.Language]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLanguageNotRegistered, cfg.Language)
	}
	return factory()
}
