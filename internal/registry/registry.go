// Package registry binds validated parameter records to computers.
//
// The host registers one Factory per plugin name. Configure looks up the
// factory named by a record's Plugin, constructs the computer and files it
// under the record's label. The registry never inspects parameter values;
// the factory is the only consumer of the record.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/btagcfg/internal/params"
)

var (
	// ErrUnknownPlugin is returned when no factory is registered for a plugin.
	ErrUnknownPlugin = errors.New("unknown plugin")
	// ErrDuplicatePlugin is returned when a plugin name is registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")
	// ErrDuplicateLabel is returned when a label is configured twice.
	ErrDuplicateLabel = errors.New("label already configured")
)

// Factory constructs a computer of type C from a validated record.
type Factory[C any] func(ctx context.Context, rec *params.Record) (C, error)

// Registry maps plugin names to factories and labels to configured
// computers. It is safe for concurrent use.
type Registry[C any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[C]
	bound     map[string]binding[C]
	logger    *slog.Logger
}

type binding[C any] struct {
	record   *params.Record
	computer C
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for configuration events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an empty registry.
func New[C any](opts ...Option) *Registry[C] {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[C]{
		factories: make(map[string]Factory[C]),
		bound:     make(map[string]binding[C]),
		logger:    o.logger,
	}
}

// Register adds the factory for plugin.
func (r *Registry[C]) Register(plugin string, f Factory[C]) error {
	if plugin == "" {
		return fmt.Errorf("register: empty plugin name")
	}
	if f == nil {
		return fmt.Errorf("register %q: nil factory", plugin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[plugin]; exists {
		return fmt.Errorf("register %q: %w", plugin, ErrDuplicatePlugin)
	}
	r.factories[plugin] = f
	r.logger.Debug("plugin registered", "plugin", plugin)
	return nil
}

// Configure constructs the computer for rec and binds it to rec.Name().
// A failed factory leaves the registry unchanged.
func (r *Registry[C]) Configure(ctx context.Context, rec *params.Record) (C, error) {
	var zero C
	if rec == nil {
		return zero, fmt.Errorf("configure: nil record")
	}

	r.mu.RLock()
	factory, ok := r.factories[rec.Plugin()]
	_, taken := r.bound[rec.Name()]
	r.mu.RUnlock()

	if !ok {
		return zero, fmt.Errorf("configure %q: %w: %s", rec.Name(), ErrUnknownPlugin, rec.Plugin())
	}
	if taken {
		return zero, fmt.Errorf("configure %q: %w", rec.Name(), ErrDuplicateLabel)
	}

	// The factory runs unlocked; it may be slow and must not deadlock if it
	// reads the registry.
	computer, err := factory(ctx, rec)
	if err != nil {
		return zero, fmt.Errorf("configure %q: plugin %s: %w", rec.Name(), rec.Plugin(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.bound[rec.Name()]; taken {
		return zero, fmt.Errorf("configure %q: %w", rec.Name(), ErrDuplicateLabel)
	}
	r.bound[rec.Name()] = binding[C]{record: rec, computer: computer}

	r.logger.Debug("computer configured",
		"label", rec.Name(),
		"plugin", rec.Plugin(),
		"pset_id", rec.ID(),
	)
	return computer, nil
}

// Lookup returns the computer bound to label.
func (r *Registry[C]) Lookup(label string) (C, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bound[label]
	return b.computer, ok
}

// Record returns the record a label was configured with.
func (r *Registry[C]) Record(label string) (*params.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bound[label]
	return b.record, ok
}

// Labels returns the configured labels, sorted.
func (r *Registry[C]) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := make([]string, 0, len(r.bound))
	for label := range r.bound {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Plugins returns the registered plugin names, sorted.
func (r *Registry[C]) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
