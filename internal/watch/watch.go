// Package watch re-runs a handler when configuration files change on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must stay quiet before the handler runs.
const DefaultDebounce = 300 * time.Millisecond

// Handler is called once per settled path. Removed files are reported too;
// the handler decides what a missing file means.
type Handler func(ctx context.Context, path string)

// Stats counts watcher activity.
type Stats struct {
	Events   int
	Handled  int
	Errors   int
	LastPath string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithFilter restricts which paths reach the handler.
func WithFilter(accept func(path string) bool) Option {
	return func(w *Watcher) { w.accept = accept }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// Watcher watches one file or one directory tree.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	target   string
	file     string // set when target is a single file
	handler  Handler
	accept   func(string) bool
	logger   *slog.Logger
	debounce time.Duration
	pending  map[string]time.Time
	stats    Stats
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch: nil handler")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		target:   abs,
		handler:  handler,
		accept:   func(string) bool { return true },
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
	}
	if !info.IsDir() {
		// Editors replace files on save, so watch the parent directory.
		w.file = abs
		w.target = filepath.Dir(abs)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It does not block; events are handled on a single
// goroutine until Stop is called or ctx is cancelled. A directory target is
// watched together with every subdirectory, including ones created later.
// A stopped watcher may be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if w.file != "" {
		err = fsw.Add(w.target)
	} else {
		_, err = w.addTree(fsw, w.target)
	}
	if err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.target, err)
	}

	w.fsw = fsw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	w.logger.Debug("watching", "path", w.target, "dirs", len(fsw.WatchList()))

	go w.run(ctx, fsw, w.stopCh, w.doneCh)
	return nil
}

// Stop ends the event loop, waits for it to exit, and releases the
// underlying watcher. Calling Stop more than once is safe.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	fsw, stopCh, doneCh := w.fsw, w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	if err := fsw.Close(); err != nil {
		w.logger.Error("closing watcher", "error", err)
	}
	w.logger.Debug("stopped", "path", w.target)
}

// addTree watches root and every directory below it. It returns the
// accepted files found on the way.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The root must be readable; a subtree vanishing mid-walk is not fatal.
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		if w.accept(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Stats returns a snapshot of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.record(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) record(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	if w.file != "" && path != w.file {
		return
	}

	if w.file == "" && event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// Files may land in a new directory before it is watched.
			files, err := w.addTree(fsw, path)
			if err != nil {
				w.logger.Error("watch new directory", "path", path, "error", err)
			}
			for _, f := range files {
				w.mark(f)
			}
			return
		}
	}

	if !w.accept(path) {
		return
	}

	w.logger.Debug("event", "op", event.Op.String(), "path", path)
	w.mark(path)
}

func (w *Watcher) mark(path string) {
	w.mu.Lock()
	w.stats.Events++
	w.stats.LastPath = path
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// flush hands settled paths to the handler in sorted order.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()
	var settled []string

	w.mu.Lock()
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.stats.Handled += len(settled)
	w.mu.Unlock()

	sort.Strings(settled)
	for _, path := range settled {
		w.handler(ctx, path)
	}
}
