// Package watcher reports changes to configuration files for live reload.
//
// Each watched file's directory is watched with fsnotify, so editors that
// save by renaming a temporary file over the original are seen. Bursts of
// events for one file are collapsed into one.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/topicview/internal/logging"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("watcher closed")

// Event represents a file change.
type Event struct {
	// Path is the absolute path of the changed file.
	Path string

	// Op is the last operation seen in the burst.
	Op Operation

	// Time is when the burst settled.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates the file was created or replaced.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

func operation(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	default:
		return 0, false
	}
}

// Handler is called when a file change is detected.
type Handler func(event Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before its event is
// delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher monitors files for changes.
type Watcher struct {
	mu       sync.RWMutex
	fsw      *fsnotify.Watcher
	files    map[string]struct{}
	dirs     map[string]int
	handlers []Handler
	closed   bool

	debounce time.Duration
	logger   *logging.Logger
}

// New creates a watcher. Call Run to start delivering events.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
		debounce: 100 * time.Millisecond,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("config-watcher")
	return w, nil
}

// Watch adds a file. The file need not exist yet, but its directory must.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, ok := w.files[abs]; ok {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = struct{}{}
	return nil
}

// Unwatch removes a file.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; !ok {
		return nil
	}
	delete(w.files, abs)
	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		return w.fsw.Remove(dir)
	}
	return nil
}

// WatchedFiles returns the watched paths.
func (w *Watcher) WatchedFiles() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

// OnChange registers a handler for file change events.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Run delivers events until ctx ends or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]Operation)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrClosed
			}
			path := filepath.Clean(ev.Name)
			op, known := operation(ev.Op)
			if !known || !w.isWatched(path) {
				continue
			}
			pending[path] = op
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrClosed
			}
			w.logger.Warn("watch error: %v", err)

		case <-timer.C:
			now := time.Now()
			for path, op := range pending {
				w.emit(Event{Path: path, Op: op, Time: now})
			}
			clear(pending)
		}
	}
}

// Close stops the watcher. Run returns ErrClosed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

func (w *Watcher) isWatched(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[path]
	return ok
}

func (w *Watcher) emit(event Event) {
	w.mu.RLock()
	handlers := append([]Handler(nil), w.handlers...)
	w.mu.RUnlock()

	w.logger.Debug("%s %s", event.Op, event.Path)
	for _, h := range handlers {
		w.safeCallHandler(h, event)
	}
}

func (w *Watcher) safeCallHandler(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("change handler panicked: %v\n%s", r, debug.Stack())
		}
	}()
	handler(event)
}
