// Package nav is the navigation collaborator: it records where the client
// is, replaces history entries, and hands full navigations to a listener
// that swaps the displayed resource.
package nav

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dshills/topicview/internal/logging"
)

// ErrEmptyPath is returned by Go for an empty path.
var ErrEmptyPath = errors.New("empty navigation path")

// Options qualify a navigation request.
type Options struct {
	// Reason names the event that caused the navigation, for logs.
	Reason string
}

// Navigator swaps the displayed resource.
type Navigator interface {
	// Go navigates to path, relative to the forum root. With
	// replaceHistory the current entry is replaced instead of pushed.
	Go(ctx context.Context, path string, opts Options, replaceHistory bool) error
}

// History rewrites the current entry without navigating.
type History interface {
	Location() Location
	ReplaceState(path string)
}

// Location is the address of the displayed page.
type Location struct {
	Scheme       string
	Host         string
	RelativePath string
	// Path is relative to RelativePath, without a leading slash.
	Path string
	// Search includes the leading "?" when present.
	Search string
}

// URL returns the absolute URL of the location.
func (l Location) URL() string {
	return l.Scheme + "://" + l.Host + l.RelativePath + "/" + l.Path + l.Search
}

// Request is a navigation handed to listeners.
type Request struct {
	From    Location
	To      Location
	Options Options
	Replace bool
}

// Listener is called for each navigation, in registration order.
type Listener func(ctx context.Context, req Request)

// Router implements Navigator and History.
type Router struct {
	mu        sync.RWMutex
	entries   []Location
	listeners []Listener
	logger    *logging.Logger
}

// NewRouter starts at loc.
func NewRouter(loc Location, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Nop()
	}
	loc.Path = normalize(loc.Path)
	return &Router{
		entries: []Location{loc},
		logger:  logger,
	}
}

// OnNavigate registers a listener.
func (r *Router) OnNavigate(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Location returns the current location.
func (r *Router) Location() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[len(r.entries)-1]
}

// History returns a copy of the entries, oldest first.
func (r *Router) History() []Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Location, len(r.entries))
	copy(out, r.entries)
	return out
}

// Go records the navigation and notifies listeners.
func (r *Router) Go(ctx context.Context, path string, opts Options, replaceHistory bool) error {
	path = normalize(path)
	if path == "" {
		return ErrEmptyPath
	}

	r.mu.Lock()
	from := r.entries[len(r.entries)-1]
	to := Location{
		Scheme:       from.Scheme,
		Host:         from.Host,
		RelativePath: from.RelativePath,
		Path:         path,
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		to.Path, to.Search = path[:i], path[i:]
	}
	if replaceHistory {
		r.entries[len(r.entries)-1] = to
	} else {
		r.entries = append(r.entries, to)
	}
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	r.logger.WithFields(map[string]any{"reason": opts.Reason, "replace": replaceHistory}).
		Info("navigate %s -> %s", from.Path, to.Path)

	req := Request{From: from, To: to, Options: opts, Replace: replaceHistory}
	for _, l := range listeners {
		l(ctx, req)
	}
	return nil
}

// ReplaceState rewrites the current entry's path, keeping its search
// string when path has none. Listeners are not notified.
func (r *Router) ReplaceState(path string) {
	path = normalize(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	cur := &r.entries[len(r.entries)-1]
	if i := strings.IndexByte(path, '?'); i >= 0 {
		cur.Path, cur.Search = path[:i], path[i:]
		return
	}
	cur.Path = path
}

func normalize(path string) string {
	return strings.TrimLeft(strings.TrimSpace(path), "/")
}
