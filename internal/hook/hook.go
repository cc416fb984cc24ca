// Package hook fires named client actions, such as "action:posts.edited",
// to Go listeners and to sandboxed Lua scripts.
//
// Listeners run synchronously in the caller's goroutine, Go listeners
// first in registration order, then scripts in load order. A failing or
// panicking listener is logged and does not stop the others.
package hook

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/logging"
)

// Action names fired by the reconciliation code.
const (
	ActionPostsEdited = "action:posts.edited"
	ActionPostPurged  = "action:posts.purged"
	ActionTopicMoved  = "action:topic.moved"
)

// ErrEmptyName is returned when registering a listener without a name.
var ErrEmptyName = errors.New("empty hook name")

// Listener handles a fired action.
type Listener func(ctx context.Context, data event.Payload) error

type entry struct {
	id int
	fn Listener
}

// Hooks is the action registry.
type Hooks struct {
	mu        sync.RWMutex
	listeners map[string][]entry
	scripts   []*Script
	nextID    int
	logger    *logging.Logger
}

// New creates an empty registry.
func New(logger *logging.Logger) *Hooks {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Hooks{
		listeners: make(map[string][]entry),
		logger:    logger,
	}
}

// On registers fn for name and returns a function that removes it.
func (h *Hooks) On(name string, fn Listener) (func(), error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if fn == nil {
		return nil, fmt.Errorf("hook %s: nil listener", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.listeners[name] = append(h.listeners[name], entry{id: id, fn: fn})

	return func() { h.off(name, id) }, nil
}

func (h *Hooks) off(name string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.listeners[name]
	for i, e := range list {
		if e.id == id {
			h.listeners[name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(h.listeners[name]) == 0 {
		delete(h.listeners, name)
	}
}

// SetScripts replaces the loaded scripts and closes the previous ones.
func (h *Hooks) SetScripts(scripts []*Script) {
	h.mu.Lock()
	old := h.scripts
	h.scripts = scripts
	h.mu.Unlock()

	for _, s := range old {
		s.Close()
	}
}

// Count returns the number of Go listeners and scripts handling name.
func (h *Hooks) Count(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.listeners[name])
	for _, s := range h.scripts {
		if s.Handles(name) {
			n++
		}
	}
	return n
}

// Fire calls every listener for name. It returns the number of listener
// failures.
func (h *Hooks) Fire(ctx context.Context, name string, data event.Payload) int {
	h.mu.RLock()
	list := append([]entry(nil), h.listeners[name]...)
	scripts := append([]*Script(nil), h.scripts...)
	h.mu.RUnlock()

	log := h.logger.WithField("hook", name)
	failures := 0
	for _, e := range list {
		if err := callListener(ctx, e.fn, data); err != nil {
			failures++
			log.Warn("listener failed: %v", err)
		}
	}
	for _, s := range scripts {
		if !s.Handles(name) {
			continue
		}
		if err := s.Fire(ctx, name, data.Value()); err != nil {
			failures++
			log.WithField("script", s.Name()).Warn("script failed: %v", err)
		}
	}
	return failures
}

func callListener(ctx context.Context, fn Listener, data event.Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, data)
}
