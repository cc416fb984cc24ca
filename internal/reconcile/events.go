package reconcile

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/logging"
)

// Events binds a Table to an event.Client.
type Events struct {
	client event.Client
	table  *Table
	logger *logging.Logger

	mu   sync.Mutex
	subs []event.Subscription
}

// NewEvents creates an unbound lifecycle for table on client.
func NewEvents(client event.Client, table *Table, logger *logging.Logger) *Events {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Events{client: client, table: table, logger: logger}
}

// Init removes any registrations this Events holds, then subscribes every
// table entry. On failure nothing stays registered.
func (e *Events) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.removeLocked(); err != nil {
		return err
	}
	for _, r := range e.table.regs {
		sub, err := e.client.Subscribe(r.Kind, r.Handler)
		if err != nil {
			rollbackErr := e.removeLocked()
			return errors.Join(fmt.Errorf("subscribe %s: %w", r.Kind, err), rollbackErr)
		}
		e.subs = append(e.subs, sub)
	}
	e.logger.Debug("registered %d event handlers", len(e.subs))
	return nil
}

// RemoveListeners unsubscribes every registration made by Init.
func (e *Events) RemoveListeners() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeLocked()
}

func (e *Events) removeLocked() error {
	var errs []error
	for _, sub := range e.subs {
		if err := e.client.Unsubscribe(sub); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribe %s: %w", sub.Kind(), err))
		}
	}
	if n := len(e.subs); n > 0 {
		e.logger.Debug("removed %d event handlers", n)
	}
	e.subs = nil
	return errors.Join(errs...)
}

// Active returns the number of registrations currently held.
func (e *Events) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
