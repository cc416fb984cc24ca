package reconcile

import (
	"errors"
	"fmt"

	"github.com/dshills/topicview/internal/event"
)

// ErrDuplicateKind is returned by NewTable when a kind is listed twice.
var ErrDuplicateKind = errors.New("duplicate event kind")

// Registration pairs an event kind with its handler.
type Registration struct {
	Kind    event.Kind
	Handler event.Handler
}

// Table is an immutable, ordered list of registrations with unique kinds.
type Table struct {
	regs []Registration
}

// NewTable validates regs and returns a table holding a copy.
func NewTable(regs ...Registration) (*Table, error) {
	seen := make(map[event.Kind]struct{}, len(regs))
	for _, r := range regs {
		if r.Kind == "" {
			return nil, event.ErrInvalidKind
		}
		if r.Handler == nil {
			return nil, fmt.Errorf("%s: %w", r.Kind, event.ErrNilHandler)
		}
		if _, dup := seen[r.Kind]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, r.Kind)
		}
		seen[r.Kind] = struct{}{}
	}
	return &Table{regs: append([]Registration(nil), regs...)}, nil
}

// Len returns the number of registrations.
func (t *Table) Len() int {
	return len(t.regs)
}

// Kinds returns the kinds in table order.
func (t *Table) Kinds() []event.Kind {
	kinds := make([]event.Kind, len(t.regs))
	for i, r := range t.regs {
		kinds[i] = r.Kind
	}
	return kinds
}

// Registrations returns a copy of the registrations in table order.
func (t *Table) Registrations() []Registration {
	return append([]Registration(nil), t.regs...)
}
