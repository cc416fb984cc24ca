package event

import "sync/atomic"

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is receiving events.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStateCancelled means the subscription has been permanently cancelled.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription is the handle returned by Subscribe. Removal is by handle
// identity: unsubscribing one handle never affects another registration of
// the same kind.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Kind returns the subscribed event kind.
	Kind() Kind

	// State returns the current subscription state.
	State() SubscriptionState

	// IsActive returns true if the subscription can receive events.
	IsActive() bool

	// Cancel permanently cancels the subscription.
	Cancel()
}

// subscription is the internal implementation of Subscription.
type subscription struct {
	id      string
	kind    Kind
	handler Handler
	state   atomic.Int32
}

func newSubscription(id string, kind Kind, h Handler) *subscription {
	s := &subscription{
		id:      id,
		kind:    kind,
		handler: h,
	}
	s.state.Store(int32(SubscriptionStateActive))
	return s
}

// ID returns the subscription ID.
func (s *subscription) ID() string {
	return s.id
}

// Kind returns the subscribed event kind.
func (s *subscription) Kind() Kind {
	return s.kind
}

// Handler returns the subscription's handler.
func (s *subscription) Handler() Handler {
	return s.handler
}

// State returns the current subscription state.
func (s *subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// IsActive returns true if the subscription is active.
func (s *subscription) IsActive() bool {
	return s.State() == SubscriptionStateActive
}

// Cancel permanently cancels the subscription.
func (s *subscription) Cancel() {
	s.state.Store(int32(SubscriptionStateCancelled))
}
