package event

import "context"

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes an event. A returned error drops this event only.
	Handle(ctx context.Context, evt Event) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, evt Event) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// ErrorHandler is called when a handler returns an error.
type ErrorHandler func(evt Event, err error)

// PanicHandler is called when a handler panics.
type PanicHandler func(evt Event, recovered any, stack []byte)

// Stats contains event bus statistics.
type Stats struct {
	// EventsReceived is the number of events handed to Deliver.
	EventsReceived uint64

	// EventsUnhandled is the number of events with no active subscription.
	EventsUnhandled uint64

	// HandlersExecuted is the total number of handler executions.
	HandlersExecuted uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// Emitted is the number of events sent back onto the channel.
	Emitted uint64

	// ActiveSubscribers is the current number of active subscriptions.
	ActiveSubscribers int
}
