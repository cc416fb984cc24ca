package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrInvalidEvent is returned when an event is malformed.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidKind is returned when an event kind is empty.
	ErrInvalidKind = errors.New("invalid event kind")

	// ErrInvalidSubscription is returned when a subscription is invalid.
	ErrInvalidSubscription = errors.New("invalid subscription")

	// ErrSubscriptionNotFound is returned when trying to unsubscribe a non-existent subscription.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrHandlerPanic is matched by PanicError.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrMalformedPayload is matched by PayloadError.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrNoSender is returned by Emit when the bus has no outbound channel.
	ErrNoSender = errors.New("no outbound sender configured")
)

// HandlerError wraps an error from a handler with additional context.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID string

	// Kind is the event kind the handler was subscribed to.
	Kind Kind

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return "handler error for subscription " + e.SubscriptionID + " on " + string(e.Kind) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic value as an error.
type PanicError struct {
	// SubscriptionID is the ID of the subscription whose handler panicked.
	SubscriptionID string

	// Kind is the event kind the handler was subscribed to.
	Kind Kind

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for subscription %s on %s: %v", e.SubscriptionID, e.Kind, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

// PayloadError reports a required payload field that is missing or has the
// wrong type.
type PayloadError struct {
	Kind   string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: %s: %s", e.Kind, e.Field, e.Reason)
}

// Is allows errors.Is to match PayloadError with ErrMalformedPayload.
func (e *PayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}
