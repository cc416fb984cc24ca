package app

import (
	"errors"
	"fmt"

	"github.com/dshills/topicview/internal/nav"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoPage indicates no rendered page was supplied.
	ErrNoPage = errors.New("no page to reconcile")

	// ErrNavigatedAway is matched by NavigationError.
	ErrNavigatedAway = errors.New("navigated away from topic")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// NavigationError ends Run when a handler navigates to another page.
type NavigationError struct {
	To     nav.Location
	Reason string
}

func (e *NavigationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("navigated to %s (%s)", e.To.URL(), e.Reason)
	}
	return "navigated to " + e.To.URL()
}

// Is matches ErrNavigatedAway.
func (e *NavigationError) Is(target error) bool {
	return target == ErrNavigatedAway
}
