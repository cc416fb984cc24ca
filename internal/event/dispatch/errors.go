package dispatch

import "errors"

// Sentinel errors for the dispatch package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running loop.
	ErrAlreadyRunning = errors.New("loop is already running")

	// ErrNotRunning is returned when Stop is called on a stopped loop.
	ErrNotRunning = errors.New("loop is not running")
)
