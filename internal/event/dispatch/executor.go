package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Executor runs handlers with panic recovery and timing.
type Executor struct {
	panicHandler PanicHandler
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorPanicHandler sets the panic handler for the executor.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a handler with the given event and returns the result.
// A cancelled context skips the handler.
func (e *Executor) Execute(ctx context.Context, event any, handler Handler) (result Result) {
	select {
	case <-ctx.Done():
		return Result{Error: ctx.Err(), Skipped: true}
	default:
	}

	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()
			result.Success = false
			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = stack
			e.reportPanic(r, stack)
		}
	}()

	if err := handler.Handle(ctx, event); err != nil {
		result.Error = err
		return result
	}
	result.Success = true
	return result
}

func (e *Executor) reportPanic(v any, stack []byte) {
	if e.panicHandler == nil {
		return
	}
	defer func() {
		// A panicking panic handler must not escape the executor.
		_ = recover()
	}()
	e.panicHandler(v, stack)
}
