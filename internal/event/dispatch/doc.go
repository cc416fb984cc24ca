// Package dispatch provides handler execution for the event bus.
//
// The package implements the client's scheduling model: a single logical
// thread on which event handlers and the continuations of their transitions
// run one at a time. Nothing else mutates the rendered view, so no locks are
// needed around it.
//
// # Schedulers
//
//   - Loop: a goroutine draining an unbounded FIFO of tasks. Tasks may be
//     posted from any goroutine, including timers and network callbacks, and
//     from tasks running on the loop itself.
//
//   - Manual: a FIFO drained explicitly by the caller. Used to step through
//     event handling and transitions deterministically.
//
// # Panic Recovery
//
// The Executor recovers from panics in handlers, so one misbehaving handler
// cannot stop the loop or affect other events. Panics are reported in the
// Result and via a configurable PanicHandler callback.
//
// # Usage
//
//	loop := dispatch.NewLoop(dispatch.WithLoopPanicHandler(func(v any, stack []byte) {
//	    logger.Error("task panic: %v", v)
//	}))
//	loop.Start()
//	defer loop.Stop(ctx)
//
//	loop.Post(func() {
//	    result := dispatch.NewExecutor().Execute(ctx, evt, handler)
//	    ...
//	})
package dispatch
