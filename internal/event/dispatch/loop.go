package dispatch

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Loop is the production Scheduler: one goroutine draining an unbounded FIFO.
//
// The queue is unbounded because tasks posted from the loop itself (the
// continuation of a transition step) must never block or be dropped while
// the loop is running.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	running  bool
	stopping bool
	wake     chan struct{}
	done     chan struct{}

	panicHandler PanicHandler

	posted    atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	panicked  atomic.Uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopPanicHandler sets the handler for tasks that panic.
func WithLoopPanicHandler(h PanicHandler) LoopOption {
	return func(l *Loop) {
		l.panicHandler = h
	}
}

// NewLoop creates a stopped loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start starts the loop goroutine.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrAlreadyRunning
	}
	l.running = true
	l.stopping = false
	l.wake = make(chan struct{}, 1)
	l.done = make(chan struct{})
	go l.run(l.wake, l.done)
	return nil
}

// Stop stops accepting tasks, runs what is already queued and waits for the
// loop to exit or ctx to end.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running || l.stopping {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.stopping = true
	done := l.done
	l.signal()
	l.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues a task. Tasks posted to a stopped or stopping loop are dropped.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running || l.stopping {
		l.dropped.Add(1)
		return
	}
	l.queue = append(l.queue, task)
	l.posted.Add(1)
	l.signal()
}

// signal wakes the loop goroutine. Caller holds mu.
func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run(wake <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.stopping {
			l.mu.Unlock()
			<-wake
			l.mu.Lock()
		}
		if len(l.queue) == 0 {
			l.running = false
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.execute(task)
	}
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			if l.panicHandler != nil {
				func() {
					defer func() { _ = recover() }()
					l.panicHandler(r, debug.Stack())
				}()
			}
		}
	}()
	task()
	l.processed.Add(1)
}

// IsRunning returns true if the loop is accepting tasks.
func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running && !l.stopping
}

// QueueDepth returns the number of tasks waiting to run.
func (l *Loop) QueueDepth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// LoopStats contains statistics for a loop.
type LoopStats struct {
	Posted     uint64
	Processed  uint64
	Dropped    uint64
	Panicked   uint64
	QueueDepth int
}

// Stats returns loop statistics.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Posted:     l.posted.Load(),
		Processed:  l.processed.Load(),
		Dropped:    l.dropped.Load(),
		Panicked:   l.panicked.Load(),
		QueueDepth: l.QueueDepth(),
	}
}
