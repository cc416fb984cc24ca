package dispatch

import "sync"

// Manual is a Scheduler whose queue is drained explicitly by the caller.
// Posting is safe from any goroutine; draining must happen on one.
type Manual struct {
	mu    sync.Mutex
	queue []func()
}

// NewManual creates an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Post queues a task.
func (m *Manual) Post(task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, task)
}

// Step runs the oldest queued task. It returns false if the queue was empty.
func (m *Manual) Step() bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	m.mu.Unlock()

	task()
	return true
}

// Drain runs tasks, including ones posted while draining, until the queue is
// empty. It returns the number of tasks run.
func (m *Manual) Drain() int {
	n := 0
	for m.Step() {
		n++
	}
	return n
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
