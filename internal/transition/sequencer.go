package transition

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/dshills/topicview/internal/event/dispatch"
	"github.com/dshills/topicview/internal/logging"
	"github.com/dshills/topicview/internal/view"
)

// ErrStepFailed is matched by every *Fault.
var ErrStepFailed = errors.New("transition step failed")

// Phase is the lifecycle phase of a step.
type Phase string

const (
	// PhaseStarted is reported when a step begins.
	PhaseStarted Phase = "started"
	// PhaseDone is reported when a step completes.
	PhaseDone Phase = "done"
	// PhaseFailed is reported when a step fails.
	PhaseFailed Phase = "failed"
)

// StepEvent describes one phase change. Seq increases strictly across all
// tracks of a Sequencer.
type StepEvent struct {
	Seq   uint64
	Track string
	Step  string
	Phase Phase
}

// Observer receives step events on the scheduler.
type Observer func(StepEvent)

// Fault describes a failed step.
type Fault struct {
	Track string
	Step  string
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("transition %s: step %s: %v", f.Track, f.Step, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Is matches ErrStepFailed.
func (f *Fault) Is(target error) bool {
	return target == ErrStepFailed
}

// FaultHandler receives step failures.
type FaultHandler func(*Fault)

// Runner starts background work such as a fetch.
type Runner func(task func())

// Timer runs f after d. It must not block.
type Timer func(d time.Duration, f func())

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithObserver registers an observer for step events.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) {
		s.observer = o
	}
}

// WithFaultHandler sets the callback for failed steps.
func WithFaultHandler(h FaultHandler) Option {
	return func(s *Sequencer) {
		if h != nil {
			s.faults = h
		}
	}
}

// WithRunner replaces the goroutine runner used by fetch steps.
func WithRunner(r Runner) Option {
	return func(s *Sequencer) {
		if r != nil {
			s.run = r
		}
	}
}

// WithTimer replaces the timer used by fades.
func WithTimer(t Timer) Option {
	return func(s *Sequencer) {
		if t != nil {
			s.after = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sequencer creates tracks bound to one scheduler.
type Sequencer struct {
	sched    dispatch.Scheduler
	observer Observer
	faults   FaultHandler
	run      Runner
	after    Timer
	logger   *logging.Logger

	seq     atomic.Uint64
	started atomic.Uint64
	failed  atomic.Uint64
}

// New creates a sequencer whose steps run on sched.
func New(sched dispatch.Scheduler, opts ...Option) *Sequencer {
	s := &Sequencer{
		sched:  sched,
		faults: func(*Fault) {},
		run:    func(task func()) { go task() },
		logger: logging.Nop(),
	}
	s.after = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track starts building a named chain of steps.
func (s *Sequencer) Track(name string) *Track {
	return &Track{seq: s, name: name}
}

// Stats reports how many tracks started and how many failed.
func (s *Sequencer) Stats() (started, failed uint64) {
	return s.started.Load(), s.failed.Load()
}

func (s *Sequencer) emit(track, step string, phase Phase) {
	n := s.seq.Add(1)
	if s.observer != nil {
		s.observer(StepEvent{Seq: n, Track: track, Step: step, Phase: phase})
	}
}

// wait calls next on the scheduler after d. A zero duration posts
// directly.
func (s *Sequencer) wait(d time.Duration, next func()) {
	if d <= 0 {
		s.sched.Post(next)
		return
	}
	s.after(d, func() { s.sched.Post(next) })
}

// step is one link of a track. exec runs on the scheduler and must call
// done exactly once.
type step struct {
	name string
	exec func(ctx context.Context, done func(error))
}

// Track is an ordered chain of steps. Build it, then call Start once.
type Track struct {
	seq    *Sequencer
	name   string
	steps  []step
	onFail func(*Fault)
}

// Name returns the track name.
func (t *Track) Name() string {
	return t.name
}

// Len returns the number of steps.
func (t *Track) Len() int {
	return len(t.steps)
}

func (t *Track) add(name string, exec func(ctx context.Context, done func(error))) *Track {
	t.steps = append(t.steps, step{name: name, exec: exec})
	return t
}

// FadeOut hides els at the end of d. An empty set completes at once.
func (t *Track) FadeOut(els view.Elements, d time.Duration) *Track {
	return t.add("fade-out", func(_ context.Context, done func(error)) {
		if els.Empty() {
			done(nil)
			return
		}
		t.seq.wait(d, func() {
			els.Hide()
			done(nil)
		})
	})
}

// FadeIn shows els and completes at the end of d.
func (t *Track) FadeIn(els view.Elements, d time.Duration) *Track {
	return t.add("fade-in", func(_ context.Context, done func(error)) {
		if els.Empty() {
			done(nil)
			return
		}
		els.Show()
		t.seq.wait(d, func() { done(nil) })
	})
}

// Do runs fn as a step.
func (t *Track) Do(name string, fn func()) *Track {
	return t.add(name, func(_ context.Context, done func(error)) {
		fn()
		done(nil)
	})
}

// OnFail registers fn to run on the scheduler when a step of this track
// fails, after the sequencer's fault handler.
func (t *Track) OnFail(fn func(*Fault)) *Track {
	t.onFail = fn
	return t
}

// Fetch runs fetch in the background and hands its result to apply on the
// scheduler. A fetch error stops the track before apply.
func (t *Track) Fetch(name string, fetch func(ctx context.Context) (string, error), apply func(string)) *Track {
	return t.add(name, func(ctx context.Context, done func(error)) {
		t.seq.run(func() {
			out, err := fetch(ctx)
			t.seq.sched.Post(func() {
				if err != nil {
					done(err)
					return
				}
				apply(out)
				done(nil)
			})
		})
	})
}

// Start schedules the first step. Steps of a cancelled context are not
// run.
func (t *Track) Start(ctx context.Context) {
	t.seq.started.Add(1)
	t.seq.sched.Post(func() { t.runStep(ctx, 0) })
}

func (t *Track) runStep(ctx context.Context, i int) {
	if i >= len(t.steps) {
		return
	}
	if err := ctx.Err(); err != nil {
		t.seq.logger.Debug("track %s stopped before %s: %v", t.name, t.steps[i].name, err)
		return
	}

	st := t.steps[i]
	t.seq.emit(t.name, st.name, PhaseStarted)

	var finished bool
	done := func(err error) {
		if finished {
			return
		}
		finished = true
		if err != nil {
			t.fail(st.name, err)
			return
		}
		t.seq.emit(t.name, st.name, PhaseDone)
		t.runStep(ctx, i+1)
	}

	defer func() {
		if r := recover(); r != nil {
			if finished {
				panic(r)
			}
			finished = true
			t.seq.logger.Error("track %s step %s panicked: %v\n%s", t.name, st.name, r, debug.Stack())
			t.fail(st.name, fmt.Errorf("panic: %v", r))
		}
	}()
	st.exec(ctx, done)
}

func (t *Track) fail(stepName string, err error) {
	t.seq.failed.Add(1)
	t.seq.emit(t.name, stepName, PhaseFailed)
	f := &Fault{Track: t.name, Step: stepName, Err: err}
	t.seq.logger.WithFields(map[string]any{"track": t.name, "step": stepName}).Warn("transition step failed: %v", err)
	t.seq.faults(f)
	if t.onFail != nil {
		t.onFail(f)
	}
}
