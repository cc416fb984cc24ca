package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dshills/topicview/internal/event/dispatch"
)

// Client is the subscribe/unsubscribe/emit surface of the push channel that
// reconciliation code depends on.
type Client interface {
	// Subscribe registers h for events of kind.
	Subscribe(kind Kind, h Handler) (Subscription, error)

	// Unsubscribe removes exactly the registration identified by sub.
	Unsubscribe(sub Subscription) error

	// Emit sends an event back onto the channel.
	Emit(ctx context.Context, kind Kind, payload []byte) error
}

// Sender delivers emitted events to the server.
type Sender interface {
	Send(ctx context.Context, kind Kind, payload []byte) error
}

// Bus is the default Client. Incoming events are handed to Deliver by the
// transport and dispatched on the scheduler.
type Bus struct {
	registry *Registry
	sched    dispatch.Scheduler
	executor *dispatch.Executor
	config   busConfig

	senderMu sync.RWMutex

	received         atomic.Uint64
	unhandled        atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
	emitted          atomic.Uint64
}

// NewBus creates a bus that runs handlers on sched.
func NewBus(sched dispatch.Scheduler, opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Bus{
		registry: NewRegistry(),
		sched:    sched,
		executor: dispatch.NewExecutor(),
		config:   config,
	}
}

// Subscribe registers a handler for an event kind.
// This method is safe to call concurrently.
func (b *Bus) Subscribe(kind Kind, h Handler) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if kind == "" {
		return nil, ErrInvalidKind
	}

	sub := newSubscription(uuid.NewString(), kind, h)
	b.registry.Add(sub)
	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (b *Bus) SubscribeFunc(kind Kind, fn HandlerFunc) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(kind, fn)
}

// Unsubscribe removes a subscription.
// This method is safe to call concurrently.
func (b *Bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}

	sub.Cancel()
	if !b.registry.Remove(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

// SetSender replaces the outbound channel.
func (b *Bus) SetSender(s Sender) {
	b.senderMu.Lock()
	defer b.senderMu.Unlock()
	b.config.sender = s
}

// Emit sends an event to the server through the configured Sender.
func (b *Bus) Emit(ctx context.Context, kind Kind, payload []byte) error {
	if kind == "" {
		return ErrInvalidKind
	}
	if len(payload) > 0 && !gjson.ValidBytes(payload) {
		return fmt.Errorf("%w: emit payload is not valid JSON", ErrInvalidEvent)
	}

	b.senderMu.RLock()
	sender := b.config.sender
	b.senderMu.RUnlock()
	if sender == nil {
		return ErrNoSender
	}

	if err := sender.Send(ctx, kind, payload); err != nil {
		return fmt.Errorf("emit %s: %w", kind, err)
	}
	b.emitted.Add(1)
	return nil
}

// Deliver queues an event for dispatch. Subscriptions are matched when the
// event is dispatched, so a handler removed before then never sees it.
func (b *Bus) Deliver(ctx context.Context, evt Event) {
	b.received.Add(1)
	b.sched.Post(func() {
		b.dispatch(ctx, evt)
	})
}

// dispatch runs on the scheduler.
func (b *Bus) dispatch(ctx context.Context, evt Event) {
	subs := b.registry.MatchActive(evt.Kind)
	if len(subs) == 0 {
		b.unhandled.Add(1)
		return
	}

	for _, sub := range subs {
		// A handler earlier in this loop may have torn down the table.
		if !sub.IsActive() {
			continue
		}

		result := b.executor.Execute(ctx, evt, handlerAdapter{sub.Handler()})
		b.handlersExecuted.Add(1)

		switch {
		case result.Panicked:
			b.handlerPanics.Add(1)
			b.config.errorHandler(evt, &PanicError{
				SubscriptionID: sub.ID(),
				Kind:           evt.Kind,
				Value:          result.PanicValue,
				Stack:          string(result.PanicStack),
			})
			b.config.panicHandler(evt, result.PanicValue, result.PanicStack)
		case result.Error != nil:
			b.handlerErrors.Add(1)
			b.config.errorHandler(evt, &HandlerError{
				SubscriptionID: sub.ID(),
				Kind:           evt.Kind,
				Err:            result.Error,
			})
		}
	}
}

// Registry exposes the subscription registry for inspection.
func (b *Bus) Registry() *Registry {
	return b.registry
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	return Stats{
		EventsReceived:    b.received.Load(),
		EventsUnhandled:   b.unhandled.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		Emitted:           b.emitted.Load(),
		ActiveSubscribers: b.registry.CountActive(),
	}
}

// handlerAdapter lets the dispatch package execute typed handlers without
// importing this package.
type handlerAdapter struct {
	h Handler
}

func (a handlerAdapter) Handle(ctx context.Context, evt any) error {
	return a.h.Handle(ctx, evt.(Event))
}
