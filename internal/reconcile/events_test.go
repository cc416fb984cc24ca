package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/event/dispatch"
)

func countingTable(t *testing.T, calls map[event.Kind]int) *Table {
	t.Helper()
	var regs []Registration
	for _, k := range []event.Kind{KindVoted, KindPostEdited, KindNewPost} {
		regs = append(regs, Registration{Kind: k, Handler: event.HandlerFunc(
			func(_ context.Context, evt event.Event) error {
				calls[evt.Kind]++
				return nil
			})})
	}
	table, err := NewTable(regs...)
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	return table
}

func TestEvents_InitIsIdempotent(t *testing.T) {
	m := dispatch.NewManual()
	bus := event.NewBus(m)
	calls := map[event.Kind]int{}
	ev := NewEvents(bus, countingTable(t, calls), nil)

	for i := 0; i < 5; i++ {
		if err := ev.Init(); err != nil {
			t.Fatalf("Init() #%d failed: %v", i, err)
		}
	}
	if ev.Active() != 3 {
		t.Errorf("Active() = %d, want 3", ev.Active())
	}
	if got := bus.Stats().ActiveSubscribers; got != 3 {
		t.Errorf("ActiveSubscribers = %d, want 3", got)
	}

	bus.Deliver(context.Background(), event.NewEvent(KindVoted, event.MustPayload(`{}`), "test"))
	m.Drain()
	if calls[KindVoted] != 1 {
		t.Errorf("handler invoked %d times, want 1", calls[KindVoted])
	}
}

func TestEvents_RemoveListeners(t *testing.T) {
	m := dispatch.NewManual()
	bus := event.NewBus(m)
	calls := map[event.Kind]int{}
	ev := NewEvents(bus, countingTable(t, calls), nil)

	if err := ev.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	bus.Deliver(context.Background(), event.NewEvent(KindNewPost, event.MustPayload(`{}`), "test"))
	if err := ev.RemoveListeners(); err != nil {
		t.Fatalf("RemoveListeners() failed: %v", err)
	}
	m.Drain()

	if calls[KindNewPost] != 0 {
		t.Error("an event queued before teardown must not reach a removed handler")
	}
	if ev.Active() != 0 || bus.Stats().ActiveSubscribers != 0 {
		t.Errorf("subscriptions left: events=%d bus=%d", ev.Active(), bus.Stats().ActiveSubscribers)
	}
	if err := ev.RemoveListeners(); err != nil {
		t.Errorf("second RemoveListeners() failed: %v", err)
	}
}

func TestEvents_RemoveLeavesForeignSubscriptions(t *testing.T) {
	m := dispatch.NewManual()
	bus := event.NewBus(m)
	calls := map[event.Kind]int{}
	ev := NewEvents(bus, countingTable(t, calls), nil)

	foreign := 0
	if _, err := bus.SubscribeFunc(KindVoted, func(context.Context, event.Event) error {
		foreign++
		return nil
	}); err != nil {
		t.Fatalf("SubscribeFunc() failed: %v", err)
	}
	if err := ev.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if err := ev.RemoveListeners(); err != nil {
		t.Fatalf("RemoveListeners() failed: %v", err)
	}

	bus.Deliver(context.Background(), event.NewEvent(KindVoted, event.MustPayload(`{}`), "test"))
	m.Drain()
	if foreign != 1 || calls[KindVoted] != 0 {
		t.Errorf("foreign=%d table=%d, want 1 and 0", foreign, calls[KindVoted])
	}
}

// failingClient accepts a fixed number of subscriptions.
type failingClient struct {
	*event.Bus
	remaining int
}

var errFull = errors.New("client full")

func (c *failingClient) Subscribe(kind event.Kind, h event.Handler) (event.Subscription, error) {
	if c.remaining == 0 {
		return nil, errFull
	}
	c.remaining--
	return c.Bus.Subscribe(kind, h)
}

func TestEvents_InitRollsBack(t *testing.T) {
	bus := event.NewBus(dispatch.NewManual())
	client := &failingClient{Bus: bus, remaining: 2}
	ev := NewEvents(client, countingTable(t, map[event.Kind]int{}), nil)

	err := ev.Init()
	if !errors.Is(err, errFull) {
		t.Fatalf("Init() error = %v, want errFull", err)
	}
	if ev.Active() != 0 || bus.Stats().ActiveSubscribers != 0 {
		t.Errorf("partial registration left: events=%d bus=%d", ev.Active(), bus.Stats().ActiveSubscribers)
	}
}
