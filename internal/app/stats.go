package app

import (
	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/event/dispatch"
	"github.com/dshills/topicview/internal/transport/socket"
)

// Stats is a point-in-time view of the running components.
type Stats struct {
	Bus    event.Stats
	Loop   dispatch.LoopStats
	Socket socket.Stats

	// Handlers is the number of reconciliation handlers subscribed.
	Handlers int

	TransitionsStarted uint64
	TransitionsFailed  uint64

	// ContextVersion counts writes to the topic context.
	ContextVersion uint64
}

// Stats collects statistics from every component.
func (app *Application) Stats() Stats {
	s := Stats{
		Bus:            app.bus.Stats(),
		Loop:           app.loop.Stats(),
		Handlers:       app.events.Active(),
		ContextVersion: app.store.Version(),
	}
	s.TransitionsStarted, s.TransitionsFailed = app.seq.Stats()
	if app.socket != nil {
		s.Socket = app.socket.Stats()
	}
	return s
}
