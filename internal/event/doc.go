// Package event provides the client side of the real-time push channel.
//
// Server-pushed messages arrive as typed events: a kind discriminant such as
// "event:post_edited" plus a JSON payload. The Bus keeps a registry of
// subscriptions per kind and delivers each event to every active subscription
// on a single cooperative scheduler, so handlers never mutate the rendered
// view concurrently.
//
// # Architecture
//
//	transport ──Deliver──▶ Bus ──Post──▶ dispatch.Loop ──▶ Executor ──▶ Handler
//	                        ▲                                           │
//	                        └──────────────── Emit ◀────────────────────┘
//
// Handlers that fail or panic are isolated by the dispatch Executor: the error
// is reported to the configured ErrorHandler or PanicHandler, the event is
// dropped, and the subscription stays registered.
//
// # Basic Usage
//
//	loop := dispatch.NewLoop()
//	loop.Start()
//	defer loop.Stop(context.Background())
//
//	bus := event.NewBus(loop, event.WithSender(socketClient))
//	sub, err := bus.SubscribeFunc("event:voted", func(ctx context.Context, evt event.Event) error {
//	    pid, err := evt.RequireID("post.pid")
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	})
//	defer bus.Unsubscribe(sub)
//
// # Payload Access
//
// Payload fields are read with gjson path syntax ("post.pid", "topic.tags").
// Identifiers are normalized with the ident package because they may arrive
// as numbers or strings.
//
// # Subpackages
//
//   - dispatch: handler execution with panic recovery and the cooperative loop
package event
