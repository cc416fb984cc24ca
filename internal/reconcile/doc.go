// Package reconcile keeps a rendered topic page consistent with the
// events the server pushes while it is displayed.
//
// The Table is the fixed list of event kinds and their handlers. Events
// owns its registration lifecycle on an event.Client: Init always leaves
// exactly one subscription per kind, however often it is called, and
// RemoveListeners removes them all.
//
// Handlers gate on the displayed topic where the payload names one. An
// event for another topic, or for an entity that is not rendered, is a
// silent no-op. A payload missing a required field fails that one event
// with an *event.PayloadError and nothing else.
package reconcile
