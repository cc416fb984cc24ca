// Package topic holds the widgets of a rendered topic page that the
// reconciliation handlers delegate to: post tools, thread tools, reply
// counters, new posts, tags and user status indicators.
//
// Widgets share one Page and run on the reconciliation loop.
package topic
