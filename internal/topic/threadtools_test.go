package topic

import (
	"testing"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/session"
	"github.com/dshills/topicview/internal/view"
)

func newThreadTools(f *fixture) *ThreadTools {
	return NewThreadTools(f.page, NewPostTools(f.page))
}

func TestThreadTools_SetDeleteState(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42})
	tt := newThreadTools(f)
	doc := f.page.Doc

	err := tt.SetDeleteState(event.NewEvent("event:topic_deleted", event.MustPayload(`{"tid":"42","isDelete":true}`), "test"))
	if err != nil {
		t.Fatalf("SetDeleteState() failed: %v", err)
	}
	if !f.page.TopicElement().HasClass("deleted") {
		t.Error("topic should be marked deleted")
	}
	if !doc.Component("topic/delete").HasClass("hidden") || doc.Component("topic/restore").HasClass("hidden") {
		t.Error("delete/restore tools not swapped")
	}
	msg := doc.Component("topic/deleted/message")
	if msg.HasClass("hidden") || msg.Text() == "" {
		t.Errorf("deleted message should be shown: %q", msg.OuterHTML())
	}

	tt.SetDeleteState(event.NewEvent("event:topic_restored", event.MustPayload(`{"tid":42,"isDelete":false}`), "test"))
	if f.page.TopicElement().HasClass("deleted") || !doc.Component("topic/purge").HasClass("hidden") {
		t.Error("restore did not revert state")
	}
}

func TestThreadTools_OtherTopicIgnored(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42})
	before, _ := f.page.Doc.HTML()

	tt := newThreadTools(f)
	tt.SetDeleteState(event.NewEvent("event:topic_deleted", event.MustPayload(`{"tid":7,"isDelete":true}`), "test"))
	tt.SetLockedState(event.NewEvent("event:topic_locked", event.MustPayload(`{"tid":7,"isLocked":true}`), "test"))
	tt.SetPinnedState(event.NewEvent("event:topic_pinned", event.MustPayload(`{"tid":7,"pinned":true}`), "test"))

	after, _ := f.page.Doc.HTML()
	if before != after {
		t.Error("events for another topic must not change the page")
	}
}

func TestThreadTools_MissingTid(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42})
	err := newThreadTools(f).SetPinnedState(event.NewEvent("event:topic_pinned", event.MustPayload(`{"pinned":true}`), "test"))
	if err == nil {
		t.Error("expected a payload error")
	}
}

func TestThreadTools_SetLockedState(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42, ViewerID: 3})
	tt := newThreadTools(f)
	doc := f.page.Doc

	tt.SetLockedState(event.NewEvent("event:topic_locked", event.MustPayload(`{"tid":42,"isLocked":true}`), "test"))

	if !f.page.TopicElement().HasClass("locked") {
		t.Error("topic should be marked locked")
	}
	if doc.Find(".topic-header "+view.Component("topic/locked")).HasClass("hidden") {
		t.Error("locked marker should be visible")
	}
	if !doc.Component("topic/reply/container").HasClass("hidden") {
		t.Error("reply container should be hidden for unprivileged viewers")
	}
	if doc.Component("topic/reply/locked").HasClass("hidden") {
		t.Error("locked notice should be visible")
	}
	if !doc.Component("post/edit").HasClass("hidden") {
		t.Error("edit tools should be hidden")
	}
	if doc.Find(view.Component("post/tools")+" .dropdown-menu").Text() != "" {
		t.Error("open menus should be cleared")
	}

	tt.SetLockedState(event.NewEvent("event:topic_unlocked", event.MustPayload(`{"tid":42,"isLocked":false}`), "test"))
	if f.page.TopicElement().HasClass("locked") || doc.Component("topic/reply/container").HasClass("hidden") {
		t.Error("unlock did not revert state")
	}
}

func TestThreadTools_LockedPrivileged(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42, Privileges: session.Privileges{IsAdminOrMod: true}})
	newThreadTools(f).SetLockedState(event.NewEvent("event:topic_locked", event.MustPayload(`{"tid":42,"isLocked":true}`), "test"))

	doc := f.page.Doc
	if doc.Component("topic/reply/container").HasClass("hidden") {
		t.Error("moderators keep the reply container")
	}
	if doc.Component("post/edit").HasClass("hidden") {
		t.Error("moderators keep edit tools")
	}
}

func TestThreadTools_SetPinnedState(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42})
	newThreadTools(f).SetPinnedState(event.NewEvent("event:topic_pinned", event.MustPayload(`{"tid":42,"pinned":true}`), "test"))

	doc := f.page.Doc
	if !doc.Component("topic/pin").HasClass("hidden") || doc.Component("topic/unpin").HasClass("hidden") {
		t.Error("pin/unpin not swapped")
	}
	if doc.Find(view.Component("topic/labels")+" "+view.Component("topic/pinned")).HasClass("hidden") {
		t.Error("pinned label should be visible")
	}
}
