package topic

import (
	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/view"
)

// threadState describes one boolean topic state and the tools that
// reflect it.
type threadState struct {
	// flag is the payload field holding the new state.
	flag string
	// class marks the topic element while the state is on.
	class string
	// setters are hidden while the state is on.
	setters []string
	// clearers are hidden while the state is off.
	clearers []string
	// marker is shown while the state is on.
	marker string
}

var (
	deleteState = threadState{
		flag:     "isDelete",
		class:    "deleted",
		setters:  []string{"topic/delete"},
		clearers: []string{"topic/restore", "topic/purge"},
		marker:   view.Component("topic/deleted/message"),
	}
	lockState = threadState{
		flag:     "isLocked",
		class:    "locked",
		setters:  []string{"topic/lock"},
		clearers: []string{"topic/unlock"},
		marker:   ".topic-header " + view.Component("topic/locked"),
	}
	pinState = threadState{
		flag:     "pinned",
		class:    "pinned",
		setters:  []string{"topic/pin"},
		clearers: []string{"topic/unpin"},
		marker:   view.Component("topic/labels") + " " + view.Component("topic/pinned"),
	}
)

// ThreadTools manages topic-level state toggles.
type ThreadTools struct {
	page  *Page
	posts *PostTools
}

// NewThreadTools creates the widget.
func NewThreadTools(p *Page, posts *PostTools) *ThreadTools {
	return &ThreadTools{page: p, posts: posts}
}

// SetDeleteState applies {tid, isDelete}.
func (t *ThreadTools) SetDeleteState(evt event.Event) error {
	on, ok, err := t.apply(evt, deleteState)
	if err != nil || !ok {
		return err
	}
	if on {
		msg := t.page.Doc.Component("topic/deleted/message")
		if msg.Text() == "" {
			msg.SetHTML(t.page.Tr.Translate(i18n.KeyTopicDeleted))
		}
	}
	return nil
}

// SetLockedState applies {tid, isLocked}. Reply and edit tools are hidden
// from unprivileged viewers while the topic is locked.
func (t *ThreadTools) SetLockedState(evt event.Event) error {
	locked, ok, err := t.apply(evt, lockState)
	if err != nil || !ok {
		return err
	}

	snap := t.page.Session.Current()
	privileged := snap.Privileges.IsAdminOrMod
	deleted := t.page.TopicElement().HasClass("deleted")
	hideReply := (locked || deleted) && !privileged

	doc := t.page.Doc
	doc.Component("topic/reply/container").SetClass("hidden", hideReply)
	doc.Component("topic/reply/locked").SetClass("hidden", privileged || !locked || deleted)

	topic := t.page.TopicElement()
	topic.Find(view.Component("post") + ":not(.deleted) " + view.Component("post/reply") + ", " + view.Component("post/quote")).
		SetClass("hidden", hideReply)
	topic.Find(view.Component("post/edit") + ", " + view.Component("post/delete")).
		SetClass("hidden", locked && !privileged)
	if snap.ViewerID != 0 {
		own := view.Disambiguate(view.User(snap.ViewerID))
		topic.Find(view.Component("post") + ".deleted " + view.Component("post/tools")).Filter(own).
			SetClass("hidden", locked && !privileged)
	}
	t.posts.RemoveMenu(doc.Find("body"))
	return nil
}

// SetPinnedState applies {tid, pinned}.
func (t *ThreadTools) SetPinnedState(evt event.Event) error {
	_, _, err := t.apply(evt, pinState)
	return err
}

// apply flips the common parts of a state. ok is false when the event is
// for another topic.
func (t *ThreadTools) apply(evt event.Event, st threadState) (on, ok bool, err error) {
	tid, err := evt.RequireID("tid")
	if err != nil {
		return false, false, err
	}
	if !t.page.OwnTopic(tid) {
		return false, false, nil
	}
	on = evt.Payload.Bool(st.flag)

	doc := t.page.Doc
	for _, c := range st.setters {
		toggleTool(doc.Component(c), on)
	}
	for _, c := range st.clearers {
		toggleTool(doc.Component(c), !on)
	}
	doc.Find(st.marker).SetClass("hidden", !on)
	t.page.TopicElement().SetClass(st.class, on)
	return on, true, nil
}
