package topic

import (
	"context"
	"fmt"
	"testing"

	"github.com/dshills/topicview/internal/event/dispatch"
	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/session"
	"github.com/dshills/topicview/internal/transition"
	"github.com/dshills/topicview/internal/view"
)

const topicPage = `<div class="topic-header"><span component="topic/locked" class="hidden"></span></div>
<div component="topic/labels"><span component="topic/pinned" class="hidden"></span></div>
<span component="topic/post-count" title="2">2</span>
<ul class="dropdown-menu">
  <li><a component="topic/delete">Delete</a></li>
  <li hidden=""><a component="topic/restore" class="hidden">Restore</a></li>
  <li hidden=""><a component="topic/purge" class="hidden">Purge</a></li>
  <li><a component="topic/lock">Lock</a></li>
  <li hidden=""><a component="topic/unlock" class="hidden">Unlock</a></li>
  <li><a component="topic/pin">Pin</a></li>
  <li hidden=""><a component="topic/unpin" class="hidden">Unpin</a></li>
</ul>
<div component="topic/deleted/message" class="hidden"></div>
<div component="topic/reply/container"></div>
<div component="topic/reply/locked" class="hidden"></div>
<div component="topic/tags"></div>
<ul component="topic" data-tid="42">
  <li component="post" data-pid="1" data-uid="3" data-index="0">
    <span component="user/status" class="online"></span>
    <div component="post/content">first</div>
    <div class="post-bar">bar</div>
    <div component="post/tools"><ul class="dropdown-menu" data-loaded="1"><li>x</li></ul></div>
    <a component="post/reply">Reply</a>
  </li>
  <li component="post" data-pid="2" data-uid="4" data-index="1">
    <span component="user/status" class="away"></span>
    <div component="post/content">second
      <blockquote><div data-pid="1" data-uid="3"><span component="user/status" class="online"></span></div></blockquote>
    </div>
    <div component="post/reply-count" class="">
      <span component="post/reply-count/text" data-replies="2">2 Replies</span>
      <span class="timeago"></span>
    </div>
    <div component="post/tools"><ul class="dropdown-menu" data-loaded="1"><li>cached</li></ul></div>
    <ul class="post-actions">
      <li><a component="post/quote">Quote</a></li>
      <li><a component="post/delete">Delete</a></li>
      <li hidden=""><a component="post/restore" class="hidden">Restore</a></li>
      <li hidden=""><a component="post/purge" class="hidden">Purge</a></li>
    </ul>
    <a component="post/reply">Reply</a>
    <a component="post/edit">Edit</a>
  </li>
</ul>
<div class="post-bar-placeholder"></div>`

type fixture struct {
	page  *Page
	store *session.Store
	sched *dispatch.Manual
	seq   *transition.Sequencer
}

func newFixture(t *testing.T, snap session.Snapshot) *fixture {
	t.Helper()
	doc, err := view.ParseString(topicPage)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	tr, err := i18n.New("en-GB")
	if err != nil {
		t.Fatalf("i18n.New() failed: %v", err)
	}
	store := session.NewStore(snap)
	m := dispatch.NewManual()
	return &fixture{
		page:  &Page{Doc: doc, Session: store, Tr: tr, RelativePath: "/forum"},
		store: store,
		sched: m,
		seq:   transition.New(m, transition.WithRunner(func(f func()) { f() })),
	}
}

// stubRenderer renders a fixed fragment per template.
type stubRenderer struct {
	out map[string]string
	err error
}

func (r stubRenderer) Render(_ context.Context, name string, data any) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	out, ok := r.out[name]
	if !ok {
		return "", fmt.Errorf("no stub for %s", name)
	}
	return out, nil
}
