package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/event/dispatch"
	"github.com/dshills/topicview/internal/hook"
	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/logging"
	"github.com/dshills/topicview/internal/nav"
	"github.com/dshills/topicview/internal/render"
	"github.com/dshills/topicview/internal/session"
	"github.com/dshills/topicview/internal/topic"
	"github.com/dshills/topicview/internal/transition"
	"github.com/dshills/topicview/internal/view"
)

const topicPage = `<nav><span component="navbar/title"><span>Old title</span></span></nav>
<ol><li component="breadcrumb/current">Old title</li></ol>
<h1 component="topic/title">Old title</h1>
<span component="topic/post-count" title="3">3</span>
<div component="topic/tags"><a href="/forum/tags/old">old</a></div>
<ul component="topic" data-tid="42">
  <li component="post" data-pid="1" data-uid="3" data-index="0">
    <span class="reputation" data-uid="3">10</span>
    <div component="post/content">main post</div>
    <div class="post-bar">bar</div>
  </li>
  <li component="post" data-pid="7" data-uid="4" data-index="1">
    <span class="reputation" data-uid="4">2</span>
    <div component="post/content">original
      <blockquote><div data-pid="1" data-uid="3">
        <div component="post/content">quoted</div>
        <span component="post/vote-count" data-votes="1">1</span>
        <a component="post/upvote"></a>
        <a component="post/bookmark" data-bookmarked="false">
          <i component="post/bookmark/on" class="hidden"></i>
          <i component="post/bookmark/off"></i>
        </a>
      </div></blockquote>
    </div>
    <span component="post/editor" class="hidden"></span>
    <i component="post/edit-indicator" class="hidden"></i>
    <span component="post/vote-count" data-votes="1">1</span>
    <a component="post/upvote"></a>
    <a component="post/downvote"></a>
    <span class="bookmarkCount" data-bookmarks="0">0</span>
    <a component="post/bookmark" data-bookmarked="false">
      <i component="post/bookmark/on" class="hidden"></i>
      <i component="post/bookmark/off"></i>
    </a>
    <div component="post/tools"><ul class="dropdown-menu" data-loaded="1"><li>cached</li></ul></div>
    <ul class="post-actions">
      <li><a component="post/quote">Quote</a></li>
      <li><a component="post/delete">Delete</a></li>
      <li hidden=""><a component="post/restore" class="hidden">Restore</a></li>
      <li hidden=""><a component="post/purge" class="hidden">Purge</a></li>
    </ul>
  </li>
  <li component="post" data-pid="8" data-uid="5" data-index="2">
    <div component="post/content">reply</div>
  </li>
</ul>`

type fixture struct {
	doc      *view.Document
	store    *session.Store
	sched    *dispatch.Manual
	router   *nav.Router
	navs     []nav.Request
	bus      *event.Bus
	sender   *recordingSender
	hooks    *hook.Hooks
	steps    []transition.StepEvent
	handlers *Handlers
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

	f := &fixture{
		doc:    doc,
		store:  session.NewStore(snap),
		sched:  dispatch.NewManual(),
		sender: &recordingSender{},
		hooks:  hook.New(logging.Nop()),
	}
	f.router = nav.NewRouter(nav.Location{
		Scheme: "https", Host: "forum.example", RelativePath: "/forum",
		Path: "topic/42/old-title", Search: "?sort=newest",
	}, logging.Nop())
	f.router.OnNavigate(func(_ context.Context, req nav.Request) {
		f.navs = append(f.navs, req)
	})
	f.bus = event.NewBus(f.sched, event.WithSender(f.sender))

	seq := transition.New(f.sched,
		transition.WithRunner(func(fn func()) { fn() }),
		transition.WithObserver(func(e transition.StepEvent) { f.steps = append(f.steps, e) }),
	)
	f.handlers = NewHandlers(Deps{
		Page:      &topic.Page{Doc: doc, Session: f.store, Tr: tr, RelativePath: "/forum"},
		Emitter:   f.bus,
		Navigator: f.router,
		History:   f.router,
		Renderer: stubRenderer{out: map[string]string{
			render.PostEditor: `<span component="post/editor">Last edited by alice</span>`,
			render.Tags:       `<a href="/forum/tags/go">go</a>`,
		}},
		Hooks:     f.hooks,
		Sequencer: seq,
		Logger:    logging.Nop(),
	})
	return f
}

func defaultSnapshot() session.Snapshot {
	return session.Snapshot{
		TopicID:      42,
		Title:        "Old title",
		Slug:         "42/old-title",
		CategorySlug: "general",
		ViewerID:     9,
		PostCount:    3,
	}
}

// handle runs the registered handler for kind synchronously and drains
// every transition it started.
func (f *fixture) handle(t *testing.T, kind event.Kind, payload string) error {
	t.Helper()
	err := f.start(t, kind, payload)
	f.sched.Drain()
	return err
}

// start runs the registered handler for kind and leaves the transitions it
// started queued.
func (f *fixture) start(t *testing.T, kind event.Kind, payload string) error {
	t.Helper()
	for _, r := range f.handlers.Registrations() {
		if r.Kind == kind {
			return r.Handler.Handle(context.Background(), event.NewEvent(kind, event.MustPayload(payload), "test"))
		}
	}
	t.Fatalf("no handler registered for %s", kind)
	return nil
}

func (f *fixture) html(t *testing.T) string {
	t.Helper()
	out, err := f.doc.HTML()
	if err != nil {
		t.Fatalf("HTML() failed: %v", err)
	}
	return out
}

func (f *fixture) attr(t *testing.T, sel, name string) string {
	t.Helper()
	v, _ := f.doc.Find(sel).Attr(name)
	return v
}

type recordingSender struct {
	kinds    []event.Kind
	payloads []string
}

func (s *recordingSender) Send(_ context.Context, kind event.Kind, payload []byte) error {
	s.kinds = append(s.kinds, kind)
	s.payloads = append(s.payloads, string(payload))
	return nil
}

type stubRenderer struct {
	out map[string]string
}

func (r stubRenderer) Render(_ context.Context, name string, _ any) (string, error) {
	out, ok := r.out[name]
	if !ok {
		return "", fmt.Errorf("no stub for %s", name)
	}
	return out, nil
}
