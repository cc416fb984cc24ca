package topic

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/render"
	"github.com/dshills/topicview/internal/session"
	"github.com/dshills/topicview/internal/view"
)

func newPosts(f *fixture, r render.Renderer) *Posts {
	return NewPosts(f.page, r, f.seq, NewPostTools(f.page), NewReplies(f.page))
}

func TestPosts_OnNewPost(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42, PostCount: 2})
	r := stubRenderer{out: map[string]string{
		render.Post: `<li component="post" data-pid="3" data-uid="5" data-index="2"><div component="post/content"><img src="/a.png"></div></li>`,
	}}
	p := newPosts(f, r)

	evt := event.NewEvent("event:new_post", event.MustPayload(`{"posts":[
		{"pid":3,"tid":42,"uid":5,"index":2,"toPid":2,"content":"<p>hi</p>","user":{"username":"eve"}}
	]}`), "test")
	if err := p.OnNewPost(context.Background(), evt); err != nil {
		t.Fatalf("OnNewPost() failed: %v", err)
	}

	if got := f.store.Current().PostCount; got != 3 {
		t.Errorf("PostCount = %d, want 3", got)
	}
	if got := f.page.Doc.Component("topic/post-count").HTML(); got != "3" {
		t.Errorf("post count text = %q", got)
	}
	if !f.page.PostElement(3).Empty() {
		t.Fatal("post must not be appended before the render step runs")
	}

	f.sched.Drain()

	post := f.page.PostElement(3)
	if post.Empty() {
		t.Fatal("new post was not appended")
	}
	if !post.Find("img").HasClass("img-fluid") {
		t.Error("new post images should be post-processed")
	}
	if !post.Find("img").Parent().Is("a") {
		t.Error("new post images should be wrapped in links")
	}
	if got := f.page.PostElement(2).Find(view.Component("post/reply-count/text")).HTML(); got != "3 Replies" {
		t.Errorf("reply counter = %q", got)
	}
	if f.page.Doc.Find(".post-bar-placeholder").Len() != 0 {
		t.Error("placeholder should be replaced by the bottom post bar")
	}
}

func TestPosts_OnNewPostSkips(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42, PostCount: 2})
	p := newPosts(f, stubRenderer{})

	for _, raw := range []string{
		`{}`,
		`{"posts":[]}`,
		`{"posts":[{"pid":3,"tid":7}]}`,
		`{"posts":[{"pid":2,"tid":42}]}`,
	} {
		if err := p.OnNewPost(context.Background(), event.NewEvent("event:new_post", event.MustPayload(raw), "test")); err != nil {
			t.Errorf("OnNewPost(%s) failed: %v", raw, err)
		}
	}
	f.sched.Drain()

	if f.store.Current().PostCount != 2 {
		t.Errorf("PostCount = %d, want 2", f.store.Current().PostCount)
	}
}

type renderFunc func(ctx context.Context, name string, data any) (string, error)

func (f renderFunc) Render(ctx context.Context, name string, data any) (string, error) {
	return f(ctx, name, data)
}

const newPost3 = `{"posts":[{"pid":3,"tid":42,"uid":5,"index":2,"toPid":2,"content":"hi"}]}`

func TestPosts_RepeatedNewPostWhileRendering(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42, PostCount: 2})
	renders := 0
	p := newPosts(f, renderFunc(func(context.Context, string, any) (string, error) {
		renders++
		return `<li component="post" data-pid="3" data-index="2"><div component="post/content">hi</div></li>`, nil
	}))

	for i := 0; i < 2; i++ {
		if err := p.OnNewPost(context.Background(), event.NewEvent("event:new_post", event.MustPayload(newPost3), "test")); err != nil {
			t.Fatalf("OnNewPost() failed: %v", err)
		}
	}
	f.sched.Drain()

	if got := f.page.PostElement(3).Len(); got != 1 {
		t.Errorf("post 3 appended %d times, want 1", got)
	}
	if renders != 1 {
		t.Errorf("rendered %d times, want 1", renders)
	}
	if got := f.store.Current().PostCount; got != 3 {
		t.Errorf("PostCount = %d, want 3", got)
	}
	if got := f.page.PostElement(2).Find(view.Component("post/reply-count/text")).HTML(); got != "3 Replies" {
		t.Errorf("reply counter = %q", got)
	}
}

func TestPosts_FailedRenderCanBeRetried(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42, PostCount: 2})
	fail := true
	p := newPosts(f, renderFunc(func(context.Context, string, any) (string, error) {
		if fail {
			return "", errors.New("render failed")
		}
		return `<li component="post" data-pid="3" data-index="2"><div component="post/content">hi</div></li>`, nil
	}))
	deliver := func() {
		t.Helper()
		if err := p.OnNewPost(context.Background(), event.NewEvent("event:new_post", event.MustPayload(newPost3), "test")); err != nil {
			t.Fatalf("OnNewPost() failed: %v", err)
		}
		f.sched.Drain()
	}

	deliver()
	if !f.page.PostElement(3).Empty() {
		t.Fatal("a failed render must not append the post")
	}

	fail = false
	deliver()
	if f.page.PostElement(3).Empty() {
		t.Error("post should be appended once rendering succeeds")
	}
}

func TestPosts_ShowBottomPostBarSinglePost(t *testing.T) {
	f := newFixture(t, session.Snapshot{TopicID: 42})
	f.page.PostElement(2).Remove()

	newPosts(f, stubRenderer{}).ShowBottomPostBar()

	if f.page.PostElement(1).Find(".post-bar").Len() != 0 {
		t.Error("a lone main post should lose its post bar")
	}
}
