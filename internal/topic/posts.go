package topic

import (
	"context"
	"html/template"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/render"
	"github.com/dshills/topicview/internal/transition"
	"github.com/dshills/topicview/internal/view"
)

// Posts appends new posts and keeps the bottom post bar consistent.
type Posts struct {
	page     *Page
	renderer render.Renderer
	seq      *transition.Sequencer
	tools    *PostTools
	replies  *Replies

	// pending holds pids whose render has not been appended yet.
	pending map[int64]struct{}
}

// NewPosts creates the widget.
func NewPosts(p *Page, r render.Renderer, seq *transition.Sequencer, tools *PostTools, replies *Replies) *Posts {
	return &Posts{
		page:     p,
		renderer: r,
		seq:      seq,
		tools:    tools,
		replies:  replies,
		pending:  make(map[int64]struct{}),
	}
}

// OnNewPost handles {posts: [...]}. Posts of another topic and posts
// already on the page or still rendering are skipped. Each new post is
// rendered on its own track and appended to the topic when ready; the post
// count is updated at once.
func (p *Posts) OnNewPost(ctx context.Context, evt event.Event) error {
	snap := p.page.Session.Current()
	topicEl := p.page.TopicElement()
	added := int64(0)
	for _, post := range evt.Payload.Items("posts") {
		if id, ok := post.ID("tid"); !ok || id != snap.TopicID {
			continue
		}
		pid, ok := post.ID("pid")
		if !ok || p.known(pid) {
			continue
		}
		added++
		p.pending[pid] = struct{}{}

		data := postData(post, p.page.RelativePath)
		p.seq.Track("new-post").
			Fetch("render", func(ctx context.Context) (string, error) {
				return p.renderer.Render(ctx, render.Post, data)
			}, func(html string) {
				delete(p.pending, pid)
				topicEl.Append(html)
				el := p.page.PostElement(pid)
				view.MakeResponsive(el)
				view.WrapImagesInLinks(el)
				view.AddBlockquoteEllipses(el)
				p.ShowBottomPostBar()
				p.replies.OnNewReply(post)
			}).
			OnFail(func(*transition.Fault) { delete(p.pending, pid) }).
			Start(ctx)
	}

	if added > 0 {
		count := snap.PostCount + added
		p.page.Session.SetPostCount(count)
		p.tools.UpdatePostCount(count)
	}
	return nil
}

func (p *Posts) known(pid int64) bool {
	if _, ok := p.pending[pid]; ok {
		return true
	}
	return !p.page.PostElement(pid).Empty()
}

// ShowBottomPostBar moves the post bar below the main post once the topic
// has replies, and removes it when the main post is alone.
func (p *Posts) ShowBottomPostBar() {
	doc := p.page.Doc
	mainPost := doc.Find(view.Component("post") + `[data-index="0"]`)
	placeholder := doc.Find(".post-bar-placeholder")
	posts := doc.Component("post")
	bars := doc.Find(".post-bar")

	switch {
	case !mainPost.Empty() && posts.Len() > 1 && bars.Len() < 2 && !placeholder.Empty() && !bars.Empty():
		placeholder.ReplaceWith(bars.OuterHTML())
	case !mainPost.Empty() && posts.Len() < 2:
		mainPost.Find(".post-bar").Remove()
	}
}

func postData(post event.Payload, relativePath string) render.PostData {
	status := post.Get("user.status").String()
	if !validStatus(status) {
		status = "offline"
	}
	return render.PostData{
		RelativePath: relativePath,
		Index:        post.Get("index").Int(),
		PID:          post.Get("pid").Int(),
		UID:          post.Get("uid").Int(),
		Timestamp:    post.Get("timestamp").Int(),
		Deleted:      post.Get("deleted").Bool(),
		Votes:        post.Get("votes").Int(),
		Bookmarks:    post.Get("bookmarks").Int(),
		Content:      template.HTML(post.Get("content").String()),
		User: render.User{
			UID:        post.Get("uid").Int(),
			Username:   post.Get("user.username").String(),
			Userslug:   post.Get("user.userslug").String(),
			Status:     status,
			Reputation: post.Get("user.reputation").Int(),
		},
	}
}
