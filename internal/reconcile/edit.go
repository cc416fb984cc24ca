package reconcile

import (
	"context"
	"time"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/hook"
	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/ident"
	"github.com/dshills/topicview/internal/nav"
	"github.com/dshills/topicview/internal/render"
	"github.com/dshills/topicview/internal/topic"
	"github.com/dshills/topicview/internal/view"
)

// isoMillis matches the server's ISO timestamps.
const isoMillis = "2006-01-02T15:04:05.000Z"

// edit is the decoded shape of a post_edited payload.
type edit struct {
	pid       int64
	author    int64
	hasAuthor bool
	content   string
	changed   bool
	editedMs  int64
	editor    render.User
	slug      string
	title     string
	renamed   bool
	moved     bool
	tagsDirty bool
}

func decodeEdit(evt event.Event) (edit, error) {
	pid, err := evt.RequireID("post.pid")
	if err != nil {
		return edit{}, err
	}
	p := evt.Payload
	uid, _ := p.ID("editor.uid")
	author, hasAuthor := p.ID("post.uid")
	return edit{
		pid:       pid,
		author:    author,
		hasAuthor: hasAuthor,
		content:   p.String("post.content"),
		changed:   p.Bool("post.changed"),
		editedMs:  p.Int("post.edited"),
		editor: render.User{
			UID:      uid,
			Username: p.String("editor.username"),
			Userslug: p.String("editor.userslug"),
		},
		slug:      p.String("topic.slug"),
		title:     p.String("topic.title"),
		renamed:   p.Bool("topic.renamed"),
		moved:     p.Bool("topic.rescheduled"),
		tagsDirty: p.Has("topic.tags") && p.Bool("topic.tagsupdated"),
	}, nil
}

// authorOf returns the post's author from the payload, falling back to the
// uid the post element carries.
func (e edit) authorOf(post view.Elements) (int64, bool) {
	if e.hasAuthor {
		return e.author, true
	}
	raw, ok := post.Attr("data-uid")
	if !ok {
		return 0, false
	}
	return ident.Parse(raw)
}

// onPostEdited reconciles an edit of a post in the displayed topic.
//
// A rescheduled topic navigates away and nothing else happens. Otherwise
// the title, content and tag updates run on separate tracks; within the
// content track the swap waits for the fade-out and the edit indicator
// waits for the fade-in. The post's action menu is always closed.
func (h *Handlers) onPostEdited(ctx context.Context, evt event.Event) error {
	tid, err := evt.RequireID("post.tid")
	if err != nil {
		return err
	}
	if tid != h.page.Session.Current().TopicID {
		return nil
	}
	e, err := decodeEdit(evt)
	if err != nil {
		return err
	}

	if e.moved {
		return h.nav.Go(ctx, "topic/"+e.slug, nav.Options{Reason: string(evt.Kind)}, true)
	}

	if e.renamed && e.title != "" && !h.page.Doc.Component("topic/title").Empty() {
		h.retitle(ctx, e)
	}

	if e.changed {
		h.replaceContent(ctx, evt, e)
	} else {
		h.hooks.Fire(ctx, hook.ActionPostsEdited, evt.Payload)
	}

	if e.tagsDirty {
		h.tags.Update(ctx, topic.TagsFromPayload(evt.Payload, "topic.tags"))
	}

	h.postTools.RemoveMenu(h.page.PostElement(e.pid))
	return nil
}

// retitle records the new title, rewrites the location without
// navigating and fades the three title surfaces independently.
func (h *Handlers) retitle(ctx context.Context, e edit) {
	h.page.Session.SetTitle(e.title)
	if h.history != nil {
		h.history.ReplaceState("topic/" + e.slug + h.history.Location().Search)
	}

	surfaces := []struct {
		track string
		els   view.Elements
	}{
		{"title/topic", h.page.Doc.Component("topic/title")},
		{"title/navbar", h.page.Doc.Component("navbar/title").Find("span")},
		{"title/breadcrumb", h.page.Doc.Component("breadcrumb/current")},
	}
	for _, s := range surfaces {
		els := s.els
		h.seq.Track(s.track).
			FadeOut(els, h.timing.Fade).
			Do("swap", func() { els.SetText(e.title) }).
			FadeIn(els, h.timing.Fade).
			Start(ctx)
	}
}

// replaceContent runs the content track. Every element it touches is
// resolved before the first step so later DOM changes cannot redirect it.
func (h *Handlers) replaceContent(ctx context.Context, evt event.Event, e edit) {
	ref := view.Post(e.pid)
	post := h.page.PostElement(e.pid)
	content := h.page.Doc.Resolve(ref, view.Component("post/content"))
	editor := h.page.Doc.Resolve(ref, view.Component("post/editor"))
	indicator := h.page.Doc.Resolve(ref, view.Component("post/edit-indicator"))

	track := h.seq.Track("post-content").
		FadeOut(content, h.timing.Fade).
		Do("swap", func() {
			// The post may have been deleted while the fade ran.
			if post.HasClass("deleted") && h.redacts(e.authorOf(post)) {
				content.SetHTML(h.page.Tr.Translate(i18n.KeyPostIsDeleted))
				return
			}
			content.SetHTML(i18n.Unescape(e.content))
			view.MakeResponsive(content)
			view.WrapImagesInLinks(content.Parent())
			view.AddBlockquoteEllipses(content.Parent())
		}).
		FadeIn(content, h.timing.Fade)

	if e.editedMs > 0 {
		edited := time.UnixMilli(e.editedMs).UTC()
		data := render.EditorData{Editor: e.editor, EditedISO: edited.Format(isoMillis)}
		track = track.Fetch("editor", func(ctx context.Context) (string, error) {
			return h.render.Render(ctx, render.PostEditor, data)
		}, func(html string) {
			editor.ReplaceWith(html)
			indicator.RemoveClass("hidden").
				SetAttr("title", h.page.Tr.Translate(i18n.KeyEditedTimestamp, h.page.Tr.FormatTime(edited)))
		})
	}

	track.Do("notify", func() {
		h.hooks.Fire(ctx, hook.ActionPostsEdited, evt.Payload)
	}).Start(ctx)
}
