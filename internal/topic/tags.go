package topic

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/render"
	"github.com/dshills/topicview/internal/transition"
)

// Tags re-renders the topic tag list.
type Tags struct {
	page     *Page
	renderer render.Renderer
	seq      *transition.Sequencer
	fade     time.Duration
}

// NewTags creates the widget. fade is the duration of the tag list fade.
func NewTags(p *Page, r render.Renderer, seq *transition.Sequencer, fade time.Duration) *Tags {
	return &Tags{page: p, renderer: r, seq: seq, fade: fade}
}

// Update starts a track that renders tags and swaps them into the list.
// The track is independent of any other transition.
func (t *Tags) Update(ctx context.Context, tags []render.Tag) {
	el := t.page.Doc.Component("topic/tags")
	if el.Empty() {
		return
	}
	data := render.TagsData{RelativePath: t.page.RelativePath, Tags: tags}
	t.seq.Track("tags").
		Fetch("render", func(ctx context.Context) (string, error) {
			return t.renderer.Render(ctx, render.Tags, data)
		}, func(html string) {
			el.SetHTML(html)
		}).
		FadeIn(el, t.fade).
		Start(ctx)
}

// TagsFromPayload reads a tag list in the server's shape:
// [{"value": "go", "color": "", "bgColor": ""}].
func TagsFromPayload(p event.Payload, path string) []render.Tag {
	var tags []render.Tag
	p.Get(path).ForEach(func(_, v gjson.Result) bool {
		tags = append(tags, render.Tag{
			Value:   v.Get("value").String(),
			Color:   v.Get("color").String(),
			BgColor: v.Get("bgColor").String(),
		})
		return true
	})
	return tags
}
