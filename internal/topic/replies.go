package topic

import (
	"strconv"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/ident"
	"github.com/dshills/topicview/internal/view"
)

// Replies maintains the "N replies" counter shown under a post that other
// posts reply to.
type Replies struct {
	page *Page
}

// NewReplies creates the widget.
func NewReplies(p *Page) *Replies {
	return &Replies{page: p}
}

// OnPostPurged decrements the counter of the post the purged post replied
// to. Posts that were not replies are ignored.
func (r *Replies) OnPostPurged(data event.Payload) {
	toPid, ok := data.ID("toPid")
	if !ok {
		return
	}
	r.increment(toPid, -1, data.String("timestampISO"))
}

// OnNewReply increments the counter of the post a new post replies to.
func (r *Replies) OnNewReply(post event.Payload) {
	toPid, ok := post.ID("toPid")
	if !ok {
		return
	}
	r.increment(toPid, 1, post.String("timestampISO"))
}

func (r *Replies) increment(toPid int64, inc int64, timestampISO string) {
	own := view.Disambiguate(view.Post(toPid))
	counter := r.page.PostElement(toPid).Find(view.Component("post/reply-count")).Filter(own)
	if counter.Empty() {
		return
	}
	text := counter.Find(view.Component("post/reply-count/text"))

	raw, _ := text.Attr("data-replies")
	current, _ := ident.Parse(raw)
	count := current + inc
	if count < 0 {
		count = 0
	}

	if timestampISO != "" && inc > 0 {
		counter.Find(".timeago").SetAttr("title", timestampISO)
	}
	text.SetAttr("data-replies", strconv.FormatInt(count, 10))
	counter.SetClass("hidden", count <= 0)
	if count > 1 {
		text.SetHTML(r.page.Tr.Translate(i18n.KeyReplies, strconv.FormatInt(count, 10)))
	} else {
		text.SetHTML(r.page.Tr.Translate(i18n.KeyOneReply))
	}
}
