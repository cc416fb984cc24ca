package topic

import (
	"strconv"
	"strings"

	"github.com/dshills/topicview/internal/view"
)

var postActionTools = strings.Join([]string{
	view.Component("post/quote"),
	view.Component("post/bookmark"),
	view.Component("post/reply"),
	view.Component("post/flag"),
	view.Component("user/chat"),
}, ", ")

// PostTools manages the action tools of each post.
type PostTools struct {
	page *Page
}

// NewPostTools creates the widget.
func NewPostTools(p *Page) *PostTools {
	return &PostTools{page: p}
}

// Toggle swaps the tools of a post between its normal and deleted sets
// and closes its open menu.
func (t *PostTools) Toggle(pid int64, isDeleted bool) {
	post := t.page.PostElement(pid)
	if post.Empty() {
		return
	}
	own := view.Disambiguate(view.Post(pid))

	post.Find(postActionTools).Filter(own).SetClass("hidden", isDeleted)
	toggleTool(post.Find(view.Component("post/delete")).Filter(own), isDeleted)
	toggleTool(post.Find(view.Component("post/restore")).Filter(own), !isDeleted)
	toggleTool(post.Find(view.Component("post/purge")).Filter(own), !isDeleted)

	t.RemoveMenu(post)
}

// RemoveMenu empties the loaded action menu of the given posts so it is
// rebuilt from fresh state the next time it opens.
func (t *PostTools) RemoveMenu(posts view.Elements) {
	posts.Find(view.Component("post/tools") + " .dropdown-menu").
		RemoveAttr("data-loaded").
		SetHTML("")
}

// UpdatePostCount writes the topic post count. The title carries the
// exact number and the text a shortened one.
func (t *PostTools) UpdatePostCount(n int64) {
	el := t.page.Doc.Component("topic/post-count")
	el.SetAttr("title", strconv.FormatInt(n, 10)).
		SetAttr("data-count", strconv.FormatInt(n, 10)).
		SetHTML(HumanReadable(n))
}
