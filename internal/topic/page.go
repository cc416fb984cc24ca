package topic

import (
	"fmt"

	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/session"
	"github.com/dshills/topicview/internal/view"
)

// Page is the state shared by the widgets of one displayed topic.
type Page struct {
	Doc     *view.Document
	Session session.Context
	Tr      *i18n.Translator

	// RelativePath is the forum mount point, such as "/forum".
	RelativePath string
}

// TopicElement returns the topic container.
func (p *Page) TopicElement() view.Elements {
	return p.Doc.Component("topic")
}

// PostElement returns the post element for pid. Quoted copies of the
// post are not included.
func (p *Page) PostElement(pid int64) view.Elements {
	return p.Doc.Entity("post", view.Post(pid))
}

// OwnTopic reports whether tid names the topic element on the page.
func (p *Page) OwnTopic(tid int64) bool {
	id, ok := view.OwnerID(p.TopicElement(), view.AttrTopic)
	return ok && id == tid
}

// HumanReadable shortens large counts: 1234 becomes "1.2k" and
// 2500000 becomes "2.5m".
func HumanReadable(n int64) string {
	switch {
	case n > 999999:
		return fmt.Sprintf("%.1fm", float64(n)/1000000)
	case n > 999:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// setHiddenAttr sets or clears the hidden attribute on the parents of els,
// matching the menu items wrapping each tool.
func setHiddenAttr(els view.Elements, hidden bool) {
	parents := els.Parent()
	if hidden {
		parents.SetAttr("hidden", "")
		return
	}
	parents.RemoveAttr("hidden")
}

// toggleTool hides or shows tool items and their menu wrappers.
func toggleTool(els view.Elements, hidden bool) {
	els.SetClass("hidden", hidden)
	setHiddenAttr(els, hidden)
}
