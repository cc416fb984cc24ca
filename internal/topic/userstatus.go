package topic

import (
	"github.com/dshills/topicview/internal/view"
)

// Statuses a user indicator can show.
var Statuses = []string{"online", "away", "dnd", "offline"}

// UserStatus updates presence indicators.
type UserStatus struct {
	page *Page
}

// NewUserStatus creates the widget.
func NewUserStatus(p *Page) *UserStatus {
	return &UserStatus{page: p}
}

// Update sets the status class and localized title on every indicator of
// uid. Unknown statuses are shown as offline.
func (u *UserStatus) Update(uid int64, status string) int {
	if !validStatus(status) {
		status = "offline"
	}
	els := u.page.Doc.Resolve(view.User(uid), view.Component("user/status"))
	if els.Empty() {
		return 0
	}
	title := u.page.Tr.Translate("global:" + status)
	els.RemoveClass(Statuses...).
		AddClass(status).
		SetAttr("title", title).
		SetAttr("data-original-title", title)
	return els.Len()
}

func validStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}
