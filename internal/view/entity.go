package view

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/dshills/topicview/internal/ident"
)

// Attr is an entity id attribute on rendered elements.
type Attr string

const (
	AttrPost  Attr = "data-pid"
	AttrUser  Attr = "data-uid"
	AttrTopic Attr = "data-tid"
)

// EntityRef identifies one entity on the page.
type EntityRef struct {
	Attr Attr
	ID   int64
}

// Post references a post by pid.
func Post(pid int64) EntityRef { return EntityRef{Attr: AttrPost, ID: pid} }

// User references a user by uid.
func User(uid int64) EntityRef { return EntityRef{Attr: AttrUser, ID: uid} }

// Topic references a topic by tid.
func Topic(tid int64) EntityRef { return EntityRef{Attr: AttrTopic, ID: tid} }

// String returns the ref as an attribute selector, for logs.
func (r EntityRef) String() string {
	return "[" + string(r.Attr) + `="` + strconv.FormatInt(r.ID, 10) + `"]`
}

// Predicate reports whether an element is kept by a filter.
type Predicate func(i int, s *goquery.Selection) bool

// Disambiguate returns the predicate used by Resolve: it keeps an element
// only when the closest ancestor-or-self carrying ref.Attr parses to ref.ID.
// Elements with no such ancestor are dropped.
func Disambiguate(ref EntityRef) Predicate {
	sel := "[" + string(ref.Attr) + "]"
	return func(_ int, s *goquery.Selection) bool {
		owner := s.Closest(sel)
		if owner.Length() == 0 {
			return false
		}
		v, _ := owner.Attr(string(ref.Attr))
		id, ok := ident.Parse(v)
		return ok && id == ref.ID
	}
}

// OwnerID reads the id of the entity that owns the first element, by the
// same closest-ancestor rule. It reports false when there is none.
func OwnerID(e Elements, attr Attr) (int64, bool) {
	if e.Len() == 0 {
		return 0, false
	}
	v, ok := e.sel.First().Closest("[" + string(attr) + "]").Attr(string(attr))
	if !ok {
		return 0, false
	}
	return ident.Parse(v)
}
