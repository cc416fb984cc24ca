package view

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Elements is a possibly empty set of page elements. Every mutator is a
// no-op on an empty set.
type Elements struct {
	sel *goquery.Selection
}

// Len returns the number of elements.
func (e Elements) Len() int {
	if e.sel == nil {
		return 0
	}
	return e.sel.Length()
}

// Empty reports whether the set has no elements.
func (e Elements) Empty() bool {
	return e.Len() == 0
}

func (e Elements) selection() *goquery.Selection {
	if e.sel == nil {
		return &goquery.Selection{}
	}
	return e.sel
}

// Find selects descendants matching selector.
func (e Elements) Find(selector string) Elements {
	return Elements{sel: e.selection().Find(selector)}
}

// Filter keeps the elements matching p.
func (e Elements) Filter(p Predicate) Elements {
	return Elements{sel: e.selection().FilterFunction(p)}
}

// Parent selects the parents of the elements.
func (e Elements) Parent() Elements {
	return Elements{sel: e.selection().Parent()}
}

// Each calls fn with each element as a single-element set.
func (e Elements) Each(fn func(i int, el Elements)) {
	e.selection().Each(func(i int, s *goquery.Selection) {
		fn(i, Elements{sel: s})
	})
}

// Is reports whether any element matches selector.
func (e Elements) Is(selector string) bool {
	return e.selection().Is(selector)
}

// HTML returns the inner HTML of the first element.
func (e Elements) HTML() string {
	if e.Empty() {
		return ""
	}
	h, _ := e.sel.Html()
	return h
}

// OuterHTML returns the HTML of the first element including itself.
func (e Elements) OuterHTML() string {
	if e.Empty() {
		return ""
	}
	h, _ := goquery.OuterHtml(e.sel.First())
	return h
}

// Text returns the combined text of the elements.
func (e Elements) Text() string {
	return e.selection().Text()
}

// SetHTML replaces the content of every element.
func (e Elements) SetHTML(html string) Elements {
	e.selection().SetHtml(html)
	return e
}

// SetText replaces the content of every element with escaped text.
func (e Elements) SetText(text string) Elements {
	e.selection().SetText(text)
	return e
}

// Attr returns the attribute of the first element.
func (e Elements) Attr(name string) (string, bool) {
	return e.selection().Attr(name)
}

// SetAttr sets an attribute on every element.
func (e Elements) SetAttr(name, value string) Elements {
	e.selection().SetAttr(name, value)
	return e
}

// RemoveAttr removes an attribute from every element.
func (e Elements) RemoveAttr(name string) Elements {
	e.selection().RemoveAttr(name)
	return e
}

// HasClass reports whether any element has class.
func (e Elements) HasClass(class string) bool {
	return e.selection().HasClass(class)
}

// AddClass adds classes to every element.
func (e Elements) AddClass(classes ...string) Elements {
	e.selection().AddClass(classes...)
	return e
}

// RemoveClass removes classes from every element.
func (e Elements) RemoveClass(classes ...string) Elements {
	e.selection().RemoveClass(classes...)
	return e
}

// ToggleClass flips class on each element independently.
func (e Elements) ToggleClass(class string) Elements {
	e.selection().ToggleClass(class)
	return e
}

// SetClass adds class when on is true and removes it otherwise.
func (e Elements) SetClass(class string, on bool) Elements {
	if on {
		return e.AddClass(class)
	}
	return e.RemoveClass(class)
}

// Remove detaches the elements from the page.
func (e Elements) Remove() {
	e.selection().Remove()
}

// ReplaceWith replaces each element with html.
func (e Elements) ReplaceWith(html string) {
	e.selection().ReplaceWithHtml(html)
}

// Append adds html as the last child of each element.
func (e Elements) Append(html string) Elements {
	e.selection().AppendHtml(html)
	return e
}

// Wrap wraps each element in html.
func (e Elements) Wrap(html string) Elements {
	e.selection().WrapHtml(html)
	return e
}

// Hide sets an inline display:none on every element.
func (e Elements) Hide() Elements {
	e.Each(func(_ int, el Elements) {
		decls := styleDecls(el)
		decls = append(decls, "display: none")
		el.setStyle(decls)
	})
	return e
}

// Show removes any inline display declaration from every element.
func (e Elements) Show() Elements {
	e.Each(func(_ int, el Elements) {
		el.setStyle(styleDecls(el))
	})
	return e
}

// Hidden reports whether the first element has an inline display:none.
func (e Elements) Hidden() bool {
	if e.Empty() {
		return false
	}
	v, _ := e.sel.First().Attr("style")
	for _, d := range strings.Split(v, ";") {
		name, value, ok := strings.Cut(d, ":")
		if ok && strings.TrimSpace(name) == "display" && strings.TrimSpace(value) == "none" {
			return true
		}
	}
	return false
}

// styleDecls returns the element's inline declarations without display.
func styleDecls(el Elements) []string {
	v, _ := el.sel.Attr("style")
	var decls []string
	for _, d := range strings.Split(v, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if name, _, _ := strings.Cut(d, ":"); strings.TrimSpace(name) == "display" {
			continue
		}
		decls = append(decls, d)
	}
	return decls
}

func (e Elements) setStyle(decls []string) {
	if len(decls) == 0 {
		e.sel.RemoveAttr("style")
		return
	}
	e.sel.SetAttr("style", strings.Join(decls, "; ")+";")
}
