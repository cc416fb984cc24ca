package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed, mutable rendered page.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString reads an HTML page from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// HTML renders the current state of the page.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Find selects every element matching selector.
func (d *Document) Find(selector string) Elements {
	return Elements{sel: d.doc.Find(selector)}
}

// Component selects every element with the given component name.
func (d *Document) Component(name string) Elements {
	return d.Find(Component(name))
}

// Resolve selects the elements matching selector that belong to ref.
// An element belongs to ref when its closest ancestor-or-self carrying
// ref's attribute has the same numeric id. The result may be empty.
func (d *Document) Resolve(ref EntityRef, selector string) Elements {
	return d.Find(selector).Filter(Disambiguate(ref))
}

// Entity selects the component elements that carry ref's id themselves,
// such as the post element for a pid.
func (d *Document) Entity(component string, ref EntityRef) Elements {
	return d.Resolve(ref, Component(component)+"["+string(ref.Attr)+"]")
}

// Component returns the attribute selector for a component name.
func Component(name string) string {
	return `[component="` + name + `"]`
}
