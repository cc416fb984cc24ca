// Package render turns partial templates into translated markup for the
// fragments the reconciliation code inserts into the page.
package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/dshills/topicview/internal/i18n"
)

// Partial names.
const (
	PostEditor = "partials/topic/post-editor"
	Tags       = "partials/topic/tags"
	Post       = "partials/topic/post"
)

// ErrUnknownTemplate is returned for a name with no template.
var ErrUnknownTemplate = errors.New("unknown template")

//go:embed templates
var builtin embed.FS

// Renderer is the rendering collaborator used by page widgets.
type Renderer interface {
	Render(ctx context.Context, name string, data any) (string, error)
}

// Templates renders the embedded partials, optionally overridden by
// templates from another file system.
type Templates struct {
	tmpl *template.Template
	tr   *i18n.Translator
}

// Option configures Templates.
type Option func(*options)

type options struct {
	overrides fs.FS
	pattern   string
}

// WithOverrides parses templates matching pattern from fsys after the
// built-in ones. A define with an existing name replaces the built-in.
func WithOverrides(fsys fs.FS, pattern string) Option {
	return func(o *options) {
		o.overrides = fsys
		o.pattern = pattern
	}
}

// New parses the partial templates. tr translates rendered tokens.
func New(tr *i18n.Translator, opts ...Option) (*Templates, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tmpl, err := template.New("partials").ParseFS(builtin, "templates/partials/topic/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if o.overrides != nil {
		if tmpl, err = tmpl.ParseFS(o.overrides, o.pattern); err != nil {
			return nil, fmt.Errorf("parse template overrides: %w", err)
		}
	}
	return &Templates{tmpl: tmpl, tr: tr}, nil
}

// Render executes the named partial and translates the result.
func (t *Templates) Render(ctx context.Context, name string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl := t.tmpl.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	if t.tr == nil {
		return buf.String(), nil
	}
	return t.tr.Compile(buf.String()), nil
}
