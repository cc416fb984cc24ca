package render

import (
	"html/template"
	"net/url"
	"strings"
)

// User is the author or editor of a post.
type User struct {
	UID        int64
	Username   string
	Userslug   string
	Status     string
	Reputation int64
}

// EditorData is the input of the post-editor partial.
type EditorData struct {
	Editor    User
	EditedISO string
}

// Tag is one topic tag.
type Tag struct {
	Value   string
	Color   string
	BgColor string
}

// ValueEscaped is the tag as a path segment.
func (t Tag) ValueEscaped() string {
	return url.PathEscape(t.Value)
}

// Class is the tag as a css class suffix.
func (t Tag) Class() string {
	return strings.ReplaceAll(strings.ToLower(t.Value), " ", "-")
}

// TagsData is the input of the tags partial.
type TagsData struct {
	RelativePath string
	Tags         []Tag
}

// PostData is the input of the post partial.
type PostData struct {
	RelativePath string
	Index        int64
	PID          int64
	UID          int64
	Timestamp    int64
	Deleted      bool
	Votes        int64
	Bookmarks    int64
	// Content is server-rendered post HTML.
	Content    template.HTML
	User       User
	EditorData EditorData
}
