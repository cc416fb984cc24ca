// Package session holds the identity of the topic currently displayed.
//
// The Store is written by the navigation path only. Reconciliation handlers
// read it through the Context interface and may write back the two derived
// values the page keeps in sync with live events: the post count and the
// title.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
)

// ErrInvalidPageData is returned when page data cannot be decoded.
var ErrInvalidPageData = errors.New("invalid page data")

// Privileges are the viewer's permissions on the displayed topic.
type Privileges struct {
	IsAdminOrMod bool
}

// Snapshot is an immutable copy of the current context.
type Snapshot struct {
	// TopicID is the displayed resource. Zero means no topic is displayed.
	TopicID int64

	// Title and Slug describe the displayed topic.
	Title string
	Slug  string

	// CategorySlug is the parent category, empty when unknown.
	CategorySlug string

	// ViewerID is the uid of the signed-in viewer, zero for guests.
	ViewerID int64

	Privileges Privileges

	// PostCount is the number of posts shown in the topic header.
	PostCount int64
}

// Context is the view of the store handed to reconciliation handlers.
type Context interface {
	// Current returns a copy of the live context.
	Current() Snapshot

	// SetPostCount records a new post count.
	SetPostCount(n int64)

	// SetTitle records a new topic title.
	SetTitle(title string)
}

// Store is the single-writer context registry.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
	version uint64
}

// NewStore creates a store holding s.
func NewStore(s Snapshot) *Store {
	return &Store{current: s}
}

// Current returns a copy of the live context.
func (st *Store) Current() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Replace swaps the whole context. It is called on navigation.
func (st *Store) Replace(s Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.current = s
	st.version++
}

// Version counts Replace calls.
func (st *Store) Version() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.version
}

// SetPostCount records a new post count. Negative counts are clamped to zero.
func (st *Store) SetPostCount(n int64) {
	if n < 0 {
		n = 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.current.PostCount = n
}

// SetTitle records a new topic title.
func (st *Store) SetTitle(title string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.current.Title = title
}

// FromPageData decodes the JSON blob a rendered topic page embeds for its
// client scripts. Ids may be numbers or numeric strings.
//
//	{"tid": 42, "title": "...", "slug": "42/hello", "postcount": 3,
//	 "category": {"slug": "1/general"}, "privileges": {"isAdminOrMod": false}}
func FromPageData(raw []byte, viewerID int64) (Snapshot, error) {
	if !gjson.ValidBytes(raw) {
		return Snapshot{}, fmt.Errorf("%w: not valid JSON", ErrInvalidPageData)
	}
	data := gjson.ParseBytes(raw)
	if !data.IsObject() {
		return Snapshot{}, fmt.Errorf("%w: expected an object", ErrInvalidPageData)
	}

	tid := data.Get("tid")
	if !tid.Exists() {
		return Snapshot{}, fmt.Errorf("%w: missing tid", ErrInvalidPageData)
	}

	return Snapshot{
		TopicID:      tid.Int(),
		Title:        data.Get("title").String(),
		Slug:         data.Get("slug").String(),
		CategorySlug: data.Get("category.slug").String(),
		ViewerID:     viewerID,
		Privileges: Privileges{
			IsAdminOrMod: data.Get("privileges.isAdminOrMod").Bool(),
		},
		PostCount: data.Get("postcount").Int(),
	}, nil
}
