package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/sjson"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/hook"
	"github.com/dshills/topicview/internal/i18n"
	"github.com/dshills/topicview/internal/logging"
	"github.com/dshills/topicview/internal/nav"
	"github.com/dshills/topicview/internal/render"
	"github.com/dshills/topicview/internal/topic"
	"github.com/dshills/topicview/internal/transition"
	"github.com/dshills/topicview/internal/view"
)

// Timing holds transition durations.
type Timing struct {
	// Fade is used by title and content transitions.
	Fade time.Duration
	// PurgeFade is used when a purged post is removed.
	PurgeFade time.Duration
}

// DefaultTiming returns the durations the forum theme uses.
func DefaultTiming() Timing {
	return Timing{Fade: 250 * time.Millisecond, PurgeFade: 500 * time.Millisecond}
}

// Emitter sends acknowledgements back to the server.
type Emitter interface {
	Emit(ctx context.Context, kind event.Kind, payload []byte) error
}

// Deps are the collaborators of the handlers.
type Deps struct {
	Page      *topic.Page
	Emitter   Emitter
	Navigator nav.Navigator
	History   nav.History
	Renderer  render.Renderer
	Hooks     *hook.Hooks
	Sequencer *transition.Sequencer
	Logger    *logging.Logger
	Timing    Timing
}

// Handlers reconciles one topic page.
type Handlers struct {
	page    *topic.Page
	emitter Emitter
	nav     nav.Navigator
	history nav.History
	render  render.Renderer
	hooks   *hook.Hooks
	seq     *transition.Sequencer
	logger  *logging.Logger
	timing  Timing

	postTools   *topic.PostTools
	threadTools *topic.ThreadTools
	replies     *topic.Replies
	posts       *topic.Posts
	tags        *topic.Tags
	userStatus  *topic.UserStatus
}

// NewHandlers creates the handlers and the page widgets they delegate to.
func NewHandlers(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.Hooks == nil {
		d.Hooks = hook.New(d.Logger)
	}
	postTools := topic.NewPostTools(d.Page)
	replies := topic.NewReplies(d.Page)
	return &Handlers{
		page:    d.Page,
		emitter: d.Emitter,
		nav:     d.Navigator,
		history: d.History,
		render:  d.Renderer,
		hooks:   d.Hooks,
		seq:     d.Sequencer,
		logger:  d.Logger.WithComponent("reconcile"),
		timing:  d.Timing,

		postTools:   postTools,
		threadTools: topic.NewThreadTools(d.Page, postTools),
		replies:     replies,
		posts:       topic.NewPosts(d.Page, d.Renderer, d.Sequencer, postTools, replies),
		tags:        topic.NewTags(d.Page, d.Renderer, d.Sequencer, d.Timing.Fade),
		userStatus:  topic.NewUserStatus(d.Page),
	}
}

// Registrations returns the fixed handler table of a topic page.
func (h *Handlers) Registrations() []Registration {
	eventOnly := func(fn func(event.Event) error) event.HandlerFunc {
		return func(_ context.Context, evt event.Event) error { return fn(evt) }
	}
	return []Registration{
		{KindUserStatusChange, event.HandlerFunc(h.onUserStatusChange)},
		{KindVoted, event.HandlerFunc(h.onVoted)},
		{KindBookmarked, event.HandlerFunc(h.onBookmarked)},

		{KindTopicDeleted, eventOnly(h.threadTools.SetDeleteState)},
		{KindTopicRestored, eventOnly(h.threadTools.SetDeleteState)},
		{KindTopicPurged, event.HandlerFunc(h.onTopicPurged)},

		{KindTopicLocked, eventOnly(h.threadTools.SetLockedState)},
		{KindTopicUnlocked, eventOnly(h.threadTools.SetLockedState)},

		{KindTopicPinned, eventOnly(h.threadTools.SetPinnedState)},
		{KindTopicUnpinned, eventOnly(h.threadTools.SetPinnedState)},

		{KindTopicMoved, event.HandlerFunc(h.onTopicMoved)},

		{KindPostEdited, event.HandlerFunc(h.onPostEdited)},
		{KindPostPurged, event.HandlerFunc(h.onPostPurged)},

		{KindPostDeleted, event.HandlerFunc(h.onPostDeleteToggle)},
		{KindPostRestored, event.HandlerFunc(h.onPostDeleteToggle)},

		{KindPostBookmark, event.HandlerFunc(h.onPostBookmark)},
		{KindPostUnbookmark, event.HandlerFunc(h.onPostBookmark)},

		{KindPostUpvote, event.HandlerFunc(h.onPostVote)},
		{KindPostDownvote, event.HandlerFunc(h.onPostVote)},
		{KindPostUnvote, event.HandlerFunc(h.onPostVote)},

		{KindPostEndorsed, event.HandlerFunc(h.onPostEndorsed)},

		{KindNewNotification, event.HandlerFunc(h.onNewNotification)},
		{KindNewPost, event.HandlerFunc(h.posts.OnNewPost)},
	}
}

// Table builds the validated table from Registrations.
func (h *Handlers) Table() (*Table, error) {
	return NewTable(h.Registrations()...)
}

func (h *Handlers) onUserStatusChange(_ context.Context, evt event.Event) error {
	uid, err := evt.RequireID("uid")
	if err != nil {
		return err
	}
	h.userStatus.Update(uid, evt.Payload.String("status"))
	return nil
}

func (h *Handlers) onVoted(_ context.Context, evt event.Event) error {
	pid, err := evt.RequireID("post.pid")
	if err != nil {
		return err
	}
	n, err := evt.RequireInt("post.votes")
	if err != nil {
		return err
	}
	votes := strconv.FormatInt(n, 10)
	h.page.Doc.Resolve(view.Post(pid), view.Component("post/vote-count")).
		SetText(votes).
		SetAttr("data-votes", votes)

	if uid, ok := evt.Payload.ID("post.uid"); ok && evt.Payload.Has("user.reputation") {
		rep := strconv.FormatInt(evt.Payload.Int("user.reputation"), 10)
		h.page.Doc.Resolve(view.User(uid), ".reputation").
			SetText(rep).
			SetAttr("data-reputation", rep)
	}
	return nil
}

func (h *Handlers) onBookmarked(_ context.Context, evt event.Event) error {
	pid, err := evt.RequireID("post.pid")
	if err != nil {
		return err
	}
	n, err := evt.RequireInt("post.bookmarks")
	if err != nil {
		return err
	}
	count := strconv.FormatInt(n, 10)
	h.page.Doc.Resolve(view.Post(pid), ".bookmarkCount").
		SetText(count).
		SetAttr("data-bookmarks", count)
	return nil
}

func (h *Handlers) onTopicPurged(ctx context.Context, evt event.Event) error {
	tid, err := evt.RequireID("tid")
	if err != nil {
		return err
	}
	snap := h.page.Session.Current()
	if snap.CategorySlug == "" || tid != snap.TopicID {
		return nil
	}
	return h.nav.Go(ctx, "category/"+snap.CategorySlug, nav.Options{Reason: string(evt.Kind)}, true)
}

func (h *Handlers) onTopicMoved(ctx context.Context, evt event.Event) error {
	slug := evt.Payload.String("slug")
	tid, ok := evt.Payload.ID("tid")
	if slug == "" || !ok || tid != h.page.Session.Current().TopicID {
		return nil
	}
	h.hooks.Fire(ctx, hook.ActionTopicMoved, evt.Payload)
	return h.nav.Go(ctx, "topic/"+slug, nav.Options{Reason: string(evt.Kind)}, true)
}

func (h *Handlers) onPostPurged(ctx context.Context, evt event.Event) error {
	tid, err := evt.RequireID("tid")
	if err != nil {
		return err
	}
	snap := h.page.Session.Current()
	if tid != snap.TopicID {
		return nil
	}
	pid, err := evt.RequireID("pid")
	if err != nil {
		return err
	}

	post := h.page.PostElement(pid)
	h.seq.Track("post-purge").
		FadeOut(post, h.timing.PurgeFade).
		Do("remove", func() {
			post.Remove()
			h.posts.ShowBottomPostBar()
		}).
		Start(ctx)

	h.page.Session.SetPostCount(snap.PostCount - 1)
	h.postTools.UpdatePostCount(h.page.Session.Current().PostCount)
	h.replies.OnPostPurged(evt.Payload)
	h.hooks.Fire(ctx, hook.ActionPostPurged, evt.Payload)
	return nil
}

// onPostDeleteToggle flips the deleted state of a post. Viewers without
// moderation rights who do not own the post see the localized placeholder
// instead of its content while it is deleted; the payload content is only
// shown again on restore.
func (h *Handlers) onPostDeleteToggle(_ context.Context, evt event.Event) error {
	pid, err := evt.RequireID("pid")
	if err != nil {
		return err
	}
	post := h.page.PostElement(pid)
	if post.Empty() {
		return nil
	}

	post.ToggleClass("deleted")
	isDeleted := post.HasClass("deleted")
	h.postTools.Toggle(pid, isDeleted)

	if !h.redacts(evt.Payload.ID("uid")) {
		return nil
	}

	own := view.Disambiguate(view.Post(pid))
	post.Find(view.Component("post/tools")).Filter(own).SetClass("hidden", isDeleted)
	content := post.Find(view.Component("post/content")).Filter(own)
	if isDeleted {
		content.SetHTML(h.page.Tr.Translate(i18n.KeyPostIsDeleted))
	} else {
		content.SetHTML(i18n.Unescape(evt.Payload.String("content")))
	}
	return nil
}

// redacts reports whether the viewer sees the deleted placeholder in place
// of a deleted post written by uid. Guests never own a post.
func (h *Handlers) redacts(uid int64, hasUID bool) bool {
	snap := h.page.Session.Current()
	owner := hasUID && snap.ViewerID != 0 && uid == snap.ViewerID
	return !snap.Privileges.IsAdminOrMod && !owner
}

func (h *Handlers) onPostBookmark(_ context.Context, evt event.Event) error {
	pid, err := evt.RequireID("post.pid")
	if err != nil {
		return err
	}
	el := h.page.Doc.Resolve(view.Post(pid), view.Component("post/bookmark"))
	if el.Empty() {
		return nil
	}
	on := evt.Payload.Bool("isBookmarked")
	el.SetAttr("data-bookmarked", strconv.FormatBool(on))
	el.Find(view.Component("post/bookmark/on")).SetClass("hidden", !on)
	el.Find(view.Component("post/bookmark/off")).SetClass("hidden", on)
	return nil
}

// onPostVote applies {post: {pid}, upvote, downvote}. The two flags are
// independent.
func (h *Handlers) onPostVote(_ context.Context, evt event.Event) error {
	pid, err := evt.RequireID("post.pid")
	if err != nil {
		return err
	}
	ref := view.Post(pid)
	h.page.Doc.Resolve(ref, view.Component("post/upvote")).SetClass("upvoted", evt.Payload.Bool("upvote"))
	h.page.Doc.Resolve(ref, view.Component("post/downvote")).SetClass("downvoted", evt.Payload.Bool("downvote"))
	return nil
}

func (h *Handlers) onPostEndorsed(_ context.Context, evt event.Event) error {
	pid, err := evt.RequireID("postId")
	if err != nil {
		return err
	}
	h.page.Doc.Resolve(view.Post(pid), "["+string(view.AttrPost)+"]").AddClass("endorsed")
	return nil
}

func (h *Handlers) onNewNotification(ctx context.Context, evt event.Event) error {
	tid, ok := evt.Payload.ID("tid")
	current := h.page.Session.Current().TopicID
	if !ok || tid == 0 || tid != current {
		return nil
	}
	payload, err := sjson.SetBytes([]byte("[]"), "-1", current)
	if err != nil {
		return fmt.Errorf("build acknowledgement: %w", err)
	}
	if err := h.emitter.Emit(ctx, KindMarkNotificationsRead, payload); err != nil {
		return fmt.Errorf("acknowledge notifications: %w", err)
	}
	return nil
}
