package reconcile

import "github.com/dshills/topicview/internal/event"

// Event kinds handled on a topic page.
const (
	KindUserStatusChange event.Kind = "event:user_status_change"
	KindVoted            event.Kind = "event:voted"
	KindBookmarked       event.Kind = "event:bookmarked"

	KindTopicDeleted  event.Kind = "event:topic_deleted"
	KindTopicRestored event.Kind = "event:topic_restored"
	KindTopicPurged   event.Kind = "event:topic_purged"

	KindTopicLocked   event.Kind = "event:topic_locked"
	KindTopicUnlocked event.Kind = "event:topic_unlocked"

	KindTopicPinned   event.Kind = "event:topic_pinned"
	KindTopicUnpinned event.Kind = "event:topic_unpinned"

	KindTopicMoved event.Kind = "event:topic_moved"

	KindPostEdited event.Kind = "event:post_edited"
	KindPostPurged event.Kind = "event:post_purged"

	KindPostDeleted  event.Kind = "event:post_deleted"
	KindPostRestored event.Kind = "event:post_restored"

	KindPostBookmark   event.Kind = "posts.bookmark"
	KindPostUnbookmark event.Kind = "posts.unbookmark"

	KindPostUpvote   event.Kind = "posts.upvote"
	KindPostDownvote event.Kind = "posts.downvote"
	KindPostUnvote   event.Kind = "posts.unvote"

	KindPostEndorsed event.Kind = "event:post_endorsed"

	KindNewNotification event.Kind = "event:new_notification"
	KindNewPost         event.Kind = "event:new_post"
)

// KindMarkNotificationsRead is emitted to acknowledge notifications for
// the displayed topic.
const KindMarkNotificationsRead event.Kind = "topics.markTopicNotificationsRead"
