package events

import (
	"time"

	"github.com/google/uuid"
)

// Event subjects (topics)
const (
	SubjectPostCreated   = "post.created"
	SubjectPostCommented = "post.commented"
	SubjectPostLiked     = "post.liked"
	SubjectUserFollowed  = "user.followed"
)

// PostCreatedEvent is published when a user creates a post
type PostCreatedEvent struct {
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PostCommentedEvent is published when a user comments on a post
type PostCommentedEvent struct {
	PostID      uuid.UUID `json:"post_id"`
	PostOwner   uuid.UUID `json:"post_owner"`
	CommentID   uuid.UUID `json:"comment_id"`
	CommentedBy uuid.UUID `json:"commented_by"`
	Body        string    `json:"body"`
	Timestamp   time.Time `json:"timestamp"`
}

// PostLikedEvent is published when a like toggle lands in the active state
type PostLikedEvent struct {
	PostID    uuid.UUID `json:"post_id"`
	PostOwner uuid.UUID `json:"post_owner"`
	LikedBy   uuid.UUID `json:"liked_by"`
	Timestamp time.Time `json:"timestamp"`
}

// UserFollowedEvent is published when a follow toggle lands in the active state
type UserFollowedEvent struct {
	FollowerID  uuid.UUID `json:"follower_id"`
	FollowingID uuid.UUID `json:"following_id"`
	Timestamp   time.Time `json:"timestamp"`
}
