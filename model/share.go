package models

import (
	"time"

	"github.com/google/uuid"
)

// Share is a toggle entity like Like, with one extra rule: updated_at is
// the feed sort key, and re-sharing touches it.
type Share struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	PostID    uuid.UUID  `json:"post_id" db:"post_id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ShareDetail is a share hydrated with its sharer and the target post.
// Post is nil when the target is no longer active, e.g. soft-deleted or
// removed between reads; such items stay in the feed as explicit
// placeholders.
type ShareDetail struct {
	Share
	Sharer      UserSummary `json:"user"`
	Post        *PostDetail `json:"post"`
	Unavailable bool        `json:"unavailable"`
}

// ShareState is the caller-visible result of a share toggle.
type ShareState struct {
	ShareID     uuid.UUID `json:"share_id"`
	Shared      bool      `json:"shared"`
	SharesCount int32     `json:"shares_count"`
}
