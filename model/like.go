package models

import (
	"time"

	"github.com/google/uuid"
)

// Like is a toggle entity: at most one row per (user, post), flipped
// between active and inactive via deleted_at instead of insert/delete.
type Like struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	PostID    uuid.UUID  `json:"post_id" db:"post_id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// LikeState is the caller-visible result of a like toggle.
type LikeState struct {
	LikeID     uuid.UUID `json:"like_id"`
	Liked      bool      `json:"liked"`
	LikesCount int32     `json:"likes_count"`
}
