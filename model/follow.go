package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is the directed following edge, toggled through deleted_at like
// Like and Share. A user's feed covers {self} plus actively followed users.
type Follow struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	FollowerID  uuid.UUID  `json:"follower_id" db:"follower_id"`
	FollowingID uuid.UUID  `json:"following_id" db:"following_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// FollowState is the caller-visible result of a follow toggle.
type FollowState struct {
	FollowID  uuid.UUID `json:"follow_id"`
	Following bool      `json:"following"`
}
