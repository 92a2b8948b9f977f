package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Bio          *string   `json:"bio,omitempty" db:"bio"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserSummary is the public shape embedded in posts, shares and comments.
type UserSummary struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
	Email    string    `json:"email" db:"email"`
}

// UserProfile carries the derived counts computed per request; they are
// never stored on the users row.
type UserProfile struct {
	User
	PostsCount     int32 `json:"posts_count" db:"posts_count"`
	SharesCount    int32 `json:"shares_count" db:"shares_count"`
	FollowersCount int32 `json:"followers_count" db:"followers_count"`
	FollowingCount int32 `json:"following_count" db:"following_count"`
	IsFollowing    *bool `json:"is_following,omitempty"`
}

// UserListItem is one row of a followers/following listing, annotated with
// whether the viewer follows that user.
type UserListItem struct {
	UserSummary
	IsFollowing bool      `json:"is_following"`
	FollowedAt  time.Time `json:"followed_at"`
}

// UserPage is a page of a followers/following listing.
type UserPage struct {
	Users      []UserListItem `json:"users"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalCount int64          `json:"total_count"`
	LastPage   int            `json:"last_page"`
}
