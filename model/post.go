package models

import (
	"time"

	"github.com/google/uuid"
)

const MaxPostContentLength = 1000

type Post struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Content   string     `json:"content" db:"content"`
	ImageURL  *string    `json:"image_url,omitempty" db:"image_url"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// PostDetail is a post hydrated with its author, comment list, aggregate
// counts over active rows, and the viewer-scoped liked/shared flags.
type PostDetail struct {
	Post
	Author        UserSummary         `json:"user"`
	Comments      []CommentWithAuthor `json:"comments"`
	CommentsCount int32               `json:"comments_count"`
	LikesCount    int32               `json:"likes_count"`
	SharesCount   int32               `json:"shares_count"`
	Liked         bool                `json:"liked"`
	Shared        bool                `json:"shared"`
}
