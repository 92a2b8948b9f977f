package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"feedline/model"
)

type LikeRepository interface {
	Toggle(ctx context.Context, postID, userID uuid.UUID) (*models.LikeState, error)
	GetLikeCountByPost(ctx context.Context, postID uuid.UUID) (int32, error)
}

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle flips the like for (user, post). The first toggle inserts the
// row; every later one flips deleted_at on that same row, so the row id is
// stable across the whole on/off history. The single upsert statement
// leaves the double-click race to the storage layer's row lock instead of
// a check-then-act read.
func (r *likeRepository) Toggle(ctx context.Context, postID, userID uuid.UUID) (*models.LikeState, error) {
	if err := ensureActivePost(ctx, r.db, postID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO likes (id, post_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (post_id, user_id) DO UPDATE
		SET deleted_at = CASE WHEN likes.deleted_at IS NULL THEN NOW() ELSE NULL END
		RETURNING id, deleted_at
	`

	var (
		likeID    uuid.UUID
		deletedAt *time.Time
	)
	err := r.db.QueryRowxContext(ctx, query, uuid.New(), postID, userID, time.Now()).Scan(&likeID, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	count, err := r.GetLikeCountByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &models.LikeState{
		LikeID:     likeID,
		Liked:      deletedAt == nil,
		LikesCount: count,
	}, nil
}

// GetLikeCountByPost returns the number of active likes for a post
func (r *likeRepository) GetLikeCountByPost(ctx context.Context, postID uuid.UUID) (int32, error) {
	query := `
		SELECT COUNT(*)
		FROM likes
		WHERE post_id = $1 AND deleted_at IS NULL
	`

	var count int32
	err := r.db.GetContext(ctx, &count, query, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to get like count: %w", err)
	}

	return count, nil
}

// ensureActivePost rejects toggles against missing or soft-deleted posts
// with ErrNotFound so handlers answer 404 instead of creating orphan rows.
func ensureActivePost(ctx context.Context, db *sqlx.DB, postID uuid.UUID) error {
	var exists bool
	err := db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND deleted_at IS NULL)`, postID)
	if err != nil {
		return fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}
