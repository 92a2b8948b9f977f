package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"feedline/model"
)

type ShareRepository interface {
	Toggle(ctx context.Context, postID, userID uuid.UUID) (*models.ShareState, error)
	GetShareCountByPost(ctx context.Context, postID uuid.UUID) (int32, error)
}

type shareRepository struct {
	db *sqlx.DB
}

func NewShareRepository(db *sqlx.DB) ShareRepository {
	return &shareRepository{db: db}
}

// Toggle flips the share for (user, post), reusing the same row the way
// Like does. Every flip touches updated_at, the feed sort key, so
// re-sharing moves the item to the top of the feed with its original row
// id intact.
func (r *shareRepository) Toggle(ctx context.Context, postID, userID uuid.UUID) (*models.ShareState, error) {
	if err := ensureActivePost(ctx, r.db, postID); err != nil {
		return nil, err
	}

	now := time.Now()
	query := `
		INSERT INTO shares (id, post_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (post_id, user_id) DO UPDATE
		SET deleted_at = CASE WHEN shares.deleted_at IS NULL THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		RETURNING id, deleted_at
	`

	var (
		shareID   uuid.UUID
		deletedAt *time.Time
	)
	err := r.db.QueryRowxContext(ctx, query, uuid.New(), postID, userID, now).Scan(&shareID, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle share: %w", err)
	}

	count, err := r.GetShareCountByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &models.ShareState{
		ShareID:     shareID,
		Shared:      deletedAt == nil,
		SharesCount: count,
	}, nil
}

// GetShareCountByPost returns the number of active shares for a post
func (r *shareRepository) GetShareCountByPost(ctx context.Context, postID uuid.UUID) (int32, error) {
	query := `
		SELECT COUNT(*)
		FROM shares
		WHERE post_id = $1 AND deleted_at IS NULL
	`

	var count int32
	err := r.db.GetContext(ctx, &count, query, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to get share count: %w", err)
	}

	return count, nil
}
