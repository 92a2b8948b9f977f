package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"feedline/model"
)

type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followingID uuid.UUID) (*models.FollowState, error)
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	GetFollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetFollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetFollowers(ctx context.Context, userID, viewerID uuid.UUID, page, perPage int) (*models.UserPage, error)
	GetFollowing(ctx context.Context, userID, viewerID uuid.UUID, page, perPage int) (*models.UserPage, error)
}

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Toggle flips the follow edge follower -> following. Self-follow is
// rejected before any storage access. Like the other toggle entities the
// row is created once and then flipped in place.
func (r *followRepository) Toggle(ctx context.Context, followerID, followingID uuid.UUID) (*models.FollowState, error) {
	if followerID == followingID {
		return nil, ErrSelfFollow
	}

	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, followingID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	query := `
		INSERT INTO follows (id, follower_id, following_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (follower_id, following_id) DO UPDATE
		SET deleted_at = CASE WHEN follows.deleted_at IS NULL THEN NOW() ELSE NULL END
		RETURNING id, deleted_at
	`

	var (
		followID  uuid.UUID
		deletedAt *time.Time
	)
	err = r.db.QueryRowxContext(ctx, query, uuid.New(), followerID, followingID, time.Now()).Scan(&followID, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle follow: %w", err)
	}

	return &models.FollowState{
		FollowID:  followID,
		Following: deletedAt == nil,
	}, nil
}

// IsFollowing checks for an active follow edge
func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM follows
			WHERE follower_id = $1 AND following_id = $2 AND deleted_at IS NULL
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow status: %w", err)
	}

	return exists, nil
}

// GetFollowingIDs returns the ids of users the given user actively follows
func (r *followRepository) GetFollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT following_id
		FROM follows
		WHERE follower_id = $1 AND deleted_at IS NULL
	`

	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get following ids: %w", err)
	}

	return ids, nil
}

// GetFollowerIDs returns the ids of users actively following the given user
func (r *followRepository) GetFollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT follower_id
		FROM follows
		WHERE following_id = $1 AND deleted_at IS NULL
	`

	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get follower ids: %w", err)
	}

	return ids, nil
}

type userListRow struct {
	ID          uuid.UUID `db:"id"`
	Username    string    `db:"username"`
	Email       string    `db:"email"`
	FollowedAt  time.Time `db:"followed_at"`
	IsFollowing bool      `db:"is_following"`
}

// GetFollowers returns a page of the user's followers, each annotated with
// whether the viewer follows them.
func (r *followRepository) GetFollowers(ctx context.Context, userID, viewerID uuid.UUID, page, perPage int) (*models.UserPage, error) {
	query := `
		SELECT u.id, u.username, u.email, f.created_at AS followed_at,
		       EXISTS(
		           SELECT 1 FROM follows vf
		           WHERE vf.follower_id = $2 AND vf.following_id = u.id AND vf.deleted_at IS NULL
		       ) AS is_following
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1 AND f.deleted_at IS NULL
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT $3 OFFSET $4
	`
	countQuery := `SELECT COUNT(*) FROM follows WHERE following_id = $1 AND deleted_at IS NULL`

	return r.userPage(ctx, query, countQuery, userID, viewerID, page, perPage)
}

// GetFollowing returns a page of users the given user follows, each
// annotated with whether the viewer follows them.
func (r *followRepository) GetFollowing(ctx context.Context, userID, viewerID uuid.UUID, page, perPage int) (*models.UserPage, error) {
	query := `
		SELECT u.id, u.username, u.email, f.created_at AS followed_at,
		       EXISTS(
		           SELECT 1 FROM follows vf
		           WHERE vf.follower_id = $2 AND vf.following_id = u.id AND vf.deleted_at IS NULL
		       ) AS is_following
		FROM follows f
		JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1 AND f.deleted_at IS NULL
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT $3 OFFSET $4
	`
	countQuery := `SELECT COUNT(*) FROM follows WHERE follower_id = $1 AND deleted_at IS NULL`

	return r.userPage(ctx, query, countQuery, userID, viewerID, page, perPage)
}

func (r *followRepository) userPage(ctx context.Context, query, countQuery string, userID, viewerID uuid.UUID, page, perPage int) (*models.UserPage, error) {
	var totalCount int64
	err := r.db.GetContext(ctx, &totalCount, countQuery, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			totalCount = 0
		} else {
			return nil, fmt.Errorf("failed to count follows: %w", err)
		}
	}

	var rows []userListRow
	err = r.db.SelectContext(ctx, &rows, query, userID, viewerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user list: %w", err)
	}

	users := make([]models.UserListItem, 0, len(rows))
	for _, row := range rows {
		users = append(users, models.UserListItem{
			UserSummary: models.UserSummary{
				ID:       row.ID,
				Username: row.Username,
				Email:    row.Email,
			},
			IsFollowing: row.IsFollowing,
			FollowedAt:  row.FollowedAt,
		})
	}

	return &models.UserPage{
		Users:      users,
		Page:       page,
		PerPage:    perPage,
		TotalCount: totalCount,
		LastPage:   models.LastPageFor(totalCount, perPage),
	}, nil
}
