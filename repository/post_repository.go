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

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, postID uuid.UUID, viewerID uuid.UUID) (*models.PostDetail, error)
	GetOwned(ctx context.Context, postID, userID uuid.UUID) (*models.Post, error)
	GetOwnerID(ctx context.Context, postID uuid.UUID) (uuid.UUID, error)
	Update(ctx context.Context, post *models.Post) error
	SoftDelete(ctx context.Context, postID, userID uuid.UUID) error
	HardDelete(ctx context.Context, postID, userID uuid.UUID) error
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, content, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.UserID,
		post.Content,
		post.ImageURL,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetByID loads one active post in the same hydrated shape the feed uses.
func (r *postRepository) GetByID(ctx context.Context, postID uuid.UUID, viewerID uuid.UUID) (*models.PostDetail, error) {
	details, err := fetchPostDetails(ctx, r.db, []uuid.UUID{postID}, viewerID)
	if err != nil {
		return nil, err
	}

	detail, ok := details[postID]
	if !ok {
		return nil, ErrNotFound
	}

	return detail, nil
}

// GetOwned loads an active post and verifies ownership, distinguishing a
// missing post from someone else's.
func (r *postRepository) GetOwned(ctx context.Context, postID, userID uuid.UUID) (*models.Post, error) {
	query := `
		SELECT id, user_id, content, image_url, created_at, updated_at, deleted_at
		FROM posts
		WHERE id = $1 AND deleted_at IS NULL
	`

	var post models.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if post.UserID != userID {
		return nil, ErrForbidden
	}

	return &post, nil
}

// GetOwnerID resolves the author of an active post
func (r *postRepository) GetOwnerID(ctx context.Context, postID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.db.GetContext(ctx, &ownerID,
		`SELECT user_id FROM posts WHERE id = $1 AND deleted_at IS NULL`,
		postID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get post owner: %w", err)
	}

	return ownerID, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $1, image_url = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, post.Content, post.ImageURL, post.UpdatedAt, post.ID, post.UserID)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SoftDelete trashes a post and cascades to its comments and likes. Shares
// of the post survive and surface as unavailable placeholders in feeds.
func (r *postRepository) SoftDelete(ctx context.Context, postID, userID uuid.UUID) error {
	return r.inTransaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()

		result, err := tx.ExecContext(ctx,
			`UPDATE posts SET deleted_at = $1 WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL`,
			now, postID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to soft delete post: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE comments SET deleted_at = $1 WHERE post_id = $2 AND deleted_at IS NULL`,
			now, postID,
		); err != nil {
			return fmt.Errorf("failed to cascade soft delete to comments: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE likes SET deleted_at = $1 WHERE post_id = $2 AND deleted_at IS NULL`,
			now, postID,
		); err != nil {
			return fmt.Errorf("failed to cascade soft delete to likes: %w", err)
		}

		return nil
	})
}

// HardDelete removes a post together with its comments, likes and shares.
func (r *postRepository) HardDelete(ctx context.Context, postID, userID uuid.UUID) error {
	return r.inTransaction(ctx, func(tx *sqlx.Tx) error {
		var ownerID uuid.UUID
		err := tx.GetContext(ctx, &ownerID, `SELECT user_id FROM posts WHERE id = $1`, postID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get post owner: %w", err)
		}
		if ownerID != userID {
			return ErrForbidden
		}

		for _, stmt := range []string{
			`DELETE FROM comments WHERE post_id = $1`,
			`DELETE FROM likes WHERE post_id = $1`,
			`DELETE FROM shares WHERE post_id = $1`,
			`DELETE FROM posts WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, postID); err != nil {
				return fmt.Errorf("failed to hard delete post: %w", err)
			}
		}

		return nil
	})
}

func (r *postRepository) inTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
