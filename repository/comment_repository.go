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

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)
	Update(ctx context.Context, commentID, userID uuid.UUID, body string) (*models.Comment, error)
	Delete(ctx context.Context, commentID, userID uuid.UUID) error
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment under an active post
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := ensureActivePost(ctx, r.db, comment.PostID); err != nil {
		return err
	}

	query := `
		INSERT INTO comments (id, post_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, post_id, user_id, body, created_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		comment.ID,
		comment.PostID,
		comment.UserID,
		comment.Body,
		comment.CreatedAt,
	).StructScan(comment)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetByID retrieves an active comment by its ID
func (r *commentRepository) GetByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	query := `
		SELECT id, post_id, user_id, body, created_at, deleted_at
		FROM comments
		WHERE id = $1 AND deleted_at IS NULL
	`

	var comment models.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &comment, nil
}

// Update replaces the body of the caller's own comment
func (r *commentRepository) Update(ctx context.Context, commentID, userID uuid.UUID, body string) (*models.Comment, error) {
	existing, err := r.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrForbidden
	}

	query := `
		UPDATE comments
		SET body = $1
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING id, post_id, user_id, body, created_at
	`

	var comment models.Comment
	err = r.db.QueryRowxContext(ctx, query, body, commentID).StructScan(&comment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return &comment, nil
}

// Delete soft-deletes the caller's own comment
func (r *commentRepository) Delete(ctx context.Context, commentID, userID uuid.UUID) error {
	existing, err := r.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrForbidden
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE comments SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now(), commentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}
