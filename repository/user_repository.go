package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feedline/model"
)

const uniqueViolation = "23505"

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfile(ctx context.Context, userID, viewerID uuid.UUID) (*models.UserProfile, error)
	Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Bio,
		user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, email, password_hash, bio, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, email, password_hash, bio, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetProfile loads a user with the derived counts. Counts are computed per
// request over active rows only; nothing denormalized is stored.
func (r *userRepository) GetProfile(ctx context.Context, userID, viewerID uuid.UUID) (*models.UserProfile, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.bio, u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id AND p.deleted_at IS NULL) AS posts_count,
		       (SELECT COUNT(*) FROM shares s WHERE s.user_id = u.id AND s.deleted_at IS NULL) AS shares_count,
		       (SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id AND f.deleted_at IS NULL) AS followers_count,
		       (SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id AND f.deleted_at IS NULL) AS following_count
		FROM users u
		WHERE u.id = $1
	`

	var profile models.UserProfile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	if viewerID != userID {
		var isFollowing bool
		err = r.db.GetContext(ctx, &isFollowing, `
			SELECT EXISTS(
				SELECT 1 FROM follows
				WHERE follower_id = $1 AND following_id = $2 AND deleted_at IS NULL
			)
		`, viewerID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check follow status: %w", err)
		}
		profile.IsFollowing = &isFollowing
	}

	return &profile, nil
}

// Search matches users on a username/email substring, capped at limit.
func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	sqlQuery := `
		SELECT id, username, email
		FROM users
		WHERE username ILIKE $1 OR email ILIKE $1
		ORDER BY username ASC
		LIMIT $2
	`

	var users []models.UserSummary
	err := r.db.SelectContext(ctx, &users, sqlQuery, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}
