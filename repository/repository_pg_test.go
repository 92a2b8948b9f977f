package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedline/config"
	database "feedline/db"
	"feedline/model"
)

// These tests run against a real Postgres with db/schema.sql applied.
// They skip unless TEST_DB_HOST is set; the other TEST_DB_* variables
// follow the config package's defaults.

func testConn(t *testing.T) *sqlx.DB {
	t.Helper()

	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set, skipping database tests")
	}

	cfg, err := config.LoadDatabaseConfig("TEST_")
	require.NoError(t, err)

	conn, err := database.NewConnection(database.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		User:         cfg.User,
		Password:     cfg.Password,
		DBName:       cfg.DBName,
		SSLMode:      cfg.SSLMode,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		MaxLifetime:  cfg.MaxLifetime,
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn.DB
}

func newTestUser(t *testing.T, db *sqlx.DB) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, 'x')`,
		id, "u_"+id.String()[:8], fmt.Sprintf("%s@test.local", id.String()[:8]),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, stmt := range []string{
			`DELETE FROM notifications WHERE user_id = $1 OR actor_id = $1`,
			`DELETE FROM likes WHERE user_id = $1 OR post_id IN (SELECT id FROM posts WHERE user_id = $1)`,
			`DELETE FROM shares WHERE user_id = $1 OR post_id IN (SELECT id FROM posts WHERE user_id = $1)`,
			`DELETE FROM comments WHERE user_id = $1 OR post_id IN (SELECT id FROM posts WHERE user_id = $1)`,
			`DELETE FROM follows WHERE follower_id = $1 OR following_id = $1`,
			`DELETE FROM posts WHERE user_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		} {
			if _, err := db.Exec(stmt, id); err != nil {
				t.Logf("cleanup failed: %v", err)
			}
		}
	})

	return id
}

func newTestPost(t *testing.T, db *sqlx.DB, userID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO posts (id, user_id, content) VALUES ($1, $2, 'hello')`,
		id, userID,
	)
	require.NoError(t, err)

	return id
}

func TestLikeToggleRoundTrip(t *testing.T) {
	db := testConn(t)
	ctx := context.Background()

	alice := newTestUser(t, db)
	bob := newTestUser(t, db)
	postID := newTestPost(t, db, alice)

	repo := NewLikeRepository(db)

	first, err := repo.Toggle(ctx, postID, bob)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int32(1), first.LikesCount)

	second, err := repo.Toggle(ctx, postID, bob)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, int32(0), second.LikesCount)
	assert.Equal(t, first.LikeID, second.LikeID, "unlike must flip the row, not replace it")

	third, err := repo.Toggle(ctx, postID, bob)
	require.NoError(t, err)
	assert.True(t, third.Liked)
	assert.Equal(t, int32(1), third.LikesCount)
	assert.Equal(t, first.LikeID, third.LikeID)
}

func TestLikeToggleOnDeletedPost(t *testing.T) {
	db := testConn(t)
	ctx := context.Background()

	alice := newTestUser(t, db)
	postID := newTestPost(t, db, alice)

	require.NoError(t, NewPostRepository(db).SoftDelete(ctx, postID, alice))

	_, err := NewLikeRepository(db).Toggle(ctx, postID, alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShareToggleMovesSortDate(t *testing.T) {
	db := testConn(t)
	ctx := context.Background()

	alice := newTestUser(t, db)
	bob := newTestUser(t, db)
	postID := newTestPost(t, db, alice)

	repo := NewShareRepository(db)

	first, err := repo.Toggle(ctx, postID, bob)
	require.NoError(t, err)
	assert.True(t, first.Shared)
	assert.Equal(t, int32(1), first.SharesCount)

	var firstSortDate time.Time
	require.NoError(t, db.Get(&firstSortDate,
		`SELECT updated_at FROM shares WHERE id = $1`, first.ShareID))

	time.Sleep(20 * time.Millisecond)

	unshared, err := repo.Toggle(ctx, postID, bob)
	require.NoError(t, err)
	assert.False(t, unshared.Shared)
	assert.Equal(t, int32(0), unshared.SharesCount)
	assert.Equal(t, first.ShareID, unshared.ShareID)

	time.Sleep(20 * time.Millisecond)

	reshared, err := repo.Toggle(ctx, postID, bob)
	require.NoError(t, err)
	assert.True(t, reshared.Shared)
	assert.Equal(t, int32(1), reshared.SharesCount)
	assert.Equal(t, first.ShareID, reshared.ShareID)

	var resharedSortDate time.Time
	require.NoError(t, db.Get(&resharedSortDate,
		`SELECT updated_at FROM shares WHERE id = $1`, first.ShareID))
	assert.True(t, resharedSortDate.After(firstSortDate),
		"re-sharing must move the feed sort key forward")
}

func TestFollowToggleReusesRow(t *testing.T) {
	db := testConn(t)
	ctx := context.Background()

	alice := newTestUser(t, db)
	bob := newTestUser(t, db)

	repo := NewFollowRepository(db)

	first, err := repo.Toggle(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, first.Following)

	second, err := repo.Toggle(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, second.Following)
	assert.Equal(t, first.FollowID, second.FollowID)

	third, err := repo.Toggle(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, third.Following)
	assert.Equal(t, first.FollowID, third.FollowID)

	var rows int
	require.NoError(t, db.Get(&rows,
		`SELECT COUNT(*) FROM follows WHERE follower_id = $1 AND following_id = $2`, alice, bob))
	assert.Equal(t, 1, rows, "the toggle cycle must never create a second row")
}

func TestHardDeleteCascadesToShares(t *testing.T) {
	db := testConn(t)
	ctx := context.Background()

	alice := newTestUser(t, db)
	bob := newTestUser(t, db)
	postID := newTestPost(t, db, alice)

	share, err := NewShareRepository(db).Toggle(ctx, postID, bob)
	require.NoError(t, err)
	_, err = NewLikeRepository(db).Toggle(ctx, postID, bob)
	require.NoError(t, err)
	require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    bob,
		Body:      "nice",
		CreatedAt: time.Now(),
	}))

	require.NoError(t, NewPostRepository(db).HardDelete(ctx, postID, alice))

	for _, table := range []string{"shares", "likes", "comments"} {
		var count int
		require.NoError(t, db.Get(&count,
			`SELECT COUNT(*) FROM `+table+` WHERE post_id = $1`, postID))
		assert.Zero(t, count, "%s must be removed with the post", table)
	}

	var posts int
	require.NoError(t, db.Get(&posts, `SELECT COUNT(*) FROM posts WHERE id = $1`, postID))
	assert.Zero(t, posts)

	details, err := NewFeedRepository(db, nil).GetShareDetailsByIDs(ctx, []uuid.UUID{share.ShareID}, bob)
	require.NoError(t, err)
	assert.Empty(t, details, "a hard-deleted post takes its shares out of hydration entirely")
}

func TestSoftDeleteLeavesSharesAsPlaceholders(t *testing.T) {
	db := testConn(t)
	ctx := context.Background()

	alice := newTestUser(t, db)
	bob := newTestUser(t, db)
	postID := newTestPost(t, db, alice)

	share, err := NewShareRepository(db).Toggle(ctx, postID, bob)
	require.NoError(t, err)

	require.NoError(t, NewPostRepository(db).SoftDelete(ctx, postID, alice))

	details, err := NewFeedRepository(db, nil).GetShareDetailsByIDs(ctx, []uuid.UUID{share.ShareID}, bob)
	require.NoError(t, err)
	require.Contains(t, details, share.ShareID)
	assert.True(t, details[share.ShareID].Unavailable)
	assert.Nil(t, details[share.ShareID].Post)
}
