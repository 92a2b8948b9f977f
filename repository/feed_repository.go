package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"feedline/model"
)

const (
	feedCacheTTL = time.Hour

	// FeedCacheWindow is how many skeleton rows the Redis feed cache holds
	// per viewer. Pages beyond the window fall through to the database.
	FeedCacheWindow = 500
)

type FeedRepository interface {
	// Skeleton building. The union of post and share projections is
	// sorted and sliced as one set.
	GetFeedSkeleton(ctx context.Context, authorIDs []uuid.UUID, page, perPage int) (*models.SkeletonPage, error)

	// Hydration. Ids missing from the result were deleted between the
	// skeleton read and the hydration read; callers drop them.
	GetPostDetailsByIDs(ctx context.Context, postIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]*models.PostDetail, error)
	GetShareDetailsByIDs(ctx context.Context, shareIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]*models.ShareDetail, error)

	// Skeleton cache management
	GetCachedSkeleton(ctx context.Context, viewerID uuid.UUID, page, perPage int) (*models.SkeletonPage, error)
	CacheSkeleton(ctx context.Context, viewerID uuid.UUID, items []models.SkeletonItem, totalCount int64) error
	InvalidateFeed(ctx context.Context, viewerID uuid.UUID) error
}

type feedRepository struct {
	db    *sqlx.DB
	redis *redis.Client
}

func NewFeedRepository(db *sqlx.DB, redisClient *redis.Client) FeedRepository {
	return &feedRepository{
		db:    db,
		redis: redisClient,
	}
}

// feedUnion is the two lightweight projections the feed is built on:
// non-soft-deleted posts keyed by created_at and non-soft-deleted shares
// keyed by updated_at, both scoped to the allowed author set. Shares are
// not filtered by their target's state here; dangling targets surface
// during hydration.
const feedUnion = `
	SELECT id, 'post' AS type, created_at AS sort_date
	FROM posts
	WHERE user_id = ANY($1) AND deleted_at IS NULL
	UNION ALL
	SELECT id, 'share' AS type, updated_at AS sort_date
	FROM shares
	WHERE user_id = ANY($1) AND deleted_at IS NULL
`

// GetFeedSkeleton pages over the sorted union of posts and shares. Count
// and slice both run against the union, never each side separately, so a
// page boundary can neither drop nor duplicate rows. Ties on sort_date
// break deterministically on (id, type).
func (r *feedRepository) GetFeedSkeleton(ctx context.Context, authorIDs []uuid.UUID, page, perPage int) (*models.SkeletonPage, error) {
	if len(authorIDs) == 0 {
		return &models.SkeletonPage{Items: []models.SkeletonItem{}}, nil
	}

	countQuery := `SELECT COUNT(*) FROM (` + feedUnion + `) feed`

	var totalCount int64
	err := r.db.GetContext(ctx, &totalCount, countQuery, pq.Array(authorIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to count feed skeleton: %w", err)
	}

	query := `
		SELECT id, type, sort_date
		FROM (` + feedUnion + `) feed
		ORDER BY sort_date DESC, id DESC, type DESC
		LIMIT $2 OFFSET $3
	`

	var items []models.SkeletonItem
	err = r.db.SelectContext(ctx, &items, query, pq.Array(authorIDs), perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed skeleton: %w", err)
	}

	return &models.SkeletonPage{
		Items:      items,
		TotalCount: totalCount,
	}, nil
}

type postDetailRow struct {
	models.Post
	AuthorID       uuid.UUID `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	AuthorEmail    string    `db:"author_email"`
	CommentsCount  int32     `db:"comments_count"`
	LikesCount     int32     `db:"likes_count"`
	SharesCount    int32     `db:"shares_count"`
	Liked          bool      `db:"liked"`
	Shared         bool      `db:"shared"`
}

// GetPostDetailsByIDs batch-loads active posts with author, comment list,
// aggregate counts and the viewer's liked/shared flags. The result map may
// be missing requested ids.
func (r *feedRepository) GetPostDetailsByIDs(ctx context.Context, postIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]*models.PostDetail, error) {
	return fetchPostDetails(ctx, r.db, postIDs, viewerID)
}

// fetchPostDetails is shared between the feed hydrator and the single-post
// lookup so both produce the same shape.
func fetchPostDetails(ctx context.Context, db *sqlx.DB, postIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]*models.PostDetail, error) {
	result := make(map[uuid.UUID]*models.PostDetail, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT p.id, p.user_id, p.content, p.image_url, p.created_at, p.updated_at,
		       u.id AS author_id, u.username AS author_username, u.email AS author_email,
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.deleted_at IS NULL) AS comments_count,
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id AND l.deleted_at IS NULL) AS likes_count,
		       (SELECT COUNT(*) FROM shares s WHERE s.post_id = p.id AND s.deleted_at IS NULL) AS shares_count,
		       EXISTS(SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $2 AND l.deleted_at IS NULL) AS liked,
		       EXISTS(SELECT 1 FROM shares s WHERE s.post_id = p.id AND s.user_id = $2 AND s.deleted_at IS NULL) AS shared
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = ANY($1) AND p.deleted_at IS NULL
	`

	var rows []postDetailRow
	err := db.SelectContext(ctx, &rows, query, pq.Array(postIDs), viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts by ids: %w", err)
	}

	foundIDs := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		result[row.ID] = &models.PostDetail{
			Post: row.Post,
			Author: models.UserSummary{
				ID:       row.AuthorID,
				Username: row.AuthorUsername,
				Email:    row.AuthorEmail,
			},
			Comments:      []models.CommentWithAuthor{},
			CommentsCount: row.CommentsCount,
			LikesCount:    row.LikesCount,
			SharesCount:   row.SharesCount,
			Liked:         row.Liked,
			Shared:        row.Shared,
		}
		foundIDs = append(foundIDs, row.ID)
	}

	comments, err := fetchCommentsForPosts(ctx, db, foundIDs)
	if err != nil {
		return nil, err
	}
	for postID, list := range comments {
		if detail, ok := result[postID]; ok {
			detail.Comments = list
		}
	}

	return result, nil
}

type commentRow struct {
	models.Comment
	AuthorID       uuid.UUID `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	AuthorEmail    string    `db:"author_email"`
}

func fetchCommentsForPosts(ctx context.Context, db *sqlx.DB, postIDs []uuid.UUID) (map[uuid.UUID][]models.CommentWithAuthor, error) {
	result := make(map[uuid.UUID][]models.CommentWithAuthor)
	if len(postIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT c.id, c.post_id, c.user_id, c.body, c.created_at,
		       u.id AS author_id, u.username AS author_username, u.email AS author_email
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ANY($1) AND c.deleted_at IS NULL
		ORDER BY c.created_at ASC, c.id ASC
	`

	var rows []commentRow
	err := db.SelectContext(ctx, &rows, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments for posts: %w", err)
	}

	for i := range rows {
		row := &rows[i]
		result[row.PostID] = append(result[row.PostID], models.CommentWithAuthor{
			Comment: row.Comment,
			Author: models.UserSummary{
				ID:       row.AuthorID,
				Username: row.AuthorUsername,
				Email:    row.AuthorEmail,
			},
		})
	}

	return result, nil
}

type shareRow struct {
	models.Share
	SharerID       uuid.UUID `db:"sharer_id"`
	SharerUsername string    `db:"sharer_username"`
	SharerEmail    string    `db:"sharer_email"`
}

// GetShareDetailsByIDs batch-loads active shares with sharer and nested
// target post. A share whose target post is soft- or hard-deleted comes
// back with Post == nil and Unavailable == true; the share itself stays.
func (r *feedRepository) GetShareDetailsByIDs(ctx context.Context, shareIDs []uuid.UUID, viewerID uuid.UUID) (map[uuid.UUID]*models.ShareDetail, error) {
	result := make(map[uuid.UUID]*models.ShareDetail, len(shareIDs))
	if len(shareIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT s.id, s.post_id, s.user_id, s.created_at, s.updated_at,
		       u.id AS sharer_id, u.username AS sharer_username, u.email AS sharer_email
		FROM shares s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ANY($1) AND s.deleted_at IS NULL
	`

	var rows []shareRow
	err := r.db.SelectContext(ctx, &rows, query, pq.Array(shareIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shares by ids: %w", err)
	}

	targetIDs := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		targetIDs = append(targetIDs, rows[i].PostID)
	}

	targets, err := fetchPostDetails(ctx, r.db, targetIDs, viewerID)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		row := &rows[i]
		detail := &models.ShareDetail{
			Share: row.Share,
			Sharer: models.UserSummary{
				ID:       row.SharerID,
				Username: row.SharerUsername,
				Email:    row.SharerEmail,
			},
		}
		if target, ok := targets[row.PostID]; ok {
			detail.Post = target
		} else {
			detail.Unavailable = true
		}
		result[row.ID] = detail
	}

	return result, nil
}

// Skeleton cache. The viewer's most recent FeedCacheWindow skeleton rows
// live in a ZSET scored by sort_date; the union's true total sits beside
// it so cached pages report the same pagination totals as the database.

func feedCacheKey(viewerID uuid.UUID) string {
	return fmt.Sprintf("feed:%s", viewerID.String())
}

func feedTotalKey(viewerID uuid.UUID) string {
	return fmt.Sprintf("feed:%s:total", viewerID.String())
}

// GetCachedSkeleton serves one page from the cached window. It reports a
// miss when the cache is cold or the requested page reaches past the
// cached rows without the window holding the entire feed.
func (r *feedRepository) GetCachedSkeleton(ctx context.Context, viewerID uuid.UUID, page, perPage int) (*models.SkeletonPage, error) {
	totalStr, err := r.redis.Get(ctx, feedTotalKey(viewerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("feed cache miss: %w", err)
	}
	totalCount, err := strconv.ParseInt(totalStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cached feed total: %w", err)
	}

	cached, err := r.redis.ZCard(ctx, feedCacheKey(viewerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached feed size: %w", err)
	}

	offset := (page - 1) * perPage
	if int64(offset+perPage) > cached && cached < totalCount {
		return nil, fmt.Errorf("feed cache miss: page %d beyond cached window", page)
	}

	members, err := r.redis.ZRevRangeWithScores(ctx, feedCacheKey(viewerID), int64(offset), int64(offset+perPage-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached feed: %w", err)
	}

	items := make([]models.SkeletonItem, 0, len(members))
	for _, member := range members {
		item, err := decodeSkeletonMember(member)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &models.SkeletonPage{
		Items:      items,
		TotalCount: totalCount,
	}, nil
}

// CacheSkeleton replaces the viewer's cached window. Members encode
// "id:type" so that equal-score entries order the same way the database
// tie-break does.
func (r *feedRepository) CacheSkeleton(ctx context.Context, viewerID uuid.UUID, items []models.SkeletonItem, totalCount int64) error {
	key := feedCacheKey(viewerID)
	pipe := r.redis.Pipeline()

	pipe.Del(ctx, key)
	for _, item := range items {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(item.SortDate.UnixMilli()),
			Member: encodeSkeletonMember(item),
		})
	}
	pipe.Set(ctx, feedTotalKey(viewerID), strconv.FormatInt(totalCount, 10), feedCacheTTL)
	pipe.Expire(ctx, key, feedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache feed skeleton: %w", err)
	}

	return nil
}

// InvalidateFeed removes the cached skeleton for a viewer
func (r *feedRepository) InvalidateFeed(ctx context.Context, viewerID uuid.UUID) error {
	err := r.redis.Del(ctx, feedCacheKey(viewerID), feedTotalKey(viewerID)).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate feed cache: %w", err)
	}
	return nil
}

func encodeSkeletonMember(item models.SkeletonItem) string {
	return item.ID.String() + ":" + string(item.Type)
}

func decodeSkeletonMember(member redis.Z) (models.SkeletonItem, error) {
	raw, ok := member.Member.(string)
	if !ok {
		return models.SkeletonItem{}, fmt.Errorf("unexpected cached feed member type %T", member.Member)
	}

	idStr, typeStr, found := strings.Cut(raw, ":")
	if !found {
		return models.SkeletonItem{}, fmt.Errorf("malformed cached feed member %q", raw)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return models.SkeletonItem{}, fmt.Errorf("malformed cached feed member %q: %w", raw, err)
	}

	return models.SkeletonItem{
		ID:       id,
		Type:     models.FeedItemType(typeStr),
		SortDate: time.UnixMilli(int64(member.Score)),
	}, nil
}
