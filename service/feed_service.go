package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"feedline/model"
	"feedline/repository"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 50

	// invalidationWorkers bounds the fan-out when a change touches many
	// followers' cached feeds.
	invalidationWorkers = 10
)

// FeedService runs the feed pipeline: build the union skeleton for the
// allowed author set, hydrate the one page of ids, and assemble view
// models in skeleton order. The viewer id flows through explicitly so the
// liked/shared flags never depend on ambient state.
type FeedService struct {
	feedRepo   repository.FeedRepository
	followRepo repository.FollowRepository
}

func NewFeedService(feedRepo repository.FeedRepository, followRepo repository.FollowRepository) *FeedService {
	return &FeedService{
		feedRepo:   feedRepo,
		followRepo: followRepo,
	}
}

// DashboardFeed returns one page of the viewer's personalized feed: posts
// and shares authored by the viewer plus everyone they actively follow.
// The skeleton is served cache-aside; a miss falls through to the database
// and repopulates the cache window asynchronously.
func (s *FeedService) DashboardFeed(ctx context.Context, viewerID uuid.UUID, page, perPage int) (*models.FeedPage, error) {
	page, perPage = normalizePage(page, perPage)

	skeleton, err := s.feedRepo.GetCachedSkeleton(ctx, viewerID, page, perPage)
	if err != nil {
		authorIDs, err := s.allowedAuthors(ctx, viewerID)
		if err != nil {
			return nil, err
		}

		skeleton, err = s.feedRepo.GetFeedSkeleton(ctx, authorIDs, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("failed to build feed skeleton: %w", err)
		}

		go s.repopulateCache(context.Background(), viewerID, authorIDs)
	}

	items, err := s.hydrate(ctx, skeleton.Items, viewerID)
	if err != nil {
		return nil, err
	}

	return &models.FeedPage{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		TotalCount: skeleton.TotalCount,
		LastPage:   models.LastPageFor(skeleton.TotalCount, perPage),
	}, nil
}

// ProfileFeed returns one page of a single author's posts and shares,
// annotated for the viewer. Profile feeds are low-traffic and uncached.
func (s *FeedService) ProfileFeed(ctx context.Context, profileUserID, viewerID uuid.UUID, page, perPage int) (*models.FeedPage, error) {
	page, perPage = normalizePage(page, perPage)

	skeleton, err := s.feedRepo.GetFeedSkeleton(ctx, []uuid.UUID{profileUserID}, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile feed skeleton: %w", err)
	}

	items, err := s.hydrate(ctx, skeleton.Items, viewerID)
	if err != nil {
		return nil, err
	}

	return &models.FeedPage{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		TotalCount: skeleton.TotalCount,
		LastPage:   models.LastPageFor(skeleton.TotalCount, perPage),
	}, nil
}

// hydrate splits one skeleton page by type, batch-loads each side, then
// re-walks the skeleton so the union's sort order survives assembly.
// Skeleton ids with no hydrated entity were hard-deleted between the two
// reads and are dropped silently. A share that hydrated but lost its
// target post is kept as an unavailable placeholder, so page sizes stay
// what the skeleton promised.
func (s *FeedService) hydrate(ctx context.Context, skeleton []models.SkeletonItem, viewerID uuid.UUID) ([]models.FeedItem, error) {
	postIDs := make([]uuid.UUID, 0, len(skeleton))
	shareIDs := make([]uuid.UUID, 0, len(skeleton))
	for _, item := range skeleton {
		switch item.Type {
		case models.FeedItemTypePost:
			postIDs = append(postIDs, item.ID)
		case models.FeedItemTypeShare:
			shareIDs = append(shareIDs, item.ID)
		}
	}

	posts, err := s.feedRepo.GetPostDetailsByIDs(ctx, postIDs, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate posts: %w", err)
	}

	shares, err := s.feedRepo.GetShareDetailsByIDs(ctx, shareIDs, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate shares: %w", err)
	}

	items := make([]models.FeedItem, 0, len(skeleton))
	for _, entry := range skeleton {
		switch entry.Type {
		case models.FeedItemTypePost:
			post, ok := posts[entry.ID]
			if !ok {
				continue
			}
			items = append(items, models.FeedItem{
				Type:     models.FeedItemTypePost,
				ID:       entry.ID,
				SortDate: entry.SortDate,
				Post:     post,
			})
		case models.FeedItemTypeShare:
			share, ok := shares[entry.ID]
			if !ok {
				continue
			}
			items = append(items, models.FeedItem{
				Type:     models.FeedItemTypeShare,
				ID:       entry.ID,
				SortDate: entry.SortDate,
				Share:    share,
			})
		}
	}

	return items, nil
}

// InvalidateForAuthor drops the cached feeds that could contain the
// author's posts or shares: the author's own and every follower's.
func (s *FeedService) InvalidateForAuthor(ctx context.Context, authorID uuid.UUID) {
	if err := s.feedRepo.InvalidateFeed(ctx, authorID); err != nil {
		log.Printf("Failed to invalidate feed cache for user %s: %v", authorID, err)
	}

	followerIDs, err := s.followRepo.GetFollowerIDs(ctx, authorID)
	if err != nil {
		log.Printf("Failed to get followers of %s for cache invalidation: %v", authorID, err)
		return
	}

	s.invalidateFeeds(ctx, followerIDs)
}

// InvalidateForViewer drops one viewer's cached feed, e.g. after they
// change who they follow.
func (s *FeedService) InvalidateForViewer(ctx context.Context, viewerID uuid.UUID) {
	if err := s.feedRepo.InvalidateFeed(ctx, viewerID); err != nil {
		log.Printf("Failed to invalidate feed cache for user %s: %v", viewerID, err)
	}
}

func (s *FeedService) invalidateFeeds(ctx context.Context, userIDs []uuid.UUID) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, invalidationWorkers)

	for _, userID := range userIDs {
		wg.Add(1)
		go func(uid uuid.UUID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.feedRepo.InvalidateFeed(ctx, uid); err != nil {
				log.Printf("Failed to invalidate feed cache for user %s: %v", uid, err)
			}
		}(userID)
	}

	wg.Wait()
}

func (s *FeedService) repopulateCache(ctx context.Context, viewerID uuid.UUID, authorIDs []uuid.UUID) {
	window, err := s.feedRepo.GetFeedSkeleton(ctx, authorIDs, 1, repository.FeedCacheWindow)
	if err != nil {
		log.Printf("Failed to rebuild feed cache for user %s: %v", viewerID, err)
		return
	}

	if err := s.feedRepo.CacheSkeleton(ctx, viewerID, window.Items, window.TotalCount); err != nil {
		log.Printf("Failed to cache feed skeleton for user %s: %v", viewerID, err)
	}
}

func (s *FeedService) allowedAuthors(ctx context.Context, viewerID uuid.UUID) ([]uuid.UUID, error) {
	followingIDs, err := s.followRepo.GetFollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get following ids: %w", err)
	}
	return append(followingIDs, viewerID), nil
}

func normalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
