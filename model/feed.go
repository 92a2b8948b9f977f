package models

import (
	"time"

	"github.com/google/uuid"
)

type FeedItemType string

const (
	FeedItemTypePost  FeedItemType = "post"
	FeedItemTypeShare FeedItemType = "share"
)

// SkeletonItem is the lightweight projection the feed is paginated on
// before any entity is loaded. The union of the post and share projections
// is sorted and sliced as one set, so page boundaries stay stable across
// the two tables.
type SkeletonItem struct {
	ID       uuid.UUID    `json:"id" db:"id"`
	Type     FeedItemType `json:"type" db:"type"`
	SortDate time.Time    `json:"sort_date" db:"sort_date"`
}

// SkeletonPage is one page of skeleton rows plus the union's total count.
type SkeletonPage struct {
	Items      []SkeletonItem
	TotalCount int64
}

// FeedItem is one assembled feed entry. Exactly one of Post or Share is
// set, matching Type; a share whose target post is gone keeps
// Share.Post == nil and Share.Unavailable == true.
type FeedItem struct {
	Type     FeedItemType `json:"type"`
	ID       uuid.UUID    `json:"id"`
	SortDate time.Time    `json:"sort_date"`
	Post     *PostDetail  `json:"post,omitempty"`
	Share    *ShareDetail `json:"share,omitempty"`
}

// FeedPage is the paginated, viewer-scoped feed returned to the client.
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalCount int64      `json:"total_count"`
	LastPage   int        `json:"last_page"`
}

// LastPageFor computes the 1-based index of the final page.
func LastPageFor(totalCount int64, perPage int) int {
	if totalCount == 0 {
		return 1
	}
	return int((totalCount + int64(perPage) - 1) / int64(perPage))
}
