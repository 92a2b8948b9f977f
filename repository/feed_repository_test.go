package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedline/model"
)

func TestSkeletonMemberRoundTrip(t *testing.T) {
	item := models.SkeletonItem{
		ID:       uuid.New(),
		Type:     models.FeedItemTypeShare,
		SortDate: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	member := encodeSkeletonMember(item)

	decoded, err := decodeSkeletonMember(redis.Z{
		Score:  float64(item.SortDate.UnixMilli()),
		Member: member,
	})
	require.NoError(t, err)

	assert.Equal(t, item.ID, decoded.ID)
	assert.Equal(t, item.Type, decoded.Type)
	assert.True(t, item.SortDate.Equal(decoded.SortDate))
}

func TestDecodeSkeletonMemberRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name   string
		member interface{}
	}{
		{"not a string", 42},
		{"no separator", "just-an-id"},
		{"bad uuid", "not-a-uuid:post"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeSkeletonMember(redis.Z{Member: tc.member})
			assert.Error(t, err)
		})
	}
}

func TestFeedCacheKeysAreDistinct(t *testing.T) {
	viewerID := uuid.New()
	assert.NotEqual(t, feedCacheKey(viewerID), feedTotalKey(viewerID))
	assert.Contains(t, feedTotalKey(viewerID), feedCacheKey(viewerID))
}
