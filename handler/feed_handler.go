package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"feedline/middleware"
	"feedline/model"
)

// FeedSource is the slice of the feed service the handler needs.
type FeedSource interface {
	DashboardFeed(ctx context.Context, viewerID uuid.UUID, page, perPage int) (*models.FeedPage, error)
	ProfileFeed(ctx context.Context, profileUserID, viewerID uuid.UUID, page, perPage int) (*models.FeedPage, error)
}

type FeedHandler struct {
	feeds FeedSource
}

func NewFeedHandler(feeds FeedSource) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

// Dashboard serves the viewer's personalized feed page
func (h *FeedHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	page, perPage := pageParams(r)

	feed, err := h.feeds.DashboardFeed(r.Context(), viewerID, page, perPage)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, feed)
}

// Profile serves one author's posts and shares, annotated for the viewer
func (h *FeedHandler) Profile(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	profileUserID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	page, perPage := pageParams(r)

	feed, err := h.feeds.ProfileFeed(r.Context(), profileUserID, viewerID, page, perPage)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, feed)
}
