package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"feedline/events"
	"feedline/middleware"
	"feedline/repository"
)

type FollowHandler struct {
	followRepo repository.FollowRepository
	publisher  EventPublisher
	feeds      FeedInvalidator
}

func NewFollowHandler(followRepo repository.FollowRepository, publisher EventPublisher, feeds FeedInvalidator) *FollowHandler {
	return &FollowHandler{
		followRepo: followRepo,
		publisher:  publisher,
		feeds:      feeds,
	}
}

// Toggle follows or unfollows the target user. The caller's dashboard
// author set changes either way, so only the caller's cache is dropped.
func (h *FollowHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	targetID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	state, err := h.followRepo.Toggle(r.Context(), userID, targetID)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	if state.Following {
		if err := h.publisher.PublishUserFollowed(events.UserFollowedEvent{
			FollowerID:  userID,
			FollowingID: targetID,
			Timestamp:   time.Now(),
		}); err != nil {
			log.Printf("Failed to publish user followed event: %v", err)
		}
	}

	go h.feeds.InvalidateForViewer(context.Background(), userID)

	respondJSON(w, http.StatusOK, state)
}

func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	page, perPage := pageParams(r)
	result, err := h.followRepo.GetFollowers(r.Context(), userID, viewerID, page, perPage)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	page, perPage := pageParams(r)
	result, err := h.followRepo.GetFollowing(r.Context(), userID, viewerID, page, perPage)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
