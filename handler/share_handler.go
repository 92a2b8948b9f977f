package handler

import (
	"context"
	"net/http"

	"feedline/middleware"
	"feedline/repository"
)

type ShareHandler struct {
	shareRepo repository.ShareRepository
	feeds     FeedInvalidator
}

func NewShareHandler(shareRepo repository.ShareRepository, feeds FeedInvalidator) *ShareHandler {
	return &ShareHandler{
		shareRepo: shareRepo,
		feeds:     feeds,
	}
}

// Toggle flips the caller's share of a post. Either direction changes
// what the caller's followers see, so their cached feeds are dropped.
func (h *ShareHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	postID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	state, err := h.shareRepo.Toggle(r.Context(), postID, userID)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	go h.feeds.InvalidateForAuthor(context.Background(), userID)

	respondJSON(w, http.StatusOK, state)
}
