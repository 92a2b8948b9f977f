package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"feedline/events"
	"feedline/repository"
	"feedline/service"
)

// EventPublisher is the slice of the NATS publisher the handlers need.
type EventPublisher interface {
	PublishPostCreated(event events.PostCreatedEvent) error
	PublishPostCommented(event events.PostCommentedEvent) error
	PublishPostLiked(event events.PostLikedEvent) error
	PublishUserFollowed(event events.UserFollowedEvent) error
}

// FeedInvalidator drops cached feeds after a write that changes feed
// contents. Handlers call it in the background; staleness until then is
// bounded by the cache TTL.
type FeedInvalidator interface {
	InvalidateForAuthor(ctx context.Context, authorID uuid.UUID)
	InvalidateForViewer(ctx context.Context, viewerID uuid.UUID)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondRepoError maps repository sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response.
func respondRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrForbidden):
		respondError(w, http.StatusForbidden, "not permitted")
	case errors.Is(err, repository.ErrSelfFollow):
		respondError(w, http.StatusUnprocessableEntity, "you cannot follow yourself")
	case errors.Is(err, repository.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "already exists")
	default:
		log.Printf("Internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = service.DefaultPerPage
	}
	if perPage > service.MaxPerPage {
		perPage = service.MaxPerPage
	}
	return page, perPage
}
