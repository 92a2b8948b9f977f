package handler

import (
	"log"
	"net/http"
	"time"

	"feedline/events"
	"feedline/middleware"
	"feedline/repository"
)

type LikeHandler struct {
	likeRepo  repository.LikeRepository
	postRepo  repository.PostRepository
	publisher EventPublisher
}

func NewLikeHandler(likeRepo repository.LikeRepository, postRepo repository.PostRepository, publisher EventPublisher) *LikeHandler {
	return &LikeHandler{
		likeRepo:  likeRepo,
		postRepo:  postRepo,
		publisher: publisher,
	}
}

// Toggle flips the caller's like on a post. The event fires only when
// the toggle lands in the liked state.
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
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

	state, err := h.likeRepo.Toggle(r.Context(), postID, userID)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	if state.Liked {
		if ownerID, err := h.postRepo.GetOwnerID(r.Context(), postID); err == nil {
			if err := h.publisher.PublishPostLiked(events.PostLikedEvent{
				PostID:    postID,
				PostOwner: ownerID,
				LikedBy:   userID,
				Timestamp: time.Now(),
			}); err != nil {
				log.Printf("Failed to publish post liked event: %v", err)
			}
		}
	}

	respondJSON(w, http.StatusOK, state)
}
