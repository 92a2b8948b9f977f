package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"feedline/events"
	"feedline/middleware"
	"feedline/model"
	"feedline/repository"
)

type CommentHandler struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	publisher   EventPublisher
}

func NewCommentHandler(commentRepo repository.CommentRepository, postRepo repository.PostRepository, publisher EventPublisher) *CommentHandler {
	return &CommentHandler{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		publisher:   publisher,
	}
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	body, ok := decodeCommentBody(w, r)
	if !ok {
		return
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := h.commentRepo.Create(r.Context(), comment); err != nil {
		respondRepoError(w, err)
		return
	}

	if ownerID, err := h.postRepo.GetOwnerID(r.Context(), postID); err == nil {
		if err := h.publisher.PublishPostCommented(events.PostCommentedEvent{
			PostID:      postID,
			PostOwner:   ownerID,
			CommentID:   comment.ID,
			CommentedBy: userID,
			Body:        comment.Body,
			Timestamp:   comment.CreatedAt,
		}); err != nil {
			log.Printf("Failed to publish post commented event: %v", err)
		}
	}

	respondJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	commentID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	body, ok := decodeCommentBody(w, r)
	if !ok {
		return
	}

	comment, err := h.commentRepo.Update(r.Context(), commentID, userID, body)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	commentID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	if err := h.commentRepo.Delete(r.Context(), commentID, userID); err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}

func decodeCommentBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondError(w, http.StatusUnprocessableEntity, "body is required")
		return "", false
	}
	if len(body) > models.MaxCommentBodyLength {
		respondError(w, http.StatusUnprocessableEntity, "body is too long")
		return "", false
	}

	return body, true
}
