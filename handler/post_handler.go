package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"feedline/events"
	"feedline/middleware"
	"feedline/model"
	"feedline/repository"
	"feedline/storage"
)

const maxUploadBytes = 10 << 20

type PostHandler struct {
	postRepo  repository.PostRepository
	images    storage.ImageStore
	publisher EventPublisher
	feeds     FeedInvalidator
}

func NewPostHandler(postRepo repository.PostRepository, images storage.ImageStore, publisher EventPublisher, feeds FeedInvalidator) *PostHandler {
	return &PostHandler{
		postRepo:  postRepo,
		images:    images,
		publisher: publisher,
		feeds:     feeds,
	}
}

// Create accepts a multipart form with a content field and an optional
// image file.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		respondError(w, http.StatusUnprocessableEntity, "content is required")
		return
	}
	if len(content) > models.MaxPostContentLength {
		respondError(w, http.StatusUnprocessableEntity, "content is too long")
		return
	}

	var imageURL *string
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		key, err := h.images.Store(header.Filename, file)
		if err != nil {
			respondRepoError(w, err)
			return
		}
		url := h.images.URL(key)
		imageURL = &url
	}

	now := time.Now()
	post := &models.Post{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   content,
		ImageURL:  imageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.postRepo.Create(r.Context(), post); err != nil {
		respondRepoError(w, err)
		return
	}

	if err := h.publisher.PublishPostCreated(events.PostCreatedEvent{
		PostID:    post.ID,
		AuthorID:  userID,
		Content:   post.Content,
		Timestamp: post.CreatedAt,
	}); err != nil {
		log.Printf("Failed to publish post created event: %v", err)
	}

	go h.feeds.InvalidateForAuthor(context.Background(), userID)

	respondJSON(w, http.StatusCreated, post)
}

// Get serves one post in the same hydrated shape feed items use
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	postID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	detail, err := h.postRepo.GetByID(r.Context(), postID, viewerID)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// Update edits the caller's own post; a new image replaces and deletes
// the old one.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		respondError(w, http.StatusUnprocessableEntity, "content is required")
		return
	}
	if len(content) > models.MaxPostContentLength {
		respondError(w, http.StatusUnprocessableEntity, "content is too long")
		return
	}

	post, err := h.postRepo.GetOwned(r.Context(), postID, userID)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		key, err := h.images.Store(header.Filename, file)
		if err != nil {
			respondRepoError(w, err)
			return
		}
		if post.ImageURL != nil {
			if err := h.images.Delete(storageKeyFromURL(*post.ImageURL)); err != nil {
				log.Printf("Failed to delete replaced image: %v", err)
			}
		}
		url := h.images.URL(key)
		post.ImageURL = &url
	}

	post.Content = content
	post.UpdatedAt = time.Now()

	if err := h.postRepo.Update(r.Context(), post); err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// Delete soft-deletes the caller's own post, or hard-deletes it with its
// comments, likes and shares when force=true.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if r.URL.Query().Get("force") == "true" {
		err = h.postRepo.HardDelete(r.Context(), postID, userID)
	} else {
		err = h.postRepo.SoftDelete(r.Context(), postID, userID)
	}
	if err != nil {
		respondRepoError(w, err)
		return
	}

	go h.feeds.InvalidateForAuthor(context.Background(), userID)

	respondJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

// storageKeyFromURL undoes ImageStore.URL for stored keys
func storageKeyFromURL(url string) string {
	return strings.TrimPrefix(url, "/uploads/")
}
