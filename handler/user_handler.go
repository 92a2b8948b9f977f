package handler

import (
	"net/http"
	"strings"

	"feedline/middleware"
	"feedline/repository"
)

const (
	minSearchLength = 2
	searchLimit     = 5
)

type UserHandler struct {
	userRepo repository.UserRepository
}

func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// Profile returns a user with derived counts, plus whether the caller
// follows them when viewing someone else.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.userRepo.GetProfile(r.Context(), userID, viewerID)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// Search matches usernames and emails. Queries under two characters
// return an empty list without touching storage.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < minSearchLength {
		respondJSON(w, http.StatusOK, map[string]interface{}{"users": []struct{}{}})
		return
	}

	users, err := h.userRepo.Search(r.Context(), query, searchLimit)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}
