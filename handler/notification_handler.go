package handler

import (
	"net/http"

	"feedline/middleware"
	"feedline/repository"
)

type NotificationHandler struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationHandler(notificationRepo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	page, perPage := pageParams(r)
	result, err := h.notificationRepo.GetByUserID(r.Context(), userID, page, perPage)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := h.notificationRepo.MarkAllAsRead(r.Context(), userID); err != nil {
		respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "notifications marked as read"})
}
