package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypePost    NotificationType = "POST"
	NotificationTypeComment NotificationType = "COMMENT"
	NotificationTypeLike    NotificationType = "LIKE"
	NotificationTypeFollow  NotificationType = "FOLLOW"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	ActorID   *uuid.UUID       `json:"actor_id,omitempty" db:"actor_id"`
	RelatedID *uuid.UUID       `json:"related_id,omitempty" db:"related_id"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Page          int            `json:"page"`
	PerPage       int            `json:"per_page"`
	TotalCount    int64          `json:"total_count"`
	UnreadCount   int32          `json:"unread_count"`
	LastPage      int            `json:"last_page"`
}
