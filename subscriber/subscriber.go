package subscriber

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	natsio "github.com/nats-io/nats.go"

	"feedline/events"
	"feedline/model"
	"feedline/nats"
	"feedline/repository"
)

const streamName = "FEEDLINE_EVENTS"

// NotificationSubscriber turns domain events into notification rows.
// Each subject has its own durable so redeliveries stay per-handler.
type NotificationSubscriber struct {
	client           *nats.Client
	notificationRepo repository.NotificationRepository
	followRepo       repository.FollowRepository
	userRepo         repository.UserRepository
}

func NewNotificationSubscriber(
	client *nats.Client,
	notificationRepo repository.NotificationRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
) *NotificationSubscriber {
	return &NotificationSubscriber{
		client:           client,
		notificationRepo: notificationRepo,
		followRepo:       followRepo,
		userRepo:         userRepo,
	}
}

func (s *NotificationSubscriber) Start() error {
	err := s.client.CreateStream(streamName, []string{
		events.SubjectPostCreated,
		events.SubjectPostCommented,
		events.SubjectPostLiked,
		events.SubjectUserFollowed,
	})
	if err != nil {
		return err
	}

	subs := []struct {
		subject string
		durable string
		handler natsio.MsgHandler
	}{
		{events.SubjectPostCreated, "notify-post-created", s.handlePostCreated},
		{events.SubjectPostCommented, "notify-post-commented", s.handlePostCommented},
		{events.SubjectPostLiked, "notify-post-liked", s.handlePostLiked},
		{events.SubjectUserFollowed, "notify-user-followed", s.handleUserFollowed},
	}

	for _, sub := range subs {
		if _, err := s.client.SubscribeDurable(sub.subject, sub.durable, "notifications", sub.handler); err != nil {
			return err
		}
	}

	return nil
}

// handlePostCreated fans a new-post notification out to every follower
// of the author.
func (s *NotificationSubscriber) handlePostCreated(msg *natsio.Msg) {
	var event events.PostCreatedEvent
	if err := nats.DecodeEvent(msg, &event); err != nil {
		log.Printf("Failed to decode post created event: %v", err)
		msg.Ack()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	author, err := s.userRepo.GetByID(ctx, event.AuthorID)
	if err != nil {
		log.Printf("Failed to load author %s: %v", event.AuthorID, err)
		msg.Nak()
		return
	}

	followerIDs, err := s.followRepo.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		log.Printf("Failed to load followers for %s: %v", event.AuthorID, err)
		msg.Nak()
		return
	}

	message := fmt.Sprintf("%s published a new post", author.Username)
	for _, followerID := range followerIDs {
		notification := &models.Notification{
			ID:        uuid.New(),
			UserID:    followerID,
			Type:      models.NotificationTypePost,
			Message:   message,
			ActorID:   &event.AuthorID,
			RelatedID: &event.PostID,
			CreatedAt: time.Now(),
		}
		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			log.Printf("Failed to create post notification for %s: %v", followerID, err)
		}
	}

	msg.Ack()
}

func (s *NotificationSubscriber) handlePostCommented(msg *natsio.Msg) {
	var event events.PostCommentedEvent
	if err := nats.DecodeEvent(msg, &event); err != nil {
		log.Printf("Failed to decode post commented event: %v", err)
		msg.Ack()
		return
	}

	// Commenting on your own post is not news
	if event.PostOwner == event.CommentedBy {
		msg.Ack()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := s.userRepo.GetByID(ctx, event.CommentedBy)
	if err != nil {
		log.Printf("Failed to load commenter %s: %v", event.CommentedBy, err)
		msg.Nak()
		return
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    event.PostOwner,
		Type:      models.NotificationTypeComment,
		Message:   fmt.Sprintf("%s commented on your post", actor.Username),
		ActorID:   &event.CommentedBy,
		RelatedID: &event.PostID,
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("Failed to create comment notification: %v", err)
		msg.Nak()
		return
	}

	msg.Ack()
}

func (s *NotificationSubscriber) handlePostLiked(msg *natsio.Msg) {
	var event events.PostLikedEvent
	if err := nats.DecodeEvent(msg, &event); err != nil {
		log.Printf("Failed to decode post liked event: %v", err)
		msg.Ack()
		return
	}

	if event.PostOwner == event.LikedBy {
		msg.Ack()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := s.userRepo.GetByID(ctx, event.LikedBy)
	if err != nil {
		log.Printf("Failed to load liker %s: %v", event.LikedBy, err)
		msg.Nak()
		return
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    event.PostOwner,
		Type:      models.NotificationTypeLike,
		Message:   fmt.Sprintf("%s liked your post", actor.Username),
		ActorID:   &event.LikedBy,
		RelatedID: &event.PostID,
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("Failed to create like notification: %v", err)
		msg.Nak()
		return
	}

	msg.Ack()
}

func (s *NotificationSubscriber) handleUserFollowed(msg *natsio.Msg) {
	var event events.UserFollowedEvent
	if err := nats.DecodeEvent(msg, &event); err != nil {
		log.Printf("Failed to decode user followed event: %v", err)
		msg.Ack()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := s.userRepo.GetByID(ctx, event.FollowerID)
	if err != nil {
		log.Printf("Failed to load follower %s: %v", event.FollowerID, err)
		msg.Nak()
		return
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    event.FollowingID,
		Type:      models.NotificationTypeFollow,
		Message:   fmt.Sprintf("%s started following you", actor.Username),
		ActorID:   &event.FollowerID,
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("Failed to create follow notification: %v", err)
		msg.Nak()
		return
	}

	msg.Ack()
}
