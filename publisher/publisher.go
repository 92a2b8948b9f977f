package publisher

import (
	"log"

	"feedline/events"
	natsClient "feedline/nats"
)

type EventPublisher struct {
	nats *natsClient.Client
}

func NewEventPublisher(nats *natsClient.Client) *EventPublisher {
	return &EventPublisher{nats: nats}
}

func (p *EventPublisher) PublishPostCreated(event events.PostCreatedEvent) error {
	if err := p.nats.Publish(events.SubjectPostCreated, event); err != nil {
		return err
	}

	log.Printf("Published event: %s for post %s", events.SubjectPostCreated, event.PostID)
	return nil
}

func (p *EventPublisher) PublishPostCommented(event events.PostCommentedEvent) error {
	if err := p.nats.Publish(events.SubjectPostCommented, event); err != nil {
		return err
	}

	log.Printf("Published event: %s for comment %s", events.SubjectPostCommented, event.CommentID)
	return nil
}

func (p *EventPublisher) PublishPostLiked(event events.PostLikedEvent) error {
	if err := p.nats.Publish(events.SubjectPostLiked, event); err != nil {
		return err
	}

	log.Printf("Published event: %s for post %s", events.SubjectPostLiked, event.PostID)
	return nil
}

func (p *EventPublisher) PublishUserFollowed(event events.UserFollowedEvent) error {
	if err := p.nats.Publish(events.SubjectUserFollowed, event); err != nil {
		return err
	}

	log.Printf("Published event: %s for user %s", events.SubjectUserFollowed, event.FollowingID)
	return nil
}
