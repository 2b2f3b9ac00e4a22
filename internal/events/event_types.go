package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/feed-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPostCreated EventType = "post_created"
	EventPostUpdated EventType = "post_updated"
	EventPostDeleted EventType = "post_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	PostID    string      `json:"post_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PostPayload carries the post as it looked after the change, with its
// creator resolved.
type PostPayload struct {
	Post domain.Post
}

// NewPostEvent builds an event for a post change made by actorID.
func NewPostEvent(eventType EventType, actorID string, post domain.Post) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		PostID:    post.ID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   PostPayload{Post: post},
	}
}
