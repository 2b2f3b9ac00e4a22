package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/api/dto"
	"github.com/spec-kit/feed-service/internal/events"
	"github.com/spec-kit/feed-service/internal/observability"
)

// Notification actions carried on the wire.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Publisher delivers an encoded notification to subscribed clients.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// NotificationService turns post events into realtime notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, publisher Publisher, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.publisher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPostCreated, n.handle(ActionCreate))
	n.dispatcher.Subscribe(events.EventPostUpdated, n.handle(ActionUpdate))
	n.dispatcher.Subscribe(events.EventPostDeleted, n.handle(ActionDelete))
}

func (n *NotificationService) handle(action string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		payload, err := EncodeNotification(action, event)
		if err != nil {
			return err
		}
		if err := n.publisher.Publish(ctx, payload); err != nil {
			return fmt.Errorf("publish %s notification: %w", action, err)
		}
		n.metrics.RecordNotification(action)
		n.logger.Debug("post notification published",
			zap.String("action", action), zap.String("post_id", event.PostID))
		return nil
	}
}

// EncodeNotification renders the wire message for a post event. Deletes only
// carry the post id.
func EncodeNotification(action string, event events.Event) ([]byte, error) {
	msg := dto.PostNotification{Action: action, Post: event.PostID}
	if action != ActionDelete {
		payload, ok := event.Payload.(events.PostPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}
		msg.Post = dto.NewPost(payload.Post)
	}
	return json.Marshal(msg)
}
