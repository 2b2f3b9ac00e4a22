package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/realtime"
	"github.com/spec-kit/feed-service/internal/service"
)

// StartNotificationWorker registers the notification handlers and, when a
// Redis notifier is available, subscribes the hub to the shared channel so
// every instance pushes to its own sockets.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, hub *realtime.Hub, notifier *realtime.Notifier, logger *zap.Logger) error {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if hub == nil || notifier == nil {
		return nil
	}
	if err := hub.StartWiring(ctx, notifier); err != nil {
		return err
	}
	logger.Info("realtime fan-out subscribed", zap.String("channel", notifier.Channel()))
	return nil
}
