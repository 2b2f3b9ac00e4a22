// Package realtime pushes post notifications to websocket clients, fanning
// out across instances through Redis pub/sub.
package realtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis channel post notifications travel on.
const DefaultChannel = "feed:posts"

// Notifier publishes notifications into a Redis channel and subscribes to it.
type Notifier struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

// NewNotifier creates a Notifier; an empty channel selects DefaultChannel.
func NewNotifier(rdb *redis.Client, channel string, logger *zap.Logger) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{rdb: rdb, channel: channel, logger: logger}
}

// Channel returns the channel name in use.
func (n *Notifier) Channel() string { return n.channel }

// Publish sends payload to every subscribed instance.
func (n *Notifier) Publish(ctx context.Context, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, n.channel, payload).Err()
}

// StartSubscriber subscribes to the channel and calls onMessage for every
// payload until ctx ends. It returns once the subscription is confirmed.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							n.logger.Error("panic in notification subscriber",
								zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
