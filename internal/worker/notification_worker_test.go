package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/domain"
	"github.com/spec-kit/feed-service/internal/events"
	"github.com/spec-kit/feed-service/internal/realtime"
	"github.com/spec-kit/feed-service/internal/service"
)

func TestStartNotificationWorker_DeliversPostEventsToSockets(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	hub := realtime.NewHub(zap.NewNop(), nil)
	notifier := realtime.NewNotifier(rdb, "feed:worker", zap.NewNop())
	notifications := service.NewNotificationService(dispatcher, notifier, zap.NewNop(), nil)

	require.NoError(t, StartNotificationWorker(ctx, notifications, hub, notifier, zap.NewNop()))

	client, err := hub.Register(nil, "")
	require.NoError(t, err)

	post := domain.Post{ID: "p1", Title: "Hello World", CreatorID: "u1", Creator: &domain.Author{ID: "u1", Name: "Ann"}}
	require.NoError(t, dispatcher.Publish(ctx, events.NewPostEvent(events.EventPostCreated, "u1", post)))

	select {
	case msg := <-client.Send:
		require.Contains(t, string(msg), `"action":"create"`)
		require.Contains(t, string(msg), `"_id":"p1"`)
	case <-time.After(time.Second):
		t.Fatal("notification never reached the socket")
	}
}

func TestStartNotificationWorker_WithoutNotifier(t *testing.T) {
	t.Parallel()

	require.NoError(t, StartNotificationWorker(context.Background(), nil, nil, nil, zap.NewNop()))
}
