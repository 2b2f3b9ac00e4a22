package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/feed-service/internal/domain"
)

func TestDispatcher_DeliversToSubscribersOfType(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var created, deleted []string
	d.Subscribe(EventPostCreated, func(_ context.Context, e Event) error {
		return errors.New("first handler fails")
	})
	d.Subscribe(EventPostCreated, func(_ context.Context, e Event) error {
		created = append(created, e.PostID)
		return nil
	})
	d.Subscribe(EventPostDeleted, func(_ context.Context, e Event) error {
		deleted = append(deleted, e.PostID)
		return nil
	})

	post := domain.Post{ID: "p1", Title: "Hello World"}
	require.NoError(t, d.Publish(context.Background(), NewPostEvent(EventPostCreated, "u1", post)))
	require.NoError(t, d.Publish(context.Background(), NewPostEvent(EventPostUpdated, "u1", post)))

	assert.Equal(t, []string{"p1"}, created)
	assert.Empty(t, deleted)
	assert.Equal(t, 1, logs.Len())
}

func TestNewPostEvent(t *testing.T) {
	t.Parallel()

	post := domain.Post{ID: "p1", Title: "Hello World"}
	e := NewPostEvent(EventPostUpdated, "u1", post)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "p1", e.PostID)
	assert.Equal(t, "u1", e.ActorID)
	payload, ok := e.Payload.(PostPayload)
	require.True(t, ok)
	assert.Equal(t, post, payload.Post)
}
