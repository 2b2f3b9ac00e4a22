package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/events"
)

type stubPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *stubPublisher) Publish(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestNotificationService_PublishesPostChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	publisher := &stubPublisher{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	NewNotificationService(dispatcher, publisher, zap.NewNop(), nil).RegisterHandlers()

	f.posts.dispatcher = dispatcher
	ann := f.addUser(t, "a@b.com", "Ann")

	created, err := f.posts.CreatePost(ctx, ann, PostInput{Title: "Hello World", Content: "Some body text", ImageURL: "images/a.png"})
	require.NoError(t, err)
	require.NoError(t, f.posts.DeletePost(ctx, ann, created.Post.ID))

	require.Len(t, publisher.payloads, 2)

	var createMsg struct {
		Action string `json:"action"`
		Post   struct {
			ID      string `json:"_id"`
			Title   string `json:"title"`
			Creator struct {
				ID   string `json:"_id"`
				Name string `json:"name"`
			} `json:"creator"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &createMsg))
	assert.Equal(t, ActionCreate, createMsg.Action)
	assert.Equal(t, created.Post.ID, createMsg.Post.ID)
	assert.Equal(t, "Hello World", createMsg.Post.Title)
	assert.Equal(t, "Ann", createMsg.Post.Creator.Name)

	var deleteMsg struct {
		Action string `json:"action"`
		Post   string `json:"post"`
	}
	require.NoError(t, json.Unmarshal(publisher.payloads[1], &deleteMsg))
	assert.Equal(t, ActionDelete, deleteMsg.Action)
	assert.Equal(t, created.Post.ID, deleteMsg.Post)
}

func TestNotificationService_PublishFailureDoesNotFailMutation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	NewNotificationService(dispatcher, &stubPublisher{err: errors.New("redis down")}, zap.NewNop(), nil).RegisterHandlers()
	f.posts.dispatcher = dispatcher
	ann := f.addUser(t, "a@b.com", "Ann")

	_, err := f.posts.CreatePost(context.Background(), ann, PostInput{Title: "Hello World", Content: "Some body text", ImageURL: "images/a.png"})
	assert.NoError(t, err)
}

func TestEncodeNotification_RejectsUnexpectedPayload(t *testing.T) {
	t.Parallel()

	_, err := EncodeNotification(ActionCreate, events.Event{Type: events.EventPostCreated, Payload: "nope"})
	assert.Error(t, err)
}
