package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/feed-service/internal/domain"
	"github.com/spec-kit/feed-service/internal/events"
	"github.com/spec-kit/feed-service/internal/repository"
)

type stubCleaner struct {
	mu        sync.Mutex
	scheduled []string
}

func (s *stubCleaner) Schedule(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, ref)
	return true
}

func (s *stubCleaner) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scheduled...)
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) Types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store    *repository.MemoryStore
	posts    *PostService
	cleaner  *stubCleaner
	recorded *recordedEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	recorded := &recordedEvents{}
	for _, et := range []events.EventType{events.EventPostCreated, events.EventPostUpdated, events.EventPostDeleted} {
		dispatcher.Subscribe(et, recorded.handler)
	}
	cleaner := &stubCleaner{}

	return &fixture{
		store: store,
		posts: NewPostService(PostDependencies{
			PostRepo:   store.Posts(),
			UserRepo:   store.Users(),
			Cleaner:    cleaner,
			Dispatcher: dispatcher,
		}),
		cleaner:  cleaner,
		recorded: recorded,
	}
}

func (f *fixture) addUser(t *testing.T, email, name string) domain.Identity {
	t.Helper()
	user := &domain.User{Email: email, Name: name, PasswordHash: "x", Status: domain.DefaultUserStatus}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return domain.Identity{UserID: user.ID, Email: user.Email}
}
