package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/feed-service/internal/domain"
)

// MemoryStore keeps users and posts in process. It is safe for concurrent use
// and backs tests and local runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	nextSeq int64
	now     func() time.Time
	users   map[string]domain.User
	posts   map[string]domain.Post
}

var _ UserRepository = (*memoryUsers)(nil)
var _ PostRepository = (*memoryPosts)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:   func() time.Time { return time.Now().UTC() },
		users: make(map[string]domain.User),
		posts: make(map[string]domain.Post),
	}
}

// WithClock overrides the timestamp source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() UserRepository { return &memoryUsers{s} }

// Posts returns the post repository view of the store.
func (s *MemoryStore) Posts() PostRepository { return &memoryPosts{s} }

type memoryUsers struct{ s *MemoryStore }

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.PostIDs == nil {
		user.PostIDs = []string{}
	}
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUsers) Update(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	original.Name = user.Name
	original.Email = user.Email
	original.PasswordHash = user.PasswordHash
	original.Status = user.Status
	original.UpdatedAt = s.now()
	s.users[user.ID] = original
	user.UpdatedAt = original.UpdatedAt
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := cloneUser(user)
	return &clone, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			clone := cloneUser(user)
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) AddPost(_ context.Context, userID, postID string) error {
	return r.mutate(userID, func(u *domain.User) { u.AddPost(postID) })
}

func (r *memoryUsers) RemovePost(_ context.Context, userID, postID string) error {
	return r.mutate(userID, func(u *domain.User) { u.RemovePost(postID) })
}

func (r *memoryUsers) mutate(userID string, fn func(*domain.User)) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user = cloneUser(user)
	fn(&user)
	user.UpdatedAt = s.now()
	s.users[userID] = user
	return nil
}

type memoryPosts struct{ s *MemoryStore }

func (r *memoryPosts) Create(_ context.Context, post *domain.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	now := s.now()
	post.ID = uuid.NewString()
	post.Seq = s.nextSeq
	post.CreatedAt = now
	post.UpdatedAt = now

	stored := *post
	stored.Creator = nil
	s.posts[post.ID] = stored
	return nil
}

func (r *memoryPosts) Update(_ context.Context, post *domain.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.ImageURL = post.ImageURL
	stored.UpdatedAt = s.now()
	s.posts[post.ID] = stored
	post.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memoryPosts) GetByID(_ context.Context, id string) (*domain.Post, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &post, nil
}

func (r *memoryPosts) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (r *memoryPosts) List(_ context.Context, limit, offset int) ([]domain.Post, error) {
	s := r.s
	s.mu.RLock()
	all := make([]domain.Post, 0, len(s.posts))
	for _, post := range s.posts {
		all = append(all, post)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Seq > all[j].Seq
	})

	if offset >= len(all) {
		return []domain.Post{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryPosts) Count(_ context.Context) (int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

func (r *memoryPosts) ImageInUse(_ context.Context, imageURL, excludeID string) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, post := range s.posts {
		if id != excludeID && post.ImageURL == imageURL {
			return true, nil
		}
	}
	return false, nil
}

func cloneUser(u domain.User) domain.User {
	u.PostIDs = append([]string(nil), u.PostIDs...)
	if u.PostIDs == nil {
		u.PostIDs = []string{}
	}
	return u
}
