package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/feed-service/internal/domain"
)

func TestMemoryUsers_CreateAndLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := NewMemoryStore().Users()

	user := &domain.User{Email: "a@b.com", Name: "Ann", PasswordHash: "hash", Status: domain.DefaultUserStatus}
	require.NoError(t, users.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byEmail, err := users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	err = users.Create(ctx, &domain.User{Email: "a@b.com", Name: "Other"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUsers_PostReferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := NewMemoryStore().Users()
	user := &domain.User{Email: "a@b.com", Name: "Ann"}
	require.NoError(t, users.Create(ctx, user))

	require.NoError(t, users.AddPost(ctx, user.ID, "p1"))
	require.NoError(t, users.AddPost(ctx, user.ID, "p2"))
	require.NoError(t, users.AddPost(ctx, user.ID, "p1"))

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, stored.PostIDs)

	// returned values are copies
	stored.PostIDs[0] = "mutated"
	require.NoError(t, users.RemovePost(ctx, user.ID, "p1"))

	stored, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, stored.PostIDs)

	assert.ErrorIs(t, users.AddPost(ctx, "missing", "p1"), ErrNotFound)
}

func TestMemoryPosts_ListOrderAndPagination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	// the last two posts share a timestamp; insertion order must break the tie
	stamps := []time.Time{base, base.Add(time.Minute), base.Add(2 * time.Minute), base.Add(3 * time.Minute), base.Add(3 * time.Minute)}
	store := NewMemoryStore().WithClock(func() time.Time {
		ts := stamps[tick]
		tick++
		return ts
	})
	posts := store.Posts()

	ids := make([]string, 0, len(stamps))
	for range stamps {
		post := &domain.Post{Title: "title", Content: "content", ImageURL: "images/x.png", CreatorID: "u1"}
		require.NoError(t, posts.Create(ctx, post))
		ids = append(ids, post.ID)
	}

	total, err := posts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	page1, err := posts.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[4], page1[0].ID)
	assert.Equal(t, ids[3], page1[1].ID)

	page3, err := posts.List(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, ids[0], page3[0].ID)

	beyond, err := posts.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestMemoryPosts_UpdateDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := NewMemoryStore().Posts()
	post := &domain.Post{Title: "Hello World", Content: "Some body text", ImageURL: "images/a.png", CreatorID: "u1"}
	require.NoError(t, posts.Create(ctx, post))

	post.Title = "Changed"
	post.CreatorID = "someone-else"
	require.NoError(t, posts.Update(ctx, post))

	stored, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", stored.Title)
	assert.Equal(t, "u1", stored.CreatorID, "creator is immutable")

	require.NoError(t, posts.Delete(ctx, post.ID))
	_, err = posts.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, posts.Delete(ctx, post.ID), ErrNotFound)
	assert.ErrorIs(t, posts.Update(ctx, post), ErrNotFound)
}

func TestMemoryPosts_ImageInUse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := NewMemoryStore().Posts()
	post := &domain.Post{Title: "Title", Content: "Content", ImageURL: "images/a.png", CreatorID: "u1"}
	require.NoError(t, posts.Create(ctx, post))

	inUse, err := posts.ImageInUse(ctx, "images/a.png", "")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = posts.ImageInUse(ctx, "images/a.png", post.ID)
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = posts.ImageInUse(ctx, "images/b.png", "")
	require.NoError(t, err)
	assert.False(t, inUse)
}
