package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/feed-service/internal/domain"
	"github.com/spec-kit/feed-service/internal/events"
	"github.com/spec-kit/feed-service/internal/validation"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

func TestPostService_CreateThenGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	ann := f.addUser(t, "a@b.com", "Ann")

	created, err := f.posts.CreatePost(ctx, ann, PostInput{
		Title:    "  Hello World ",
		Content:  "Some body text",
		ImageURL: `images\cat.png`,
	})
	require.NoError(t, err)
	assert.Equal(t, ann.UserID, created.Creator.ID)
	assert.Equal(t, "Ann", created.Creator.Name)

	got, err := f.posts.GetPost(ctx, created.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Title)
	assert.Equal(t, "Some body text", got.Content)
	assert.Equal(t, "images/cat.png", got.ImageURL)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "Ann", got.Creator.Name)

	owner, err := f.store.Users().GetByID(ctx, ann.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{created.Post.ID}, owner.PostIDs)
	assert.Equal(t, []events.EventType{events.EventPostCreated}, f.recorded.Types())
}

func TestPostService_CreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      PostInput
		wantFields []string
	}{
		{"short title", PostInput{Title: "Hi", Content: "Some body text", ImageURL: "images/a.png"}, []string{"title"}},
		{"title short after trim", PostInput{Title: "  abc   ", Content: "Some body text", ImageURL: "images/a.png"}, []string{"title"}},
		{"short content", PostInput{Title: "Hello World", Content: "abc", ImageURL: "images/a.png"}, []string{"content"}},
		{"missing image", PostInput{Title: "Hello World", Content: "Some body text"}, []string{"image"}},
		{"everything wrong", PostInput{}, []string{"title", "content", "image"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			ann := f.addUser(t, "a@b.com", "Ann")

			_, err := f.posts.CreatePost(ctx, ann, tt.input)
			require.Error(t, err)
			de := apperrors.ToDomainError(err)
			assert.Equal(t, apperrors.CodeValidation, de.Code)

			fields := de.Data.([]validation.FieldError)
			got := make([]string, 0, len(fields))
			for _, fe := range fields {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.wantFields, got)

			total, err := f.store.Posts().Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, total, "nothing persisted")
			assert.Empty(t, f.recorded.Types())
		})
	}
}

func TestPostService_CreateRequiresExistingUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ghost := f.addUser(t, "a@b.com", "Ann")
	ghost.UserID = "ghost"

	_, err := f.posts.CreatePost(context.Background(), ghost, PostInput{Title: "Hello World", Content: "Some body text", ImageURL: "images/a.png"})
	assert.True(t, apperrors.IsKind(err, apperrors.CodeUnauthenticated))
}

func TestPostService_ListPagination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	ann := f.addUser(t, "a@b.com", "Ann")

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		created, err := f.posts.CreatePost(ctx, ann, PostInput{Title: "Hello World", Content: "Some body text", ImageURL: fmt.Sprintf("images/%d.png", i)})
		require.NoError(t, err)
		ids = append(ids, created.Post.ID)
	}

	page1, err := f.posts.ListPosts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page1.TotalItems)
	require.Len(t, page1.Posts, 2)
	assert.Equal(t, ids[4], page1.Posts[0].ID)
	assert.Equal(t, ids[3], page1.Posts[1].ID)
	require.NotNil(t, page1.Posts[0].Creator)
	assert.Equal(t, "Ann", page1.Posts[0].Creator.Name)

	page3, err := f.posts.ListPosts(ctx, 3)
	require.NoError(t, err)
	require.Len(t, page3.Posts, 1)
	assert.Equal(t, ids[0], page3.Posts[0].ID)

	page0, err := f.posts.ListPosts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, page1.Posts[0].ID, page0.Posts[0].ID)

	page9, err := f.posts.ListPosts(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, page9.Posts)
	assert.Equal(t, int64(5), page9.TotalItems)
}

func TestPostService_GetMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.posts.GetPost(context.Background(), "missing")
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeNotFound, de.Code)
	assert.Equal(t, "Could not find post.", de.Message)
}

func TestPostService_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	ann := f.addUser(t, "a@b.com", "Ann")
	bob := f.addUser(t, "bob@b.com", "Bob")

	created, err := f.posts.CreatePost(ctx, ann, PostInput{Title: "Hello World", Content: "Some body text", ImageURL: "images/old.png"})
	require.NoError(t, err)
	id := created.Post.ID

	t.Run("non owner is rejected and nothing changes", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, bob, id, PostInput{Title: "Hijacked", Content: "Hijacked", ImageURL: "images/evil.png"})
		de := apperrors.ToDomainError(err)
		assert.Equal(t, apperrors.CodeForbidden, de.Code)
		assert.Equal(t, "Not authorized!", de.Message)

		stored, err := f.posts.GetPost(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Hello World", stored.Title)
		assert.Equal(t, "images/old.png", stored.ImageURL)
		assert.Empty(t, f.cleaner.Scheduled())
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, ann, "missing", PostInput{Title: "Hello World", Content: "Some body text", ImageURL: "images/a.png"})
		assert.True(t, apperrors.IsKind(err, apperrors.CodeNotFound))
	})

	t.Run("missing image", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, ann, id, PostInput{Title: "Hello World", Content: "Some body text"})
		de := apperrors.ToDomainError(err)
		require.Equal(t, apperrors.CodeValidation, de.Code)
		fields := de.Data.([]validation.FieldError)
		require.Len(t, fields, 1)
		assert.Equal(t, "No file picked.", fields[0].Message)
	})

	t.Run("same image keeps the file", func(t *testing.T) {
		updated, err := f.posts.UpdatePost(ctx, ann, id, PostInput{Title: "Hello Again", Content: "Some body text", ImageURL: "images/old.png"})
		require.NoError(t, err)
		assert.Equal(t, "Hello Again", updated.Title)
		assert.Empty(t, f.cleaner.Scheduled())
	})

	t.Run("new image removes only the old one", func(t *testing.T) {
		updated, err := f.posts.UpdatePost(ctx, ann, id, PostInput{Title: "Hello Again", Content: "New body text", ImageURL: "images/new.png"})
		require.NoError(t, err)
		assert.Equal(t, "images/new.png", updated.ImageURL)
		assert.Equal(t, []string{"images/old.png"}, f.cleaner.Scheduled())
	})

	assert.Equal(t, []events.EventType{events.EventPostCreated, events.EventPostUpdated, events.EventPostUpdated}, f.recorded.Types())
}

func TestPostService_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	ann := f.addUser(t, "a@b.com", "Ann")
	bob := f.addUser(t, "bob@b.com", "Bob")

	keep, err := f.posts.CreatePost(ctx, ann, PostInput{Title: "Keep this", Content: "Some body text", ImageURL: "images/keep.png"})
	require.NoError(t, err)
	created, err := f.posts.CreatePost(ctx, ann, PostInput{Title: "Hello World", Content: "Some body text", ImageURL: "images/a.png"})
	require.NoError(t, err)
	id := created.Post.ID

	err = f.posts.DeletePost(ctx, bob, id)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeForbidden))

	require.NoError(t, f.posts.DeletePost(ctx, ann, id))

	_, err = f.posts.GetPost(ctx, id)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeNotFound))

	owner, err := f.store.Users().GetByID(ctx, ann.UserID)
	require.NoError(t, err)
	assert.NotContains(t, owner.PostIDs, id)
	assert.Equal(t, []string{keep.Post.ID}, owner.PostIDs)
	assert.Equal(t, []string{"images/a.png"}, f.cleaner.Scheduled())

	err = f.posts.DeletePost(ctx, ann, id)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeNotFound))

	types := f.recorded.Types()
	assert.Equal(t, events.EventPostDeleted, types[len(types)-1])
}

func TestPostService_ImagesStayWithTheirPost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	ann := f.addUser(t, "a@b.com", "Ann")
	bob := f.addUser(t, "bob@b.com", "Bob")

	annPost, err := f.posts.CreatePost(ctx, ann, PostInput{Title: "Ann post", Content: "Some body text", ImageURL: "images/ann.png"})
	require.NoError(t, err)
	bobPost, err := f.posts.CreatePost(ctx, bob, PostInput{Title: "Bob post", Content: "Some body text", ImageURL: "images/bob.png"})
	require.NoError(t, err)

	assertForeignImage := func(t *testing.T, err error) {
		t.Helper()
		de := apperrors.ToDomainError(err)
		require.Equal(t, apperrors.CodeValidation, de.Code)
		fields := de.Data.([]validation.FieldError)
		require.Len(t, fields, 1)
		assert.Equal(t, "image", fields[0].Field)
		assert.Equal(t, "Image does not belong to this post.", fields[0].Message)
	}

	t.Run("create cannot reuse an attached image", func(t *testing.T) {
		_, err := f.posts.CreatePost(ctx, bob, PostInput{Title: "Stolen", Content: "Some body text", ImageURL: `images\ann.png`})
		assertForeignImage(t, err)
	})

	t.Run("update cannot adopt another post's image", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, bob, bobPost.Post.ID, PostInput{Title: "Bob post", Content: "Some body text", ImageURL: "images/ann.png"})
		assertForeignImage(t, err)
	})

	t.Run("fallback must name the stored image", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, bob, bobPost.Post.ID, PostInput{Title: "Bob post", Content: "Some body text", ImageFallback: "images/ann.png"})
		assertForeignImage(t, err)
	})

	t.Run("fallback keeps the stored image", func(t *testing.T) {
		updated, err := f.posts.UpdatePost(ctx, bob, bobPost.Post.ID, PostInput{Title: "Bob edited", Content: "Some body text", ImageFallback: `images\bob.png`})
		require.NoError(t, err)
		assert.Equal(t, "images/bob.png", updated.ImageURL)
	})

	require.NoError(t, f.posts.DeletePost(ctx, bob, bobPost.Post.ID))
	assert.Equal(t, []string{"images/bob.png"}, f.cleaner.Scheduled())

	stored, err := f.posts.GetPost(ctx, annPost.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, "images/ann.png", stored.ImageURL)
}

func TestPostService_DeleteWithoutOwnerRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	ann := f.addUser(t, "a@b.com", "Ann")

	// a post whose creator record is gone
	orphan := &domain.Post{Title: "Orphan", Content: "Some body text", ImageURL: "images/orphan.png", CreatorID: "ghost"}
	require.NoError(t, f.store.Posts().Create(ctx, orphan))

	require.NoError(t, f.posts.DeletePost(ctx, domain.Identity{UserID: "ghost", Email: "ghost@b.com"}, orphan.ID))

	_, err := f.posts.GetPost(ctx, orphan.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeNotFound))
	assert.Equal(t, []string{"images/orphan.png"}, f.cleaner.Scheduled())
	assert.Equal(t, []events.EventType{events.EventPostDeleted}, f.recorded.Types())

	owner, err := f.store.Users().GetByID(ctx, ann.UserID)
	require.NoError(t, err)
	assert.Empty(t, owner.PostIDs)
}
