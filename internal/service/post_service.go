package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/domain"
	"github.com/spec-kit/feed-service/internal/events"
	"github.com/spec-kit/feed-service/internal/repository"
	"github.com/spec-kit/feed-service/internal/storage"
	"github.com/spec-kit/feed-service/internal/validation"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

// PostsPerPage is the fixed feed page size.
const PostsPerPage = 2

const (
	msgPostNotFound  = "Could not find post."
	msgNotAuthorized = "Not authorized!"
	msgInvalidUser   = "Invalid user."
	msgNoImage       = "No image provided."
	msgNoFilePicked  = "No file picked."
	msgForeignImage  = "Image does not belong to this post."
)

// ImageScheduler queues best-effort removal of a stored image.
type ImageScheduler interface {
	Schedule(ref string) bool
}

// PostInput carries the editable fields of a post. ImageURL is the reference
// of the image to attach; it must not be attached to any other post.
// ImageFallback is what a client sends back on update to keep the current
// image and is honored only when it names the post's stored image.
type PostInput struct {
	Title         string `json:"title" validate:"min=4" message:"Title must have at least 4 characters."`
	Content       string `json:"content" validate:"min=4" message:"Content must have at least 4 characters."`
	ImageURL      string `json:"imageUrl"`
	ImageFallback string `json:"-"`
}

// PostPage is one page of the feed.
type PostPage struct {
	Posts      []domain.Post
	TotalItems int64
}

// CreatedPost is the result of CreatePost.
type CreatedPost struct {
	Post    domain.Post
	Creator domain.Author
}

// PostService enforces ownership and coordinates post mutations with the
// owner's post references, stored images and notifications.
type PostService struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	cleaner    ImageScheduler
	dispatcher events.Dispatcher
	validator  *validation.Validator
	logger     *zap.Logger
}

// PostDependencies bundles collaborators for the post service.
type PostDependencies struct {
	PostRepo   repository.PostRepository
	UserRepo   repository.UserRepository
	Cleaner    ImageScheduler
	Dispatcher events.Dispatcher
	Validator  *validation.Validator
	Logger     *zap.Logger
}

// NewPostService constructs the service.
func NewPostService(deps PostDependencies) *PostService {
	v := deps.Validator
	if v == nil {
		v = validation.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{
		posts:      deps.PostRepo,
		users:      deps.UserRepo,
		cleaner:    deps.Cleaner,
		dispatcher: deps.Dispatcher,
		validator:  v,
		logger:     logger,
	}
}

// ListPosts returns the requested feed page, newest first. Pages start at 1.
func (s *PostService) ListPosts(ctx context.Context, page int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	posts, err := s.posts.List(ctx, PostsPerPage, (page-1)*PostsPerPage)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	authors := make(map[string]*domain.Author)
	for i := range posts {
		if err := s.resolveCreator(ctx, &posts[i], authors); err != nil {
			return nil, err
		}
	}
	return &PostPage{Posts: posts, TotalItems: total}, nil
}

// GetPost loads a single post with its creator.
func (s *PostService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolveCreator(ctx, post, nil); err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePost persists a post owned by identity and links it to the owner.
func (s *PostService) CreatePost(ctx context.Context, identity domain.Identity, input PostInput) (*CreatedPost, error) {
	if err := s.validate(&input, msgNoImage); err != nil {
		return nil, err
	}
	if err := s.checkImageFree(ctx, input.ImageURL, ""); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthenticated(msgInvalidUser)
		}
		return nil, apperrors.NewInternalError(err)
	}

	post := &domain.Post{
		Title:     input.Title,
		Content:   input.Content,
		ImageURL:  input.ImageURL,
		CreatorID: user.ID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.users.AddPost(ctx, user.ID, post.ID); err != nil {
		s.logger.Error("post created without owner reference",
			zap.String("post_id", post.ID), zap.String("user_id", user.ID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	author := user.Author()
	post.Creator = &author
	s.publish(ctx, events.EventPostCreated, identity, *post)
	return &CreatedPost{Post: *post, Creator: author}, nil
}

// UpdatePost edits a post owned by identity. When the image changes, the
// previous image is queued for removal once the write has succeeded.
func (s *PostService) UpdatePost(ctx context.Context, identity domain.Identity, id string, input PostInput) (*domain.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != identity.UserID {
		return nil, apperrors.NewForbidden(msgNotAuthorized)
	}
	var extra []validation.FieldError
	if input.ImageURL == "" && input.ImageFallback != "" {
		if storage.NormalizeRef(input.ImageFallback) == post.ImageURL {
			input.ImageURL = post.ImageURL
		} else {
			extra = append(extra, validation.FieldError{Field: "image", Value: input.ImageFallback, Message: msgForeignImage})
		}
	}
	if err := s.validate(&input, msgNoFilePicked, extra...); err != nil {
		return nil, err
	}
	if input.ImageURL != post.ImageURL {
		if err := s.checkImageFree(ctx, input.ImageURL, post.ID); err != nil {
			return nil, err
		}
	}

	oldImage := post.ImageURL
	post.Title = input.Title
	post.Content = input.Content
	post.ImageURL = input.ImageURL
	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(msgPostNotFound)
		}
		return nil, apperrors.NewInternalError(err)
	}

	if storage.NormalizeRef(oldImage) != post.ImageURL {
		s.scheduleRemoval(oldImage)
	}

	if err := s.resolveCreator(ctx, post, nil); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventPostUpdated, identity, *post)
	return post, nil
}

// DeletePost removes a post owned by identity, unlinks it from the owner and
// queues its image for removal.
func (s *PostService) DeletePost(ctx context.Context, identity domain.Identity, id string) error {
	post, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if post.CreatorID != identity.UserID {
		return apperrors.NewForbidden(msgNotAuthorized)
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound(msgPostNotFound)
		}
		return apperrors.NewInternalError(err)
	}
	s.scheduleRemoval(post.ImageURL)

	err = s.users.RemovePost(ctx, post.CreatorID, post.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.logger.Warn("deleted post has no owner record",
			zap.String("post_id", post.ID), zap.String("user_id", post.CreatorID))
	case err != nil:
		s.logger.Error("post deleted but owner reference kept",
			zap.String("post_id", post.ID), zap.String("user_id", post.CreatorID), zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventPostDeleted, identity, *post)
	return nil
}

func (s *PostService) validate(input *PostInput, missingImage string, extra ...validation.FieldError) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	input.ImageURL = storage.NormalizeRef(input.ImageURL)

	var fields []validation.FieldError
	if err := s.validator.Struct(input); err != nil {
		var de *apperrors.DomainError
		if !errors.As(err, &de) || de.Code != apperrors.CodeValidation {
			return err
		}
		fields = append(fields, de.Data.([]validation.FieldError)...)
	}
	if input.ImageURL == "" && len(extra) == 0 {
		fields = append(fields, validation.FieldError{Field: "image", Message: missingImage})
	}
	fields = append(fields, extra...)
	if len(fields) > 0 {
		return validation.Failed(fields...)
	}
	return nil
}

// checkImageFree rejects a reference already attached to another post, so a
// post can never adopt, and later remove, someone else's image.
func (s *PostService) checkImageFree(ctx context.Context, ref, postID string) error {
	inUse, err := s.posts.ImageInUse(ctx, ref, postID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if inUse {
		return validation.Failed(validation.FieldError{Field: "image", Value: ref, Message: msgForeignImage})
	}
	return nil
}

func (s *PostService) load(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(msgPostNotFound)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return post, nil
}

// resolveCreator fills post.Creator, consulting cache first when given. A
// creator that no longer exists is reported with its id only.
func (s *PostService) resolveCreator(ctx context.Context, post *domain.Post, cache map[string]*domain.Author) error {
	if post.Creator != nil {
		return nil
	}
	if cache != nil {
		if author, ok := cache[post.CreatorID]; ok {
			post.Creator = author
			return nil
		}
	}

	author := &domain.Author{ID: post.CreatorID}
	user, err := s.users.GetByID(ctx, post.CreatorID)
	switch {
	case err == nil:
		resolved := user.Author()
		author = &resolved
	case !errors.Is(err, repository.ErrNotFound):
		return apperrors.NewInternalError(err)
	}

	post.Creator = author
	if cache != nil {
		cache[post.CreatorID] = author
	}
	return nil
}

func (s *PostService) scheduleRemoval(ref string) {
	if s.cleaner == nil || ref == "" {
		return
	}
	s.cleaner.Schedule(ref)
}

func (s *PostService) publish(ctx context.Context, eventType events.EventType, identity domain.Identity, post domain.Post) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.NewPostEvent(eventType, identity.UserID, post)); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
