package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feed-service/internal/api/dto"
	"github.com/spec-kit/feed-service/internal/auth"
	"github.com/spec-kit/feed-service/internal/domain"
	"github.com/spec-kit/feed-service/internal/service"
	"github.com/spec-kit/feed-service/internal/storage"
	"github.com/spec-kit/feed-service/internal/validation"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

// FeedHandler manages the /feed endpoints.
type FeedHandler struct {
	posts   *service.PostService
	users   *service.UserService
	images  storage.ImageStore
	cleaner service.ImageScheduler
}

// NewFeedHandler constructs handler.
func NewFeedHandler(posts *service.PostService, users *service.UserService, images storage.ImageStore, cleaner service.ImageScheduler) *FeedHandler {
	return &FeedHandler{posts: posts, users: users, images: images, cleaner: cleaner}
}

// GetPosts GET /feed/posts?page=N.
func (h *FeedHandler) GetPosts(c *fiber.Ctx) error {
	page, err := h.posts.ListPosts(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return err
	}
	return c.JSON(dto.PostListResponse{
		Message:    "Fetched posts successfully.",
		Posts:      dto.NewPosts(page.Posts),
		TotalItems: page.TotalItems,
	})
}

// CreatePost POST /feed/post (multipart: title, content, image).
func (h *FeedHandler) CreatePost(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}

	ref, err := storeUpload(c, h.images, "image")
	if err != nil {
		return err
	}

	created, err := h.posts.CreatePost(c.UserContext(), identity, service.PostInput{
		Title:    c.FormValue("title"),
		Content:  c.FormValue("content"),
		ImageURL: ref,
	})
	if err != nil {
		h.discard(ref)
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.PostCreatedResponse{
		Message: "Post created successfully!",
		Post:    dto.NewPost(created.Post),
		Creator: dto.Creator{ID: created.Creator.ID, Name: created.Creator.Name},
	})
}

// GetPost GET /feed/post/:postId.
func (h *FeedHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.posts.GetPost(c.UserContext(), c.Params("postId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.PostResponse{Message: "Post fetched.", Post: dto.NewPost(*post)})
}

// UpdatePost PUT /feed/post/:postId. Without a new file the "image" form
// value must carry the post's current reference.
func (h *FeedHandler) UpdatePost(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}

	ref, err := storeUpload(c, h.images, "image")
	if err != nil {
		return err
	}
	post, err := h.posts.UpdatePost(c.UserContext(), identity, c.Params("postId"), service.PostInput{
		Title:         c.FormValue("title"),
		Content:       c.FormValue("content"),
		ImageURL:      ref,
		ImageFallback: c.FormValue("image"),
	})
	if err != nil {
		h.discard(ref)
		return err
	}
	return c.JSON(dto.PostResponse{Message: "Post updated!", Post: dto.NewPost(*post)})
}

// DeletePost DELETE /feed/post/:postId.
func (h *FeedHandler) DeletePost(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	if err := h.posts.DeletePost(c.UserContext(), identity, c.Params("postId")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Deleted post."})
}

// GetStatus GET /feed/status.
func (h *FeedHandler) GetStatus(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	status, err := h.users.GetStatus(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(dto.StatusResponse{Status: status})
}

// UpdateStatus PATCH /feed/status.
func (h *FeedHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return validation.Failed()
	}
	if _, err := h.users.UpdateStatus(c.UserContext(), identity, req.Status); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "User updated."})
}

func (h *FeedHandler) discard(ref string) {
	if ref != "" && h.cleaner != nil {
		h.cleaner.Schedule(ref)
	}
}

func requireIdentity(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := auth.IdentityFromCtx(c)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthenticated(auth.NotAuthenticatedMessage)
	}
	return identity, nil
}
