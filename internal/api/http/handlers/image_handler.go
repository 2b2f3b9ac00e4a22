package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feed-service/internal/api/dto"
	"github.com/spec-kit/feed-service/internal/storage"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

// ImageHandler stores uploads ahead of GraphQL mutations and serves images
// from object storage.
type ImageHandler struct {
	images storage.ImageStore
}

// NewImageHandler constructs handler.
func NewImageHandler(images storage.ImageStore) *ImageHandler {
	return &ImageHandler{images: images}
}

// Upload PUT /post-image. The replaced image of a post is removed by the
// post update that attaches the new reference, so "oldPath" is ignored here.
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	if _, err := requireIdentity(c); err != nil {
		return err
	}

	ref, err := storeUpload(c, h.images, "image")
	if err != nil {
		return err
	}
	if ref == "" {
		return c.JSON(dto.ImageUploadResponse{Message: "No file provided!"})
	}

	return c.Status(http.StatusCreated).JSON(dto.ImageUploadResponse{Message: "File stored.", FilePath: ref})
}

// Serve GET /images/:name streams an image from the store.
func (h *ImageHandler) Serve(c *fiber.Ctx) error {
	rc, contentType, err := h.images.Open(c.UserContext(), storage.RefPrefix+c.Params("name"))
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) || errors.Is(err, storage.ErrInvalidRef) {
			return apperrors.NewNotFound("Image not found.")
		}
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.SendStream(rc)
}
