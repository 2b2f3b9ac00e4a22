package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feed-service/internal/storage"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

// storeUpload saves the multipart file in field, returning its reference.
// No file, a non-multipart body or an unsupported type all yield "".
func storeUpload(c *fiber.Ctx, images storage.ImageStore, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	contentType := file.Header.Get(fiber.HeaderContentType)
	if !storage.Accepts(contentType) {
		return "", nil
	}

	f, err := file.Open()
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	defer f.Close()

	ref, err := images.Save(c.UserContext(), file.Filename, contentType, f, file.Size)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return ref, nil
}
