package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// RefPrefix is the leading segment of every stored image reference; it is
// also the URL prefix images are served under.
const RefPrefix = "images/"

var (
	// ErrImageNotFound is returned when a reference names no stored image.
	ErrImageNotFound = errors.New("image not found")
	// ErrInvalidRef is returned for references outside the image namespace.
	ErrInvalidRef = errors.New("invalid image reference")
)

var acceptedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpeg",
}

// ImageStore persists uploaded images under opaque references of the form
// images/<uuid>-<name>.
type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, ref string) error
	Ping(ctx context.Context) error
}

// Accepts reports whether an upload with contentType is stored at all.
// Other types are treated as if no file had been sent.
func Accepts(contentType string) bool {
	_, ok := acceptedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// NormalizeRef converts Windows separators and strips a leading slash.
func NormalizeRef(ref string) string {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), `\`, "/")
	return strings.TrimPrefix(ref, "/")
}

// NewRef builds a fresh reference for an uploaded filename.
func NewRef(filename string) string {
	base := path.Base(NormalizeRef(filename))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	base = strings.ReplaceAll(base, " ", "-")
	return RefPrefix + uuid.NewString() + "-" + base
}

// ObjectName returns the storage key for ref, rejecting anything that is not a
// single name below the images namespace.
func ObjectName(ref string) (string, error) {
	ref = NormalizeRef(ref)
	if !strings.HasPrefix(ref, RefPrefix) {
		return "", ErrInvalidRef
	}
	name := strings.TrimPrefix(ref, RefPrefix)
	if name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return "", ErrInvalidRef
	}
	return name, nil
}

// ContentTypeFor guesses the content type from the reference extension.
func ContentTypeFor(ref string) string {
	switch strings.ToLower(path.Ext(ref)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
