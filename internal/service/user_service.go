package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/feed-service/internal/domain"
	"github.com/spec-kit/feed-service/internal/repository"
	"github.com/spec-kit/feed-service/internal/validation"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

const msgUserNotFound = "User not found."

// UserService exposes the caller's own account.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetUser loads the account behind identity.
func (s *UserService) GetUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	if identity.IsZero() {
		return nil, apperrors.NewUnauthenticated("Not authenticated.")
	}
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(msgUserNotFound)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// GetStatus returns the caller's status text.
func (s *UserService) GetStatus(ctx context.Context, identity domain.Identity) (string, error) {
	user, err := s.GetUser(ctx, identity)
	if err != nil {
		return "", err
	}
	return user.Status, nil
}

// UpdateStatus replaces the caller's status text; blank input is rejected.
func (s *UserService) UpdateStatus(ctx context.Context, identity domain.Identity, status string) (*domain.User, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, validation.Failed(validation.FieldError{Field: "status", Value: status, Message: "Status must not be empty."})
	}

	user, err := s.GetUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(msgUserNotFound)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
