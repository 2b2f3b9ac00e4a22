package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/feed-service/internal/auth"
	"github.com/spec-kit/feed-service/internal/domain"
	"github.com/spec-kit/feed-service/internal/repository"
	"github.com/spec-kit/feed-service/internal/validation"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

const (
	msgEmailTaken    = "E-mail address already exists!"
	msgUnknownEmail  = "A user with this email could not be found."
	msgWrongPassword = "Wrong password"
)

// SignupInput describes a registration request.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email" message:"Please enter a valid email."`
	Name     string `json:"name" validate:"required" message:"Please enter a name."`
	Password string `json:"password" validate:"min=5" message:"Password must have at least 5 characters."`
}

// LoginResult is returned after successful authentication.
type LoginResult struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	validator  *validation.Validator
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Validator    *validation.Validator
	BcryptCost   int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	v := deps.Validator
	if v == nil {
		v = validation.New()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   deps.TokenManager,
		validator:  v,
		bcryptCost: deps.BcryptCost,
	}
}

// Signup creates a new account. Every rejected field is reported in one
// validation error, including an already registered email.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Password = strings.TrimSpace(input.Password)

	var fields []validation.FieldError
	if err := s.validator.Struct(input); err != nil {
		var de *apperrors.DomainError
		if !errors.As(err, &de) || de.Code != apperrors.CodeValidation {
			return nil, err
		}
		fields = append(fields, de.Data.([]validation.FieldError)...)
	}

	if input.Email != "" {
		_, err := s.users.GetByEmail(ctx, input.Email)
		switch {
		case err == nil:
			fields = append(fields, validation.FieldError{Field: "email", Value: input.Email, Message: msgEmailTaken})
		case !errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewInternalError(err)
		}
	}
	if len(fields) > 0 {
		return nil, validation.Failed(fields...)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Status:       domain.DefaultUserStatus,
		PostIDs:      []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, validation.Failed(validation.FieldError{Field: "email", Value: input.Email, Message: msgEmailTaken})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Login authenticates a user and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthenticated(msgUnknownEmail)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthenticated(msgWrongPassword)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, UserID: user.ID, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
