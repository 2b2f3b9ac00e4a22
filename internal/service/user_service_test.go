package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/feed-service/internal/domain"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

func TestUserService_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	ann := f.addUser(t, "a@b.com", "Ann")
	svc := NewUserService(f.store.Users())

	status, err := svc.GetStatus(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUserStatus, status)

	updated, err := svc.UpdateStatus(ctx, ann, "  Busy writing  ")
	require.NoError(t, err)
	assert.Equal(t, "Busy writing", updated.Status)

	status, err = svc.GetStatus(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, "Busy writing", status)

	_, err = svc.UpdateStatus(ctx, ann, "   ")
	assert.True(t, apperrors.IsKind(err, apperrors.CodeValidation))

	_, err = svc.GetStatus(ctx, domain.Identity{UserID: "ghost"})
	assert.True(t, apperrors.IsKind(err, apperrors.CodeNotFound))

	_, err = svc.GetUser(ctx, domain.Identity{})
	assert.True(t, apperrors.IsKind(err, apperrors.CodeUnauthenticated))
}
