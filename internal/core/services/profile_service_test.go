package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/mocks"
	"github.com/polizadesk/ticketboard/internal/core/services"
)

func TestProfileService_ListAssignable(t *testing.T) {
	ctx := context.Background()

	t.Run("admin sees every profile", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewProfileService(userRepo)

		admin := adminUser()
		everyone := []*domain.User{admin, regularUser(), regularUser()}

		userRepo.On("GetByID", ctx, admin.ID).Return(admin, nil)
		userRepo.On("List", ctx).Return(everyone, nil)

		users, err := svc.ListAssignable(ctx, admin.ID)

		require.NoError(t, err)
		assert.Equal(t, everyone, users)
	})

	t.Run("regular user only sees themselves", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewProfileService(userRepo)

		user := regularUser()
		userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

		users, err := svc.ListAssignable(ctx, user.ID)

		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Same(t, user, users[0])
		userRepo.AssertNotCalled(t, "List")
	})

	t.Run("unknown actor propagates not found", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewProfileService(userRepo)

		unknownID := uuid.New()
		userRepo.On("GetByID", ctx, unknownID).Return(nil, apperrors.ErrUserNotFound)

		_, err := svc.ListAssignable(ctx, unknownID)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
