package services_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/mocks"
	"github.com/polizadesk/ticketboard/internal/core/services"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success creates a user-role profile", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		userRepo.On("GetByEmail", ctx, "ana@example.com").Return(nil, apperrors.ErrUserNotFound)
		call := userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User"))
		call.Run(func(args mock.Arguments) {
			call.ReturnArguments = mock.Arguments{args.Get(1), nil}
		})

		user, err := svc.Register(ctx, "Ana Torres", "ana@example.com", "secret-pass")

		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.Equal(t, "Ana Torres", user.FullName)
		assert.NotEmpty(t, user.PasswordHash)
		assert.True(t, user.CheckPassword("secret-pass"))
		userRepo.AssertExpectations(t)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		existing := &domain.User{ID: uuid.New(), Email: "ana@example.com"}
		userRepo.On("GetByEmail", ctx, "ana@example.com").Return(existing, nil)

		_, err := svc.Register(ctx, "Ana Torres", "ana@example.com", "secret-pass")

		assert.ErrorIs(t, err, apperrors.ErrUserExists)
		userRepo.AssertNotCalled(t, "Create")
	})

	t.Run("short password fails validation", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		userRepo.On("GetByEmail", ctx, "ana@example.com").Return(nil, apperrors.ErrUserNotFound)

		_, err := svc.Register(ctx, "Ana Torres", "ana@example.com", "short")

		var validationErrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
		assert.Contains(t, validationErrs.Errors, "password")
		userRepo.AssertNotCalled(t, "Create")
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	newStoredUser := func(t *testing.T, password string) *domain.User {
		t.Helper()
		hash, err := domain.HashPassword(password)
		require.NoError(t, err)
		return &domain.User{
			ID:           uuid.New(),
			Email:        "ana@example.com",
			FullName:     "Ana Torres",
			Role:         domain.RoleUser,
			PasswordHash: hash,
		}
	}

	t.Run("success", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		stored := newStoredUser(t, "secret-pass")
		userRepo.On("GetByEmail", ctx, "ana@example.com").Return(stored, nil)

		user, err := svc.Login(ctx, "ana@example.com", "secret-pass")

		require.NoError(t, err)
		assert.Equal(t, stored.ID, user.ID)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		stored := newStoredUser(t, "secret-pass")
		userRepo.On("GetByEmail", ctx, "ana@example.com").Return(stored, nil)
		userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrUserNotFound)

		_, wrongPass := svc.Login(ctx, "ana@example.com", "wrong-pass")
		_, unknownEmail := svc.Login(ctx, "ghost@example.com", "secret-pass")

		assert.ErrorIs(t, wrongPass, apperrors.ErrInvalidCredentials)
		assert.ErrorIs(t, unknownEmail, apperrors.ErrInvalidCredentials)
	})

	t.Run("empty credentials are rejected up front", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		_, noEmail := svc.Login(ctx, "", "secret-pass")
		_, noPassword := svc.Login(ctx, "ana@example.com", "")

		assert.ErrorIs(t, noEmail, apperrors.ErrEmailRequired)
		assert.ErrorIs(t, noPassword, apperrors.ErrPasswordRequired)
		userRepo.AssertNotCalled(t, "GetByEmail")
	})
}

func TestAuthService_GetOrCreateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("existing profile is returned as stored", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		stored := &domain.User{ID: uuid.New(), Email: "ana@example.com", FullName: "Ana Torres"}
		userRepo.On("GetByID", ctx, stored.ID).Return(stored, nil)

		user, err := svc.GetOrCreateProfile(ctx, stored.ID, "ana@example.com")

		require.NoError(t, err)
		assert.Same(t, stored, user)
		userRepo.AssertNotCalled(t, "Create")
	})

	t.Run("missing profile falls back to the email local part", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		userID := uuid.New()
		userRepo.On("GetByID", ctx, userID).Return(nil, apperrors.ErrUserNotFound)
		call := userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User"))
		call.Run(func(args mock.Arguments) {
			call.ReturnArguments = mock.Arguments{args.Get(1), nil}
		})

		user, err := svc.GetOrCreateProfile(ctx, userID, "carlos@example.com")

		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "carlos", user.FullName)
		assert.Equal(t, domain.RoleUser, user.Role)
	})

	t.Run("unusable email falls back to a generic name", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(userRepo, slog.Default())

		userID := uuid.New()
		userRepo.On("GetByID", ctx, userID).Return(nil, apperrors.ErrUserNotFound)
		call := userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User"))
		call.Run(func(args mock.Arguments) {
			call.ReturnArguments = mock.Arguments{args.Get(1), nil}
		})

		user, err := svc.GetOrCreateProfile(ctx, userID, "")

		require.NoError(t, err)
		assert.Equal(t, "New User", user.FullName)
	})
}
