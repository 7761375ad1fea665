package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// newTestRepos is a helper to create repos for a test.
func newTestRepos(t *testing.T) (ports.TicketRepository, ports.UserRepository) {
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")

	userRepo := NewUserRepository(testPool)
	ticketRepo := NewTicketRepository(testPool)

	return ticketRepo, userRepo
}

func TestUserRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	email := uuid.NewString() + "@example.com"
	newUser := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "Test User",
		Role:         domain.RoleUser,
		PasswordHash: "hashedpassword",
		CreatedAt:    time.Now().UTC(),
	}

	createdUser, err := userRepo.Create(ctx, newUser)
	require.NoError(t, err, "Failed to create user")
	assert.Equal(t, newUser.ID, createdUser.ID)

	foundUser, err := userRepo.GetByEmail(ctx, email)
	require.NoError(t, err, "Failed to get user by email")
	assert.Equal(t, createdUser.ID, foundUser.ID)
	assert.Equal(t, "Test User", foundUser.FullName)
	assert.Equal(t, domain.RoleUser, foundUser.Role)
	assert.Equal(t, "hashedpassword", foundUser.PasswordHash)

	foundUserByID, err := userRepo.GetByID(ctx, createdUser.ID)
	require.NoError(t, err, "Failed to get user by ID")
	assert.Equal(t, createdUser.ID, foundUserByID.ID)
	assert.Equal(t, email, foundUserByID.Email)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	email := uuid.NewString() + "@example.com"
	first := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  "First",
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	_, err := userRepo.Create(ctx, first)
	require.NoError(t, err)

	second := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  "Second",
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	_, err = userRepo.Create(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	_, err := userRepo.GetByEmail(ctx, "nonexistent@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	_, err := userRepo.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	// Distinct names so the full_name ordering between the two is known
	// regardless of what other tests inserted.
	alice := &domain.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		FullName:  "AAA Alice",
		Role:      domain.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	zoe := &domain.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		FullName:  "ZZZ Zoe",
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	_, err := userRepo.Create(ctx, zoe)
	require.NoError(t, err)
	_, err = userRepo.Create(ctx, alice)
	require.NoError(t, err)

	users, err := userRepo.List(ctx)
	require.NoError(t, err)

	aliceIdx, zoeIdx := -1, -1
	for i, u := range users {
		switch u.ID {
		case alice.ID:
			aliceIdx = i
		case zoe.ID:
			zoeIdx = i
		}
	}
	require.NotEqual(t, -1, aliceIdx, "created user missing from list")
	require.NotEqual(t, -1, zoeIdx, "created user missing from list")
	assert.Less(t, aliceIdx, zoeIdx, "users should be ordered by full name")
}
