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

// Helper to create a user for ticket tests
func createTestUser(t *testing.T, ctx context.Context, userRepo ports.UserRepository) *domain.User {
	user := &domain.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com", // Ensure unique email
		FullName:  "Ticket Creator",
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	createdUser, err := userRepo.Create(ctx, user)
	require.NoError(t, err)
	return createdUser
}

func TestTicketRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo)
	assignee := createTestUser(t, ctx, userRepo)

	createdAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	newTicket := &domain.Ticket{
		ID:             uuid.New(),
		Title:          "Water damage claim",
		Description:    "Kitchen ceiling leak after storm",
		Status:         domain.StatusAssigned,
		AssignedUserID: &assignee.ID,
		CreatedByID:    creator.ID,
		PolicyNumber:   "POL-2026-0042",
		CreatedAt:      createdAt,
	}

	createdTicket, err := ticketRepo.Create(ctx, newTicket)
	require.NoError(t, err, "Failed to create ticket")
	assert.Equal(t, newTicket.ID, createdTicket.ID)

	foundTicket, err := ticketRepo.GetByID(ctx, createdTicket.ID)
	require.NoError(t, err, "Failed to get ticket by ID")

	assert.Equal(t, "Water damage claim", foundTicket.Title)
	assert.Equal(t, "Kitchen ceiling leak after storm", foundTicket.Description)
	assert.Equal(t, domain.StatusAssigned, foundTicket.Status)
	require.NotNil(t, foundTicket.AssignedUserID)
	assert.Equal(t, assignee.ID, *foundTicket.AssignedUserID)
	assert.Equal(t, creator.ID, foundTicket.CreatedByID)
	assert.Equal(t, "POL-2026-0042", foundTicket.PolicyNumber)
	assert.WithinDuration(t, createdAt, foundTicket.CreatedAt, time.Second)
}

func TestTicketRepository_Create_Unassigned(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo)

	newTicket := &domain.Ticket{
		ID:           uuid.New(),
		Title:        "Unassigned ticket",
		Description:  "Nobody owns this yet",
		Status:       domain.StatusTransferred,
		CreatedByID:  creator.ID,
		PolicyNumber: "POL-NONE",
		CreatedAt:    time.Now().UTC(),
	}

	_, err := ticketRepo.Create(ctx, newTicket)
	require.NoError(t, err)

	foundTicket, err := ticketRepo.GetByID(ctx, newTicket.ID)
	require.NoError(t, err)
	assert.Nil(t, foundTicket.AssignedUserID)
}

func TestTicketRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	ticketRepo, _ := newTestRepos(t)

	_, err := ticketRepo.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_Update(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo)
	assignee := createTestUser(t, ctx, userRepo)

	original := &domain.Ticket{
		ID:           uuid.New(),
		Title:        "Initial title",
		Description:  "Initial description",
		Status:       domain.StatusAssigned,
		CreatedByID:  creator.ID,
		PolicyNumber: "POL-BEFORE",
		CreatedAt:    time.Now().UTC(),
	}
	_, err := ticketRepo.Create(ctx, original)
	require.NoError(t, err)

	backdated := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	original.Title = "Updated title"
	original.Description = "Updated description"
	original.Status = domain.StatusSolved
	original.AssignedUserID = &assignee.ID
	original.PolicyNumber = "POL-AFTER"
	original.CreatedAt = backdated

	updated, err := ticketRepo.Update(ctx, original)
	require.NoError(t, err, "Failed to update ticket")

	assert.Equal(t, "Updated title", updated.Title)
	assert.Equal(t, "Updated description", updated.Description)
	assert.Equal(t, domain.StatusSolved, updated.Status)
	require.NotNil(t, updated.AssignedUserID)
	assert.Equal(t, assignee.ID, *updated.AssignedUserID)
	assert.Equal(t, "POL-AFTER", updated.PolicyNumber)
	assert.WithinDuration(t, backdated, updated.CreatedAt, time.Second)

	// The creator column never changes, whatever the entity carries.
	assert.Equal(t, creator.ID, updated.CreatedByID)
}

func TestTicketRepository_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo)

	ghost := &domain.Ticket{
		ID:           uuid.New(),
		Title:        "Ghost",
		Description:  "Never persisted",
		Status:       domain.StatusAssigned,
		CreatedByID:  creator.ID,
		PolicyNumber: "POL-GHOST",
		CreatedAt:    time.Now().UTC(),
	}

	_, err := ticketRepo.Update(ctx, ghost)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_List_NewestFirst(t *testing.T) {
	ctx := context.Background()
	ticketRepo, userRepo := newTestRepos(t)

	creator := createTestUser(t, ctx, userRepo)

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		ticket := &domain.Ticket{
			ID:           uuid.New(),
			Title:        "List ticket",
			Description:  "Ordering check",
			Status:       domain.StatusInProgress,
			CreatedByID:  creator.ID,
			PolicyNumber: "POL-LIST",
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		_, err := ticketRepo.Create(ctx, ticket)
		require.NoError(t, err)
		ids = append(ids, ticket.ID)
	}

	tickets, err := ticketRepo.List(ctx)
	require.NoError(t, err)

	// Other tests insert rows too, so check relative order of ours.
	positions := make(map[uuid.UUID]int)
	for i, ticket := range tickets {
		positions[ticket.ID] = i
	}
	for _, id := range ids {
		require.Contains(t, positions, id, "created ticket missing from list")
	}
	assert.Less(t, positions[ids[2]], positions[ids[1]])
	assert.Less(t, positions[ids[1]], positions[ids[0]])
}
