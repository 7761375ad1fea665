package services_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/mocks"
	"github.com/polizadesk/ticketboard/internal/core/ports"
	"github.com/polizadesk/ticketboard/internal/core/services"
)

type ticketServiceFixture struct {
	svc        *services.TicketService
	ticketRepo *mocks.MockTicketRepository
	userRepo   *mocks.MockUserRepository
	feed       *mocks.MockChangeFeed
}

func newTicketServiceFixture(t *testing.T) *ticketServiceFixture {
	t.Helper()

	ticketRepo := mocks.NewMockTicketRepository()
	userRepo := mocks.NewMockUserRepository()
	feed := mocks.NewMockChangeFeed()

	policy := services.NewAccessPolicy()
	engine := services.NewTicketQueryEngine(policy, time.UTC)

	svc := services.NewTicketService(ticketRepo, userRepo, policy, engine, feed, slog.Default())

	return &ticketServiceFixture{
		svc:        svc,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		feed:       feed,
	}
}

// echoTicket makes the repository hand back whatever ticket it was given,
// the way the real store's RETURNING clause does.
func echoTicket(repo *mocks.MockTicketRepository, method string) {
	call := repo.On(method, mock.Anything, mock.AnythingOfType("*domain.Ticket"))
	call.Run(func(args mock.Arguments) {
		call.ReturnArguments = mock.Arguments{args.Get(1), nil}
	})
}

func TestTicketService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin requesting another assignee is self-assigned", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := regularUser()
		other := uuid.New()

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		echoTicket(f.ticketRepo, "Create")
		f.feed.On("Invalidate", ctx).Return(nil)

		ticket, err := f.svc.Create(ctx, ports.CreateTicketParams{
			Title:          "Claim review",
			Description:    "Review the claim",
			Status:         domain.StatusAssigned,
			AssignedUserID: &other,
			PolicyNumber:   "POL-1",
			ActorID:        actor.ID,
		})

		require.NoError(t, err)
		require.NotNil(t, ticket.AssignedUserID)
		assert.Equal(t, actor.ID, *ticket.AssignedUserID)
		assert.Equal(t, actor.ID, ticket.CreatedByID)
		f.feed.AssertCalled(t, "Invalidate", ctx)
	})

	t.Run("admin assignee request is honored", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := adminUser()
		assignee := uuid.New()

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		echoTicket(f.ticketRepo, "Create")
		f.feed.On("Invalidate", ctx).Return(nil)

		ticket, err := f.svc.Create(ctx, ports.CreateTicketParams{
			Title:          "Claim review",
			Description:    "Review the claim",
			Status:         domain.StatusAssigned,
			AssignedUserID: &assignee,
			PolicyNumber:   "POL-1",
			ActorID:        actor.ID,
		})

		require.NoError(t, err)
		require.NotNil(t, ticket.AssignedUserID)
		assert.Equal(t, assignee, *ticket.AssignedUserID)
	})

	t.Run("validation reports the first missing field", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := regularUser()

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)

		_, err := f.svc.Create(ctx, ports.CreateTicketParams{
			Title:        "   ",
			Description:  "",
			Status:       domain.StatusAssigned,
			PolicyNumber: "",
			ActorID:      actor.ID,
		})

		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
		f.ticketRepo.AssertNotCalled(t, "Create")
		f.feed.AssertNotCalled(t, "Invalidate")
	})

	t.Run("feed failure does not fail the mutation", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := regularUser()

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		echoTicket(f.ticketRepo, "Create")
		f.feed.On("Invalidate", ctx).Return(assert.AnError)

		_, err := f.svc.Create(ctx, ports.CreateTicketParams{
			Title:        "Claim review",
			Description:  "Review the claim",
			Status:       domain.StatusAssigned,
			PolicyNumber: "POL-1",
			ActorID:      actor.ID,
		})

		assert.NoError(t, err)
	})
}

func TestTicketService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("assignee edits and creator reference survives", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := regularUser()
		creator := uuid.New()
		existing := ticketFor(&actor.ID, creator)
		existingID := existing.ID

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		f.ticketRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		echoTicket(f.ticketRepo, "Update")
		f.feed.On("Invalidate", ctx).Return(nil)

		updated, err := f.svc.Update(ctx, ports.UpdateTicketParams{
			TicketID:     existing.ID,
			Title:        "New title",
			Description:  "New description",
			Status:       domain.StatusInProgress,
			PolicyNumber: "POL-2",
			ActorID:      actor.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, existingID, updated.ID)
		assert.Equal(t, creator, updated.CreatedByID)
		assert.Equal(t, "New title", updated.Title)
		assert.Equal(t, domain.StatusInProgress, updated.Status)
		f.feed.AssertCalled(t, "Invalidate", ctx)
	})

	t.Run("creator without assignment is denied", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := regularUser()
		otherAssignee := uuid.New()
		existing := ticketFor(&otherAssignee, actor.ID)

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		f.ticketRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)

		_, err := f.svc.Update(ctx, ports.UpdateTicketParams{
			TicketID:     existing.ID,
			Title:        "New title",
			Description:  "New description",
			Status:       domain.StatusInProgress,
			PolicyNumber: "POL-2",
			ActorID:      actor.ID,
		})

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		f.ticketRepo.AssertNotCalled(t, "Update")
		f.feed.AssertNotCalled(t, "Invalidate")
	})

	t.Run("edited created date is persisted", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := adminUser()
		existing := ticketFor(nil, uuid.New())
		backdated := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		f.ticketRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		echoTicket(f.ticketRepo, "Update")
		f.feed.On("Invalidate", ctx).Return(nil)

		updated, err := f.svc.Update(ctx, ports.UpdateTicketParams{
			TicketID:     existing.ID,
			Title:        "Backdated",
			Description:  "Imported from the old system",
			Status:       domain.StatusSolved,
			PolicyNumber: "POL-3",
			CreatedAt:    backdated,
			ActorID:      actor.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, backdated, updated.CreatedAt)
	})
}

func TestTicketService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("any transition between known states is allowed", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := regularUser()
		existing := ticketFor(&actor.ID, uuid.New())
		existing.Status = domain.StatusSolved

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		f.ticketRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		echoTicket(f.ticketRepo, "Update")
		f.feed.On("Invalidate", ctx).Return(nil)

		updated, err := f.svc.UpdateStatus(ctx, ports.UpdateStatusParams{
			TicketID: existing.ID,
			Status:   domain.StatusAssigned,
			ActorID:  actor.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusAssigned, updated.Status)
	})

	t.Run("unknown status is rejected before the store", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := adminUser()
		existing := ticketFor(nil, uuid.New())

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		f.ticketRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)

		_, err := f.svc.UpdateStatus(ctx, ports.UpdateStatusParams{
			TicketID: existing.ID,
			Status:   domain.TicketStatus("archived"),
			ActorID:  actor.ID,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		f.ticketRepo.AssertNotCalled(t, "Update")
	})

	t.Run("non-editor is denied", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		actor := regularUser()
		existing := ticketFor(nil, uuid.New())

		f.userRepo.On("GetByID", ctx, actor.ID).Return(actor, nil)
		f.ticketRepo.On("GetByID", ctx, existing.ID).Return(existing, nil)

		_, err := f.svc.UpdateStatus(ctx, ports.UpdateStatusParams{
			TicketID: existing.ID,
			Status:   domain.StatusSolved,
			ActorID:  actor.ID,
		})

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestTicketService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("viewer outside the visibility rule is denied", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		viewer := regularUser()
		foreign := ticketFor(nil, uuid.New())

		f.userRepo.On("GetByID", ctx, viewer.ID).Return(viewer, nil)
		f.ticketRepo.On("GetByID", ctx, foreign.ID).Return(foreign, nil)

		_, err := f.svc.Get(ctx, viewer.ID, foreign.ID)
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("missing ticket propagates not found", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		viewer := regularUser()
		unknownID := uuid.New()

		f.userRepo.On("GetByID", ctx, viewer.ID).Return(viewer, nil)
		f.ticketRepo.On("GetByID", ctx, unknownID).Return(nil, apperrors.ErrTicketNotFound)

		_, err := f.svc.Get(ctx, viewer.ID, unknownID)
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}

func TestTicketService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("regular viewer only sees related tickets", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		viewer := regularUser()
		mine := ticketFor(&viewer.ID, uuid.New())
		foreign := ticketFor(nil, uuid.New())

		f.userRepo.On("GetByID", ctx, viewer.ID).Return(viewer, nil)
		f.ticketRepo.On("List", ctx).Return([]*domain.Ticket{mine, foreign}, nil)

		tickets, err := f.svc.List(ctx, viewer.ID)

		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Same(t, mine, tickets[0])
	})
}

func TestTicketService_SolvedView(t *testing.T) {
	ctx := context.Background()

	t.Run("groups the viewer's solved tickets by day", func(t *testing.T) {
		f := newTicketServiceFixture(t)
		viewer := adminUser()

		older := solvedTicket("POL-1", time.Now().Add(-48*time.Hour))
		newer := solvedTicket("POL-2", time.Now())
		open := ticketFor(nil, uuid.New())

		f.userRepo.On("GetByID", ctx, viewer.ID).Return(viewer, nil)
		f.ticketRepo.On("List", ctx).Return([]*domain.Ticket{newer, older, open}, nil)

		groups, err := f.svc.SolvedView(ctx, ports.SolvedViewParams{
			ViewerID: viewer.ID,
			Filter:   ports.SolvedFilter{DateFilter: ports.DateFilterAll},
		})

		require.NoError(t, err)
		require.Len(t, groups, 2)
		require.Len(t, groups[0].Tickets, 1)
		assert.Same(t, newer, groups[0].Tickets[0])
	})
}

func TestTicketService_Stats(t *testing.T) {
	ctx := context.Background()

	f := newTicketServiceFixture(t)
	viewer := adminUser()

	f.userRepo.On("GetByID", ctx, viewer.ID).Return(viewer, nil)
	f.ticketRepo.On("List", ctx).Return([]*domain.Ticket{
		ticketFor(nil, uuid.New()),
		solvedTicket("POL-1", time.Now()),
	}, nil)

	counts, err := f.svc.Stats(ctx, viewer.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.StatusAssigned])
	assert.Equal(t, 1, counts[domain.StatusSolved])
	assert.Equal(t, 0, counts[domain.StatusInProgress])
}
