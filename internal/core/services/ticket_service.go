package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// TicketService implements the ticket use cases. Each call resolves the
// actor's profile, applies the access policy over a fresh snapshot, and for
// mutations publishes one invalidation signal after the store commits.
type TicketService struct {
	ticketRepo ports.TicketRepository
	userRepo   ports.UserRepository
	policy     ports.AccessPolicy
	query      ports.TicketQueryEngine
	feed       ports.ChangeFeed
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service.
func NewTicketService(
	ticketRepo ports.TicketRepository,
	userRepo ports.UserRepository,
	policy ports.AccessPolicy,
	query ports.TicketQueryEngine,
	feed ports.ChangeFeed,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		policy:     policy,
		query:      query,
		feed:       feed,
		logger:     logger.With("service", "ticket"),
		now:        time.Now,
	}
}

// List returns the viewer's visible tickets, newest-created-first.
func (s *TicketService) List(ctx context.Context, viewerID uuid.UUID) ([]*domain.Ticket, error) {
	viewer, tickets, err := s.snapshot(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.query.VisibleTickets(viewer, tickets), nil
}

// Get returns a single ticket if the viewer is allowed to see it.
func (s *TicketService) Get(ctx context.Context, viewerID, ticketID uuid.UUID) (*domain.Ticket, error) {
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanList(viewer, ticket) {
		return nil, apperrors.ErrPermissionDenied
	}
	return ticket, nil
}

// Board returns the viewer's visible tickets bucketed into the four status
// columns.
func (s *TicketService) Board(ctx context.Context, viewerID uuid.UUID) (map[domain.TicketStatus][]*domain.Ticket, error) {
	viewer, tickets, err := s.snapshot(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.query.BoardBuckets(s.query.VisibleTickets(viewer, tickets))
}

// SolvedView returns the solved tickets matching the filter, grouped by
// calendar day, most recent day first.
func (s *TicketService) SolvedView(ctx context.Context, params ports.SolvedViewParams) ([]ports.DayGroup, error) {
	viewer, tickets, err := s.snapshot(ctx, params.ViewerID)
	if err != nil {
		return nil, err
	}

	visible := s.query.VisibleTickets(viewer, tickets)
	solved := s.query.FilterSolved(visible, params.Filter, s.now())
	return s.query.GroupByDay(solved), nil
}

// Stats returns per-status counts over the viewer's visible set.
func (s *TicketService) Stats(ctx context.Context, viewerID uuid.UUID) (map[domain.TicketStatus]int, error) {
	viewer, tickets, err := s.snapshot(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.query.CountByStatus(s.query.VisibleTickets(viewer, tickets)), nil
}

// Create validates and persists a new ticket. Non-admin actors are always
// self-assigned regardless of the requested assignee.
func (s *TicketService) Create(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	actor, err := s.userRepo.GetByID(ctx, params.ActorID)
	if err != nil {
		return nil, err
	}

	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:          params.Title,
		Description:    params.Description,
		Status:         params.Status,
		AssignedUserID: s.policy.EffectiveAssignee(actor, params.AssignedUserID),
		PolicyNumber:   params.PolicyNumber,
		CreatedAt:      params.CreatedAt,
	}, actor.ID)
	if err != nil {
		return nil, err
	}

	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return created, nil
}

// Update applies a full edit to an existing ticket. The creator reference is
// immutable; only the policy's edit rule gates the change.
func (s *TicketService) Update(ctx context.Context, params ports.UpdateTicketParams) (*domain.Ticket, error) {
	actor, err := s.userRepo.GetByID(ctx, params.ActorID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanEdit(actor, ticket) {
		return nil, apperrors.ErrPermissionDenied
	}

	err = ticket.ApplyEdit(domain.TicketParams{
		Title:          params.Title,
		Description:    params.Description,
		Status:         params.Status,
		AssignedUserID: s.policy.EffectiveAssignee(actor, params.AssignedUserID),
		PolicyNumber:   params.PolicyNumber,
		CreatedAt:      params.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.ticketRepo.Update(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return updated, nil
}

// UpdateStatus performs a status-only change. Transitions between the four
// states are unrestricted.
func (s *TicketService) UpdateStatus(ctx context.Context, params ports.UpdateStatusParams) (*domain.Ticket, error) {
	actor, err := s.userRepo.GetByID(ctx, params.ActorID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanEdit(actor, ticket) {
		return nil, apperrors.ErrPermissionDenied
	}

	if err := ticket.SetStatus(params.Status); err != nil {
		return nil, err
	}

	updated, err := s.ticketRepo.Update(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return updated, nil
}

// snapshot loads the viewer profile and the full ticket snapshot.
func (s *TicketService) snapshot(ctx context.Context, viewerID uuid.UUID) (*domain.User, []*domain.Ticket, error) {
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, nil, err
	}

	tickets, err := s.ticketRepo.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return viewer, tickets, nil
}

// invalidate signals connected clients to refetch. Losing the signal only
// delays a refresh, so failures are logged and swallowed.
func (s *TicketService) invalidate(ctx context.Context) {
	if err := s.feed.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to publish invalidation", "error", err)
	}
}
