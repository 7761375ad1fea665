package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polizadesk/ticketboard/internal/core/domain"
)

// AccessPolicy decides who may see, create, or modify a ticket, and computes
// the effective assignee for writes by non-privileged users. All methods are
// pure functions over the supplied data.
type AccessPolicy interface {
	CanList(user *domain.User, ticket *domain.Ticket) bool
	CanEdit(user *domain.User, ticket *domain.Ticket) bool
	EffectiveAssignee(user *domain.User, requested *uuid.UUID) *uuid.UUID
}

// DateFilter selects the date predicate applied to the solved-tickets view.
type DateFilter string

const (
	DateFilterAll    DateFilter = "all"
	DateFilterToday  DateFilter = "today"
	DateFilterWeek   DateFilter = "week"
	DateFilterMonth  DateFilter = "month"
	DateFilterCustom DateFilter = "custom"
)

// IsValidDateFilter reports whether f is a known filter mode.
func IsValidDateFilter(f DateFilter) bool {
	switch f {
	case DateFilterAll, DateFilterToday, DateFilterWeek, DateFilterMonth, DateFilterCustom:
		return true
	}
	return false
}

// DateRange bounds the custom date filter. A nil bound on either side makes
// the predicate a pass-through.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// DayGroup is one calendar day of tickets for display.
type DayGroup struct {
	Day     string // ISO date, e.g. "2024-01-05"
	Tickets []*domain.Ticket
}

// SolvedFilter carries the solved-tickets view criteria.
type SolvedFilter struct {
	PolicySearch string
	DateFilter   DateFilter
	CustomRange  DateRange
}

// TicketQueryEngine produces the role-scoped, filtered, grouped views of a
// ticket snapshot. Calls are referentially transparent given their inputs.
type TicketQueryEngine interface {
	VisibleTickets(user *domain.User, all []*domain.Ticket) []*domain.Ticket
	BoardBuckets(tickets []*domain.Ticket) (map[domain.TicketStatus][]*domain.Ticket, error)
	FilterSolved(tickets []*domain.Ticket, filter SolvedFilter, now time.Time) []*domain.Ticket
	GroupByDay(tickets []*domain.Ticket) []DayGroup
	CountByStatus(tickets []*domain.Ticket) map[domain.TicketStatus]int
}

// CreateTicketParams defines the input for creating a ticket. AssignedUserID
// is the requested assignee; the policy computes the effective one.
type CreateTicketParams struct {
	Title          string
	Description    string
	Status         domain.TicketStatus
	AssignedUserID *uuid.UUID
	PolicyNumber   string
	CreatedAt      time.Time
	ActorID        uuid.UUID
}

// UpdateTicketParams defines the input for a full ticket edit.
type UpdateTicketParams struct {
	TicketID       uuid.UUID
	Title          string
	Description    string
	Status         domain.TicketStatus
	AssignedUserID *uuid.UUID
	PolicyNumber   string
	CreatedAt      time.Time
	ActorID        uuid.UUID
}

// UpdateStatusParams defines the input for a status-only change.
type UpdateStatusParams struct {
	TicketID uuid.UUID
	Status   domain.TicketStatus
	ActorID  uuid.UUID
}

// SolvedViewParams defines the input for the solved-tickets screen.
type SolvedViewParams struct {
	ViewerID uuid.UUID
	Filter   SolvedFilter
}

// TicketService defines the primary port for ticket use cases.
type TicketService interface {
	List(ctx context.Context, viewerID uuid.UUID) ([]*domain.Ticket, error)
	Get(ctx context.Context, viewerID, ticketID uuid.UUID) (*domain.Ticket, error)
	Board(ctx context.Context, viewerID uuid.UUID) (map[domain.TicketStatus][]*domain.Ticket, error)
	SolvedView(ctx context.Context, params SolvedViewParams) ([]DayGroup, error)
	Stats(ctx context.Context, viewerID uuid.UUID) (map[domain.TicketStatus]int, error)
	Create(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	Update(ctx context.Context, params UpdateTicketParams) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (*domain.Ticket, error)
}

// AuthService defines the primary port for the identity boundary.
type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetOrCreateProfile(ctx context.Context, userID uuid.UUID, fallbackEmail string) (*domain.User, error)
}

// ProfileService defines the primary port for the user-profile store.
type ProfileService interface {
	ListAssignable(ctx context.Context, actorID uuid.UUID) ([]*domain.User, error)
}
