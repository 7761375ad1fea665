package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusAssigned    TicketStatus = "assigned"
	StatusInProgress  TicketStatus = "in-progress"
	StatusTransferred TicketStatus = "transferred"
	StatusSolved      TicketStatus = "solved"
)

// Statuses lists the four valid states in display order.
var Statuses = []TicketStatus{StatusAssigned, StatusInProgress, StatusTransferred, StatusSolved}

// IsValidStatus reports whether s is one of the four known states.
func IsValidStatus(s TicketStatus) bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusTransferred, StatusSolved:
		return true
	}
	return false
}

// Ticket is the core domain entity. Instances handed to the query engine are
// read-only snapshots of store rows; the store owns the record.
type Ticket struct {
	ID             uuid.UUID
	Title          string
	Description    string
	Status         TicketStatus
	AssignedUserID *uuid.UUID // nil means unassigned
	CreatedByID    uuid.UUID  // set once at creation, never changes
	PolicyNumber   string
	CreatedAt      time.Time // user-editable, not necessarily wall-clock creation time
}

// TicketParams carries the caller-supplied fields for creating or editing a
// ticket. AssignedUserID is the requested assignee before the access policy
// computes the effective one.
type TicketParams struct {
	Title          string
	Description    string
	Status         TicketStatus
	AssignedUserID *uuid.UUID
	PolicyNumber   string
	CreatedAt      time.Time
}

// validate checks the required text fields in priority order and the status.
func (p *TicketParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return apperrors.ErrTitleRequired
	}
	if strings.TrimSpace(p.Description) == "" {
		return apperrors.ErrDescriptionRequired
	}
	if strings.TrimSpace(p.PolicyNumber) == "" {
		return apperrors.ErrPolicyNumberRequired
	}
	if !IsValidStatus(p.Status) {
		return apperrors.ErrInvalidStatus
	}
	return nil
}

// NewTicket is a factory function to create a valid new ticket. The assignee
// must already be the effective one computed by the access policy.
func NewTicket(params TicketParams, createdBy uuid.UUID) (*Ticket, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &Ticket{
		ID:             uuid.New(),
		Title:          params.Title,
		Description:    params.Description,
		Status:         params.Status,
		AssignedUserID: params.AssignedUserID,
		CreatedByID:    createdBy,
		PolicyNumber:   params.PolicyNumber,
		CreatedAt:      createdAt,
	}, nil
}

// ApplyEdit replaces every caller-editable field. ID and CreatedByID are
// immutable and left untouched.
func (t *Ticket) ApplyEdit(params TicketParams) error {
	if err := params.validate(); err != nil {
		return err
	}

	t.Title = params.Title
	t.Description = params.Description
	t.Status = params.Status
	t.AssignedUserID = params.AssignedUserID
	t.PolicyNumber = params.PolicyNumber
	if !params.CreatedAt.IsZero() {
		t.CreatedAt = params.CreatedAt
	}
	return nil
}

// SetStatus changes the ticket's status. Transitions are unrestricted; any
// state is reachable from any state by an explicit change.
func (t *Ticket) SetStatus(status TicketStatus) error {
	if !IsValidStatus(status) {
		return apperrors.ErrInvalidStatus
	}
	t.Status = status
	return nil
}

// IsAssignedTo reports whether the ticket is assigned to the given user.
func (t *Ticket) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedUserID != nil && *t.AssignedUserID == userID
}

// IsCreatedBy reports whether the given user created the ticket.
func (t *Ticket) IsCreatedBy(userID uuid.UUID) bool {
	return t.CreatedByID == userID
}
