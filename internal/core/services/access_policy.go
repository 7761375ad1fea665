package services

import (
	"github.com/google/uuid"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// AccessPolicy implements the visibility and edit rules for tickets. It holds
// no state; every call is a pure decision over the supplied data, so it is
// safe to share across concurrent requests.
type AccessPolicy struct{}

var _ ports.AccessPolicy = (*AccessPolicy)(nil)

// NewAccessPolicy creates the ticket access policy.
func NewAccessPolicy() ports.AccessPolicy {
	return &AccessPolicy{}
}

// CanList reports whether the user may see the ticket in listings. Admins see
// everything; everyone else sees only tickets they are assigned to or created.
func (p *AccessPolicy) CanList(user *domain.User, ticket *domain.Ticket) bool {
	if user.IsAdmin() {
		return true
	}
	return ticket.IsAssignedTo(user.ID) || ticket.IsCreatedBy(user.ID)
}

// CanEdit reports whether the user may modify the ticket. Creating a ticket
// does not grant edit rights; only the assignee or an admin may edit.
func (p *AccessPolicy) CanEdit(user *domain.User, ticket *domain.Ticket) bool {
	if user.IsAdmin() {
		return true
	}
	return ticket.IsAssignedTo(user.ID)
}

// EffectiveAssignee computes the assignee actually written on create or edit.
// Admins assign freely, including to nobody. Non-admins are always
// self-assigned: a different requested assignee is not an error, it is
// silently overridden.
func (p *AccessPolicy) EffectiveAssignee(user *domain.User, requested *uuid.UUID) *uuid.UUID {
	if user.IsAdmin() {
		return requested
	}
	self := user.ID
	return &self
}
