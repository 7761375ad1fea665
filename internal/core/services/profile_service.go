package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// ProfileService lists the profiles an actor may assign tickets to.
type ProfileService struct {
	userRepo ports.UserRepository
}

var _ ports.ProfileService = (*ProfileService)(nil)

// NewProfileService creates a new profile service.
func NewProfileService(userRepo ports.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// ListAssignable returns all profiles for admins; everyone else only sees
// themselves, which in the UI collapses the assignee picker to self.
func (s *ProfileService) ListAssignable(ctx context.Context, actorID uuid.UUID) ([]*domain.User, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		return []*domain.User{actor}, nil
	}

	return s.userRepo.List(ctx)
}
