package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/polizadesk/ticketboard/internal/core/domain"
)

// TicketRepository is the secondary port for ticket persistence. List returns
// the full snapshot ordered newest-created-first; role scoping happens in the
// core, not in the store.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	List(ctx context.Context) ([]*domain.Ticket, error)
}

// UserRepository is the secondary port for user profiles and credentials.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
