package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

const ticketColumns = `id, title, description, status, assigned_user_id, created_by_id, policy_number, created_at`

// scanTicket maps one result row to a core domain model.
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket         domain.Ticket
		assignedUserID pgtype.UUID
		createdAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&assignedUserID,
		&ticket.CreatedByID,
		&ticket.PolicyNumber,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedUserID.Valid {
		id := uuid.UUID(assignedUserID.Bytes)
		ticket.AssignedUserID = &id
	}
	ticket.CreatedAt = createdAt.Time

	return &ticket, nil
}

// toAssignedUserID converts the nullable assignee to its column value.
func toAssignedUserID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

// Create persists a new ticket entity.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	query := `
		INSERT INTO tickets (id, title, description, status, assigned_user_id, created_by_id, policy_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + ticketColumns

	row := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		toAssignedUserID(ticket.AssignedUserID),
		ticket.CreatedByID,
		ticket.PolicyNumber,
		ticket.CreatedAt,
	)

	created, err := scanTicket(row)
	if err != nil {
		return nil, apperrors.NewUpstreamError("tickets.create", err)
	}
	return created, nil
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, apperrors.NewUpstreamError("tickets.get", err)
	}
	return ticket, nil
}

// Update persists changes to an existing ticket entity. The created_by_id
// column is deliberately absent from the SET list.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	query := `
		UPDATE tickets
		SET title = $2,
		    description = $3,
		    status = $4,
		    assigned_user_id = $5,
		    policy_number = $6,
		    created_at = $7
		WHERE id = $1
		RETURNING ` + ticketColumns

	row := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		toAssignedUserID(ticket.AssignedUserID),
		ticket.PolicyNumber,
		ticket.CreatedAt,
	)

	updated, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, apperrors.NewUpstreamError("tickets.update", err)
	}
	return updated, nil
}

// List returns the full ticket snapshot ordered newest-created-first.
func (r *TicketRepository) List(ctx context.Context) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewUpstreamError("tickets.list", err)
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, apperrors.NewUpstreamError("tickets.list", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUpstreamError("tickets.list", err)
	}
	return tickets, nil
}
