package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Lists are ordered newest
// first, ties broken by id descending.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// GetByIDForUpdate loads the ticket and holds its row lock until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error)
	ListByClient(ctx context.Context, clientID int64) ([]domain.Ticket, error)
	ListByTechnician(ctx context.Context, technicianID int64) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	// CountByTechnicianAndStatus counts the technician's tickets in status,
	// leaving out excludeID (pass 0 to count all).
	CountByTechnicianAndStatus(ctx context.Context, technicianID int64, status domain.TicketStatus, excludeID int64) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, status::text, priority::text, category_id, client_id,
               technician_id, created_at, updated_at`

const ticketOrder = ` ORDER BY created_at DESC, id DESC`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, category_id, client_id, technician_id, created_at, updated_at)
        VALUES ($1,$2,$3::ticket_status,$4::ticket_priority,$5,$6,$7,$8,$9)
        RETURNING id`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		string(ticket.Priority),
		ticket.CategoryID,
		ticket.ClientID,
		ticket.TechnicianID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID)
	return mapError(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3::ticket_status, priority=$4::ticket_priority,
            category_id=$5, client_id=$6, technician_id=$7, updated_at=$8
        WHERE id=$9`
	return execAffectingOne(ctx, conn(ctx, r.pool), query,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		string(ticket.Priority),
		ticket.CategoryID,
		ticket.ClientID,
		ticket.TechnicianID,
		ticket.UpdatedAt,
		ticket.ID,
	)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id)
}

func (r *ticketRepository) ListByClient(ctx context.Context, clientID int64) ([]domain.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE client_id=$1`+ticketOrder, clientID)
}

func (r *ticketRepository) ListByTechnician(ctx context.Context, technicianID int64) ([]domain.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE technician_id=$1`+ticketOrder, technicianID)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets`+ticketOrder)
}

func (r *ticketRepository) CountByTechnicianAndStatus(ctx context.Context, technicianID int64, status domain.TicketStatus, excludeID int64) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE technician_id=$1 AND status=$2::ticket_status AND id<>$3`
	var count int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, technicianID, string(status), excludeID).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		status   string
		priority string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&status,
		&priority,
		&ticket.CategoryID,
		&ticket.ClientID,
		&ticket.TechnicianID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	ticket.Priority = domain.TicketPriority(priority)
	return &ticket, nil
}
