package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketHistoryRepository stores status audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by, from_status, to_status, created_at)
        VALUES ($1,$2,$3::ticket_status,$4::ticket_status,$5)
        RETURNING id`
	var from *string
	if history.FromStatus != nil {
		s := string(*history.FromStatus)
		from = &s
	}
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		history.TicketID,
		history.ChangedBy,
		from,
		string(history.ToStatus),
		history.CreatedAt,
	).Scan(&history.ID)
	return mapError(err)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, changed_by, from_status::text, to_status::text, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ticketID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	result := []domain.TicketHistory{}
	for rows.Next() {
		var (
			history domain.TicketHistory
			from    *string
			to      string
		)
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ChangedBy,
			&from,
			&to,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		if from != nil {
			status := domain.TicketStatus(*from)
			history.FromStatus = &status
		}
		history.ToStatus = domain.TicketStatus(to)
		result = append(result, history)
	}
	return result, rows.Err()
}
