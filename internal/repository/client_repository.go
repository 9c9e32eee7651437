package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ClientRepository persists customer profiles.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository instantiates the repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

const clientColumns = `id, name, company, contact_email, user_id`

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (name, company, contact_email, user_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		client.Name,
		client.Company,
		client.ContactEmail,
		client.UserID,
	).Scan(&client.ID)
	return mapError(err)
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	const query = `UPDATE clients SET name=$1, company=$2, contact_email=$3, user_id=$4 WHERE id=$5`
	return execAffectingOne(ctx, conn(ctx, r.pool), query,
		client.Name,
		client.Company,
		client.ContactEmail,
		client.UserID,
		client.ID,
	)
}

func (r *clientRepository) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, conn(ctx, r.pool), `DELETE FROM clients WHERE id=$1`, id)
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	return r.fetchOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, id)
}

func (r *clientRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Client, error) {
	return r.fetchOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE user_id=$1`, userID)
}

func (r *clientRepository) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *client)
	}
	return clients, rows.Err()
}

func (r *clientRepository) fetchOne(ctx context.Context, query string, arg any) (*domain.Client, error) {
	client, err := scanClient(conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return client, nil
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var client domain.Client
	if err := row.Scan(&client.ID, &client.Name, &client.Company, &client.ContactEmail, &client.UserID); err != nil {
		return nil, err
	}
	return &client, nil
}
