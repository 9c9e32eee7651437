package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TechnicianRepository persists support-engineer profiles.
type TechnicianRepository interface {
	Create(ctx context.Context, technician *domain.Technician) error
	Update(ctx context.Context, technician *domain.Technician) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Technician, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Technician, error)
	List(ctx context.Context) ([]domain.Technician, error)
	// Lock takes a row lock on the technician for the rest of the
	// surrounding transaction.
	Lock(ctx context.Context, id int64) error
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `id, name, specialty, availability, user_id`

func (r *technicianRepository) Create(ctx context.Context, technician *domain.Technician) error {
	const query = `
        INSERT INTO technicians (name, specialty, availability, user_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		technician.Name,
		technician.Specialty,
		technician.Available,
		technician.UserID,
	).Scan(&technician.ID)
	return mapError(err)
}

func (r *technicianRepository) Update(ctx context.Context, technician *domain.Technician) error {
	const query = `UPDATE technicians SET name=$1, specialty=$2, availability=$3, user_id=$4 WHERE id=$5`
	return execAffectingOne(ctx, conn(ctx, r.pool), query,
		technician.Name,
		technician.Specialty,
		technician.Available,
		technician.UserID,
		technician.ID,
	)
}

func (r *technicianRepository) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, conn(ctx, r.pool), `DELETE FROM technicians WHERE id=$1`, id)
}

func (r *technicianRepository) GetByID(ctx context.Context, id int64) (*domain.Technician, error) {
	return r.fetchOne(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE id=$1`, id)
}

func (r *technicianRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Technician, error) {
	return r.fetchOne(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE user_id=$1`, userID)
}

func (r *technicianRepository) List(ctx context.Context) ([]domain.Technician, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+technicianColumns+` FROM technicians ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	technicians := []domain.Technician{}
	for rows.Next() {
		technician, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		technicians = append(technicians, *technician)
	}
	return technicians, rows.Err()
}

func (r *technicianRepository) Lock(ctx context.Context, id int64) error {
	var locked int64
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT id FROM technicians WHERE id=$1 FOR UPDATE`, id).Scan(&locked)
	return mapError(err)
}

func (r *technicianRepository) fetchOne(ctx context.Context, query string, arg any) (*domain.Technician, error) {
	technician, err := scanTechnician(conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return technician, nil
}

func scanTechnician(row pgx.Row) (*domain.Technician, error) {
	var technician domain.Technician
	if err := row.Scan(
		&technician.ID,
		&technician.Name,
		&technician.Specialty,
		&technician.Available,
		&technician.UserID,
	); err != nil {
		return nil, err
	}
	return &technician, nil
}
