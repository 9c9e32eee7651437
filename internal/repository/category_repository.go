package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CategoryRepository persists ticket categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO categories (name, description) VALUES ($1,$2) RETURNING id`,
		category.Name, category.Description,
	).Scan(&category.ID)
	return mapError(err)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	return execAffectingOne(ctx, conn(ctx, r.pool),
		`UPDATE categories SET name=$1, description=$2 WHERE id=$3`,
		category.Name, category.Description, category.ID)
}

func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, conn(ctx, r.pool), `DELETE FROM categories WHERE id=$1`, id)
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return r.fetchOne(ctx, `SELECT id, name, description FROM categories WHERE id=$1`, id)
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.fetchOne(ctx, `SELECT id, name, description FROM categories WHERE name=$1`, name)
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) fetchOne(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var category domain.Category
	if err := conn(ctx, r.pool).QueryRow(ctx, query, arg).Scan(&category.ID, &category.Name, &category.Description); err != nil {
		return nil, mapError(err)
	}
	return &category, nil
}
