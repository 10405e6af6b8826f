package repository

import (
	"context"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrganizationRepository handles organization data access.
type OrganizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

// GetByID retrieves an organization by ID.
func (r *OrganizationRepository) GetByID(ctx context.Context, id int) (*model.Organization, error) {
	o := &model.Organization{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM organizations WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// List retrieves all organizations ordered by name.
func (r *OrganizationRepository) List(ctx context.Context) ([]model.Organization, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM organizations ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// Create inserts a new organization.
func (r *OrganizationRepository) Create(ctx context.Context, o *model.Organization) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO organizations (name) VALUES ($1)
		 RETURNING id, created_at, updated_at`,
		o.Name,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// Update renames an organization.
func (r *OrganizationRepository) Update(ctx context.Context, o *model.Organization) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE organizations SET name = $1, updated_at = NOW() WHERE id = $2`,
		o.Name, o.ID)
	return err
}

// Delete removes an organization.
func (r *OrganizationRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	return err
}
