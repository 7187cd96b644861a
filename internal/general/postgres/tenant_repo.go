package postgres

import (
	"context"
	"errors"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/tenant"
	"ride-hail/internal/ports"

	"github.com/jackc/pgx/v5"
)

// TenantRepo persists tenants using pgx and plain SQL.
type TenantRepo struct{}

// NewTenantRepo constructs a new TenantRepo.
func NewTenantRepo() ports.TenantRepository {
	return &TenantRepo{}
}

// Create inserts a new tenant row.
func (repo *TenantRepo) Create(ctx context.Context, t *tenant.Tenant) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO tenants (name, region)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, t.Name, t.Region).Scan(&t.ID, &t.CreatedAt)
	return err
}

// GetByID returns one tenant by id.
func (repo *TenantRepo) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out tenant.Tenant
	err = tx.QueryRow(ctx, `
		SELECT id, name, region, created_at FROM tenants WHERE id = $1
	`, id).Scan(&out.ID, &out.Name, &out.Region, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("tenant", id)
		}
		return nil, err
	}
	return &out, nil
}
