package postgres

import (
	"context"
	"errors"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/rider"
	"ride-hail/internal/ports"

	"github.com/jackc/pgx/v5"
)

// RiderRepo persists riders using pgx and plain SQL.
type RiderRepo struct{}

// NewRiderRepo constructs a new RiderRepo.
func NewRiderRepo() ports.RiderRepository {
	return &RiderRepo{}
}

const riderColumns = `id, tenant_id, phone, name, email, created_at, updated_at`

func scanRider(row pgx.Row) (*rider.Rider, error) {
	var out rider.Rider
	if err := row.Scan(&out.ID, &out.TenantID, &out.Phone, &out.Name, &out.Email, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create inserts a new rider row.
func (repo *RiderRepo) Create(ctx context.Context, r *rider.Rider) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO riders (tenant_id, phone, name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, r.TenantID, r.Phone, r.Name, r.Email).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	return err
}

// GetByID returns one rider by id.
func (repo *RiderRepo) GetByID(ctx context.Context, id string) (*rider.Rider, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := scanRider(tx.QueryRow(ctx, `SELECT `+riderColumns+` FROM riders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("rider", id)
		}
		return nil, err
	}
	return r, nil
}

// GetByPhone returns a rider by phone within a tenant partition.
func (repo *RiderRepo) GetByPhone(ctx context.Context, tenantID, phone string) (*rider.Rider, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := scanRider(tx.QueryRow(ctx, `
		SELECT `+riderColumns+` FROM riders WHERE tenant_id = $1 AND phone = $2
	`, tenantID, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("rider", phone)
		}
		return nil, err
	}
	return r, nil
}
