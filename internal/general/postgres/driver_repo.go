// internal/adapters/postgres/driver_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/driver"
	"ride-hail/internal/domain/ride"
	"ride-hail/internal/ports"

	"github.com/jackc/pgx/v5"
)

// DriverRepo persists drivers using pgx and plain SQL.
type DriverRepo struct{}

// NewDriverRepo constructs a new DriverRepo.
func NewDriverRepo() ports.DriverRepository {
	return &DriverRepo{}
}

const driverColumns = `
	id, tenant_id, created_at, updated_at, phone, license_number, vehicle_type, vehicle_attrs,
	rating, total_rides, total_earnings, acceptance_rate, status, is_verified`

func scanDriver(row pgx.Row) (*driver.Driver, error) {
	var out driver.Driver
	var vehicleType, status string
	var vehicleAttrs []byte
	if err := row.Scan(
		&out.ID, &out.TenantID, &out.CreatedAt, &out.UpdatedAt, &out.Phone, &out.LicenseNumber, &vehicleType, &vehicleAttrs,
		&out.Rating, &out.TotalRides, &out.TotalEarnings, &out.AcceptanceRate, &status, &out.IsVerified,
	); err != nil {
		return nil, err
	}
	out.VehicleType = ride.VehicleType(vehicleType)
	out.Status = driver.DriverStatus(status)
	if len(vehicleAttrs) > 0 {
		if err := json.Unmarshal(vehicleAttrs, &out.VehicleAttrs); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// CreateDriver inserts a new driver row.
func (repo *DriverRepo) CreateDriver(ctx context.Context, driverObj *driver.Driver) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO drivers (id, tenant_id, phone, license_number, vehicle_type, vehicle_attrs, rating, acceptance_rate, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`,
		driverObj.ID, driverObj.TenantID, driverObj.Phone, driverObj.LicenseNumber,
		driverObj.VehicleType.String(), driverObj.VehicleAttrs, driverObj.Rating, driverObj.AcceptanceRate, driverObj.Status.String(),
	).Scan(&driverObj.CreatedAt, &driverObj.UpdatedAt)
	return err
}

// GetByID returns one driver by id.
func (repo *DriverRepo) GetByID(ctx context.Context, driverID string) (*driver.Driver, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	d, err := scanDriver(tx.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("driver", driverID)
		}
		return nil, err
	}
	return d, nil
}

// GetOnlineForUpdateSkipLocked locks the driver row for an acceptance
// attempt, skipping rows a concurrent acceptance already holds (spec §4.3
// step 5). Returns apperr.CodeConflict if the driver is not online or the
// row is currently locked elsewhere.
func (repo *DriverRepo) GetOnlineForUpdateSkipLocked(ctx context.Context, driverID string) (*driver.Driver, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	d, err := scanDriver(tx.QueryRow(ctx, `
		SELECT `+driverColumns+` FROM drivers WHERE id = $1 AND status = 'ONLINE' FOR UPDATE SKIP LOCKED
	`, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict("driver is no longer available")
		}
		return nil, err
	}
	return d, nil
}

// UpdateStatus sets the driver status (idempotent if unchanged).
func (repo *DriverRepo) UpdateStatus(ctx context.Context, driverID string, status driver.DriverStatus) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return driver.ErrInvalidDriverStatus
	}

	tag, err := tx.Exec(ctx, `UPDATE drivers SET status = $1, updated_at = now() WHERE id = $2`, status.String(), driverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("driver", driverID)
	}
	return nil
}

// UpdateAcceptanceRate persists the driver's rolling offer-acceptance rate.
func (repo *DriverRepo) UpdateAcceptanceRate(ctx context.Context, driverID string, rate float64) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE drivers SET acceptance_rate = $1, updated_at = now() WHERE id = $2`, rate, driverID)
	return err
}

// FindNearbyAvailable returns ONLINE drivers of the given vehicle type within
// radius, ordered by distance then rating. This is the Postgres fallback
// path (cold start / geo index rebuild); the hot path is the Redis GeoIndex.
func (repo *DriverRepo) FindNearbyAvailable(
	ctx context.Context,
	lat, lng float64,
	vehicle ride.VehicleType,
	radiusKm float64,
	limit int,
) ([]driver.Driver, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT
			d.id, d.tenant_id, d.created_at, d.updated_at, d.phone, d.license_number, d.vehicle_type, d.vehicle_attrs,
			d.rating, d.total_rides, d.total_earnings, d.acceptance_rate, d.status, d.is_verified
		FROM drivers d
		JOIN coordinates c ON c.entity_id = d.id AND c.entity_type = 'driver' AND c.is_current = true
		WHERE d.status = 'ONLINE'
		  AND d.vehicle_type = $3
		  AND ST_DWithin(
				ST_MakePoint(c.longitude, c.latitude)::geography,
				ST_MakePoint($2, $1)::geography,
				$4 * 1000.0
			  )
		ORDER BY
		  ST_Distance(ST_MakePoint(c.longitude, c.latitude)::geography, ST_MakePoint($2, $1)::geography),
		  d.rating DESC
		LIMIT $5
	`, lat, lng, vehicle.String(), radiusKm, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []driver.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, *d)
	}
	return drivers, rows.Err()
}

// IncrementCountersOnComplete increments total_rides by 1 and adds earnings.
func (repo *DriverRepo) IncrementCountersOnComplete(ctx context.Context, driverID string, earnings float64) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if earnings < 0 {
		return errors.New("earnings cannot be negative")
	}
	_, err = tx.Exec(ctx, `
		UPDATE drivers SET total_rides = total_rides + 1, total_earnings = total_earnings + $1, updated_at = now()
		WHERE id = $2
	`, earnings, driverID)
	return err
}
