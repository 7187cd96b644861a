package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/ride"
	"ride-hail/internal/ports"

	"github.com/jackc/pgx/v5"
)

// RideRepo persists rides using pgx and plain SQL.
type RideRepo struct{}

// NewRideRepo constructs a new RideRepo.
func NewRideRepo() ports.RideRepository {
	return &RideRepo{}
}

const rideColumns = `
	id, tenant_id, created_at, updated_at, rider_id, driver_id, tier, status, version,
	payment_method, surge_multiplier,
	pickup_lat, pickup_lng, pickup_address, dropoff_lat, dropoff_lng, dropoff_address,
	estimated_fare, estimated_distance_km, estimated_duration_minutes,
	matched_at, cancelled_at, cancel_reason`

func scanRide(row pgx.Row) (*ride.Ride, error) {
	var out ride.Ride
	var tier, status string
	if err := row.Scan(
		&out.ID, &out.TenantID, &out.CreatedAt, &out.UpdatedAt, &out.RiderID, &out.DriverID, &tier, &status, &out.Version,
		&out.PaymentMethod, &out.SurgeMultiplier,
		&out.Pickup.Lat, &out.Pickup.Lng, &out.Pickup.Address, &out.Dropoff.Lat, &out.Dropoff.Lng, &out.Dropoff.Address,
		&out.EstimatedFare, &out.EstimatedDistanceKM, &out.EstimatedDurationMinutes,
		&out.MatchedAt, &out.CancelledAt, &out.CancelReason,
	); err != nil {
		return nil, err
	}
	out.Tier = ride.VehicleType(tier)
	out.Status = ride.Status(status)
	return &out, nil
}

// CreateRide inserts a new ride row and appends an initial RIDE_CREATED event.
func (repo *RideRepo) CreateRide(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO rides (
			tenant_id, rider_id, tier, status, version, payment_method, surge_multiplier,
			pickup_lat, pickup_lng, pickup_address, dropoff_lat, dropoff_lng, dropoff_address,
			estimated_fare, estimated_distance_km, estimated_duration_minutes
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id, created_at, updated_at
	`,
		r.TenantID, r.RiderID, r.Tier.String(), r.Status.String(), r.Version, r.PaymentMethod, r.SurgeMultiplier,
		r.Pickup.Lat, r.Pickup.Lng, r.Pickup.Address, r.Dropoff.Lat, r.Dropoff.Lng, r.Dropoff.Address,
		r.EstimatedFare, r.EstimatedDistanceKM, r.EstimatedDurationMinutes,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}

	return insertRideEvent(ctx, tx, r.ID, "RIDE_CREATED", map[string]any{"status": r.Status.String()})
}

// GetByID fetches a ride by primary key without locking.
func (repo *RideRepo) GetByID(ctx context.Context, id string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := scanRide(tx.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("ride", id)
		}
		return nil, err
	}
	return r, nil
}

// GetForUpdate locks the ride row NOWAIT (spec §4.3 step 3).
func (repo *RideRepo) GetForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := scanRide(tx.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1 FOR UPDATE NOWAIT`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("ride", id)
		}
		if isLockNotAvailable(err) {
			return nil, apperr.LockFailed("ride is locked by a concurrent operation")
		}
		return nil, err
	}
	return r, nil
}

// GetActiveForDriver fetches the current non-terminal ride for a driver, if any.
func (repo *RideRepo) GetActiveForDriver(ctx context.Context, driverID string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := scanRide(tx.QueryRow(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE driver_id = $1 AND status NOT IN ('COMPLETED','CANCELLED')
		ORDER BY created_at DESC LIMIT 1
	`, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// GetCurrentForRider fetches the rider's current non-terminal ride, if any.
func (repo *RideRepo) GetCurrentForRider(ctx context.Context, riderID string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := scanRide(tx.QueryRow(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE rider_id = $1 AND status NOT IN ('COMPLETED','CANCELLED')
		ORDER BY created_at DESC LIMIT 1
	`, riderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// GetRidesByDriver returns recent rides for a driver.
func (repo *RideRepo) GetRidesByDriver(ctx context.Context, driverID string, limit int) ([]*ride.Ride, error) {
	return repo.queryRides(ctx, `SELECT `+rideColumns+` FROM rides WHERE driver_id = $1 ORDER BY created_at DESC LIMIT $2`, driverID, limit)
}

// GetRidesByRider returns recent rides for a rider.
func (repo *RideRepo) GetRidesByRider(ctx context.Context, riderID string, limit int) ([]*ride.Ride, error) {
	return repo.queryRides(ctx, `SELECT `+rideColumns+` FROM rides WHERE rider_id = $1 ORDER BY created_at DESC LIMIT $2`, riderID, limit)
}

func (repo *RideRepo) queryRides(ctx context.Context, query string, args ...any) ([]*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ride.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateStatus writes status+version atomically, optionally checking the
// caller's expected version (optimistic concurrency, spec §4.1 invariant:
// "version increments on every state-mutating write").
func (repo *RideRepo) UpdateStatus(ctx context.Context, id string, status ride.Status, expectedVersion int, ts time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var current string
	var version int
	err = tx.QueryRow(ctx, `SELECT status, version FROM rides WHERE id = $1 FOR UPDATE`, id).Scan(&current, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("ride", id)
		}
		return err
	}

	if expectedVersion != 0 && version != expectedVersion {
		return apperr.Conflict("ride version mismatch")
	}
	if !status.Valid() {
		return errors.New("invalid ride status")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides SET status = $1, version = version + 1, updated_at = $2 WHERE id = $3
	`, status.String(), ts, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("ride", id)
	}

	return insertRideEvent(ctx, tx, id, "RIDE_STATUS_CHANGED", map[string]any{
		"old_status": current, "new_status": status.String(),
	})
}

// AssignDriver sets the driver, stamps matched_at, and moves the ride to
// DRIVER_ASSIGNED — guarded by the caller-supplied expected version so a
// stale MATCHING read cannot clobber a concurrent acceptance (spec §4.3).
func (repo *RideRepo) AssignDriver(ctx context.Context, rideID, driverID string, expectedVersion int, matchedAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET driver_id = $1, status = 'DRIVER_ASSIGNED', version = version + 1, matched_at = $2, updated_at = $2
		WHERE id = $3 AND version = $4 AND status = 'MATCHING'
	`, driverID, matchedAt, rideID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("ride is no longer matching or version is stale")
	}

	return insertRideEvent(ctx, tx, rideID, "DRIVER_ASSIGNED", map[string]any{"driver_id": driverID})
}

// Complete moves a ride to COMPLETED once its trip has settled the fare.
func (repo *RideRepo) Complete(ctx context.Context, rideID string, completedAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides SET status = 'COMPLETED', version = version + 1, updated_at = $1
		WHERE id = $2 AND status = 'IN_PROGRESS'
	`, completedAt, rideID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("ride is not in progress")
	}

	return insertRideEvent(ctx, tx, rideID, "TRIP_COMPLETED", nil)
}

// Cancel moves a ride to CANCELLED, recording the reason.
func (repo *RideRepo) Cancel(ctx context.Context, rideID, reason string, cancelledAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM rides WHERE id = $1 FOR UPDATE`, rideID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("ride", rideID)
		}
		return err
	}
	if current == "CANCELLED" {
		return nil
	}
	if current == "COMPLETED" || current == "IN_PROGRESS" {
		return apperr.InvalidTransition("cannot cancel a ride that is in progress or completed")
	}

	_, err = tx.Exec(ctx, `
		UPDATE rides SET status = 'CANCELLED', version = version + 1, cancel_reason = $1, cancelled_at = $2, updated_at = $2
		WHERE id = $3
	`, reason, cancelledAt, rideID)
	if err != nil {
		return err
	}

	return insertRideEvent(ctx, tx, rideID, "RIDE_CANCELLED", map[string]any{"reason": reason})
}

// --- metrics helpers live in ride_repo_metrics.go ---

// --- event helper ---

func insertRideEvent(ctx context.Context, tx pgx.Tx, rideID, eventType string, eventData any) error {
	body, err := json.Marshal(eventData)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO ride_events (ride_id, event_type, event_data) VALUES ($1, $2, $3::jsonb)`, rideID, eventType, string(body))
	return err
}

func isLockNotAvailable(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "55P03" // lock_not_available
	}
	return false
}
