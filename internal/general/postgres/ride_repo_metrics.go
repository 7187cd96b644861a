package postgres

import (
	"context"
	"time"

	"ride-hail/internal/ports"
)

// CountActive returns the number of rides in non-terminal states.
func (repo *RideRepo) CountActive(ctx context.Context) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM rides
		WHERE status NOT IN ('COMPLETED', 'CANCELLED')
	`).Scan(&n)
	return n, err
}

// CountCreatedBetween returns the number of rides created within [start, end).
func (repo *RideRepo) CountCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM rides WHERE created_at >= $1 AND created_at < $2
	`, start, end).Scan(&n)
	return n, err
}

// CancellationRateBetween returns the share of rides created in [start, end)
// that ended up CANCELLED.
func (repo *RideRepo) CancellationRateBetween(ctx context.Context, start, end time.Time) (float64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var total, cancelled int64
	err = tx.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2) AS total_cnt,
			COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2 AND status = 'CANCELLED') AS cancelled_cnt
		FROM rides
	`, start, end).Scan(&total, &cancelled)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return float64(cancelled) / float64(total), nil
}

// SumFinalFareCompletedBetween returns total settled revenue for trips that
// completed within [start, end).
func (repo *RideRepo) SumFinalFareCompletedBetween(ctx context.Context, start, end time.Time) (float64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var total float64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(fare_total), 0) FROM trips
		WHERE status = 'COMPLETED' AND ended_at >= $1 AND ended_at < $2
	`, start, end).Scan(&total)
	return total, err
}

// AvgWaitMinutesBetween returns the average rider wait time (request to
// match) for rides matched within [start, end).
func (repo *RideRepo) AvgWaitMinutesBetween(ctx context.Context, start, end time.Time) (float64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var avg float64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (matched_at - created_at)) / 60.0), 0)
		FROM rides
		WHERE matched_at IS NOT NULL AND matched_at >= $1 AND matched_at < $2
	`, start, end).Scan(&avg)
	return avg, err
}

// AvgRideDurationMinutesBetween returns the average trip duration for trips
// completed within [start, end).
func (repo *RideRepo) AvgRideDurationMinutesBetween(ctx context.Context, start, end time.Time) (float64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var avg float64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (ended_at - started_at)) / 60.0), 0)
		FROM trips
		WHERE status = 'COMPLETED' AND ended_at >= $1 AND ended_at < $2
	`, start, end).Scan(&avg)
	return avg, err
}

// HydrateActiveRows returns a page of in-progress rides with live driver
// position and remaining-distance ETA for the admin dashboard.
func (repo *RideRepo) HydrateActiveRows(ctx context.Context, offset, limit int) ([]ports.ActiveRideRow, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := tx.Query(ctx, `
		WITH base AS (
			SELECT
				r.id, r.status, r.rider_id, r.driver_id,
				r.pickup_address, r.dropoff_address,
				r.pickup_lat, r.pickup_lng, r.dropoff_lat, r.dropoff_lng,
				t.started_at
			FROM rides r
			JOIN trips t ON t.ride_id = r.id
			WHERE r.status = 'IN_PROGRESS'
			ORDER BY t.started_at DESC
			OFFSET $1 LIMIT $2
		),
		cur AS (
			SELECT c.entity_id AS driver_id, c.latitude AS cur_lat, c.longitude AS cur_lng
			FROM coordinates c
			WHERE c.entity_type = 'driver' AND c.is_current = true
		),
		latest_spd AS (
			SELECT DISTINCT ON (lh.driver_id) lh.driver_id, lh.speed_kmh
			FROM location_history lh
			ORDER BY lh.driver_id, lh.recorded_at DESC
		),
		calc AS (
			SELECT
				b.*, cur.cur_lat, cur.cur_lng,
				COALESCE(ST_Distance(
					ST_MakePoint(b.pickup_lng, b.pickup_lat)::geography,
					ST_MakePoint(cur.cur_lng, cur.cur_lat)::geography
				) / 1000.0, 0.0) AS dist_completed_km,
				COALESCE(ST_Distance(
					ST_MakePoint(cur.cur_lng, cur.cur_lat)::geography,
					ST_MakePoint(b.dropoff_lng, b.dropoff_lat)::geography
				) / 1000.0, 0.0) AS dist_remaining_km,
				CASE WHEN COALESCE(ls.speed_kmh, 30.0) <= 1.0 THEN 15.0 ELSE COALESCE(ls.speed_kmh, 30.0) END AS eff_speed_kmh
			FROM base b
			LEFT JOIN cur ON cur.driver_id = b.driver_id
			LEFT JOIN latest_spd ls ON ls.driver_id = b.driver_id
		)
		SELECT
			id, status, rider_id, driver_id,
			COALESCE(pickup_address, ''), COALESCE(dropoff_address, ''),
			started_at,
			COALESCE(cur_lat, 0.0), COALESCE(cur_lng, 0.0),
			dist_completed_km, dist_remaining_km,
			now() + (dist_remaining_km / NULLIF(eff_speed_kmh, 0.0)) * interval '1 hour'
		FROM calc
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.ActiveRideRow
	for rows.Next() {
		var r ports.ActiveRideRow
		if err := rows.Scan(
			&r.RideID, &r.Status, &r.RiderID, &r.DriverID,
			&r.PickupAddress, &r.DestinationAddress,
			&r.StartedAt,
			&r.CurrentDriverLocation.Latitude, &r.CurrentDriverLocation.Longitude,
			&r.DistanceCompletedKM, &r.DistanceRemainingKM,
			&r.EstimatedCompletion,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
