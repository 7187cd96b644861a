package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/trip"
	"ride-hail/internal/ports"

	"github.com/jackc/pgx/v5"
)

// TripRepo persists trips using pgx and plain SQL.
type TripRepo struct{}

// NewTripRepo constructs a new TripRepo.
func NewTripRepo() ports.TripRepository {
	return &TripRepo{}
}

const tripColumns = `
	id, ride_id, status, started_at, ended_at,
	actual_distance_km, actual_duration_minutes, route_polyline, fare`

func scanTrip(row pgx.Row) (*trip.Trip, error) {
	var out trip.Trip
	var status string
	var fareRaw []byte
	if err := row.Scan(
		&out.ID, &out.RideID, &status, &out.StartedAt, &out.EndedAt,
		&out.ActualDistanceKM, &out.ActualDurationMins, &out.RoutePolyline, &fareRaw,
	); err != nil {
		return nil, err
	}
	out.Status = trip.Status(status)
	if len(fareRaw) > 0 {
		var fare trip.FareBreakdown
		if err := json.Unmarshal(fareRaw, &fare); err != nil {
			return nil, err
		}
		out.Fare = &fare
	}
	return &out, nil
}

// Create inserts a new trip row when a ride reaches IN_PROGRESS.
func (repo *TripRepo) Create(ctx context.Context, t *trip.Trip) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO trips (ride_id, status, started_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, t.RideID, t.Status.String(), t.StartedAt).Scan(&t.ID)
	return err
}

// GetByRideID returns the trip for a ride.
func (repo *TripRepo) GetByRideID(ctx context.Context, rideID string) (*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	t, err := scanTrip(tx.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE ride_id = $1`, rideID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("trip", rideID)
		}
		return nil, err
	}
	return t, nil
}

// GetByID returns one trip by id.
func (repo *TripRepo) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	t, err := scanTrip(tx.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("trip", id)
		}
		return nil, err
	}
	return t, nil
}

// Complete persists the fare breakdown and closes out a trip.
func (repo *TripRepo) Complete(ctx context.Context, t *trip.Trip) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var fareJSON any
	if t.Fare != nil {
		fareJSON = t.Fare
	}

	tag, err := tx.Exec(ctx, `
		UPDATE trips
		SET status = $1, ended_at = $2, actual_distance_km = $3,
		    actual_duration_minutes = $4, route_polyline = $5, fare = $6
		WHERE id = $7 AND status = 'IN_PROGRESS'
	`,
		t.Status.String(), t.EndedAt, t.ActualDistanceKM,
		t.ActualDurationMins, t.RoutePolyline, fareJSON, t.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidTransition("trip is not in progress")
	}
	return nil
}
