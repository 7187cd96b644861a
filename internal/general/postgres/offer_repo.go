package postgres

import (
	"context"
	"errors"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/offer"
	"ride-hail/internal/ports"

	"github.com/jackc/pgx/v5"
)

// OfferRepo persists ride offers using pgx and plain SQL.
type OfferRepo struct{}

// NewOfferRepo constructs a new OfferRepo.
func NewOfferRepo() ports.OfferRepository {
	return &OfferRepo{}
}

const offerColumns = `id, ride_id, driver_id, status, offered_at, expires_at, responded_at, decline_reason`

func scanOffer(row pgx.Row) (*offer.Offer, error) {
	var out offer.Offer
	var status string
	if err := row.Scan(
		&out.ID, &out.RideID, &out.DriverID, &status,
		&out.OfferedAt, &out.ExpiresAt, &out.RespondedAt, &out.DeclineReason,
	); err != nil {
		return nil, err
	}
	out.Status = offer.Status(status)
	return &out, nil
}

// Create inserts a pending offer for a driver, skipping silently if one
// already exists for this (ride, driver) pair (spec §4.3: fan-out must not
// double-offer a driver already holding a pending invitation).
func (repo *OfferRepo) Create(ctx context.Context, o *offer.Offer) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO ride_offers (ride_id, driver_id, status, offered_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ride_id, driver_id) WHERE status = 'PENDING' DO NOTHING
		RETURNING id
	`, o.RideID, o.DriverID, o.Status.String(), o.OfferedAt, o.ExpiresAt).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	o.ID = id
	return true, nil
}

// GetPending returns the pending offer for a (ride, driver) pair.
func (repo *OfferRepo) GetPending(ctx context.Context, rideID, driverID string) (*offer.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	o, err := scanOffer(tx.QueryRow(ctx, `
		SELECT `+offerColumns+` FROM ride_offers
		WHERE ride_id = $1 AND driver_id = $2 AND status = 'PENDING'
	`, rideID, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("offer", rideID+"/"+driverID)
		}
		return nil, err
	}
	return o, nil
}

// ListPendingForRide lists every currently pending offer for a ride.
func (repo *OfferRepo) ListPendingForRide(ctx context.Context, rideID string) ([]*offer.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+offerColumns+` FROM ride_offers WHERE ride_id = $1 AND status = 'PENDING'
	`, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

// ListPendingForDriver lists every currently pending offer held by a driver.
func (repo *OfferRepo) ListPendingForDriver(ctx context.Context, driverID string) ([]*offer.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+offerColumns+` FROM ride_offers WHERE driver_id = $1 AND status = 'PENDING'
	`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func scanOffers(rows pgx.Rows) ([]*offer.Offer, error) {
	var out []*offer.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Accept transitions a pending offer to ACCEPTED.
func (repo *OfferRepo) Accept(ctx context.Context, id string, respondedAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE ride_offers SET status = 'ACCEPTED', responded_at = $1
		WHERE id = $2 AND status = 'PENDING'
	`, respondedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("offer is no longer pending")
	}
	return nil
}

// CancelOthersPending cancels every other pending offer for the ride once
// one offer has been accepted (spec §4.3 step 7).
func (repo *OfferRepo) CancelOthersPending(ctx context.Context, rideID, acceptedOfferID string) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE ride_offers SET status = 'CANCELLED', responded_at = now()
		WHERE ride_id = $1 AND id <> $2 AND status = 'PENDING'
	`, rideID, acceptedOfferID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Decline transitions a pending offer to DECLINED.
func (repo *OfferRepo) Decline(ctx context.Context, id, reason string, respondedAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE ride_offers SET status = 'DECLINED', decline_reason = $1, responded_at = $2
		WHERE id = $3 AND status = 'PENDING'
	`, reason, respondedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("offer is no longer pending")
	}
	return nil
}

// ExpirePending marks every pending offer whose TTL has elapsed as EXPIRED.
// Driven by the dispatch service's background sweeper.
func (repo *OfferRepo) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE ride_offers SET status = 'EXPIRED', responded_at = $1
		WHERE status = 'PENDING' AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// CountRecentForDriver returns the total offer count and accepted count for
// a driver since a cutoff, feeding the rolling acceptance-rate metric.
func (repo *OfferRepo) CountRecentForDriver(ctx context.Context, driverID string, since time.Time) (int, int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	var total, accepted int
	err = tx.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE offered_at >= $2),
			COUNT(*) FILTER (WHERE offered_at >= $2 AND status = 'ACCEPTED')
		FROM ride_offers
		WHERE driver_id = $1
	`, driverID, since).Scan(&total, &accepted)
	return total, accepted, err
}
