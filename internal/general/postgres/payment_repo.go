package postgres

import (
	"context"
	"errors"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/payment"
	"ride-hail/internal/ports"

	"github.com/jackc/pgx/v5"
)

// PaymentRepo persists payments using pgx and plain SQL.
type PaymentRepo struct{}

// NewPaymentRepo constructs a new PaymentRepo.
func NewPaymentRepo() ports.PaymentRepository {
	return &PaymentRepo{}
}

const paymentColumns = `
	id, trip_id, amount, currency, method, status,
	psp_ref, psp_error_code, idempotency_key, created_at, completed_at, refunded_at`

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var out payment.Payment
	var method, status string
	if err := row.Scan(
		&out.ID, &out.TripID, &out.Amount, &out.Currency, &method, &status,
		&out.PSPRef, &out.PSPErrorCode, &out.IdempotencyKey, &out.CreatedAt, &out.CompletedAt, &out.RefundedAt,
	); err != nil {
		return nil, err
	}
	out.Method = payment.Method(method)
	out.Status = payment.Status(status)
	return &out, nil
}

// GetByIdempotencyKey returns the payment created for an idempotency key, if
// any (spec §4.6 step 3: charge is keyed by idempotency key, not trip id).
func (repo *PaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(tx.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1
	`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("payment", key)
		}
		return nil, err
	}
	return p, nil
}

// GetByTripID returns the payment for a trip.
func (repo *PaymentRepo) GetByTripID(ctx context.Context, tripID string) (*payment.Payment, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(tx.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE trip_id = $1
	`, tripID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("payment", tripID)
		}
		return nil, err
	}
	return p, nil
}

// GetByID returns one payment by id.
func (repo *PaymentRepo) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("payment", id)
		}
		return nil, err
	}
	return p, nil
}

// Upsert inserts a new payment row, or if one already exists for this
// idempotency key, updates it in place (spec §4.6 step 3c retry path).
func (repo *PaymentRepo) Upsert(ctx context.Context, p *payment.Payment) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (trip_id, amount, currency, method, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idempotency_key) DO UPDATE SET status = EXCLUDED.status
		RETURNING id, created_at
	`, p.TripID, p.Amount, p.Currency, p.Method.String(), p.Status.String(), p.IdempotencyKey,
	).Scan(&p.ID, &p.CreatedAt)
	return err
}

// Save persists a payment's outcome fields (status, psp ref/error, timestamps).
func (repo *PaymentRepo) Save(ctx context.Context, p *payment.Payment) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE payments
		SET status = $1, psp_ref = $2, psp_error_code = $3, completed_at = $4, refunded_at = $5
		WHERE id = $6
	`, p.Status.String(), p.PSPRef, p.PSPErrorCode, p.CompletedAt, p.RefundedAt, p.ID)
	return err
}
