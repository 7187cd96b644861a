package service

import (
	"context"
	"strings"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/payment"
	"ride-hail/internal/ports"
)

// Retry re-runs the §4.6 charge pipeline for a payment that previously
// failed, under a caller-supplied new idempotency key (spec §6.4: failed
// payments are never retried automatically). It looks up the failed
// payment's trip and method and delegates to Charge, so a retry gets the
// exact same cache/lock/transaction guarantees as the original attempt.
func (service *paymentService) Retry(ctx context.Context, in ports.RetryPaymentInput) (ports.ChargeResult, error) {
	paymentID := strings.TrimSpace(in.PaymentID)
	key := strings.TrimSpace(in.IdempotencyKey)
	if paymentID == "" || key == "" {
		return ports.ChargeResult{}, apperr.Validation("payment_id and a new idempotency_key are required")
	}

	existing, err := service.payments.GetByID(ctx, paymentID)
	if err != nil {
		return ports.ChargeResult{}, err
	}
	if existing.Status == payment.StatusCompleted {
		return toChargeResult(existing), nil
	}
	if existing.Status != payment.StatusFailed {
		return ports.ChargeResult{}, apperr.Conflict("only a failed payment can be retried")
	}
	if existing.IdempotencyKey == key {
		return ports.ChargeResult{}, apperr.Validation("retry requires a new idempotency key")
	}

	return service.Charge(ctx, ports.ChargeInput{
		TripID:         existing.TripID,
		Method:         string(existing.Method),
		IdempotencyKey: key,
	})
}
