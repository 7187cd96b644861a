package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/payment"
	"ride-hail/internal/general/contracts"
	"ride-hail/internal/ports"
)

// refundAddressee resolves the rider a refund receipt is addressed to via
// the payment's trip -> ride join. Returns "" (no notification) if either
// lookup fails; a failed notification lookup must never fail the refund
// itself, which has already been committed.
func (service *paymentService) refundAddressee(ctx context.Context, tripID string) string {
	t, err := service.trips.GetByID(ctx, tripID)
	if err != nil {
		return ""
	}
	r, err := service.rides.GetByID(ctx, t.RideID)
	if err != nil {
		return ""
	}
	return r.RiderID
}

// Refund reverses a completed, non-cash payment (spec §4.6: "only on
// completed, non-cash payments; sets status=refunded and appends refund
// metadata").
func (service *paymentService) Refund(ctx context.Context, paymentID string) (ports.RefundResult, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return ports.RefundResult{}, apperr.Validation("payment_id is required")
	}

	var p *payment.Payment
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = service.payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := p.Refund(); err != nil {
			switch err {
			case payment.ErrNotCompleted:
				return apperr.Conflict(err.Error())
			case payment.ErrCashNotRefundable:
				return apperr.Validation(err.Error())
			default:
				return apperr.Internal(err)
			}
		}
		return service.payments.Save(ctx, p)
	})
	if err != nil {
		return ports.RefundResult{}, err
	}

	if riderID := service.refundAddressee(ctx, p.TripID); riderID != "" {
		if payload, err := json.Marshal(contracts.NotificationEvent{
			UserID: riderID,
			Kind:   "PAYMENT_REFUNDED",
			Title:  "PAYMENT_REFUNDED",
			Data:   map[string]any{"amount": p.Amount, "currency": p.Currency, "payment_id": p.ID},
			SentAt: time.Now().UTC(),
		}); err == nil {
			_ = service.bus.Publish(ctx, contracts.TopicNotifications, riderID, payload)
		}
	}

	service.logger.Info(ctx, "payment_refunded", "Payment refunded", map[string]any{
		"payment_id": p.ID, "trip_id": p.TripID,
	})

	return ports.RefundResult{
		PaymentID:  p.ID,
		Status:     string(p.Status),
		RefundedAt: p.RefundedAt.UTC().Format(time.RFC3339),
	}, nil
}
