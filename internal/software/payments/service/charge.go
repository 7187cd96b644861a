package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/payment"
	"ride-hail/internal/domain/trip"
	"ride-hail/internal/general/contracts"
	"ride-hail/internal/ports"
)

const idempotencyTTL = 24 * time.Hour

// Charge implements the spec §4.6 idempotent payment pipeline:
//  1. cache lookup on the idempotency key, hit returns verbatim
//  2. lock "payment_lock:<tripId>", falling back to a second idempotency
//     check on contention before giving up with Conflict
//  3. inside a transaction: idempotent-hit-by-trip check, require the trip
//     COMPLETED, upsert the payment into processing, invoke the mock PSP
//  4. cache the outcome, invalidate the ride's cache entry, publish
//     PAYMENT_COMPLETED/PAYMENT_RECEIVED
//  5. release the lock only if its fence token still matches
func (service *paymentService) Charge(ctx context.Context, in ports.ChargeInput) (ports.ChargeResult, error) {
	tripID := strings.TrimSpace(in.TripID)
	key := strings.TrimSpace(in.IdempotencyKey)
	if tripID == "" || key == "" || strings.TrimSpace(in.Method) == "" {
		return ports.ChargeResult{}, apperr.Validation("trip_id, method and idempotency_key are required")
	}
	method := payment.Method(in.Method)
	if !method.Valid() {
		return ports.ChargeResult{}, apperr.Validation("invalid payment method")
	}

	idemKey := "payment:idempotency:" + key
	if cached, ok, err := service.cacheLookup(ctx, idemKey); err != nil {
		service.logger.Error(ctx, "payment_cache_lookup_failed", "Idempotency cache lookup failed", err, map[string]any{"trip_id": tripID})
	} else if ok {
		return cached, nil
	}

	lockKey := "payment_lock:" + tripID
	lock, err := service.lock.Acquire(ctx, lockKey, 30*time.Second)
	if err != nil {
		time.Sleep(100 * time.Millisecond)
		if cached, ok, _ := service.cacheLookup(ctx, idemKey); ok {
			return cached, nil
		}
		return ports.ChargeResult{}, apperr.Conflict("processing")
	}
	defer func() {
		if releaseErr := service.lock.Release(ctx, lock); releaseErr != nil {
			service.logger.Error(ctx, "payment_lock_release_failed", "Failed to release payment lock", releaseErr, map[string]any{"trip_id": tripID})
		}
	}()

	var (
		p        *payment.Payment
		t        *trip.Trip
		rideID   string
		riderID  string
		driverID string
		idemHit  bool
	)
	err = service.uow.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := service.payments.GetByTripID(ctx, tripID)
		if err != nil && !apperr.IsNotFound(err) {
			return err
		}
		if existing != nil && existing.Status == payment.StatusCompleted {
			p, idemHit = existing, true
			return nil
		}

		t, err = service.trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if t.Status != trip.StatusCompleted {
			return apperr.Conflict("trip is not completed")
		}
		if t.Fare == nil {
			return apperr.Internal(fmt.Errorf("completed trip %s has no fare breakdown", tripID))
		}

		r, err := service.rides.GetByID(ctx, t.RideID)
		if err != nil {
			return err
		}
		rideID = r.ID
		riderID = r.RiderID
		if r.DriverID != nil {
			driverID = *r.DriverID
		}

		if existing != nil {
			existing.MarkProcessing()
			p = existing
		} else {
			p, err = payment.New(tripID, t.Fare.Total, method, key)
			if err != nil {
				return apperr.Validation(err.Error())
			}
		}
		if err := service.payments.Upsert(ctx, p); err != nil {
			return err
		}

		chargeViaPSP(p)

		return service.payments.Upsert(ctx, p)
	})
	if err != nil {
		return ports.ChargeResult{}, err
	}

	result := toChargeResult(p)
	if payload, err := json.Marshal(result); err == nil {
		if err := service.cache.Set(ctx, idemKey, payload, idempotencyTTL); err != nil {
			service.logger.Error(ctx, "payment_cache_set_failed", "Failed to cache payment outcome", err, map[string]any{"trip_id": tripID})
		}
	}
	if idemHit {
		return result, nil
	}

	if rideID != "" {
		if err := service.cache.Del(ctx, "ride:"+rideID); err != nil {
			service.logger.Error(ctx, "ride_cache_invalidate_failed", "Failed to invalidate ride cache after payment", err, map[string]any{"ride_id": rideID})
		}
	}

	if p.Status == payment.StatusCompleted {
		now := time.Now().UTC()
		if riderID != "" {
			service.notify(ctx, riderID, "PAYMENT_COMPLETED", p.Amount, now)
		}
		if driverID != "" {
			service.notify(ctx, driverID, "PAYMENT_RECEIVED", trip.DriverEarnings(p.Amount), now)
		}
	}

	service.logger.Info(ctx, "payment_charged", "Trip payment processed", map[string]any{
		"trip_id": tripID, "payment_id": p.ID, "status": string(p.Status), "method": string(p.Method),
	})

	return result, nil
}

func (service *paymentService) cacheLookup(ctx context.Context, key string) (ports.ChargeResult, bool, error) {
	payload, ok, err := service.cache.Get(ctx, key)
	if err != nil || !ok {
		return ports.ChargeResult{}, false, err
	}
	var result ports.ChargeResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return ports.ChargeResult{}, false, err
	}
	return result, true, nil
}

func (service *paymentService) notify(ctx context.Context, userID, kind string, amount float64, at time.Time) {
	evt := contracts.NotificationEvent{
		UserID: userID, Kind: kind,
		Title: kind,
		Data:  map[string]any{"amount": amount, "currency": "INR"},
		SentAt: at,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := service.bus.Publish(ctx, contracts.TopicNotifications, userID, payload); err != nil {
		service.logger.Error(ctx, "payment_notify_failed", "Failed to publish payment notification", err, map[string]any{"user_id": userID, "kind": kind})
	}
}

func toChargeResult(p *payment.Payment) ports.ChargeResult {
	res := ports.ChargeResult{
		PaymentID: p.ID,
		TripID:    p.TripID,
		Status:    string(p.Status),
		Amount:    p.Amount,
		Currency:  p.Currency,
	}
	if p.PSPRef != nil {
		res.PSPRef = *p.PSPRef
	}
	return res
}
