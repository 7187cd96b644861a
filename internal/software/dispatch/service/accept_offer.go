package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/ride"
	"ride-hail/internal/general/contracts"
	"ride-hail/internal/ports"
)

// AcceptOffer implements the spec §4.3 race-free acceptance algorithm:
//  1. acquire a distributed lock on "ride:<id>"
//  2. lock the driver row (SKIP LOCKED: a driver racing two offers loses
//     the second attempt instantly instead of blocking)
//  3. lock the ride row (NOWAIT: a concurrent acceptance on the same ride
//     fails fast instead of queuing behind another driver's commit)
//  4. version-guard the ride's driver assignment
//  5. cancel every other pending offer for the ride
//  6. mark the driver BUSY and drop it from the geo index
//  7. publish DRIVER_ASSIGNED and notify both parties over the realtime hub
//  8. release the lock
func (service *dispatchService) AcceptOffer(ctx context.Context, in ports.AcceptOfferInput) (ports.AcceptOfferResult, error) {
	if in.DriverID == "" || in.OfferID == "" {
		return ports.AcceptOfferResult{}, apperr.Validation("driver_id and offer_id are required")
	}

	pending, err := service.offers.ListPendingForDriver(ctx, in.DriverID)
	if err != nil {
		return ports.AcceptOfferResult{}, err
	}
	var rideID string
	for _, o := range pending {
		if o.ID == in.OfferID {
			rideID = o.RideID
			break
		}
	}
	if rideID == "" {
		return ports.AcceptOfferResult{}, apperr.NotFound("offer", in.OfferID)
	}

	lockKey := "ride:" + rideID
	lock, err := service.lock.Acquire(ctx, lockKey, 10*time.Second)
	if err != nil {
		return ports.AcceptOfferResult{}, apperr.LockFailed(fmt.Sprintf("could not acquire lock for ride %s", rideID))
	}
	defer func() { _ = service.lock.Release(ctx, lock) }()

	var r *ride.Ride
	err = service.uow.WithinTx(ctx, func(ctx context.Context) error {
		d, err := service.drivers.GetOnlineForUpdateSkipLocked(ctx, in.DriverID)
		if err != nil {
			return err
		}

		r, err = service.rides.GetForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		if r.Status != ride.StatusMatching && r.Status != ride.StatusRequested {
			return apperr.Conflict("ride is no longer accepting offers")
		}

		if err := r.AssignDriver(in.DriverID); err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		now := time.Now().UTC()
		if err := service.rides.AssignDriver(ctx, rideID, in.DriverID, r.Version, now); err != nil {
			return err
		}

		if err := service.offers.Accept(ctx, in.OfferID, now); err != nil {
			return err
		}
		if _, err := service.offers.CancelOthersPending(ctx, rideID, in.OfferID); err != nil {
			return err
		}

		if err := d.MarkBusy(); err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		return service.drivers.UpdateStatus(ctx, in.DriverID, d.Status)
	})
	if err != nil {
		if apperr.IsLockFailed(err) {
			return ports.AcceptOfferResult{}, apperr.LockFailed("ride row is locked by a concurrent acceptance")
		}
		return ports.AcceptOfferResult{}, err
	}

	if err := service.geoIndex.RemoveDriver(ctx, r.Tier, in.DriverID); err != nil {
		service.logger.Error(ctx, "geo_remove_failed", "Failed to remove driver from geo index after acceptance", err, map[string]any{"driver_id": in.DriverID})
	}

	payload, _ := json.Marshal(contracts.RideEventMessage{
		RideID: rideID, EventType: ride.EventDriverAssigned.String(),
		DriverID: in.DriverID, RiderID: r.RiderID, Timestamp: time.Now().UTC(),
	})
	if err := service.bus.Publish(ctx, contracts.TopicRideEvents, rideID, payload); err != nil {
		service.logger.Error(ctx, "driver_assigned_publish_failed", "Failed to publish DRIVER_ASSIGNED event", err, map[string]any{"ride_id": rideID})
	}

	service.hub.JoinRoom("ride:"+rideID, r.RiderID)
	service.hub.JoinRoom("ride:"+rideID, in.DriverID)
	_ = service.hub.Broadcast(ctx, "ride:"+rideID, "DRIVER_ASSIGNED", map[string]any{
		"ride_id": rideID, "driver_id": in.DriverID, "status": ride.StatusDriverAssigned.String(),
	})

	service.logger.Info(ctx, "offer_accepted", "Driver accepted ride offer", map[string]any{
		"ride_id": rideID, "driver_id": in.DriverID, "offer_id": in.OfferID,
	})

	return ports.AcceptOfferResult{
		RideID:   rideID,
		OfferID:  in.OfferID,
		Status:   ride.StatusDriverAssigned.String(),
		DriverID: in.DriverID,
	}, nil
}
