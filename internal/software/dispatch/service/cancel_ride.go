package service

import (
	"context"
	"encoding/json"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/ride"
	"ride-hail/internal/general/contracts"
	"ride-hail/internal/ports"
)

// CancelRide cancels a ride at any point before trip start. If a driver was
// already assigned, they're released back to ONLINE and best-effort
// re-inserted into the geo index at their last known location so they pick
// up offers again immediately instead of waiting for their next location
// ping (spec §4.4, §5.3).
func (service *dispatchService) CancelRide(ctx context.Context, rideID, reason string) (ports.CancelRideResult, error) {
	if rideID == "" {
		return ports.CancelRideResult{}, apperr.Validation("ride_id is required")
	}

	var r *ride.Ride
	var releasedDriverID string
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = service.rides.GetForUpdate(ctx, rideID)
		if err != nil {
			return err
		}

		if r.DriverID != nil {
			d, err := service.drivers.GetByID(ctx, *r.DriverID)
			if err != nil {
				return err
			}
			if err := d.Release(); err == nil {
				if err := service.drivers.UpdateStatus(ctx, d.ID, d.Status); err != nil {
					return err
				}
				releasedDriverID = d.ID
			}
		}

		if err := r.Cancel(reason); err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		return service.rides.Cancel(ctx, rideID, reason, time.Now().UTC())
	})
	if err != nil {
		return ports.CancelRideResult{}, err
	}

	if _, err := service.offers.ExpirePending(ctx, time.Now().UTC()); err != nil {
		service.logger.Error(ctx, "offer_expire_on_cancel_failed", "Failed to expire pending offers after cancellation", err, map[string]any{"ride_id": rideID})
	}

	if releasedDriverID != "" {
		if coord, err := service.coords.GetCurrentForDriver(ctx, releasedDriverID); err == nil && coord != nil {
			if err := service.geoIndex.AddDriver(ctx, r.Tier, releasedDriverID, coord.Longitude, coord.Latitude); err != nil {
				service.logger.Error(ctx, "geo_readd_failed", "Failed to re-add released driver to geo index", err, map[string]any{"driver_id": releasedDriverID})
			}
		}
	}

	now := time.Now().UTC()
	payload, _ := json.Marshal(contracts.RideEventMessage{
		RideID: rideID, EventType: ride.EventRideCancelled.String(), RiderID: r.RiderID,
		Data: map[string]any{"reason": reason}, Timestamp: now,
	})
	if err := service.bus.Publish(ctx, contracts.TopicRideEvents, rideID, payload); err != nil {
		service.logger.Error(ctx, "ride_cancel_publish_failed", "Failed to publish RIDE_CANCELLED event", err, map[string]any{"ride_id": rideID})
	}
	_ = service.hub.Broadcast(ctx, "ride:"+rideID, ride.EventRideCancelled.String(), map[string]any{
		"ride_id": rideID, "reason": reason,
	})

	service.logger.Info(ctx, "ride_cancelled", "Ride cancelled", map[string]any{"ride_id": rideID, "reason": reason})

	return ports.CancelRideResult{
		RideID:      rideID,
		Status:      r.Status.String(),
		CancelledAt: now.Format(time.RFC3339),
		Message:     "ride cancelled",
	}, nil
}
