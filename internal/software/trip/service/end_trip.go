package service

import (
	"context"
	"encoding/json"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/ride"
	"ride-hail/internal/domain/trip"
	"ride-hail/internal/general/contracts"
	"ride-hail/internal/ports"
)

// EndTrip closes out the trip: computes the §4.5 fare breakdown, completes
// the ride, credits the driver's counters, and releases them back to ONLINE.
func (service *tripService) EndTrip(ctx context.Context, in ports.EndTripInput) (ports.EndTripResult, error) {
	if in.RideID == "" || in.DriverID == "" {
		return ports.EndTripResult{}, apperr.Validation("ride_id and driver_id are required")
	}

	var r *ride.Ride
	var t *trip.Trip
	var fare *trip.FareBreakdown
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = service.rides.GetForUpdate(ctx, in.RideID)
		if err != nil {
			return err
		}
		if r.DriverID == nil || *r.DriverID != in.DriverID {
			return apperr.New(apperr.CodeForbidden, "ride is not assigned to this driver")
		}

		t, err = service.trips.GetByRideID(ctx, in.RideID)
		if err != nil {
			return err
		}

		fare, err = t.End(r.Tier, 1.0, r.EstimatedDistanceKM, in.ActualDistanceKM, float64(in.ActualDurationMinutes))
		if err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		if err := service.trips.Complete(ctx, t); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := r.Complete(); err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		if err := service.rides.Complete(ctx, in.RideID, now); err != nil {
			return err
		}

		driverEarnings := trip.DriverEarnings(fare.Total)
		if err := service.drivers.IncrementCountersOnComplete(ctx, in.DriverID, driverEarnings); err != nil {
			return err
		}
		d, err := service.drivers.GetByID(ctx, in.DriverID)
		if err != nil {
			return err
		}
		if err := d.Release(); err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		return service.drivers.UpdateStatus(ctx, in.DriverID, d.Status)
	})
	if err != nil {
		return ports.EndTripResult{}, err
	}

	driverEarnings := trip.DriverEarnings(fare.Total)

	// Re-add the driver to the geo index if a recent location exists
	// (spec §4.5: "ride -> COMPLETED; re-add driver to C1 if a recent
	// location exists"), so they resurface for matching immediately
	// rather than waiting for their next location ping.
	if coord, err := service.coords.GetCurrentForDriver(ctx, in.DriverID); err != nil {
		service.logger.Error(ctx, "geo_readd_lookup_failed", "Failed to look up driver location for geo re-add", err, map[string]any{"driver_id": in.DriverID})
	} else if coord != nil {
		if err := service.geoIndex.AddDriver(ctx, r.Tier, in.DriverID, coord.Longitude, coord.Latitude); err != nil {
			service.logger.Error(ctx, "geo_readd_failed", "Failed to re-add driver to geo index after trip completion", err, map[string]any{"driver_id": in.DriverID})
		}
	}

	now := time.Now().UTC()
	payload, _ := json.Marshal(contracts.RideEventMessage{
		RideID: in.RideID, EventType: ride.EventTripCompleted.String(), DriverID: in.DriverID,
		RiderID: r.RiderID, Data: map[string]any{"total_fare": fare.Total, "driver_earnings": driverEarnings}, Timestamp: now,
	})
	if err := service.bus.Publish(ctx, contracts.TopicRideEvents, in.RideID, payload); err != nil {
		service.logger.Error(ctx, "trip_completed_publish_failed", "Failed to publish TRIP_COMPLETED event", err, map[string]any{"ride_id": in.RideID})
	}
	_ = service.hub.Broadcast(ctx, "ride:"+in.RideID, ride.EventTripCompleted.String(), map[string]any{
		"ride_id": in.RideID, "total_fare": fare.Total,
	})

	service.logger.Info(ctx, "trip_completed", "Trip completed", map[string]any{
		"ride_id": in.RideID, "trip_id": t.ID, "total_fare": fare.Total,
	})

	return ports.EndTripResult{
		RideID: in.RideID, TripID: t.ID, Status: t.Status.String(),
		CompletedAt: now, TotalFare: fare.Total, DriverEarnings: driverEarnings,
	}, nil
}
