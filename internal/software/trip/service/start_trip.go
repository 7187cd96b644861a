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

// StartTrip transitions DRIVER_ARRIVED -> IN_PROGRESS and creates the Trip
// row (spec §4.5: "a Trip exists iff the ride ever reached IN_PROGRESS").
func (service *tripService) StartTrip(ctx context.Context, in ports.StartTripInput) (ports.StartTripResult, error) {
	if in.RideID == "" || in.DriverID == "" {
		return ports.StartTripResult{}, apperr.Validation("ride_id and driver_id are required")
	}

	var r *ride.Ride
	var t *trip.Trip
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = service.rides.GetForUpdate(ctx, in.RideID)
		if err != nil {
			return err
		}
		if r.DriverID == nil || *r.DriverID != in.DriverID {
			return apperr.New(apperr.CodeForbidden, "ride is not assigned to this driver")
		}
		if err := r.Start(); err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		if err := service.rides.UpdateStatus(ctx, in.RideID, r.Status, r.Version, time.Now().UTC()); err != nil {
			return err
		}

		t, err = trip.Start(in.RideID)
		if err != nil {
			return apperr.Internal(err)
		}
		return service.trips.Create(ctx, t)
	})
	if err != nil {
		return ports.StartTripResult{}, err
	}

	payload, _ := json.Marshal(contracts.RideEventMessage{
		RideID: in.RideID, EventType: ride.EventTripStarted.String(), DriverID: in.DriverID,
		RiderID: r.RiderID, Timestamp: time.Now().UTC(),
	})
	if err := service.bus.Publish(ctx, contracts.TopicRideEvents, in.RideID, payload); err != nil {
		service.logger.Error(ctx, "trip_started_publish_failed", "Failed to publish TRIP_STARTED event", err, map[string]any{"ride_id": in.RideID})
	}
	_ = service.hub.Broadcast(ctx, "ride:"+in.RideID, ride.EventTripStarted.String(), map[string]any{
		"ride_id": in.RideID, "trip_id": t.ID,
	})

	service.logger.Info(ctx, "trip_started", "Trip started", map[string]any{"ride_id": in.RideID, "trip_id": t.ID})

	return ports.StartTripResult{
		RideID: in.RideID, TripID: t.ID, Status: t.Status.String(), StartedAt: t.StartedAt,
	}, nil
}
