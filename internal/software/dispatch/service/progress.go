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

// MarkEnRoute transitions DRIVER_ASSIGNED -> DRIVER_EN_ROUTE.
func (service *dispatchService) MarkEnRoute(ctx context.Context, in ports.MarkEnRouteInput) error {
	return service.transition(ctx, in.RideID, in.DriverID, (*ride.Ride).MarkEnRoute, ride.EventRideDriverEnRoute)
}

// MarkArrived transitions DRIVER_EN_ROUTE -> DRIVER_ARRIVED.
func (service *dispatchService) MarkArrived(ctx context.Context, in ports.MarkArrivedInput) error {
	return service.transition(ctx, in.RideID, in.DriverID, (*ride.Ride).MarkArrived, ride.EventRideDriverArrived)
}

// transition loads the ride for update, applies mutate (a method value on
// *ride.Ride such as MarkEnRoute/MarkArrived), persists the version-guarded
// status write, and fans the new status out over the bus and realtime hub.
func (service *dispatchService) transition(ctx context.Context, rideID, driverID string, mutate func(*ride.Ride) error, eventType ride.EventType) error {
	if rideID == "" || driverID == "" {
		return apperr.Validation("ride_id and driver_id are required")
	}

	var r *ride.Ride
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = service.rides.GetForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		if r.DriverID == nil || *r.DriverID != driverID {
			return apperr.New(apperr.CodeForbidden, "ride is not assigned to this driver")
		}
		if err := mutate(r); err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		return service.rides.UpdateStatus(ctx, rideID, r.Status, r.Version, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(contracts.RideEventMessage{
		RideID: rideID, EventType: eventType.String(), DriverID: driverID, RiderID: r.RiderID, Timestamp: time.Now().UTC(),
	})
	if err := service.bus.Publish(ctx, contracts.TopicRideEvents, rideID, payload); err != nil {
		service.logger.Error(ctx, "ride_progress_publish_failed", "Failed to publish ride progress event", err, map[string]any{"ride_id": rideID})
	}
	_ = service.hub.Broadcast(ctx, "ride:"+rideID, eventType.String(), map[string]any{
		"ride_id": rideID, "status": r.Status.String(),
	})
	return nil
}
