package service

import (
	"context"
	"encoding/json"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/driver"
	"ride-hail/internal/general/contracts"
	"ride-hail/internal/ports"
)

// UpdateLocation ingests a driver's position ping: persists it, refreshes
// the geo index entry (spec §4.1: "replace on every ping, no TTL expiry"),
// publishes to location-updates for any consumer (the simulator excluded,
// since it calls this directly), and relays it to the rider's WebSocket
// connection when the driver is mid-ride.
func (service *fleetService) UpdateLocation(ctx context.Context, in ports.UpdateLocationInput) (ports.UpdateLocationResult, error) {
	if in.DriverID == "" {
		return ports.UpdateLocationResult{}, apperr.Validation("driver_id is required")
	}

	d, err := service.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return ports.UpdateLocationResult{}, err
	}

	var accuracy, speed, heading float64
	if in.AccuracyMeters != nil {
		accuracy = *in.AccuracyMeters
	}
	if in.SpeedKmh != nil {
		speed = *in.SpeedKmh
	}
	if in.HeadingDegrees != nil {
		heading = *in.HeadingDegrees
	}

	coord, err := service.coords.SaveDriverLocation(ctx, in.DriverID, in.Latitude, in.Longitude, accuracy, speed, heading, "")
	if err != nil {
		return ports.UpdateLocationResult{}, err
	}

	if d.Status != driver.DriverStatusOffline {
		if err := service.geoIndex.AddDriver(ctx, d.VehicleType, in.DriverID, in.Longitude, in.Latitude); err != nil {
			service.logger.Error(ctx, "geo_refresh_failed", "Failed to refresh driver location in geo index", err, map[string]any{"driver_id": in.DriverID})
		}
	}

	evt := contracts.LocationUpdateMessage{
		DriverID:       in.DriverID,
		Location:       contracts.GeoPoint{Lat: in.Latitude, Lng: in.Longitude},
		SpeedKMH:       speed,
		HeadingDegrees: heading,
		Timestamp:      time.Now().UTC(),
	}
	if in.RideID != nil {
		evt.RideID = *in.RideID
	}
	payload, _ := json.Marshal(evt)
	if err := service.bus.Publish(ctx, contracts.TopicLocationUpdates, in.DriverID, payload); err != nil {
		service.logger.Error(ctx, "location_publish_failed", "Failed to publish location update", err, map[string]any{"driver_id": in.DriverID})
	}

	if in.RideID != nil && *in.RideID != "" {
		_ = service.hub.Broadcast(ctx, "ride:"+*in.RideID, "DRIVER_LOCATION", map[string]any{
			"driver_id": in.DriverID, "latitude": in.Latitude, "longitude": in.Longitude, "heading_degrees": heading,
		})
	}

	return ports.UpdateLocationResult{CoordinateID: coord.ID, UpdatedAt: coord.UpdatedAt}, nil
}
