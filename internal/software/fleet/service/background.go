package service

import (
	"context"
	"encoding/json"

	"ride-hail/internal/domain/geo"
	"ride-hail/internal/general/contracts"
)

// StartBackgroundConsumer subscribes to location-updates and archives every
// ping to cold storage (spec §4.1: "the geo index holds only current state;
// history is archived separately for analytics/replay"). Runs until ctx is
// cancelled; consumer errors are logged, and a message whose archive write
// fails is dropped by the bus (nack without requeue), not redelivered.
func (service *fleetService) StartBackgroundConsumer(ctx context.Context) {
	err := service.bus.Consume(ctx, contracts.TopicLocationUpdates, "fleet-history-archiver", 20,
		func(ctx context.Context, key string, payload []byte) error {
			var evt contracts.LocationUpdateMessage
			if err := json.Unmarshal(payload, &evt); err != nil {
				service.logger.Error(ctx, "location_event_decode_failed", "Failed to decode location update event", err, map[string]any{"key": key})
				return nil // malformed message, drop instead of poison-looping
			}

			coord, err := service.coords.GetCurrentForDriver(ctx, evt.DriverID)
			if err != nil {
				service.logger.Error(ctx, "location_archive_lookup_failed", "Failed to look up current coordinate for archiving", err, map[string]any{"driver_id": evt.DriverID})
				return nil // the ping itself already landed via SaveDriverLocation; don't retry forever
			}

			var rideID *string
			if evt.RideID != "" {
				rideID = &evt.RideID
			}
			record, err := geo.NewLocationHistory(coord.ID, evt.DriverID, rideID, evt.Location.Lat, evt.Location.Lng, nil, nil, nil, evt.Timestamp)
			if err != nil {
				service.logger.Error(ctx, "location_history_invalid", "Invalid location history record", err, map[string]any{"driver_id": evt.DriverID})
				return nil
			}
			if err := service.history.Archive(ctx, record); err != nil {
				service.logger.Error(ctx, "location_archive_failed", "Failed to archive location history", err, map[string]any{"driver_id": evt.DriverID})
				return err
			}
			return nil
		},
	)
	if err != nil {
		service.logger.Error(ctx, "location_consumer_stopped", "Location history consumer stopped", err, nil)
	}
}
