package service

import (
	"context"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/ports"
)

// GoOnline transitions a driver OFFLINE -> ONLINE, opens a driver session,
// and seeds the geo index so the dispatch engine can find them immediately.
func (service *fleetService) GoOnline(ctx context.Context, in ports.GoOnlineInput) (ports.GoOnlineResult, error) {
	if in.DriverID == "" {
		return ports.GoOnlineResult{}, apperr.Validation("driver_id is required")
	}

	d, err := service.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return ports.GoOnlineResult{}, err
	}
	if err := d.GoOnline(); err != nil {
		return ports.GoOnlineResult{}, apperr.InvalidTransition(err.Error())
	}

	var sessionID string
	if err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := service.drivers.UpdateStatus(ctx, in.DriverID, d.Status); err != nil {
			return err
		}
		if _, err := service.coords.SaveDriverLocation(ctx, in.DriverID, in.Latitude, in.Longitude, 0, 0, 0, ""); err != nil {
			return err
		}
		var err error
		sessionID, err = service.sessions.Start(ctx, in.DriverID)
		return err
	}); err != nil {
		return ports.GoOnlineResult{}, err
	}

	if err := service.geoIndex.AddDriver(ctx, d.VehicleType, in.DriverID, in.Longitude, in.Latitude); err != nil {
		service.logger.Error(ctx, "geo_add_failed", "Failed to add driver to geo index", err, map[string]any{"driver_id": in.DriverID})
	}

	service.logger.Info(ctx, "driver_online", "Driver went online", map[string]any{"driver_id": in.DriverID, "session_id": sessionID})

	return ports.GoOnlineResult{Status: "online", SessionID: sessionID, Message: "you are now online"}, nil
}
