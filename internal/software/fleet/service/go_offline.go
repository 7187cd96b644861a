package service

import (
	"context"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/driver"
	"ride-hail/internal/ports"
)

// GoOffline transitions a driver ONLINE -> OFFLINE, closes their session,
// and drops them from the geo index so they stop receiving offers.
func (service *fleetService) GoOffline(ctx context.Context, in ports.GoOfflineInput) (ports.GoOfflineResult, error) {
	if in.DriverID == "" {
		return ports.GoOfflineResult{}, apperr.Validation("driver_id is required")
	}

	d, err := service.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return ports.GoOfflineResult{}, err
	}
	if err := d.GoOffline(); err != nil {
		return ports.GoOfflineResult{}, apperr.InvalidTransition(err.Error())
	}

	active, err := service.sessions.GetActiveForDriver(ctx, in.DriverID)
	if err != nil {
		return ports.GoOfflineResult{}, err
	}

	summary := ports.SessionSummary{}
	var sessionID string
	if active != nil {
		sessionID = active.ID
		summary.RidesCompleted = active.TotalRides
		summary.Earnings = active.TotalEarnings
		summary.DurationHours = time.Since(active.StartedAt).Hours()
	}

	if err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := service.drivers.UpdateStatus(ctx, in.DriverID, d.Status); err != nil {
			return err
		}
		if sessionID == "" {
			return nil
		}
		return service.sessions.End(ctx, sessionID, driver.DriverSession{
			TotalRides: summary.RidesCompleted, TotalEarnings: summary.Earnings,
		})
	}); err != nil {
		return ports.GoOfflineResult{}, err
	}

	if err := service.geoIndex.RemoveDriver(ctx, d.VehicleType, in.DriverID); err != nil {
		service.logger.Error(ctx, "geo_remove_failed", "Failed to remove driver from geo index", err, map[string]any{"driver_id": in.DriverID})
	}

	service.logger.Info(ctx, "driver_offline", "Driver went offline", map[string]any{"driver_id": in.DriverID, "session_id": sessionID})

	return ports.GoOfflineResult{
		Status: "offline", SessionID: sessionID, SessionSummary: summary, Message: "you are now offline",
	}, nil
}
