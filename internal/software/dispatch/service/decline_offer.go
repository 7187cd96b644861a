package service

import (
	"context"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/ports"
)

// DeclineOffer records a driver's decline. It does not re-trigger matching,
// and neither does the expiry sweeper (RunBackgroundConsumers), which only
// expires stale pending offers.
func (service *dispatchService) DeclineOffer(ctx context.Context, in ports.DeclineOfferInput) error {
	if in.DriverID == "" || in.OfferID == "" {
		return apperr.Validation("driver_id and offer_id are required")
	}

	pending, err := service.offers.ListPendingForDriver(ctx, in.DriverID)
	if err != nil {
		return err
	}
	found := false
	for _, o := range pending {
		if o.ID == in.OfferID {
			found = true
			break
		}
	}
	if !found {
		return apperr.NotFound("offer", in.OfferID)
	}

	if err := service.offers.Decline(ctx, in.OfferID, in.Reason, time.Now().UTC()); err != nil {
		return err
	}

	service.logger.Info(ctx, "offer_declined", "Driver declined ride offer", map[string]any{
		"driver_id": in.DriverID, "offer_id": in.OfferID, "reason": in.Reason,
	})
	return nil
}
