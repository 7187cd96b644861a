package service

import (
	"context"
	"time"
)

// offerSweepInterval is how often the background sweeper expires stale
// pending offers (spec §4.3: each offer has a 15s TTL).
const offerSweepInterval = 5 * time.Second

// RunBackgroundConsumers starts the offer-expiry sweeper and blocks until ctx
// is cancelled. A driver who never responds to an offer within its TTL must
// not keep a ride stuck waiting on it forever; expiring the offer here is
// what lets a future matching round (triggered by the next CreateRide retry
// or an operator-visible stuck-ride alert) consider other drivers for it.
func (service *dispatchService) RunBackgroundConsumers(ctx context.Context) {
	ticker := time.NewTicker(offerSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := service.offers.ExpirePending(ctx, time.Now().UTC())
			if err != nil {
				service.logger.Error(ctx, "offer_sweep_failed", "Offer expiry sweep failed", err, nil)
				continue
			}
			if expired > 0 {
				service.logger.Info(ctx, "offer_sweep", "Expired stale pending offers", map[string]any{"count": expired})
			}
		}
	}
}
