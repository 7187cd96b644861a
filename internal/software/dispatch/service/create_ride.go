package service

import (
	"context"
	"encoding/json"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/driver"
	"ride-hail/internal/domain/offer"
	"ride-hail/internal/domain/ride"
	"ride-hail/internal/general/contracts"
	"ride-hail/internal/ports"
)

// CreateRide validates the request, prices the trip, persists the ride in
// REQUESTED state, moves it to MATCHING, then immediately attempts one round
// of matching (spec §4.3 steps 1-4): find nearby available drivers for the
// requested tier, score them, and fan out offers to the best candidates. A
// round that creates no offers moves the ride back to REQUESTED; no later
// matching round is started for it automatically.
func (service *dispatchService) CreateRide(ctx context.Context, in ports.CreateRideInput) (ports.CreateRideResult, error) {
	if in.RiderID == "" || in.TenantID == "" {
		return ports.CreateRideResult{}, apperr.Validation("rider_id and tenant_id are required")
	}
	if !in.VehicleType.Valid() {
		return ports.CreateRideResult{}, apperr.Validation("invalid vehicle type")
	}

	pickup := ride.Point{Lat: in.PickupLatitude, Lng: in.PickupLongitude, Address: in.PickupAddress}
	dropoff := ride.Point{Lat: in.DestinationLatitude, Lng: in.DestinationLongitude, Address: in.DestinationAddress}

	distanceKM := ride.HaversineKM(pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)
	durationMin := ride.EstimateDurationMinutes(distanceKM)
	fare := ride.EstimateFare(in.VehicleType, distanceKM)

	r, err := ride.NewRide(in.TenantID, in.RiderID, in.VehicleType, pickup, dropoff, in.PaymentMethod, fare, distanceKM, durationMin)
	if err != nil {
		return ports.CreateRideResult{}, apperr.Validation(err.Error())
	}

	if err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := service.rides.CreateRide(ctx, r); err != nil {
			return err
		}
		if err := r.SetMatching(); err != nil {
			return apperr.InvalidTransition(err.Error())
		}
		return service.rides.UpdateStatus(ctx, r.ID, r.Status, r.Version, time.Now().UTC())
	}); err != nil {
		service.logger.Error(ctx, "ride_create_failed", "Failed to create ride", err, map[string]any{"rider_id": in.RiderID})
		return ports.CreateRideResult{}, err
	}
	r.Version++ // mirrors the version bump UpdateStatus just made durable

	offered, err := service.runMatchingRound(ctx, r)
	if err != nil {
		service.logger.Error(ctx, "ride_match_round_failed", "Matching round failed after ride creation", err, map[string]any{"ride_id": r.ID})
	}
	if offered == 0 {
		// No candidates this round; revert to REQUESTED instead of leaving
		// the ride stuck "matching" with nothing in flight.
		if err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
			cur, err := service.rides.GetByID(ctx, r.ID)
			if err != nil {
				return err
			}
			if cur.Status != ride.StatusMatching {
				return nil
			}
			if err := cur.RevertToRequested(); err != nil {
				return nil // already moved on, nothing to revert
			}
			return service.rides.UpdateStatus(ctx, r.ID, cur.Status, cur.Version, time.Now().UTC())
		}); err != nil {
			service.logger.Error(ctx, "ride_revert_failed", "Failed to revert ride to REQUESTED", err, map[string]any{"ride_id": r.ID})
		}
	}

	return ports.CreateRideResult{
		RideID:                   r.ID,
		Status:                   r.Status.String(),
		EstimatedFare:            r.EstimatedFare,
		EstimatedDurationMinutes: r.EstimatedDurationMinutes,
		EstimatedDistanceKM:      r.EstimatedDistanceKM,
	}, nil
}

// score implements the spec §4.3 matching formula:
// 0.4·distanceScore + 0.3·ratingScore + 0.3·acceptanceScore.
func score(distanceKM, radiusKM, rating, acceptanceRatePct float64) float64 {
	distanceScore := 1 - (distanceKM / radiusKM)
	if distanceScore < 0 {
		distanceScore = 0
	}
	ratingScore := rating / 5.0
	acceptanceScore := acceptanceRatePct / 100.0
	return 0.4*distanceScore + 0.3*ratingScore + 0.3*acceptanceScore
}

// runMatchingRound queries the geo index for nearby drivers of r.Tier,
// scores them, and fans out offers (ON CONFLICT DO NOTHING) to the top
// offerFanout candidates. Returns the number of offers actually created.
func (service *dispatchService) runMatchingRound(ctx context.Context, r *ride.Ride) (int, error) {
	matches, err := service.geoIndex.Nearby(ctx, r.Tier, r.Pickup.Lng, r.Pickup.Lat, service.matchRadiusKM, service.matchMaxCandidates)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	type candidate struct {
		driverID string
		score    float64
	}
	candidates := make([]candidate, 0, len(matches))
	for _, m := range matches {
		d, err := service.drivers.GetByID(ctx, m.DriverID)
		if err != nil || d.Status != driver.DriverStatusOnline {
			continue
		}
		candidates = append(candidates, candidate{
			driverID: m.DriverID,
			score:    score(m.DistanceKM, service.matchRadiusKM, d.Rating, d.AcceptanceRate),
		})
	}
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	fanout := service.offerFanout
	if fanout > len(candidates) {
		fanout = len(candidates)
	}

	created := 0
	for _, c := range candidates[:fanout] {
		if err := service.offerDriver(ctx, r, c.driverID); err != nil {
			service.logger.Error(ctx, "offer_create_failed", "Failed to create ride offer", err, map[string]any{
				"ride_id": r.ID, "driver_id": c.driverID,
			})
			continue
		}
		created++
	}
	return created, nil
}

func (service *dispatchService) offerDriver(ctx context.Context, r *ride.Ride, driverID string) error {
	var createdOffer bool
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		o, err := offer.New(r.ID, driverID)
		if err != nil {
			return err
		}
		createdOffer, err = service.offers.Create(ctx, o)
		if err != nil {
			return err
		}
		if !createdOffer {
			return nil
		}
		evt, err := ride.NewEvent(r.ID, ride.EventRideOffer, map[string]any{"driver_id": driverID, "expires_at": o.ExpiresAt})
		if err != nil {
			return err
		}
		return service.rideEvents.Append(ctx, evt)
	})
	if err != nil || !createdOffer {
		return err
	}

	payload, _ := json.Marshal(contracts.RideEventMessage{
		RideID:    r.ID,
		EventType: ride.EventRideOffer.String(),
		DriverID:  driverID,
		RiderID:   r.RiderID,
		Timestamp: time.Now().UTC(),
	})
	if err := service.bus.Publish(ctx, contracts.TopicRideEvents, r.ID, payload); err != nil {
		service.logger.Error(ctx, "offer_publish_failed", "Failed to publish ride offer event", err, map[string]any{"ride_id": r.ID})
	}

	_ = service.hub.Notify(ctx, driverID, "RIDE_OFFER", map[string]any{
		"ride_id":        r.ID,
		"pickup_address": r.Pickup.Address,
		"estimated_fare": r.EstimatedFare,
		"tier":           r.Tier.String(),
	})
	return nil
}
