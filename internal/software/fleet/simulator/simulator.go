// Package simulator implements C11, the driver motion simulator: once a
// driver is assigned it walks their reported position from their current
// location to pickup (phase TO_PICKUP), and once the trip starts, from
// pickup to dropoff (phase TO_DROPOFF), feeding every step through
// FleetService.UpdateLocation exactly as a real driver app would. Grounded
// on the teacher's background-consumer pattern (subscribe to a topic, run
// until ctx is cancelled) generalized with a per-ride goroutine registry so
// concurrent rides simulate independently.
package simulator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ride-hail/internal/domain/ride"
	"ride-hail/internal/general/contracts"
	"ride-hail/internal/general/logger"
	"ride-hail/internal/ports"
)

const (
	consumerGroup = "fleet-motion-simulator"
	stepInterval  = 2 * time.Second
	minSteps      = 5
	maxSteps      = 30
)

// Simulator drives simulated driver movement for rides that opt into it
// (spec §4.8: used for demos/load tests, never the production ingest path).
type Simulator struct {
	logger  *logger.Logger
	fleet   ports.FleetService
	rides   ports.RideRepository
	coords  ports.CoordinatesRepository
	bus     ports.EventBus

	mu     sync.Mutex
	active map[string]context.CancelFunc // rideID -> cancel for its in-flight phase
}

// New wires the simulator against the same repositories/adapters the fleet
// service uses, so its pings are indistinguishable from a real driver's.
func New(logger *logger.Logger, fleet ports.FleetService, rides ports.RideRepository, coords ports.CoordinatesRepository, bus ports.EventBus) *Simulator {
	return &Simulator{
		logger: logger, fleet: fleet, rides: rides, coords: coords, bus: bus,
		active: make(map[string]context.CancelFunc),
	}
}

// Run subscribes to ride-events and blocks until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	// Phases outlive the per-message handler context, so they hang off ctx.
	runCtx := ctx
	err := s.bus.Consume(ctx, contracts.TopicRideEvents, consumerGroup, 10, func(ctx context.Context, key string, payload []byte) error {
		var evt contracts.RideEventMessage
		if err := json.Unmarshal(payload, &evt); err != nil {
			s.logger.Error(ctx, "sim_event_decode_failed", "Failed to decode ride event", err, map[string]any{"key": key})
			return nil
		}

		switch evt.EventType {
		case ride.EventDriverAssigned.String():
			s.startPhase(runCtx, evt.RideID, evt.DriverID, phaseToPickup)
		case ride.EventTripStarted.String():
			s.startPhase(runCtx, evt.RideID, evt.DriverID, phaseToDropoff)
		case ride.EventTripCompleted.String(), ride.EventRideCancelled.String():
			s.stop(evt.RideID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "sim_consumer_stopped", "Motion simulator consumer stopped", err, nil)
	}
}

type phase int

const (
	phaseToPickup phase = iota
	phaseToDropoff
)

func (s *Simulator) stop(rideID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.active[rideID]; ok {
		cancel()
		delete(s.active, rideID)
	}
}

// startPhase replaces any in-flight phase for rideID (a ride only ever runs
// one phase at a time) and walks the driver toward the phase's target.
func (s *Simulator) startPhase(parent context.Context, rideID, driverID string, ph phase) {
	s.stop(rideID)

	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.active[rideID] = cancel
	s.mu.Unlock()

	go s.walk(ctx, rideID, driverID, ph)
}

func (s *Simulator) walk(ctx context.Context, rideID, driverID string, ph phase) {
	defer s.stop(rideID)

	r, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		s.logger.Error(ctx, "sim_ride_lookup_failed", "Failed to load ride for simulation", err, map[string]any{"ride_id": rideID})
		return
	}

	var fromLat, fromLng, toLat, toLng float64
	switch ph {
	case phaseToPickup:
		toLat, toLng = r.Pickup.Lat, r.Pickup.Lng
		coord, err := s.coords.GetCurrentForDriver(ctx, driverID)
		if err != nil || coord == nil {
			fromLat, fromLng = toLat, toLng // no known position yet, spawn at pickup
		} else {
			fromLat, fromLng = coord.Latitude, coord.Longitude
		}
	case phaseToDropoff:
		fromLat, fromLng = r.Pickup.Lat, r.Pickup.Lng
		toLat, toLng = r.Dropoff.Lat, r.Dropoff.Lng
	}

	steps := r.EstimatedDurationMinutes
	if ph == phaseToPickup {
		steps = minSteps
	}
	if steps < minSteps {
		steps = minSteps
	}
	if steps > maxSteps {
		steps = maxSteps
	}

	ticker := time.NewTicker(stepInterval)
	defer ticker.Stop()

	for step := 1; step <= steps; step++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frac := float64(step) / float64(steps)
		lat := fromLat + (toLat-fromLat)*frac
		lng := fromLng + (toLng-fromLng)*frac

		if _, err := s.fleet.UpdateLocation(ctx, ports.UpdateLocationInput{
			DriverID: driverID, Latitude: lat, Longitude: lng, RideID: &rideID,
		}); err != nil {
			s.logger.Error(ctx, "sim_update_location_failed", "Simulated location update failed", err, map[string]any{"ride_id": rideID, "driver_id": driverID})
			return
		}
	}
}
