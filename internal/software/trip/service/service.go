// Package service implements ports.TripService (C8): starting a trip once a
// driver arrives, and computing/persisting the final fare on completion.
// Grounded on internal/software/ride/service's unit-of-work wrapped
// transition pattern, rewired onto domain/trip's §4.5 fare table instead of
// the teacher's inline ComputeFinalFare.
package service

import (
	"ride-hail/internal/general/logger"
	"ride-hail/internal/general/websocket"
	"ride-hail/internal/ports"
)

type tripService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	rides    ports.RideRepository
	trips    ports.TripRepository
	drivers  ports.DriverRepository
	coords   ports.CoordinatesRepository
	geoIndex ports.GeoIndex
	bus      ports.EventBus
	hub      *websocket.Hub
}

// NewTripService wires trip start/completion and fare computation.
func NewTripService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rides ports.RideRepository,
	trips ports.TripRepository,
	drivers ports.DriverRepository,
	coords ports.CoordinatesRepository,
	geoIndex ports.GeoIndex,
	bus ports.EventBus,
	hub *websocket.Hub,
) ports.TripService {
	return &tripService{
		logger: logger, uow: uow, rides: rides, trips: trips,
		drivers: drivers, coords: coords, geoIndex: geoIndex, bus: bus, hub: hub,
	}
}
