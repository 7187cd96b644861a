// Package service implements ports.FleetService (C5): driver online/offline
// transitions, the geo index maintenance that keeps the dispatch engine's
// matching candidates fresh, and live location ingest. Grounded on
// internal/software/dandl/service (teacher's go-online/go-offline/location
// pattern), rewired onto the spec's GeoIndex adapter and the §4.1
// "one row per driver, replace on every ping" index semantics.
package service

import (
	"ride-hail/internal/general/logger"
	"ride-hail/internal/general/websocket"
	"ride-hail/internal/ports"
)

type fleetService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	drivers  ports.DriverRepository
	sessions ports.DriverSessionRepository
	coords   ports.CoordinatesRepository
	history  ports.LocationHistoryRepository
	rides    ports.RideRepository
	geoIndex ports.GeoIndex
	bus      ports.EventBus
	hub      *websocket.Hub
}

// NewFleetService wires driver presence, the geo index, and location ingest.
func NewFleetService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	drivers ports.DriverRepository,
	sessions ports.DriverSessionRepository,
	coords ports.CoordinatesRepository,
	history ports.LocationHistoryRepository,
	rides ports.RideRepository,
	geoIndex ports.GeoIndex,
	bus ports.EventBus,
	hub *websocket.Hub,
) ports.FleetService {
	return &fleetService{
		logger: logger, uow: uow, drivers: drivers, sessions: sessions,
		coords: coords, history: history, rides: rides, geoIndex: geoIndex, bus: bus, hub: hub,
	}
}
