// Package service implements ports.DispatchService: ride creation, the
// scoring-based matcher/offer fan-out, and the race-free acceptance
// algorithm (spec §4.3). Grounded on the teacher's internal/software/ride
// service package (per-operation files, rideService struct shape, the
// unit-of-work-wrapped transition pattern) but rebuilt against the
// rewritten domain (offer fan-out, version-guarded repos) the teacher's
// matcher.go/cancel.go/create.go never matched.
package service

import (
	"ride-hail/internal/general/logger"
	"ride-hail/internal/general/websocket"
	"ride-hail/internal/ports"
)

// dispatchService is the concrete ports.DispatchService.
type dispatchService struct {
	logger        *logger.Logger
	uow           ports.UnitOfWork
	rides         ports.RideRepository
	rideEvents    ports.RideEventRepository
	offers        ports.OfferRepository
	drivers       ports.DriverRepository
	coords        ports.CoordinatesRepository
	geoIndex      ports.GeoIndex
	lock          ports.DistributedLock
	bus           ports.EventBus
	hub           *websocket.Hub

	// matchRadiusKM/matchMaxCandidates/offerFanout bound each matching
	// round (spec §4.3: "dispatch offers to the best N candidates").
	matchRadiusKM      float64
	matchMaxCandidates int
	offerFanout        int
}

// NewDispatchService wires the dispatch engine and ride lifecycle.
func NewDispatchService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rides ports.RideRepository,
	rideEvents ports.RideEventRepository,
	offers ports.OfferRepository,
	drivers ports.DriverRepository,
	coords ports.CoordinatesRepository,
	geoIndex ports.GeoIndex,
	lock ports.DistributedLock,
	bus ports.EventBus,
	hub *websocket.Hub,
) ports.DispatchService {
	return &dispatchService{
		logger:             logger,
		uow:                uow,
		rides:              rides,
		rideEvents:         rideEvents,
		offers:             offers,
		drivers:            drivers,
		coords:             coords,
		geoIndex:           geoIndex,
		lock:               lock,
		bus:                bus,
		hub:                hub,
		matchRadiusKM:      5.0,
		matchMaxCandidates: 10,
		offerFanout:        3,
	}
}
