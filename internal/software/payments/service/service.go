// Package service implements ports.PaymentService (C9): the idempotent
// payment pipeline from spec §4.6. The teacher has no payment concept;
// grounded on internal/software/ride/service's unit-of-work pattern for the
// transactional upsert, and on internal/general/rabbitmq/redis-backed
// adapters already wired for the dispatch/fleet services for the cache +
// lock + bus half of the triple-redundant idempotency guard.
package service

import (
	"ride-hail/internal/general/logger"
	"ride-hail/internal/ports"
)

type paymentService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	payments ports.PaymentRepository
	trips    ports.TripRepository
	rides    ports.RideRepository
	cache    ports.Cache
	lock     ports.DistributedLock
	bus      ports.EventBus
}

// NewPaymentService wires the charge/refund pipeline. rides is consulted
// only for the rider_id/driver_id pair (spec §4.6 step 3b: "Load Trip with
// rider/driver/ride join") that PAYMENT_COMPLETED/PAYMENT_RECEIVED are
// addressed to.
func NewPaymentService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	payments ports.PaymentRepository,
	trips ports.TripRepository,
	rides ports.RideRepository,
	cache ports.Cache,
	lock ports.DistributedLock,
	bus ports.EventBus,
) ports.PaymentService {
	return &paymentService{logger: logger, uow: uow, payments: payments, trips: trips, rides: rides, cache: cache, lock: lock, bus: bus}
}
