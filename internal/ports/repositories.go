package ports

import (
	"context"
	"time"

	"ride-hail/internal/domain/driver"
	"ride-hail/internal/domain/geo"
	"ride-hail/internal/domain/offer"
	"ride-hail/internal/domain/payment"
	"ride-hail/internal/domain/ride"
	"ride-hail/internal/domain/rider"
	"ride-hail/internal/domain/tenant"
	"ride-hail/internal/domain/trip"
	"ride-hail/internal/domain/user"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists login credentials and RBAC identity, independent
// of the tenant-scoped rider/driver business profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// TenantRepository defines the methods for managing tenant data.
type TenantRepository interface {
	Create(ctx context.Context, t *tenant.Tenant) error
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

// RiderRepository defines the methods for managing rider data.
type RiderRepository interface {
	Create(ctx context.Context, r *rider.Rider) error
	GetByID(ctx context.Context, id string) (*rider.Rider, error)
	GetByPhone(ctx context.Context, tenantID, phone string) (*rider.Rider, error)
}

// CoordinatesRepository defines methods for managing coordinates (driver & passenger).
type CoordinatesRepository interface {
	UpsertForDriver(ctx context.Context, driverID string, coord geo.Coordinate, makeCurrent bool) (string, time.Time, error)
	UpsertForPassenger(ctx context.Context, passengerID string, coord geo.Coordinate, makeCurrent bool) (string, time.Time, error)
	GetCurrentForDriver(ctx context.Context, driverID string) (*geo.Coordinate, error)
	GetCurrentForPassenger(ctx context.Context, passengerID string) (*geo.Coordinate, error)
	SaveDriverLocation(ctx context.Context, driverID string, latitude, longitude, accuracyMeters, speedKmh, headingDegrees float64, address string) (*geo.Coordinate, error)
}

// RideRepository defines the methods for managing ride data. Version-guarded
// mutations implement the optimistic-lock half of the race-free acceptance
// algorithm; GetForUpdate implements the pessimistic half.
type RideRepository interface {
	CreateRide(ctx context.Context, r *ride.Ride) error
	GetByID(ctx context.Context, id string) (*ride.Ride, error)
	// GetForUpdate locks the ride row NOWAIT. Lock contention is returned
	// as an apperr.CodeLockFailed error.
	GetForUpdate(ctx context.Context, id string) (*ride.Ride, error)
	GetActiveForDriver(ctx context.Context, driverID string) (*ride.Ride, error)
	GetCurrentForRider(ctx context.Context, riderID string) (*ride.Ride, error)
	GetRidesByDriver(ctx context.Context, driverID string, limit int) ([]*ride.Ride, error)
	GetRidesByRider(ctx context.Context, riderID string, limit int) ([]*ride.Ride, error)
	// UpdateStatus writes status+version atomically, checking expectedVersion
	// (0 skips the check). Returns an apperr.Conflict error on mismatch.
	UpdateStatus(ctx context.Context, id string, status ride.Status, expectedVersion int, ts time.Time) error
	AssignDriver(ctx context.Context, rideID, driverID string, expectedVersion int, matchedAt time.Time) error
	Complete(ctx context.Context, rideID string, completedAt time.Time) error
	Cancel(ctx context.Context, rideID, reason string, cancelledAt time.Time) error
	CountActive(ctx context.Context) (int, error)
	CountCreatedBetween(ctx context.Context, start, end time.Time) (int, error)
	CancellationRateBetween(ctx context.Context, start, end time.Time) (float64, error)
	SumFinalFareCompletedBetween(ctx context.Context, start, end time.Time) (float64, error)
	AvgWaitMinutesBetween(ctx context.Context, start, end time.Time) (float64, error)
	AvgRideDurationMinutesBetween(ctx context.Context, start, end time.Time) (float64, error)
	HydrateActiveRows(ctx context.Context, offset, limit int) ([]ActiveRideRow, error)
}

// RideEventRepository defines the methods for managing ride event data.
type RideEventRepository interface {
	Append(ctx context.Context, e *ride.Event) error
}

// OfferRepository manages RideOffer rows for the dispatch engine (C6).
type OfferRepository interface {
	// Create inserts ON CONFLICT (ride_id, driver_id) WHERE status = 'PENDING'
	// DO NOTHING; created is false when a pending offer already existed for
	// the pair.
	Create(ctx context.Context, o *offer.Offer) (created bool, err error)
	GetPending(ctx context.Context, rideID, driverID string) (*offer.Offer, error)
	ListPendingForRide(ctx context.Context, rideID string) ([]*offer.Offer, error)
	ListPendingForDriver(ctx context.Context, driverID string) ([]*offer.Offer, error)
	Accept(ctx context.Context, id string, respondedAt time.Time) error
	CancelOthersPending(ctx context.Context, rideID, acceptedOfferID string) (int, error)
	Decline(ctx context.Context, id, reason string, respondedAt time.Time) error
	ExpirePending(ctx context.Context, now time.Time) (int, error)
	CountRecentForDriver(ctx context.Context, driverID string, since time.Time) (total, accepted int, err error)
}

// TripRepository manages Trip rows (C8).
type TripRepository interface {
	Create(ctx context.Context, t *trip.Trip) error
	GetByRideID(ctx context.Context, rideID string) (*trip.Trip, error)
	GetByID(ctx context.Context, id string) (*trip.Trip, error)
	Complete(ctx context.Context, t *trip.Trip) error
}

// PaymentRepository manages Payment rows (C9). The unique constraint on
// idempotency_key backs one of the three redundant idempotency guards
// alongside the distributed lock and the cache-level dedupe.
type PaymentRepository interface {
	GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error)
	GetByTripID(ctx context.Context, tripID string) (*payment.Payment, error)
	GetByID(ctx context.Context, id string) (*payment.Payment, error)
	Upsert(ctx context.Context, p *payment.Payment) error
	Save(ctx context.Context, p *payment.Payment) error
}

// DriverRepository defines the methods for managing driver data.
type DriverRepository interface {
	CreateDriver(ctx context.Context, driverObj *driver.Driver) error
	GetByID(ctx context.Context, driverID string) (*driver.Driver, error)
	// GetOnlineForUpdateSkipLocked locks the driver row, skipping rows
	// already locked by a concurrent acceptance (spec §4.3 step 5).
	GetOnlineForUpdateSkipLocked(ctx context.Context, driverID string) (*driver.Driver, error)
	UpdateStatus(ctx context.Context, driverID string, status driver.DriverStatus) error
	FindNearbyAvailable(ctx context.Context, lat, lng float64, vehicle ride.VehicleType, radiusKm float64, limit int) ([]driver.Driver, error)
	IncrementCountersOnComplete(ctx context.Context, driverID string, earnings float64) error
	UpdateAcceptanceRate(ctx context.Context, driverID string, rate float64) error
	CountByStatus(ctx context.Context, status driver.DriverStatus) (int, error)
	CountByVehicleType(ctx context.Context, vehicle ride.VehicleType) (int, error)
	Hotspots(ctx context.Context, limit int) ([]Hotspot, error)
}

// DriverSessionRepository defines the methods for managing driver session data.
type DriverSessionRepository interface {
	Start(ctx context.Context, driverID string) (sessionID string, err error)
	End(ctx context.Context, sessionID string, summary driver.DriverSession) error
	GetActiveForDriver(ctx context.Context, driverID string) (*driver.DriverSession, error)
	IncrementCounters(ctx context.Context, sessionID string, totalRides int, totalEarnings float64) error
}

// LocationHistoryRepository defines the methods for archiving location history data.
type LocationHistoryRepository interface {
	Archive(ctx context.Context, record *geo.LocationHistory) error
	ArchiveBatch(ctx context.Context, records []*geo.LocationHistory) error
}
