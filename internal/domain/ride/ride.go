package ride

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Point is a lat/lng pair with an optional human address, used for both
// pickup and dropoff.
type Point struct {
	Lat     float64
	Lng     float64
	Address string
}

// Ride is the domain entity corresponding to the `rides` table.
type Ride struct {
	// Identity & audit
	ID        string
	TenantID  string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Actors
	RiderID  string
	DriverID *string // nil until assigned

	// Core state
	Tier            VehicleType
	Status          Status
	Version         int
	PaymentMethod   string
	SurgeMultiplier float64

	// Route
	Pickup  Point
	Dropoff Point

	// Estimates computed at creation time
	EstimatedFare            float64
	EstimatedDistanceKM      float64
	EstimatedDurationMinutes int

	// Lifecycle timestamps
	MatchedAt   *time.Time
	CancelledAt *time.Time

	// Additional info
	CancelReason *string
}

var (
	ErrRiderRequired           = errors.New("rider id is required")
	ErrTenantRequired          = errors.New("tenant id is required")
	ErrInvalidStatusTransition = errors.New("invalid ride status transition")
	ErrAlreadyAssigned         = errors.New("driver already assigned")
	ErrNoDriverAssigned        = errors.New("no driver assigned")
	ErrDriverRequired          = errors.New("driver id is required")
)

// NewRide creates a new ride in REQUESTED state with surge defaulted to 1.0
// (spec §9: surge is a reserved multiplier slot, no computation in scope).
func NewRide(tenantID, riderID string, tier VehicleType, pickup, dropoff Point, paymentMethod string, estimatedFare, estimatedDistanceKM float64, estimatedDurationMinutes int) (*Ride, error) {
	if tenantID = strings.TrimSpace(tenantID); tenantID == "" {
		return nil, ErrTenantRequired
	}
	if riderID = strings.TrimSpace(riderID); riderID == "" {
		return nil, ErrRiderRequired
	}
	if !tier.Valid() {
		return nil, ErrInvalidVehicleType
	}

	now := time.Now().UTC()
	return &Ride{
		TenantID:                 tenantID,
		CreatedAt:                now,
		UpdatedAt:                now,
		RiderID:                  riderID,
		Tier:                     tier,
		Status:                   StatusRequested,
		Version:                  1,
		PaymentMethod:            paymentMethod,
		SurgeMultiplier:          1.0,
		Pickup:                   pickup,
		Dropoff:                  dropoff,
		EstimatedFare:            estimatedFare,
		EstimatedDistanceKM:      estimatedDistanceKM,
		EstimatedDurationMinutes: estimatedDurationMinutes,
	}, nil
}

// SetMatching transitions REQUESTED/MATCHING -> MATCHING (findDrivers).
func (ride *Ride) SetMatching() error {
	if !ride.Status.CanTransitionTo(StatusMatching) {
		return ErrInvalidStatusTransition
	}
	ride.setStatus(StatusMatching)
	return nil
}

// RevertToRequested transitions MATCHING -> REQUESTED when all offers for
// this round decline/expire with zero acceptance.
func (ride *Ride) RevertToRequested() error {
	if ride.Status != StatusMatching {
		return ErrInvalidStatusTransition
	}
	ride.setStatus(StatusRequested)
	return nil
}

// AssignDriver sets the driver and moves MATCHING -> DRIVER_ASSIGNED.
func (ride *Ride) AssignDriver(driverID string) error {
	if driverID == "" {
		return ErrDriverRequired
	}
	if ride.DriverID != nil && *ride.DriverID != "" {
		return ErrAlreadyAssigned
	}
	if !ride.Status.CanTransitionTo(StatusDriverAssigned) {
		return ErrInvalidStatusTransition
	}

	ride.DriverID = &driverID
	now := time.Now().UTC()
	ride.MatchedAt = &now
	ride.setStatus(StatusDriverAssigned)
	return nil
}

// MarkEnRoute transitions DRIVER_ASSIGNED -> DRIVER_EN_ROUTE.
func (ride *Ride) MarkEnRoute() error {
	if ride.DriverID == nil || *ride.DriverID == "" {
		return ErrNoDriverAssigned
	}
	if !ride.Status.CanTransitionTo(StatusDriverEnRoute) {
		return ErrInvalidStatusTransition
	}
	ride.setStatus(StatusDriverEnRoute)
	return nil
}

// MarkArrived transitions DRIVER_EN_ROUTE -> DRIVER_ARRIVED.
func (ride *Ride) MarkArrived() error {
	if ride.DriverID == nil || *ride.DriverID == "" {
		return ErrNoDriverAssigned
	}
	if !ride.Status.CanTransitionTo(StatusDriverArrived) {
		return ErrInvalidStatusTransition
	}
	ride.setStatus(StatusDriverArrived)
	return nil
}

// Start transitions DRIVER_ARRIVED -> IN_PROGRESS.
func (ride *Ride) Start() error {
	if ride.DriverID == nil || *ride.DriverID == "" {
		return ErrNoDriverAssigned
	}
	if !ride.Status.CanTransitionTo(StatusInProgress) {
		return ErrInvalidStatusTransition
	}
	ride.setStatus(StatusInProgress)
	return nil
}

// Complete transitions IN_PROGRESS -> COMPLETED.
func (ride *Ride) Complete() error {
	if !ride.Status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	ride.setStatus(StatusCompleted)
	return nil
}

// Cancel transitions to CANCELLED (if not terminal and not IN_PROGRESS).
func (ride *Ride) Cancel(reason string) error {
	if !ride.Status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now().UTC()
	ride.CancelledAt = &now
	if rs := strings.TrimSpace(reason); rs != "" {
		ride.CancelReason = &rs
	}
	ride.setStatus(StatusCancelled)
	return nil
}

// haversine distance in kilometers
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0 // Earth radius in km
	a1 := lat1 * math.Pi / 180
	a2 := lat2 * math.Pi / 180
	da := (lat2 - lat1) * math.Pi / 180
	db := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(da/2)*math.Sin(da/2) +
		math.Cos(a1)*math.Cos(a2)*math.Sin(db/2)*math.Sin(db/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// duration estimate from distance with a simple average-city-speed heuristic.
func EstimateDurationMinutes(distanceKM float64) int {
	const avgSpeedKMH = 21.0 // ~5.2 km in 15 min (as in the spec example)
	minutes := (distanceKM / avgSpeedKMH) * 60.0

	// ceil to whole minutes
	m := int(math.Ceil(minutes))
	if m < 1 {
		return 1
	}

	return m
}

// EstimateFare returns a quick base+distance estimate at ride-creation time
// (base + round(distanceKM*perKM, 2)), using the same per-tier rate table as
// the authoritative end-trip fare computation in the trip package. The time
// component is deliberately omitted from the estimate (duration is itself
// only an estimate at this point).
func EstimateFare(tier VehicleType, distanceKM float64) float64 {
	base, perKM, _ := TierRates(tier)
	if distanceKM < 0 {
		distanceKM = 0
	}
	return roundCents(base + distanceKM*perKM)
}

// TierRates returns the authoritative (base, per-km, per-minute) fare rates
// for a vehicle tier.
func TierRates(tier VehicleType) (base, perKM, perMinute float64) {
	switch tier {
	case VehiclePremium:
		return 100, 18, 2.5
	case VehicleXL:
		return 150, 22, 3.0
	default: // VehicleEconomy and any unrecognized tier
		return 50, 12, 1.5
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ----- internal helpers -----

func (ride *Ride) setStatus(status Status) {
	ride.Status = status
	ride.touch()
}

func (ride *Ride) touch() {
	ride.UpdatedAt = time.Now().UTC()
}
