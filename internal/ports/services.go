package ports

import (
	"context"
	"time"

	"ride-hail/internal/domain/ride"
)

// ----- DTOs for Dispatch Service (C6/C7: ride lifecycle + matching) -----

// CreateRideInput is the validated input required to create a ride.
type CreateRideInput struct {
	TenantID             string
	RiderID              string
	PickupLatitude       float64
	PickupLongitude      float64
	PickupAddress        string
	DestinationLatitude  float64
	DestinationLongitude float64
	DestinationAddress   string
	VehicleType          ride.VehicleType
	PaymentMethod        string
}

// CreateRideResult is returned by DispatchService.CreateRide().
type CreateRideResult struct {
	RideID                   string  `json:"ride_id"`
	Status                   string  `json:"status"`
	EstimatedFare            float64 `json:"estimated_fare"`
	EstimatedDurationMinutes int     `json:"estimated_duration_minutes"`
	EstimatedDistanceKM      float64 `json:"estimated_distance_km"`
}

// CancelRideResult is returned by DispatchService.CancelRide().
type CancelRideResult struct {
	RideID      string `json:"ride_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
	Message     string `json:"message"`
}

// AcceptOfferInput is the validated input for POST /drivers/{driver_id}/offers/{offer_id}/accept.
type AcceptOfferInput struct {
	DriverID string
	OfferID  string
}

// AcceptOfferResult is returned on successful acceptance (spec §4.3).
type AcceptOfferResult struct {
	RideID   string `json:"ride_id"`
	OfferID  string `json:"offer_id"`
	Status   string `json:"status"` // "DRIVER_ASSIGNED"
	DriverID string `json:"driver_id"`
}

// DeclineOfferInput is the validated input for POST /drivers/{driver_id}/offers/{offer_id}/decline.
type DeclineOfferInput struct {
	DriverID string
	OfferID  string
	Reason   string
}

// MarkEnRouteInput/MarkArrivedInput advance a ride through the pre-trip
// phase once a driver has been assigned.
type MarkEnRouteInput struct {
	DriverID string
	RideID   string
}

type MarkArrivedInput struct {
	DriverID string
	RideID   string
}

// ----- Dispatch Service Interface -----

// DispatchService exposes the boundary for ride creation, matching and
// lifecycle transitions up to (not including) trip start.
type DispatchService interface {
	CreateRide(ctx context.Context, in CreateRideInput) (CreateRideResult, error)
	CancelRide(ctx context.Context, rideID, reason string) (CancelRideResult, error)
	AcceptOffer(ctx context.Context, in AcceptOfferInput) (AcceptOfferResult, error)
	DeclineOffer(ctx context.Context, in DeclineOfferInput) error
	MarkEnRoute(ctx context.Context, in MarkEnRouteInput) error
	MarkArrived(ctx context.Context, in MarkArrivedInput) error
	RunBackgroundConsumers(ctx context.Context)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Fleet Service (C5: driver status + location ingest) -----

// GoOnlineInput is the validated input for POST /drivers/{driver_id}/online.
type GoOnlineInput struct {
	DriverID  string
	Latitude  float64
	Longitude float64
}

// GoOnlineResult matches the API response for going online.
type GoOnlineResult struct {
	Status    string `json:"status"` // "online"
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// GoOfflineInput is the validated input for POST /drivers/{driver_id}/offline.
type GoOfflineInput struct {
	DriverID string
}

// SessionSummary summarizes an ended online session.
type SessionSummary struct {
	DurationHours  float64 `json:"duration_hours"`
	RidesCompleted int     `json:"rides_completed"`
	Earnings       float64 `json:"earnings"`
}

// GoOfflineResult matches the API response for going offline.
type GoOfflineResult struct {
	Status         string         `json:"status"` // "offline"
	SessionID      string         `json:"session_id"`
	SessionSummary SessionSummary `json:"session_summary"`
	Message        string         `json:"message"`
}

// UpdateLocationInput is the validated input for POST /drivers/{driver_id}/location.
type UpdateLocationInput struct {
	DriverID       string
	Latitude       float64
	Longitude      float64
	AccuracyMeters *float64
	SpeedKmh       *float64
	HeadingDegrees *float64
	RideID         *string // set when the driver is currently on a ride
}

// UpdateLocationResult matches the API response for a location update.
type UpdateLocationResult struct {
	CoordinateID string    `json:"coordinate_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ----- Fleet Service Interface -----

// FleetService defines the methods for managing driver availability and
// live position (spec §4.1 geo index maintenance, §4.4 location ingest).
type FleetService interface {
	GoOnline(ctx context.Context, in GoOnlineInput) (GoOnlineResult, error)
	GoOffline(ctx context.Context, in GoOfflineInput) (GoOfflineResult, error)
	UpdateLocation(ctx context.Context, in UpdateLocationInput) (UpdateLocationResult, error)
	StartBackgroundConsumer(ctx context.Context)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Trip Service (C8: trip + fare) -----

// StartTripInput is the validated input for POST /drivers/{driver_id}/trips/start.
type StartTripInput struct {
	DriverID       string
	RideID         string
	DriverLocation GeoPoint `json:"driver_location"`
}

// StartTripResult matches the API response for starting a trip.
type StartTripResult struct {
	RideID    string    `json:"ride_id"`
	TripID    string    `json:"trip_id"`
	Status    string    `json:"status"` // "IN_PROGRESS"
	StartedAt time.Time `json:"started_at"`
}

// EndTripInput is the validated input for POST /drivers/{driver_id}/trips/end.
type EndTripInput struct {
	DriverID              string
	RideID                string
	FinalLocation         GeoPoint `json:"final_location"`
	ActualDistanceKM      float64  `json:"actual_distance_km"`
	ActualDurationMinutes int      `json:"actual_duration_minutes"`
}

// EndTripResult matches the API response for completing a trip.
type EndTripResult struct {
	RideID         string    `json:"ride_id"`
	TripID         string    `json:"trip_id"`
	Status         string    `json:"status"` // "COMPLETED"
	CompletedAt    time.Time `json:"completed_at"`
	TotalFare      float64   `json:"total_fare"`
	DriverEarnings float64   `json:"driver_earnings"`
}

// ----- Trip Service Interface -----

// TripService exposes trip start/end and fare computation.
type TripService interface {
	StartTrip(ctx context.Context, in StartTripInput) (StartTripResult, error)
	EndTrip(ctx context.Context, in EndTripInput) (EndTripResult, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Payment Service (C9: idempotent payment pipeline) -----

// ChargeInput is the validated input for POST /payments/charge, keyed by an
// idempotency key supplied by the caller (spec §4.6).
type ChargeInput struct {
	TripID         string
	Method         string
	IdempotencyKey string
}

// ChargeResult is returned by PaymentService.Charge().
type ChargeResult struct {
	PaymentID string  `json:"payment_id"`
	TripID    string  `json:"trip_id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	PSPRef    string  `json:"psp_ref,omitempty"`
}

// RefundResult is returned by PaymentService.Refund().
type RefundResult struct {
	PaymentID  string `json:"payment_id"`
	Status     string `json:"status"`
	RefundedAt string `json:"refunded_at"`
}

// RetryPaymentInput retries a previously failed payment under a new
// idempotency key (spec §6.4: failures are never auto-retried).
type RetryPaymentInput struct {
	PaymentID      string
	IdempotencyKey string
}

// ----- Payment Service Interface -----

// PaymentService exposes the idempotent charge/refund boundary.
type PaymentService interface {
	Charge(ctx context.Context, in ChargeInput) (ChargeResult, error)
	Retry(ctx context.Context, in RetryPaymentInput) (ChargeResult, error)
	Refund(ctx context.Context, paymentID string) (RefundResult, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Admin Dashboard -----

// OverviewMetrics groups all numeric KPIs for the overview.
type OverviewMetrics struct {
	ActiveRides                int     `json:"active_rides"`
	AvailableDrivers           int     `json:"available_drivers"`
	BusyDrivers                int     `json:"busy_drivers"`
	TotalRidesToday            int     `json:"total_rides_today"`
	TotalRevenueToday          float64 `json:"total_revenue_today"`
	AverageWaitTimeMinutes     float64 `json:"average_wait_time_minutes"`
	AverageRideDurationMinutes float64 `json:"average_ride_duration_minutes"`
	CancellationRate           float64 `json:"cancellation_rate"`
}

// DriverDistribution shows driver counts by vehicle type.
type DriverDistribution struct {
	Economy int `json:"ECONOMY"`
	Premium int `json:"PREMIUM"`
	XL      int `json:"XL"`
}

// Hotspot is a single hotspot entry for the admin overview.
type Hotspot struct {
	Location       string `json:"location"`
	ActiveRides    int    `json:"active_rides"`
	WaitingDrivers int    `json:"waiting_drivers"`
}

// SystemOverviewResult is the top-level response DTO for GET /admin/overview.
type SystemOverviewResult struct {
	Timestamp          time.Time          `json:"timestamp"`
	Metrics            OverviewMetrics    `json:"metrics"`
	DriverDistribution DriverDistribution `json:"driver_distribution"`
	Hotspots           []Hotspot          `json:"hotspots"`
}

// GeoPoint represents a simple latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ActiveRideRow represents a single active ride row in the admin overview.
type ActiveRideRow struct {
	RideID                string    `json:"ride_id"`
	Status                string    `json:"status"`
	RiderID               string    `json:"rider_id"`
	DriverID              string    `json:"driver_id"`
	PickupAddress         string    `json:"pickup_address"`
	DestinationAddress    string    `json:"destination_address"`
	StartedAt             time.Time `json:"started_at"`
	EstimatedCompletion   time.Time `json:"estimated_completion"`
	CurrentDriverLocation GeoPoint  `json:"current_driver_location"`
	DistanceCompletedKM   float64   `json:"distance_completed_km"`
	DistanceRemainingKM   float64   `json:"distance_remaining_km"`
}

// ActiveRidesResult is the top-level response DTO for GET /admin/rides/active.
type ActiveRidesResult struct {
	Rides      []ActiveRideRow `json:"rides"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}

// ----- Admin Service Interface -----

// AdminService exposes monitoring and analytics operations for administrators.
type AdminService interface {
	GetSystemOverview(ctx context.Context) (SystemOverviewResult, error)
	GetActiveRides(ctx context.Context, page, pageSize string) (ActiveRidesResult, error)
}
