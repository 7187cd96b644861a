package driver

import (
	"errors"
	"maps"
	"ride-hail/internal/domain/ride"
	"strings"
	"time"
)

// Attrs is a JSON-friendly bag for vehicle attributes (plate, make, model, color, year, etc.).
type Attrs map[string]any

// Driver is the domain entity corresponding to the `drivers` table.
type Driver struct {
	// Identity & audit
	ID        string
	TenantID  string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Required business fields
	Phone         string
	Name          string
	LicenseNumber string
	VehicleType   ride.VehicleType

	// Vehicle details (JSON)
	VehicleAttrs Attrs

	// KPIs
	Rating         float64
	TotalRides     int
	TotalEarnings  float64
	AcceptanceRate float64 // percent, 0..100

	// Operational state
	Status     DriverStatus
	IsVerified bool
}

var (
	ErrUserIDRequired      = errors.New("user id is required")
	ErrTenantIDRequired    = errors.New("tenant id is required")
	ErrPhoneRequired       = errors.New("phone is required")
	ErrLicenseRequired     = errors.New("license number is required")
	ErrInvalidStatusSwitch = errors.New("invalid driver status transition")
	ErrInvalidRating       = errors.New("rating must be between 1.0 and 5.0")
	ErrNegativeTotals      = errors.New("totals cannot be negative")
)

// NewDriver creates a new Driver entity with sane defaults.
func NewDriver(userID, tenantID, phone, licenseNumber string, vehicleType ride.VehicleType, attrs Attrs) (*Driver, error) {
	if userID = strings.TrimSpace(userID); userID == "" {
		return nil, ErrUserIDRequired
	}
	if tenantID = strings.TrimSpace(tenantID); tenantID == "" {
		return nil, ErrTenantIDRequired
	}
	if phone = strings.TrimSpace(phone); phone == "" {
		return nil, ErrPhoneRequired
	}
	if licenseNumber = strings.TrimSpace(licenseNumber); licenseNumber == "" {
		return nil, ErrLicenseRequired
	}
	if !vehicleType.Valid() {
		return nil, ride.ErrInvalidVehicleType
	}

	now := time.Now().UTC()
	return &Driver{
		ID:             userID,
		TenantID:       tenantID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Phone:          phone,
		LicenseNumber:  licenseNumber,
		VehicleType:    vehicleType,
		VehicleAttrs:   cloneAttrs(attrs),
		Rating:         5.0,
		TotalRides:     0,
		TotalEarnings:  0,
		AcceptanceRate: 100,
		Status:         DriverStatusOffline,
		IsVerified:     false,
	}, nil
}

// ApplyEarnings increments counters after a ride settlement.
func (driver *Driver) ApplyEarnings(ridesDelta int, earningsDelta float64) error {
	if ridesDelta < 0 || earningsDelta < 0 {
		return ErrNegativeTotals
	}
	driver.TotalRides += ridesDelta
	driver.TotalEarnings += earningsDelta
	driver.touch()
	return nil
}

// ---- State transitions (§3 invariant: busy <=> exactly one active ride) ----

// GoOnline transitions OFFLINE -> ONLINE.
func (driver *Driver) GoOnline() error {
	if driver.Status != DriverStatusOffline && driver.Status != DriverStatusOnline {
		return ErrInvalidStatusSwitch
	}
	driver.setStatus(DriverStatusOnline)
	return nil
}

// MarkBusy transitions ONLINE -> BUSY (on ride acceptance).
func (driver *Driver) MarkBusy() error {
	if driver.Status != DriverStatusOnline {
		return ErrInvalidStatusSwitch
	}
	driver.setStatus(DriverStatusBusy)
	return nil
}

// Release transitions BUSY -> ONLINE (on ride completion/cancellation).
func (driver *Driver) Release() error {
	if driver.Status != DriverStatusBusy {
		return ErrInvalidStatusSwitch
	}
	driver.setStatus(DriverStatusOnline)
	return nil
}

// GoOffline transitions ONLINE -> OFFLINE. A busy driver cannot go offline
// directly; the active ride must be released first.
func (driver *Driver) GoOffline() error {
	if driver.Status != DriverStatusOnline {
		return ErrInvalidStatusSwitch
	}
	driver.setStatus(DriverStatusOffline)
	return nil
}

// ---- internal helpers ----

func (driver *Driver) setStatus(status DriverStatus) {
	driver.Status = status
	driver.touch()
}

func (driver *Driver) touch() {
	driver.UpdatedAt = time.Now().UTC()
}

func cloneAttrs(in Attrs) Attrs {
	if in == nil {
		return nil
	}
	out := make(Attrs, len(in))
	maps.Copy(out, in)
	return out
}
