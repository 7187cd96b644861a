// Package trip models Trip (C8): the 1:1 companion to a Ride once it
// reaches IN_PROGRESS, carrying the authoritative fare computation. The
// teacher's fare math lived inline in domain/ride.ComputeFinalFare with a
// different (non-spec) rate table; this package replaces it with the
// per-tier table from §4.5 and the full breakdown the Payment pipeline
// needs (base/distance/time/surge/taxes/total).
package trip

import (
	"errors"
	"math"
	"time"

	"ride-hail/internal/domain/ride"
)

// Status is a trip status as stored in the `trips` table.
type Status string

const (
	StatusStarted    Status = "STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusDisputed   Status = "DISPUTED"
)

func (status Status) String() string { return string(status) }

// FareBreakdown mirrors §4.5's fare computation output, currency INR.
type FareBreakdown struct {
	Base     float64
	Distance float64
	Time     float64
	Surge    float64
	Taxes    float64
	Total    float64
	Currency string
}

// Trip is the domain entity corresponding to the `trips` table.
type Trip struct {
	ID                 string
	RideID             string
	Status             Status
	StartedAt          time.Time
	EndedAt            *time.Time
	ActualDistanceKM   *float64
	ActualDurationMins *int
	RoutePolyline      *string
	Fare               *FareBreakdown
}

var ErrRideIDRequired = errors.New("ride id is required")

// Start creates a Trip in IN_PROGRESS state (spec §4.5: "a Trip exists iff
// the ride ever reached IN_PROGRESS"; status STARTED is transient and
// immediately advanced, mirrored here as IN_PROGRESS directly).
func Start(rideID string) (*Trip, error) {
	if rideID == "" {
		return nil, ErrRideIDRequired
	}
	return &Trip{
		RideID:    rideID,
		Status:    StatusInProgress,
		StartedAt: time.Now().UTC(),
	}, nil
}

// ErrNotInProgress guards End.
var ErrNotInProgress = errors.New("trip is not in progress")

// End computes the fare breakdown and transitions the trip to COMPLETED.
// actualDistanceKM/actualDurationMins apply the spec's fallback rules when
// zero/negative is passed by the caller: distance falls back to the ride's
// estimate (else 5 km); duration falls back to now-startedAt ceiled to
// minutes.
func (t *Trip) End(tier ride.VehicleType, surgeMultiplier float64, estimatedDistanceKM float64, actualDistanceKM, actualDurationMins float64) (*FareBreakdown, error) {
	if t.Status != StatusInProgress {
		return nil, ErrNotInProgress
	}

	now := time.Now().UTC()

	distanceKM := actualDistanceKM
	if distanceKM <= 0 {
		distanceKM = estimatedDistanceKM
		if distanceKM <= 0 {
			distanceKM = 5
		}
	}

	durationMins := actualDurationMins
	if durationMins <= 0 {
		durationMins = math.Ceil(now.Sub(t.StartedAt).Minutes())
		if durationMins <= 0 {
			durationMins = 1
		}
	}

	fare := ComputeFare(tier, surgeMultiplier, distanceKM, durationMins)

	t.ActualDistanceKM = &distanceKM
	mins := int(durationMins)
	t.ActualDurationMins = &mins
	t.Fare = &fare
	t.EndedAt = &now
	t.Status = StatusCompleted

	return &fare, nil
}

// ComputeFare implements the §4.5 formula exactly:
//
//	distanceFare = round(distance·per_km, 2)
//	timeFare     = round(duration·per_min, 2)
//	subtotal     = base + distanceFare + timeFare
//	surgeFare    = (surge > 1) ? round(subtotal·(surge−1), 2) : 0
//	taxes        = round((subtotal + surgeFare)·0.05, 2)
//	total        = round(subtotal + surgeFare + taxes, 2)
func ComputeFare(tier ride.VehicleType, surgeMultiplier, distanceKM, durationMins float64) FareBreakdown {
	base, perKM, perMin := ride.TierRates(tier)

	distanceFare := round2(distanceKM * perKM)
	timeFare := round2(durationMins * perMin)
	subtotal := base + distanceFare + timeFare

	var surgeFare float64
	if surgeMultiplier > 1 {
		surgeFare = round2(subtotal * (surgeMultiplier - 1))
	}

	taxes := round2((subtotal + surgeFare) * 0.05)
	total := round2(subtotal + surgeFare + taxes)

	return FareBreakdown{
		Base:     base,
		Distance: distanceFare,
		Time:     timeFare,
		Surge:    surgeFare,
		Taxes:    taxes,
		Total:    total,
		Currency: "INR",
	}
}

// DriverEarnings returns the driver's cut of a completed fare (0.8·total
// per §4.5/§4.6).
func DriverEarnings(total float64) float64 {
	return round2(total * 0.8)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
