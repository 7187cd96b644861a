package ride

import (
	"errors"
	"strings"
)

// Status is a ride status as stored in the `rides` table.
type Status string

const (
	StatusRequested       Status = "REQUESTED"
	StatusMatching        Status = "MATCHING"
	StatusDriverAssigned  Status = "DRIVER_ASSIGNED"
	StatusDriverEnRoute   Status = "DRIVER_EN_ROUTE"
	StatusDriverArrived   Status = "DRIVER_ARRIVED"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

var ErrInvalidStatus = errors.New("invalid ride status")

// ParseStatus normalizes (uppercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed ride status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusRequested, StatusMatching, StatusDriverAssigned, StatusDriverEnRoute,
		StatusDriverArrived, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo reports whether status -> next is a permitted edge in the
// lifecycle table. Cancel is allowed from any non-terminal state except
// IN_PROGRESS, which must run to COMPLETED.
func (status Status) CanTransitionTo(next Status) bool {
	if next == StatusCancelled {
		return !status.Terminal() && status != StatusInProgress
	}

	switch status {
	case StatusRequested:
		return next == StatusMatching

	case StatusMatching:
		// re-enter (findDrivers retried) or reverting to REQUESTED when all
		// offers decline/expire, or assignment on accept.
		return next == StatusMatching || next == StatusRequested || next == StatusDriverAssigned

	case StatusDriverAssigned:
		return next == StatusDriverEnRoute

	case StatusDriverEnRoute:
		return next == StatusDriverArrived

	case StatusDriverArrived:
		return next == StatusInProgress

	case StatusInProgress:
		return next == StatusCompleted

	case StatusCompleted, StatusCancelled:
		return false

	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal/completed state.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled
}

// HasDriver reports whether a ride in this status is required to carry a
// non-null driver (§3 invariant: driver is non-null iff status is in
// {DRIVER_ASSIGNED..COMPLETED}).
func (status Status) HasDriver() bool {
	switch status {
	case StatusDriverAssigned, StatusDriverEnRoute, StatusDriverArrived, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}
