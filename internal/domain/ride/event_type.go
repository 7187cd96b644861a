package ride

import (
	"errors"
	"strings"
)

// EventType is a ride event type, stored as text in `ride_events.event_type`.
type EventType string

const (
	EventRideCreated        EventType = "RIDE_CREATED"
	EventStatusChanged      EventType = "RIDE_STATUS_CHANGED"
	EventRideOffer          EventType = "RIDE_OFFER"
	EventDriverAssigned     EventType = "DRIVER_ASSIGNED"
	EventRideDriverEnRoute  EventType = "RIDE_DRIVER_EN_ROUTE"
	EventRideDriverArrived  EventType = "RIDE_DRIVER_ARRIVED"
	EventDriverLocation     EventType = "DRIVER_LOCATION"
	EventTripStarted        EventType = "TRIP_STARTED"
	EventTripCompleted      EventType = "TRIP_COMPLETED"
	EventRideCancelled      EventType = "RIDE_CANCELLED"
	EventPaymentCompleted   EventType = "PAYMENT_COMPLETED"
	EventPaymentReceived    EventType = "PAYMENT_RECEIVED"
	EventLocationUpdate     EventType = "LOCATION_UPDATE"
)

var ErrInvalidEventType = errors.New("invalid ride event type")

// ParseEventType normalizes (uppercases+trims) and validates an event type string.
func ParseEventType(input string) (EventType, error) {
	eventType := EventType(strings.ToUpper(strings.TrimSpace(input)))
	if eventType.Valid() {
		return eventType, nil
	}
	return "", ErrInvalidEventType
}

// Valid reports whether eventType is one of the allowed event type constants.
func (eventType EventType) Valid() bool {
	switch eventType {
	case EventRideCreated,
		EventStatusChanged,
		EventRideOffer,
		EventDriverAssigned,
		EventRideDriverEnRoute,
		EventRideDriverArrived,
		EventDriverLocation,
		EventTripStarted,
		EventTripCompleted,
		EventRideCancelled,
		EventPaymentCompleted,
		EventPaymentReceived,
		EventLocationUpdate:
		return true
	default:
		return false
	}
}

// String returns the string representation of the EventType.
func (eventType EventType) String() string {
	return string(eventType)
}
