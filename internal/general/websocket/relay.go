package websocket

import (
	"context"
	"encoding/json"

	"ride-hail/internal/general/contracts"
)

// eventBus is the minimal slice of ports.EventBus a relay needs. Declared
// locally (rather than importing ports) so the realtime fabric stays a leaf
// package: any adapter satisfying ports.EventBus already satisfies this.
type eventBus interface {
	Consume(ctx context.Context, topic, consumerGroup string, prefetch int, handler func(ctx context.Context, key string, payload []byte) error) error
}

// RelayNotifications subscribes to the notifications topic and forwards
// each NotificationEvent to its addressee's own socket (spec §4.7's
// event->socket table). Every process that owns a Hub runs its own relay
// with its own consumer group, so a notification addressed to a user
// connected to THIS process's hub is delivered here; Notify is a silent
// no-op for users connected elsewhere. This is how a payments_service
// process (which never accepts a websocket upgrade itself) still gets a
// PAYMENT_COMPLETED receipt in front of a rider's socket, which lives in
// the dispatch_service process.
func (h *Hub) RelayNotifications(ctx context.Context, bus eventBus, consumerGroup string) {
	err := bus.Consume(ctx, contracts.TopicNotifications, consumerGroup, 20, func(ctx context.Context, key string, payload []byte) error {
		var evt contracts.NotificationEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			h.logger.Error(ctx, "notification_decode_failed", "Failed to decode notification event", err, map[string]any{"key": key})
			return nil
		}
		_ = h.Notify(ctx, evt.UserID, evt.Kind, map[string]any{
			"title": evt.Title, "body": evt.Body, "data": evt.Data,
		})
		return nil
	})
	if err != nil {
		h.logger.Error(ctx, "notification_relay_stopped", "Notification relay consumer stopped", err, nil)
	}
}

// RelayRideEvents subscribes to the ride-events topic and pushes each event
// straight to its rider's and driver's own sockets ("user:<id>" per spec
// §4.7), not the "ride:<id>" room: room membership is tracked per-Hub-
// instance (JoinRoom is called by whichever process owns the mutation), so
// a Hub in a different process has never heard of that room even when the
// other party's socket is live right here. Notify-by-user-id has no such
// blind spot. This is what lets a driver connected to fleet_service's hub
// still see DRIVER_ASSIGNED/TRIP_STARTED events that dispatch_service
// publishes, and a rider connected to dispatch_service's hub still see
// PAYMENT_RECEIVED-adjacent events originating in payments_service.
func (h *Hub) RelayRideEvents(ctx context.Context, bus eventBus, consumerGroup string) {
	err := bus.Consume(ctx, contracts.TopicRideEvents, consumerGroup, 20, func(ctx context.Context, key string, payload []byte) error {
		var evt contracts.RideEventMessage
		if err := json.Unmarshal(payload, &evt); err != nil {
			h.logger.Error(ctx, "ride_event_decode_failed", "Failed to decode ride event", err, map[string]any{"key": key})
			return nil
		}
		data := map[string]any{"ride_id": evt.RideID, "event_type": evt.EventType, "data": evt.Data}
		if evt.DriverID != "" {
			_ = h.Notify(ctx, evt.DriverID, evt.EventType, data)
		}
		if evt.RiderID != "" {
			_ = h.Notify(ctx, evt.RiderID, evt.EventType, data)
		}
		return nil
	})
	if err != nil {
		h.logger.Error(ctx, "ride_event_relay_stopped", "Ride event relay consumer stopped", err, nil)
	}
}
