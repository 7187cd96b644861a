package ports

import (
	"context"
	"time"

	"ride-hail/internal/domain/ride"
)

// ----- C1: Geo Index Adapter -----

// GeoMatch is one result row from a GeoIndex.Nearby query.
type GeoMatch struct {
	DriverID   string
	DistanceKM float64
}

// GeoIndex is the contract for the per-vehicle-class driver position index
// (spec §4.2). Implementations must be idempotent on Add/Remove and return
// Nearby results sorted ascending by distance.
type GeoIndex interface {
	AddDriver(ctx context.Context, vehicleClass ride.VehicleType, driverID string, lng, lat float64) error
	RemoveDriver(ctx context.Context, vehicleClass ride.VehicleType, driverID string) error
	Nearby(ctx context.Context, vehicleClass ride.VehicleType, lng, lat, radiusKm float64, maxCount int) ([]GeoMatch, error)
}

// ----- C2: Cache/KV Adapter -----

// Cache is the contract for the typed get/set/del-with-TTL KV adapter
// (spec §4.2/§5). Get returns (nil, false, nil) on a clean miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// SetNX is the atomic primitive backing the distributed lock (C4).
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// ----- C3: Event Bus Adapter -----

// BusMessage is a generic keyed record published to a named topic.
type BusMessage struct {
	Key     string
	Payload []byte
}

// EventBus is the contract over the durable, partitioned, at-least-once
// message bus (spec §5, §6.3: location-updates, ride-events,
// notifications topics, all keyed).
type EventBus interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Consume(ctx context.Context, topic, consumerGroup string, prefetch int, handler func(ctx context.Context, key string, payload []byte) error) error
}

// ----- C4: Distributed Lock -----

// Lock is a held distributed lock with a fence token bound to its
// acquisition (spec §5: "release/extend operations check it to avoid
// operating on a reacquired lock").
type Lock struct {
	Key         string
	FenceToken  string
	ExpiresAt   time.Time
}

// DistributedLock is the contract for the fence-token lock built on C2
// (spec §4.3 step 1, §4.6 step 2, §5).
type DistributedLock interface {
	// Acquire blocks with bounded retries (see implementation backoff) and
	// returns ErrLockUnavailable if the lease cannot be obtained.
	Acquire(ctx context.Context, key string, lease time.Duration) (*Lock, error)
	// Extend refreshes the lease only if the fence token still matches.
	Extend(ctx context.Context, lock *Lock, lease time.Duration) error
	// Release deletes the key only if the fence token still matches.
	Release(ctx context.Context, lock *Lock) error
}
