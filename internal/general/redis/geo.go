package redis

import (
	"context"
	"fmt"

	"ride-hail/internal/domain/ride"
	"ride-hail/internal/ports"

	"github.com/redis/go-redis/v9"
)

// GeoIndexAdapter implements ports.GeoIndex over Redis GEOADD/GEOSEARCH/ZREM,
// keyed per vehicle class (spec §4.2: drivers are indexed separately per
// tier so matching never has to filter post-query).
type GeoIndexAdapter struct {
	client *redis.Client
}

// NewGeoIndex constructs a GeoIndexAdapter.
func NewGeoIndex(client *redis.Client) ports.GeoIndex {
	return &GeoIndexAdapter{client: client}
}

func geoKey(vehicleClass ride.VehicleType) string {
	return fmt.Sprintf("geo:%s", vehicleClass.String())
}

// AddDriver upserts a driver's position in its vehicle class's geo set.
func (g *GeoIndexAdapter) AddDriver(ctx context.Context, vehicleClass ride.VehicleType, driverID string, lng, lat float64) error {
	err := g.client.GeoAdd(ctx, geoKey(vehicleClass), &redis.GeoLocation{
		Name:      driverID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis geo add: %w", err)
	}
	return nil
}

// RemoveDriver drops a driver from its vehicle class's geo set (driver goes
// offline, or is mid-trip and shouldn't receive further offers).
func (g *GeoIndexAdapter) RemoveDriver(ctx context.Context, vehicleClass ride.VehicleType, driverID string) error {
	if err := g.client.ZRem(ctx, geoKey(vehicleClass), driverID).Err(); err != nil {
		return fmt.Errorf("redis geo remove: %w", err)
	}
	return nil
}

// Nearby returns drivers of a vehicle class within radiusKm, closest first.
func (g *GeoIndexAdapter) Nearby(ctx context.Context, vehicleClass ride.VehicleType, lng, lat, radiusKm float64, maxCount int) ([]ports.GeoMatch, error) {
	results, err := g.client.GeoSearchLocation(ctx, geoKey(vehicleClass), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      maxCount,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis geo search: %w", err)
	}

	matches := make([]ports.GeoMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, ports.GeoMatch{DriverID: r.Name, DistanceKM: r.Dist})
	}
	return matches, nil
}
