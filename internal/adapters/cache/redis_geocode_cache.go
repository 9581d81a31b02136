package cache

import (
	"context"
	"errors"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/obs"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const geocodeKeyPrefix = "geocode:"

type redisGeoEntry struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Source string  `json:"source"`
}

// RedisGeocodeCache shares geocoding results across service instances.
// Entries expire after TTL; zero means no expiry.
type RedisGeocodeCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{Client: client, TTL: ttl}
}

func (c *RedisGeocodeCache) Get(ctx context.Context, address string) (_ domain.GeoResult, _ bool, err error) {
	defer obs.Time(ctx, "geocode.redis.Get")(&err)

	address = strings.TrimSpace(address)
	if address == "" {
		return domain.GeoResult{}, false, nil
	}

	raw, err := c.Client.Get(ctx, geocodeKeyPrefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GeoResult{}, false, nil
	}
	if err != nil {
		return domain.GeoResult{}, false, fmt.Errorf("get geocode cache: redis get: %w", err)
	}

	var e redisGeoEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.GeoResult{}, false, fmt.Errorf("get geocode cache: decode entry %q: %w", address, err)
	}

	return domain.GeoResult{Lat: e.Lat, Lng: e.Lng, Source: domain.GeoSource(e.Source)}, true, nil
}

func (c *RedisGeocodeCache) Put(ctx context.Context, address string, r domain.GeoResult) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("insert geocode cache: empty address key")
	}
	if !r.Precise() {
		return fmt.Errorf("insert geocode cache %q: fallback results are not cacheable", address)
	}

	raw, err := json.Marshal(redisGeoEntry{Lat: r.Lat, Lng: r.Lng, Source: string(r.Source)})
	if err != nil {
		return fmt.Errorf("insert geocode cache: encode entry: %w", err)
	}

	if err := c.Client.Set(ctx, geocodeKeyPrefix+address, raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("insert geocode cache: redis set: %w", err)
	}
	return nil
}
