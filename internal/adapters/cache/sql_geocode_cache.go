package cache

import (
	"context"
	"database/sql"
	"errors"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/obs"
	"fmt"
	"strings"
)

// SQLGeocodeCache is a Postgres-backed cache mapping composed addresses to
// geocoding results. FALLBACK results are rejected.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch the cached result for an address.
func (s *SQLGeocodeCache) Get(ctx context.Context, address string) (_ domain.GeoResult, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.Get")(&err)

	if s.DB == nil {
		return domain.GeoResult{}, false, errors.New("geocode cache: db is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return domain.GeoResult{}, false, nil
	}

	q := `
	SELECT lat, lng, source
    FROM geocode_cache
    WHERE address = $1;
	`

	var r domain.GeoResult
	var source string
	err = s.DB.QueryRowContext(ctx, q, address).Scan(&r.Lat, &r.Lng, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GeoResult{}, false, nil
	}
	if err != nil {
		return domain.GeoResult{}, false, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	r.Source = domain.GeoSource(source)

	return r, true, nil
}

// Store an address -> result mapping.
func (s *SQLGeocodeCache) Put(ctx context.Context, address string, r domain.GeoResult) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("insert geocode cache: empty address key")
	}
	if !r.Precise() {
		return fmt.Errorf("insert geocode cache %q: fallback results are not cacheable", address)
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lng, source)
    VALUES ($1, $2, $3, $4)
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		source = EXCLUDED.source;
	`, address, r.Lat, r.Lng, string(r.Source))
	if err != nil {
		return fmt.Errorf("insert geocode cache address=%q: %w", address, err)
	}

	return nil
}
