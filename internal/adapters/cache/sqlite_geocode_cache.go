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

// SQLite backed cache mapping composed addresses to geocoding results.
// Address keys are expected to be normalized by the caller.
type SqliteGeocodeCache struct {
	DB *sql.DB
}

func NewSqliteGeocodeCache(db *sql.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

// Fetch the cached result for an address.
func (s *SqliteGeocodeCache) Get(ctx context.Context, address string) (_ domain.GeoResult, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.Get")(&err)

	if s.DB == nil {
		return domain.GeoResult{}, false, errors.New("geocode cache: db is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return domain.GeoResult{}, false, nil
	}

	q := `
	SELECT
        lat,
        lng,
        source
    FROM geocode_cache
    WHERE address = ?;
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

// Store an address -> result mapping. FALLBACK results are rejected.
func (s *SqliteGeocodeCache) Put(ctx context.Context, address string, r domain.GeoResult) error {
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
	INSERT OR REPLACE INTO geocode_cache (
        address,
        lat,
        lng,
        source
    )
    VALUES (?, ?, ?, ?);
	`, address, r.Lat, r.Lng, string(r.Source))
	if err != nil {
		return fmt.Errorf("insert geocode cache address=%q: %w", address, err)
	}

	return nil
}
