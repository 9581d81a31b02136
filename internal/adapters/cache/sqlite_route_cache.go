package cache

import (
	"context"
	"database/sql"
	"errors"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/obs"
	"fmt"
)

// SQLite backed cache of computed routes keyed by the
// fingerprint of the ordered stop coordinates.
type SqliteRouteCache struct {
	DB *sql.DB
}

func NewSqliteRouteCache(db *sql.DB) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db}
}

// Fetch a cached route by fingerprint.
func (s *SqliteRouteCache) Get(ctx context.Context, key string) (_ domain.TripStats, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return domain.TripStats{}, false, errors.New("route cache: db is nil")
	}

	if key == "" {
		return domain.TripStats{}, false, errors.New("get route cache: key must not be empty")
	}

	q := `
	SELECT
        distance_meters,
        duration_seconds,
        geometry
    FROM route_cache
    WHERE fingerprint = ?;
	`

	var st domain.TripStats
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&st.DistanceMeters, &st.DurationSeconds, &st.Geometry)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TripStats{}, false, nil
	}
	if err != nil {
		return domain.TripStats{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	return st, true, nil
}

// Store a computed route.
func (s *SqliteRouteCache) Put(ctx context.Context, key string, st domain.TripStats) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	if key == "" {
		return errors.New("insert route cache: key must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_cache (
        fingerprint,
        distance_meters,
        duration_seconds,
        geometry
    )
    VALUES (?, ?, ?, ?);
	`, key, st.DistanceMeters, st.DurationSeconds, st.Geometry)
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}
