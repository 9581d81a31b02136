package ports

import (
	"context"
	"event-discovery-service/internal/domain"
)

// Contract for a routing engine that computes a path through ordered stops.
type RouteProvider interface {
	Name() string
	// IsAvailable reports whether a routing credential is configured.
	IsAvailable() bool
	// Profile names the travel mode routes are computed for, e.g. "driving".
	Profile() string
	// Route returns the first route through coords in the given travel order.
	Route(ctx context.Context, coords []domain.Coordinates) (domain.TripStats, error)
}

// Optional cache of computed routes, keyed by domain.RouteKey of the profile and ordered coordinates.
type RouteCache interface {
	Get(ctx context.Context, key string) (domain.TripStats, bool, error)
	Put(ctx context.Context, key string, stats domain.TripStats) error
}
