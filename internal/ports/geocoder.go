package ports

import (
	"context"
	"event-discovery-service/internal/domain"
)

// Contract for a single geocoding provider in the resolution chain.
type Geocoder interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Source is the provenance tag attached to results from this provider.
	Source() domain.GeoSource
	// IsAvailable reports whether the provider is configured (e.g. has a credential).
	IsAvailable() bool
	// Geocode resolves a composed address. found is false when the provider
	// answered well-formed but with zero results.
	Geocode(ctx context.Context, query string) (coords domain.Coordinates, found bool, err error)
}

// Optional cache in front of the geocoding chain, keyed by composed address.
type GeocodeCache interface {
	Get(ctx context.Context, address string) (domain.GeoResult, bool, error)
	Put(ctx context.Context, address string, result domain.GeoResult) error
}
