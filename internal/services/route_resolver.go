package services

import (
	"context"
	"errors"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/platform/metrics"
	"event-discovery-service/internal/platform/obs"
	"event-discovery-service/internal/ports"
	"time"

	"github.com/rs/zerolog"
)

const defaultRouteTimeout = 10 * time.Second

// RouteResolver asks a routing provider for the path through ordered stops.
// An absent result means "no route to display"; failures are logged, never returned.
type RouteResolver struct {
	provider ports.RouteProvider
	cache    ports.RouteCache
	timeout  time.Duration
	log      zerolog.Logger
}

type RouteResolverOption func(*RouteResolver)

// WithRouteCache consults cache before calling the provider.
func WithRouteCache(c ports.RouteCache) RouteResolverOption {
	return func(r *RouteResolver) { r.cache = c }
}

// WithRouteTimeout bounds the provider call.
func WithRouteTimeout(d time.Duration) RouteResolverOption {
	return func(r *RouteResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRouteResolver(provider ports.RouteProvider, opts ...RouteResolverOption) *RouteResolver {
	r := &RouteResolver{
		provider: provider,
		timeout:  defaultRouteTimeout,
		log:      logging.Named("route"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route returns the trip stats for coords in travel order, or false when no
// route can be shown: fewer than two stops, no credential, or provider failure.
func (r *RouteResolver) Route(ctx context.Context, coords []domain.Coordinates) (domain.TripStats, bool) {
	if len(coords) < 2 || r.provider == nil || !r.provider.IsAvailable() {
		metrics.RouteResults.WithLabelValues("absent").Inc()
		return domain.TripStats{}, false
	}

	key := domain.RouteKey(r.provider.Profile(), coords)
	if stats, ok := r.fromCache(ctx, key); ok {
		metrics.RouteResults.WithLabelValues("ok").Inc()
		return stats, true
	}

	stats, err := r.fetch(ctx, coords)
	if errors.Is(err, context.Canceled) {
		metrics.RouteResults.WithLabelValues("cancelled").Inc()
		r.log.Debug().Str("provider", r.provider.Name()).Int("stops", len(coords)).Msg("routing cancelled")
		return domain.TripStats{}, false
	}
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.ProviderRequests.WithLabelValues(r.provider.Name(), outcome).Inc()
		metrics.RouteResults.WithLabelValues("absent").Inc()
		r.log.Warn().Err(err).Str("provider", r.provider.Name()).Int("stops", len(coords)).Msg("routing failed")
		return domain.TripStats{}, false
	}
	metrics.ProviderRequests.WithLabelValues(r.provider.Name(), "ok").Inc()

	if r.cache != nil {
		if err := r.cache.Put(ctx, key, stats); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Warn().Err(err).Str("key", key).Msg("route cache write failed")
		}
	}

	metrics.RouteResults.WithLabelValues("ok").Inc()
	return stats, true
}

func (r *RouteResolver) fetch(ctx context.Context, coords []domain.Coordinates) (_ domain.TripStats, err error) {
	defer obs.Time(ctx, "route.fetch")(&err)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.provider.Route(ctx, coords)
}

func (r *RouteResolver) fromCache(ctx context.Context, key string) (domain.TripStats, bool) {
	if r.cache == nil {
		return domain.TripStats{}, false
	}

	stats, ok, err := r.cache.Get(ctx, key)
	switch {
	case errors.Is(err, context.Canceled):
		return domain.TripStats{}, false
	case err != nil:
		metrics.CacheLookups.WithLabelValues("route", "error").Inc()
		r.log.Warn().Err(err).Str("key", key).Msg("route cache read failed")
		return domain.TripStats{}, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("route", "miss").Inc()
		return domain.TripStats{}, false
	}

	metrics.CacheLookups.WithLabelValues("route", "hit").Inc()
	return stats, true
}
