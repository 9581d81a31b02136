package services

import (
	"context"
	"errors"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/platform/metrics"
	"event-discovery-service/internal/ports"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const defaultProviderTimeout = 5 * time.Second

// GeoResolver resolves addresses through an ordered chain of geocoders.
//
// Providers are tried in order and the first usable answer wins. A provider
// that is unconfigured, times out, errors or returns nothing is skipped.
// When the chain is exhausted the configured fallback coordinate is returned,
// so Resolve never fails.
//
// The resolver is safe for concurrent use; concurrent lookups of the same
// address share one provider round-trip.
type GeoResolver struct {
	providers []ports.Geocoder
	cache     ports.GeocodeCache
	fallback  domain.Coordinates
	timeout   time.Duration
	flights   singleflight.Group
	log       zerolog.Logger
}

type GeoResolverOption func(*GeoResolver)

// WithGeocodeCache puts a cache in front of the provider chain.
func WithGeocodeCache(c ports.GeocodeCache) GeoResolverOption {
	return func(r *GeoResolver) { r.cache = c }
}

// WithProviderTimeout bounds each individual provider call.
func WithProviderTimeout(d time.Duration) GeoResolverOption {
	return func(r *GeoResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewGeoResolver(fallback domain.Coordinates, providers []ports.Geocoder, opts ...GeoResolverOption) *GeoResolver {
	r := &GeoResolver{
		providers: providers,
		fallback:  fallback,
		timeout:   defaultProviderTimeout,
		log:       logging.Named("geo"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fallback returns the fixed FALLBACK result.
func (r *GeoResolver) Fallback() domain.GeoResult {
	return domain.GeoResult{Lat: r.fallback.Lat, Lng: r.fallback.Lng, Source: domain.GeoSourceFallback}
}

// Resolve returns coordinates for addr. It always returns a value.
func (r *GeoResolver) Resolve(ctx context.Context, addr domain.Address) domain.GeoResult {
	query := addr.Compose()
	if query == "" {
		metrics.GeoResolutions.WithLabelValues(string(domain.GeoSourceFallback)).Inc()
		return r.Fallback()
	}

	if res, ok := r.fromCache(ctx, query); ok {
		metrics.GeoResolutions.WithLabelValues(string(res.Source)).Inc()
		return res
	}

	// The shared flight must not die with whichever caller started it;
	// per-provider timeouts still bound it.
	v, _, _ := r.flights.Do(query, func() (any, error) {
		return r.resolveChain(context.WithoutCancel(ctx), query), nil
	})
	res := v.(domain.GeoResult)

	metrics.GeoResolutions.WithLabelValues(string(res.Source)).Inc()
	return res
}

func (r *GeoResolver) fromCache(ctx context.Context, query string) (domain.GeoResult, bool) {
	if r.cache == nil {
		return domain.GeoResult{}, false
	}

	res, ok, err := r.cache.Get(ctx, query)
	switch {
	case errors.Is(err, context.Canceled):
		return domain.GeoResult{}, false
	case err != nil:
		metrics.CacheLookups.WithLabelValues("geocode", "error").Inc()
		r.log.Warn().Err(err).Str("address", query).Msg("geocode cache read failed")
		return domain.GeoResult{}, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("geocode", "miss").Inc()
		return domain.GeoResult{}, false
	}

	metrics.CacheLookups.WithLabelValues("geocode", "hit").Inc()
	return res, true
}

func (r *GeoResolver) resolveChain(ctx context.Context, query string) domain.GeoResult {
	for _, p := range r.providers {
		if !p.IsAvailable() {
			continue
		}

		coords, ok := r.tryProvider(ctx, p, query)
		if !ok {
			continue
		}

		res := domain.GeoResult{Lat: coords.Lat, Lng: coords.Lng, Source: p.Source()}
		if r.cache != nil {
			if err := r.cache.Put(ctx, query, res); err != nil {
				r.log.Warn().Err(err).Str("address", query).Msg("geocode cache write failed")
			}
		}
		return res
	}

	r.log.Info().Str("address", query).Msg("no geocoder produced a result; using fallback coordinate")
	return r.Fallback()
}

// tryProvider runs one provider under its own timeout. A timeout is treated
// exactly like an empty answer.
func (r *GeoResolver) tryProvider(ctx context.Context, p ports.Geocoder, query string) (domain.Coordinates, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	coords, found, err := p.Geocode(ctx, query)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (err != nil && ctx.Err() != nil):
		metrics.ProviderRequests.WithLabelValues(p.Name(), "timeout").Inc()
		r.log.Warn().Str("provider", p.Name()).Str("address", query).Dur("timeout", r.timeout).Msg("geocoder timed out")
		return domain.Coordinates{}, false
	case err != nil:
		metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
		r.log.Warn().Err(err).Str("provider", p.Name()).Str("address", query).Msg("geocoder failed")
		return domain.Coordinates{}, false
	case !found:
		metrics.ProviderRequests.WithLabelValues(p.Name(), "empty").Inc()
		r.log.Debug().Str("provider", p.Name()).Str("address", query).Msg("geocoder returned no results")
		return domain.Coordinates{}, false
	case !validCoordinates(coords):
		metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
		r.log.Warn().Str("provider", p.Name()).Str("address", query).
			Float64("lat", coords.Lat).Float64("lng", coords.Lng).Msg("geocoder returned out-of-range coordinates")
		return domain.Coordinates{}, false
	}

	metrics.ProviderRequests.WithLabelValues(p.Name(), "ok").Inc()
	return coords, true
}

func validCoordinates(c domain.Coordinates) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}
