// Package metrics holds the Prometheus collectors for the discovery service.
// All collectors are registered on Registry rather than the default registerer
// so the /metrics endpoint exposes only service metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "discovery"

// Registry is the service's private metrics registry.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// ProviderRequests counts outbound provider calls by provider and outcome
	// (ok, empty, error, timeout, rejected).
	ProviderRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Outbound geocoding/routing provider calls by outcome.",
	}, []string{"provider", "outcome"})

	// GeoResolutions counts resolved addresses by the source that produced them.
	GeoResolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geo_resolutions_total",
		Help:      "Address resolutions by result source.",
	}, []string{"source"})

	// CacheLookups counts cache lookups by cache and result (hit, miss, error).
	CacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Geocode and route cache lookups.",
	}, []string{"cache", "result"})

	// RouteResults counts route resolutions by outcome (ok, absent, cancelled).
	RouteResults = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_results_total",
		Help:      "Route resolutions by outcome.",
	}, []string{"outcome"})

	// Recomputes counts trip recompute completions (committed, discarded).
	Recomputes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trip_recomputes_total",
		Help:      "Trip recompute completions by disposition.",
	}, []string{"disposition"})

	// OperationDuration observes timed operations reported through obs.Time.
	OperationDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of timed internal operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "status"})

	// HTTPRequests counts served HTTP requests by route pattern and status class.
	HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Served HTTP requests.",
	}, []string{"method", "route", "code"})

	// BreakerState tracks each provider's circuit breaker (0 closed, 1 half-open, 2 open).
	BreakerState = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "provider_breaker_state",
		Help:      "Provider circuit breaker state.",
	}, []string{"provider"})

	// ActiveTrips tracks trip planners held by the registry.
	ActiveTrips = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_trips",
		Help:      "Trip planners currently held in memory.",
	})
)
