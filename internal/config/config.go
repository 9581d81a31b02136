// Package config defines service configuration and its layered loading.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is json or console.
	LogFormat string `koanf:"log_format"`

	// DBDriver selects the record store and SQL caches: sqlite or postgres.
	DBDriver    string `koanf:"db_driver"`
	DBPath      string `koanf:"db_path"`
	DatabaseURL string `koanf:"database_url"`
	SeedPath    string `koanf:"seed_path"`

	// GeocodeCache selects the geocode cache backend: sql, redis or none.
	GeocodeCache string        `koanf:"geocode_cache"`
	RedisAddr    string        `koanf:"redis_addr"`
	RedisTTL     time.Duration `koanf:"redis_ttl"`

	// Primary geocoder (credentialed). Empty token disables it.
	MapboxToken   string `koanf:"mapbox_token"`
	MapboxBaseURL string `koanf:"mapbox_base_url"`

	// Secondary geocoder (credential-free, identifying header required).
	NominatimBaseURL   string `koanf:"nominatim_base_url"`
	NominatimUserAgent string `koanf:"nominatim_user_agent"`

	// Optional extra geocoder tried after the secondary.
	ORSAPIKey  string `koanf:"ors_api_key"`
	ORSBaseURL string `koanf:"ors_base_url"`

	// RoutingProfile is the directions profile, e.g. driving, walking.
	RoutingProfile string `koanf:"routing_profile"`

	GeocodeTimeout time.Duration `koanf:"geocode_timeout"`
	RouteTimeout   time.Duration `koanf:"route_timeout"`

	// FallbackLat/FallbackLng is the coordinate returned when no geocoder answers.
	FallbackLat float64 `koanf:"fallback_lat"`
	FallbackLng float64 `koanf:"fallback_lng"`

	// GeocodeConcurrency bounds parallel geocoding per trip recompute.
	GeocodeConcurrency int `koanf:"geocode_concurrency"`

	// MaxFeedLimit caps GET /events?limit.
	MaxFeedLimit int `koanf:"max_feed_limit"`

	// MaxTrips caps live trip sessions; 0 means no cap.
	MaxTrips int `koanf:"max_trips"`
	// TripIdleTTL evicts trips untouched for this long; 0 disables eviction.
	TripIdleTTL time.Duration `koanf:"trip_idle_ttl"`

	// Score weights and bands.
	ScoreFeaturedBoost float64       `koanf:"score_featured_boost"`
	ScoreVoteWeight    float64       `koanf:"score_vote_weight"`
	ScoreSaveWeight    float64       `koanf:"score_save_weight"`
	ScoreEngagementCap float64       `koanf:"score_engagement_cap"`
	ScorePastPenalty   float64       `koanf:"score_past_penalty"`
	ScoreUrgentBoost   float64       `koanf:"score_urgent_boost"`
	ScoreSoonBoost     float64       `koanf:"score_soon_boost"`
	ScoreFreshBoost    float64       `koanf:"score_fresh_boost"`
	ScoreUrgentWindow  time.Duration `koanf:"score_urgent_window"`
	ScoreSoonWindow    time.Duration `koanf:"score_soon_window"`
	ScoreFreshWindow   time.Duration `koanf:"score_fresh_window"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:               ":8080",
		LogLevel:           "info",
		LogFormat:          "json",
		DBDriver:           "sqlite",
		DBPath:             "data/app.db",
		SeedPath:           "data/seeds/events.json",
		GeocodeCache:       "sql",
		RedisTTL:           30 * 24 * time.Hour,
		MapboxBaseURL:      "https://api.mapbox.com",
		NominatimBaseURL:   "https://nominatim.openstreetmap.org",
		NominatimUserAgent: "event-discovery-service/1.0",
		ORSBaseURL:         "https://api.openrouteservice.org",
		RoutingProfile:     "driving",
		GeocodeTimeout:     5 * time.Second,
		RouteTimeout:       10 * time.Second,
		FallbackLat:        33.4484,
		FallbackLng:        -112.0740,
		GeocodeConcurrency: 4,
		MaxFeedLimit:       100,
		MaxTrips:           10000,
		TripIdleTTL:        2 * time.Hour,

		ScoreFeaturedBoost: 10000,
		ScoreVoteWeight:    2,
		ScoreSaveWeight:    5,
		ScoreEngagementCap: 9000,
		ScorePastPenalty:   -10000,
		ScoreUrgentBoost:   500,
		ScoreSoonBoost:     200,
		ScoreFreshBoost:    100,
		ScoreUrgentWindow:  24 * time.Hour,
		ScoreSoonWindow:    168 * time.Hour,
		ScoreFreshWindow:   48 * time.Hour,
	}
}
