package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "DISCOVERY_"
	envFileKey = "DISCOVERY_CONFIG"
)

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. YAML file named by DISCOVERY_CONFIG, if set
//  3. env vars with the DISCOVERY_ prefix (a .env file is loaded first when present)
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envFileKey); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config: read %q: %w", path, err)
		}
	}

	// DISCOVERY_GEOCODE_TIMEOUT -> geocode_timeout
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load config: env: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}

	switch c.DBDriver {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("db_path is required for sqlite")
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("database_url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown db_driver %q", c.DBDriver)
	}

	switch c.GeocodeCache {
	case "sql", "none":
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("redis_addr is required for redis geocode cache")
		}
	default:
		return fmt.Errorf("unknown geocode_cache %q", c.GeocodeCache)
	}

	if c.GeocodeTimeout <= 0 || c.RouteTimeout <= 0 {
		return errors.New("provider timeouts must be positive")
	}
	if strings.TrimSpace(c.NominatimUserAgent) == "" {
		return errors.New("nominatim_user_agent must not be empty")
	}
	if c.ScoreUrgentWindow <= 0 || c.ScoreSoonWindow <= c.ScoreUrgentWindow {
		return errors.New("score windows must satisfy 0 < urgent < soon")
	}
	if c.MaxTrips < 0 || c.TripIdleTTL < 0 {
		return errors.New("max_trips and trip_idle_ttl must not be negative")
	}
	if c.GeocodeConcurrency < 1 {
		c.GeocodeConcurrency = 1
	}
	return nil
}
