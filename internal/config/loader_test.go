package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(envFileKey, "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.ScoreFeaturedBoost != 10000 || cfg.ScoreSaveWeight != 5 || cfg.ScoreVoteWeight != 2 {
		t.Fatalf("unexpected score defaults: %+v", cfg)
	}
	if cfg.ScoreSoonWindow != 168*time.Hour {
		t.Fatalf("soon window = %v, want 168h", cfg.ScoreSoonWindow)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	yaml := "addr: \":9000\"\nmapbox_token: from-file\ngeocode_timeout: 2s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(envFileKey, path)
	t.Setenv("DISCOVERY_MAPBOX_TOKEN", "from-env")
	t.Setenv("DISCOVERY_SCORE_SAVE_WEIGHT", "7.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":9000" {
		t.Fatalf("addr = %q, want :9000", cfg.Addr)
	}
	if cfg.MapboxToken != "from-env" {
		t.Fatalf("mapbox token = %q, want from-env", cfg.MapboxToken)
	}
	if cfg.GeocodeTimeout != 2*time.Second {
		t.Fatalf("geocode timeout = %v, want 2s", cfg.GeocodeTimeout)
	}
	if cfg.ScoreSaveWeight != 7.5 {
		t.Fatalf("save weight = %v, want 7.5", cfg.ScoreSaveWeight)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"postgres without url", func(c *Config) { c.DBDriver = "postgres" }},
		{"redis without addr", func(c *Config) { c.GeocodeCache = "redis" }},
		{"zero timeout", func(c *Config) { c.RouteTimeout = 0 }},
		{"inverted windows", func(c *Config) { c.ScoreSoonWindow = time.Hour }},
		{"negative max trips", func(c *Config) { c.MaxTrips = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
