package main

import (
	"context"
	"database/sql"
	"errors"
	"event-discovery-service/internal/adapters/cache"
	"event-discovery-service/internal/adapters/geocode"
	"event-discovery-service/internal/adapters/repositories"
	"event-discovery-service/internal/adapters/routing"
	"event-discovery-service/internal/api"
	"event-discovery-service/internal/config"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/db"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/ports"
	"event-discovery-service/internal/services"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, Mapbox, Nominatim) behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		logging.L().Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Named("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, dialect, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ctx, conn, dialect, cfg.SeedPath); err != nil {
		return err
	}

	geoCache, closeCache, err := newGeocodeCache(ctx, cfg, conn, dialect)
	if err != nil {
		return err
	}
	defer closeCache()

	providers := []ports.Geocoder{
		geocode.NewMapbox(cfg.MapboxToken, cfg.MapboxBaseURL),
		geocode.NewNominatim(cfg.NominatimBaseURL, cfg.NominatimUserAgent),
		geocode.NewORS(cfg.ORSAPIKey, cfg.ORSBaseURL),
	}
	for _, p := range providers {
		log.Info().Str("provider", p.Name()).Bool("available", p.IsAvailable()).Msg("geocoder configured")
	}

	geo := services.NewGeoResolver(
		domain.Coordinates{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng},
		providers,
		services.WithGeocodeCache(geoCache),
		services.WithProviderTimeout(cfg.GeocodeTimeout),
	)

	directions := routing.NewMapboxDirections(cfg.MapboxToken, cfg.MapboxBaseURL, cfg.RoutingProfile)
	if !directions.IsAvailable() {
		log.Warn().Msg("no routing credential; trips will have no route")
	}
	router := services.NewRouteResolver(
		directions,
		services.WithRouteCache(newRouteCache(conn, dialect)),
		services.WithRouteTimeout(cfg.RouteTimeout),
	)

	trips := services.NewTripRegistry(func() *services.TripPlanner {
		return services.NewTripPlanner(geo, router, services.WithGeocodeConcurrency(cfg.GeocodeConcurrency))
	}, services.WithMaxTrips(cfg.MaxTrips), services.WithIdleTTL(cfg.TripIdleTTL))
	defer trips.Close()
	go trips.RunSweeper(ctx, time.Minute)

	handler := api.NewRouter(api.Deps{
		Events:   repositories.NewSQLEventRepository(conn, dialect),
		Scores:   services.NewScoreEngine(scoreWeights(cfg)),
		Geo:      geo,
		Trips:    trips,
		MaxLimit: cfg.MaxFeedLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("db", string(dialect)).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openDB(cfg *config.Config) (*sql.DB, db.Dialect, error) {
	switch db.Dialect(cfg.DBDriver) {
	case db.Postgres:
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, db.Postgres, err
	default:
		conn, err := db.OpenSQLite(cfg.DBPath)
		return conn, db.SQLite, err
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) error {
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if seedPath == "" {
		return nil
	}
	if _, err := os.Stat(seedPath); errors.Is(err, os.ErrNotExist) {
		logging.L().Warn().Str("path", seedPath).Msg("seed file not found; starting with existing events")
		return nil
	}

	n, err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	logging.L().Info().Int("events", n).Str("path", seedPath).Msg("seeded events")

	return nil
}

// newGeocodeCache returns nil when caching is disabled.
func newGeocodeCache(ctx context.Context, cfg *config.Config, conn *sql.DB, dialect db.Dialect) (ports.GeocodeCache, func(), error) {
	switch cfg.GeocodeCache {
	case "none":
		return nil, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("geocode cache: ping redis %q: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedisGeocodeCache(client, cfg.RedisTTL), func() { client.Close() }, nil
	}

	if dialect == db.Postgres {
		return cache.NewSQLGeocodeCache(conn), func() {}, nil
	}
	return cache.NewSqliteGeocodeCache(conn), func() {}, nil
}

func newRouteCache(conn *sql.DB, dialect db.Dialect) ports.RouteCache {
	if dialect == db.Postgres {
		return cache.NewSQLRouteCache(conn)
	}
	return cache.NewSqliteRouteCache(conn)
}

func scoreWeights(cfg *config.Config) services.ScoreWeights {
	return services.ScoreWeights{
		FeaturedBoost: cfg.ScoreFeaturedBoost,
		VoteWeight:    cfg.ScoreVoteWeight,
		SaveWeight:    cfg.ScoreSaveWeight,
		EngagementCap: cfg.ScoreEngagementCap,
		PastPenalty:   cfg.ScorePastPenalty,
		UrgentBoost:   cfg.ScoreUrgentBoost,
		SoonBoost:     cfg.ScoreSoonBoost,
		UrgentWindow:  cfg.ScoreUrgentWindow,
		SoonWindow:    cfg.ScoreSoonWindow,
		FreshBoost:    cfg.ScoreFreshBoost,
		FreshWindow:   cfg.ScoreFreshWindow,
	}
}
