package main

import (
	"context"
	"database/sql"
	"event-discovery-service/internal/adapters/repositories"
	"event-discovery-service/internal/config"
	"event-discovery-service/internal/platform/db"
	"event-discovery-service/internal/platform/logging"
	"fmt"
)

// dbtool initializes the schema for the configured database and seeds events.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.L().Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	conn, dialect, err := open(cfg)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	if err := initAndSeed(context.Background(), conn, dialect, cfg.SeedPath); err != nil {
		logging.L().Fatal().Err(err).Msg("dbtool failed")
	}
}

func open(cfg *config.Config) (*sql.DB, db.Dialect, error) {
	if db.Dialect(cfg.DBDriver) == db.Postgres {
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, db.Postgres, err
	}

	conn, err := db.OpenSQLite(cfg.DBPath)
	return conn, db.SQLite, err
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) error {
	log := logging.Named("dbtool")

	log.Info().Str("dialect", string(dialect)).Msg("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info().Msg("Schema ready.")

	log.Info().Str("path", seedPath).Msg("Seeding database...")
	n, err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Int("events", n).Msg("Seeding complete.")

	return nil
}
