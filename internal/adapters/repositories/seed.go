package repositories

import (
	"context"
	"database/sql"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/db"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// EventSeed is one event in a JSON seed file. Times are RFC3339.
type EventSeed struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Street        string   `json:"street"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	Tier          string   `json:"tier"`
	FeaturedUntil string   `json:"featured_until"`
	StartDateTime string   `json:"start_date_time"`
	CreatedAt     string   `json:"created_at"`
	VoteCount     uint     `json:"vote_count"`
	SaveCount     uint     `json:"save_count"`
}

// Populate the events table from a JSON file. Existing ids are overwritten.
func SeedFromJSON(ctx context.Context, conn *sql.DB, dialect db.Dialect, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed events: read %q: %w", jsonPath, err)
	}

	var data []EventSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed events: parse json: %w", err)
	}

	rows := make([]EventSeed, 0, len(data))
	for i, item := range data {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return 0, fmt.Errorf("seed events: item at index %d: id cannot be empty", i+1)
		}
		if !domain.Tier(item.Tier).Valid() {
			return 0, fmt.Errorf("seed events: id=%s: invalid tier %q", item.ID, item.Tier)
		}
		if (item.Lat == nil) != (item.Lng == nil) {
			return 0, fmt.Errorf("seed events: id=%s: lat and lng must be set together", item.ID)
		}
		for field, v := range map[string]string{"start_date_time": item.StartDateTime, "created_at": item.CreatedAt} {
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return 0, fmt.Errorf("seed events: id=%s: parse %s: %w", item.ID, field, err)
			}
		}
		if item.FeaturedUntil != "" {
			if _, err := time.Parse(time.RFC3339, item.FeaturedUntil); err != nil {
				return 0, fmt.Errorf("seed events: id=%s: parse featured_until: %w", item.ID, err)
			}
		}
		rows = append(rows, item)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed events: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := rebind(dialect, `
	INSERT INTO events (
		id, title, street, city, state, lat, lng, tier,
		featured_until, start_date_time, created_at, vote_count, save_count
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		street = EXCLUDED.street,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		tier = EXCLUDED.tier,
		featured_until = EXCLUDED.featured_until,
		start_date_time = EXCLUDED.start_date_time,
		created_at = EXCLUDED.created_at,
		vote_count = EXCLUDED.vote_count,
		save_count = EXCLUDED.save_count;
	`)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("seed events: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range rows {
		var featured sql.NullString
		if e.FeaturedUntil != "" {
			featured = sql.NullString{String: e.FeaturedUntil, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.Title, e.Street, e.City, e.State, e.Lat, e.Lng, e.Tier,
			featured, e.StartDateTime, e.CreatedAt, e.VoteCount, e.SaveCount,
		); err != nil {
			return 0, fmt.Errorf("seed events: insert id=%s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed events: commit tx: %w", err)
	}

	return len(rows), nil
}
