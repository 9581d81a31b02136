package repositories

import (
	"context"
	"database/sql"
	"errors"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/db"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrEventNotFound = errors.New("event not found")

const eventColumns = `
		id,
		title,
		street,
		city,
		state,
		lat,
		lng,
		tier,
		featured_until,
		start_date_time,
		created_at,
		vote_count,
		save_count`

// SQL-backed implementation of the EventRepository port. The same queries
// serve SQLite and Postgres; placeholders are rebound per dialect.
type SQLEventRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLEventRepository(conn *sql.DB, dialect db.Dialect) *SQLEventRepository {
	return &SQLEventRepository{DB: conn, Dialect: dialect}
}

// Return every stored event ordered by start time.
func (s *SQLEventRepository) ListEvents(ctx context.Context) ([]domain.EventSummary, error) {
	if s.DB == nil {
		return nil, errors.New("event repository: DB is nil")
	}

	query := `SELECT` + eventColumns + `
	FROM events
	ORDER BY start_date_time, id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: query events table: %w", err)
	}
	defer rows.Close()

	events := make([]domain.EventSummary, 0, 64)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: row iteration: %w", err)
	}

	return events, nil
}

// Return a single event, or ErrEventNotFound.
func (s *SQLEventRepository) GetEvent(ctx context.Context, id string) (domain.EventSummary, error) {
	if s.DB == nil {
		return domain.EventSummary{}, errors.New("event repository: DB is nil")
	}

	query := rebind(s.Dialect, `SELECT`+eventColumns+`
	FROM events
	WHERE id = ?;
	`)
	ev, err := scanEvent(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EventSummary{}, fmt.Errorf("get event %q: %w", id, ErrEventNotFound)
	}
	if err != nil {
		return domain.EventSummary{}, fmt.Errorf("get event %q: %w", id, err)
	}

	return ev, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (domain.EventSummary, error) {
	var ev domain.EventSummary
	var lat, lng sql.NullFloat64
	var tier, startStr, createdStr string
	var featuredStr sql.NullString
	var votes, saves int64

	err := row.Scan(
		&ev.ID, &ev.Title, &ev.Address.Street, &ev.Address.City, &ev.Address.State,
		&lat, &lng, &tier, &featuredStr, &startStr, &createdStr, &votes, &saves,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventSummary{}, err
		}
		return domain.EventSummary{}, fmt.Errorf("scan row: %w", err)
	}

	ev.Tier = domain.Tier(tier)
	if lat.Valid && lng.Valid {
		ev.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}

	ev.StartDateTime, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		return domain.EventSummary{}, fmt.Errorf("event %s: parse start_date_time: %w", ev.ID, err)
	}
	ev.CreatedAt, err = time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return domain.EventSummary{}, fmt.Errorf("event %s: parse created_at: %w", ev.ID, err)
	}
	if featuredStr.Valid && featuredStr.String != "" {
		t, err := time.Parse(time.RFC3339, featuredStr.String)
		if err != nil {
			return domain.EventSummary{}, fmt.Errorf("event %s: parse featured_until: %w", ev.ID, err)
		}
		ev.FeaturedUntil = &t
	}

	if votes > 0 {
		ev.VoteCount = uint(votes)
	}
	if saves > 0 {
		ev.SaveCount = uint(saves)
	}

	return ev, nil
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func rebind(dialect db.Dialect, query string) string {
	if dialect != db.Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
