package routing

import (
	"context"
	"errors"
	"event-discovery-service/internal/adapters/httpclient"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/obs"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

var ErrNoRoute = errors.New("no route returned")

type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64         `json:"distance"`
		Duration float64         `json:"duration"`
		Geometry json.RawMessage `json:"geometry"`
	} `json:"routes"`
}

// MapboxDirections computes routes with the Mapbox Directions API.
// The stop order is preserved; the provider is never asked to optimize it.
type MapboxDirections struct {
	client  *httpclient.Client
	token   string
	baseURL string
	profile string
}

func NewMapboxDirections(token, baseURL, profile string, opts ...httpclient.Option) *MapboxDirections {
	if profile == "" {
		profile = "driving"
	}
	return &MapboxDirections{
		client:  httpclient.New("mapbox-directions", opts...),
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
	}
}

func (m *MapboxDirections) Name() string      { return "mapbox-directions" }
func (m *MapboxDirections) IsAvailable() bool { return m.token != "" }
func (m *MapboxDirections) Profile() string   { return m.profile }

func (m *MapboxDirections) Route(ctx context.Context, coords []domain.Coordinates) (_ domain.TripStats, err error) {
	defer obs.Time(ctx, "mapbox.directions")(&err)

	if len(coords) < 2 {
		return domain.TripStats{}, fmt.Errorf("mapbox directions: need at least 2 coordinates, got %d", len(coords))
	}

	q := url.Values{}
	q.Set("access_token", m.token)
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s",
		m.baseURL, m.profile, domain.JoinPath(coords), q.Encode())

	var decoded directionsResponse
	if err := m.client.GetJSON(ctx, endpoint, &decoded); err != nil {
		return domain.TripStats{}, fmt.Errorf("mapbox directions: %w", err)
	}

	if len(decoded.Routes) == 0 {
		return domain.TripStats{}, fmt.Errorf("mapbox directions (code %q): %w", decoded.Code, ErrNoRoute)
	}

	first := decoded.Routes[0]
	return domain.TripStats{
		DistanceMeters:  first.Distance,
		DurationSeconds: first.Duration,
		Geometry:        []byte(first.Geometry),
	}, nil
}
