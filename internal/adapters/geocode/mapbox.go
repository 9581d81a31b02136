package geocode

import (
	"context"
	"event-discovery-service/internal/adapters/httpclient"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/obs"
	"fmt"
	"net/url"
	"strings"
)

type mapboxResponse struct {
	Features []struct {
		Center []float64 `json:"center"`
	} `json:"features"`
}

// Mapbox geocodes through the Mapbox Places API. It is the primary provider
// and is unavailable without an access token.
type Mapbox struct {
	client  *httpclient.Client
	token   string
	baseURL string
}

func NewMapbox(token, baseURL string, opts ...httpclient.Option) *Mapbox {
	return &Mapbox{
		client:  httpclient.New("mapbox-geocode", opts...),
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *Mapbox) Name() string             { return "mapbox" }
func (m *Mapbox) Source() domain.GeoSource { return domain.GeoSourcePrimary }
func (m *Mapbox) IsAvailable() bool        { return m.token != "" }

func (m *Mapbox) Geocode(ctx context.Context, query string) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "mapbox.geocode")(&err)

	q := url.Values{}
	q.Set("access_token", m.token)
	q.Set("limit", "1")
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		m.baseURL, url.PathEscape(query), q.Encode())

	var decoded mapboxResponse
	if err := m.client.GetJSON(ctx, endpoint, &decoded); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("mapbox geocode %q: %w", query, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, false, nil
	}

	center := decoded.Features[0].Center
	if len(center) != 2 {
		return domain.Coordinates{}, false, fmt.Errorf("mapbox geocode %q: invalid center format", query)
	}

	return domain.Coordinates{Lng: center[0], Lat: center[1]}, true, nil
}
