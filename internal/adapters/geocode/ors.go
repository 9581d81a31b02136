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

type orsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORS geocodes through OpenRouteService (/geocode/search). It is an optional
// extra link in the chain, tried after Nominatim when an API key is set.
type ORS struct {
	client  *httpclient.Client
	apiKey  string
	baseURL string
}

func NewORS(apiKey, baseURL string, opts ...httpclient.Option) *ORS {
	opts = append([]httpclient.Option{httpclient.WithHeader("Authorization", apiKey)}, opts...)

	return &ORS{
		client:  httpclient.New("ors-geocode", opts...),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (o *ORS) Name() string { return "ors" }

// Source reports SECONDARY: any non-primary provider that answers.
func (o *ORS) Source() domain.GeoSource { return domain.GeoSourceSecondary }
func (o *ORS) IsAvailable() bool        { return o.apiKey != "" }

func (o *ORS) Geocode(ctx context.Context, query string) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "ors.geocode")(&err)

	q := url.Values{}
	q.Set("text", query)
	q.Set("boundary.country", "US")
	q.Set("size", "1")

	var decoded orsResponse
	if err := o.client.GetJSON(ctx, o.baseURL+"/geocode/search?"+q.Encode(), &decoded); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("ors geocode %q: %w", query, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, false, nil
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, false, fmt.Errorf("invalid coordinate format for %q", query)
	}

	return domain.Coordinates{Lng: coords[0], Lat: coords[1]}, true, nil
}
