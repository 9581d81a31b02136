package geocode

import (
	"context"
	"event-discovery-service/internal/adapters/httpclient"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/obs"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// Public Nominatim allows at most one request per second per client.
const nominatimRate = rate.Limit(1)

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Nominatim geocodes through an OpenStreetMap Nominatim instance. It needs no
// credential but must identify itself with a User-Agent.
type Nominatim struct {
	client  *httpclient.Client
	baseURL string
}

func NewNominatim(baseURL, userAgent string, opts ...httpclient.Option) *Nominatim {
	opts = append([]httpclient.Option{
		httpclient.WithHeader("User-Agent", userAgent),
		httpclient.WithRateLimit(nominatimRate, 1),
	}, opts...)

	return &Nominatim{
		client:  httpclient.New("nominatim", opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (n *Nominatim) Name() string             { return "nominatim" }
func (n *Nominatim) Source() domain.GeoSource { return domain.GeoSourceSecondary }
func (n *Nominatim) IsAvailable() bool        { return n.baseURL != "" }

func (n *Nominatim) Geocode(ctx context.Context, query string) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "nominatim.geocode")(&err)

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")

	var places []nominatimPlace
	if err := n.client.GetJSON(ctx, n.baseURL+"/search?"+q.Encode(), &places); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("nominatim geocode %q: %w", query, err)
	}

	if len(places) == 0 {
		return domain.Coordinates{}, false, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("nominatim geocode %q: parse lat: %w", query, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("nominatim geocode %q: parse lon: %w", query, err)
	}

	return domain.Coordinates{Lat: lat, Lng: lng}, true, nil
}
