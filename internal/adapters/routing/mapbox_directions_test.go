package routing

import (
	"context"
	"errors"
	"event-discovery-service/internal/adapters/httpclient"
	"event-discovery-service/internal/domain"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var stops = []domain.Coordinates{
	{Lat: 33.42, Lng: -111.94},
	{Lat: 33.45, Lng: -112.07},
	{Lat: 33.41, Lng: -111.83},
}

func TestMapboxDirectionsRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "/directions/v5/mapbox/walking/-111.940000,33.420000;-112.070000,33.450000;-111.830000,33.410000"
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		if got := r.URL.Query().Get("access_token"); got != "tok" {
			t.Errorf("access_token = %q", got)
		}
		w.Write([]byte(`{"code":"Ok","routes":[
			{"distance":25310.4,"duration":1820.7,"geometry":{"type":"LineString","coordinates":[[-111.94,33.42],[-111.83,33.41]]}},
			{"distance":1,"duration":1,"geometry":null}]}`))
	}))
	defer srv.Close()

	m := NewMapboxDirections("tok", srv.URL, "walking", httpclient.WithRetry(1, time.Millisecond))
	if m.Profile() != "walking" {
		t.Fatalf("profile = %q, want walking", m.Profile())
	}
	stats, err := m.Route(context.Background(), stops)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if stats.DistanceMeters != 25310.4 || stats.DurationSeconds != 1820.7 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats.Geometry) == 0 || stats.Geometry[0] != '{' {
		t.Fatalf("geometry = %s", stats.Geometry)
	}
}

func TestMapboxDirectionsNoRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	_, err := NewMapboxDirections("tok", srv.URL, "", httpclient.WithRetry(1, time.Millisecond)).
		Route(context.Background(), stops)
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("err = %v, want ErrNoRoute", err)
	}
}

func TestMapboxDirectionsRejectsShortPaths(t *testing.T) {
	m := NewMapboxDirections("tok", "http://unused", "")
	if _, err := m.Route(context.Background(), stops[:1]); err == nil {
		t.Fatalf("expected an error for a single coordinate")
	}
	if NewMapboxDirections("", "http://unused", "").IsAvailable() {
		t.Fatalf("directions without a token must be unavailable")
	}
}
