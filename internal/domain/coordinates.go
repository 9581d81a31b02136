package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const earthRadiusMeters = 6371008.8

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64
	Lng float64
}

// Return coordinates as [lng, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lng, c.Lat} }

// PathSegment renders the coordinate as "lng,lat", the form routing providers
// expect inside a semicolon-delimited path.
func (c Coordinates) PathSegment() string {
	return strconv.FormatFloat(c.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
}

// JoinPath renders an ordered coordinate list as "lng,lat;lng,lat;...".
func JoinPath(coords []Coordinates) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, c.PathSegment())
	}
	return strings.Join(parts, ";")
}

// Fingerprint returns a stable cache key for an ordered coordinate list.
// Order is part of the key: the same points in a different order are a different route.
func Fingerprint(coords []Coordinates) string {
	return strconv.FormatUint(xxhash.Sum64String(JoinPath(coords)), 16)
}

// RouteKey scopes Fingerprint to a travel profile: the same stops driven
// and walked are different routes.
func RouteKey(profile string, coords []Coordinates) string {
	return profile + ":" + Fingerprint(coords)
}

// HaversineMeters returns the great-circle distance between two coordinates.
func HaversineMeters(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
