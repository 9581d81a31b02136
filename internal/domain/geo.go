package domain

// GeoSource records which step of the geocoding chain produced a result.
// It is diagnostic only and never changes downstream computation.
type GeoSource string

const (
	GeoSourcePrimary   GeoSource = "PRIMARY"
	GeoSourceSecondary GeoSource = "SECONDARY"
	GeoSourceFallback  GeoSource = "FALLBACK"
)

// Result of resolving an address.
// A FALLBACK result means "location unknown, displaying a default".
type GeoResult struct {
	Lat    float64
	Lng    float64
	Source GeoSource
}

func (g GeoResult) Coordinates() Coordinates { return Coordinates{Lat: g.Lat, Lng: g.Lng} }

// Precise reports whether the result came from a real provider.
func (g GeoResult) Precise() bool { return g.Source != GeoSourceFallback }
