package domain

// Represents a single stop in a trip.
// Order is the stop's position in the trip and is owned by the planner:
// it is re-derived from list position on every mutation.
type RouteStop struct {
	Event EventSummary
	Order int
}

// Aggregate metrics for the route through an ordered set of stops.
// Geometry is the provider's path encoding, kept opaque.
// TripStats is only meaningful together with the stop list it was computed for.
type TripStats struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []byte
}
