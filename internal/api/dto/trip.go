package dto

import "github.com/goccy/go-json"

type CreateTripResponse struct {
	TripID string `json:"trip_id"`
}

type AddStopRequest struct {
	EventID string `json:"event_id" validate:"required,max=128"`
}

// Pointers distinguish a missing index from index 0.
type ReorderRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required,min=0"`
}

type TripStopResponse struct {
	Order    int                `json:"order"`
	Event    EventResponse      `json:"event"`
	Location *GeoResultResponse `json:"location"`
}

// Partial is set when some stops have no known position and the route skips them.
type RouteResponse struct {
	DistanceMeters  float64         `json:"distance_meters"`
	DurationSeconds float64         `json:"duration_seconds"`
	Geometry        json.RawMessage `json:"geometry,omitempty"`
	RoutedStops     int             `json:"routed_stops"`
	Partial         bool            `json:"partial"`
}

type TripResponse struct {
	TripID     string             `json:"trip_id"`
	Generation uint64             `json:"generation"`
	Pending    bool               `json:"pending"`
	Stops      []TripStopResponse `json:"stops"`
	Route      *RouteResponse     `json:"route"`
}

// TripMutationResponse reports whether a mutation changed the trip, plus the
// state right after it.
type TripMutationResponse struct {
	Changed bool         `json:"changed"`
	Trip    TripResponse `json:"trip"`
}
