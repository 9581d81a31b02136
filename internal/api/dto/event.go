package dto

import "time"

type AddressResponse struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city"`
	State  string `json:"state"`
}

type CoordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type EventResponse struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Address       AddressResponse      `json:"address"`
	Coordinates   *CoordinatesResponse `json:"coordinates"`
	Tier          string               `json:"tier"`
	FeaturedUntil *time.Time           `json:"featured_until"`
	StartDateTime time.Time            `json:"start_date_time"`
	CreatedAt     time.Time            `json:"created_at"`
	VoteCount     uint                 `json:"vote_count"`
	SaveCount     uint                 `json:"save_count"`
}

type RankedEventResponse struct {
	EventResponse
	Score float64 `json:"score"`
}

type ListEventsResponse struct {
	Events []RankedEventResponse `json:"events"`
}

// GeocodeRequest is bound from the /geocode query string.
type GeocodeRequest struct {
	Street string `validate:"max=200"`
	City   string `validate:"required,max=100"`
	State  string `validate:"max=50"`
}

type GeoResultResponse struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Source string  `json:"source"`
}
