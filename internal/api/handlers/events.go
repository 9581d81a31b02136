package handlers

import (
	"event-discovery-service/internal/api/dto"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/ports"
	"event-discovery-service/internal/services"
	"net/http"
	"strconv"
	"time"
)

// EventHandler serves the ranked discovery feed.
type EventHandler struct {
	Repo     ports.EventRepository
	Scores   *services.ScoreEngine
	MaxLimit int
	// Now is the ranking clock; nil means time.Now.
	Now func() time.Time
}

// List returns events in feed order. ?limit=N caps the result.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if h.MaxLimit <= 0 || n < h.MaxLimit {
			limit = n
		}
	}

	events, err := h.Repo.ListEvents(r.Context())
	if err != nil {
		logging.L().Error().Err(err).Msg("list events failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}

	ranked := h.Scores.Rank(events, now, limit)

	res := dto.ListEventsResponse{Events: make([]dto.RankedEventResponse, 0, len(ranked))}
	for _, s := range ranked {
		res.Events = append(res.Events, dto.RankedEventResponse{
			EventResponse: toEventResponse(s.Event),
			Score:         s.Score,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func toEventResponse(ev domain.EventSummary) dto.EventResponse {
	res := dto.EventResponse{
		ID:    ev.ID,
		Title: ev.Title,
		Address: dto.AddressResponse{
			Street: ev.Address.Street,
			City:   ev.Address.City,
			State:  ev.Address.State,
		},
		Tier:          string(ev.Tier),
		FeaturedUntil: ev.FeaturedUntil,
		StartDateTime: ev.StartDateTime,
		CreatedAt:     ev.CreatedAt,
		VoteCount:     ev.VoteCount,
		SaveCount:     ev.SaveCount,
	}
	if ev.Coordinates != nil {
		res.Coordinates = &dto.CoordinatesResponse{Lat: ev.Coordinates.Lat, Lng: ev.Coordinates.Lng}
	}
	return res
}
