package handlers

import (
	"errors"
	"event-discovery-service/internal/adapters/repositories"
	"event-discovery-service/internal/api/dto"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/ports"
	"event-discovery-service/internal/services"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// TripHandler exposes trip planning sessions. Trips live in memory; every
// mutation returns immediately and the route is filled in asynchronously,
// so clients poll GET /trips/{id} until pending is false.
type TripHandler struct {
	Trips  *services.TripRegistry
	Events ports.EventRepository
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _, err := h.Trips.Create()
	if errors.Is(err, services.ErrTooManyTrips) {
		writeError(w, r, http.StatusTooManyRequests, "too many active trips")
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.CreateTripResponse{TripID: id})
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toTripResponse(id, p.Snapshot()))
}

func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Trips.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, http.StatusNotFound, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TripHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.planner(w, r)
	if !ok {
		return
	}

	var req dto.AddStopRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.Events.GetEvent(r.Context(), req.EventID)
	if errors.Is(err, repositories.ErrEventNotFound) {
		writeError(w, r, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		logging.L().Error().Err(err).Str("event", req.EventID).Msg("load event failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respond(w, r, id, p, p.AddStop(ev))
}

func (h *TripHandler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	h.respond(w, r, id, p, p.RemoveStop(chi.URLParam(r, "eventID")))
}

func (h *TripHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	h.respond(w, r, id, p, p.Clear())
}

func (h *TripHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.planner(w, r)
	if !ok {
		return
	}

	var req dto.ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.respond(w, r, id, p, p.ReorderStops(*req.From, *req.To))
}

func (h *TripHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	h.respond(w, r, id, p, p.OptimizeOrder())
}

func (h *TripHandler) planner(w http.ResponseWriter, r *http.Request) (string, *services.TripPlanner, bool) {
	id := chi.URLParam(r, "id")
	p, err := h.Trips.Get(id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "trip not found")
		return "", nil, false
	}
	return id, p, true
}

func (h *TripHandler) respond(w http.ResponseWriter, r *http.Request, id string, p *services.TripPlanner, changed bool) {
	writeJSON(w, r, http.StatusOK, dto.TripMutationResponse{
		Changed: changed,
		Trip:    toTripResponse(id, p.Snapshot()),
	})
}

func toTripResponse(id string, s services.TripState) dto.TripResponse {
	res := dto.TripResponse{
		TripID:     id,
		Generation: s.Generation,
		Pending:    s.Pending,
		Stops:      make([]dto.TripStopResponse, 0, len(s.Stops)),
	}

	for _, stop := range s.Stops {
		ts := dto.TripStopResponse{Order: stop.Order, Event: toEventResponse(stop.Event)}
		if loc, ok := s.Locations[stop.Event.ID]; ok {
			g := toGeoResponse(loc)
			ts.Location = &g
		}
		res.Stops = append(res.Stops, ts)
	}

	if s.Cached != nil {
		res.Route = &dto.RouteResponse{
			DistanceMeters:  s.Cached.DistanceMeters,
			DurationSeconds: s.Cached.DurationSeconds,
			Geometry:        s.Cached.Geometry,
			RoutedStops:     s.RoutedStops,
			Partial:         s.RoutedStops < len(s.Stops),
		}
	}

	return res
}
