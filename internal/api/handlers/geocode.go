package handlers

import (
	"event-discovery-service/internal/api/dto"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/services"
	"net/http"
)

// GeocodeHandler exposes address resolution. It always answers with a
// location; source FALLBACK means none of the providers knew the address.
type GeocodeHandler struct {
	Geo services.AddressResolver
}

func (h *GeocodeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.GeocodeRequest{
		Street: q.Get("street"),
		City:   q.Get("city"),
		State:  q.Get("state"),
	}
	if !validateRequest(w, r, &req) {
		return
	}

	res := h.Geo.Resolve(r.Context(), domain.Address{Street: req.Street, City: req.City, State: req.State})
	writeJSON(w, r, http.StatusOK, toGeoResponse(res))
}

func toGeoResponse(g domain.GeoResult) dto.GeoResultResponse {
	return dto.GeoResultResponse{Lat: g.Lat, Lng: g.Lng, Source: string(g.Source)}
}
