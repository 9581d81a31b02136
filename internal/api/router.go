package api

import (
	"event-discovery-service/internal/api/handlers"
	"event-discovery-service/internal/platform/metrics"
	"event-discovery-service/internal/ports"
	"event-discovery-service/internal/services"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Events   ports.EventRepository
	Scores   *services.ScoreEngine
	Geo      services.AddressResolver
	Trips    *services.TripRegistry
	MaxLimit int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	eventHandler := &handlers.EventHandler{Repo: d.Events, Scores: d.Scores, MaxLimit: d.MaxLimit}
	geoHandler := &handlers.GeocodeHandler{Geo: d.Geo}
	tripHandler := &handlers.TripHandler{Trips: d.Trips, Events: d.Events}

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Get("/events", eventHandler.List)
	r.Get("/geocode", geoHandler.Resolve)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", tripHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", tripHandler.Get)
			r.Delete("/", tripHandler.Delete)
			r.Post("/stops", tripHandler.AddStop)
			r.Delete("/stops", tripHandler.Clear)
			r.Delete("/stops/{eventID}", tripHandler.RemoveStop)
			r.Post("/reorder", tripHandler.Reorder)
			r.Post("/optimize", tripHandler.Optimize)
		})
	})

	return r
}
