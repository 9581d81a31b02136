package services

import (
	"context"
	"errors"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/platform/metrics"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTripNotFound = errors.New("trip not found")
	ErrTooManyTrips = errors.New("too many active trips")
)

type tripEntry struct {
	planner  *TripPlanner
	lastUsed time.Time
}

// TripRegistry holds process-local trip planners by id. Trips are ephemeral:
// nothing is persisted and a restart drops them. Trips untouched for longer
// than the idle TTL are evicted.
type TripRegistry struct {
	mu         sync.Mutex
	trips      map[string]*tripEntry
	newPlanner func() *TripPlanner
	maxTrips   int
	idleTTL    time.Duration
	now        func() time.Time
}

type RegistryOption func(*TripRegistry)

// WithMaxTrips caps the number of live trips. Zero means no cap.
func WithMaxTrips(n int) RegistryOption {
	return func(r *TripRegistry) { r.maxTrips = max(n, 0) }
}

// WithIdleTTL evicts trips not read or edited for d. Zero disables eviction.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *TripRegistry) { r.idleTTL = max(d, 0) }
}

func NewTripRegistry(newPlanner func() *TripPlanner, opts ...RegistryOption) *TripRegistry {
	r := &TripRegistry{
		trips:      make(map[string]*tripEntry),
		newPlanner: newPlanner,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a new empty trip and returns its id. Idle trips are evicted
// first; if the registry is still full, Create returns ErrTooManyTrips.
func (r *TripRegistry) Create() (string, *TripPlanner, error) {
	r.mu.Lock()
	evicted := r.evictIdleLocked()
	if r.maxTrips > 0 && len(r.trips) >= r.maxTrips {
		r.mu.Unlock()
		closeAll(evicted)
		return "", nil, ErrTooManyTrips
	}

	id := uuid.NewString()
	p := r.newPlanner()
	r.trips[id] = &tripEntry{planner: p, lastUsed: r.now()}
	metrics.ActiveTrips.Set(float64(len(r.trips)))
	r.mu.Unlock()

	closeAll(evicted)
	return id, p, nil
}

// Get returns the planner for id and marks the trip as used.
func (r *TripRegistry) Get(id string) (*TripPlanner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	e.lastUsed = r.now()
	return e.planner, nil
}

// Delete drops a trip and stops its background work.
func (r *TripRegistry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.trips[id]
	delete(r.trips, id)
	metrics.ActiveTrips.Set(float64(len(r.trips)))
	r.mu.Unlock()

	if !ok {
		return ErrTripNotFound
	}
	e.planner.Close()
	return nil
}

// Sweep evicts idle trips and returns how many were dropped.
func (r *TripRegistry) Sweep() int {
	r.mu.Lock()
	evicted := r.evictIdleLocked()
	r.mu.Unlock()

	closeAll(evicted)
	return len(evicted)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *TripRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}

	log := logging.Named("trips")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Info().Int("evicted", n).Msg("idle trips evicted")
			}
		}
	}
}

// Close stops every held trip.
func (r *TripRegistry) Close() {
	r.mu.Lock()
	trips := r.trips
	r.trips = make(map[string]*tripEntry)
	metrics.ActiveTrips.Set(0)
	r.mu.Unlock()

	for _, e := range trips {
		e.planner.Close()
	}
}

func (r *TripRegistry) evictIdleLocked() []*TripPlanner {
	if r.idleTTL <= 0 {
		return nil
	}

	cutoff := r.now().Add(-r.idleTTL)
	var evicted []*TripPlanner
	for id, e := range r.trips {
		if e.lastUsed.Before(cutoff) {
			evicted = append(evicted, e.planner)
			delete(r.trips, id)
		}
	}
	if len(evicted) > 0 {
		metrics.ActiveTrips.Set(float64(len(r.trips)))
	}
	return evicted
}

// closeAll runs outside the registry lock: Close waits on in-flight recomputes.
func closeAll(planners []*TripPlanner) {
	for _, p := range planners {
		p.Close()
	}
}
