package services

import (
	"context"
	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/platform/metrics"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultGeocodeConcurrency = 4

// AddressResolver resolves a venue address; it never fails.
type AddressResolver interface {
	Resolve(ctx context.Context, addr domain.Address) domain.GeoResult
}

// TripRouter computes the route through ordered coordinates, or reports none.
type TripRouter interface {
	Route(ctx context.Context, coords []domain.Coordinates) (domain.TripStats, bool)
}

// TripState is a point-in-time copy of a planner for rendering.
type TripState struct {
	Stops []domain.RouteStop
	// Cached is nil until a recompute for Generation has committed a route.
	Cached     *domain.TripStats
	Generation uint64
	// Pending is true while the recompute for Generation has not committed.
	Pending bool
	// RoutedStops counts the stops the committed route passes through. Stops
	// at a FALLBACK position are left out, so it can be less than len(Stops).
	RoutedStops int
	// Locations holds the resolved position of each stop, keyed by event id,
	// as of the last committed recompute.
	Locations map[string]domain.GeoResult
}

// TripPlanner owns an ordered list of trip stops and the route computed for it.
//
// Mutations are serialized by a single mutex. Each mutation that changes the
// stop list bumps the generation, drops the cached route and dispatches an
// asynchronous recompute tagged with the new generation. A recompute only
// commits if the generation is unchanged when it finishes; anything older is
// dropped on arrival. Superseded recomputes are also cancelled, but that is
// only pruning: the generation check alone decides what commits.
type TripPlanner struct {
	mu         sync.Mutex
	stops      []domain.RouteStop
	cached     *domain.TripStats
	generation uint64
	pending    bool
	routed     int
	locations  map[string]domain.GeoResult
	cancel     context.CancelFunc
	closed     bool

	geo         AddressResolver
	router      TripRouter
	concurrency int
	onRecompute func(generation uint64, committed bool)

	base     context.Context
	shutdown context.CancelFunc
	inflight sync.WaitGroup
	log      zerolog.Logger
}

type PlannerOption func(*TripPlanner)

// WithGeocodeConcurrency bounds parallel address resolution per recompute.
func WithGeocodeConcurrency(n int) PlannerOption {
	return func(p *TripPlanner) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRecomputeHook registers fn to run after every recompute finishes,
// outside the planner lock. committed is false for discarded results.
func WithRecomputeHook(fn func(generation uint64, committed bool)) PlannerOption {
	return func(p *TripPlanner) { p.onRecompute = fn }
}

func NewTripPlanner(geo AddressResolver, router TripRouter, opts ...PlannerOption) *TripPlanner {
	base, shutdown := context.WithCancel(context.Background())
	p := &TripPlanner{
		locations:   make(map[string]domain.GeoResult),
		geo:         geo,
		router:      router,
		concurrency: defaultGeocodeConcurrency,
		base:        base,
		shutdown:    shutdown,
		log:         logging.Named("planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddStop appends ev as the last stop. Adding an event already in the trip is a no-op.
func (p *TripPlanner) AddStop(ev domain.EventSummary) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.indexOfLocked(ev.ID) >= 0 {
		return false
	}

	p.stops = append(p.stops, domain.RouteStop{Event: ev})
	p.invalidateLocked()
	return true
}

// RemoveStop removes the stop for event id if present.
func (p *TripPlanner) RemoveStop(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOfLocked(id)
	if i < 0 {
		return false
	}

	p.stops = slices.Delete(p.stops, i, i+1)
	p.invalidateLocked()
	return true
}

// ReorderStops moves the stop at from to position to. Out-of-range indices
// and from == to leave the trip untouched.
func (p *TripPlanner) ReorderStops(from, to int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.stops)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}

	moved := p.stops[from]
	p.stops = slices.Delete(p.stops, from, from+1)
	p.stops = slices.Insert(p.stops, to, moved)
	p.invalidateLocked()
	return true
}

// Clear removes every stop. Clearing an empty trip is a no-op.
func (p *TripPlanner) Clear() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.stops) == 0 {
		return false
	}

	p.stops = nil
	p.invalidateLocked()
	return true
}

// OptimizeOrder reorders the stops with a nearest-neighbour pass over their
// known positions, keeping the first stop as the start. Stops without a known
// position keep their relative order at the end. Returns false when the order
// is already optimal under that heuristic.
func (p *TripPlanner) OptimizeOrder() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.stops) < 3 {
		return false
	}

	ids := make([]string, len(p.stops))
	points := make([]*domain.Coordinates, len(p.stops))
	for i, s := range p.stops {
		ids[i] = s.Event.ID
		points[i] = p.knownPositionLocked(s.Event)
	}

	order := NearestNeighborOrder(ids, points)
	if slices.IsSorted(order) {
		return false
	}

	reordered := make([]domain.RouteStop, 0, len(order))
	for _, i := range order {
		reordered = append(reordered, p.stops[i])
	}
	p.stops = reordered
	p.invalidateLocked()
	return true
}

// Snapshot returns a copy of the current state.
func (p *TripPlanner) Snapshot() TripState {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := TripState{
		Stops:       slices.Clone(p.stops),
		Generation:  p.generation,
		Pending:     p.pending,
		RoutedStops: p.routed,
		Locations:   make(map[string]domain.GeoResult, len(p.stops)),
	}
	if p.cached != nil {
		stats := *p.cached
		state.Cached = &stats
	}
	for _, s := range p.stops {
		if loc, ok := p.locations[s.Event.ID]; ok {
			state.Locations[s.Event.ID] = loc
		}
	}
	return state
}

// Wait blocks until every dispatched recompute has finished.
func (p *TripPlanner) Wait() {
	p.inflight.Wait()
}

// Close cancels in-flight recomputes and waits for them to exit. Edits made
// after Close still apply to the stop list but dispatch no recompute.
func (p *TripPlanner) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.shutdown()
	p.inflight.Wait()
}

func (p *TripPlanner) indexOfLocked(id string) int {
	return slices.IndexFunc(p.stops, func(s domain.RouteStop) bool { return s.Event.ID == id })
}

func (p *TripPlanner) knownPositionLocked(ev domain.EventSummary) *domain.Coordinates {
	if ev.Coordinates != nil {
		c := *ev.Coordinates
		return &c
	}
	if loc, ok := p.locations[ev.ID]; ok && loc.Precise() {
		c := loc.Coordinates()
		return &c
	}
	return nil
}

// invalidateLocked runs after every change to stops: reindex, bump the
// generation, drop the cached route and dispatch a recompute.
func (p *TripPlanner) invalidateLocked() {
	for i := range p.stops {
		p.stops[i].Order = i
	}

	p.generation++
	p.cached = nil
	p.routed = 0
	p.pending = true

	if p.cancel != nil {
		p.cancel()
	}
	if p.closed {
		return
	}
	ctx, cancel := context.WithCancel(p.base)
	p.cancel = cancel

	job := recomputeJob{
		generation: p.generation,
		stops:      slices.Clone(p.stops),
		known:      make(map[string]domain.GeoResult, len(p.stops)),
	}
	for _, s := range p.stops {
		if loc, ok := p.locations[s.Event.ID]; ok {
			job.known[s.Event.ID] = loc
		}
	}

	p.inflight.Add(1)
	go p.recompute(ctx, job)
}

type recomputeJob struct {
	generation uint64
	stops      []domain.RouteStop
	known      map[string]domain.GeoResult
}

func (p *TripPlanner) recompute(ctx context.Context, job recomputeJob) {
	defer p.inflight.Done()

	located := p.locate(ctx, job)
	if ctx.Err() != nil {
		p.discard(job.generation, "cancelled")
		p.notify(job.generation, false)
		return
	}

	// FALLBACK positions are placeholders, not places to drive to.
	path := make([]domain.Coordinates, 0, len(job.stops))
	for _, s := range job.stops {
		if loc := located[s.Event.ID]; loc.Precise() {
			path = append(path, loc.Coordinates())
		}
	}

	stats, ok := p.router.Route(ctx, path)
	committed := p.commit(job.generation, stats, ok, len(path), located)
	p.notify(job.generation, committed)
}

func (p *TripPlanner) notify(generation uint64, committed bool) {
	if p.onRecompute != nil {
		p.onRecompute(generation, committed)
	}
}

// locate resolves every stop's position, in parallel for stops that need a geocoder.
func (p *TripPlanner) locate(ctx context.Context, job recomputeJob) map[string]domain.GeoResult {
	results := make([]domain.GeoResult, len(job.stops))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, s := range job.stops {
		// Coordinates already on the record were geocoded upstream.
		if c := s.Event.Coordinates; c != nil {
			results[i] = domain.GeoResult{Lat: c.Lat, Lng: c.Lng, Source: domain.GeoSourcePrimary}
			continue
		}
		if loc, ok := job.known[s.Event.ID]; ok && loc.Precise() {
			results[i] = loc
			continue
		}

		g.Go(func() error {
			results[i] = p.geo.Resolve(gctx, s.Event.Address)
			return nil
		})
	}
	_ = g.Wait()

	located := make(map[string]domain.GeoResult, len(job.stops))
	for i, s := range job.stops {
		located[s.Event.ID] = results[i]
	}
	return located
}

// commit applies a recompute result if it is still current and reports whether it did.
func (p *TripPlanner) commit(generation uint64, stats domain.TripStats, ok bool, routed int, located map[string]domain.GeoResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation != generation {
		p.discardLocked(generation, "superseded")
		return false
	}

	p.pending = false
	p.cached = nil
	p.routed = 0
	if ok {
		p.cached = &stats
		p.routed = routed
	}
	p.locations = located

	metrics.Recomputes.WithLabelValues("committed").Inc()
	p.log.Debug().Uint64("generation", generation).Bool("route", ok).Msg("trip recompute committed")
	return true
}

func (p *TripPlanner) discard(generation uint64, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discardLocked(generation, reason)
}

// Stale results are expected under rapid editing, so they are not errors.
func (p *TripPlanner) discardLocked(generation uint64, reason string) {
	metrics.Recomputes.WithLabelValues("discarded").Inc()
	p.log.Debug().Uint64("generation", generation).Uint64("current", p.generation).
		Str("reason", reason).Msg("trip recompute discarded")
}
