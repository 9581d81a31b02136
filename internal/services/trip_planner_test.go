package services

import (
	"context"
	"errors"
	"event-discovery-service/internal/domain"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeGeo struct {
	mu      sync.Mutex
	results map[string]domain.GeoResult
	calls   map[string]int
}

func newFakeGeo(results map[string]domain.GeoResult) *fakeGeo {
	return &fakeGeo{results: results, calls: map[string]int{}}
}

func (g *fakeGeo) Resolve(_ context.Context, addr domain.Address) domain.GeoResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := addr.Compose()
	g.calls[key]++
	if r, ok := g.results[key]; ok {
		return r
	}
	return domain.GeoResult{Lat: 1, Lng: 1, Source: domain.GeoSourceFallback}
}

func (g *fakeGeo) callCount(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[key]
}

type routeCall struct {
	coords []domain.Coordinates
	reply  chan domain.TripStats
}

// gatedRouter hands every routable request to the test and blocks until the
// test replies. It ignores ctx, so only the generation check keeps a stale
// reply out.
type gatedRouter struct {
	calls chan routeCall
}

func newGatedRouter() *gatedRouter {
	return &gatedRouter{calls: make(chan routeCall, 16)}
}

func (r *gatedRouter) Route(_ context.Context, coords []domain.Coordinates) (domain.TripStats, bool) {
	if len(coords) < 2 {
		return domain.TripStats{}, false
	}
	call := routeCall{coords: coords, reply: make(chan domain.TripStats)}
	r.calls <- call
	return <-call.reply, true
}

// sumRouter answers immediately with distance = number of coordinates.
type sumRouter struct {
	mu    sync.Mutex
	paths [][]domain.Coordinates
}

func (r *sumRouter) Route(_ context.Context, coords []domain.Coordinates) (domain.TripStats, bool) {
	r.mu.Lock()
	r.paths = append(r.paths, coords)
	r.mu.Unlock()

	if len(coords) < 2 {
		return domain.TripStats{}, false
	}
	return domain.TripStats{DistanceMeters: float64(len(coords)), DurationSeconds: 60}, true
}

func (r *sumRouter) longestPath() []domain.Coordinates {
	r.mu.Lock()
	defer r.mu.Unlock()

	var longest []domain.Coordinates
	for _, p := range r.paths {
		if len(p) > len(longest) {
			longest = p
		}
	}
	return longest
}

type outcome struct {
	generation uint64
	committed  bool
}

func located(id string, lat, lng float64) domain.EventSummary {
	return domain.EventSummary{ID: id, Coordinates: &domain.Coordinates{Lat: lat, Lng: lng}}
}

func unlocated(id, city string) domain.EventSummary {
	return domain.EventSummary{ID: id, Address: domain.Address{City: city, State: "AZ"}}
}

func waitOutcome(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recompute")
		return outcome{}
	}
}

func waitCall(t *testing.T, ch <-chan routeCall) routeCall {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for route request")
		return routeCall{}
	}
}

func assertDenseOrder(t *testing.T, stops []domain.RouteStop) {
	t.Helper()
	for i, s := range stops {
		if s.Order != i {
			t.Fatalf("stop %d (%s) has order %d", i, s.Event.ID, s.Order)
		}
	}
}

func TestTripPlannerStaleRecomputeIsDiscarded(t *testing.T) {
	router := newGatedRouter()
	outcomes := make(chan outcome, 16)
	p := NewTripPlanner(newFakeGeo(nil), router, WithRecomputeHook(func(g uint64, c bool) {
		outcomes <- outcome{g, c}
	}))
	defer p.Close()

	p.AddStop(located("x", 0, 0))
	if o := waitOutcome(t, outcomes); o.generation != 1 || !o.committed {
		t.Fatalf("first recompute = %+v, want committed generation 1", o)
	}

	// Mutation A: two stops, its route request is held open.
	p.AddStop(located("y", 0, 1))
	callA := waitCall(t, router.calls)

	// Mutation B supersedes A before A resolves.
	p.AddStop(located("z", 0, 2))
	callB := waitCall(t, router.calls)

	callA.reply <- domain.TripStats{DistanceMeters: 111}
	if o := waitOutcome(t, outcomes); o.generation != 2 || o.committed {
		t.Fatalf("stale recompute = %+v, want discarded generation 2", o)
	}

	state := p.Snapshot()
	if state.Cached != nil {
		t.Fatalf("stale route was committed: %+v", *state.Cached)
	}
	if state.Generation != 3 || !state.Pending {
		t.Fatalf("state = gen %d pending %v, want gen 3 pending", state.Generation, state.Pending)
	}

	callB.reply <- domain.TripStats{DistanceMeters: 222}
	if o := waitOutcome(t, outcomes); o.generation != 3 || !o.committed {
		t.Fatalf("current recompute = %+v, want committed generation 3", o)
	}

	state = p.Snapshot()
	if state.Cached == nil || state.Cached.DistanceMeters != 222 {
		t.Fatalf("cached = %+v, want distance 222", state.Cached)
	}
	if state.Pending {
		t.Fatalf("pending should clear after commit")
	}
	if len(callB.coords) != 3 {
		t.Fatalf("route B used %d coordinates, want 3", len(callB.coords))
	}
}

func TestTripPlannerLateStaleReplyAfterCommit(t *testing.T) {
	router := newGatedRouter()
	outcomes := make(chan outcome, 16)
	p := NewTripPlanner(newFakeGeo(nil), router, WithRecomputeHook(func(g uint64, c bool) {
		outcomes <- outcome{g, c}
	}))
	defer p.Close()

	p.AddStop(located("x", 0, 0))
	waitOutcome(t, outcomes)

	p.AddStop(located("y", 0, 1))
	callA := waitCall(t, router.calls)
	p.ReorderStops(0, 1)
	callB := waitCall(t, router.calls)

	// The newer request answers first; the old one straggles in afterwards.
	callB.reply <- domain.TripStats{DistanceMeters: 2}
	if o := waitOutcome(t, outcomes); !o.committed {
		t.Fatalf("expected generation %d to commit", o.generation)
	}
	callA.reply <- domain.TripStats{DistanceMeters: 1}
	if o := waitOutcome(t, outcomes); o.committed {
		t.Fatalf("straggler generation %d must not commit", o.generation)
	}

	state := p.Snapshot()
	if state.Cached == nil || state.Cached.DistanceMeters != 2 {
		t.Fatalf("cached = %+v, want the newer route", state.Cached)
	}
	if state.Stops[0].Event.ID != "y" {
		t.Fatalf("first stop = %s, want y", state.Stops[0].Event.ID)
	}
}

func TestTripPlannerRemoveStop(t *testing.T) {
	p := NewTripPlanner(newFakeGeo(nil), &sumRouter{})
	defer p.Close()

	p.AddStop(located("x", 0, 0))
	p.AddStop(located("y", 0, 1))
	p.Wait()

	before := p.Snapshot()
	if before.Cached == nil {
		t.Fatalf("expected a cached route for two located stops")
	}

	if !p.RemoveStop("x") {
		t.Fatalf("RemoveStop(x) reported no change")
	}

	after := p.Snapshot()
	if len(after.Stops) != 1 || after.Stops[0].Event.ID != "y" || after.Stops[0].Order != 0 {
		t.Fatalf("stops = %+v, want [y(order=0)]", after.Stops)
	}
	if after.Cached != nil {
		t.Fatalf("cached route must be cleared on mutation")
	}
	if after.Generation != before.Generation+1 {
		t.Fatalf("generation = %d, want %d", after.Generation, before.Generation+1)
	}

	if p.RemoveStop("missing") {
		t.Fatalf("removing an unknown id must be a no-op")
	}
	if g := p.Snapshot().Generation; g != after.Generation {
		t.Fatalf("no-op remove bumped generation to %d", g)
	}
}

func TestTripPlannerReorderReindexes(t *testing.T) {
	p := NewTripPlanner(newFakeGeo(nil), &sumRouter{})
	defer p.Close()

	for i := 0; i < 5; i++ {
		p.AddStop(located(fmt.Sprintf("s%d", i), 0, float64(i)))
	}

	moves := [][2]int{{0, 4}, {4, 0}, {2, 3}, {3, 1}, {1, 2}, {4, 2}}
	ids := []string{"s0", "s1", "s2", "s3", "s4"}
	for _, m := range moves {
		gen := p.Snapshot().Generation
		if !p.ReorderStops(m[0], m[1]) {
			t.Fatalf("ReorderStops(%d, %d) reported no change", m[0], m[1])
		}

		moved := ids[m[0]]
		ids = append(ids[:m[0]], ids[m[0]+1:]...)
		ids = append(ids[:m[1]], append([]string{moved}, ids[m[1]:]...)...)

		state := p.Snapshot()
		assertDenseOrder(t, state.Stops)
		for i, s := range state.Stops {
			if s.Event.ID != ids[i] {
				t.Fatalf("after move %v stop %d = %s, want %s", m, i, s.Event.ID, ids[i])
			}
		}
		if state.Generation != gen+1 {
			t.Fatalf("generation = %d, want %d", state.Generation, gen+1)
		}
	}

	gen := p.Snapshot().Generation
	for _, m := range [][2]int{{-1, 0}, {0, 5}, {5, 0}, {2, 2}} {
		if p.ReorderStops(m[0], m[1]) {
			t.Fatalf("ReorderStops(%d, %d) should be a no-op", m[0], m[1])
		}
	}
	if g := p.Snapshot().Generation; g != gen {
		t.Fatalf("no-op reorders bumped generation %d -> %d", gen, g)
	}
}

func TestTripPlannerAddDuplicateAndClear(t *testing.T) {
	p := NewTripPlanner(newFakeGeo(nil), &sumRouter{})
	defer p.Close()

	if !p.AddStop(located("a", 0, 0)) {
		t.Fatalf("first add reported no change")
	}
	if p.AddStop(located("a", 5, 5)) {
		t.Fatalf("duplicate add must be a no-op")
	}
	if g := p.Snapshot().Generation; g != 1 {
		t.Fatalf("generation = %d, want 1", g)
	}

	if !p.Clear() {
		t.Fatalf("clear reported no change")
	}
	if p.Clear() {
		t.Fatalf("clearing an empty trip must be a no-op")
	}

	p.Wait()
	state := p.Snapshot()
	if len(state.Stops) != 0 || state.Cached != nil || state.Generation != 2 || state.Pending {
		t.Fatalf("unexpected state after clear: %+v", state)
	}
}

func TestTripPlannerGeocodesMissingCoordinates(t *testing.T) {
	geo := newFakeGeo(map[string]domain.GeoResult{
		"Tempe, AZ": {Lat: 33.42, Lng: -111.94, Source: domain.GeoSourcePrimary},
		"Mesa, AZ":  {Lat: 33.41, Lng: -111.83, Source: domain.GeoSourceSecondary},
	})
	router := &sumRouter{}
	p := NewTripPlanner(geo, router, WithGeocodeConcurrency(2))
	defer p.Close()

	p.AddStop(unlocated("t", "Tempe"))
	p.AddStop(located("phx", 33.45, -112.07))
	p.AddStop(unlocated("m", "Mesa"))
	p.AddStop(unlocated("nowhere", "Atlantis"))
	p.Wait()

	state := p.Snapshot()
	if state.Cached == nil || state.Cached.DistanceMeters != 3 {
		t.Fatalf("cached = %+v, want a route over the 3 precise stops", state.Cached)
	}
	if state.RoutedStops != 3 || len(state.Stops) != 4 {
		t.Fatalf("routed %d of %d stops, want 3 of 4", state.RoutedStops, len(state.Stops))
	}

	path := router.longestPath()
	if len(path) != 3 || path[0].Lat != 33.42 || path[1].Lat != 33.45 || path[2].Lat != 33.41 {
		t.Fatalf("route path = %+v, want stop order preserved without the fallback stop", path)
	}

	if loc := state.Locations["nowhere"]; loc.Source != domain.GeoSourceFallback {
		t.Fatalf("unresolvable stop source = %s, want FALLBACK", loc.Source)
	}
	if loc := state.Locations["m"]; loc.Source != domain.GeoSourceSecondary {
		t.Fatalf("mesa source = %s, want SECONDARY", loc.Source)
	}

	// Committed positions are reused: a reorder must not geocode Tempe again.
	before := geo.callCount("Tempe, AZ")
	p.ReorderStops(0, 2)
	p.Wait()
	if after := geo.callCount("Tempe, AZ"); after != before {
		t.Fatalf("tempe geocoded %d more times after reorder", after-before)
	}
}

func TestTripPlannerOptimizeOrder(t *testing.T) {
	p := NewTripPlanner(newFakeGeo(nil), &sumRouter{})
	defer p.Close()

	p.AddStop(located("start", 0, 0))
	p.AddStop(located("far", 0, 3))
	p.AddStop(located("near", 0, 1))
	p.AddStop(located("mid", 0, 2))

	gen := p.Snapshot().Generation
	if !p.OptimizeOrder() {
		t.Fatalf("OptimizeOrder reported no change")
	}

	state := p.Snapshot()
	want := []string{"start", "near", "mid", "far"}
	for i, s := range state.Stops {
		if s.Event.ID != want[i] {
			t.Fatalf("stop %d = %s, want %s", i, s.Event.ID, want[i])
		}
	}
	assertDenseOrder(t, state.Stops)
	if state.Generation != gen+1 {
		t.Fatalf("generation = %d, want %d", state.Generation, gen+1)
	}

	if p.OptimizeOrder() {
		t.Fatalf("second optimize should be a no-op")
	}
}

func TestTripPlannerConcurrentMutations(t *testing.T) {
	p := NewTripPlanner(newFakeGeo(nil), &sumRouter{})
	defer p.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("w%d-%d", w, i%5)
				switch i % 4 {
				case 0, 1:
					p.AddStop(located(id, float64(w), float64(i)))
				case 2:
					p.ReorderStops(i%3, (i+1)%3)
				case 3:
					p.RemoveStop(id)
				}
				_ = p.Snapshot()
			}
		}()
	}
	wg.Wait()
	p.Wait()

	state := p.Snapshot()
	assertDenseOrder(t, state.Stops)
	if state.Pending {
		t.Fatalf("final recompute did not commit")
	}
	if len(state.Stops) >= 2 && state.Cached == nil {
		t.Fatalf("final state with %d stops has no route", len(state.Stops))
	}
	if state.Cached != nil && state.Cached.DistanceMeters != float64(len(state.Stops)) {
		t.Fatalf("cached route covers %v stops, trip has %d", state.Cached.DistanceMeters, len(state.Stops))
	}
}

// blockingRouteProvider holds every request until release is closed or the
// request's context ends, and reports each outcome on returned.
type blockingRouteProvider struct {
	started  chan struct{}
	release  chan struct{}
	returned chan error
}

func newBlockingRouteProvider() *blockingRouteProvider {
	return &blockingRouteProvider{
		started:  make(chan struct{}, 8),
		release:  make(chan struct{}),
		returned: make(chan error, 8),
	}
}

func (b *blockingRouteProvider) Name() string      { return "blocking" }
func (b *blockingRouteProvider) IsAvailable() bool { return true }
func (b *blockingRouteProvider) Profile() string   { return "driving" }

func (b *blockingRouteProvider) Route(ctx context.Context, coords []domain.Coordinates) (domain.TripStats, error) {
	b.started <- struct{}{}
	select {
	case <-ctx.Done():
		b.returned <- ctx.Err()
		return domain.TripStats{}, ctx.Err()
	case <-b.release:
		b.returned <- nil
		return domain.TripStats{DistanceMeters: float64(len(coords))}, nil
	}
}

func waitSignal[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		var zero T
		return zero
	}
}

func TestTripPlannerSupersededRecomputeIsQuiet(t *testing.T) {
	logs := captureLogs(t)

	provider := newBlockingRouteProvider()
	p := NewTripPlanner(newFakeGeo(nil), NewRouteResolver(provider))
	defer p.Close()

	p.AddStop(located("x", 33.42, -111.94))
	p.AddStop(located("y", 33.45, -112.07))
	waitSignal(t, provider.started, "route request for x,y")

	p.AddStop(located("z", 33.41, -111.83))
	if err := waitSignal(t, provider.returned, "superseded request to end"); !errors.Is(err, context.Canceled) {
		t.Fatalf("superseded request ended with %v, want context.Canceled", err)
	}

	waitSignal(t, provider.started, "route request for x,y,z")
	close(provider.release)
	p.Wait()

	state := p.Snapshot()
	if state.Cached == nil || state.Cached.DistanceMeters != 3 || state.RoutedStops != 3 {
		t.Fatalf("state = %+v, want the 3-stop route committed", state)
	}
	if line := logs.firstAtOrAbove(zerolog.WarnLevel); line != "" {
		t.Fatalf("superseded recompute logged as a failure: %s", line)
	}
}

func TestTripPlannerClosedDispatchesNothing(t *testing.T) {
	var recomputes atomic.Int32
	p := NewTripPlanner(newFakeGeo(nil), &sumRouter{}, WithRecomputeHook(func(uint64, bool) {
		recomputes.Add(1)
	}))

	p.AddStop(located("a", 0, 0))
	p.Wait()
	before := recomputes.Load()

	p.Close()
	if !p.AddStop(located("b", 0, 1)) {
		t.Fatalf("edit after close should still apply to the stop list")
	}
	p.Wait()

	if got := recomputes.Load(); got != before {
		t.Fatalf("closed planner ran %d more recomputes", got-before)
	}
	if state := p.Snapshot(); len(state.Stops) != 2 || state.Cached != nil {
		t.Fatalf("unexpected state after close: %+v", state)
	}
}

func TestTripPlannerCloseRacesEdits(t *testing.T) {
	p := NewTripPlanner(newFakeGeo(nil), &sumRouter{})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				p.AddStop(located(fmt.Sprintf("s%d-%d", i, j), float64(i), float64(j)))
			}
		}()
	}
	p.Close()
	wg.Wait()
	p.Wait()
}
