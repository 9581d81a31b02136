package services

import (
	"cmp"
	"event-discovery-service/internal/domain"
	"math"
	"slices"
	"time"
)

// ScoreWeights holds the ranking policy. The values are product policy rather
// than algorithmic necessity, so they are configuration, not literals.
type ScoreWeights struct {
	// FeaturedBoost is added for a FEATURED event whose promotion has not expired.
	FeaturedBoost float64
	// VoteWeight and SaveWeight scale the engagement counters.
	VoteWeight float64
	SaveWeight float64
	// EngagementCap clamps the engagement term. Keeping it below
	// FeaturedBoost - (UrgentBoost + FreshBoost) makes featured dominance hold
	// across every timing band.
	EngagementCap float64
	// PastPenalty applies once the event has started.
	PastPenalty float64
	// UrgentBoost applies in [0, UrgentWindow), SoonBoost in [UrgentWindow, SoonWindow).
	UrgentBoost  float64
	SoonBoost    float64
	UrgentWindow time.Duration
	SoonWindow   time.Duration
	// FreshBoost applies while the listing is younger than FreshWindow.
	FreshBoost  float64
	FreshWindow time.Duration
}

// DefaultScoreWeights returns the production ranking policy.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		FeaturedBoost: 10000,
		VoteWeight:    2,
		SaveWeight:    5,
		EngagementCap: 9000,
		PastPenalty:   -10000,
		UrgentBoost:   500,
		SoonBoost:     200,
		UrgentWindow:  24 * time.Hour,
		SoonWindow:    168 * time.Hour,
		FreshBoost:    100,
		FreshWindow:   48 * time.Hour,
	}
}

// ScoreEngine ranks events for display. It holds only immutable weights,
// so a single instance is safe for any number of concurrent callers.
type ScoreEngine struct {
	w ScoreWeights
}

func NewScoreEngine(w ScoreWeights) *ScoreEngine {
	return &ScoreEngine{w: w}
}

// Weights returns the engine's policy.
func (e *ScoreEngine) Weights() ScoreWeights { return e.w }

// Score computes the additive ranking score of ev at now.
func (e *ScoreEngine) Score(ev domain.EventSummary, now time.Time) float64 {
	return e.promotion(ev, now) + e.engagement(ev) + e.urgency(ev, now) + e.freshness(ev, now)
}

func (e *ScoreEngine) promotion(ev domain.EventSummary, now time.Time) float64 {
	if ev.Tier != domain.TierFeatured {
		return 0
	}
	if ev.FeaturedUntil != nil && !ev.FeaturedUntil.After(now) {
		return 0
	}
	return e.w.FeaturedBoost
}

func (e *ScoreEngine) engagement(ev domain.EventSummary) float64 {
	raw := e.w.VoteWeight*float64(ev.VoteCount) + e.w.SaveWeight*float64(ev.SaveCount)
	if e.w.EngagementCap > 0 {
		raw = math.Min(raw, e.w.EngagementCap)
	}
	return math.Max(0, raw)
}

// Bands are closed on the lower edge and open on the upper edge.
func (e *ScoreEngine) urgency(ev domain.EventSummary, now time.Time) float64 {
	until := ev.StartDateTime.Sub(now)
	switch {
	case until < 0:
		return e.w.PastPenalty
	case until < e.w.UrgentWindow:
		return e.w.UrgentBoost
	case until < e.w.SoonWindow:
		return e.w.SoonBoost
	default:
		return 0
	}
}

func (e *ScoreEngine) freshness(ev domain.EventSummary, now time.Time) float64 {
	if now.Sub(ev.CreatedAt) < e.w.FreshWindow {
		return e.w.FreshBoost
	}
	return 0
}

// ScoredEvent pairs an event with the score it was ranked by.
type ScoredEvent struct {
	Event domain.EventSummary
	Score float64
}

// Rank returns events ordered by descending score, then soonest start, then id.
// The input slice is not modified. limit <= 0 returns every event.
func (e *ScoreEngine) Rank(events []domain.EventSummary, now time.Time, limit int) []ScoredEvent {
	out := make([]ScoredEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, ScoredEvent{Event: ev, Score: e.Score(ev, now)})
	}

	slices.SortFunc(out, compareScored)

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Sort orders events in place with the same total order as Rank.
func (e *ScoreEngine) Sort(events []domain.EventSummary, now time.Time) {
	ranked := e.Rank(events, now, 0)
	for i := range ranked {
		events[i] = ranked[i].Event
	}
}

// compareScored is a total order: two distinct events only compare equal when
// they share an id, so repeated sorts of the same input are identical.
func compareScored(a, b ScoredEvent) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := a.Event.StartDateTime.Compare(b.Event.StartDateTime); c != 0 {
		return c
	}
	return cmp.Compare(a.Event.ID, b.Event.ID)
}
