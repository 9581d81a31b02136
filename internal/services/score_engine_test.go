package services_test

import (
	"fmt"
	"testing"
	"time"

	"event-discovery-service/internal/domain"
	"event-discovery-service/internal/services"

	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func event(id string, tier domain.Tier, hoursUntilStart, hoursSinceCreation float64, votes, saves uint) domain.EventSummary {
	return domain.EventSummary{
		ID:            id,
		Tier:          tier,
		StartDateTime: now.Add(time.Duration(hoursUntilStart * float64(time.Hour))),
		CreatedAt:     now.Add(-time.Duration(hoursSinceCreation * float64(time.Hour))),
		VoteCount:     votes,
		SaveCount:     saves,
	}
}

func TestScoreEngine_Score(t *testing.T) {
	Convey("Given the default score engine", t, func() {
		engine := services.NewScoreEngine(services.DefaultScoreWeights())

		Convey("When scoring a fresh standard event starting in 12 hours", func() {
			ev := event("e1", domain.TierStandard, 12, 10, 10, 2)

			Convey("Then every term adds up to 630", func() {
				So(engine.Score(ev, now), ShouldEqual, 630)
			})
		})

		Convey("When the event sits on a band edge", func() {
			Convey("Then exactly 24 hours out falls in the soon band", func() {
				So(engine.Score(event("e", domain.TierFreeBasic, 24, 100, 0, 0), now), ShouldEqual, 200)
			})
			Convey("And exactly 168 hours out earns no urgency", func() {
				So(engine.Score(event("e", domain.TierFreeBasic, 168, 100, 0, 0), now), ShouldEqual, 0)
			})
			Convey("And starting right now is still urgent", func() {
				So(engine.Score(event("e", domain.TierFreeBasic, 0, 100, 0, 0), now), ShouldEqual, 500)
			})
			Convey("And a listing exactly 48 hours old is no longer fresh", func() {
				So(engine.Score(event("e", domain.TierFreeBasic, 200, 48, 0, 0), now), ShouldEqual, 0)
			})
		})

		Convey("When the event has already started", func() {
			ev := event("past", domain.TierStandard, -1, 100, 0, 0)

			Convey("Then it receives the past penalty", func() {
				So(engine.Score(ev, now), ShouldEqual, -10000)
			})
		})

		Convey("When a featured promotion has expired", func() {
			expired := now.Add(-time.Minute)
			ev := event("f", domain.TierFeatured, 200, 100, 0, 0)
			ev.FeaturedUntil = &expired

			Convey("Then no promotion is applied", func() {
				So(engine.Score(ev, now), ShouldEqual, 0)
			})
		})

		Convey("When a featured promotion has no end date", func() {
			ev := event("f", domain.TierFeatured, 200, 100, 0, 0)

			Convey("Then the promotion is applied", func() {
				So(engine.Score(ev, now), ShouldEqual, 10000)
			})
		})

		Convey("When engagement is enormous", func() {
			ev := event("viral", domain.TierStandard, 200, 100, 1_000_000, 1_000_000)

			Convey("Then the engagement term is clamped", func() {
				So(engine.Score(ev, now), ShouldEqual, 9000)
			})
		})
	})
}

func TestScoreEngine_Properties(t *testing.T) {
	Convey("Given the default score engine", t, func() {
		engine := services.NewScoreEngine(services.DefaultScoreWeights())
		until := now.Add(time.Hour)

		Convey("Featured events outrank every non-featured event", func() {
			for _, hours := range []float64{1, 30, 500} {
				featured := event("featured", domain.TierFeatured, hours, 1000, 0, 0)
				featured.FeaturedUntil = &until

				for _, counts := range [][2]uint{{0, 0}, {100, 100}, {4000, 0}, {1 << 30, 1 << 30}} {
					for _, otherHours := range []float64{1, 30, 500} {
						other := event("other", domain.TierStandard, otherHours, 1, counts[0], counts[1])
						So(engine.Score(featured, now), ShouldBeGreaterThan, engine.Score(other, now))
					}
				}
			}
		})

		Convey("Past events score below otherwise identical upcoming events", func() {
			for _, counts := range [][2]uint{{0, 0}, {50, 10}, {1 << 20, 1 << 20}} {
				past := event("a", domain.TierStandard, -0.01, 5, counts[0], counts[1])
				upcoming := event("a", domain.TierStandard, 0, 5, counts[0], counts[1])
				So(engine.Score(past, now), ShouldBeLessThan, engine.Score(upcoming, now))

				farFuture := event("a", domain.TierStandard, 1000, 5, counts[0], counts[1])
				So(engine.Score(past, now), ShouldBeLessThan, engine.Score(farFuture, now))
			}
		})
	})
}

func TestScoreEngine_Rank(t *testing.T) {
	Convey("Given a collection with heavy score ties", t, func() {
		engine := services.NewScoreEngine(services.DefaultScoreWeights())

		var events []domain.EventSummary
		for i := 0; i < 30; i++ {
			// Three start times and two engagement levels produce many exact ties.
			ev := event(fmt.Sprintf("ev-%02d", (i*7)%30), domain.TierStandard, float64(200+(i%3)), 100, uint(i%2), 0)
			events = append(events, ev)
		}

		Convey("When ranking twice, including from a reversed input", func() {
			first := engine.Rank(events, now, 0)

			reversed := make([]domain.EventSummary, len(events))
			for i, ev := range events {
				reversed[len(events)-1-i] = ev
			}
			second := engine.Rank(reversed, now, 0)

			Convey("Then both orders are identical", func() {
				So(len(first), ShouldEqual, len(second))
				for i := range first {
					So(first[i].Event.ID, ShouldEqual, second[i].Event.ID)
				}
			})

			Convey("And ties are broken by soonest start then id", func() {
				for i := 1; i < len(first); i++ {
					prev, cur := first[i-1], first[i]
					So(prev.Score, ShouldBeGreaterThanOrEqualTo, cur.Score)
					if prev.Score == cur.Score {
						So(prev.Event.StartDateTime.After(cur.Event.StartDateTime), ShouldBeFalse)
						if prev.Event.StartDateTime.Equal(cur.Event.StartDateTime) {
							So(prev.Event.ID, ShouldBeLessThan, cur.Event.ID)
						}
					}
				}
			})

			Convey("And the input slice is left untouched", func() {
				So(events[0].ID, ShouldEqual, "ev-00")
				So(events[1].ID, ShouldEqual, "ev-07")
			})
		})

		Convey("When a limit is given", func() {
			top := engine.Rank(events, now, 5)

			Convey("Then only the head of the order is returned", func() {
				So(len(top), ShouldEqual, 5)
				So(top[0].Event.ID, ShouldEqual, engine.Rank(events, now, 0)[0].Event.ID)
			})
		})

		Convey("When sorting in place", func() {
			cp := append([]domain.EventSummary(nil), events...)
			engine.Sort(cp, now)
			ranked := engine.Rank(events, now, 0)

			Convey("Then it matches Rank", func() {
				for i := range cp {
					So(cp[i].ID, ShouldEqual, ranked[i].Event.ID)
				}
			})
		})
	})
}

func TestScoreEngine_CustomWeights(t *testing.T) {
	Convey("Given retuned weights", t, func() {
		w := services.DefaultScoreWeights()
		w.SaveWeight = 10
		w.UrgentWindow = 6 * time.Hour
		engine := services.NewScoreEngine(w)

		Convey("Then the same event scores under the new policy", func() {
			ev := event("e1", domain.TierStandard, 12, 10, 10, 2)
			// 20 + 20 engagement, 12h is now in the soon band, still fresh
			So(engine.Score(ev, now), ShouldEqual, 340)
		})
	})
}
