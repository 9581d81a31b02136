package domain

import "time"

// Tier is an event's promotion level.
type Tier string

const (
	TierFreeBasic Tier = "FREE_BASIC"
	TierStandard  Tier = "STANDARD"
	TierFeatured  Tier = "FEATURED"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierFreeBasic, TierStandard, TierFeatured:
		return true
	}
	return false
}

// Read-only snapshot of an event as served by the record store.
// Coordinates is nil until the venue has been geocoded.
// FeaturedUntil nil on a FEATURED event means the promotion never expires.
type EventSummary struct {
	ID            string
	Title         string
	Address       Address
	Coordinates   *Coordinates
	Tier          Tier
	FeaturedUntil *time.Time
	StartDateTime time.Time
	CreatedAt     time.Time
	VoteCount     uint
	SaveCount     uint
}
