// Package algo is the stateless kernel: second-price resolution, budget
// math, timer extension, nominator eligibility, and timeout dispatch.
// Every function here takes value types only — no store, no clock, no
// lock — so it can be tested without a database. See spec §4.1.
package algo

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ProxyBid is the minimal shape resolveSecondPrice needs from a stored
// proxy bid: who, how much, and when they committed to it (for tie
// breaking).
type ProxyBid struct {
	RosterID  int64
	MaxBid    decimal.Decimal
	CreatedAt time.Time
}

// Resolution is the outcome of resolving a lot's proxy bids against its
// current displayed price and leader.
type Resolution struct {
	NewLeaderRosterID int64
	NewPrice          decimal.Decimal
	LeaderChanged     bool
	PriceChanged      bool
	NewBidCount       int
	Outbid            *Outbid
}

// Outbid is the notification the caller should raise when a leader is
// displaced. It is nil unless leaderChanged && previous leader existed.
type Outbid struct {
	PreviousLeaderRosterID int64
	PreviousBid            decimal.Decimal
	NewLeadingBid          decimal.Decimal
}

// ResolveSecondPrice implements spec §4.1. sortedProxyBids need not
// arrive pre-sorted — this function sorts a copy descending by MaxBid,
// breaking ties by earliest CreatedAt, matching the source's
// tie-breaking convention (see DESIGN.md, Open Question #2).
//
// Returns nil if there are no proxy bids at all (nothing to resolve).
func ResolveSecondPrice(
	currentBid decimal.Decimal,
	currentLeaderRosterID *int64,
	proxyBids []ProxyBid,
	minBid decimal.Decimal,
	minIncrement decimal.Decimal,
	currentBidCount int,
) *Resolution {
	if len(proxyBids) == 0 {
		return nil
	}

	sorted := make([]ProxyBid, len(proxyBids))
	copy(sorted, proxyBids)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].MaxBid.Equal(sorted[j].MaxBid) {
			return sorted[i].MaxBid.GreaterThan(sorted[j].MaxBid)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var newLeader int64
	var newPrice decimal.Decimal

	if len(sorted) == 1 {
		// Exactly one proxy bid: opening price is the floor. minIncrement
		// does not apply — there is no one to out-increment.
		newLeader = sorted[0].RosterID
		newPrice = decimal.Max(currentBid, minBid)
	} else {
		h, s := sorted[0], sorted[1]
		newLeader = h.RosterID
		newPrice = decimal.Min(h.MaxBid, s.MaxBid.Add(minIncrement))
	}

	// Monotonic guard: price never regresses.
	newPrice = decimal.Max(newPrice, currentBid)

	leaderChanged := currentLeaderRosterID == nil || *currentLeaderRosterID != newLeader
	priceChanged := !newPrice.Equal(currentBid)

	newBidCount := currentBidCount
	if priceChanged {
		newBidCount++
	}

	res := &Resolution{
		NewLeaderRosterID: newLeader,
		NewPrice:          newPrice,
		LeaderChanged:     leaderChanged,
		PriceChanged:      priceChanged,
		NewBidCount:       newBidCount,
	}

	if leaderChanged && currentLeaderRosterID != nil {
		res.Outbid = &Outbid{
			PreviousLeaderRosterID: *currentLeaderRosterID,
			PreviousBid:            currentBid,
			NewLeadingBid:          newPrice,
		}
	}

	return res
}
