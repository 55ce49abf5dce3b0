// Package domain holds the value types and entities shared across the
// fast auction engine: drafts, lots, proxy bids, and the events the
// engine publishes. It has no behavior of its own beyond small
// constructors and validity checks — algorithms live in internal/algo.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftStatus is the lifecycle state of a Draft.
type DraftStatus string

const (
	DraftNotStarted DraftStatus = "not_started"
	DraftInProgress DraftStatus = "in_progress"
	DraftPaused     DraftStatus = "paused"
	DraftCompleted  DraftStatus = "completed"
)

// LotStatus is the lifecycle state of an AuctionLot.
type LotStatus string

const (
	LotActive LotStatus = "active"
	LotWon    LotStatus = "won"
	LotPassed LotStatus = "passed"
)

// TimeoutAction controls what happens when a nominator's clock expires
// without a user nomination. See DraftSettings.FastAuctionTimeoutAction.
type TimeoutAction string

const (
	AutoNominateAndOpenBid TimeoutAction = "auto_nominate_and_open_bid"
	AutoNominateNoOpenBid  TimeoutAction = "auto_nominate_no_open_bid"
	AutoSkipNominator      TimeoutAction = "auto_skip_nominator"
)

// DraftSettings are the recognized per-draft options from spec §6.
// Unknown keys in a raw settings blob are ignored by design (see
// DESIGN.md, "dynamic settings blob").
type DraftSettings struct {
	MinBid                   decimal.Decimal `json:"minBid"`
	MinIncrement             decimal.Decimal `json:"minIncrement"`
	NominationSeconds        int             `json:"nominationSeconds"`
	ResetOnBidSeconds        int             `json:"resetOnBidSeconds"`
	MaxLotDurationSeconds    *int            `json:"maxLotDurationSeconds,omitempty"`
	FastAuctionTimeoutAction TimeoutAction   `json:"fastAuctionTimeoutAction"`
	AuctionBudget            decimal.Decimal `json:"auctionBudget"`
	RosterSlots              int             `json:"rosterSlots"`
	// SmartFallbackCap bounds the proxy bid placed on behalf of an
	// auto-nominated (AFK) roster. Nil disables the smart fallback.
	SmartFallbackCap *decimal.Decimal `json:"smartFallbackCap,omitempty"`
}

// DefaultSettings returns the spec §6 defaults.
func DefaultSettings() DraftSettings {
	return DraftSettings{
		MinBid:                   decimal.NewFromInt(1),
		MinIncrement:             decimal.NewFromInt(1),
		NominationSeconds:        60,
		ResetOnBidSeconds:        15,
		FastAuctionTimeoutAction: AutoNominateAndOpenBid,
		AuctionBudget:            decimal.NewFromInt(200),
		RosterSlots:              15,
	}
}

// Draft is one per league season. Only auctionMode=fast is implemented.
type Draft struct {
	ID              int64
	LeagueID        int64
	Status          DraftStatus
	DraftType       string
	CurrentPick     int
	CurrentRosterID *int64
	PickDeadline    *time.Time
	Settings        DraftSettings
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

func (d *Draft) IsFastAuction() bool {
	return d.DraftType == "auction"
}

// DraftOrderEntry is one slot in the immutable nomination rotation.
type DraftOrderEntry struct {
	DraftID       int64
	RosterID      int64
	DraftPosition int
}

// AuctionLot is the unit of contention: one player, one nomination.
type AuctionLot struct {
	ID                    int64
	DraftID               int64
	PlayerID              int64
	NominatorRosterID     int64
	CurrentBid            decimal.Decimal
	CurrentBidderRosterID *int64
	BidCount              int
	BidDeadline           *time.Time
	Status                LotStatus
	WinningRosterID       *int64
	WinningBid            *decimal.Decimal
	CreatedAt             time.Time
	IdempotencyKey        *string
}

// AuctionProxyBid is a bidder's stored maximum willingness-to-pay.
//
// IsOpeningBid marks a proxy bid placed automatically on the
// nominator's behalf when the lot was created (spec §4.2 step 7,
// §4.5 step 3c) rather than by an actual bid action. Settlement (spec
// §4.6) treats a lot with no proxy bids other than the nominator's own
// untouched opening bid as having "no bidders" and passes it — an
// opening bid alone is not a contested auction. Any real SetMaxBid call
// clears the flag, even when it's the nominator raising their own
// ceiling.
type AuctionProxyBid struct {
	ID           int64
	LotID        int64
	RosterID     int64
	MaxBid       decimal.Decimal
	IsOpeningBid bool
	UpdatedAt    time.Time
	CreatedAt    time.Time
}

// AuctionBidHistory is the append-only audit/idempotency log.
type AuctionBidHistory struct {
	ID             int64
	LotID          int64
	RosterID       int64
	BidAmount      decimal.Decimal
	IsProxy        bool
	IdempotencyKey *string
	CreatedAt      time.Time
}

// RosterBudgetSnapshot is derived, never stored: the triple the pure
// kernel needs to evaluate affordability and eligibility for a roster.
type RosterBudgetSnapshot struct {
	RosterID          int64
	Spent             decimal.Decimal
	WonCount          int
	LeadingCommitment decimal.Decimal
}

// DraftState is the response shape for Service.GetState.
type DraftState struct {
	ActiveLot                *AuctionLot
	CurrentNominatorRosterID *int64
	NominationNumber         int
	NominationDeadline       *time.Time
	Budgets                  []RosterBudgetSnapshot
}

// Nominator is the response shape for Service.GetCurrentNominator.
type Nominator struct {
	RosterID int64
	UserID   int64
}

// OutbidNotice describes a previous leader displaced by a new proxy
// bid. It is not itself an event, and nothing in this engine builds
// one: the pure kernel reports a displacement as algo.Outbid, and the
// service layer publishes it as a domain.OutbidEvent, subject to
// throttling.
type OutbidNotice struct {
	PreviousLeaderRosterID int64
	LotID                  int64
	PreviousBid            decimal.Decimal
	NewLeadingBid          decimal.Decimal
}

// MustInt validates that d is a non-negative integer amount, per the
// spec's "all numeric bids are non-negative integers" invariant, and
// returns it as an int64. It panics on violation — callers are expected
// to validate at the system boundary before constructing domain values.
func MustInt(d decimal.Decimal) int64 {
	if !d.IsInteger() || d.Sign() < 0 {
		panic("domain: non-integer or negative amount: " + d.String())
	}
	return d.IntPart()
}

// IsValidAmount reports whether d satisfies the integer-bid invariant.
func IsValidAmount(d decimal.Decimal) bool {
	return d.IsInteger() && d.Sign() >= 0
}
