package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is the common shape every domain event satisfies: it names the
// draft it belongs to, so the event bus can route/fan-out by draft.
type Event interface {
	EventType() string
	EventDraftID() int64
}

// LotStartedEvent fires on commit of Nominate or AutoNominate.
type LotStartedEvent struct {
	DraftID          int64
	Lot              AuctionLot
	ServerTime       time.Time
	IsAutoNomination bool
}

func (e LotStartedEvent) EventType() string    { return "auction:lot_started" }
func (e LotStartedEvent) EventDraftID() int64  { return e.DraftID }

// BidEvent fires on commit of an accepted SetMaxBid, regardless of
// whether the price or leader actually changed. An idempotent replay
// does not fire it.
type BidEvent struct {
	DraftID    int64
	Lot        AuctionLot
	ServerTime time.Time
}

func (e BidEvent) EventType() string   { return "auction:bid" }
func (e BidEvent) EventDraftID() int64 { return e.DraftID }

// OutbidEvent is targeted at the previous leader. Throttled per
// (roster, lot) to at most one per ~3s; see eventbus.Bus.
type OutbidEvent struct {
	DraftID  int64
	RosterID int64
	LotID    int64
	PlayerID int64
	NewBid   decimal.Decimal
}

func (e OutbidEvent) EventType() string   { return "auction:outbid" }
func (e OutbidEvent) EventDraftID() int64 { return e.DraftID }

// NominatorChangedEvent fires on commit of AdvanceNominator.
type NominatorChangedEvent struct {
	DraftID                int64
	NominatorRosterID      int64
	NominationNumber       int
	NominationDeadline     time.Time
	TimeoutSkippedRosterID *int64
}

func (e NominatorChangedEvent) EventType() string   { return "auction:nominator_changed" }
func (e NominatorChangedEvent) EventDraftID() int64 { return e.DraftID }

// DraftCompletedEvent fires once, when no roster can nominate anymore.
type DraftCompletedEvent struct {
	DraftID  int64
	LeagueID int64
}

func (e DraftCompletedEvent) EventType() string   { return "draft:completed" }
func (e DraftCompletedEvent) EventDraftID() int64 { return e.DraftID }
