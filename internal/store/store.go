// Package store defines the persistence seams the auction service
// depends on (LotStore, DraftStore, RosterStore) and their Postgres
// implementations. Interfaces are defined here, grounded on the
// source's ad-hoc registry wiring re-architected as constructor
// injection (spec §9): callers receive concrete collaborators, never a
// runtime lookup by string key.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/domain"
)

// ErrNotFound is returned by store methods when the requested row does
// not exist. Service-layer callers translate it into auctionsvc's
// NotFound error kind.
var ErrNotFound = errors.New("store: not found")

// DraftStore reads and writes draft-wide state: the draft row itself,
// its immutable nomination order, and roster budget snapshots derived
// from committed lots.
type DraftStore interface {
	GetDraft(ctx context.Context, tx pgx.Tx, draftID int64) (*domain.Draft, error)
	GetDraftForUpdate(ctx context.Context, tx pgx.Tx, draftID int64) (*domain.Draft, error)
	UpdateNominator(ctx context.Context, tx pgx.Tx, draftID int64, pick int, rosterID int64, deadline time.Time) error
	CompleteDraft(ctx context.Context, tx pgx.Tx, draftID int64, completedAt time.Time) error
	GetDraftOrder(ctx context.Context, tx pgx.Tx, draftID int64) ([]domain.DraftOrderEntry, error)
	GetRosterBudgetSnapshots(ctx context.Context, tx pgx.Tx, draftID int64) ([]domain.RosterBudgetSnapshot, error)
	GetRosterBudgetSnapshot(ctx context.Context, tx pgx.Tx, draftID, rosterID int64) (domain.RosterBudgetSnapshot, error)
	IsPlayerDrafted(ctx context.Context, tx pgx.Tx, draftID, playerID int64) (bool, error)
	NominatorUserID(ctx context.Context, tx pgx.Tx, rosterID int64) (int64, error)

	// ListExpiredNominations returns drafts in_progress whose
	// pick_deadline has passed with no active lot (spec §4.8).
	ListExpiredNominations(ctx context.Context, now time.Time) ([]int64, error)
}

// LotStore reads and writes individual auction lots, their proxy bids,
// and their bid history.
type LotStore interface {
	GetActiveLotForDraft(ctx context.Context, tx pgx.Tx, draftID int64) (*domain.AuctionLot, error)
	GetLotForUpdate(ctx context.Context, tx pgx.Tx, lotID int64) (*domain.AuctionLot, error)
	GetLotByIdempotencyKey(ctx context.Context, tx pgx.Tx, draftID, playerID int64, idempotencyKey string) (*domain.AuctionLot, error)
	InsertLot(ctx context.Context, tx pgx.Tx, lot *domain.AuctionLot) (int64, error)
	UpdateLotCAS(ctx context.Context, tx pgx.Tx, lotID int64, prevBid decimal.Decimal, prevBidder *int64, newBid decimal.Decimal, newBidder int64, newBidCount int, newDeadline *time.Time) (bool, error)
	SettleLot(ctx context.Context, tx pgx.Tx, lotID int64, status domain.LotStatus, winningRosterID *int64, winningBid *decimal.Decimal) error

	UpsertProxyBid(ctx context.Context, tx pgx.Tx, lotID, rosterID int64, maxBid decimal.Decimal, isOpeningBid bool) error
	GetProxyBids(ctx context.Context, tx pgx.Tx, lotID int64) ([]domain.AuctionProxyBid, error)

	InsertHistory(ctx context.Context, tx pgx.Tx, h *domain.AuctionBidHistory) error
	FindHistoryByIdempotencyKey(ctx context.Context, tx pgx.Tx, lotID, rosterID int64, idempotencyKey string) (*domain.AuctionBidHistory, error)

	// ListExpiredActive returns lots still active whose bid_deadline has
	// passed (spec §4.8).
	ListExpiredActive(ctx context.Context, now time.Time) ([]ExpiredLot, error)
}

// ExpiredLot identifies one lot past its bid deadline, paired with its
// draft so the monitor can dispatch settlement without an extra read.
type ExpiredLot struct {
	LotID   int64
	DraftID int64
}

// RosterStore answers league-membership and roster-identity questions
// needed to authorize an actor before taking a domain lock.
type RosterStore interface {
	RosterForUser(ctx context.Context, tx pgx.Tx, leagueID, userID int64) (int64, error)
	RosterLeagueID(ctx context.Context, tx pgx.Tx, rosterID int64) (int64, error)
}
