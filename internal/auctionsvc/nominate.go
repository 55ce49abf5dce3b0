package auctionsvc

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/draftforge/fastauction/internal/algo"
	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/lockmgr"
	"github.com/draftforge/fastauction/internal/metrics"
	"github.com/draftforge/fastauction/internal/store"
)

// Nominate implements spec §4.2. idempotencyKey is optional; when
// provided and a colliding lot already exists for (draftID, playerID),
// the pre-existing lot is returned instead of failing.
func (s *Service) Nominate(ctx context.Context, draftID, userID, playerID int64, idempotencyKey *string) (*domain.AuctionLot, error) {
	ctx, end := s.span(ctx, "auctionsvc.Nominate")
	defer end()

	// Fast-path preconditions outside the lock (spec §4.2): friendly
	// errors without paying for a write lock on the common-case reject.
	if err := s.runner.RunUnlocked(ctx, func(ctx context.Context, tx pgx.Tx) error {
		draft, err := s.drafts.GetDraft(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}
		if draft.Status != domain.DraftInProgress || !draft.IsFastAuction() {
			return Validation("draft is not an in-progress fast auction")
		}
		rosterID, err := s.rosters.RosterForUser(ctx, tx, draft.LeagueID, userID)
		if err != nil {
			return translateNotFound(err, "you are not a member of this league")
		}
		if draft.CurrentRosterID == nil || *draft.CurrentRosterID != rosterID {
			return Forbidden("it is not your turn to nominate")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var lot *domain.AuctionLot

	err := s.runner.RunLocked(ctx, lockmgr.Draft, draftID, func(ctx context.Context, tx pgx.Tx) error {
		draft, err := s.drafts.GetDraftForUpdate(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}
		if draft.Status != domain.DraftInProgress || !draft.IsFastAuction() {
			return Validation("draft is not an in-progress fast auction")
		}

		rosterID, err := s.rosters.RosterForUser(ctx, tx, draft.LeagueID, userID)
		if err != nil {
			return translateNotFound(err, "you are not a member of this league")
		}
		if draft.CurrentRosterID == nil || *draft.CurrentRosterID != rosterID {
			return Forbidden("it is not your turn to nominate")
		}

		if idempotencyKey != nil {
			if existing, err := s.lots.GetLotByIdempotencyKey(ctx, tx, draftID, playerID, *idempotencyKey); err == nil {
				lot = existing
				return nil
			} else if err != store.ErrNotFound {
				return Fatal("idempotency lookup failed", err)
			}
		}

		if active, err := s.lots.GetActiveLotForDraft(ctx, tx, draftID); err == nil && active != nil {
			return Validation("an active lot already exists for this draft")
		} else if err != nil && err != store.ErrNotFound {
			return Fatal("active lot lookup failed", err)
		}

		drafted, err := s.drafts.IsPlayerDrafted(ctx, tx, draftID, playerID)
		if err != nil {
			return Fatal("player status lookup failed", err)
		}
		if drafted {
			return Validation("player is already drafted or nominated")
		}

		snap, err := s.drafts.GetRosterBudgetSnapshot(ctx, tx, draftID, rosterID)
		if err != nil {
			return Fatal("roster snapshot lookup failed", err)
		}

		elig := algo.AssessNominatorEligibility(snap, draft.Settings.AuctionBudget, draft.Settings.RosterSlots, draft.Settings.MinBid)
		if !elig.Eligible {
			return Validation(fmt.Sprintf("roster cannot nominate: %s", elig.Reason))
		}

		now := s.clock.Now()
		deadline := now.Add(secondsToDuration(draft.Settings.NominationSeconds))
		if draft.Settings.MaxLotDurationSeconds != nil {
			hardCap := now.Add(secondsToDuration(*draft.Settings.MaxLotDurationSeconds))
			if hardCap.Before(deadline) {
				deadline = hardCap
			}
		}

		newLot := &domain.AuctionLot{
			DraftID:           draftID,
			PlayerID:          playerID,
			NominatorRosterID: rosterID,
			CurrentBid:        draft.Settings.MinBid,
			BidDeadline:       &deadline,
			Status:            domain.LotActive,
			IdempotencyKey:    idempotencyKey,
		}

		// A user-driven nomination always opens the bidding at minBid with
		// the nominator as the lot's current bidder; the no-open-bid
		// exception in spec §4.2 step 7 applies only when this lot is
		// created by the auto-nomination path (see AutoNominate).
		newLot.CurrentBidderRosterID = &rosterID

		lotID, err := s.lots.InsertLot(ctx, tx, newLot)
		if err != nil {
			return Fatal("insert lot failed", err)
		}
		newLot.ID = lotID

		openingMax := draft.Settings.MinBid
		if err := s.lots.UpsertProxyBid(ctx, tx, lotID, rosterID, openingMax, true); err != nil {
			return Fatal("upsert opening proxy bid failed", err)
		}
		if err := s.lots.InsertHistory(ctx, tx, &domain.AuctionBidHistory{
			LotID:          lotID,
			RosterID:       rosterID,
			BidAmount:      openingMax,
			IsProxy:        true,
			IdempotencyKey: idempotencyKey,
		}); err != nil {
			return Fatal("insert history failed", err)
		}

		lot = newLot
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.NominationsTotal.WithLabelValues("user").Inc()
	s.events.Publish(domain.LotStartedEvent{
		DraftID:    draftID,
		Lot:        *lot,
		ServerTime: s.clock.Now(),
	})

	return lot, nil
}

func translateNotFound(err error, message string) error {
	if err == store.ErrNotFound {
		return NotFound(message)
	}
	return Fatal("lookup failed", err)
}
