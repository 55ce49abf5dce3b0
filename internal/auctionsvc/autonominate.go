package auctionsvc

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/algo"
	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/lockmgr"
	"github.com/draftforge/fastauction/internal/metrics"
	"github.com/draftforge/fastauction/internal/store"
)

// AutoNominate implements spec §4.5: invoked by the deadline monitor
// when a nomination's PickDeadline passes without a user nomination.
// The player choice is delegated to the external PlayerSelector
// collaborator (queue, then ADP, then any eligible player — spec §1
// Non-goals exclude the selection policy itself from this engine).
func (s *Service) AutoNominate(ctx context.Context, draftID int64) (*domain.AuctionLot, error) {
	ctx, end := s.span(ctx, "auctionsvc.AutoNominate")
	defer end()

	var lot *domain.AuctionLot
	var skippedRosterID *int64
	var shouldAdvance bool

	err := s.runner.RunLocked(ctx, lockmgr.Draft, draftID, func(ctx context.Context, tx pgx.Tx) error {
		draft, err := s.drafts.GetDraftForUpdate(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}
		if draft.Status != domain.DraftInProgress || !draft.IsFastAuction() {
			return nil
		}
		if draft.CurrentRosterID == nil {
			return nil
		}
		rosterID := *draft.CurrentRosterID

		if active, err := s.lots.GetActiveLotForDraft(ctx, tx, draftID); err == nil && active != nil {
			return nil // a lot already exists; nothing timed out.
		} else if err != nil && err != store.ErrNotFound {
			return Fatal("active lot lookup failed", err)
		}

		snap, err := s.drafts.GetRosterBudgetSnapshot(ctx, tx, draftID, rosterID)
		if err != nil {
			return Fatal("roster snapshot lookup failed", err)
		}
		elig := algo.AssessNominatorEligibility(snap, draft.Settings.AuctionBudget, draft.Settings.RosterSlots, draft.Settings.MinBid)

		playerID, hasPlayer, err := s.selector.SelectPlayer(ctx, draftID, rosterID)
		if err != nil {
			return Fatal("player selection failed", err)
		}

		dispatch := algo.ResolveTimeoutAction(draft.Settings.FastAuctionTimeoutAction, hasPlayer, elig)

		switch dispatch {
		case algo.DispatchSkip:
			skipped := rosterID
			skippedRosterID = &skipped
			shouldAdvance = true
			return nil
		case algo.DispatchCreateLotNoOpenBid, algo.DispatchCreateLotWithOpenBid:
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
			}
			if dispatch == algo.DispatchCreateLotWithOpenBid {
				newLot.CurrentBidderRosterID = &rosterID
			}

			lotID, err := s.lots.InsertLot(ctx, tx, newLot)
			if err != nil {
				return Fatal("insert lot failed", err)
			}
			newLot.ID = lotID

			if dispatch == algo.DispatchCreateLotWithOpenBid {
				// Smart fallback max (spec §4.5 step 3c, §9): when a ceiling
				// is configured (service-level or per-draft), the smaller of
				// this roster's true max-affordable bid and that ceiling, so
				// an AFK nominator stays in contention without being bid up
				// past what they could actually afford or past an
				// operator-tuned cap. With no ceiling configured the opening
				// proxy bid is minBid.
				openingMax := draft.Settings.MinBid
				if s.smartFallbackCap != nil || draft.Settings.SmartFallbackCap != nil {
					openingMax = algo.CalculateMaxAffordableBid(draft.Settings.AuctionBudget, draft.Settings.RosterSlots, snap, decimal.Zero, false, draft.Settings.MinBid)
					if openingMax.LessThan(draft.Settings.MinBid) {
						openingMax = draft.Settings.MinBid
					}
					if s.smartFallbackCap != nil && s.smartFallbackCap.LessThan(openingMax) {
						openingMax = *s.smartFallbackCap
					}
					if draft.Settings.SmartFallbackCap != nil && draft.Settings.SmartFallbackCap.LessThan(openingMax) {
						openingMax = *draft.Settings.SmartFallbackCap
					}
				}
				if err := s.lots.UpsertProxyBid(ctx, tx, lotID, rosterID, openingMax, true); err != nil {
					return Fatal("upsert opening proxy bid failed", err)
				}
				if err := s.lots.InsertHistory(ctx, tx, &domain.AuctionBidHistory{
					LotID:     lotID,
					RosterID:  rosterID,
					BidAmount: openingMax,
					IsProxy:   true,
				}); err != nil {
					return Fatal("insert history failed", err)
				}
			}

			lot = newLot
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if lot != nil {
		metrics.NominationsTotal.WithLabelValues("auto").Inc()
		s.events.Publish(domain.LotStartedEvent{
			DraftID:          draftID,
			Lot:              *lot,
			ServerTime:       s.clock.Now(),
			IsAutoNomination: true,
		})
		return lot, nil
	}

	if shouldAdvance {
		if _, err := s.advanceNominator(ctx, draftID, skippedRosterID, true); err != nil {
			return nil, err
		}
	}

	return nil, nil
}
