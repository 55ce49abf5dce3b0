package auctionsvc

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/draftforge/fastauction/internal/algo"
	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/lockmgr"
	"github.com/draftforge/fastauction/internal/metrics"
)

// AdvanceNominator implements spec §4.4. timeoutSkippedRosterID, when
// non-nil, is carried onto the published event so clients can show
// "X was skipped" context.
func (s *Service) AdvanceNominator(ctx context.Context, draftID int64, timeoutSkippedRosterID *int64) (*domain.Nominator, error) {
	return s.advanceNominator(ctx, draftID, timeoutSkippedRosterID, false)
}

// ForceAdvanceNominator shares AdvanceNominator's lock body but is
// invocable without an antecedent settlement (admin fallback, spec
// §4.4).
func (s *Service) ForceAdvanceNominator(ctx context.Context, draftID int64) (*domain.Nominator, error) {
	return s.advanceNominator(ctx, draftID, nil, true)
}

func (s *Service) advanceNominator(ctx context.Context, draftID int64, timeoutSkippedRosterID *int64, force bool) (*domain.Nominator, error) {
	ctx, end := s.span(ctx, "auctionsvc.AdvanceNominator")
	defer end()

	var nominator *domain.Nominator
	var completed bool
	var nomEvent *domain.NominatorChangedEvent

	err := s.runner.RunLocked(ctx, lockmgr.Draft, draftID, func(ctx context.Context, tx pgx.Tx) error {
		draft, err := s.drafts.GetDraftForUpdate(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}
		if draft.Status != domain.DraftInProgress || !draft.IsFastAuction() {
			return nil
		}
		if !force {
			if active, err := s.lots.GetActiveLotForDraft(ctx, tx, draftID); err == nil && active != nil {
				return Validation("an active lot still exists for this draft")
			}
		}

		order, err := s.drafts.GetDraftOrder(ctx, tx, draftID)
		if err != nil {
			return Fatal("load draft order failed", err)
		}
		if len(order) == 0 {
			return Validation("draft has no order entries")
		}

		n := len(order)
		for i := 1; i <= n; i++ {
			idx := ((draft.CurrentPick + i - 1) % n + n) % n
			candidate := order[idx]

			snap, err := s.drafts.GetRosterBudgetSnapshot(ctx, tx, draftID, candidate.RosterID)
			if err != nil {
				return Fatal("roster snapshot lookup failed", err)
			}
			elig := algo.AssessNominatorEligibility(snap, draft.Settings.AuctionBudget, draft.Settings.RosterSlots, draft.Settings.MinBid)
			if !elig.Eligible {
				continue
			}

			// Re-read freshly: a concurrent settlement may have just
			// filled this roster (spec §4.4 step 4).
			snap, err = s.drafts.GetRosterBudgetSnapshot(ctx, tx, draftID, candidate.RosterID)
			if err != nil {
				return Fatal("roster snapshot re-check failed", err)
			}
			elig = algo.AssessNominatorEligibility(snap, draft.Settings.AuctionBudget, draft.Settings.RosterSlots, draft.Settings.MinBid)
			if !elig.Eligible {
				continue
			}

			now := s.clock.Now()
			deadline := now.Add(secondsToDuration(draft.Settings.NominationSeconds))
			newPick := draft.CurrentPick + i

			if err := s.drafts.UpdateNominator(ctx, tx, draftID, newPick, candidate.RosterID, deadline); err != nil {
				return Fatal("update nominator failed", err)
			}

			userID, err := s.drafts.NominatorUserID(ctx, tx, candidate.RosterID)
			if err != nil {
				return Fatal("nominator user lookup failed", err)
			}

			nominator = &domain.Nominator{RosterID: candidate.RosterID, UserID: userID}
			nomEvent = &domain.NominatorChangedEvent{
				DraftID:                draftID,
				NominatorRosterID:      candidate.RosterID,
				NominationNumber:       newPick,
				NominationDeadline:     deadline,
				TimeoutSkippedRosterID: timeoutSkippedRosterID,
			}
			return nil
		}

		// No eligible candidate after a full cycle: auction complete.
		completed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		if timeoutSkippedRosterID != nil {
			metrics.NominatorSkipsTotal.Inc()
		}
		if cerr := s.complete(ctx, draftID); cerr != nil {
			return nil, cerr
		}
		return nil, nil
	}

	if nomEvent != nil {
		s.events.Publish(*nomEvent)
		if timeoutSkippedRosterID != nil {
			metrics.NominatorSkipsTotal.Inc()
		}
	}

	return nominator, nil
}
