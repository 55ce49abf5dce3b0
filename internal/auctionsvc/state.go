package auctionsvc

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/store"
)

// GetState implements spec §6: a read-only snapshot of a draft's
// current lot, nominator, and per-roster budgets. It takes no lock —
// callers observe a consistent-enough view inside one read
// transaction, but the state can change the instant this returns.
func (s *Service) GetState(ctx context.Context, draftID int64) (*domain.DraftState, error) {
	ctx, end := s.span(ctx, "auctionsvc.GetState")
	defer end()

	var state domain.DraftState

	err := s.runner.RunUnlocked(ctx, func(ctx context.Context, tx pgx.Tx) error {
		draft, err := s.drafts.GetDraft(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}

		active, err := s.lots.GetActiveLotForDraft(ctx, tx, draftID)
		if err != nil && err != store.ErrNotFound {
			return Fatal("active lot lookup failed", err)
		}
		if err == nil {
			state.ActiveLot = active
		}

		state.CurrentNominatorRosterID = draft.CurrentRosterID
		state.NominationNumber = draft.CurrentPick
		state.NominationDeadline = draft.PickDeadline

		budgets, err := s.drafts.GetRosterBudgetSnapshots(ctx, tx, draftID)
		if err != nil {
			return Fatal("roster budget snapshots lookup failed", err)
		}
		state.Budgets = budgets

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &state, nil
}

// GetCurrentNominator implements spec §6.
func (s *Service) GetCurrentNominator(ctx context.Context, draftID int64) (*domain.Nominator, error) {
	ctx, end := s.span(ctx, "auctionsvc.GetCurrentNominator")
	defer end()

	var nominator *domain.Nominator

	err := s.runner.RunUnlocked(ctx, func(ctx context.Context, tx pgx.Tx) error {
		draft, err := s.drafts.GetDraft(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}
		if draft.CurrentRosterID == nil {
			return nil
		}

		userID, err := s.drafts.NominatorUserID(ctx, tx, *draft.CurrentRosterID)
		if err != nil {
			return Fatal("nominator user lookup failed", err)
		}

		nominator = &domain.Nominator{RosterID: *draft.CurrentRosterID, UserID: userID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return nominator, nil
}
