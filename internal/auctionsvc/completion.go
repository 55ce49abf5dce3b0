package auctionsvc

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/lockmgr"
	"github.com/draftforge/fastauction/internal/metrics"
)

// complete implements spec §4.7: marks the draft completed and hands
// off to the finalizer within the same transaction so a finalizer
// failure rolls the completion back too.
func (s *Service) complete(ctx context.Context, draftID int64) error {
	ctx, end := s.span(ctx, "auctionsvc.complete")
	defer end()

	var leagueID int64
	var already bool

	err := s.runner.RunLocked(ctx, lockmgr.Draft, draftID, func(ctx context.Context, tx pgx.Tx) error {
		draft, err := s.drafts.GetDraftForUpdate(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}
		if draft.Status == domain.DraftCompleted {
			already = true
			return nil
		}
		leagueID = draft.LeagueID

		if err := s.drafts.CompleteDraft(ctx, tx, draftID, s.clock.Now()); err != nil {
			return Fatal("mark draft completed failed", err)
		}
		if err := s.final.Finalize(ctx, tx, draftID, leagueID); err != nil {
			return Fatal("finalize draft failed", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	metrics.DraftsCompletedTotal.Inc()
	s.events.Publish(domain.DraftCompletedEvent{
		DraftID:  draftID,
		LeagueID: leagueID,
	})
	return nil
}
