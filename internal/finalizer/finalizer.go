// Package finalizer defines the completion finalizer invoked when a
// draft finishes (spec §4.7): an external collaborator materializing
// won lots onto rosters and generating the league's schedule, given the
// same transaction's connection so it participates in the DRAFT-locked
// commit. This package owns only the seam; league/schedule domain logic
// lives outside the auction engine's scope (spec §1, Non-goals).
package finalizer

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Finalizer materializes the consequences of a completed draft. It
// runs inside the same transaction as the completion update, so a
// failure here rolls back the completion too.
type Finalizer interface {
	Finalize(ctx context.Context, tx pgx.Tx, draftID, leagueID int64) error
}

// NoopFinalizer satisfies Finalizer for deployments that materialize
// rosters out of band (e.g. a separate batch job watching
// draft:completed). It performs no writes.
type NoopFinalizer struct{}

func (NoopFinalizer) Finalize(ctx context.Context, tx pgx.Tx, draftID, leagueID int64) error {
	return nil
}

// RosterMaterializer is the default Finalizer: it copies each won lot
// onto its winning roster's player pool and marks the league ready for
// schedule generation. The actual schedule algorithm is an external
// collaborator's responsibility (spec §1 scopes it out); this type only
// flips the flag the scheduler polls.
type RosterMaterializer struct{}

func NewRosterMaterializer() *RosterMaterializer {
	return &RosterMaterializer{}
}

func (m *RosterMaterializer) Finalize(ctx context.Context, tx pgx.Tx, draftID, leagueID int64) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO roster_players (roster_id, player_id, acquired_via, acquired_price, draft_id)
		SELECT winning_roster_id, player_id, 'draft', winning_bid, draft_id
		FROM auction_lots
		WHERE draft_id = $1 AND status = 'won'
		ON CONFLICT (roster_id, player_id) DO NOTHING`, draftID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leagues SET schedule_generation_pending = true WHERE id = $1`, leagueID); err != nil {
		return err
	}

	return nil
}
