// Package selector implements the external player-selection
// collaborator auto-nomination consults (spec §4.5 step a): the
// nominator's queue, then league-wide ADP, then any eligible player.
// The policy that orders a roster's queue or computes ADP is out of
// this engine's scope (spec §1, Non-goals); this package only reads
// whatever those collaborators have already written.
package selector

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPlayerSelector satisfies auctionsvc.PlayerSelector structurally
// (this package intentionally does not import auctionsvc, to keep the
// dependency edge pointing one way: auctionsvc -> store/selector).
type PostgresPlayerSelector struct {
	pool *pgxpool.Pool
}

func NewPostgresPlayerSelector(pool *pgxpool.Pool) *PostgresPlayerSelector {
	return &PostgresPlayerSelector{pool: pool}
}

// SelectPlayer returns the next player a roster should be auto-nominated
// for, trying the roster's queue first, then league-wide ADP, then any
// eligible undrafted player in the league.
func (s *PostgresPlayerSelector) SelectPlayer(ctx context.Context, draftID, rosterID int64) (int64, bool, error) {
	if playerID, ok, err := s.fromQueue(ctx, draftID, rosterID); err != nil {
		return 0, false, err
	} else if ok {
		return playerID, true, nil
	}

	if playerID, ok, err := s.fromADP(ctx, draftID); err != nil {
		return 0, false, err
	} else if ok {
		return playerID, true, nil
	}

	return s.anyEligible(ctx, draftID)
}

func (s *PostgresPlayerSelector) fromQueue(ctx context.Context, draftID, rosterID int64) (int64, bool, error) {
	var playerID int64
	err := s.pool.QueryRow(ctx, `
		SELECT q.player_id
		FROM nomination_queue q
		JOIN drafts d ON d.id = $1
		WHERE q.roster_id = $2
		  AND NOT EXISTS (
		      SELECT 1 FROM auction_lots l
		      WHERE l.draft_id = $1 AND l.player_id = q.player_id AND l.status IN ('active', 'won')
		  )
		ORDER BY q.priority ASC
		LIMIT 1`, draftID, rosterID).Scan(&playerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return playerID, true, nil
}

func (s *PostgresPlayerSelector) fromADP(ctx context.Context, draftID int64) (int64, bool, error) {
	var playerID int64
	err := s.pool.QueryRow(ctx, `
		SELECT a.player_id
		FROM adp_rankings a
		JOIN drafts d ON d.id = $1
		JOIN leagues lg ON lg.id = d.league_id
		WHERE a.sport = lg.sport
		  AND NOT EXISTS (
		      SELECT 1 FROM auction_lots l
		      WHERE l.draft_id = $1 AND l.player_id = a.player_id AND l.status IN ('active', 'won')
		  )
		ORDER BY a.adp_rank ASC
		LIMIT 1`, draftID).Scan(&playerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return playerID, true, nil
}

func (s *PostgresPlayerSelector) anyEligible(ctx context.Context, draftID int64) (int64, bool, error) {
	var playerID int64
	err := s.pool.QueryRow(ctx, `
		SELECT p.id
		FROM players p
		JOIN drafts d ON d.id = $1
		JOIN leagues lg ON lg.id = d.league_id
		WHERE p.sport = lg.sport
		  AND NOT EXISTS (
		      SELECT 1 FROM auction_lots l
		      WHERE l.draft_id = $1 AND l.player_id = p.id AND l.status IN ('active', 'won')
		  )
		ORDER BY p.id ASC
		LIMIT 1`, draftID).Scan(&playerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return playerID, true, nil
}
