package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRosterStore is the production RosterStore.
type PostgresRosterStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRosterStore(pool *pgxpool.Pool) *PostgresRosterStore {
	return &PostgresRosterStore{pool: pool}
}

func (s *PostgresRosterStore) RosterForUser(ctx context.Context, tx pgx.Tx, leagueID, userID int64) (int64, error) {
	var rosterID int64
	err := tx.QueryRow(ctx, `
		SELECT id FROM rosters WHERE league_id = $1 AND user_id = $2`, leagueID, userID).Scan(&rosterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return rosterID, err
}

func (s *PostgresRosterStore) RosterLeagueID(ctx context.Context, tx pgx.Tx, rosterID int64) (int64, error) {
	var leagueID int64
	err := tx.QueryRow(ctx, `SELECT league_id FROM rosters WHERE id = $1`, rosterID).Scan(&leagueID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return leagueID, err
}
