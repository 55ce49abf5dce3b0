package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftforge/fastauction/internal/domain"
)

// PostgresDraftStore is the production DraftStore, grounded on the
// source's repository pattern (Save/GetByID/query-by-predicate over a
// *pgxpool.Pool within a caller-supplied transaction).
type PostgresDraftStore struct {
	pool *pgxpool.Pool
}

func NewPostgresDraftStore(pool *pgxpool.Pool) *PostgresDraftStore {
	return &PostgresDraftStore{pool: pool}
}

func (s *PostgresDraftStore) scanDraft(row pgx.Row) (*domain.Draft, error) {
	var d domain.Draft
	var settingsJSON []byte
	err := row.Scan(
		&d.ID, &d.LeagueID, &d.Status, &d.DraftType, &d.CurrentPick,
		&d.CurrentRosterID, &d.PickDeadline, &settingsJSON, &d.CreatedAt, &d.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	settings := domain.DefaultSettings()
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &settings); err != nil {
			return nil, err
		}
	}
	d.Settings = settings
	return &d, nil
}

const draftColumns = `id, league_id, status, draft_type, current_pick, current_roster_id, pick_deadline, settings, created_at, completed_at`

func (s *PostgresDraftStore) GetDraft(ctx context.Context, tx pgx.Tx, draftID int64) (*domain.Draft, error) {
	row := tx.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, draftID)
	return s.scanDraft(row)
}

func (s *PostgresDraftStore) GetDraftForUpdate(ctx context.Context, tx pgx.Tx, draftID int64) (*domain.Draft, error) {
	row := tx.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1 FOR UPDATE`, draftID)
	return s.scanDraft(row)
}

func (s *PostgresDraftStore) UpdateNominator(ctx context.Context, tx pgx.Tx, draftID int64, pick int, rosterID int64, deadline time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE drafts SET current_pick = $1, current_roster_id = $2, pick_deadline = $3
		WHERE id = $4`, pick, rosterID, deadline, draftID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresDraftStore) CompleteDraft(ctx context.Context, tx pgx.Tx, draftID int64, completedAt time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE drafts SET status = 'completed', completed_at = $1, current_roster_id = NULL, pick_deadline = NULL
		WHERE id = $2`, completedAt, draftID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresDraftStore) GetDraftOrder(ctx context.Context, tx pgx.Tx, draftID int64) ([]domain.DraftOrderEntry, error) {
	rows, err := tx.Query(ctx, `
		SELECT draft_id, roster_id, draft_position FROM draft_order
		WHERE draft_id = $1 ORDER BY draft_position ASC`, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DraftOrderEntry
	for rows.Next() {
		var e domain.DraftOrderEntry
		if err := rows.Scan(&e.DraftID, &e.RosterID, &e.DraftPosition); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetRosterBudgetSnapshots computes the (spent, wonCount, leadingCommitment)
// triple for every roster that has a draft_order entry in this draft,
// per the derivation in spec §3.
func (s *PostgresDraftStore) GetRosterBudgetSnapshots(ctx context.Context, tx pgx.Tx, draftID int64) ([]domain.RosterBudgetSnapshot, error) {
	rows, err := tx.Query(ctx, `
		SELECT
			o.roster_id,
			COALESCE((SELECT SUM(l.winning_bid) FROM auction_lots l
				WHERE l.draft_id = $1 AND l.status = 'won' AND l.winning_roster_id = o.roster_id), 0) AS spent,
			COALESCE((SELECT COUNT(*) FROM auction_lots l
				WHERE l.draft_id = $1 AND l.status = 'won' AND l.winning_roster_id = o.roster_id), 0) AS won_count,
			COALESCE((SELECT SUM(l.current_bid) FROM auction_lots l
				WHERE l.draft_id = $1 AND l.status = 'active' AND l.current_bidder_roster_id = o.roster_id), 0) AS leading_commitment
		FROM draft_order o
		WHERE o.draft_id = $1`, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RosterBudgetSnapshot
	for rows.Next() {
		var snap domain.RosterBudgetSnapshot
		if err := rows.Scan(&snap.RosterID, &snap.Spent, &snap.WonCount, &snap.LeadingCommitment); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *PostgresDraftStore) GetRosterBudgetSnapshot(ctx context.Context, tx pgx.Tx, draftID, rosterID int64) (domain.RosterBudgetSnapshot, error) {
	var snap domain.RosterBudgetSnapshot
	snap.RosterID = rosterID
	err := tx.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(winning_bid) FROM auction_lots
				WHERE draft_id = $1 AND status = 'won' AND winning_roster_id = $2), 0),
			COALESCE((SELECT COUNT(*) FROM auction_lots
				WHERE draft_id = $1 AND status = 'won' AND winning_roster_id = $2), 0),
			COALESCE((SELECT SUM(current_bid) FROM auction_lots
				WHERE draft_id = $1 AND status = 'active' AND current_bidder_roster_id = $2), 0)
	`, draftID, rosterID).Scan(&snap.Spent, &snap.WonCount, &snap.LeadingCommitment)
	if err != nil {
		return domain.RosterBudgetSnapshot{}, err
	}
	return snap, nil
}

func (s *PostgresDraftStore) IsPlayerDrafted(ctx context.Context, tx pgx.Tx, draftID, playerID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM auction_lots
			WHERE draft_id = $1 AND player_id = $2 AND status IN ('active', 'won')
		)`, draftID, playerID).Scan(&exists)
	return exists, err
}

func (s *PostgresDraftStore) NominatorUserID(ctx context.Context, tx pgx.Tx, rosterID int64) (int64, error) {
	var userID int64
	err := tx.QueryRow(ctx, `SELECT user_id FROM rosters WHERE id = $1`, rosterID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return userID, err
}

func (s *PostgresDraftStore) ListExpiredNominations(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id FROM drafts d
		WHERE d.status = 'in_progress'
		  AND d.draft_type = 'auction'
		  AND d.pick_deadline IS NOT NULL
		  AND d.pick_deadline <= $1
		  AND NOT EXISTS (SELECT 1 FROM auction_lots l WHERE l.draft_id = d.id AND l.status = 'active')`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
