package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/domain"
)

// PostgresLotStore is the production LotStore.
type PostgresLotStore struct {
	pool *pgxpool.Pool
}

func NewPostgresLotStore(pool *pgxpool.Pool) *PostgresLotStore {
	return &PostgresLotStore{pool: pool}
}

const lotColumns = `id, draft_id, player_id, nominator_roster_id, current_bid, current_bidder_roster_id, bid_count, bid_deadline, status, winning_roster_id, winning_bid, created_at, idempotency_key`

func scanLot(row pgx.Row) (*domain.AuctionLot, error) {
	var l domain.AuctionLot
	err := row.Scan(
		&l.ID, &l.DraftID, &l.PlayerID, &l.NominatorRosterID, &l.CurrentBid,
		&l.CurrentBidderRosterID, &l.BidCount, &l.BidDeadline, &l.Status,
		&l.WinningRosterID, &l.WinningBid, &l.CreatedAt, &l.IdempotencyKey,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (s *PostgresLotStore) GetActiveLotForDraft(ctx context.Context, tx pgx.Tx, draftID int64) (*domain.AuctionLot, error) {
	row := tx.QueryRow(ctx, `SELECT `+lotColumns+` FROM auction_lots WHERE draft_id = $1 AND status = 'active'`, draftID)
	return scanLot(row)
}

func (s *PostgresLotStore) GetLotForUpdate(ctx context.Context, tx pgx.Tx, lotID int64) (*domain.AuctionLot, error) {
	row := tx.QueryRow(ctx, `SELECT `+lotColumns+` FROM auction_lots WHERE id = $1 FOR UPDATE`, lotID)
	return scanLot(row)
}

func (s *PostgresLotStore) GetLotByIdempotencyKey(ctx context.Context, tx pgx.Tx, draftID, playerID int64, idempotencyKey string) (*domain.AuctionLot, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+lotColumns+` FROM auction_lots
		WHERE draft_id = $1 AND player_id = $2 AND idempotency_key = $3`, draftID, playerID, idempotencyKey)
	return scanLot(row)
}

func (s *PostgresLotStore) InsertLot(ctx context.Context, tx pgx.Tx, lot *domain.AuctionLot) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO auction_lots
			(draft_id, player_id, nominator_roster_id, current_bid, current_bidder_roster_id, bid_count, bid_deadline, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8)
		RETURNING id`,
		lot.DraftID, lot.PlayerID, lot.NominatorRosterID, lot.CurrentBid,
		lot.CurrentBidderRosterID, lot.BidDeadline, lot.Status, lot.IdempotencyKey,
	).Scan(&id)
	return id, err
}

// UpdateLotCAS applies spec §4.3 step 8's compare-and-swap: the update
// only takes effect if current_bid and current_bidder_roster_id still
// match what the caller observed under the row lock.
func (s *PostgresLotStore) UpdateLotCAS(
	ctx context.Context, tx pgx.Tx, lotID int64,
	prevBid decimal.Decimal, prevBidder *int64,
	newBid decimal.Decimal, newBidder int64, newBidCount int, newDeadline *time.Time,
) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE auction_lots
		SET current_bid = $1, current_bidder_roster_id = $2, bid_count = $3, bid_deadline = COALESCE($4, bid_deadline)
		WHERE id = $5 AND current_bid = $6 AND current_bidder_roster_id IS NOT DISTINCT FROM $7 AND status = 'active'`,
		newBid, newBidder, newBidCount, newDeadline, lotID, prevBid, prevBidder,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresLotStore) SettleLot(ctx context.Context, tx pgx.Tx, lotID int64, status domain.LotStatus, winningRosterID *int64, winningBid *decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
		UPDATE auction_lots
		SET status = $1, winning_roster_id = $2, winning_bid = $3, bid_deadline = NULL
		WHERE id = $4 AND status = 'active'`,
		status, winningRosterID, winningBid, lotID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertProxyBid records a proxy bid. isOpeningBid marks the automatic
// stake nominate/autoNominate places on the nominator's behalf (spec
// §4.2 step 7, §4.5 step 3c); any bid placed through SetMaxBid passes
// false here, even when the bidder is the nominator raising their own
// ceiling, because that is a real bid action (see domain.AuctionProxyBid).
func (s *PostgresLotStore) UpsertProxyBid(ctx context.Context, tx pgx.Tx, lotID, rosterID int64, maxBid decimal.Decimal, isOpeningBid bool) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO auction_proxy_bids (lot_id, roster_id, max_bid, is_opening_bid, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (lot_id, roster_id) DO UPDATE
		SET max_bid = EXCLUDED.max_bid, is_opening_bid = EXCLUDED.is_opening_bid, updated_at = EXCLUDED.updated_at`,
		lotID, rosterID, maxBid, isOpeningBid)
	return err
}

func (s *PostgresLotStore) GetProxyBids(ctx context.Context, tx pgx.Tx, lotID int64) ([]domain.AuctionProxyBid, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, lot_id, roster_id, max_bid, is_opening_bid, updated_at, created_at
		FROM auction_proxy_bids WHERE lot_id = $1
		ORDER BY max_bid DESC, created_at ASC`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuctionProxyBid
	for rows.Next() {
		var p domain.AuctionProxyBid
		if err := rows.Scan(&p.ID, &p.LotID, &p.RosterID, &p.MaxBid, &p.IsOpeningBid, &p.UpdatedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresLotStore) InsertHistory(ctx context.Context, tx pgx.Tx, h *domain.AuctionBidHistory) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO auction_bid_history (lot_id, roster_id, bid_amount, is_proxy, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lot_id, roster_id, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING`,
		h.LotID, h.RosterID, h.BidAmount, h.IsProxy, h.IdempotencyKey)
	return err
}

func (s *PostgresLotStore) FindHistoryByIdempotencyKey(ctx context.Context, tx pgx.Tx, lotID, rosterID int64, idempotencyKey string) (*domain.AuctionBidHistory, error) {
	var h domain.AuctionBidHistory
	err := tx.QueryRow(ctx, `
		SELECT id, lot_id, roster_id, bid_amount, is_proxy, idempotency_key, created_at
		FROM auction_bid_history
		WHERE lot_id = $1 AND roster_id = $2 AND idempotency_key = $3`, lotID, rosterID, idempotencyKey,
	).Scan(&h.ID, &h.LotID, &h.RosterID, &h.BidAmount, &h.IsProxy, &h.IdempotencyKey, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *PostgresLotStore) ListExpiredActive(ctx context.Context, now time.Time) ([]ExpiredLot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, draft_id FROM auction_lots
		WHERE status = 'active' AND bid_deadline IS NOT NULL AND bid_deadline <= $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []ExpiredLot
	for rows.Next() {
		var e ExpiredLot
		if err := rows.Scan(&e.LotID, &e.DraftID); err != nil {
			return nil, err
		}
		expired = append(expired, e)
	}
	return expired, rows.Err()
}
