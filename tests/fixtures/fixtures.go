package fixtures

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestUser creates a user row that a roster can be attached to.
func TestUser(t *testing.T, db *pgxpool.Pool) int64 {
	t.Helper()
	ctx := context.Background()

	email := fmt.Sprintf("testuser-%s@example.com", uuid.New().String()[:8])
	subject := fmt.Sprintf("sub_%s", uuid.New().String()[:8])

	var userID int64
	err := db.QueryRow(ctx, `
		INSERT INTO users (external_subject, email)
		VALUES ($1, $2)
		RETURNING id
	`, subject, email).Scan(&userID)
	require.NoError(t, err)

	return userID
}

// TestLeague creates a league in the given sport.
func TestLeague(t *testing.T, db *pgxpool.Pool, sport string) int64 {
	t.Helper()
	ctx := context.Background()

	var leagueID int64
	err := db.QueryRow(ctx, `
		INSERT INTO leagues (sport, schedule_generation_pending)
		VALUES ($1, false)
		RETURNING id
	`, sport).Scan(&leagueID)
	require.NoError(t, err)

	return leagueID
}

// TestRoster creates a roster owned by userID in leagueID.
func TestRoster(t *testing.T, db *pgxpool.Pool, leagueID, userID int64) int64 {
	t.Helper()
	ctx := context.Background()

	var rosterID int64
	err := db.QueryRow(ctx, `
		INSERT INTO rosters (league_id, user_id)
		VALUES ($1, $2)
		RETURNING id
	`, leagueID, userID).Scan(&rosterID)
	require.NoError(t, err)

	return rosterID
}

// TestPlayer creates a player eligible for the given sport.
func TestPlayer(t *testing.T, db *pgxpool.Pool, sport string) int64 {
	t.Helper()
	ctx := context.Background()

	var playerID int64
	err := db.QueryRow(ctx, `
		INSERT INTO players (sport, name)
		VALUES ($1, $2)
		RETURNING id
	`, sport, fmt.Sprintf("Player %s", uuid.New().String()[:8])).Scan(&playerID)
	require.NoError(t, err)

	return playerID
}

// DraftOpts customizes TestDraft beyond the spec defaults.
type DraftOpts struct {
	MinBid                decimal.Decimal
	MinIncrement          decimal.Decimal
	NominationSeconds     int
	ResetOnBidSeconds     int
	MaxLotDurationSeconds *int
	AuctionBudget         decimal.Decimal
	RosterSlots           int
}

// TestDraft creates an in-progress fast-auction draft over the given
// roster order, with rosterOrder[0] as the current nominator.
func TestDraft(t *testing.T, db *pgxpool.Pool, leagueID int64, rosterOrder []int64, opts DraftOpts) int64 {
	t.Helper()
	ctx := context.Background()

	if opts.MinBid.IsZero() {
		opts.MinBid = decimal.NewFromInt(1)
	}
	if opts.MinIncrement.IsZero() {
		opts.MinIncrement = decimal.NewFromInt(1)
	}
	if opts.NominationSeconds == 0 {
		opts.NominationSeconds = 60
	}
	if opts.AuctionBudget.IsZero() {
		opts.AuctionBudget = decimal.NewFromInt(200)
	}
	if opts.RosterSlots == 0 {
		opts.RosterSlots = 15
	}

	settings := fmt.Sprintf(`{
		"minBid": %s, "minIncrement": %s, "nominationSeconds": %d,
		"resetOnBidSeconds": %d, "fastAuctionTimeoutAction": "auto_nominate_and_open_bid",
		"auctionBudget": %s, "rosterSlots": %d
	}`, opts.MinBid.String(), opts.MinIncrement.String(), opts.NominationSeconds,
		opts.ResetOnBidSeconds, opts.AuctionBudget.String(), opts.RosterSlots)

	var firstRoster *int64
	var deadline *time.Time
	if len(rosterOrder) > 0 {
		firstRoster = &rosterOrder[0]
		d := time.Now().Add(time.Duration(opts.NominationSeconds) * time.Second)
		deadline = &d
	}

	var draftID int64
	err := db.QueryRow(ctx, `
		INSERT INTO drafts (league_id, status, draft_type, current_pick, current_roster_id, pick_deadline, settings)
		VALUES ($1, 'in_progress', 'auction', 0, $2, $3, $4::jsonb)
		RETURNING id
	`, leagueID, firstRoster, deadline, settings).Scan(&draftID)
	require.NoError(t, err)

	for i, rosterID := range rosterOrder {
		_, err := db.Exec(ctx, `
			INSERT INTO draft_order (draft_id, roster_id, draft_position)
			VALUES ($1, $2, $3)
		`, draftID, rosterID, i)
		require.NoError(t, err)
	}

	return draftID
}

// TestActiveLot creates an active lot nominated by nominatorRosterID
// and opened at minBid by the same roster, mirroring Nominate's effect
// — including the IsOpeningBid flag Nominate sets on that proxy bid
// (spec §4.6: an untouched opening bid alone does not make a lot
// contested). Use TestProxyBid afterward to add a genuine rival bid.
func TestActiveLot(t *testing.T, db *pgxpool.Pool, draftID, playerID, nominatorRosterID int64, minBid decimal.Decimal, deadline time.Time) int64 {
	t.Helper()
	ctx := context.Background()

	var lotID int64
	err := db.QueryRow(ctx, `
		INSERT INTO auction_lots
			(draft_id, player_id, nominator_roster_id, current_bid, current_bidder_roster_id, bid_count, bid_deadline, status)
		VALUES ($1, $2, $3, $4, $3, 0, $5, 'active')
		RETURNING id
	`, draftID, playerID, nominatorRosterID, minBid, deadline).Scan(&lotID)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO auction_proxy_bids (lot_id, roster_id, max_bid, is_opening_bid, updated_at)
		VALUES ($1, $2, $3, true, NOW())
	`, lotID, nominatorRosterID, minBid)
	require.NoError(t, err)

	return lotID
}

// TestProxyBid records a genuine proxy bid for rosterID on lotID — an
// actual bid action, never the passive opening stub TestActiveLot
// already inserted (is_opening_bid = false, even when rosterID is the
// lot's own nominator raising their ceiling; see
// domain.AuctionProxyBid).
func TestProxyBid(t *testing.T, db *pgxpool.Pool, lotID, rosterID int64, maxBid decimal.Decimal) {
	t.Helper()
	ctx := context.Background()

	_, err := db.Exec(ctx, `
		INSERT INTO auction_proxy_bids (lot_id, roster_id, max_bid, is_opening_bid, updated_at)
		VALUES ($1, $2, $3, false, NOW())
		ON CONFLICT (lot_id, roster_id) DO UPDATE SET max_bid = EXCLUDED.max_bid, is_opening_bid = false, updated_at = EXCLUDED.updated_at
	`, lotID, rosterID, maxBid)
	require.NoError(t, err)
}

// TestWonLot creates an already-settled won lot so budget snapshots
// (spec §3) have something to sum over.
func TestWonLot(t *testing.T, db *pgxpool.Pool, draftID, playerID, winningRosterID int64, winningBid decimal.Decimal) int64 {
	t.Helper()
	ctx := context.Background()

	var lotID int64
	err := db.QueryRow(ctx, `
		INSERT INTO auction_lots
			(draft_id, player_id, nominator_roster_id, current_bid, current_bidder_roster_id, bid_count, status, winning_roster_id, winning_bid)
		VALUES ($1, $2, $3, $4, $3, 1, 'won', $3, $4)
		RETURNING id
	`, draftID, playerID, winningRosterID, winningBid).Scan(&lotID)
	require.NoError(t, err)

	return lotID
}

// CleanupTestData removes all test data (called automatically by
// SetupTestDB's t.Cleanup).
func CleanupTestData(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	tables := []string{
		"auction_bid_history",
		"auction_proxy_bids",
		"auction_lots",
		"roster_players",
		"nomination_queue",
		"draft_order",
		"drafts",
		"rosters",
		"leagues",
		"adp_rankings",
		"players",
		"users",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Logf("Warning: failed to truncate %s: %v", table, err)
		}
	}
}
