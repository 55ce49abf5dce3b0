package auctionsvc_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/fastauction/internal/auctionsvc"
	"github.com/draftforge/fastauction/internal/clock"
	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/eventbus"
	"github.com/draftforge/fastauction/internal/finalizer"
	"github.com/draftforge/fastauction/internal/store"
	"github.com/draftforge/fastauction/internal/txrunner"
	"github.com/draftforge/fastauction/tests/fixtures"
)

type noopSelector struct{}

func (noopSelector) SelectPlayer(ctx context.Context, draftID, rosterID int64) (int64, bool, error) {
	return 0, false, nil
}

// TestSettleLot_FallsBackToNextHighestAffordableBidder exercises spec
// §4.6's fallback walk: the displayed leader can no longer afford the
// price (their budget shrank from a win on a concurrent lot), so
// settlement must walk to the next bidder and re-resolve second price
// against the shrunken set rather than reusing the stale price.
func TestSettleLot_FallsBackToNextHighestAffordableBidder(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("set TEST_DATABASE_URL to run this integration test")
	}

	db := fixtures.SetupTestDBWithMigrations(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	runner := txrunner.New(db)
	drafts := store.NewPostgresDraftStore(db)
	lots := store.NewPostgresLotStore(db)
	rosters := store.NewPostgresRosterStore(db)
	bus := eventbus.New(logger)
	bus.Start()
	defer bus.Stop()

	svc := auctionsvc.New(runner, drafts, lots, rosters, clock.Real{}, bus, finalizer.NoopFinalizer{}, noopSelector{}, logger)

	league := fixtures.TestLeague(t, db, "football")
	userA := fixtures.TestUser(t, db)
	userB := fixtures.TestUser(t, db)
	rosterA := fixtures.TestRoster(t, db, league, userA)
	rosterB := fixtures.TestRoster(t, db, league, userB)

	draftID := fixtures.TestDraft(t, db, league, []int64{rosterA, rosterB}, fixtures.DraftOpts{
		AuctionBudget: decimal.NewFromInt(10),
		RosterSlots:   1,
	})

	playerWon := fixtures.TestPlayer(t, db, "football")
	fixtures.TestWonLot(t, db, draftID, playerWon, rosterA, decimal.NewFromInt(10))

	playerUp := fixtures.TestPlayer(t, db, "football")
	deadline := time.Now().Add(-1 * time.Second)
	// rosterA is the displayed leader at 3 (rosterB's 2 + 1) but already
	// filled its only slot on the lot above.
	lotID := fixtures.TestActiveLot(t, db, draftID, playerUp, rosterA, decimal.NewFromInt(3), deadline)
	fixtures.TestProxyBid(t, db, lotID, rosterA, decimal.NewFromInt(5))
	fixtures.TestProxyBid(t, db, lotID, rosterB, decimal.NewFromInt(2))

	err := svc.SettleLot(context.Background(), draftID, lotID)
	require.NoError(t, err)

	// rosterB wins at the price re-resolved against {rosterB} alone
	// (minBid 1), not at the stale displayed price of 3.
	var status string
	var winningRosterID *int64
	var winningBid decimal.Decimal
	err = db.QueryRow(context.Background(), `
		SELECT status, winning_roster_id, winning_bid FROM auction_lots WHERE id = $1`, lotID,
	).Scan(&status, &winningRosterID, &winningBid)
	require.NoError(t, err)
	assert.Equal(t, string(domain.LotWon), status)
	require.NotNil(t, winningRosterID)
	assert.Equal(t, rosterB, *winningRosterID)
	assert.True(t, winningBid.Equal(decimal.NewFromInt(1)), "got %s", winningBid)

	state, err := svc.GetState(context.Background(), draftID)
	require.NoError(t, err)
	require.Nil(t, state.ActiveLot)
}

// TestSettleLot_UncontestedNominationPasses exercises spec §4.6's
// literal carve-out: "no bidders exist on the lot (no proxy bid other
// than any opening-bidder proxy the nominator placed)". A lot that
// nobody ever bid on beyond the nominator's own automatic opening stake
// must settle passed, not won by the nominator at minBid — this is the
// common case for any nomination no rival contests.
func TestSettleLot_UncontestedNominationPasses(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("set TEST_DATABASE_URL to run this integration test")
	}

	db := fixtures.SetupTestDBWithMigrations(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	runner := txrunner.New(db)
	drafts := store.NewPostgresDraftStore(db)
	lots := store.NewPostgresLotStore(db)
	rosters := store.NewPostgresRosterStore(db)
	bus := eventbus.New(logger)
	bus.Start()
	defer bus.Stop()

	svc := auctionsvc.New(runner, drafts, lots, rosters, clock.Real{}, bus, finalizer.NoopFinalizer{}, noopSelector{}, logger)

	league := fixtures.TestLeague(t, db, "football")
	user := fixtures.TestUser(t, db)
	nominator := fixtures.TestRoster(t, db, league, user)
	draftID := fixtures.TestDraft(t, db, league, []int64{nominator}, fixtures.DraftOpts{})

	player := fixtures.TestPlayer(t, db, "football")
	deadline := time.Now().Add(-1 * time.Second)
	// Only the nominator's automatic opening-bidder proxy exists — no
	// rival ever called SetMaxBid on this lot.
	lotID := fixtures.TestActiveLot(t, db, draftID, player, nominator, decimal.NewFromInt(1), deadline)

	err := svc.SettleLot(context.Background(), draftID, lotID)
	require.NoError(t, err)

	var status string
	var winningRosterID *int64
	err = db.QueryRow(context.Background(), `
		SELECT status, winning_roster_id FROM auction_lots WHERE id = $1`, lotID,
	).Scan(&status, &winningRosterID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.LotPassed), status)
	assert.Nil(t, winningRosterID)

	state, err := svc.GetState(context.Background(), draftID)
	require.NoError(t, err)
	require.Len(t, state.Budgets, 1)
	assert.Equal(t, 0, state.Budgets[0].WonCount, "an unbid lot must not be credited as a win")
}

func TestGetState_ReflectsWonBudget(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("set TEST_DATABASE_URL to run this integration test")
	}

	db := fixtures.SetupTestDBWithMigrations(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	runner := txrunner.New(db)
	drafts := store.NewPostgresDraftStore(db)
	lots := store.NewPostgresLotStore(db)
	rosters := store.NewPostgresRosterStore(db)
	bus := eventbus.New(logger)
	bus.Start()
	defer bus.Stop()

	svc := auctionsvc.New(runner, drafts, lots, rosters, clock.Real{}, bus, finalizer.NoopFinalizer{}, noopSelector{}, logger)

	league := fixtures.TestLeague(t, db, "football")
	user := fixtures.TestUser(t, db)
	roster := fixtures.TestRoster(t, db, league, user)
	draftID := fixtures.TestDraft(t, db, league, []int64{roster}, fixtures.DraftOpts{})

	player := fixtures.TestPlayer(t, db, "football")
	fixtures.TestWonLot(t, db, draftID, player, roster, decimal.NewFromInt(25))

	state, err := svc.GetState(context.Background(), draftID)
	require.NoError(t, err)
	require.Len(t, state.Budgets, 1)

	var found domain.RosterBudgetSnapshot
	for _, b := range state.Budgets {
		if b.RosterID == roster {
			found = b
		}
	}
	require.Equal(t, 1, found.WonCount)
	require.True(t, found.Spent.Equal(decimal.NewFromInt(25)))
}
