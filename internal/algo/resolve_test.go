package algo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestResolveSecondPrice_NoProxyBids(t *testing.T) {
	res := ResolveSecondPrice(d(5), nil, nil, d(1), d(1), 0)
	assert.Nil(t, res)
}

func TestResolveSecondPrice_OpeningBidFloor(t *testing.T) {
	// Scenario 1: lot created at current_bid=5, no leader; A places max=1.
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	proxyBids := []ProxyBid{{RosterID: 1, MaxBid: d(1), CreatedAt: t0}}

	res := ResolveSecondPrice(d(5), nil, proxyBids, d(1), d(1), 0)

	require.NotNil(t, res)
	assert.Equal(t, int64(1), res.NewLeaderRosterID)
	assert.True(t, res.NewPrice.Equal(d(5)))
	assert.True(t, res.LeaderChanged)
	assert.False(t, res.PriceChanged)
	assert.Nil(t, res.Outbid, "no previous leader, no outbid notice")
}

func TestResolveSecondPrice_MonotonicGuard(t *testing.T) {
	// Scenario 2: current_bid=20, leader=A(max=25); B places max=15.
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)
	leaderA := int64(1)
	proxyBids := []ProxyBid{
		{RosterID: 1, MaxBid: d(25), CreatedAt: t0},
		{RosterID: 2, MaxBid: d(15), CreatedAt: t1},
	}

	res := ResolveSecondPrice(d(20), &leaderA, proxyBids, d(1), d(1), 3)

	require.NotNil(t, res)
	// min(25, 15+1)=16, monotonic guard raises to 20.
	assert.True(t, res.NewPrice.Equal(d(20)))
	assert.Equal(t, int64(1), res.NewLeaderRosterID)
	assert.False(t, res.LeaderChanged)
	assert.False(t, res.PriceChanged)
	assert.Equal(t, 3, res.NewBidCount, "price did not change, bid count unchanged")
	assert.Nil(t, res.Outbid)
}

func TestResolveSecondPrice_NormalOvertake(t *testing.T) {
	// Scenario 3: current_bid=10, leader=B(max=30); A places max=50.
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)
	leaderB := int64(2)
	proxyBids := []ProxyBid{
		{RosterID: 1, MaxBid: d(50), CreatedAt: t1},
		{RosterID: 2, MaxBid: d(30), CreatedAt: t0},
	}

	res := ResolveSecondPrice(d(10), &leaderB, proxyBids, d(1), d(1), 4)

	require.NotNil(t, res)
	assert.Equal(t, int64(1), res.NewLeaderRosterID)
	assert.True(t, res.NewPrice.Equal(d(31)))
	assert.True(t, res.LeaderChanged)
	assert.True(t, res.PriceChanged)
	assert.Equal(t, 5, res.NewBidCount)
	require.NotNil(t, res.Outbid)
	assert.Equal(t, int64(2), res.Outbid.PreviousLeaderRosterID)
	assert.True(t, res.Outbid.PreviousBid.Equal(d(10)))
	assert.True(t, res.Outbid.NewLeadingBid.Equal(d(31)))
}

func TestResolveSecondPrice_LeaderRaisingOwnCeiling(t *testing.T) {
	// Scenario 4: current_bid=5, leader=A(max=10); A places max=100.
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	leaderA := int64(1)
	proxyBids := []ProxyBid{{RosterID: 1, MaxBid: d(100), CreatedAt: t0}}

	res := ResolveSecondPrice(d(5), &leaderA, proxyBids, d(1), d(1), 1)

	require.NotNil(t, res)
	assert.Equal(t, int64(1), res.NewLeaderRosterID)
	assert.True(t, res.NewPrice.Equal(d(5)))
	assert.False(t, res.LeaderChanged)
	assert.False(t, res.PriceChanged)
	assert.Nil(t, res.Outbid)
}

// L1 Second-price symmetry: swapping arrival order of two proxy bids with
// distinct max_bid does not change the resolved leader nor price.
func TestResolveSecondPrice_SymmetryUnderArrivalOrder(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)

	order1 := []ProxyBid{
		{RosterID: 1, MaxBid: d(50), CreatedAt: t0},
		{RosterID: 2, MaxBid: d(30), CreatedAt: t1},
	}
	order2 := []ProxyBid{
		{RosterID: 2, MaxBid: d(30), CreatedAt: t1},
		{RosterID: 1, MaxBid: d(50), CreatedAt: t0},
	}

	r1 := ResolveSecondPrice(d(10), nil, order1, d(1), d(1), 0)
	r2 := ResolveSecondPrice(d(10), nil, order2, d(1), d(1), 0)

	require.NotNil(t, r1)
	require.NotNil(t, r2)
	assert.Equal(t, r1.NewLeaderRosterID, r2.NewLeaderRosterID)
	assert.True(t, r1.NewPrice.Equal(r2.NewPrice))
}

func TestResolveSecondPrice_TieBreakByEarliestInsertion(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)
	proxyBids := []ProxyBid{
		{RosterID: 2, MaxBid: d(40), CreatedAt: t1},
		{RosterID: 1, MaxBid: d(40), CreatedAt: t0},
	}

	res := ResolveSecondPrice(d(10), nil, proxyBids, d(1), d(1), 0)

	require.NotNil(t, res)
	assert.Equal(t, int64(1), res.NewLeaderRosterID, "earlier bidder leads on tie")
}
