package lockmgr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_DistinctAcrossDomains(t *testing.T) {
	a1, a2 := Key(Auction, 5)
	d1, d2 := Key(Draft, 5)
	assert.False(t, a1 == d1 && a2 == d2, "AUCTION(5) and DRAFT(5) must not collide")
}

func TestKey_Stable(t *testing.T) {
	a1, a2 := Key(Auction, 42)
	b1, b2 := Key(Auction, 42)
	assert.Equal(t, a1, b1)
	assert.Equal(t, a2, b2)
}

func TestCheckOrder_AllowsPublishedOrder(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, CheckOrder(ctx, Auction))
	ctx = WithDomain(ctx, Auction)
	require.NoError(t, CheckOrder(ctx, Draft))
	ctx = WithDomain(ctx, Draft)
	require.NoError(t, CheckOrder(ctx, Roster))
}

func TestCheckOrder_RejectsInversion(t *testing.T) {
	ctx := context.Background()
	ctx = WithDomain(ctx, Draft)
	err := CheckOrder(ctx, Auction)
	assert.Error(t, err, "DRAFT held, acquiring AUCTION violates the published order")
}

func TestCheckOrder_RejectsReentry(t *testing.T) {
	ctx := context.Background()
	ctx = WithDomain(ctx, Auction)
	err := CheckOrder(ctx, Auction)
	assert.Error(t, err)
}
