package algo

import (
	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/domain"
)

// CalculateMaxAffordableBid implements spec §4.1. The result may be
// negative; callers treat a negative result as "zero afford".
func CalculateMaxAffordableBid(
	totalBudget decimal.Decimal,
	rosterSlots int,
	snap domain.RosterBudgetSnapshot,
	currentLotBid decimal.Decimal,
	isLeadingThisLot bool,
	minBid decimal.Decimal,
) decimal.Decimal {
	remainingSlots := rosterSlots - snap.WonCount - 1
	reserve := decimal.Zero
	if remainingSlots > 0 {
		reserve = minBid.Mul(decimal.NewFromInt(int64(remainingSlots)))
	}

	base := totalBudget.Sub(snap.Spent).Sub(reserve).Sub(snap.LeadingCommitment)
	if isLeadingThisLot {
		base = base.Add(currentLotBid)
	}
	return base
}

// CanAffordMinBid implements spec §4.1.
func CanAffordMinBid(
	totalBudget decimal.Decimal,
	rosterSlots int,
	snap domain.RosterBudgetSnapshot,
	minBid decimal.Decimal,
) bool {
	max := CalculateMaxAffordableBid(totalBudget, rosterSlots, snap, decimal.Zero, false, minBid)
	return minBid.LessThanOrEqual(max)
}
