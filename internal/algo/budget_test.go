package algo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/draftforge/fastauction/internal/domain"
)

func TestCalculateMaxAffordableBid_BudgetExhaustion(t *testing.T) {
	// Scenario 5: totalBudget=200, rosterSlots=15, spent=0, wonCount=0,
	// leadingCommitment=0, minBid=1 → max affordable 186.
	snap := domain.RosterBudgetSnapshot{WonCount: 0, Spent: d(0), LeadingCommitment: d(0)}

	max := CalculateMaxAffordableBid(d(200), 15, snap, d(0), false, d(1))

	assert.True(t, max.Equal(d(186)), "got %s", max)
	assert.True(t, d(186).LessThanOrEqual(max))
	assert.False(t, d(187).LessThanOrEqual(max))
}

func TestCalculateMaxAffordableBid_LeaderCommitmentReuse(t *testing.T) {
	// Scenario 6: roster leads lot at current_bid=50, spent=100, wonCount=5,
	// leadingCommitment=50, rosterSlots=15, minBid=1, totalBudget=200.
	// remainingSlots=9, reserve=9, base=200-100-9-50=41, +50(lead reuse)=91.
	snap := domain.RosterBudgetSnapshot{WonCount: 5, Spent: d(100), LeadingCommitment: d(50)}

	max := CalculateMaxAffordableBid(d(200), 15, snap, d(50), true, d(1))

	assert.True(t, max.Equal(d(91)), "got %s", max)
	assert.True(t, d(91).LessThanOrEqual(max))
	assert.False(t, d(92).LessThanOrEqual(max))
}

func TestCanAffordMinBid(t *testing.T) {
	// A full roster's arithmetic affordability is untouched here; "full"
	// is an eligibility concern handled by AssessNominatorEligibility.
	full := domain.RosterBudgetSnapshot{WonCount: 15, Spent: d(0), LeadingCommitment: d(0)}
	assert.True(t, CanAffordMinBid(d(200), 15, full, d(1)))

	broke := domain.RosterBudgetSnapshot{WonCount: 0, Spent: d(200), LeadingCommitment: d(0)}
	assert.False(t, CanAffordMinBid(d(200), 15, broke, d(1)))

	fresh := domain.RosterBudgetSnapshot{WonCount: 0, Spent: d(0), LeadingCommitment: d(0)}
	assert.True(t, CanAffordMinBid(d(200), 15, fresh, d(1)))
}
