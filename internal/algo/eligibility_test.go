package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/draftforge/fastauction/internal/domain"
)

func TestAssessNominatorEligibility(t *testing.T) {
	full := domain.RosterBudgetSnapshot{WonCount: 15, Spent: d(0), LeadingCommitment: d(0)}
	got := AssessNominatorEligibility(full, d(200), 15, d(1))
	assert.False(t, got.Eligible)
	assert.Equal(t, ReasonRosterFull, got.Reason)

	broke := domain.RosterBudgetSnapshot{WonCount: 0, Spent: d(200), LeadingCommitment: d(0)}
	got = AssessNominatorEligibility(broke, d(200), 15, d(1))
	assert.False(t, got.Eligible)
	assert.Equal(t, ReasonInsufficientBudget, got.Reason)

	fresh := domain.RosterBudgetSnapshot{WonCount: 0, Spent: d(0), LeadingCommitment: d(0)}
	got = AssessNominatorEligibility(fresh, d(200), 15, d(1))
	assert.True(t, got.Eligible)
	assert.Equal(t, ReasonEligible, got.Reason)
}

// Scenario 7: nominator skip cycle — r1 full, r2 can't afford, r3 eligible.
func TestAssessNominatorEligibility_SkipCycle(t *testing.T) {
	r1 := domain.RosterBudgetSnapshot{WonCount: 15, Spent: d(0), LeadingCommitment: d(0)}
	r2 := domain.RosterBudgetSnapshot{WonCount: 0, Spent: d(200), LeadingCommitment: d(0)}
	r3 := domain.RosterBudgetSnapshot{WonCount: 0, Spent: d(0), LeadingCommitment: d(0)}

	assert.False(t, AssessNominatorEligibility(r1, d(200), 15, d(1)).Eligible)
	assert.False(t, AssessNominatorEligibility(r2, d(200), 15, d(1)).Eligible)
	assert.True(t, AssessNominatorEligibility(r3, d(200), 15, d(1)).Eligible)
}

func TestResolveTimeoutAction(t *testing.T) {
	eligible := Eligibility{Eligible: true, Reason: ReasonEligible}
	ineligible := Eligibility{Eligible: false, Reason: ReasonRosterFull}

	assert.Equal(t, DispatchSkip, ResolveTimeoutAction(domain.AutoSkipNominator, true, eligible))
	assert.Equal(t, DispatchSkip, ResolveTimeoutAction(domain.AutoNominateAndOpenBid, false, eligible))
	assert.Equal(t, DispatchSkip, ResolveTimeoutAction(domain.AutoNominateAndOpenBid, true, ineligible))
	assert.Equal(t, DispatchCreateLotWithOpenBid, ResolveTimeoutAction(domain.AutoNominateAndOpenBid, true, eligible))
	assert.Equal(t, DispatchCreateLotNoOpenBid, ResolveTimeoutAction(domain.AutoNominateNoOpenBid, true, eligible))
}
