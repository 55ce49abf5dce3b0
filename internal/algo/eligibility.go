package algo

import (
	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/domain"
)

// EligibilityReason names why a roster is or is not eligible to
// nominate or receive a lot.
type EligibilityReason string

const (
	ReasonEligible           EligibilityReason = "eligible"
	ReasonRosterFull         EligibilityReason = "roster_full"
	ReasonInsufficientBudget EligibilityReason = "insufficient_budget"
)

// Eligibility is the outcome of AssessNominatorEligibility.
type Eligibility struct {
	Eligible bool
	Reason   EligibilityReason
}

// AssessNominatorEligibility implements spec §4.1.
func AssessNominatorEligibility(
	snap domain.RosterBudgetSnapshot,
	totalBudget decimal.Decimal,
	rosterSlots int,
	minBid decimal.Decimal,
) Eligibility {
	if snap.WonCount >= rosterSlots {
		return Eligibility{Eligible: false, Reason: ReasonRosterFull}
	}
	if !CanAffordMinBid(totalBudget, rosterSlots, snap, minBid) {
		return Eligibility{Eligible: false, Reason: ReasonInsufficientBudget}
	}
	return Eligibility{Eligible: true, Reason: ReasonEligible}
}

// TimeoutDispatch is the outcome of ResolveTimeoutAction.
type TimeoutDispatch string

const (
	DispatchCreateLotWithOpenBid TimeoutDispatch = "create_lot_with_open_bid"
	DispatchCreateLotNoOpenBid   TimeoutDispatch = "create_lot_no_open_bid"
	DispatchSkip                 TimeoutDispatch = "skip"
)

// ResolveTimeoutAction implements spec §4.1.
func ResolveTimeoutAction(
	action domain.TimeoutAction,
	hasEligiblePlayer bool,
	eligibility Eligibility,
) TimeoutDispatch {
	if action == domain.AutoSkipNominator {
		return DispatchSkip
	}
	if !hasEligiblePlayer || !eligibility.Eligible {
		return DispatchSkip
	}
	if action == domain.AutoNominateNoOpenBid {
		return DispatchCreateLotNoOpenBid
	}
	return DispatchCreateLotWithOpenBid
}
