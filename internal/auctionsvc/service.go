// Package auctionsvc is the fast auction engine's service layer (spec
// §4): nomination, bidding, rotation, settlement, and completion, each
// bracketed by the lock discipline in internal/txrunner and
// internal/lockmgr, with pure decisions delegated to internal/algo.
package auctionsvc

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/clock"
	"github.com/draftforge/fastauction/internal/eventbus"
	"github.com/draftforge/fastauction/internal/finalizer"
	"github.com/draftforge/fastauction/internal/store"
	"github.com/draftforge/fastauction/internal/tracing"
	"github.com/draftforge/fastauction/internal/txrunner"
)

// PlayerSelector is the external collaborator consulted during
// auto-nomination to choose the best available player for a roster
// (spec §4.5: queue, then ADP, then any eligible player). It is
// outside this engine's scope (spec §1, Non-goals) — the service only
// defines the contract.
type PlayerSelector interface {
	// SelectPlayer returns a playerID, or ok=false if no eligible
	// player remains in the draft for rosterID.
	SelectPlayer(ctx context.Context, draftID, rosterID int64) (playerID int64, ok bool, err error)
}

// Service is the fast auction engine's constructor-injected
// implementation of the operations in spec §6: nominate, setMaxBid,
// advanceNominator, forceAdvanceNominator, autoNominate, getState,
// getCurrentNominator. See the package doc for the lock discipline it
// upholds.
type Service struct {
	runner   *txrunner.Runner
	drafts   store.DraftStore
	lots     store.LotStore
	rosters  store.RosterStore
	clock    clock.Clock
	events   *eventbus.Bus
	final    finalizer.Finalizer
	selector PlayerSelector
	logger   *slog.Logger

	smartFallbackCap *decimal.Decimal
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithSmartFallbackCap bounds the proxy bid an auto-nomination places
// on behalf of an AFK roster (spec §4.5, §9). Without this option the
// smart fallback is disabled: auto-nominated lots open with the
// nominator's proxy bid at minBid unless a per-draft SmartFallbackCap
// setting applies instead.
func WithSmartFallbackCap(ceiling decimal.Decimal) Option {
	return func(s *Service) { s.smartFallbackCap = &ceiling }
}

func New(
	runner *txrunner.Runner,
	drafts store.DraftStore,
	lots store.LotStore,
	rosters store.RosterStore,
	clk clock.Clock,
	events *eventbus.Bus,
	final finalizer.Finalizer,
	selector PlayerSelector,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		runner:   runner,
		drafts:   drafts,
		lots:     lots,
		rosters:  rosters,
		clock:    clk,
		events:   events,
		final:    final,
		selector: selector,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) span(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := tracing.StartSpan(ctx, name)
	return ctx, span.End
}
