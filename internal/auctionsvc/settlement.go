package auctionsvc

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/algo"
	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/lockmgr"
	"github.com/draftforge/fastauction/internal/metrics"
)

// SettleLot implements spec §4.6. It is invoked by the deadline monitor
// when a lot's bid_deadline passes while status=active. Settlement
// takes AUCTION(lotId) in its own transaction; once that commits, it
// advances the nominator in a second, separately-locked DRAFT(draftId)
// transaction (spec §5: the two locks are never held at once).
func (s *Service) SettleLot(ctx context.Context, draftID, lotID int64) error {
	ctx, end := s.span(ctx, "auctionsvc.SettleLot")
	defer end()

	var outcome string
	var settled bool

	err := s.runner.RunLocked(ctx, lockmgr.Auction, lotID, func(ctx context.Context, tx pgx.Tx) error {
		lot, err := s.lots.GetLotForUpdate(ctx, tx, lotID)
		if err != nil {
			return translateNotFound(err, "lot not found")
		}
		if lot.Status != domain.LotActive {
			return nil // already settled by a concurrent caller; harmless no-op.
		}
		settled = true

		draft, err := s.drafts.GetDraft(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}

		proxyBids, err := s.lots.GetProxyBids(ctx, tx, lotID)
		if err != nil {
			return Fatal("load proxy bids failed", err)
		}

		// spec §4.6: "no bidders exist on the lot" means no proxy bid
		// other than any opening-bidder proxy the nominator placed — the
		// automatic stake nominate/autoNominate leaves on the nominator's
		// behalf is not itself a bid. Excluding it here, rather than from
		// proxyBids generally, keeps it available below for second-price
		// resolution against a genuine rival bidder.
		hasRealBidder := false
		for _, p := range proxyBids {
			if p.IsOpeningBid && p.RosterID == lot.NominatorRosterID {
				continue
			}
			hasRealBidder = true
			break
		}

		if !hasRealBidder {
			outcome = "passed"
			return s.lots.SettleLot(ctx, tx, lotID, domain.LotPassed, nil, nil)
		}

		// First try the lot's displayed leader at the displayed price — the
		// common case. If that bidder can no longer afford it, walk the
		// remaining bidders, re-resolving second price fresh against each
		// smaller set, until one passes validation or the set is exhausted
		// (spec §4.6).
		remaining := make([]algo.ProxyBid, len(proxyBids))
		for i, p := range proxyBids {
			remaining[i] = algo.ProxyBid{RosterID: p.RosterID, MaxBid: p.MaxBid, CreatedAt: p.CreatedAt}
		}

		price := lot.CurrentBid
		leader := lot.CurrentBidderRosterID
		first := true

		for len(remaining) > 0 {
			var candidateRoster int64
			var candidatePrice decimal.Decimal

			if first && leader != nil {
				candidateRoster = *leader
				candidatePrice = price
			} else {
				resolution := algo.ResolveSecondPrice(decimal.Zero, nil, remaining, draft.Settings.MinBid, draft.Settings.MinIncrement, lot.BidCount)
				if resolution == nil {
					break
				}
				candidateRoster = resolution.NewLeaderRosterID
				candidatePrice = resolution.NewPrice
			}
			first = false

			snap, err := s.drafts.GetRosterBudgetSnapshot(ctx, tx, draftID, candidateRoster)
			if err != nil {
				return Fatal("roster snapshot lookup failed", err)
			}
			isLeading := leader != nil && *leader == candidateRoster
			maxAfford := algo.CalculateMaxAffordableBid(draft.Settings.AuctionBudget, draft.Settings.RosterSlots, snap, price, isLeading, draft.Settings.MinBid)

			if snap.WonCount < draft.Settings.RosterSlots && candidatePrice.LessThanOrEqual(maxAfford) {
				outcome = "won"
				return s.lots.SettleLot(ctx, tx, lotID, domain.LotWon, &candidateRoster, &candidatePrice)
			}

			filtered := remaining[:0:0]
			for _, b := range remaining {
				if b.RosterID != candidateRoster {
					filtered = append(filtered, b)
				}
			}
			remaining = filtered
		}

		outcome = "passed"
		return s.lots.SettleLot(ctx, tx, lotID, domain.LotPassed, nil, nil)
	})
	if err != nil {
		return err
	}
	if !settled {
		return nil
	}

	metrics.LotSettlementsTotal.WithLabelValues(outcome).Inc()

	// Spec §4.6: after settlement commits, advance the nominator in a
	// separate transaction under DRAFT(draftId) — the AUCTION(lotId)
	// lock taken above is never held concurrently with it (spec §5).
	if _, err := s.advanceNominator(ctx, draftID, nil, false); err != nil {
		return err
	}
	return nil
}
