package auctionsvc

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/algo"
	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/lockmgr"
	"github.com/draftforge/fastauction/internal/store"
)

// BidResult is SetMaxBid's return shape: the settled lot, the caller's
// own proxy bid, and any outbid notices raised by this call (spec §6).
type BidResult struct {
	Lot      *domain.AuctionLot
	ProxyBid *domain.AuctionProxyBid
	Outbid   []domain.OutbidEvent
	Message  string
}

// SetMaxBid implements spec §4.3.
func (s *Service) SetMaxBid(ctx context.Context, draftID, userID, lotID int64, maxBid decimal.Decimal, idempotencyKey *string) (*BidResult, error) {
	ctx, end := s.span(ctx, "auctionsvc.SetMaxBid")
	defer end()

	if !domain.IsValidAmount(maxBid) {
		return nil, Validation("bid must be a non-negative whole number")
	}

	var result *BidResult
	var outbidNotices []domain.OutbidEvent
	var bidAccepted bool

	err := s.runner.RunLocked(ctx, lockmgr.Auction, lotID, func(ctx context.Context, tx pgx.Tx) error {
		lot, err := s.lots.GetLotForUpdate(ctx, tx, lotID)
		if err != nil {
			return translateNotFound(err, "lot not found")
		}
		if lot.DraftID != draftID {
			return NotFound("lot does not belong to this draft")
		}

		draft, err := s.drafts.GetDraft(ctx, tx, draftID)
		if err != nil {
			return translateNotFound(err, "draft not found")
		}

		rosterID, err := s.rosters.RosterForUser(ctx, tx, draft.LeagueID, userID)
		if err != nil {
			return translateNotFound(err, "you are not a member of this league")
		}

		if idempotencyKey != nil {
			if _, err := s.lots.FindHistoryByIdempotencyKey(ctx, tx, lotID, rosterID, *idempotencyKey); err == nil {
				result = &BidResult{Lot: lot, Message: "duplicate request; returning prior result"}
				return nil
			} else if err != store.ErrNotFound {
				return Fatal("idempotency lookup failed", err)
			}
		}

		if lot.Status != domain.LotActive {
			return Validation("lot is not active")
		}
		if lot.BidDeadline == nil {
			return Validation("draft is paused; bidding is suspended")
		}
		now := s.clock.Now()
		if !lot.BidDeadline.After(now) {
			return Validation("lot has expired; please refresh")
		}

		if err := validateBidMinima(lot, rosterID, maxBid, draft.Settings.MinIncrement); err != nil {
			return err
		}

		snap, err := s.drafts.GetRosterBudgetSnapshot(ctx, tx, draftID, rosterID)
		if err != nil {
			return Fatal("roster snapshot lookup failed", err)
		}
		isLeading := lot.CurrentBidderRosterID != nil && *lot.CurrentBidderRosterID == rosterID
		maxAfford := algo.CalculateMaxAffordableBid(draft.Settings.AuctionBudget, draft.Settings.RosterSlots, snap, lot.CurrentBid, isLeading, draft.Settings.MinBid)
		if maxBid.GreaterThan(maxAfford) {
			return Validation(fmt.Sprintf("maximum affordable bid is %s", maxAfford.String()))
		}
		if snap.WonCount >= draft.Settings.RosterSlots {
			return Validation("roster is full")
		}

		// A real bid action always clears IsOpeningBid, even when the
		// bidder is the nominator raising their own opening ceiling — from
		// this point on they are an actual auction participant, not just
		// the passive stake nominate placed on their behalf (spec §4.6).
		if err := s.lots.UpsertProxyBid(ctx, tx, lotID, rosterID, maxBid, false); err != nil {
			return Fatal("upsert proxy bid failed", err)
		}
		if err := s.lots.InsertHistory(ctx, tx, &domain.AuctionBidHistory{
			LotID:          lotID,
			RosterID:       rosterID,
			BidAmount:      maxBid,
			IsProxy:        true,
			IdempotencyKey: idempotencyKey,
		}); err != nil {
			return Fatal("insert history failed", err)
		}

		proxyBids, err := s.lots.GetProxyBids(ctx, tx, lotID)
		if err != nil {
			return Fatal("load proxy bids failed", err)
		}

		algoBids := make([]algo.ProxyBid, len(proxyBids))
		var mine *domain.AuctionProxyBid
		for i, p := range proxyBids {
			algoBids[i] = algo.ProxyBid{RosterID: p.RosterID, MaxBid: p.MaxBid, CreatedAt: p.CreatedAt}
			if p.RosterID == rosterID {
				pp := p
				mine = &pp
			}
		}

		resolution := algo.ResolveSecondPrice(lot.CurrentBid, lot.CurrentBidderRosterID, algoBids, draft.Settings.MinBid, draft.Settings.MinIncrement, lot.BidCount)

		result = &BidResult{Lot: lot, ProxyBid: mine, Message: "bid accepted"}
		bidAccepted = true

		if resolution == nil || (!resolution.LeaderChanged && !resolution.PriceChanged) {
			return nil
		}

		newDeadline := lot.BidDeadline
		ext := algo.ComputeExtendedDeadline(now, *lot.BidDeadline, lot.CreatedAt, draft.Settings.ResetOnBidSeconds, draft.Settings.MaxLotDurationSeconds)
		if ext.ShouldExtend {
			nd := ext.NewDeadline
			newDeadline = &nd
		}

		ok, err := s.lots.UpdateLotCAS(ctx, tx, lotID, lot.CurrentBid, lot.CurrentBidderRosterID, resolution.NewPrice, resolution.NewLeaderRosterID, resolution.NewBidCount, newDeadline)
		if err != nil {
			return Fatal("lot CAS update failed", err)
		}
		if !ok {
			return Conflict("concurrent bid; please retry")
		}

		lot.CurrentBid = resolution.NewPrice
		lot.CurrentBidderRosterID = &resolution.NewLeaderRosterID
		lot.BidCount = resolution.NewBidCount
		lot.BidDeadline = newDeadline
		result.Lot = lot

		if resolution.Outbid != nil {
			outbidNotices = append(outbidNotices, domain.OutbidEvent{
				DraftID:  draftID,
				RosterID: resolution.Outbid.PreviousLeaderRosterID,
				LotID:    lotID,
				PlayerID: lot.PlayerID,
				NewBid:   resolution.Outbid.NewLeadingBid,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if bidAccepted {
		s.events.Publish(domain.BidEvent{DraftID: draftID, Lot: *result.Lot, ServerTime: s.clock.Now()})
	}
	for _, n := range outbidNotices {
		s.events.PublishOutbid(n)
	}
	result.Outbid = outbidNotices

	return result, nil
}

// validateBidMinima implements spec §4.3 step 4.
func validateBidMinima(lot *domain.AuctionLot, rosterID int64, maxBid, minIncrement decimal.Decimal) error {
	switch {
	case lot.CurrentBidderRosterID == nil:
		if maxBid.LessThan(lot.CurrentBid) {
			return Validation(fmt.Sprintf("bid must be at least %s", lot.CurrentBid.String()))
		}
	case *lot.CurrentBidderRosterID == rosterID:
		if maxBid.LessThan(lot.CurrentBid) {
			return Validation(fmt.Sprintf("bid must be at least %s", lot.CurrentBid.String()))
		}
	default:
		floor := lot.CurrentBid.Add(minIncrement)
		if maxBid.LessThan(floor) {
			return Validation(fmt.Sprintf("bid must be at least %s", floor.String()))
		}
	}
	return nil
}
