package auction

import (
	"fmt"
	"math/big"

	"sealedbid/internal/events"
)

// Settle closes an auction after the reveal window. With no revealed bid the
// auction is Cancelled and every deposit becomes refundable in full.
// Otherwise it is Settled: the seller's proceeds and every bidder's
// refundable balance are recorded here and paid out later through the claim
// calls, keeping settlement itself free of external-call failure modes.
// Settlement runs exactly once successfully per auction; re-settlement
// aborts.
func (e *Engine) Settle(id uint64, now uint64) error {
	const op = "settle"
	return e.locked(op, id, func(a *Auction) error {
		if a.Phase.Terminal() {
			return e.abort(op, id, fmt.Errorf("%w: already settled", ErrPhase))
		}
		if now < a.RevealDeadline {
			return e.abort(op, id, fmt.Errorf("%w: reveal window still open", ErrPhase))
		}

		if a.Winner == "" {
			a.Phase = PhaseCancelled
			for _, bidder := range e.store.auctionBidders(id) {
				b := e.store.bid(BidKey{AuctionID: id, Bidder: bidder})
				b.Refundable = new(big.Int).Set(b.Deposit)
			}
			e.emit(events.TypeAuctionSettled, events.AuctionSettled{
				AuctionID: id,
				Cancelled: true,
			})
			e.log.Info().Uint64("auction", id).Msg("auction cancelled, no reveals")
			return nil
		}

		a.Phase = PhaseSettled
		for _, bidder := range e.store.auctionBidders(id) {
			b := e.store.bid(BidKey{AuctionID: id, Bidder: bidder})
			if bidder != a.Winner {
				b.Refundable = new(big.Int).Set(b.Deposit)
				continue
			}
			surplus := new(big.Int).Sub(b.Deposit, a.HighestBid)
			if surplus.Sign() > 0 {
				b.Refundable = surplus
			} else {
				// Nothing owed: mark satisfied so a later claim is a
				// no-op rather than an error.
				b.Refundable = new(big.Int)
				b.RefundClaimed = true
			}
		}

		e.emit(events.TypeAuctionSettled, events.AuctionSettled{
			AuctionID:     id,
			Winner:        a.Winner,
			WinningAmount: a.HighestBid.String(),
		})
		e.log.Info().
			Uint64("auction", id).
			Str("winner", a.Winner).
			Str("winning_amount", a.HighestBid.String()).
			Msg("auction settled")
		return nil
	})
}
