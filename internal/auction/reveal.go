package auction

import (
	"fmt"
	"math/big"

	"sealedbid/internal/commitment"
	"sealedbid/internal/events"
)

// Reveal opens a sealed bid during the reveal window. The recomputed
// commitment must match the stored one bit for bit; this is the core
// integrity check. The first successful reveal moves the auction from Open to
// Revealing. A revealed amount strictly greater than the current highest
// takes the lead; an equal amount never displaces an earlier winner.
//
// All checks run before any mutation, so a failed reveal leaves the auction
// untouched, including the Open -> Revealing transition.
func (e *Engine) Reveal(id uint64, amount, salt *big.Int, bidder string, now uint64) error {
	const op = "reveal"
	return e.locked(op, id, func(a *Auction) error {
		if now < a.BidDeadline {
			return e.abort(op, id, fmt.Errorf("%w: bidding window still open", ErrPhase))
		}
		if now >= a.RevealDeadline {
			return e.abort(op, id, fmt.Errorf("%w: reveal window closed", ErrPhase))
		}
		if a.Phase.Terminal() {
			return e.abort(op, id, fmt.Errorf("%w: auction is %s", ErrPhase, a.Phase))
		}

		b := e.store.bid(BidKey{AuctionID: id, Bidder: bidder})
		if b == nil {
			return e.abort(op, id, fmt.Errorf("%w: no commitment to reveal", ErrPhase))
		}
		if b.Revealed {
			return e.abort(op, id, fmt.Errorf("%w: bid already revealed", ErrDuplicate))
		}
		if !commitment.Verify(b.Commitment, amount, salt) {
			return e.abort(op, id, fmt.Errorf("%w: invalid reveal", ErrIntegrity))
		}
		// Defense in depth: the proof gate should already guarantee this.
		if amount.Cmp(a.MinPrice) < 0 {
			return e.abort(op, id, fmt.Errorf("%w: bid below minimum", ErrRange))
		}

		if a.Phase == PhaseOpen {
			a.Phase = PhaseRevealing
			e.log.Info().Uint64("auction", id).Msg("auction entered reveal phase")
		}
		b.Amount = new(big.Int).Set(amount)
		b.Revealed = true
		if amount.Cmp(a.HighestBid) > 0 {
			a.HighestBid = new(big.Int).Set(amount)
			a.Winner = bidder
		}

		e.emit(events.TypeBidRevealed, events.BidRevealed{
			AuctionID: id,
			Bidder:    bidder,
			Amount:    amount.String(),
		})
		e.log.Info().
			Uint64("auction", id).
			Str("bidder", bidder).
			Str("amount", amount.String()).
			Str("highest", a.HighestBid.String()).
			Msg("bid revealed")
		return nil
	})
}
