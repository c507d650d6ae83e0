package auction

import (
	"fmt"
	"math/big"

	"sealedbid/internal/events"
)

// WithdrawRefund pays out the caller's recorded refundable balance after
// settlement or cancellation. Any prior bidder may call it, including the
// winner, who receives only their deposit surplus. The claimed flag, never a
// re-derived amount, guards against double payout; a winner whose refund was
// already satisfied at settlement gets a zero-amount no-op rather than an
// error.
func (e *Engine) WithdrawRefund(id uint64, caller string, now uint64) (*big.Int, error) {
	const op = "withdraw_refund"
	var paid *big.Int
	err := e.locked(op, id, func(a *Auction) error {
		if !a.Phase.Terminal() {
			return e.abort(op, id, fmt.Errorf("%w: auction is %s, not settled or cancelled", ErrPhase, a.Phase))
		}
		b := e.store.bid(BidKey{AuctionID: id, Bidder: caller})
		if b == nil {
			return e.abort(op, id, fmt.Errorf("%w: caller has no refundable balance", ErrAuthorization))
		}
		if b.RefundClaimed {
			if b.Refundable.Sign() == 0 {
				paid = new(big.Int)
				return nil
			}
			return e.abort(op, id, fmt.Errorf("%w: refund already claimed", ErrDuplicate))
		}

		if !e.funds.Transfer(caller, b.Refundable) {
			return e.abort(op, id, fmt.Errorf("%w: refund transfer failed", ErrDependency))
		}
		b.RefundClaimed = true
		paid = new(big.Int).Set(b.Refundable)

		e.emit(events.TypeRefundClaimed, events.RefundClaimed{
			AuctionID: id,
			Bidder:    caller,
			Amount:    paid.String(),
		})
		e.log.Info().
			Uint64("auction", id).
			Str("bidder", caller).
			Str("amount", paid.String()).
			Msg("refund claimed")
		return nil
	})
	return paid, err
}

// ClaimSellerPayment pays the recorded winning amount to the seller of a
// settled auction, at most once.
func (e *Engine) ClaimSellerPayment(id uint64, caller string, now uint64) (*big.Int, error) {
	const op = "claim_seller_payment"
	var paid *big.Int
	err := e.locked(op, id, func(a *Auction) error {
		if caller != a.Seller {
			return e.abort(op, id, fmt.Errorf("%w: caller is not the seller", ErrAuthorization))
		}
		if a.Phase != PhaseSettled {
			return e.abort(op, id, fmt.Errorf("%w: auction is %s, not settled", ErrPhase, a.Phase))
		}
		if a.ProceedsClaimed {
			return e.abort(op, id, fmt.Errorf("%w: seller payment already claimed", ErrDuplicate))
		}

		if !e.funds.Transfer(caller, a.HighestBid) {
			return e.abort(op, id, fmt.Errorf("%w: seller payment transfer failed", ErrDependency))
		}
		a.ProceedsClaimed = true
		paid = new(big.Int).Set(a.HighestBid)

		e.emit(events.TypeSellerPaymentClaimed, events.SellerPaymentClaimed{
			AuctionID: id,
			Seller:    caller,
			Amount:    paid.String(),
		})
		e.log.Info().
			Uint64("auction", id).
			Str("seller", caller).
			Str("amount", paid.String()).
			Msg("seller payment claimed")
		return nil
	})
	return paid, err
}
