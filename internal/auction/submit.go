package auction

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"sealedbid/internal/commitment"
	"sealedbid/internal/events"
	"sealedbid/internal/proofs"
)

// Submit admits a sealed bid: a hiding commitment plus an escrowed deposit,
// optionally gated by a proof that the hidden amount is valid for this
// auction. Preconditions are checked in order and any failure aborts with no
// state change; in particular the deposit transfer happens before anything is
// recorded, so a commitment is never stored without its matching deposit.
func (e *Engine) Submit(id uint64, cm []byte, deposit *big.Int, proof []byte, bidder string, now uint64) error {
	const op = "submit"
	return e.locked(op, id, func(a *Auction) error {
		if a.Phase != PhaseOpen {
			return e.abort(op, id, fmt.Errorf("%w: auction is %s, not open", ErrPhase, a.Phase))
		}
		if now >= a.BidDeadline {
			return e.abort(op, id, fmt.Errorf("%w: bidding window closed", ErrPhase))
		}
		if bidder == a.Seller {
			return e.abort(op, id, fmt.Errorf("%w: seller cannot bid on own auction", ErrAuthorization))
		}
		key := BidKey{AuctionID: id, Bidder: bidder}
		if e.store.bid(key) != nil {
			return e.abort(op, id, fmt.Errorf("%w: bidder already committed", ErrDuplicate))
		}
		if len(cm) == 0 {
			return e.abort(op, id, fmt.Errorf("%w: empty commitment", ErrRange))
		}
		if deposit == nil || deposit.Cmp(a.MinPrice) < 0 {
			return e.abort(op, id, fmt.Errorf("%w: deposit below minimum price", ErrRange))
		}
		if deposit.Cmp(commitment.MaxAmount) > 0 {
			return e.abort(op, id, fmt.Errorf("%w: deposit outside representable bound", ErrRange))
		}

		if e.verifier != nil {
			if err := e.gate(a, cm, proof); err != nil {
				return e.abort(op, id, err)
			}
		}

		// External transfer last, so a dependency failure leaves no trace.
		if !e.funds.TransferFrom(bidder, e.escrow, deposit) {
			return e.abort(op, id, fmt.Errorf("%w: deposit transfer failed", ErrDependency))
		}

		e.store.putBid(key, &Bid{
			Commitment: append([]byte(nil), cm...),
			Deposit:    new(big.Int).Set(deposit),
		})
		a.BidCount++

		e.emit(events.TypeBidSubmitted, events.BidSubmitted{
			AuctionID:  id,
			Bidder:     bidder,
			Commitment: hex.EncodeToString(cm),
			Deposit:    deposit.String(),
		})
		e.log.Info().
			Uint64("auction", id).
			Str("bidder", bidder).
			Str("deposit", deposit.String()).
			Msg("bid submitted")
		return nil
	})
}

// gate runs the proof verifier and checks its public outputs against the
// auction parameters: the proven minimum price must be this auction's and the
// proven commitment must be the one being registered.
func (e *Engine) gate(a *Auction, cm []byte, proof []byte) error {
	outputs, err := e.verifier.Verify(proof)
	if err != nil {
		return fmt.Errorf("%w: invalid proof: %v", ErrIntegrity, err)
	}
	if len(outputs) < proofs.MinOutputs {
		return fmt.Errorf("%w: invalid proof: %d public outputs, need at least %d", ErrIntegrity, len(outputs), proofs.MinOutputs)
	}
	if outputs[proofs.OutMinPrice].Cmp(a.MinPrice) != 0 {
		return fmt.Errorf("%w: proof attests wrong minimum price", ErrIntegrity)
	}
	if outputs[proofs.OutCommitment].Cmp(new(big.Int).SetBytes(cm)) != 0 {
		return fmt.Errorf("%w: proof attests different commitment", ErrIntegrity)
	}
	return nil
}
