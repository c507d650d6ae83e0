package auction

import "math/big"

// Phase is the auction lifecycle state, modelled as an explicit tagged type.
// Transitions: Open -> Revealing (first reveal), Open|Revealing -> Settled or
// Cancelled (settlement). Settled and Cancelled are terminal.
type Phase uint8

const (
	PhaseOpen Phase = iota
	PhaseRevealing
	PhaseSettled
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseRevealing:
		return "revealing"
	case PhaseSettled:
		return "settled"
	case PhaseCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether no further lifecycle transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseSettled || p == PhaseCancelled
}

// Auction is the per-auction aggregate. After settlement every field is
// immutable except ProceedsClaimed, which flips at most once.
type Auction struct {
	ID              uint64
	Seller          string
	Item            string // opaque item descriptor
	MinPrice        *big.Int
	CreatedAt       uint64
	BidDeadline     uint64 // CreatedAt + bid duration
	RevealDeadline  uint64 // BidDeadline + reveal duration
	Phase           Phase
	BidCount        uint64
	HighestBid      *big.Int
	Winner          string // unset until a reveal takes the lead
	ProceedsClaimed bool
}

// BidKey is the composite key for per-bidder records: an entry exists in the
// bid map if and only if a bid was submitted.
type BidKey struct {
	AuctionID uint64
	Bidder    string
}

// Bid is the per-(auction, bidder) record. Commitment is set exactly once;
// Amount is valid only while Revealed is set and is immutable thereafter.
// Refundable is recorded at settlement and consumed by at most one claim.
type Bid struct {
	Commitment    []byte
	Deposit       *big.Int
	Amount        *big.Int
	Revealed      bool
	Refundable    *big.Int
	RefundClaimed bool
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func (a *Auction) snapshot() Auction {
	out := *a
	out.MinPrice = cloneInt(a.MinPrice)
	out.HighestBid = cloneInt(a.HighestBid)
	return out
}

func (b *Bid) snapshot() Bid {
	out := *b
	out.Commitment = append([]byte(nil), b.Commitment...)
	out.Deposit = cloneInt(b.Deposit)
	out.Amount = cloneInt(b.Amount)
	out.Refundable = cloneInt(b.Refundable)
	return out
}
