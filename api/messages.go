package api

// Wire types for the JSON surface. Amounts travel as decimal strings so the
// full 128-bit range survives JSON; commitments are hex, proofs base64
// (encoding/json's default for []byte).

// CreateAuctionRequest creates a new auction. The caller identity supplied by
// the host becomes the seller.
type CreateAuctionRequest struct {
	Item           string `json:"item"`
	MinPrice       string `json:"min_price"`
	BidDuration    uint64 `json:"bid_duration"`
	RevealDuration uint64 `json:"reveal_duration"`
}

// CreateAuctionResponse carries the assigned sequential id.
type CreateAuctionResponse struct {
	AuctionID uint64 `json:"auction_id"`
}

// SubmitBidRequest registers a sealed bid for the ambient caller.
type SubmitBidRequest struct {
	Commitment string `json:"commitment"` // hex
	Deposit    string `json:"deposit"`
	Proof      []byte `json:"proof,omitempty"`
}

// RevealBidRequest opens the ambient caller's sealed bid.
type RevealBidRequest struct {
	Amount string `json:"amount"`
	Salt   string `json:"salt"`
}

// ClaimResponse reports the amount paid out by a refund or seller claim.
type ClaimResponse struct {
	Amount string `json:"amount"`
}

// AuctionView is the read-model snapshot of an auction.
type AuctionView struct {
	ID              uint64 `json:"id"`
	Seller          string `json:"seller"`
	Item            string `json:"item"`
	MinPrice        string `json:"min_price"`
	CreatedAt       uint64 `json:"created_at"`
	BidDeadline     uint64 `json:"bid_deadline"`
	RevealDeadline  uint64 `json:"reveal_deadline"`
	Phase           string `json:"phase"`
	BidCount        uint64 `json:"bid_count"`
	HighestBid      string `json:"highest_bid"`
	Winner          string `json:"winner,omitempty"`
	ProceedsClaimed bool   `json:"proceeds_claimed"`
}

// ErrorResponse carries the distinguishing reason of a rejected call.
type ErrorResponse struct {
	Error string `json:"error"`
}
