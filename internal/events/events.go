// events.go - Append-only event records for external indexers.
//
// Every successful engine operation emits one record carrying the ids and
// amounts an indexer needs to reconstruct full auction history without
// re-querying engine state. Records use a type + raw-payload envelope so
// sinks stay oblivious to payload shapes.

package events

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Record type names.
const (
	TypeAuctionCreated       = "auction_created"
	TypeBidSubmitted         = "bid_submitted"
	TypeBidRevealed          = "bid_revealed"
	TypeAuctionSettled       = "auction_settled"
	TypeRefundClaimed        = "refund_claimed"
	TypeSellerPaymentClaimed = "seller_payment_claimed"
)

// Event is the sink-facing envelope.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// New wraps a payload into an envelope with a fresh record id.
func New(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Payload: raw,
	}, nil
}

// AuctionCreated carries every creation parameter.
type AuctionCreated struct {
	AuctionID      uint64 `json:"auction_id"`
	Seller         string `json:"seller"`
	Item           string `json:"item"`
	MinPrice       string `json:"min_price"`
	CreatedAt      uint64 `json:"created_at"`
	BidDeadline    uint64 `json:"bid_deadline"`
	RevealDeadline uint64 `json:"reveal_deadline"`
}

type BidSubmitted struct {
	AuctionID  uint64 `json:"auction_id"`
	Bidder     string `json:"bidder"`
	Commitment string `json:"commitment"` // hex
	Deposit    string `json:"deposit"`
}

type BidRevealed struct {
	AuctionID uint64 `json:"auction_id"`
	Bidder    string `json:"bidder"`
	Amount    string `json:"amount"`
}

type AuctionSettled struct {
	AuctionID     uint64 `json:"auction_id"`
	Cancelled     bool   `json:"cancelled"`
	Winner        string `json:"winner,omitempty"`
	WinningAmount string `json:"winning_amount,omitempty"`
}

type RefundClaimed struct {
	AuctionID uint64 `json:"auction_id"`
	Bidder    string `json:"bidder"`
	Amount    string `json:"amount"`
}

type SellerPaymentClaimed struct {
	AuctionID uint64 `json:"auction_id"`
	Seller    string `json:"seller"`
	Amount    string `json:"amount"`
}

// Sink receives records in emission order.
type Sink interface {
	Append(Event) error
}

// MemorySink buffers records in memory. Default sink for tests and for
// engines constructed without a persistent log.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a snapshot of all appended records in order.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
