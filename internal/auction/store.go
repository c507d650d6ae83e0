package auction

import "sync"

// Store is the single aggregate root owning all engine state: auctions, bid
// records and the auction-id counter. Nothing is ever removed.
//
// Locking: Store.mu guards the maps and the counter and is held only for map
// access. Each auction additionally owns a mutex serializing every entry
// point touching that auction, so invariants hold under any interleaving
// while different auctions proceed fully in parallel.
type Store struct {
	mu       sync.Mutex
	count    uint64
	auctions map[uint64]*Auction
	bids     map[BidKey]*Bid
	bidders  map[uint64][]string // submission order, for settlement
	locks    map[uint64]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		auctions: make(map[uint64]*Auction),
		bids:     make(map[BidKey]*Bid),
		bidders:  make(map[uint64][]string),
		locks:    make(map[uint64]*sync.Mutex),
	}
}

// create assigns the next sequential id (starting at 1), registers the
// auction and its lock, and returns the id. The counter increments exactly
// once per successful creation.
func (s *Store) create(a *Auction) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	a.ID = s.count
	s.auctions[a.ID] = a
	s.locks[a.ID] = &sync.Mutex{}
	return a.ID
}

// Count returns the number of successful creations.
func (s *Store) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// lockFor returns the per-auction mutex, or nil for an unknown id.
func (s *Store) lockFor(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks[id]
}

// auction returns the live record. Callers must hold the auction's lock
// before mutating or reading mutable fields.
func (s *Store) auction(id uint64) *Auction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auctions[id]
}

// bid returns the live bid record, or nil if none was ever submitted.
func (s *Store) bid(key BidKey) *Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bids[key]
}

// putBid records a new bid. Existence of the key is the "bid was submitted"
// invariant, so this must only be called once per key.
func (s *Store) putBid(key BidKey, b *Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[key] = b
	s.bidders[key.AuctionID] = append(s.bidders[key.AuctionID], key.Bidder)
}

// auctionBidders returns the bidders of an auction in submission order.
func (s *Store) auctionBidders(id uint64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.bidders[id]))
	copy(out, s.bidders[id])
	return out
}
