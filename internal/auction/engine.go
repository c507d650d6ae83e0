package auction

import (
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"sealedbid/internal/commitment"
	"sealedbid/internal/events"
	"sealedbid/internal/funds"
	"sealedbid/internal/proofs"
)

// Engine drives the auction lifecycle. The proof verifier, event sink and
// value-transfer ledger are resolved once at construction; an engine built
// without a verifier admits bids ungated.
type Engine struct {
	store    *Store
	verifier proofs.Verifier
	funds    funds.Ledger
	events   events.Sink
	escrow   string
	log      zerolog.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithVerifier gates bid submission behind the given proof verifier.
func WithVerifier(v proofs.Verifier) Option {
	return func(e *Engine) { e.verifier = v }
}

// WithEventSink routes emitted records to the given sink.
func WithEventSink(s events.Sink) Option {
	return func(e *Engine) { e.events = s }
}

// WithLogger attaches a structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine escrowing deposits under the given account on
// the given transfer ledger.
func NewEngine(ledger funds.Ledger, escrow string, opts ...Option) *Engine {
	e := &Engine{
		store:  NewStore(),
		funds:  ledger,
		events: events.NewMemorySink(),
		escrow: escrow,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateAuction registers a new auction and returns its sequential id.
// Both durations must be strictly positive and the minimum price must be
// within the protocol's representable bound.
func (e *Engine) CreateAuction(seller, item string, minPrice *big.Int, bidDuration, revealDuration, now uint64) (uint64, error) {
	if bidDuration == 0 || revealDuration == 0 {
		return 0, e.abort("create", 0, fmt.Errorf("%w: auction duration must be positive", ErrRange))
	}
	if minPrice == nil || minPrice.Sign() < 0 || minPrice.Cmp(commitment.MaxAmount) > 0 {
		return 0, e.abort("create", 0, fmt.Errorf("%w: minimum price outside representable bound", ErrRange))
	}

	a := &Auction{
		Seller:         seller,
		Item:           item,
		MinPrice:       new(big.Int).Set(minPrice),
		CreatedAt:      now,
		BidDeadline:    now + bidDuration,
		RevealDeadline: now + bidDuration + revealDuration,
		Phase:          PhaseOpen,
		HighestBid:     new(big.Int),
	}
	id := e.store.create(a)

	e.emit(events.TypeAuctionCreated, events.AuctionCreated{
		AuctionID:      id,
		Seller:         seller,
		Item:           item,
		MinPrice:       minPrice.String(),
		CreatedAt:      now,
		BidDeadline:    a.BidDeadline,
		RevealDeadline: a.RevealDeadline,
	})
	e.log.Info().
		Uint64("auction", id).
		Str("seller", seller).
		Str("min_price", minPrice.String()).
		Uint64("bid_deadline", a.BidDeadline).
		Uint64("reveal_deadline", a.RevealDeadline).
		Msg("auction created")
	return id, nil
}

// Auction returns a snapshot of the auction record. Querying a non-existent
// id returns a zero-valued record rather than failing; callers distinguish
// the two by ID == 0.
func (e *Engine) Auction(id uint64) Auction {
	mu := e.store.lockFor(id)
	if mu == nil {
		return Auction{}
	}
	mu.Lock()
	defer mu.Unlock()
	return e.store.auction(id).snapshot()
}

// Bid returns a snapshot of the per-(auction, bidder) record, zero-valued if
// no bid was ever submitted. A submitted bid always has a commitment.
func (e *Engine) Bid(id uint64, bidder string) Bid {
	mu := e.store.lockFor(id)
	if mu == nil {
		return Bid{}
	}
	mu.Lock()
	defer mu.Unlock()
	b := e.store.bid(BidKey{AuctionID: id, Bidder: bidder})
	if b == nil {
		return Bid{}
	}
	return b.snapshot()
}

// Count returns the number of auctions created so far.
func (e *Engine) Count() uint64 {
	return e.store.Count()
}

// locked runs fn with the auction's mutex held, giving it the live record.
// An unknown id is a phase violation: no stage can run before creation.
func (e *Engine) locked(op string, id uint64, fn func(a *Auction) error) error {
	mu := e.store.lockFor(id)
	if mu == nil {
		return e.abort(op, id, fmt.Errorf("%w: unknown auction", ErrPhase))
	}
	mu.Lock()
	defer mu.Unlock()
	return fn(e.store.auction(id))
}

func (e *Engine) abort(op string, id uint64, err error) error {
	e.log.Warn().Str("op", op).Uint64("auction", id).Err(err).Msg("call rejected")
	return err
}

// emit appends one record to the event sink. The sink is an observer
// surface, not part of the call's state delta: a failing sink is logged and
// the already-committed call stands.
func (e *Engine) emit(eventType string, payload any) {
	ev, err := events.New(eventType, payload)
	if err == nil {
		err = e.events.Append(ev)
	}
	if err != nil {
		e.log.Error().Str("event", eventType).Err(err).Msg("event append failed")
	}
}
