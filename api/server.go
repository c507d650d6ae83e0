// Package api exposes the settlement engine over JSON/HTTP. The server is
// the hosting environment of the engine: it supplies the ambient caller
// identity (from the X-Auction-Caller header) and the current time to every
// entry point, so request bodies never carry either.
package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"sealedbid/internal/auction"
)

const callerHeader = "X-Auction-Caller"

// Config wires a Server. Now defaults to wall-clock seconds; AllowSubmit,
// Health and Metrics are optional.
type Config struct {
	Addr        string
	Engine      *auction.Engine
	Logger      zerolog.Logger
	Now         func() uint64
	AllowSubmit func(caller string) bool
	Health      http.Handler
	Metrics     http.Handler
}

// Server serves the engine's entry points.
type Server struct {
	engine      *auction.Engine
	log         zerolog.Logger
	now         func() uint64
	allowSubmit func(string) bool
	httpServer  *http.Server
}

// NewServer builds the server and its route table.
func NewServer(cfg Config) *Server {
	s := &Server{
		engine:      cfg.Engine,
		log:         cfg.Logger,
		now:         cfg.Now,
		allowSubmit: cfg.AllowSubmit,
	}
	if s.now == nil {
		s.now = func() uint64 { return uint64(time.Now().Unix()) }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auctions", s.handleCreate)
	mux.HandleFunc("GET /auctions/{id}", s.handleGet)
	mux.HandleFunc("POST /auctions/{id}/bids", s.handleSubmit)
	mux.HandleFunc("POST /auctions/{id}/reveals", s.handleReveal)
	mux.HandleFunc("POST /auctions/{id}/settle", s.handleSettle)
	mux.HandleFunc("POST /auctions/{id}/refund", s.handleRefund)
	mux.HandleFunc("POST /auctions/{id}/payment", s.handlePayment)
	if cfg.Health != nil {
		mux.Handle("GET /healthz", cfg.Health)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	return s
}

// Start listens and serves in a new goroutine, signalling on ready once the
// listener is up.
func (s *Server) Start(ready chan<- struct{}) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		s.log.Info().Str("addr", listener.Addr().String()).Msg("api server starting")
		if ready != nil {
			ready <- struct{}{}
		}
		if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("api server failed")
		}
	}()
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	minPrice, ok := parseAmount(req.MinPrice)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid min_price")
		return
	}
	id, err := s.engine.CreateAuction(caller, req.Item, minPrice, req.BidDuration, req.RevealDuration, s.now())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateAuctionResponse{AuctionID: id})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	a := s.engine.Auction(id)
	view := AuctionView{
		ID:              a.ID,
		Seller:          a.Seller,
		Item:            a.Item,
		CreatedAt:       a.CreatedAt,
		BidDeadline:     a.BidDeadline,
		RevealDeadline:  a.RevealDeadline,
		Phase:           a.Phase.String(),
		BidCount:        a.BidCount,
		Winner:          a.Winner,
		ProceedsClaimed: a.ProceedsClaimed,
	}
	// Unknown ids return a zero-valued record, never 404.
	if a.MinPrice != nil {
		view.MinPrice = a.MinPrice.String()
	} else {
		view.MinPrice = "0"
	}
	if a.HighestBid != nil {
		view.HighestBid = a.HighestBid.String()
	} else {
		view.HighestBid = "0"
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	if s.allowSubmit != nil && !s.allowSubmit(caller) {
		writeError(w, http.StatusTooManyRequests, "submission rate limit exceeded")
		return
	}
	var req SubmitBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cm, err := hex.DecodeString(req.Commitment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid commitment encoding")
		return
	}
	deposit, ok := parseAmount(req.Deposit)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid deposit")
		return
	}
	if err := s.engine.Submit(id, cm, deposit, req.Proof, caller, s.now()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	var req RevealBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	salt, ok := parseAmount(req.Salt)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid salt")
		return
	}
	if err := s.engine.Reveal(id, amount, salt, caller, s.now()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	if err := s.engine.Settle(id, s.now()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	amount, err := s.engine.WithdrawRefund(id, caller, s.now())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{Amount: amount.String()})
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	amount, err := s.engine.ClaimSellerPayment(id, caller, s.now())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{Amount: amount.String()})
}

func (s *Server) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing caller identity")
		return "", false
	}
	return caller, true
}

// writeEngineError maps abort categories to HTTP statuses, preserving the
// distinguishing reason.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auction.ErrPhase), errors.Is(err, auction.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, auction.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, auction.ErrIntegrity):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, auction.ErrRange):
		status = http.StatusBadRequest
	case errors.Is(err, auction.ErrDependency):
		status = http.StatusBadGateway
	}
	writeError(w, status, err.Error())
}

func auctionID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid auction id")
		return 0, false
	}
	return id, true
}

func parseAmount(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
