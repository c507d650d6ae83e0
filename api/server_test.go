package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedbid/internal/auction"
	"sealedbid/internal/commitment"
	"sealedbid/internal/funds"
)

// testHost wires an engine behind the HTTP surface with a controllable clock.
type testHost struct {
	engine *auction.Engine
	ledger *funds.TokenLedger
	now    uint64
	srv    *Server
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	h := &testHost{
		ledger: funds.NewTokenLedger("escrow"),
		now:    1000,
	}
	h.engine = auction.NewEngine(h.ledger, "escrow")
	h.srv = NewServer(Config{
		Engine: h.engine,
		Logger: zerolog.Nop(),
		Now:    func() uint64 { return h.now },
	})
	return h
}

func (h *testHost) do(t *testing.T, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != "" {
		req.Header.Set("X-Auction-Caller", caller)
	}
	w := httptest.NewRecorder()
	h.srv.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func (h *testHost) createAuction(t *testing.T) uint64 {
	t.Helper()
	w := h.do(t, http.MethodPost, "/auctions", "seller", CreateAuctionRequest{
		Item:           "item",
		MinPrice:       "100",
		BidDuration:    100,
		RevealDuration: 50,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp CreateAuctionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AuctionID
}

func commitHex(t *testing.T, amount, salt int64) string {
	t.Helper()
	cm, err := commitment.Commit(big.NewInt(amount), big.NewInt(salt))
	require.NoError(t, err)
	return hex.EncodeToString(cm)
}

func TestCreateAndGetAuction(t *testing.T) {
	h := newTestHost(t)
	id := h.createAuction(t)
	assert.Equal(t, uint64(1), id)

	w := h.do(t, http.MethodGet, "/auctions/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view AuctionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "seller", view.Seller)
	assert.Equal(t, "100", view.MinPrice)
	assert.Equal(t, "open", view.Phase)
	assert.Equal(t, uint64(1100), view.BidDeadline)
	assert.Equal(t, uint64(1150), view.RevealDeadline)
}

func TestGetUnknownAuctionReturnsZeroRecord(t *testing.T) {
	h := newTestHost(t)
	w := h.do(t, http.MethodGet, "/auctions/99", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view AuctionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Zero(t, view.ID)
}

func TestMissingCallerHeader(t *testing.T) {
	h := newTestHost(t)
	w := h.do(t, http.MethodPost, "/auctions", "", CreateAuctionRequest{MinPrice: "100", BidDuration: 1, RevealDuration: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFullLifecycleOverHTTP(t *testing.T) {
	h := newTestHost(t)
	h.createAuction(t)
	h.ledger.Mint("alice", big.NewInt(150))

	w := h.do(t, http.MethodPost, "/auctions/1/bids", "alice", SubmitBidRequest{
		Commitment: commitHex(t, 150, 999),
		Deposit:    "150",
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	h.now = 1100
	w = h.do(t, http.MethodPost, "/auctions/1/reveals", "alice", RevealBidRequest{
		Amount: "150",
		Salt:   "999",
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	h.now = 1150
	w = h.do(t, http.MethodPost, "/auctions/1/settle", "anyone", nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = h.do(t, http.MethodPost, "/auctions/1/refund", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var claim ClaimResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &claim))
	assert.Equal(t, "0", claim.Amount)

	w = h.do(t, http.MethodPost, "/auctions/1/payment", "seller", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &claim))
	assert.Equal(t, "150", claim.Amount)

	assert.Equal(t, int64(150), h.ledger.BalanceOf("seller").Int64())
}

func TestEngineErrorMapping(t *testing.T) {
	h := newTestHost(t)
	h.createAuction(t)
	h.ledger.Mint("seller", big.NewInt(150))
	h.ledger.Mint("alice", big.NewInt(300))

	// Seller bidding on own auction: authorization -> 403.
	w := h.do(t, http.MethodPost, "/auctions/1/bids", "seller", SubmitBidRequest{
		Commitment: commitHex(t, 150, 1),
		Deposit:    "150",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Duplicate bid: 409.
	bid := SubmitBidRequest{Commitment: commitHex(t, 150, 2), Deposit: "150"}
	w = h.do(t, http.MethodPost, "/auctions/1/bids", "alice", bid)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = h.do(t, http.MethodPost, "/auctions/1/bids", "alice", bid)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Deposit below minimum: range -> 400.
	w = h.do(t, http.MethodPost, "/auctions/1/bids", "bob", SubmitBidRequest{
		Commitment: commitHex(t, 150, 3),
		Deposit:    "50",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unfunded bidder: dependency -> 502.
	w = h.do(t, http.MethodPost, "/auctions/1/bids", "carol", SubmitBidRequest{
		Commitment: commitHex(t, 150, 4),
		Deposit:    "150",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// Settle before the reveal deadline: phase -> 409.
	w = h.do(t, http.MethodPost, "/auctions/1/settle", "anyone", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Wrong reveal opening: integrity -> 422.
	h.now = 1100
	w = h.do(t, http.MethodPost, "/auctions/1/reveals", "alice", RevealBidRequest{Amount: "150", Salt: "777"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmitRateLimit(t *testing.T) {
	h := newTestHost(t)
	calls := 0
	h.srv.allowSubmit = func(string) bool {
		calls++
		return calls > 1 // first call denied
	}
	h.createAuction(t)
	h.ledger.Mint("alice", big.NewInt(300))

	bid := SubmitBidRequest{Commitment: commitHex(t, 150, 1), Deposit: "150"}
	w := h.do(t, http.MethodPost, "/auctions/1/bids", "alice", bid)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = h.do(t, http.MethodPost, "/auctions/1/bids", "alice", bid)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMalformedRequests(t *testing.T) {
	h := newTestHost(t)
	h.createAuction(t)

	w := h.do(t, http.MethodGet, "/auctions/notanumber", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/auctions/1/bids", "alice", SubmitBidRequest{
		Commitment: "zz", // not hex
		Deposit:    "150",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/auctions/1/bids", "alice", SubmitBidRequest{
		Commitment: commitHex(t, 150, 1),
		Deposit:    "-5",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/auctions", "seller", CreateAuctionRequest{
		MinPrice:       "not a number",
		BidDuration:    1,
		RevealDuration: 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
