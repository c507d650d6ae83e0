package auction

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedbid/internal/events"
	"sealedbid/internal/funds"
)

func TestWithdrawRefundAfterCancellation(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	id := createTestAuction(t, e)
	placeBid(t, e, ledger, id, "alice", 150, 1, 150)
	placeBid(t, e, ledger, id, "bob", 120, 2, 160)
	require.NoError(t, e.Settle(id, settleTime))

	paid, err := e.WithdrawRefund(id, "alice", settleTime)
	require.NoError(t, err)
	assert.Equal(t, int64(150), paid.Int64())
	assert.Equal(t, int64(150), ledger.BalanceOf("alice").Int64())

	paid, err = e.WithdrawRefund(id, "bob", settleTime)
	require.NoError(t, err)
	assert.Equal(t, int64(160), paid.Int64())

	assert.Zero(t, ledger.BalanceOf("escrow").Sign(), "escrow fully drained by refunds")
}

func TestWithdrawRefundForLoserAndWinner(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	id := createTestAuction(t, e)
	placeBid(t, e, ledger, id, "alice", 180, 1, 200)
	placeBid(t, e, ledger, id, "bob", 120, 2, 150)
	require.NoError(t, e.Reveal(id, big.NewInt(180), big.NewInt(1), "alice", revealTime))
	require.NoError(t, e.Reveal(id, big.NewInt(120), big.NewInt(2), "bob", revealTime))
	require.NoError(t, e.Settle(id, settleTime))

	paid, err := e.WithdrawRefund(id, "bob", settleTime)
	require.NoError(t, err)
	assert.Equal(t, int64(150), paid.Int64())

	// Winner gets only the deposit surplus.
	paid, err = e.WithdrawRefund(id, "alice", settleTime)
	require.NoError(t, err)
	assert.Equal(t, int64(20), paid.Int64())

	// What remains in escrow is exactly the seller's proceeds.
	assert.Equal(t, int64(180), ledger.BalanceOf("escrow").Int64())
}

func TestWithdrawRefundPreconditions(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	id := createTestAuction(t, e)
	placeBid(t, e, ledger, id, "alice", 150, 1, 150)

	_, err := e.WithdrawRefund(id, "alice", revealTime)
	assert.ErrorIs(t, err, ErrPhase, "auction not terminal yet")

	require.NoError(t, e.Settle(id, settleTime))

	_, err = e.WithdrawRefund(id, "stranger", settleTime)
	assert.ErrorIs(t, err, ErrAuthorization, "caller never bid")

	_, err = e.WithdrawRefund(id, "alice", settleTime)
	require.NoError(t, err)
	_, err = e.WithdrawRefund(id, "alice", settleTime)
	assert.ErrorIs(t, err, ErrDuplicate, "refund claimed twice")
}

func TestWithdrawRefundZeroSurplusNoOp(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	id := createTestAuction(t, e)
	placeBid(t, e, ledger, id, "alice", 150, 999, 150)
	require.NoError(t, e.Reveal(id, big.NewInt(150), big.NewInt(999), "alice", revealTime))
	require.NoError(t, e.Settle(id, settleTime))

	// Deposit equals winning amount; the refund was satisfied at settlement.
	paid, err := e.WithdrawRefund(id, "alice", settleTime)
	require.NoError(t, err)
	assert.Zero(t, paid.Sign())

	// And it stays a no-op on repeat.
	paid, err = e.WithdrawRefund(id, "alice", settleTime+1)
	require.NoError(t, err)
	assert.Zero(t, paid.Sign())
}

func TestWithdrawRefundTransferFailure(t *testing.T) {
	base := funds.NewTokenLedger("escrow")
	sink := events.NewMemorySink()
	e := NewEngine(failingLedger{base}, "escrow", WithEventSink(sink))
	id := createTestAuction(t, e)
	placeBid(t, e, base, id, "alice", 150, 1, 150)
	require.NoError(t, e.Settle(id, settleTime))

	_, err := e.WithdrawRefund(id, "alice", settleTime)
	assert.ErrorIs(t, err, ErrDependency)

	// The claim is retryable: nothing was marked claimed.
	assert.False(t, e.Bid(id, "alice").RefundClaimed)
}

func TestClaimSellerPayment(t *testing.T) {
	e, ledger, sink := newTestEngine(t)
	id := createTestAuction(t, e)
	placeBid(t, e, ledger, id, "alice", 150, 999, 150)
	require.NoError(t, e.Reveal(id, big.NewInt(150), big.NewInt(999), "alice", revealTime))
	require.NoError(t, e.Settle(id, settleTime))

	paid, err := e.ClaimSellerPayment(id, "seller", settleTime)
	require.NoError(t, err)
	assert.Equal(t, int64(150), paid.Int64())
	assert.Equal(t, int64(150), ledger.BalanceOf("seller").Int64())
	assert.True(t, e.Auction(id).ProceedsClaimed)

	recorded := sink.Events()
	assert.Equal(t, events.TypeSellerPaymentClaimed, recorded[len(recorded)-1].Type)
}

func TestClaimSellerPaymentPreconditions(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	id := createTestAuction(t, e)
	placeBid(t, e, ledger, id, "alice", 150, 999, 150)

	_, err := e.ClaimSellerPayment(id, "alice", settleTime)
	assert.ErrorIs(t, err, ErrAuthorization, "only the seller may claim")

	_, err = e.ClaimSellerPayment(id, "seller", revealTime)
	assert.ErrorIs(t, err, ErrPhase, "auction not settled yet")

	require.NoError(t, e.Reveal(id, big.NewInt(150), big.NewInt(999), "alice", revealTime))
	require.NoError(t, e.Settle(id, settleTime))

	_, err = e.ClaimSellerPayment(id, "seller", settleTime)
	require.NoError(t, err)
	_, err = e.ClaimSellerPayment(id, "seller", settleTime)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestClaimSellerPaymentOnCancelledAuction(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id := createTestAuction(t, e)
	require.NoError(t, e.Settle(id, settleTime))

	_, err := e.ClaimSellerPayment(id, "seller", settleTime)
	assert.ErrorIs(t, err, ErrPhase, "cancelled auctions pay no seller")
}

func TestFundsConservation(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	id := createTestAuction(t, e)
	placeBid(t, e, ledger, id, "alice", 180, 1, 200)
	placeBid(t, e, ledger, id, "bob", 120, 2, 150)
	placeBid(t, e, ledger, id, "carol", 160, 3, 170)
	require.NoError(t, e.Reveal(id, big.NewInt(180), big.NewInt(1), "alice", revealTime))
	require.NoError(t, e.Reveal(id, big.NewInt(120), big.NewInt(2), "bob", revealTime))
	require.NoError(t, e.Reveal(id, big.NewInt(160), big.NewInt(3), "carol", revealTime))
	require.NoError(t, e.Settle(id, settleTime))

	total := int64(200 + 150 + 170)
	var out int64
	for _, bidder := range []string{"alice", "bob", "carol"} {
		paid, err := e.WithdrawRefund(id, bidder, settleTime)
		require.NoError(t, err)
		out += paid.Int64()
	}
	paid, err := e.ClaimSellerPayment(id, "seller", settleTime)
	require.NoError(t, err)
	out += paid.Int64()

	assert.Equal(t, total, out, "payouts equal escrowed deposits")
	assert.Zero(t, ledger.BalanceOf("escrow").Sign())
}
