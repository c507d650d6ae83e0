// ledger.go - Value-transfer interface between the engine and the external
// fungible-asset service holding escrowed deposits.

package funds

import (
	"math/big"
	"sync"
)

// Ledger is the transfer interface the engine calls. Implementations are
// bound to the engine's escrow identity: Transfer pays out of escrow,
// TransferFrom pulls a deposit into it. A false return is treated by the
// engine as a fatal dependency failure for the enclosing call.
type Ledger interface {
	Transfer(to string, amount *big.Int) bool
	TransferFrom(from, to string, amount *big.Int) bool
	BalanceOf(addr string) *big.Int
}

// TokenLedger is an in-memory reference implementation used by tests and the
// demo daemon. Balances never go negative; an underfunded transfer fails
// without moving anything.
type TokenLedger struct {
	mu       sync.Mutex
	escrow   string
	balances map[string]*big.Int
}

// NewTokenLedger creates an empty ledger with the given escrow account.
func NewTokenLedger(escrow string) *TokenLedger {
	return &TokenLedger{
		escrow:   escrow,
		balances: make(map[string]*big.Int),
	}
}

// Mint credits an account out of thin air. Test and demo setup only.
func (l *TokenLedger) Mint(addr string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(addr, amount)
}

// Transfer moves amount from the escrow account to the recipient.
func (l *TokenLedger) Transfer(to string, amount *big.Int) bool {
	return l.TransferFrom(l.escrow, to, amount)
}

// TransferFrom moves amount between two accounts.
func (l *TokenLedger) TransferFrom(from, to string, amount *big.Int) bool {
	if amount == nil || amount.Sign() < 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	have, ok := l.balances[from]
	if !ok || have.Cmp(amount) < 0 {
		return false
	}
	have.Sub(have, amount)
	l.credit(to, amount)
	return true
}

// BalanceOf returns the current balance of an account (zero if unknown).
func (l *TokenLedger) BalanceOf(addr string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (l *TokenLedger) credit(addr string, amount *big.Int) {
	if b, ok := l.balances[addr]; ok {
		b.Add(b, amount)
		return
	}
	l.balances[addr] = new(big.Int).Set(amount)
}
