// commitment.go - Hiding bid commitments for the sealed-bid auction protocol.
//
// A commitment binds a hidden bid amount and a random salt using the MiMC hash
// over the BW6-761 scalar field. The off-chain commitment generator and the
// engine-side recomputation must encode the amount identically or every reveal
// will spuriously fail, so the limb encoding below is the single source of
// truth for both (and for the in-circuit recomputation in internal/proofs).

package commitment

import (
	"bytes"
	"errors"
	"math/big"

	fr "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	mimcNative "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
)

// LimbBits is the width of one amount limb. Amounts are at most two limbs
// wide, so the widest representable amount is 2^128 - 1.
const LimbBits = 64

var (
	// MaxAmount is the protocol-wide representable bound for every amount
	// (bids, deposits, prices): the widest value the two-limb encoding holds.
	MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 2*LimbBits), big.NewInt(1))

	limbMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), LimbBits), big.NewInt(1))

	ErrAmountRange = errors.New("amount outside representable range")
	ErrSaltRange   = errors.New("salt is not a canonical field element")
)

// Limbs splits an amount into its two 64-bit limbs, high limb first.
// The split point and order here must match BidCircuit exactly.
func Limbs(amount *big.Int) (hi, lo *big.Int, err error) {
	if amount == nil || amount.Sign() < 0 || amount.Cmp(MaxAmount) > 0 {
		return nil, nil, ErrAmountRange
	}
	hi = new(big.Int).Rsh(amount, LimbBits)
	lo = new(big.Int).And(amount, limbMask)
	return hi, lo, nil
}

// Commit computes cm = MiMC(amount_hi || amount_lo || salt), each value
// written as one canonical 48-byte scalar-field block. This is the same hash
// the BidCircuit recomputes in-circuit, block for block.
func Commit(amount, salt *big.Int) ([]byte, error) {
	hi, lo, err := Limbs(amount)
	if err != nil {
		return nil, err
	}
	if salt == nil || salt.Sign() < 0 || salt.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrSaltRange
	}
	h := mimcNative.NewMiMC()
	for _, v := range []*big.Int{hi, lo, salt} {
		var e fr.Element
		e.SetBigInt(v)
		b := e.Bytes()
		h.Write(b[:])
	}
	return h.Sum(nil), nil
}

// Verify recomputes the commitment for (amount, salt) and compares it to cm
// bit for bit. Any encoding error is reported as a plain mismatch: a value
// outside the representable range can never have produced a valid commitment.
func Verify(cm []byte, amount, salt *big.Int) bool {
	want, err := Commit(amount, salt)
	if err != nil {
		return false
	}
	return bytes.Equal(cm, want)
}
