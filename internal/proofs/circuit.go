package proofs

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// BidCircuit proves that a hidden bid amount meets the auction minimum price
// and stays under the protocol price bound, and that the published commitment
// was computed over exactly that amount and salt.
//
// The public variables double as the verifier's ordered public outputs:
// position 0 is the claimed minimum price, position 1 the price bound,
// position 2 the commitment. The gate matches them against the auction
// parameters, which is what stops a bidder from proving validity of one
// commitment while registering a different one.
type BidCircuit struct {
	// ====== PUBLIC VARIABLES ======
	MinPrice   frontend.Variable `gnark:",public"` // Auction minimum price
	MaxPrice   frontend.Variable `gnark:",public"` // Protocol-wide price bound
	Commitment frontend.Variable `gnark:",public"` // MiMC bid commitment

	// ====== PRIVATE VARIABLES ======
	AmountHi frontend.Variable // High 64-bit limb of the bid amount
	AmountLo frontend.Variable // Low 64-bit limb of the bid amount
	Salt     frontend.Variable // Commitment salt
}

// Define implements the circuit constraints for bid admission.
func (c *BidCircuit) Define(api frontend.API) error {
	// 1) Range-check the limbs so the recombined amount is honest
	api.ToBinary(c.AmountHi, 64)
	api.ToBinary(c.AmountLo, 64)

	// 2) Recombine amount = hi * 2^64 + lo, matching commitment.Limbs
	shift := new(big.Int).Lsh(big.NewInt(1), 64)
	amount := api.Add(api.Mul(c.AmountHi, shift), c.AmountLo)

	// 3) Recompute the commitment: cm = MiMC(hi || lo || salt)
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.AmountHi)
	hasher.Write(c.AmountLo)
	hasher.Write(c.Salt)
	api.AssertIsEqual(c.Commitment, hasher.Sum())

	// 4) min_price <= amount <= max_price
	api.AssertIsLessOrEqual(c.MinPrice, amount)
	api.AssertIsLessOrEqual(amount, c.MaxPrice)

	return nil
}
