package proofs

import "math/big"

// StaticVerifier is a test double that returns fixed outputs or a fixed
// error, regardless of the proof bytes.
type StaticVerifier struct {
	Outputs []*big.Int
	Err     error
}

func (v *StaticVerifier) Verify(proof []byte) ([]*big.Int, error) {
	if v.Err != nil {
		return nil, v.Err
	}
	return v.Outputs, nil
}

// StaticOutputs builds the canonical output triple a well-formed proof would
// carry for the given minimum price, bound and commitment.
func StaticOutputs(minPrice, maxPrice *big.Int, cm []byte) []*big.Int {
	return []*big.Int{
		new(big.Int).Set(minPrice),
		new(big.Int).Set(maxPrice),
		new(big.Int).SetBytes(cm),
	}
}
