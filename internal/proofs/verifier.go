// verifier.go - Proof verification for proof-gated bid admission.
//
// The engine never constructs proofs; it only calls a Verifier resolved once
// at construction, so a mock and the real Groth16 verifier are
// interchangeable without touching auction logic.

package proofs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
)

// Positions of the load-bearing public outputs. Extra trailing outputs are
// tolerated; fewer than MinOutputs is fatal.
const (
	OutMinPrice   = 0
	OutMaxPrice   = 1
	OutCommitment = 2
	MinOutputs    = 3
)

// Verifier validates an opaque proof blob and returns its ordered public
// outputs, interpreted positionally as [min_price, max_price_bound,
// commitment, ...].
type Verifier interface {
	Verify(proof []byte) ([]*big.Int, error)
}

// Envelope is the wire form of a bid proof: the Groth16 proof bytes together
// with the claimed public outputs as decimal field elements.
type Envelope struct {
	Proof   []byte   `json:"proof"`
	Outputs []string `json:"outputs"`
}

// Groth16Verifier verifies bid proofs against the BidCircuit verifying key.
type Groth16Verifier struct {
	vk groth16.VerifyingKey
}

// NewGroth16Verifier creates a verifier bound to a verifying key.
func NewGroth16Verifier(vk groth16.VerifyingKey) *Groth16Verifier {
	return &Groth16Verifier{vk: vk}
}

// Verify unmarshals the proof envelope, rebuilds the public witness from the
// claimed outputs and verifies the Groth16 proof against it. On success the
// returned outputs are exactly the values the proof was verified over.
func (v *Groth16Verifier) Verify(proofBytes []byte) ([]*big.Int, error) {
	var env Envelope
	if err := json.Unmarshal(proofBytes, &env); err != nil {
		return nil, errors.New("invalid bid proof: cannot unmarshal envelope")
	}
	if len(env.Outputs) < MinOutputs {
		return nil, fmt.Errorf("invalid bid proof: %d public outputs, need at least %d", len(env.Outputs), MinOutputs)
	}

	outputs := make([]*big.Int, len(env.Outputs))
	for i, s := range env.Outputs {
		val, ok := new(big.Int).SetString(s, 10)
		if !ok || val.Sign() < 0 {
			return nil, fmt.Errorf("invalid bid proof: public output %d is not a field element", i)
		}
		outputs[i] = val
	}

	// Rebuild the public witness for the bid circuit
	publicWitness := &BidCircuit{
		MinPrice:   outputs[OutMinPrice].String(),
		MaxPrice:   outputs[OutMaxPrice].String(),
		Commitment: outputs[OutCommitment].String(),
	}
	w, err := frontend.NewWitness(publicWitness, ecc.BW6_761.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, errors.New("invalid bid proof: cannot build public witness")
	}

	proof := groth16.NewProof(ecc.BW6_761)
	if _, err := proof.ReadFrom(bytes.NewReader(env.Proof)); err != nil {
		return nil, errors.New("invalid bid proof: cannot unmarshal proof")
	}

	if err := groth16.Verify(proof, v.vk, w); err != nil {
		return nil, errors.New("invalid bid proof: verification failed")
	}
	return outputs, nil
}
