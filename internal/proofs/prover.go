// prover.go - Bid proof generation and Groth16 key management.
//
// The engine itself never imports the proving side; it exists for bidders,
// the demo scenario and the tests. Key setup/load mirrors the verifying-key
// lifecycle: generate once, persist, reuse.

package proofs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"sealedbid/internal/commitment"
)

// CompileBidCircuit compiles the bid circuit over the BW6-761 scalar field.
func CompileBidCircuit() (constraint.ConstraintSystem, error) {
	var circuit BidCircuit
	ccs, err := frontend.Compile(ecc.BW6_761.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("bid circuit compilation failed: %w", err)
	}
	return ccs, nil
}

// Prove generates a bid proof envelope for (amount, salt) against minPrice.
// The public outputs embedded in the envelope are [minPrice, MaxAmount,
// commitment], in the order the verifier expects.
func Prove(amount, salt, minPrice *big.Int, ccs constraint.ConstraintSystem, pk groth16.ProvingKey) ([]byte, error) {
	hi, lo, err := commitment.Limbs(amount)
	if err != nil {
		return nil, err
	}
	cm, err := commitment.Commit(amount, salt)
	if err != nil {
		return nil, err
	}
	cmInt := new(big.Int).SetBytes(cm)

	witness := &BidCircuit{
		MinPrice:   minPrice.String(),
		MaxPrice:   commitment.MaxAmount.String(),
		Commitment: cmInt.String(),
		AmountHi:   hi.String(),
		AmountLo:   lo.String(),
		Salt:       salt.String(),
	}
	w, err := frontend.NewWitness(witness, ecc.BW6_761.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}
	proof, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}
	var proofBuf bytes.Buffer
	if _, err := proof.WriteTo(&proofBuf); err != nil {
		return nil, fmt.Errorf("proof marshaling failed: %w", err)
	}

	env := Envelope{
		Proof: proofBuf.Bytes(),
		Outputs: []string{
			minPrice.String(),
			commitment.MaxAmount.String(),
			cmInt.String(),
		},
	}
	return json.Marshal(env)
}

// SaveProvingKey saves a Groth16 proving key to disk.
func SaveProvingKey(path string, pk groth16.ProvingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = pk.WriteTo(f)
	return err
}

// SaveVerifyingKey saves a Groth16 verifying key to disk.
func SaveVerifyingKey(path string, vk groth16.VerifyingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = vk.WriteTo(f)
	return err
}

// LoadProvingKey loads a Groth16 proving key from disk.
func LoadProvingKey(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(ecc.BW6_761)
	_, err = pk.ReadFrom(f)
	return pk, err
}

// LoadVerifyingKey loads a Groth16 verifying key from disk.
func LoadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BW6_761)
	_, err = vk.ReadFrom(f)
	return vk, err
}

// SetupOrLoadKeys generates or loads Groth16 keys for the bid circuit.
// If keys exist on disk, loads them; otherwise, generates and saves new keys.
func SetupOrLoadKeys(ccs constraint.ConstraintSystem, pkPath, vkPath string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	pk, pkErr := LoadProvingKey(pkPath)
	vk, vkErr := LoadVerifyingKey(vkPath)
	if pkErr == nil && vkErr == nil {
		return pk, vk, nil
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, err
	}
	if err := SaveProvingKey(pkPath, pk); err != nil {
		return nil, nil, err
	}
	if err := SaveVerifyingKey(vkPath, vk); err != nil {
		return nil, nil, err
	}
	return pk, vk, nil
}
