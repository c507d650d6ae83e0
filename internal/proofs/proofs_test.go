package proofs

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedbid/internal/commitment"
)

func TestStaticVerifier(t *testing.T) {
	cm := []byte{0x01, 0x02}
	want := StaticOutputs(big.NewInt(100), commitment.MaxAmount, cm)
	v := &StaticVerifier{Outputs: want}

	got, err := v.Verify([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	boom := errors.New("boom")
	v = &StaticVerifier{Err: boom}
	_, err = v.Verify(nil)
	assert.ErrorIs(t, err, boom)
}

func TestStaticOutputsOrder(t *testing.T) {
	cm := []byte{0xab, 0xcd}
	outputs := StaticOutputs(big.NewInt(7), big.NewInt(9), cm)

	require.Len(t, outputs, MinOutputs)
	assert.Equal(t, int64(7), outputs[OutMinPrice].Int64())
	assert.Equal(t, int64(9), outputs[OutMaxPrice].Int64())
	assert.Equal(t, new(big.Int).SetBytes(cm), outputs[OutCommitment])
}

func TestGroth16VerifierRejectsMalformedEnvelopes(t *testing.T) {
	v := NewGroth16Verifier(nil)

	_, err := v.Verify([]byte("not json"))
	assert.Error(t, err)

	// Too few public outputs.
	short, _ := json.Marshal(Envelope{Proof: []byte{1}, Outputs: []string{"1", "2"}})
	_, err = v.Verify(short)
	assert.Error(t, err)

	// Non-numeric output.
	bad, _ := json.Marshal(Envelope{Proof: []byte{1}, Outputs: []string{"1", "2", "xyz"}})
	_, err = v.Verify(bad)
	assert.Error(t, err)

	// Negative output.
	neg, _ := json.Marshal(Envelope{Proof: []byte{1}, Outputs: []string{"1", "2", "-3"}})
	_, err = v.Verify(neg)
	assert.Error(t, err)
}

// TestBidProofEndToEnd runs the full pipeline: compile, trusted setup, prove
// an in-range bid and verify the envelope. Slow but the only test that
// exercises the real circuit.
func TestBidProofEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Groth16 setup in short mode")
	}

	ccs, err := CompileBidCircuit()
	require.NoError(t, err)

	dir := t.TempDir()
	pk, vk, err := SetupOrLoadKeys(ccs, dir+"/pk.bin", dir+"/vk.bin")
	require.NoError(t, err)

	amount := big.NewInt(150)
	salt := big.NewInt(999)
	minPrice := big.NewInt(100)

	proof, err := Prove(amount, salt, minPrice, ccs, pk)
	require.NoError(t, err)

	verifier := NewGroth16Verifier(vk)
	outputs, err := verifier.Verify(proof)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(outputs), MinOutputs)

	assert.Zero(t, outputs[OutMinPrice].Cmp(minPrice))
	assert.Zero(t, outputs[OutMaxPrice].Cmp(commitment.MaxAmount))

	cm, err := commitment.Commit(amount, salt)
	require.NoError(t, err)
	assert.Zero(t, outputs[OutCommitment].Cmp(new(big.Int).SetBytes(cm)))

	// Tampering with a claimed output invalidates the proof.
	var env Envelope
	require.NoError(t, json.Unmarshal(proof, &env))
	env.Outputs[OutMinPrice] = "101"
	tampered, err := json.Marshal(env)
	require.NoError(t, err)
	_, err = verifier.Verify(tampered)
	assert.Error(t, err)

	// A below-minimum amount cannot be proven at all.
	_, err = Prove(big.NewInt(99), salt, minPrice, ccs, pk)
	assert.Error(t, err)

	// Keys persisted on the first setup load back cleanly.
	_, _, err = SetupOrLoadKeys(ccs, dir+"/pk.bin", dir+"/vk.bin")
	require.NoError(t, err)
}
