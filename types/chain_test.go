package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	assert.Equal(t, "beacon", ChainBeacon.String())
	assert.Equal(t, "execution", ChainExecution.String())
	assert.Equal(t, "chain(7)", Chain(7).String())

	assert.True(t, ChainBeacon.Valid())
	assert.True(t, ChainExecution.Valid())
	assert.False(t, Chain(2).Valid())
}

func TestHashingFunction(t *testing.T) {
	assert.Equal(t, "keccak", HashingKeccak.String())
	assert.Equal(t, "poseidon", HashingPoseidon.String())

	assert.True(t, HashingKeccak.Valid())
	assert.True(t, HashingPoseidon.Valid())
	assert.False(t, HashingFunction(2).Valid())

	fn, err := ParseHashingFunction("keccak")
	require.NoError(t, err)
	assert.Equal(t, HashingKeccak, fn)

	fn, err = ParseHashingFunction("poseidon")
	require.NoError(t, err)
	assert.Equal(t, HashingPoseidon, fn)

	_, err = ParseHashingFunction("sha256")
	assert.Error(t, err)
}

func TestHashingFunctionJSON(t *testing.T) {
	for _, fn := range []HashingFunction{HashingKeccak, HashingPoseidon} {
		data, err := json.Marshal(fn)
		require.NoError(t, err)
		assert.Equal(t, `"`+fn.String()+`"`, string(data))

		var decoded HashingFunction
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, fn, decoded)
	}

	_, err := json.Marshal(HashingFunction(9))
	assert.Error(t, err)

	var decoded HashingFunction
	assert.Error(t, json.Unmarshal([]byte(`"blake3"`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`3`), &decoded))
}

func TestProofBundleJSONRoundTrip(t *testing.T) {
	bundle := &ProofBundle{
		HashingFunction: HashingPoseidon,
		BlockProof: &ValidityProof{
			BlockNumber:  9000,
			Proof:        []byte{0x01, 0x02},
			PublicInputs: []byte{0x03},
		},
	}

	data, err := json.Marshal(bundle)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hashing_function":"poseidon"`)
	assert.Contains(t, string(data), `"block_proof"`)

	var decoded ProofBundle
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, bundle.HashingFunction, decoded.HashingFunction)
	require.NotNil(t, decoded.BlockProof)
	assert.Equal(t, bundle.BlockProof.BlockNumber, decoded.BlockProof.BlockNumber)
	assert.Equal(t, bundle.BlockProof.Proof, decoded.BlockProof.Proof)
}
