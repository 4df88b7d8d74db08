package blockproof

import (
	"fmt"
	"math/big"

	fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/witness"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ethpandaops/herald/types"
)

// The public output of the anchor block circuit is a fixed vector of 26
// field elements. 32-byte words are committed as two 128-bit limbs in
// (low, high) order; poseidon roots are single field elements.
const outputLen = 26

const (
	outAnchorNumber = iota
	outBeaconSlot
	outBeaconHeaderRootLo
	outBeaconHeaderRootHi
	outBeaconJustified
	outBeaconFinalized
	outBeaconSigners
	outBeaconRootKeccakLo
	outBeaconRootKeccakHi
	outBeaconRootPoseidon
	outBeaconCurCommitteeLo
	outBeaconCurCommitteeHi
	outBeaconNextCommitteeLo
	outBeaconNextCommitteeHi
	outBeaconElements
	outBeaconLeaves
	outExecNumber
	outExecHeaderHashLo
	outExecHeaderHashHi
	outExecJustified
	outExecFinalized
	outExecRootKeccakLo
	outExecRootKeccakHi
	outExecRootPoseidon
	outExecElements
	outExecLeaves
)

// decodeOutputs turns the verified public witness into a TrustedBlock.
func decodeOutputs(public witness.Witness) (*types.TrustedBlock, error) {
	vector, ok := public.Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected witness vector type %T",
			types.ErrMalformedPublicOutput, public.Vector())
	}

	values := make([]*big.Int, len(vector))
	for i := range vector {
		values[i] = vector[i].BigInt(new(big.Int))
	}

	return decodeOutputVector(values)
}

func decodeOutputVector(values []*big.Int) (*types.TrustedBlock, error) {
	if len(values) != outputLen {
		return nil, fmt.Errorf("%w: %d output elements, expected %d",
			types.ErrMalformedPublicOutput, len(values), outputLen)
	}

	dec := outputDecoder{values: values}

	params := types.TrustedBlockParams{
		Number: dec.u64(outAnchorNumber),
		Beacon: types.TrustedChainParams{
			RootKeccak:    dec.word(outBeaconRootKeccakLo, outBeaconRootKeccakHi),
			RootPoseidon:  dec.felt(outBeaconRootPoseidon),
			ElementsCount: dec.u64(outBeaconElements),
			LeavesCount:   dec.u64(outBeaconLeaves),
			Summary: types.ChainSummary{
				Height:               dec.u64(outBeaconSlot),
				HeaderRoot:           dec.word(outBeaconHeaderRootLo, outBeaconHeaderRootHi),
				JustifiedHeight:      dec.u64(outBeaconJustified),
				FinalizedHeight:      dec.u64(outBeaconFinalized),
				SignerCount:          dec.u64(outBeaconSigners),
				CurrentCommitteeHash: dec.word(outBeaconCurCommitteeLo, outBeaconCurCommitteeHi),
				NextCommitteeHash:    dec.word(outBeaconNextCommitteeLo, outBeaconNextCommitteeHi),
			},
		},
		Execution: types.TrustedChainParams{
			RootKeccak:    dec.word(outExecRootKeccakLo, outExecRootKeccakHi),
			RootPoseidon:  dec.felt(outExecRootPoseidon),
			ElementsCount: dec.u64(outExecElements),
			LeavesCount:   dec.u64(outExecLeaves),
			Summary: types.ChainSummary{
				Height:          dec.u64(outExecNumber),
				HeaderRoot:      dec.word(outExecHeaderHashLo, outExecHeaderHashHi),
				JustifiedHeight: dec.u64(outExecJustified),
				FinalizedHeight: dec.u64(outExecFinalized),
			},
		},
	}
	if dec.err != nil {
		return nil, dec.err
	}

	if err := checkSanity(&params); err != nil {
		return nil, err
	}

	return types.NewTrustedBlock(params), nil
}

// checkSanity rejects outputs that decoded cleanly but cannot describe a
// usable anchor: empty MMR roots or zero element counts.
func checkSanity(params *types.TrustedBlockParams) error {
	for _, chain := range []struct {
		name  string
		state *types.TrustedChainParams
	}{
		{"beacon", &params.Beacon},
		{"execution", &params.Execution},
	} {
		if chain.state.RootKeccak == (common.Hash{}) || chain.state.RootPoseidon == (common.Hash{}) {
			return fmt.Errorf("%w: empty %s mmr root", types.ErrMalformedPublicOutput, chain.name)
		}
		if chain.state.ElementsCount == 0 || chain.state.LeavesCount == 0 {
			return fmt.Errorf("%w: zero %s mmr size", types.ErrMalformedPublicOutput, chain.name)
		}
		if chain.state.LeavesCount > chain.state.ElementsCount {
			return fmt.Errorf("%w: %s leaves exceed elements", types.ErrMalformedPublicOutput, chain.name)
		}
	}
	return nil
}

// outputDecoder accumulates the first decoding error instead of forcing a
// check after every field.
type outputDecoder struct {
	values []*big.Int
	err    error
}

func (d *outputDecoder) u64(idx int) uint64 {
	v := d.values[idx]
	if !v.IsUint64() {
		d.fail(idx, "value exceeds 64 bits")
		return 0
	}
	return v.Uint64()
}

func (d *outputDecoder) word(loIdx, hiIdx int) common.Hash {
	lo, hi := d.values[loIdx], d.values[hiIdx]
	if lo.BitLen() > 128 {
		d.fail(loIdx, "limb exceeds 128 bits")
		return common.Hash{}
	}
	if hi.BitLen() > 128 {
		d.fail(hiIdx, "limb exceeds 128 bits")
		return common.Hash{}
	}

	var word common.Hash
	hi.FillBytes(word[0:16])
	lo.FillBytes(word[16:32])
	return word
}

func (d *outputDecoder) felt(idx int) common.Hash {
	v := d.values[idx]
	if v.BitLen() > 256 {
		d.fail(idx, "value exceeds 256 bits")
		return common.Hash{}
	}

	var word common.Hash
	v.FillBytes(word[:])
	return word
}

func (d *outputDecoder) fail(idx int, msg string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: output %d: %s", types.ErrMalformedPublicOutput, idx, msg)
	}
}
