// Package canonical re-derives header identity hashes from raw header
// fields. Hashes supplied by a data source are never trusted; the canonical
// hash recomputed here is the value bound into the MMR.
package canonical

import (
	"fmt"

	junocrypto "github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethpandaops/herald/types"
)

// ExecutionHeaderHash recomputes the identity hash of an execution layer
// header: keccak256 of the RLP encoding of its fields.
func ExecutionHeaderHash(header *ethtypes.Header) common.Hash {
	return header.Hash()
}

// BeaconHeaderRoot recomputes the identity of a beacon chain header:
// the SSZ hash tree root of its five fields.
func BeaconHeaderRoot(header *phase0.BeaconBlockHeader) (common.Hash, error) {
	root, err := header.HashTreeRoot()
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash tree root: %w", err)
	}
	return common.Hash(root), nil
}

// Leaf derives the MMR leaf value from a header's canonical hash.
// For keccak MMRs the leaf is keccak256 of the hash. For poseidon MMRs the
// 32-byte hash is split into two 128-bit limbs and hashed as
// poseidon(low, high) over the Stark field.
func Leaf(headerHash common.Hash, fn types.HashingFunction) (common.Hash, error) {
	switch fn {
	case types.HashingKeccak:
		return crypto.Keccak256Hash(headerHash[:]), nil
	case types.HashingPoseidon:
		high := new(felt.Felt).SetBytes(headerHash[0:16])
		low := new(felt.Felt).SetBytes(headerHash[16:32])
		return common.Hash(junocrypto.Poseidon(low, high).Bytes()), nil
	default:
		return common.Hash{}, fmt.Errorf("no leaf derivation for %v", fn)
	}
}
