package mmr

import (
	"fmt"

	junocrypto "github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethpandaops/herald/types"
)

// Hasher is the node combine function of one MMR flavour. HashPair combines
// an ordered pair of nodes, HashRoot binds the element count to the bagged
// peaks to form the final root.
type Hasher interface {
	HashPair(left, right common.Hash) common.Hash
	HashRoot(elementsCount uint64, bag common.Hash) common.Hash
}

// ForFunction returns the hasher for the given hashing function.
func ForFunction(fn types.HashingFunction) (Hasher, error) {
	switch fn {
	case types.HashingKeccak:
		return keccakHasher{}, nil
	case types.HashingPoseidon:
		return poseidonHasher{}, nil
	default:
		return nil, fmt.Errorf("no mmr hasher for %v", fn)
	}
}

type keccakHasher struct{}

func (keccakHasher) HashPair(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

func (keccakHasher) HashRoot(elementsCount uint64, bag common.Hash) common.Hash {
	var size common.Hash
	for i := 0; i < 8; i++ {
		size[31-i] = byte(elementsCount >> (8 * i))
	}
	return crypto.Keccak256Hash(size[:], bag[:])
}

type poseidonHasher struct{}

func (poseidonHasher) HashPair(left, right common.Hash) common.Hash {
	l := new(felt.Felt).SetBytes(left[:])
	r := new(felt.Felt).SetBytes(right[:])
	return common.Hash(junocrypto.Poseidon(l, r).Bytes())
}

func (poseidonHasher) HashRoot(elementsCount uint64, bag common.Hash) common.Hash {
	size := new(felt.Felt).SetUint64(elementsCount)
	b := new(felt.Felt).SetBytes(bag[:])
	return common.Hash(junocrypto.Poseidon(size, b).Bytes())
}
