// Package mmrtest builds real MMRs in memory so tests can construct valid
// inclusion proofs and known-good roots without a proof service.
package mmrtest

import (
	"math/bits"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethpandaops/herald/types"
	"github.com/ethpandaops/herald/verify/mmr"
)

// Builder is an append only MMR with the same shape rules the verifier
// expects: 1-based element positions covering leaves and inner nodes,
// peaks of perfect subtrees, root = H(elements_count, bag(peaks)).
type Builder struct {
	fn       types.HashingFunction
	hasher   mmr.Hasher
	elements []common.Hash // element at position p is elements[p-1]
	leaves   uint64
}

// NewBuilder returns an empty MMR for the given hashing function.
func NewBuilder(fn types.HashingFunction) *Builder {
	hasher, err := mmr.ForFunction(fn)
	if err != nil {
		panic(err)
	}
	return &Builder{fn: fn, hasher: hasher}
}

// AddLeaf appends a leaf and any parents it completes, returning the
// leaf's element position.
func (b *Builder) AddLeaf(leaf common.Hash) uint64 {
	b.elements = append(b.elements, leaf)
	b.leaves++
	position := uint64(len(b.elements))

	leafPosition := position
	height := uint64(0)
	for elementHeight(position+1) > height {
		left := b.elements[position-(uint64(1)<<(height+1)-1)-1]
		right := b.elements[position-1]
		b.elements = append(b.elements, b.hasher.HashPair(left, right))
		position = uint64(len(b.elements))
		height++
	}

	return leafPosition
}

// ElementsCount returns the MMR size.
func (b *Builder) ElementsCount() uint64 {
	return uint64(len(b.elements))
}

// LeavesCount returns the number of leaves appended.
func (b *Builder) LeavesCount() uint64 {
	return b.leaves
}

// Peaks returns the current peak hashes, left to right.
func (b *Builder) Peaks() []common.Hash {
	peaks := make([]common.Hash, 0, 4)
	for _, position := range b.peakPositions() {
		peaks = append(peaks, b.elements[position-1])
	}
	return peaks
}

// Root returns the current MMR root.
func (b *Builder) Root() common.Hash {
	peaks := b.Peaks()
	bag := peaks[len(peaks)-1]
	for i := len(peaks) - 2; i >= 0; i-- {
		bag = b.hasher.HashPair(peaks[i], bag)
	}
	return b.hasher.HashRoot(b.ElementsCount(), bag)
}

// ProofPath returns the sibling path from the element at position up to
// its peak.
func (b *Builder) ProofPath(position uint64) []common.Hash {
	peaks := b.peakPositions()
	isPeak := func(p uint64) bool {
		for _, peak := range peaks {
			if p == peak {
				return true
			}
		}
		return false
	}

	path := []common.Hash{}
	height := uint64(0)
	for !isPeak(position) {
		subtreeSize := uint64(1)<<(height+1) - 1
		if elementHeight(position+1) == elementHeight(position)+1 {
			// Right child, sibling subtree root sits before ours.
			path = append(path, b.elements[position-subtreeSize-1])
			position++
		} else {
			path = append(path, b.elements[position+subtreeSize-1])
			position += subtreeSize + 1
		}
		height++
	}
	return path
}

// Proof assembles a complete MmrProof for the element at position.
func (b *Builder) Proof(chain types.Chain, blockNumber uint64, headerHash common.Hash, position uint64) *types.MmrProof {
	return &types.MmrProof{
		Chain:           chain,
		BlockNumber:     blockNumber,
		HashingFunction: b.fn,
		HeaderHash:      headerHash,
		Root:            b.Root(),
		ElementsIndex:   position,
		ElementsCount:   b.ElementsCount(),
		Path:            b.ProofPath(position),
		Peaks:           b.Peaks(),
	}
}

func (b *Builder) peakPositions() []uint64 {
	n := b.ElementsCount()
	if n == 0 {
		panic("mmrtest: empty mmr")
	}

	positions := []uint64{}
	offset := uint64(0)
	remaining := n
	for remaining > 0 {
		i := uint64(bits.Len64(remaining))
		peak := uint64(1)<<i - 1
		if remaining+1 <= peak {
			peak = uint64(1)<<(i-1) - 1
		}
		offset += peak
		positions = append(positions, offset)
		remaining -= peak
	}
	return positions
}

func elementHeight(position uint64) uint64 {
	x := position
	for {
		bl := uint64(bits.Len64(x))
		if bl == 0 {
			return 0
		}
		if x == uint64(1)<<bl-1 {
			return bl - 1
		}
		x = x - uint64(1)<<(bl-1) + 1
	}
}
