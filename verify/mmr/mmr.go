// Package mmr verifies inclusion proofs against Merkle Mountain Range
// commitments as built by the proof service's Cairo accumulator.
//
// Element positions are 1-based and cover inner nodes as well as leaves,
// matching the Cairo implementation: a size n MMR decomposes into perfect
// subtrees of 2^k - 1 elements whose roots are the peaks. The root is
// H(elements_count, bag(peaks)) where bag folds the peaks right to left,
// H(p1, H(p2, ... H(pN))).
package mmr

import (
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethpandaops/herald/types"
)

// VerifyInclusion recomputes the MMR root from the leaf and the proof's
// sibling path and peak set, and compares it to expectedRoot.
//
// Structural defects (invalid tree size, wrong peak count, wrong path
// length, out of range element index) are rejected before any hashing and
// surface as types.ErrInvalidMmrTree or types.ErrInvalidMmrProof. A root
// that recomputes to a different value surfaces as types.ErrInvalidMmrRoot.
func VerifyInclusion(leaf common.Hash, proof *types.MmrProof, expectedRoot common.Hash) error {
	elementsCount := proof.ElementsCount
	elementIndex := proof.ElementsIndex

	if err := validateSize(elementsCount); err != nil {
		return err
	}

	expectedPeaks, err := peaksLen(elementsCount)
	if err != nil {
		return err
	}
	if uint64(len(proof.Peaks)) != expectedPeaks {
		return fmt.Errorf("%w: got %d peaks, expected %d for %d elements",
			types.ErrInvalidMmrTree, len(proof.Peaks), expectedPeaks, elementsCount)
	}

	hasher, err := ForFunction(proof.HashingFunction)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidMmrProof, err)
	}

	peakIndex, peakHeight, ok := peakInfo(elementsCount, elementIndex)
	if !ok {
		return fmt.Errorf("%w: element index %d out of range for %d elements",
			types.ErrInvalidMmrProof, elementIndex, elementsCount)
	}

	// The last element of the MMR is always a peak and proves itself with
	// an empty path. Every other element needs exactly one sibling per
	// level up to its peak.
	if elementIndex != elementsCount {
		if uint64(len(proof.Path)) != peakHeight {
			return fmt.Errorf("%w: path length %d, expected %d",
				types.ErrInvalidMmrProof, len(proof.Path), peakHeight)
		}
	} else if len(proof.Path) != 0 {
		return fmt.Errorf("%w: non-empty path for peak element", types.ErrInvalidMmrProof)
	}

	computedPeak := leaf
	if elementIndex != elementsCount {
		computedPeak = hashSubtreePath(hasher, leaf, elementIndex, proof.Path)
	}

	if proof.Peaks[peakIndex] != computedPeak {
		return fmt.Errorf("%w: computed peak %v does not match peak %d",
			types.ErrInvalidMmrProof, computedPeak, peakIndex)
	}

	root := hasher.HashRoot(elementsCount, bagPeaks(hasher, proof.Peaks))
	if root != expectedRoot {
		return fmt.Errorf("%w: computed %v, expected %v", types.ErrInvalidMmrRoot, root, expectedRoot)
	}

	return nil
}

// hashSubtreePath climbs from the element at position to its subtree peak,
// combining with one sibling per level. Whether the sibling is the left or
// right operand follows from the element's position: if the next position
// sits one level higher, the current element is a right child.
func hashSubtreePath(hasher Hasher, element common.Hash, position uint64, path []common.Hash) common.Hash {
	height := uint64(0)
	for _, sibling := range path {
		if elementHeight(position+1) == elementHeight(position)+1 {
			element = hasher.HashPair(sibling, element)
			position++
		} else {
			element = hasher.HashPair(element, sibling)
			position += uint64(1) << (height + 1)
		}
		height++
	}
	return element
}

// bagPeaks folds the peaks right to left into a single hash:
// H(p1, H(p2, ... H(pN))).
func bagPeaks(hasher Hasher, peaks []common.Hash) common.Hash {
	acc := peaks[len(peaks)-1]
	for i := len(peaks) - 2; i >= 0; i-- {
		acc = hasher.HashPair(peaks[i], acc)
	}
	return acc
}

// validateSize checks that elementsCount decomposes into strictly
// decreasing perfect subtree sizes of the form 2^k - 1.
func validateSize(elementsCount uint64) error {
	if elementsCount == 0 {
		return fmt.Errorf("%w: empty mmr", types.ErrInvalidMmrTree)
	}
	n := elementsCount
	prevPeak := uint64(0)
	for n > 0 {
		i := bitLength(n)
		if i == 0 {
			return fmt.Errorf("%w: invalid size %d", types.ErrInvalidMmrTree, elementsCount)
		}
		peak := uint64(1)<<i - 1
		if n+1 <= peak {
			peak = uint64(1)<<(i-1) - 1
		}
		if peak == 0 || peak == prevPeak {
			return fmt.Errorf("%w: invalid size %d", types.ErrInvalidMmrTree, elementsCount)
		}
		n -= peak
		prevPeak = peak
	}
	return nil
}

// peaksLen returns the number of peaks of a valid MMR of the given size.
func peaksLen(elementsCount uint64) (uint64, error) {
	if err := validateSize(elementsCount); err != nil {
		return 0, err
	}
	n := elementsCount
	count := uint64(0)
	for n > 0 {
		i := bitLength(n)
		peak := uint64(1)<<i - 1
		if n+1 <= peak {
			peak = uint64(1)<<(i-1) - 1
		}
		count++
		n -= peak
	}
	return count, nil
}

// peakInfo locates the peak the element at elementIndex belongs to,
// returning the peak's index in the peak list and its height.
func peakInfo(elementsCount, elementIndex uint64) (peakIndex, peakHeight uint64, ok bool) {
	if elementIndex == 0 || elementIndex > elementsCount {
		return 0, 0, false
	}

	mountainHeight := bitLength(elementsCount)
	mountainElementsCount := uint64(1)<<mountainHeight - 1
	mountainIndex := uint64(0)
	for {
		if mountainElementsCount <= elementsCount {
			if elementIndex <= mountainElementsCount {
				return mountainIndex, mountainHeight - 1, true
			}
			elementsCount -= mountainElementsCount
			elementIndex -= mountainElementsCount
			mountainIndex++
		}
		mountainElementsCount >>= 1
		if mountainHeight > 0 {
			mountainHeight--
		}
	}
}

// elementHeight returns the height of the element at the given 1-based
// position by repeatedly jumping to the leftmost mountain of equal shape.
func elementHeight(position uint64) uint64 {
	x := position
	for {
		bl := bitLength(x)
		if bl == 0 {
			return 0
		}
		if x == uint64(1)<<bl-1 {
			return bl - 1
		}
		x = x - uint64(1)<<(bl-1) + 1
	}
}

func bitLength(n uint64) uint64 {
	return uint64(bits.Len64(n))
}
