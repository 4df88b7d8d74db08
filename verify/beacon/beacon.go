// Package beacon verifies beacon chain headers against the trusted anchor.
// A header's identity is its SSZ hash tree root; inclusion is proven
// against the anchor's beacon MMR root.
package beacon

import (
	"fmt"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ethpandaops/herald/types"
	"github.com/ethpandaops/herald/verify/canonical"
	"github.com/ethpandaops/herald/verify/mmr"
)

// VerifiedHeader is a beacon header whose hash tree root has been proven
// included in the anchor's beacon MMR. Fields are unexported so the value
// cannot be hand constructed around the verification.
type VerifiedHeader struct {
	header       *phase0.BeaconBlockHeader
	root         common.Hash
	anchorNumber uint64
	hashing      types.HashingFunction
}

// Header returns the verified raw header.
func (h *VerifiedHeader) Header() *phase0.BeaconBlockHeader {
	return h.header
}

// Root returns the recomputed hash tree root.
func (h *VerifiedHeader) Root() common.Hash {
	return h.root
}

// Slot returns the header's slot.
func (h *VerifiedHeader) Slot() uint64 {
	return uint64(h.header.Slot)
}

// StateRoot returns the beacon state root the header commits to.
func (h *VerifiedHeader) StateRoot() common.Hash {
	return common.Hash(h.header.StateRoot)
}

// AnchorNumber returns the anchor block that vouches for this header.
func (h *VerifiedHeader) AnchorNumber() uint64 {
	return h.anchorNumber
}

// HashingFunction returns the MMR hashing function the header was verified
// under.
func (h *VerifiedHeader) HashingFunction() types.HashingFunction {
	return h.hashing
}

// VerifyHeaderProof binds a raw beacon header to the trusted anchor the
// same way execution headers are bound: recompute the canonical root,
// compare against the proof's claimed hash, compare the proof's root to
// the anchor's beacon MMR root, verify inclusion.
func VerifyHeaderProof(proof *types.BeaconHeaderProof, trusted *types.TrustedBlock, fn types.HashingFunction) (*VerifiedHeader, error) {
	if proof.Header == nil || proof.MmrProof == nil {
		return nil, fmt.Errorf("%w: missing header or mmr proof", types.ErrInvalidProofBatch)
	}
	if proof.MmrProof.Chain != types.ChainBeacon {
		return nil, fmt.Errorf("%w: beacon header proof tagged %v",
			types.ErrUnsupportedChain, proof.MmrProof.Chain)
	}
	if proof.MmrProof.HashingFunction != fn {
		return nil, fmt.Errorf("%w: proof uses %v, batch uses %v",
			types.ErrMixedHashingFunction, proof.MmrProof.HashingFunction, fn)
	}

	root, ok := trusted.Root(types.ChainBeacon, fn)
	if !ok {
		return nil, fmt.Errorf("%w: no beacon root for %v", types.ErrUnsupportedChain, fn)
	}
	if proof.MmrProof.Root != root {
		return nil, fmt.Errorf("%w: proof root %v, anchor root %v",
			types.ErrUntrustedMmrRoot, proof.MmrProof.Root, root)
	}
	if count, ok := trusted.ElementsCount(types.ChainBeacon); ok && proof.MmrProof.ElementsCount != count {
		return nil, fmt.Errorf("%w: proof covers %d elements, anchor commits %d",
			types.ErrUntrustedMmrRoot, proof.MmrProof.ElementsCount, count)
	}

	headerRoot, err := canonical.BeaconHeaderRoot(proof.Header)
	if err != nil {
		return nil, err
	}
	if headerRoot != proof.MmrProof.HeaderHash {
		return nil, fmt.Errorf("%w: recomputed %v, proof claims %v",
			types.ErrHeaderHashMismatch, headerRoot, proof.MmrProof.HeaderHash)
	}
	if slot := uint64(proof.Header.Slot); slot != proof.MmrProof.BlockNumber {
		return nil, fmt.Errorf("%w: header slot %d, proof for slot %d",
			types.ErrInvalidProofBatch, slot, proof.MmrProof.BlockNumber)
	}

	leaf, err := canonical.Leaf(headerRoot, fn)
	if err != nil {
		return nil, err
	}
	if err := mmr.VerifyInclusion(leaf, proof.MmrProof, root); err != nil {
		return nil, err
	}

	return &VerifiedHeader{
		header:       proof.Header,
		root:         headerRoot,
		anchorNumber: trusted.Number(),
		hashing:      fn,
	}, nil
}
