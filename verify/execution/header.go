// Package execution verifies execution layer headers, accounts and
// transactions. Headers are bound to a trusted anchor via MMR inclusion;
// accounts and transactions are bound to a verified header via Merkle
// Patricia trie proofs. The trust chain is closed by type: state proofs
// only accept VerifiedHeader values produced by this package.
package execution

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ethpandaops/herald/types"
	"github.com/ethpandaops/herald/verify/canonical"
	"github.com/ethpandaops/herald/verify/mmr"
)

// VerifiedHeader is an execution header whose canonical hash has been
// proven included in the anchor's execution MMR. The fields are unexported
// so a VerifiedHeader cannot be hand constructed around the verification.
type VerifiedHeader struct {
	header       *ethtypes.Header
	hash         common.Hash
	anchorNumber uint64
	hashing      types.HashingFunction
}

// Header returns the verified raw header.
func (h *VerifiedHeader) Header() *ethtypes.Header {
	return h.header
}

// Hash returns the recomputed canonical header hash.
func (h *VerifiedHeader) Hash() common.Hash {
	return h.hash
}

// Number returns the block number.
func (h *VerifiedHeader) Number() uint64 {
	return h.header.Number.Uint64()
}

// StateRoot returns the header's state trie root.
func (h *VerifiedHeader) StateRoot() common.Hash {
	return h.header.Root
}

// TransactionsRoot returns the header's transaction trie root.
func (h *VerifiedHeader) TransactionsRoot() common.Hash {
	return h.header.TxHash
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

// VerifyHeaderProof binds a raw execution header to the trusted anchor:
// it recomputes the header's canonical hash, checks it against the hash the
// MMR proof claims, checks the proof's root against the anchor's committed
// execution root for the batch's hashing function, and verifies MMR
// inclusion of the derived leaf.
func VerifyHeaderProof(proof *types.ExecutionHeaderProof, trusted *types.TrustedBlock, fn types.HashingFunction) (*VerifiedHeader, error) {
	if proof.Header == nil || proof.MmrProof == nil {
		return nil, fmt.Errorf("%w: missing header or mmr proof", types.ErrInvalidProofBatch)
	}
	if proof.MmrProof.Chain != types.ChainExecution {
		return nil, fmt.Errorf("%w: execution header proof tagged %v",
			types.ErrUnsupportedChain, proof.MmrProof.Chain)
	}
	if proof.MmrProof.HashingFunction != fn {
		return nil, fmt.Errorf("%w: proof uses %v, batch uses %v",
			types.ErrMixedHashingFunction, proof.MmrProof.HashingFunction, fn)
	}

	root, ok := trusted.Root(types.ChainExecution, fn)
	if !ok {
		return nil, fmt.Errorf("%w: no execution root for %v", types.ErrUnsupportedChain, fn)
	}
	if proof.MmrProof.Root != root {
		return nil, fmt.Errorf("%w: proof root %v, anchor root %v",
			types.ErrUntrustedMmrRoot, proof.MmrProof.Root, root)
	}
	if count, ok := trusted.ElementsCount(types.ChainExecution); ok && proof.MmrProof.ElementsCount != count {
		return nil, fmt.Errorf("%w: proof covers %d elements, anchor commits %d",
			types.ErrUntrustedMmrRoot, proof.MmrProof.ElementsCount, count)
	}

	hash := canonical.ExecutionHeaderHash(proof.Header)
	if hash != proof.MmrProof.HeaderHash {
		return nil, fmt.Errorf("%w: recomputed %v, proof claims %v",
			types.ErrHeaderHashMismatch, hash, proof.MmrProof.HeaderHash)
	}
	if number := proof.Header.Number.Uint64(); number != proof.MmrProof.BlockNumber {
		return nil, fmt.Errorf("%w: header number %d, proof for block %d",
			types.ErrInvalidProofBatch, number, proof.MmrProof.BlockNumber)
	}

	leaf, err := canonical.Leaf(hash, fn)
	if err != nil {
		return nil, err
	}
	if err := mmr.VerifyInclusion(leaf, proof.MmrProof, root); err != nil {
		return nil, err
	}

	return &VerifiedHeader{
		header:       proof.Header,
		hash:         hash,
		anchorNumber: trusted.Number(),
		hashing:      fn,
	}, nil
}
