package verify

import (
	"fmt"

	"github.com/ethpandaops/herald/types"
)

// validateBundle rejects malformed batches before any cryptographic work:
// a missing block proof, an unknown hashing function, per item hashing
// functions differing from the batch's, chain tags that do not match the
// proof kind, duplicate header requests, and account or transaction
// requests referencing an execution header the batch never requested.
func validateBundle(bundle *types.ProofBundle) error {
	if bundle == nil || bundle.BlockProof == nil {
		return fmt.Errorf("%w: missing block proof", types.ErrInvalidProofBatch)
	}
	if !bundle.HashingFunction.Valid() {
		return fmt.Errorf("%w: unknown hashing function %d",
			types.ErrInvalidProofBatch, bundle.HashingFunction)
	}

	headerBlocks := make(map[uint64]struct{}, len(bundle.ExecutionHeaders))

	for i, proof := range bundle.ExecutionHeaders {
		if proof == nil || proof.MmrProof == nil {
			return fmt.Errorf("%w: execution header %d missing mmr proof",
				types.ErrInvalidProofBatch, i)
		}
		if err := checkMmrProofTags(proof.MmrProof, types.ChainExecution, bundle.HashingFunction); err != nil {
			return fmt.Errorf("execution header %d: %w", i, err)
		}
		if _, dup := headerBlocks[proof.MmrProof.BlockNumber]; dup {
			return fmt.Errorf("%w: duplicate execution header request for block %d",
				types.ErrInvalidProofBatch, proof.MmrProof.BlockNumber)
		}
		headerBlocks[proof.MmrProof.BlockNumber] = struct{}{}
	}

	for i, proof := range bundle.BeaconHeaders {
		if proof == nil || proof.MmrProof == nil {
			return fmt.Errorf("%w: beacon header %d missing mmr proof",
				types.ErrInvalidProofBatch, i)
		}
		if err := checkMmrProofTags(proof.MmrProof, types.ChainBeacon, bundle.HashingFunction); err != nil {
			return fmt.Errorf("beacon header %d: %w", i, err)
		}
	}

	for i, proof := range bundle.Accounts {
		if proof == nil {
			return fmt.Errorf("%w: account %d is nil", types.ErrInvalidProofBatch, i)
		}
		if _, ok := headerBlocks[proof.BlockNumber]; !ok {
			return fmt.Errorf("account %d (%v): %w: block %d",
				i, proof.Address, types.ErrUnresolvedHeaderReference, proof.BlockNumber)
		}
	}

	for i, proof := range bundle.Transactions {
		if proof == nil {
			return fmt.Errorf("%w: transaction %d is nil", types.ErrInvalidProofBatch, i)
		}
		if _, ok := headerBlocks[proof.BlockNumber]; !ok {
			return fmt.Errorf("transaction %d (%v): %w: block %d",
				i, proof.TxHash, types.ErrUnresolvedHeaderReference, proof.BlockNumber)
		}
	}

	return nil
}

func checkMmrProofTags(proof *types.MmrProof, chain types.Chain, fn types.HashingFunction) error {
	if !proof.Chain.Valid() {
		return fmt.Errorf("%w: chain id %d", types.ErrUnsupportedChain, uint64(proof.Chain))
	}
	if proof.Chain != chain {
		return fmt.Errorf("%w: tagged %v, expected %v", types.ErrInvalidProofBatch, proof.Chain, chain)
	}
	if proof.HashingFunction != fn {
		return fmt.Errorf("%w: proof uses %v, batch uses %v",
			types.ErrMixedHashingFunction, proof.HashingFunction, fn)
	}
	return nil
}
