package provider

import (
	"context"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethpandaops/herald/types"
)

// BatchBuilder accumulates requests for one proof batch. The builder is a
// value; every With method returns a new builder and leaves the receiver
// untouched, so partially built batches can be shared and forked safely.
// Build produces a single finalized ProofBundle.
type BatchBuilder struct {
	anchor  uint64
	hashing types.HashingFunction

	execHeaders   []uint64
	beaconHeaders []uint64
	accounts      []accountRequest
	transactions  []common.Hash
}

type accountRequest struct {
	blockNumber uint64
	address     common.Address
}

// NewBatchBuilder starts a batch against the given anchor block, with all
// MMR proofs requested for the given hashing function.
func NewBatchBuilder(anchor uint64, fn types.HashingFunction) BatchBuilder {
	return BatchBuilder{
		anchor:  anchor,
		hashing: fn,
	}
}

// WithExecutionHeader adds an execution header request.
func (b BatchBuilder) WithExecutionHeader(blockNumber uint64) BatchBuilder {
	b.execHeaders = append(slices.Clone(b.execHeaders), blockNumber)
	return b
}

// WithBeaconHeader adds a beacon header request.
func (b BatchBuilder) WithBeaconHeader(slot uint64) BatchBuilder {
	b.beaconHeaders = append(slices.Clone(b.beaconHeaders), slot)
	return b
}

// WithAccount adds an account request. The batch must also request the
// execution header of blockNumber; Build rejects dangling references.
func (b BatchBuilder) WithAccount(blockNumber uint64, address common.Address) BatchBuilder {
	b.accounts = append(slices.Clone(b.accounts), accountRequest{blockNumber, address})
	return b
}

// WithTransaction adds a transaction request. The transaction's block must
// also be requested as an execution header; Build rejects dangling
// references once the block number is known.
func (b BatchBuilder) WithTransaction(txHash common.Hash) BatchBuilder {
	b.transactions = append(slices.Clone(b.transactions), txHash)
	return b
}

// Build fetches all proof material through the sources and returns one
// self contained bundle ready for verification. Build does not verify
// anything; the returned bundle is untrusted.
func (b BatchBuilder) Build(ctx context.Context, sources Sources) (*types.ProofBundle, error) {
	if !b.hashing.Valid() {
		return nil, fmt.Errorf("%w: unknown hashing function %d", types.ErrInvalidProofBatch, b.hashing)
	}

	headerSet := make(map[uint64]struct{}, len(b.execHeaders))
	for _, number := range b.execHeaders {
		headerSet[number] = struct{}{}
	}
	for _, account := range b.accounts {
		if _, ok := headerSet[account.blockNumber]; !ok {
			return nil, fmt.Errorf("account %v: %w: block %d",
				account.address, types.ErrUnresolvedHeaderReference, account.blockNumber)
		}
	}

	blockProof, err := sources.Proofs.BlockProof(ctx, b.anchor)
	if err != nil {
		return nil, fmt.Errorf("fetching block proof for anchor %d: %w", b.anchor, err)
	}

	bundle := &types.ProofBundle{
		HashingFunction: b.hashing,
		BlockProof:      blockProof,
	}

	for _, number := range b.execHeaders {
		header, err := sources.Headers.ExecutionHeader(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("fetching execution header %d: %w", number, err)
		}
		mmrProof, err := sources.Proofs.MmrProof(ctx, types.ChainExecution, number, b.anchor, b.hashing)
		if err != nil {
			return nil, fmt.Errorf("fetching mmr proof for block %d: %w", number, err)
		}
		bundle.ExecutionHeaders = append(bundle.ExecutionHeaders, &types.ExecutionHeaderProof{
			Header:   header,
			MmrProof: mmrProof,
		})
	}

	for _, slot := range b.beaconHeaders {
		header, err := sources.Headers.BeaconHeader(ctx, slot)
		if err != nil {
			return nil, fmt.Errorf("fetching beacon header %d: %w", slot, err)
		}
		mmrProof, err := sources.Proofs.MmrProof(ctx, types.ChainBeacon, slot, b.anchor, b.hashing)
		if err != nil {
			return nil, fmt.Errorf("fetching mmr proof for slot %d: %w", slot, err)
		}
		bundle.BeaconHeaders = append(bundle.BeaconHeaders, &types.BeaconHeaderProof{
			Header:   header,
			MmrProof: mmrProof,
		})
	}

	for _, account := range b.accounts {
		proof, err := sources.State.AccountProof(ctx, account.blockNumber, account.address)
		if err != nil {
			return nil, fmt.Errorf("fetching account proof for %v: %w", account.address, err)
		}
		bundle.Accounts = append(bundle.Accounts, proof)
	}

	for _, txHash := range b.transactions {
		proof, err := sources.State.TransactionProof(ctx, txHash)
		if err != nil {
			return nil, fmt.Errorf("fetching transaction proof for %v: %w", txHash, err)
		}
		if _, ok := headerSet[proof.BlockNumber]; !ok {
			return nil, fmt.Errorf("transaction %v: %w: block %d",
				txHash, types.ErrUnresolvedHeaderReference, proof.BlockNumber)
		}
		bundle.Transactions = append(bundle.Transactions, proof)
	}

	return bundle, nil
}
