// Package provider connects the verification core to the outside world:
// it defines the collaborator interfaces proofs and raw data are fetched
// through, a builder that assembles one self contained proof bundle from
// accumulated requests, and a decorator that adds verified read methods on
// top of a generic execution data provider.
//
// Nothing in this package talks to the network itself; transports implement
// the source interfaces.
package provider

import (
	"context"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ethpandaops/herald/types"
)

// ProofSource serves anchor block proofs and MMR inclusion proofs.
type ProofSource interface {
	// LatestAnchor returns the number of the most recent proven anchor.
	LatestAnchor(ctx context.Context) (uint64, error)

	// BlockProof returns the validity proof for the given anchor.
	BlockProof(ctx context.Context, anchor uint64) (*types.ValidityProof, error)

	// MmrProof returns the inclusion proof of the given header in the
	// anchor's MMR for the given chain and hashing function.
	MmrProof(ctx context.Context, chain types.Chain, blockNumber uint64, anchor uint64, fn types.HashingFunction) (*types.MmrProof, error)
}

// HeaderSource serves raw headers. Returned headers are untrusted until
// verified.
type HeaderSource interface {
	ExecutionHeader(ctx context.Context, number uint64) (*ethtypes.Header, error)
	BeaconHeader(ctx context.Context, slot uint64) (*phase0.BeaconBlockHeader, error)
}

// StateSource serves account and transaction inclusion proofs.
type StateSource interface {
	AccountProof(ctx context.Context, blockNumber uint64, address common.Address) (*types.AccountProof, error)
	TransactionProof(ctx context.Context, txHash common.Hash) (*types.TransactionProof, error)
}

// Sources bundles the collaborator interfaces a batch build consumes.
type Sources struct {
	Proofs  ProofSource
	Headers HeaderSource
	State   StateSource
}
