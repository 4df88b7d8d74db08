package provider

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ethpandaops/herald/types"
	"github.com/ethpandaops/herald/verify"
	"github.com/ethpandaops/herald/verify/beacon"
	"github.com/ethpandaops/herald/verify/execution"
)

// ExecutionProvider is the subset of a generic execution layer client the
// decorator delegates to. go-ethereum's ethclient satisfies it.
type ExecutionProvider interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// VerifiedClient decorates an ExecutionProvider with verified read methods.
// The embedded provider's methods pass through untouched; the Verified
// methods fetch proof material through the sources and run it through the
// verification chain before returning anything.
type VerifiedClient struct {
	ExecutionProvider

	sources  Sources
	verifier *verify.Verifier
	hashing  types.HashingFunction
}

// NewVerifiedClient wraps the provider.
func NewVerifiedClient(inner ExecutionProvider, sources Sources, verifier *verify.Verifier, fn types.HashingFunction) *VerifiedClient {
	return &VerifiedClient{
		ExecutionProvider: inner,
		sources:           sources,
		verifier:          verifier,
		hashing:           fn,
	}
}

// VerifiedHeaderByNumber returns the execution header at the given block
// number, anchored to the latest proven anchor block.
func (c *VerifiedClient) VerifiedHeaderByNumber(ctx context.Context, number uint64) (*execution.VerifiedHeader, error) {
	result, err := c.verifyBatch(ctx, func(b BatchBuilder) BatchBuilder {
		return b.WithExecutionHeader(number)
	})
	if err != nil {
		return nil, err
	}
	return result.ExecutionHeaders[0], nil
}

// VerifiedBeaconHeaderBySlot returns the beacon header at the given slot,
// anchored to the latest proven anchor block.
func (c *VerifiedClient) VerifiedBeaconHeaderBySlot(ctx context.Context, slot uint64) (*beacon.VerifiedHeader, error) {
	result, err := c.verifyBatch(ctx, func(b BatchBuilder) BatchBuilder {
		return b.WithBeaconHeader(slot)
	})
	if err != nil {
		return nil, err
	}
	return result.BeaconHeaders[0], nil
}

// VerifiedAccount returns the proven state of the account at the given
// block.
func (c *VerifiedClient) VerifiedAccount(ctx context.Context, blockNumber uint64, address common.Address) (*execution.VerifiedAccount, error) {
	result, err := c.verifyBatch(ctx, func(b BatchBuilder) BatchBuilder {
		return b.WithExecutionHeader(blockNumber).WithAccount(blockNumber, address)
	})
	if err != nil {
		return nil, err
	}
	return result.Accounts[0], nil
}

// VerifiedTransaction returns the proven transaction with the given hash.
// The transaction's block number is learned from the state source before
// the batch is built, so the batch can request the containing header too.
func (c *VerifiedClient) VerifiedTransaction(ctx context.Context, txHash common.Hash) (*execution.VerifiedTransaction, error) {
	proof, err := c.sources.State.TransactionProof(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("locating transaction %v: %w", txHash, err)
	}

	result, err := c.verifyBatch(ctx, func(b BatchBuilder) BatchBuilder {
		return b.WithExecutionHeader(proof.BlockNumber).WithTransaction(txHash)
	})
	if err != nil {
		return nil, err
	}
	return result.Transactions[0], nil
}

func (c *VerifiedClient) verifyBatch(ctx context.Context, build func(BatchBuilder) BatchBuilder) (*verify.Result, error) {
	anchor, err := c.sources.Proofs.LatestAnchor(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving latest anchor: %w", err)
	}

	bundle, err := build(NewBatchBuilder(anchor, c.hashing)).Build(ctx, c.sources)
	if err != nil {
		return nil, err
	}

	return c.verifier.VerifyBatch(ctx, bundle)
}
