// Package verify orchestrates batch verification: one validity proof is
// verified per batch, and every header, account and transaction proof in
// the batch is checked against the single TrustedBlock it yields.
package verify

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ethpandaops/herald/metrics"
	"github.com/ethpandaops/herald/types"
	"github.com/ethpandaops/herald/verify/beacon"
	"github.com/ethpandaops/herald/verify/blockproof"
	"github.com/ethpandaops/herald/verify/execution"
)

// Verifier runs proof bundles through the verification chain.
type Verifier struct {
	logger  logrus.FieldLogger
	system  blockproof.System
	workers int
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// WithConcurrency bounds the worker pool for header and state proof
// verification. Values below 1 fall back to one worker per CPU core.
func WithConcurrency(workers int) Option {
	return func(v *Verifier) {
		v.workers = workers
	}
}

// NewVerifier builds a Verifier on top of the given proof system backend.
func NewVerifier(system blockproof.System, opts ...Option) *Verifier {
	v := &Verifier{
		logger:  logrus.New().WithField("module", "verify"),
		system:  system,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.workers < 1 {
		v.workers = runtime.NumCPU()
	}
	return v
}

// Result is the output of a successfully verified batch. Verified accounts
// and transactions reference the verified header they were checked against.
type Result struct {
	Anchor           *types.TrustedBlock
	ExecutionHeaders []*execution.VerifiedHeader
	BeaconHeaders    []*beacon.VerifiedHeader
	Accounts         []*execution.VerifiedAccount
	Transactions     []*execution.VerifiedTransaction
}

// ExecutionHeader returns the verified execution header for the given
// block number, or nil if the batch did not contain it.
func (r *Result) ExecutionHeader(number uint64) *execution.VerifiedHeader {
	for _, header := range r.ExecutionHeaders {
		if header.Number() == number {
			return header
		}
	}
	return nil
}

// headerSlot tracks completion of one execution header verification so
// dependent account and transaction tasks can be released once the header
// is trusted. The done channel is closed only on success; header is set
// before the close and read only after it.
type headerSlot struct {
	done   chan struct{}
	header *execution.VerifiedHeader
}

// VerifyBatch verifies the bundle. The bundle is validated structurally
// before any cryptographic work, the block proof is verified exactly once,
// headers run in parallel on a CPU bounded pool, and accounts and
// transactions run as soon as their referenced header is trusted.
//
// Aggregation is fail fast: the first failing item aborts the batch and its
// error, annotated with the item's identity, is returned. No partial result
// is ever produced.
func (v *Verifier) VerifyBatch(ctx context.Context, bundle *types.ProofBundle) (*Result, error) {
	if err := validateBundle(bundle); err != nil {
		metrics.CountBatch("invalid")
		return nil, err
	}

	start := time.Now()

	trusted, err := v.system.Verify(bundle.BlockProof)
	if err != nil {
		metrics.CountBatch("failed")
		return nil, fmt.Errorf("block proof: %w", err)
	}
	metrics.ObserveBlockProof(time.Since(start))

	v.logger.WithFields(logrus.Fields{
		"anchor":  trusted.Number(),
		"hashing": bundle.HashingFunction.String(),
		"items":   bundleItems(bundle),
	}).Debug("anchor proof verified")

	result := &Result{
		Anchor:           trusted,
		ExecutionHeaders: make([]*execution.VerifiedHeader, len(bundle.ExecutionHeaders)),
		BeaconHeaders:    make([]*beacon.VerifiedHeader, len(bundle.BeaconHeaders)),
		Accounts:         make([]*execution.VerifiedAccount, len(bundle.Accounts)),
		Transactions:     make([]*execution.VerifiedTransaction, len(bundle.Transactions)),
	}

	slots := make(map[uint64]*headerSlot, len(bundle.ExecutionHeaders))
	for _, proof := range bundle.ExecutionHeaders {
		slots[proof.MmrProof.BlockNumber] = &headerSlot{done: make(chan struct{})}
	}

	// Verification is pure CPU work; the semaphore bounds compute
	// parallelism while leaving dependency waits outside the pool so
	// waiting tasks cannot starve the tasks they wait for.
	sem := semaphore.NewWeighted(int64(v.workers))
	group, gctx := errgroup.WithContext(ctx)

	for i, proof := range bundle.ExecutionHeaders {
		slot := slots[proof.MmrProof.BlockNumber]
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			header, err := execution.VerifyHeaderProof(proof, trusted, bundle.HashingFunction)
			if err != nil {
				return fmt.Errorf("execution header %d (block %d): %w",
					i, proof.MmrProof.BlockNumber, err)
			}
			result.ExecutionHeaders[i] = header
			slot.header = header
			close(slot.done)
			return nil
		})
	}

	for i, proof := range bundle.BeaconHeaders {
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			header, err := beacon.VerifyHeaderProof(proof, trusted, bundle.HashingFunction)
			if err != nil {
				return fmt.Errorf("beacon header %d (slot %d): %w",
					i, proof.MmrProof.BlockNumber, err)
			}
			result.BeaconHeaders[i] = header
			return nil
		})
	}

	for i, proof := range bundle.Accounts {
		slot := slots[proof.BlockNumber]
		group.Go(func() error {
			select {
			case <-slot.done:
			case <-gctx.Done():
				return gctx.Err()
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			account, err := execution.VerifyAccountProof(proof, slot.header)
			if err != nil {
				return fmt.Errorf("account %d (%v at block %d): %w",
					i, proof.Address, proof.BlockNumber, err)
			}
			result.Accounts[i] = account
			return nil
		})
	}

	for i, proof := range bundle.Transactions {
		slot := slots[proof.BlockNumber]
		group.Go(func() error {
			select {
			case <-slot.done:
			case <-gctx.Done():
				return gctx.Err()
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			tx, err := execution.VerifyTransactionProof(proof, slot.header)
			if err != nil {
				return fmt.Errorf("transaction %d (%v in block %d): %w",
					i, proof.TxHash, proof.BlockNumber, err)
			}
			result.Transactions[i] = tx
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		metrics.CountBatch("failed")
		return nil, err
	}

	metrics.CountBatch("ok")
	metrics.CountItems(len(result.ExecutionHeaders), len(result.BeaconHeaders),
		len(result.Accounts), len(result.Transactions))
	metrics.ObserveBatch(time.Since(start))

	v.logger.WithFields(logrus.Fields{
		"anchor":   trusted.Number(),
		"items":    bundleItems(bundle),
		"duration": time.Since(start),
	}).Info("batch verified")

	return result, nil
}

func bundleItems(bundle *types.ProofBundle) int {
	return len(bundle.ExecutionHeaders) + len(bundle.BeaconHeaders) +
		len(bundle.Accounts) + len(bundle.Transactions)
}
