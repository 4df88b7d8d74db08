package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// TrustedBlock is the decoded public output of a successfully verified
// validity proof. It is the sole trust anchor of the verification chain:
// every MMR root used to verify headers is read from here and nowhere else.
//
// The fields are deliberately unexported. A TrustedBlock must only be
// constructed by a block proof backend after the cryptographic check
// succeeded, never from untrusted input. NewTrustedBlock is reserved for
// proof system backends (and their tests).
type TrustedBlock struct {
	number    uint64
	beacon    trustedChainState
	execution trustedChainState
}

type trustedChainState struct {
	rootKeccak    common.Hash
	rootPoseidon  common.Hash
	elementsCount uint64
	leavesCount   uint64
	summary       ChainSummary
}

// ChainSummary exposes the per chain consensus summary carried in the
// proof's public output.
type ChainSummary struct {
	// Latest beacon slot or execution block number covered by the anchor.
	Height uint64
	// Hash of the header at Height.
	HeaderRoot common.Hash
	// Last justified height.
	JustifiedHeight uint64
	// Last finalized height.
	FinalizedHeight uint64
	// Number of committee signers backing the anchor (beacon only).
	SignerCount uint64
	// Current and next sync committee hashes (beacon only).
	CurrentCommitteeHash common.Hash
	NextCommitteeHash    common.Hash
}

// TrustedBlockParams is the input to NewTrustedBlock.
type TrustedBlockParams struct {
	Number    uint64
	Beacon    TrustedChainParams
	Execution TrustedChainParams
}

// TrustedChainParams carries one chain's MMR commitment and summary.
type TrustedChainParams struct {
	RootKeccak    common.Hash
	RootPoseidon  common.Hash
	ElementsCount uint64
	LeavesCount   uint64
	Summary       ChainSummary
}

// NewTrustedBlock builds a TrustedBlock from decoded public outputs.
// It is intended for block proof backends only; calling it with values that
// did not come out of a successful proof verification voids every guarantee
// the verification chain gives.
func NewTrustedBlock(params TrustedBlockParams) *TrustedBlock {
	return &TrustedBlock{
		number:    params.Number,
		beacon:    newTrustedChainState(params.Beacon),
		execution: newTrustedChainState(params.Execution),
	}
}

func newTrustedChainState(params TrustedChainParams) trustedChainState {
	return trustedChainState{
		rootKeccak:    params.RootKeccak,
		rootPoseidon:  params.RootPoseidon,
		elementsCount: params.ElementsCount,
		leavesCount:   params.LeavesCount,
		summary:       params.Summary,
	}
}

// Number returns the anchor block number.
func (tb *TrustedBlock) Number() uint64 {
	return tb.number
}

// Root returns the MMR root committed for the given chain and hashing
// function. The second return is false if the chain id is not tracked.
func (tb *TrustedBlock) Root(chain Chain, fn HashingFunction) (common.Hash, bool) {
	state, ok := tb.chainState(chain)
	if !ok {
		return common.Hash{}, false
	}
	switch fn {
	case HashingKeccak:
		return state.rootKeccak, true
	case HashingPoseidon:
		return state.rootPoseidon, true
	default:
		return common.Hash{}, false
	}
}

// ElementsCount returns the committed MMR element count for the chain.
func (tb *TrustedBlock) ElementsCount(chain Chain) (uint64, bool) {
	state, ok := tb.chainState(chain)
	if !ok {
		return 0, false
	}
	return state.elementsCount, true
}

// LeavesCount returns the committed MMR leaf count for the chain.
func (tb *TrustedBlock) LeavesCount(chain Chain) (uint64, bool) {
	state, ok := tb.chainState(chain)
	if !ok {
		return 0, false
	}
	return state.leavesCount, true
}

// Summary returns the consensus summary for the chain.
func (tb *TrustedBlock) Summary(chain Chain) (ChainSummary, bool) {
	state, ok := tb.chainState(chain)
	if !ok {
		return ChainSummary{}, false
	}
	return state.summary, true
}

func (tb *TrustedBlock) chainState(chain Chain) (*trustedChainState, bool) {
	switch chain {
	case ChainBeacon:
		return &tb.beacon, true
	case ChainExecution:
		return &tb.execution, true
	default:
		return nil, false
	}
}
