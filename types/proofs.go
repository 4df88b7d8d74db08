package types

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// MmrProof proves that a header hash is committed in one of the MMRs
// attested by a verified anchor block. Element positions are 1-based,
// matching the Cairo MMR the proof service builds.
type MmrProof struct {
	Chain           Chain           `json:"network_id"`
	BlockNumber     uint64          `json:"block_number"`
	HashingFunction HashingFunction `json:"hashing_function"`
	HeaderHash      common.Hash     `json:"header_hash"`
	Root            common.Hash     `json:"root"`
	ElementsIndex   uint64          `json:"elements_index"`
	ElementsCount   uint64          `json:"elements_count"`
	Path            []common.Hash   `json:"path"`
	Peaks           []common.Hash   `json:"peaks"`
}

// ValidityProof is the opaque succinct proof for one anchor block together
// with its public inputs. The bytes are produced by the proof service and
// are only ever consumed by the block proof verifier.
type ValidityProof struct {
	BlockNumber  uint64        `json:"block_number"`
	Proof        hexutil.Bytes `json:"proof"`
	PublicInputs hexutil.Bytes `json:"public_inputs"`
}

// ExecutionHeaderProof carries a raw execution header as fetched from the
// data source plus the MMR inclusion proof binding it to the anchor.
// The header is untrusted until verified.
type ExecutionHeaderProof struct {
	Header   *ethtypes.Header `json:"header"`
	MmrProof *MmrProof        `json:"mmr_proof"`
}

// BeaconHeaderProof is the beacon chain counterpart of ExecutionHeaderProof.
type BeaconHeaderProof struct {
	Header   *phase0.BeaconBlockHeader `json:"header"`
	MmrProof *MmrProof                 `json:"mmr_proof"`
}

// Account holds the claimed state of an execution layer account.
// The fields become trustworthy only after the account proof verified
// against a verified header's state root.
type Account struct {
	Nonce       uint64       `json:"nonce"`
	Balance     *uint256.Int `json:"balance"`
	StorageRoot common.Hash  `json:"storage_root"`
	CodeHash    common.Hash  `json:"code_hash"`
}

// StateAccount converts the claimed account into the canonical trie
// representation used for RLP encoding.
func (a *Account) StateAccount() *ethtypes.StateAccount {
	return &ethtypes.StateAccount{
		Nonce:    a.Nonce,
		Balance:  a.Balance,
		Root:     a.StorageRoot,
		CodeHash: a.CodeHash.Bytes(),
	}
}

// AccountProof carries a claimed account state plus the trie nodes proving
// its inclusion under the state root of the referenced execution block.
type AccountProof struct {
	Address     common.Address  `json:"address"`
	BlockNumber uint64          `json:"block_number"`
	StateRoot   common.Hash     `json:"state_root"`
	Account     *Account        `json:"account"`
	Proof       []hexutil.Bytes `json:"mpt_proof"`
}

// TransactionProof carries an encoded transaction plus the trie nodes
// proving its inclusion under the transactions root of the referenced
// execution block.
type TransactionProof struct {
	BlockNumber uint64          `json:"block_number"`
	TxHash      common.Hash     `json:"tx_hash"`
	TxIndex     uint64          `json:"tx_index"`
	EncodedTx   hexutil.Bytes   `json:"encoded_tx"`
	Proof       []hexutil.Bytes `json:"proof"`
}

// ProofBundle is everything needed for one stateless batch verification:
// a single validity proof establishing the trusted MMR roots, the hashing
// function all MMR proofs in the bundle were built with, and the per item
// proof material. A bundle never mixes hashing functions or anchors.
type ProofBundle struct {
	HashingFunction  HashingFunction         `json:"hashing_function"`
	BlockProof       *ValidityProof          `json:"block_proof"`
	ExecutionHeaders []*ExecutionHeaderProof `json:"execution_header_proofs,omitempty"`
	BeaconHeaders    []*BeaconHeaderProof    `json:"beacon_header_proofs,omitempty"`
	Accounts         []*AccountProof         `json:"account_proofs,omitempty"`
	Transactions     []*TransactionProof     `json:"tx_proofs,omitempty"`
}
