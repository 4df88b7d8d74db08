package execution

import (
	"bytes"
	"fmt"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/ethpandaops/herald/types"
)

// VerifiedTransaction is a transaction proven included under a verified
// header's transactions root.
type VerifiedTransaction struct {
	Transaction *ethtypes.Transaction
	Index       uint64

	header *VerifiedHeader
}

// Header returns the verified header the transaction belongs to.
func (t *VerifiedTransaction) Header() *VerifiedHeader {
	return t.header
}

// VerifyTransactionProof walks the supplied trie nodes from the verified
// header's transactions root down to rlp(tx_index), requires the resolved
// leaf to equal the claimed transaction encoding, decodes the transaction
// and checks it is the one the request targets.
func VerifyTransactionProof(proof *types.TransactionProof, header *VerifiedHeader) (*VerifiedTransaction, error) {
	if header.Number() != proof.BlockNumber {
		return nil, fmt.Errorf("%w: proof references block %d, header is block %d",
			types.ErrUnresolvedHeaderReference, proof.BlockNumber, header.Number())
	}

	key := rlp.AppendUint64(nil, proof.TxIndex)
	value, err := trie.VerifyProof(header.TransactionsRoot(), key, proofDB(proof.Proof))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidTxProof, err)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: no transaction at index %d",
			types.ErrInvalidTxProof, proof.TxIndex)
	}
	if !bytes.Equal(value, proof.EncodedTx) {
		return nil, fmt.Errorf("%w: proven transaction differs from claimed encoding at index %d",
			types.ErrInvalidTxProof, proof.TxIndex)
	}

	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(proof.EncodedTx); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidRlpDecode, err)
	}
	if tx.Hash() != proof.TxHash {
		return nil, fmt.Errorf("%w: proven transaction %v, request targets %v",
			types.ErrInvalidTxProof, tx.Hash(), proof.TxHash)
	}

	return &VerifiedTransaction{
		Transaction: tx,
		Index:       proof.TxIndex,
		header:      header,
	}, nil
}
