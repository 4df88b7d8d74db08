package execution

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/ethpandaops/herald/types"
)

// VerifiedAccount is an account state proven included under a verified
// header's state root.
type VerifiedAccount struct {
	Address common.Address
	Account types.Account

	header *VerifiedHeader
}

// Header returns the verified header the account state belongs to.
func (a *VerifiedAccount) Header() *VerifiedHeader {
	return a.header
}

// VerifyAccountProof walks the supplied trie nodes from the verified
// header's state root down to keccak256(address) and requires the resolved
// leaf to equal the RLP encoding of the claimed account. Only then are the
// claimed nonce, balance, storage root and code hash trustworthy.
func VerifyAccountProof(proof *types.AccountProof, header *VerifiedHeader) (*VerifiedAccount, error) {
	if proof.Account == nil {
		return nil, fmt.Errorf("%w: missing claimed account", types.ErrInvalidProofBatch)
	}
	if header.Number() != proof.BlockNumber {
		return nil, fmt.Errorf("%w: proof references block %d, header is block %d",
			types.ErrUnresolvedHeaderReference, proof.BlockNumber, header.Number())
	}
	if header.StateRoot() != proof.StateRoot {
		return nil, fmt.Errorf("%w: proof claims %v, verified header carries %v",
			types.ErrStateRootMismatch, proof.StateRoot, header.StateRoot())
	}

	expected, err := rlp.EncodeToBytes(proof.Account.StateAccount())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidRlpDecode, err)
	}

	key := crypto.Keccak256(proof.Address.Bytes())
	value, err := trie.VerifyProof(header.StateRoot(), key, proofDB(proof.Proof))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidAccountProof, err)
	}
	if value == nil {
		// Exclusion proofs are not supported; an absent key is a failure.
		return nil, fmt.Errorf("%w: account %v not present under state root",
			types.ErrInvalidAccountProof, proof.Address)
	}
	if !bytes.Equal(value, expected) {
		return nil, fmt.Errorf("%w: proven state differs from claimed account for %v",
			types.ErrInvalidAccountProof, proof.Address)
	}

	return &VerifiedAccount{
		Address: proof.Address,
		Account: *proof.Account,
		header:  header,
	}, nil
}
