package verify

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/rawdb"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/herald/types"
	"github.com/ethpandaops/herald/verify/canonical"
	"github.com/ethpandaops/herald/verify/mmr/mmrtest"
)

// stubSystem stands in for a proof backend. VerifyBatch calls it exactly
// once per batch, before any other verification work.
type stubSystem struct {
	trusted *types.TrustedBlock
	err     error
	calls   int
}

func (s *stubSystem) Verify(proof *types.ValidityProof) (*types.TrustedBlock, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.trusted, nil
}

type proofList []hexutil.Bytes

func (p *proofList) Put(key, value []byte) error {
	*p = append(*p, hexutil.Bytes(value))
	return nil
}

func (p *proofList) Delete(key []byte) error {
	return nil
}

const (
	batchAnchorNumber = 9000
	accountBlock      = 8999
	txBlock           = 8998
	beaconSlot        = 123456
)

var testAddress = common.HexToAddress("0x1111111111111111111111111111111111111111")

// newBatchFixture assembles a bundle with two execution headers, one
// beacon header, one account proof under the first header and one
// transaction proof under the second, all bound to a single anchor.
func newBatchFixture(t *testing.T) (*types.ProofBundle, *stubSystem) {
	t.Helper()

	// Account state under block 8999.
	account := &types.Account{
		Nonce:       3,
		Balance:     uint256.NewInt(1_000_000_000),
		StorageRoot: ethtypes.EmptyRootHash,
		CodeHash:    crypto.Keccak256Hash(nil),
	}
	stateTr := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	encodedAccount, err := rlp.EncodeToBytes(account.StateAccount())
	require.NoError(t, err)
	stateTr.MustUpdate(crypto.Keccak256(testAddress.Bytes()), encodedAccount)

	// One transaction in block 8998.
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	tx, err := ethtypes.SignNewTx(key, ethtypes.LatestSignerForChainID(big.NewInt(1)), &ethtypes.LegacyTx{
		Nonce:    0,
		To:       &to,
		Value:    big.NewInt(1000),
		Gas:      21_000,
		GasPrice: big.NewInt(1_000_000_000),
	})
	require.NoError(t, err)
	encodedTx, err := tx.MarshalBinary()
	require.NoError(t, err)
	txsTr := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	txsTr.MustUpdate(rlp.AppendUint64(nil, 0), encodedTx)

	makeHeader := func(number uint64, stateRoot, txsRoot common.Hash) *ethtypes.Header {
		return &ethtypes.Header{
			ParentHash:  crypto.Keccak256Hash([]byte{byte(number)}),
			UncleHash:   ethtypes.EmptyUncleHash,
			Root:        stateRoot,
			TxHash:      txsRoot,
			ReceiptHash: ethtypes.EmptyReceiptsHash,
			Difficulty:  big.NewInt(0),
			Number:      new(big.Int).SetUint64(number),
			GasLimit:    30_000_000,
			Time:        1_700_000_000,
			Extra:       []byte{},
		}
	}
	accountHeader := makeHeader(accountBlock, stateTr.Hash(), ethtypes.EmptyTxsHash)
	txHeader := makeHeader(txBlock, ethtypes.EmptyRootHash, txsTr.Hash())

	beaconHeader := &phase0.BeaconBlockHeader{
		Slot:          beaconSlot,
		ProposerIndex: 7,
		ParentRoot:    phase0.Root(crypto.Keccak256Hash([]byte("beacon-parent"))),
		StateRoot:     phase0.Root(crypto.Keccak256Hash([]byte("beacon-state"))),
		BodyRoot:      phase0.Root(crypto.Keccak256Hash([]byte("beacon-body"))),
	}
	beaconRoot, err := canonical.BeaconHeaderRoot(beaconHeader)
	require.NoError(t, err)

	execBuilder := mmrtest.NewBuilder(types.HashingKeccak)
	leafFor := func(hash common.Hash) common.Hash {
		leaf, err := canonical.Leaf(hash, types.HashingKeccak)
		require.NoError(t, err)
		return leaf
	}
	txHeaderPos := execBuilder.AddLeaf(leafFor(txHeader.Hash()))
	accountHeaderPos := execBuilder.AddLeaf(leafFor(accountHeader.Hash()))

	beaconBuilder := mmrtest.NewBuilder(types.HashingKeccak)
	beaconPos := beaconBuilder.AddLeaf(leafFor(beaconRoot))

	trusted := types.NewTrustedBlock(types.TrustedBlockParams{
		Number: batchAnchorNumber,
		Beacon: types.TrustedChainParams{
			RootKeccak:    beaconBuilder.Root(),
			RootPoseidon:  common.HexToHash("0x01"),
			ElementsCount: beaconBuilder.ElementsCount(),
			LeavesCount:   beaconBuilder.LeavesCount(),
		},
		Execution: types.TrustedChainParams{
			RootKeccak:    execBuilder.Root(),
			RootPoseidon:  common.HexToHash("0x02"),
			ElementsCount: execBuilder.ElementsCount(),
			LeavesCount:   execBuilder.LeavesCount(),
		},
	})

	var accountNodes proofList
	require.NoError(t, stateTr.Prove(crypto.Keccak256(testAddress.Bytes()), &accountNodes))
	var txNodes proofList
	require.NoError(t, txsTr.Prove(rlp.AppendUint64(nil, 0), &txNodes))

	bundle := &types.ProofBundle{
		HashingFunction: types.HashingKeccak,
		BlockProof: &types.ValidityProof{
			BlockNumber:  batchAnchorNumber,
			Proof:        hexutil.Bytes{0x01},
			PublicInputs: hexutil.Bytes{0x02},
		},
		ExecutionHeaders: []*types.ExecutionHeaderProof{
			{Header: txHeader, MmrProof: execBuilder.Proof(types.ChainExecution, txBlock, txHeader.Hash(), txHeaderPos)},
			{Header: accountHeader, MmrProof: execBuilder.Proof(types.ChainExecution, accountBlock, accountHeader.Hash(), accountHeaderPos)},
		},
		BeaconHeaders: []*types.BeaconHeaderProof{
			{Header: beaconHeader, MmrProof: beaconBuilder.Proof(types.ChainBeacon, beaconSlot, beaconRoot, beaconPos)},
		},
		Accounts: []*types.AccountProof{
			{
				Address:     testAddress,
				BlockNumber: accountBlock,
				StateRoot:   stateTr.Hash(),
				Account:     account,
				Proof:       accountNodes,
			},
		},
		Transactions: []*types.TransactionProof{
			{
				BlockNumber: txBlock,
				TxHash:      tx.Hash(),
				TxIndex:     0,
				EncodedTx:   encodedTx,
				Proof:       txNodes,
			},
		},
	}

	return bundle, &stubSystem{trusted: trusted}
}

func newTestVerifier(system *stubSystem) *Verifier {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewVerifier(system, WithLogger(logger), WithConcurrency(2))
}

func TestVerifyBatch(t *testing.T) {
	bundle, system := newBatchFixture(t)
	verifier := newTestVerifier(system)

	result, err := verifier.VerifyBatch(context.Background(), bundle)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, system.calls)

	assert.Equal(t, uint64(batchAnchorNumber), result.Anchor.Number())
	require.Len(t, result.ExecutionHeaders, 2)
	require.Len(t, result.BeaconHeaders, 1)
	require.Len(t, result.Accounts, 1)
	require.Len(t, result.Transactions, 1)

	accountHeader := result.ExecutionHeader(accountBlock)
	require.NotNil(t, accountHeader)
	assert.Equal(t, uint64(accountBlock), accountHeader.Number())
	assert.Nil(t, result.ExecutionHeader(1))

	// Accounts and transactions hang off the verified header instance
	// from the same batch, not a copy.
	assert.Same(t, accountHeader, result.Accounts[0].Header())
	assert.Same(t, result.ExecutionHeader(txBlock), result.Transactions[0].Header())

	assert.Equal(t, uint64(3), result.Accounts[0].Account.Nonce)
	assert.Equal(t, uint64(beaconSlot), result.BeaconHeaders[0].Slot())
	assert.Equal(t, uint64(0), result.Transactions[0].Index)
}

func TestVerifyBatchFailFast(t *testing.T) {
	t.Run("tampered execution header", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		tampered := ethtypes.CopyHeader(bundle.ExecutionHeaders[1].Header)
		tampered.GasUsed++
		bundle.ExecutionHeaders[1].Header = tampered

		result, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrHeaderHashMismatch)
		assert.ErrorContains(t, err, "execution header 1")
		assert.Nil(t, result)
	})

	t.Run("tampered account claim", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		bundle.Accounts[0].Account.Balance = uint256.NewInt(999)

		result, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrInvalidAccountProof)
		assert.ErrorContains(t, err, "account 0")
		assert.Nil(t, result)
	})

	t.Run("tampered beacon header", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		altered := *bundle.BeaconHeaders[0].Header
		altered.ProposerIndex++
		bundle.BeaconHeaders[0].Header = &altered

		result, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrHeaderHashMismatch)
		assert.ErrorContains(t, err, "beacon header 0")
		assert.Nil(t, result)
	})
}

func TestVerifyBatchValidation(t *testing.T) {
	t.Run("nil bundle", func(t *testing.T) {
		system := &stubSystem{}
		_, err := newTestVerifier(system).VerifyBatch(context.Background(), nil)
		assert.ErrorIs(t, err, types.ErrInvalidProofBatch)
		assert.Zero(t, system.calls)
	})

	t.Run("missing block proof", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		bundle.BlockProof = nil

		_, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrInvalidProofBatch)
		assert.Zero(t, system.calls)
	})

	t.Run("dangling account reference", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		bundle.Accounts[0].BlockNumber = 9100

		_, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrUnresolvedHeaderReference)
		assert.Zero(t, system.calls)
	})

	t.Run("dangling transaction reference", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		bundle.Transactions[0].BlockNumber = 9100

		_, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrUnresolvedHeaderReference)
		assert.Zero(t, system.calls)
	})

	t.Run("mixed hashing functions", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		bundle.ExecutionHeaders[0].MmrProof.HashingFunction = types.HashingPoseidon

		_, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrMixedHashingFunction)
		assert.Zero(t, system.calls)
	})

	t.Run("duplicate header request", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		bundle.ExecutionHeaders[1] = bundle.ExecutionHeaders[0]

		_, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrInvalidProofBatch)
		assert.Zero(t, system.calls)
	})

	t.Run("wrong chain tag", func(t *testing.T) {
		bundle, system := newBatchFixture(t)
		bundle.BeaconHeaders[0].MmrProof.Chain = types.ChainExecution

		_, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
		assert.ErrorIs(t, err, types.ErrInvalidProofBatch)
		assert.Zero(t, system.calls)
	})
}

func TestVerifyBatchBlockProofFailure(t *testing.T) {
	bundle, _ := newBatchFixture(t)
	system := &stubSystem{err: types.ErrInvalidValidityProof}

	result, err := newTestVerifier(system).VerifyBatch(context.Background(), bundle)
	assert.ErrorIs(t, err, types.ErrInvalidValidityProof)
	assert.Nil(t, result)
	assert.Equal(t, 1, system.calls)
}

func TestVerifyBatchCanceledContext(t *testing.T) {
	bundle, system := newBatchFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestVerifier(system).VerifyBatch(ctx, bundle)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}
