package execution

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

// proofDB loads an ordered trie node list into the keyed form the trie
// proof verifier resolves nodes from (node hash -> node body).
func proofDB(nodes []hexutil.Bytes) ethdb.KeyValueReader {
	db := memorydb.New()
	for _, node := range nodes {
		db.Put(crypto.Keccak256(node), node)
	}
	return db
}
