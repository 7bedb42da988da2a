package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/balance"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// ErrNotFound is returned when a queried block or transaction doesn't exist.
var ErrNotFound = errors.New("not found")

// =============================================================================

// QueryBalance returns the balance of the account by replaying every
// transaction in the chain. Pending transfers are not counted. An account
// that has never transacted has a balance of zero.
func (s *State) QueryBalance(accountID database.AccountID) int64 {
	if id, err := database.ToAccountID(string(accountID)); err == nil {
		accountID = id
	}

	return balance.Replay(s.RetrieveChain()).Balance(accountID)
}

// QueryBalances returns the balance of every account that has transacted.
func (s *State) QueryBalances() map[database.AccountID]int64 {
	return balance.Replay(s.RetrieveChain()).Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on their height in
// the chain, where genesis is block 0.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	chain := s.RetrieveChain()
	latest := uint64(len(chain) - 1)

	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest || to > latest {
		to = latest
	}

	if from > to {
		return nil
	}

	return chain[from : to+1]
}

// QueryBlocksByAccount returns the set of blocks by account. If the account
// is empty, all blocks are returned.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) []database.Block {
	chain := s.RetrieveChain()
	if accountID == "" {
		return chain
	}

	if id, err := database.ToAccountID(string(accountID)); err == nil {
		accountID = id
	}

	var out []database.Block
	for _, block := range chain {
		for _, tx := range block.Trans {
			if tx.Recipient() == accountID {
				out = append(out, block)
				break
			}

			if transfer, ok := tx.(database.Transfer); ok && transfer.FromID == accountID {
				out = append(out, block)
				break
			}
		}
	}

	return out
}

// QueryTxProof returns the merkle proof that the transaction at the index is
// recorded in the block at the specified height.
func (s *State) QueryTxProof(height uint64, index int) (database.TxProof, error) {
	blocks := s.QueryBlocksByNumber(height, height)
	if len(blocks) == 0 {
		return database.TxProof{}, fmt.Errorf("block %d: %w", height, ErrNotFound)
	}

	block := blocks[0]
	if index < 0 || index >= len(block.Trans) {
		return database.TxProof{}, fmt.Errorf("block %d tx %d: %w", height, index, ErrNotFound)
	}

	return block.TxProof(index)
}
