package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyBlock(s.chain[len(s.chain)-1])
}

// RetrieveChain returns a copy of every block from genesis to the latest.
func (s *State) RetrieveChain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := make([]database.Block, len(s.chain))
	for i, block := range s.chain {
		chain[i] = copyBlock(block)
	}

	return chain
}

// RetrieveMempool returns a copy of the pending transfers in the order
// they were accepted.
func (s *State) RetrieveMempool() []database.Transfer {
	return s.mempool.Copy()
}

// =============================================================================

// copyBlock gives the caller its own transaction slice so the chain can't be
// changed through a retrieved block.
func copyBlock(block database.Block) database.Block {
	block.Trans = append([]database.Tx(nil), block.Trans...)
	return block
}
