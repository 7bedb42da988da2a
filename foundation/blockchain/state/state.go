// Package state is the core API for the ledger and implements all the
// business rules for accepting transactions, mining blocks and deriving
// balances.
package state

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// EventHandler defines a function that is called when events
// occur in the processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining in the background.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis       genesis.Genesis
	MiningWorkers int
	EvHandler     EventHandler
}

// State manages the ledger. The chain is only ever appended to.
type State struct {
	evHandler EventHandler
	genesis   genesis.Genesis
	workers   int

	mu      sync.RWMutex
	chain   []database.Block
	mempool *mempool.Mempool

	// Only one block can be mined at a time.
	miningMu sync.Mutex

	Worker Worker
}

// New constructs a new ledger holding only the genesis block.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	workers := cfg.MiningWorkers
	if workers < 1 {
		workers = 1
	}

	gen := genesisBlock(cfg.Genesis)

	state := State{
		evHandler: ev,
		genesis:   cfg.Genesis,
		workers:   workers,
		chain:     []database.Block{gen},
		mempool:   mempool.New(),
	}

	ev("state: New: genesis block[%s] difficulty[%d] reward[%d]", gen.Hash, cfg.Genesis.Difficulty, cfg.Genesis.MiningReward)

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	// Stop all mining activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// The chain lives in memory, so pending transfers that were never mined
	// are lost with it.
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.mempool.Count(); n > 0 {
		s.evHandler("state: Shutdown: discarding pending transfers: Txs[%d]", n)
		s.mempool.Truncate()
	}

	return nil
}

// =============================================================================

// genesisBlock constructs the first block of the chain. It carries a single
// zero value mint to the genesis account and is never mined.
func genesisBlock(g genesis.Genesis) database.Block {
	mint := database.Mint{
		ToID:  database.GenesisAccountID,
		Value: 0,
	}

	return database.NewBlock(g.Date.UnixMilli(), signature.ZeroHash, []database.Tx{mint})
}
