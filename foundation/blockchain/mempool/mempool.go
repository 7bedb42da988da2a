// Package mempool maintains the pending transfers waiting to be mined
// into the next block.
package mempool

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Mempool represents an ordered cache of transfers. The order transfers
// are added is the order they are included in the next block.
type Mempool struct {
	pool []database.Transfer
	mu   sync.RWMutex
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transfers in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transfer to the end of the pool and returns the new count.
func (mp *Mempool) Add(tx database.Transfer) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Copy returns the transfers in the pool in the order they were added.
func (mp *Mempool) Copy() []database.Transfer {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Transfer, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}

// Drop removes the n oldest transfers from the pool. This is used once
// those transfers have been mined into a block.
func (mp *Mempool) Drop(n int) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if n >= len(mp.pool) {
		mp.pool = nil
		return
	}

	mp.pool = append([]database.Transfer(nil), mp.pool[n:]...)
}

// Truncate clears all the transfers from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}
