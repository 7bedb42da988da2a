package state

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// MinePendingTransactions builds a block from the pending transfers plus a
// mining reward to the beneficiary, solves its proof of work and appends it
// to the chain. A block is produced even when nothing is pending. Transfers
// added while the proof of work runs stay pending for the next block.
func (s *State) MinePendingTransactions(ctx context.Context, beneficiaryID database.AccountID) (database.Block, error) {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	reward, err := database.NewMint(beneficiaryID, s.genesis.MiningReward)
	if err != nil {
		return database.Block{}, fmt.Errorf("beneficiary: %w", err)
	}

	pending := s.mempool.Copy()

	trans := make([]database.Tx, 0, len(pending)+1)
	for _, tx := range pending {
		trans = append(trans, tx)
	}
	trans = append(trans, reward)

	// Only mining appends to the chain, so the latest block can't change
	// while the mining lock is held.
	latest := s.RetrieveLatestBlock()

	timeStamp := time.Now().UTC().UnixMilli()
	if timeStamp < latest.Header.TimeStamp {
		timeStamp = latest.Header.TimeStamp
	}

	block := database.NewBlock(timeStamp, latest.Hash, trans)

	s.evHandler("state: MinePendingTransactions: MINING: perform POW: prevBlk[%s] trans[%d] difficulty[%d]", latest.Hash, len(trans), s.genesis.Difficulty)

	start := time.Now()
	if err := block.Mine(ctx, s.genesis.Difficulty, s.workers); err != nil {
		s.evHandler("state: MinePendingTransactions: MINING: CANCELLED: %s", err)
		return database.Block{}, err
	}

	s.evHandler("state: MinePendingTransactions: MINING: SOLVED: blk[%s] nonce[%d] took[%s]", block.Hash, block.Header.Nonce, time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chain = append(s.chain, block)
	s.mempool.Drop(len(pending))

	s.evHandler("viewer: block[%s] height[%d] trans[%d]", block.Hash, len(s.chain)-1, len(block.Trans))

	return block, nil
}
