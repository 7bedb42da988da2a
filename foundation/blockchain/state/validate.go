package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// ValidateChain audits the entire chain from genesis to the latest block.
func (s *State) ValidateChain() error {
	s.evHandler("state: ValidateChain: started")

	if err := ValidateBlocks(s.genesis, s.RetrieveChain()); err != nil {
		s.evHandler("state: ValidateChain: FAILED: %s", err)
		return err
	}

	s.evHandler("state: ValidateChain: completed")

	return nil
}

// IsChainValid reports whether ValidateChain passes.
func (s *State) IsChainValid() bool {
	return s.ValidateChain() == nil
}

// =============================================================================

// ValidateBlocks checks the set of blocks forms a chain under the genesis
// parameters. Every block must have its hash match its contents and must
// link to the block before it. Blocks after genesis must solve the proof of
// work, hold only valid transfers and end with the mining reward.
func ValidateBlocks(gen genesis.Genesis, blocks []database.Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: chain has no genesis block", database.ErrChainIntegrity)
	}

	if err := validateGenesisBlock(gen, blocks[0]); err != nil {
		return err
	}

	for i := 1; i < len(blocks); i++ {
		block := blocks[i]

		if err := block.ValidateBlock(blocks[i-1], gen.Difficulty); err != nil {
			return fmt.Errorf("block[%d]: %w", i, err)
		}

		if err := validateReward(gen, block); err != nil {
			return fmt.Errorf("block[%d]: %w", i, err)
		}
	}

	return nil
}

// validateGenesisBlock makes sure the first block is the one the ledger
// would have constructed from the genesis parameters.
func validateGenesisBlock(gen genesis.Genesis, block database.Block) error {
	if block.Header.PrevBlockHash != signature.ZeroHash {
		return fmt.Errorf("%w: genesis block links to %s", database.ErrChainIntegrity, block.Header.PrevBlockHash)
	}

	if hash := block.CalculateHash(); block.Hash != hash {
		return fmt.Errorf("%w: genesis block hash %s does not match contents %s", database.ErrChainIntegrity, block.Hash, hash)
	}

	if block.Hash != genesisBlock(gen).Hash {
		return fmt.Errorf("%w: genesis block %s does not match the genesis parameters", database.ErrChainIntegrity, block.Hash)
	}

	return nil
}

// validateReward checks the only mint in a mined block is the reward as the
// last transaction.
func validateReward(gen genesis.Genesis, block database.Block) error {
	last := len(block.Trans) - 1
	if last < 0 {
		return fmt.Errorf("%w: block has no mining reward", database.ErrChainIntegrity)
	}

	for i, tx := range block.Trans {
		mint, ok := tx.(database.Mint)
		switch {
		case !ok && i == last:
			return fmt.Errorf("%w: block has no mining reward", database.ErrChainIntegrity)

		case ok && i != last:
			return fmt.Errorf("%w: tx[%d]: mint is only allowed as the mining reward", database.ErrChainIntegrity, i)

		case ok && mint.Value != gen.MiningReward:
			return fmt.Errorf("%w: mining reward %d, exp %d", database.ErrChainIntegrity, mint.Value, gen.MiningReward)
		}
	}

	return nil
}
