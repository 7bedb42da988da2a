// Package genesis maintains access to the genesis parameters of the ledger.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/ledger/foundation/validate"
)

// Default values used when no genesis file is provided.
const (
	DefaultDifficulty   = 2
	DefaultMiningReward = 50
)

// Genesis represents the genesis parameters of the ledger.
type Genesis struct {
	Date         time.Time `json:"date"`                                             // Timestamp of the genesis block.
	Difficulty   uint16    `json:"difficulty" validate:"min=1,max=64"`               // Number of leading hex 0's a block hash needs.
	MiningReward uint64    `json:"mining_reward" validate:"max=9223372036854775807"` // Value minted to whoever mines a block, it must fit an int64.
}

// New constructs a genesis with the specified difficulty and mining reward.
// The date is fixed so every ledger built with the same parameters starts
// from the same genesis block.
func New(difficulty uint16, miningReward uint64) Genesis {
	return Genesis{
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:   difficulty,
		MiningReward: miningReward,
	}
}

// Default returns the genesis with the default parameters.
func Default() Genesis {
	return New(DefaultDifficulty, DefaultMiningReward)
}

// Validate checks the genesis parameters can be used to run a ledger.
func (g Genesis) Validate() error {
	if err := validate.Check(g); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	return nil
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// keep their default value.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Save writes the genesis to the file so a node can be started with it.
func (g Genesis) Save(path string) error {
	if err := g.Validate(); err != nil {
		return err
	}

	content, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, content, 0644)
}
