package commands

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"go.uber.org/zap"
)

// Genesis writes the genesis parameters to the file at path.
func Genesis(log *zap.SugaredLogger, path string, gen genesis.Genesis) error {
	if path == "" {
		return errors.New("a path for the genesis file is required")
	}

	if err := gen.Save(path); err != nil {
		return err
	}

	log.Infow("genesis", "status", "written", "path", path, "difficulty", gen.Difficulty, "reward", gen.MiningReward)

	return nil
}
