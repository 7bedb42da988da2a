// This program performs administrative tasks for the ledger: creating key
// files, writing a genesis file and running the demo scenario.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledger/app/tooling/admin/commands"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

type config struct {
	conf.Version
	Args   conf.Args
	Ledger struct {
		Difficulty    uint16 `conf:"default:2"`
		MiningReward  uint64 `conf:"default:50"`
		MiningWorkers int    `conf:"default:1"`
	}
	Keys struct {
		Folder string `conf:"default:zblock/accounts/"`
	}
}

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("startup", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := config{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger administration",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	return processCommands(cfg.Args, log, cfg)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, log *zap.SugaredLogger, cfg config) error {
	gen := genesis.New(cfg.Ledger.Difficulty, cfg.Ledger.MiningReward)

	switch args.Num(0) {
	case "keys":
		names := []string(args[1:])
		if err := commands.GenKeys(log, cfg.Keys.Folder, names); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

	case "genesis":
		if err := commands.Genesis(log, args.Num(1), gen); err != nil {
			return fmt.Errorf("writing genesis: %w", err)
		}

	case "demo":
		if _, err := commands.Demo(context.Background(), log, gen, cfg.Ledger.MiningWorkers); err != nil {
			return fmt.Errorf("running demo: %w", err)
		}

	default:
		fmt.Println("keys <name>...: create a private key file for every name in the keys folder")
		fmt.Println("genesis <path>: write a genesis file with the configured difficulty and reward")
		fmt.Println("demo:           run the two user scenario against an in-memory ledger")
		fmt.Println("provide a command to get more help.")
		return commands.ErrHelp
	}

	return nil
}
