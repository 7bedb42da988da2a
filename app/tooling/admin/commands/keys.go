package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// GenKeys creates a private key file in the folder for every name. Existing
// key files are left as they are.
func GenKeys(log *zap.SugaredLogger, folder string, names []string) error {
	if len(names) == 0 {
		return errors.New("at least one name is required")
	}

	if err := os.MkdirAll(folder, 0700); err != nil {
		return err
	}

	for _, name := range names {
		path := filepath.Join(folder, name+nameservice.KeyExtension)

		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			log.Infow("keys", "status", "key exists", "name", name, "path", path)
			continue
		}

		kp, err := signature.GenerateKey()
		if err != nil {
			return err
		}

		if err := crypto.SaveECDSA(path, kp.PrivateKey); err != nil {
			return fmt.Errorf("saving %s: %w", path, err)
		}

		log.Infow("keys", "status", "key created", "name", name, "account", kp.Address)
	}

	return nil
}
