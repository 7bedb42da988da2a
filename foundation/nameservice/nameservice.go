// Package nameservice reads a folder of private key files and creates a
// name service lookup for the accounts they own.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyExtension is the file extension of a private key file. The file name
// without the extension is the name of the account.
const KeyExtension = ".ecdsa"

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	mu       sync.RWMutex
	accounts map[database.AccountID]string
	names    map[string]database.AccountID
}

// New constructs a name service with the accounts of every key file found
// under the root folder. An empty root gives an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[database.AccountID]string),
		names:    make(map[string]database.AccountID),
	}

	if root == "" {
		return &ns, nil
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != KeyExtension {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		name := strings.TrimSuffix(filepath.Base(fileName), KeyExtension)
		ns.Register(database.PublicKeyToAccountID(privateKey.PublicKey), name)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Register associates the name with the account.
func (ns *NameService) Register(accountID database.AccountID, name string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.accounts[accountID] = name
	ns.names[name] = accountID
}

// Lookup returns the name for the specified account. If the account has no
// name, the account is returned as is.
func (ns *NameService) Lookup(accountID database.AccountID) string {
	if id, err := database.ToAccountID(string(accountID)); err == nil {
		accountID = id
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	name, exists := ns.accounts[accountID]
	if !exists {
		return string(accountID)
	}
	return name
}

// Resolve returns the account for a name or an account in hex form.
func (ns *NameService) Resolve(nameOrAccount string) (database.AccountID, error) {
	ns.mu.RLock()
	accountID, exists := ns.names[nameOrAccount]
	ns.mu.RUnlock()

	if exists {
		return accountID, nil
	}

	accountID, err := database.ToAccountID(nameOrAccount)
	if err != nil {
		return "", fmt.Errorf("%q is not a known name or account: %w", nameOrAccount, err)
	}

	return accountID, nil
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[database.AccountID]string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	cpy := make(map[database.AccountID]string, len(ns.accounts))
	for account, name := range ns.accounts {
		cpy[account] = name
	}
	return cpy
}
