package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// AddTransaction accepts a signed transfer for inclusion in the next mined
// block. Mints are only ever issued by the ledger itself.
func (s *State) AddTransaction(tx database.Tx) error {
	transfer, err := s.validateTransaction(tx)
	if err != nil {
		s.evHandler("state: AddTransaction: REJECTED: %s", err)
		return err
	}

	s.mu.Lock()
	n := s.mempool.Add(transfer)
	s.mu.Unlock()

	s.evHandler("state: AddTransaction: accepted tx[%s] pending[%d]", transfer, n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// =============================================================================

// validateTransaction makes sure the transaction is a transfer with properly
// formatted accounts and a signature from the sending account.
func (s *State) validateTransaction(tx database.Tx) (database.Transfer, error) {
	if tx == nil {
		return database.Transfer{}, fmt.Errorf("%w: no transaction provided", database.ErrInvalidTransaction)
	}

	transfer, ok := tx.(database.Transfer)
	if !ok {
		return database.Transfer{}, fmt.Errorf("%w: %T can't be submitted, mints are issued by the ledger", database.ErrInvalidTransaction, tx)
	}

	if transfer.ToID == "" {
		return database.Transfer{}, fmt.Errorf("%w: to account is required", database.ErrInvalidTransaction)
	}

	if transfer.FromID == "" {
		return database.Transfer{}, fmt.Errorf("%w: from account is required", database.ErrInvalidTransaction)
	}

	if err := transfer.Validate(); err != nil {
		return database.Transfer{}, err
	}

	return transfer, nil
}
