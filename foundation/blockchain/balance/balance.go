// Package balance derives account balances by replaying transactions.
package balance

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Sheet represents the balances for the accounts that have transacted.
// Balances are signed since the ledger does not require a sender to hold
// the value being transferred.
type Sheet struct {
	sheet map[database.AccountID]int64
}

// NewSheet constructs an empty balance sheet.
func NewSheet() *Sheet {
	return &Sheet{
		sheet: make(map[database.AccountID]int64),
	}
}

// Replay constructs a balance sheet by applying every transaction in every
// block in chain order.
func Replay(blocks []database.Block) *Sheet {
	bs := NewSheet()
	for _, block := range blocks {
		for _, tx := range block.Trans {
			bs.ApplyTransaction(tx)
		}
	}

	return bs
}

// ApplyTransaction performs the accounting for a single transaction. A
// transfer moves value between accounts, a mint creates value.
func (bs *Sheet) ApplyTransaction(tx database.Tx) {
	switch tx := tx.(type) {
	case database.Transfer:
		bs.sheet[tx.FromID] -= int64(tx.Value)
		bs.sheet[tx.ToID] += int64(tx.Value)

	case database.Mint:
		bs.sheet[tx.ToID] += int64(tx.Value)
	}
}

// Balance returns the balance for the specified account. Accounts that have
// never transacted have a balance of zero.
func (bs *Sheet) Balance(accountID database.AccountID) int64 {
	return bs.sheet[accountID]
}

// Total returns the sum of all balances on the sheet.
func (bs *Sheet) Total() int64 {
	var total int64
	for _, value := range bs.sheet {
		total += value
	}

	return total
}

// Copy makes a copy of the current balance sheet but returns the raw data.
func (bs *Sheet) Copy() map[database.AccountID]int64 {
	sheet := make(map[database.AccountID]int64, len(bs.sheet))
	for accountID, value := range bs.sheet {
		sheet[accountID] = value
	}

	return sheet
}
