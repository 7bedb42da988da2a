// Package database provides the ledger data structures: accounts, the
// transaction variants and the blocks they are batched into, including the
// proof of work required to seal a block.
package database

import "errors"

// Set of error variables for the ledger data structures.
var (
	// ErrConstruction is returned when a transaction can't be constructed
	// from the arguments provided.
	ErrConstruction = errors.New("transaction construction")

	// ErrInvalidTransaction is returned when a transaction fails signature
	// verification or is missing a required account.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrChainIntegrity is returned when an audit of the chain finds a hash
	// mismatch, a broken link or an invalid transaction.
	ErrChainIntegrity = errors.New("chain integrity")

	// ErrDifficulty is returned when the difficulty can't be satisfied by a
	// hex encoded sha256 hash.
	ErrDifficulty = errors.New("invalid difficulty")
)
