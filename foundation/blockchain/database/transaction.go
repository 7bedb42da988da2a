package database

import (
	"crypto/ecdsa"
	"fmt"
	"math"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// MaxValue is the largest amount a transaction can carry. Balances are
// signed, so an amount must fit in an int64.
const MaxValue uint64 = math.MaxInt64

// Tx represents a transaction recorded on the ledger. The only
// implementations are Transfer and Mint.
type Tx interface {
	Recipient() AccountID
	Amount() uint64
	Validate() error
	IsValid() bool
	Record() BlockTx
	isTx()
}

// =============================================================================

// txData is the set of fields that are covered by a transfer signature.
type txData struct {
	From  AccountID `json:"from"`
	To    AccountID `json:"to"`
	Value uint64    `json:"value"`
}

// Transfer is a signed instruction moving value from one account to another.
type Transfer struct {
	FromID AccountID // Account paying the value and signing the transfer.
	ToID   AccountID // Account receiving the value.
	Value  uint64    // Monetary value moved by this transfer.
	Sig    []byte    // Signature in the [R|S|V] format over the digest.
}

// NewTransfer constructs a transfer and signs it with the private key of
// the sending account.
func NewTransfer(fromID AccountID, toID AccountID, value uint64, privateKey *ecdsa.PrivateKey) (Transfer, error) {
	if toID == "" {
		return Transfer{}, fmt.Errorf("%w: to account is required", ErrConstruction)
	}

	to, err := ToAccountID(string(toID))
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: to account: %s", ErrConstruction, err)
	}

	if fromID == "" {
		return Transfer{}, fmt.Errorf("%w: from account is required, use a mint for system issued value", ErrConstruction)
	}

	from, err := ToAccountID(string(fromID))
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: from account: %s", ErrConstruction, err)
	}

	if value > MaxValue {
		return Transfer{}, fmt.Errorf("%w: value %d is above the max of %d", ErrConstruction, value, MaxValue)
	}

	if privateKey == nil {
		return Transfer{}, fmt.Errorf("%w: private key is required to sign a transfer", ErrConstruction)
	}

	tx := Transfer{
		FromID: from,
		ToID:   to,
		Value:  value,
	}

	digest, err := tx.Digest()
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: %s", ErrConstruction, err)
	}

	sig, err := signature.Sign(digest, privateKey)
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: %s", ErrConstruction, err)
	}
	tx.Sig = sig

	return tx, nil
}

// Digest returns the hash of the from, to and value fields. The signature
// is not part of the digest.
func (tx Transfer) Digest() ([]byte, error) {
	return signature.Digest(txData{
		From:  tx.FromID,
		To:    tx.ToID,
		Value: tx.Value,
	})
}

// Validate verifies the transfer carries a signature over its digest that
// was produced by the key behind the from account. Both accounts must be in
// checksum form since balances are keyed by it.
func (tx Transfer) Validate() error {
	if err := checkAccount("to", tx.ToID); err != nil {
		return err
	}

	if err := checkAccount("from", tx.FromID); err != nil {
		return err
	}

	if tx.Value > MaxValue {
		return fmt.Errorf("%w: value %d is above the max of %d", ErrInvalidTransaction, tx.Value, MaxValue)
	}

	digest, err := tx.Digest()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}

	// The public key is recovered from the signature, then the account it
	// maps to must be the account claiming to send the value.
	publicKey, err := signature.RecoverPublicKey(digest, tx.Sig)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}

	if !signature.Verify(digest, tx.Sig, publicKey) {
		return fmt.Errorf("%w: signature does not verify", ErrInvalidTransaction)
	}

	if signer := PublicKeyToAccountID(*publicKey); signer != tx.FromID {
		return fmt.Errorf("%w: signed by %s, not from account %s", ErrInvalidTransaction, signer, tx.FromID)
	}

	return nil
}

// IsValid reports whether Validate passes.
func (tx Transfer) IsValid() bool {
	return tx.Validate() == nil
}

// Recipient returns the account receiving the value.
func (tx Transfer) Recipient() AccountID {
	return tx.ToID
}

// Amount returns the value being moved.
func (tx Transfer) Amount() uint64 {
	return tx.Value
}

// Record returns the transfer as it's recorded inside a block.
func (tx Transfer) Record() BlockTx {
	return BlockTx{
		From:  tx.FromID,
		To:    tx.ToID,
		Value: tx.Value,
		Sig:   signature.SignatureString(tx.Sig),
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Transfer) String() string {
	return fmt.Sprintf("%s->%s:%d", tx.FromID, tx.ToID, tx.Value)
}

func (Transfer) isTx() {}

// =============================================================================

// Mint is system issued value with no sender, such as a mining reward.
// Nobody can forge a mint from an account, so it carries no signature.
type Mint struct {
	ToID  AccountID // Account receiving the newly issued value.
	Value uint64    // Monetary value issued.
}

// NewMint constructs a mint of value to the specified account.
func NewMint(toID AccountID, value uint64) (Mint, error) {
	if toID == "" {
		return Mint{}, fmt.Errorf("%w: to account is required", ErrConstruction)
	}

	to, err := ToAccountID(string(toID))
	if err != nil {
		return Mint{}, fmt.Errorf("%w: to account: %s", ErrConstruction, err)
	}

	if value > MaxValue {
		return Mint{}, fmt.Errorf("%w: value %d is above the max of %d", ErrConstruction, value, MaxValue)
	}

	mint := Mint{
		ToID:  to,
		Value: value,
	}

	return mint, nil
}

// Validate always passes for a mint.
func (Mint) Validate() error {
	return nil
}

// IsValid always reports true for a mint.
func (Mint) IsValid() bool {
	return true
}

// Recipient returns the account receiving the value.
func (m Mint) Recipient() AccountID {
	return m.ToID
}

// Amount returns the value being issued.
func (m Mint) Amount() uint64 {
	return m.Value
}

// Record returns the mint as it's recorded inside a block.
func (m Mint) Record() BlockTx {
	return BlockTx{
		To:    m.ToID,
		Value: m.Value,
	}
}

// String implements the fmt.Stringer interface for logging.
func (m Mint) String() string {
	return fmt.Sprintf("mint->%s:%d", m.ToID, m.Value)
}

func (Mint) isTx() {}

// =============================================================================

// BlockTx represents a transaction as it's recorded inside a block and sent
// over the wire. An empty From marks a mint.
type BlockTx struct {
	From  AccountID `json:"from,omitempty"` // Empty for a mint.
	To    AccountID `json:"to"`
	Value uint64    `json:"value"`
	Sig   string    `json:"sig,omitempty"` // Hex encoded [R|S|V] signature, empty for a mint.
}

// ToTx converts a recorded transaction back into its variant. The signature
// of a transfer is decoded but not verified.
func ToTx(bt BlockTx) (Tx, error) {
	if bt.To == "" {
		return nil, fmt.Errorf("%w: to account is required", ErrInvalidTransaction)
	}

	to, err := ToAccountID(string(bt.To))
	if err != nil {
		return nil, fmt.Errorf("%w: to account: %s", ErrInvalidTransaction, err)
	}

	if bt.Value > MaxValue {
		return nil, fmt.Errorf("%w: value %d is above the max of %d", ErrInvalidTransaction, bt.Value, MaxValue)
	}

	if bt.From == "" {
		return Mint{ToID: to, Value: bt.Value}, nil
	}

	from, err := ToAccountID(string(bt.From))
	if err != nil {
		return nil, fmt.Errorf("%w: from account: %s", ErrInvalidTransaction, err)
	}

	sig, err := signature.ToSignatureBytes(bt.Sig)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %s", ErrInvalidTransaction, err)
	}

	tx := Transfer{
		FromID: from,
		ToID:   to,
		Value:  bt.Value,
		Sig:    sig,
	}

	return tx, nil
}

// checkAccount verifies the account is a well formed address in checksum form.
func checkAccount(field string, accountID AccountID) error {
	id, err := ToAccountID(string(accountID))
	if err != nil {
		return fmt.Errorf("%w: %s account is not properly formatted", ErrInvalidTransaction, field)
	}

	if id != accountID {
		return fmt.Errorf("%w: %s account %s is not in checksum form %s", ErrInvalidTransaction, field, accountID, id)
	}

	return nil
}

// records converts the transactions into their recorded form, keeping
// their order.
func records(trans []Tx) []BlockTx {
	out := make([]BlockTx, len(trans))
	for i, tx := range trans {
		out[i] = tx.Record()
	}
	return out
}
