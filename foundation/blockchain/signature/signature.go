// Package signature provides helper functions for handling the ledger
// signature and hashing needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is used as the parent hash
// of the genesis block since that block has no predecessor.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// ledgerID is an arbitrary number added to the recovery id of a signature.
// It makes it clear the signature was produced for this ledger. Ethereum and
// Bitcoin do this as well, but they use the value of 27.
const ledgerID = 29

// ErrInvalidSignature is returned when a signature is not in the expected
// [R|S|V] format for this ledger.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// KeyPair represents a private key with the public key and address that are
// derived from it.
type KeyPair struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  *ecdsa.PublicKey
	Address    string
}

// GenerateKey constructs a new secp256k1 key pair.
func GenerateKey() (KeyPair, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return KeyPair{}, err
	}

	return NewKeyPair(privateKey), nil
}

// NewKeyPair derives the public key and address for the private key.
func NewKeyPair(privateKey *ecdsa.PrivateKey) KeyPair {
	return KeyPair{
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
		Address:    Address(&privateKey.PublicKey),
	}
}

// Address returns the checksummed hex address for the public key.
func Address(publicKey *ecdsa.PublicKey) string {
	return crypto.PubkeyToAddress(*publicKey).Hex()
}

// =============================================================================

// Digest returns the sha256 of the JSON encoding of the value.
func Digest(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// Hash returns a unique hex string for the value.
func Hash(value any) string {
	digest, err := Digest(value)
	if err != nil {
		return ZeroHash
	}

	return hex.EncodeToString(digest)
}

// =============================================================================

// Sign uses the specified private key to sign the digest. The signature is
// returned as 65 bytes in the [R|S|V] format with the ledger id added to V.
func Sign(digest []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is required")
	}

	data := stamp(digest)

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, err
	}
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return nil, ErrInvalidSignature
	}

	sig[crypto.RecoveryIDOffset] += ledgerID

	return sig, nil
}

// Verify reports whether the signature was produced over the digest by the
// private key belonging to the public key. It never panics on malformed input.
func Verify(digest []byte, sig []byte, publicKey *ecdsa.PublicKey) bool {
	if publicKey == nil || publicKey.X == nil || publicKey.Y == nil {
		return false
	}

	if err := checkSignature(sig); err != nil {
		return false
	}

	return crypto.VerifySignature(crypto.FromECDSAPub(publicKey), stamp(digest), sig[:crypto.RecoveryIDOffset])
}

// RecoverPublicKey extracts the public key that produced the signature over
// the digest.
func RecoverPublicKey(digest []byte, sig []byte) (*ecdsa.PublicKey, error) {
	if err := checkSignature(sig); err != nil {
		return nil, err
	}

	// Remove the ledger id so the signature is what the curve expects.
	raw := make([]byte, crypto.SignatureLength)
	copy(raw, sig)
	raw[crypto.RecoveryIDOffset] -= ledgerID

	return crypto.SigToPub(stamp(digest), raw)
}

// SignatureString returns the signature as a hex string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// ToSignatureBytes converts a hex string back into signature bytes.
func ToSignatureBytes(sigStr string) ([]byte, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, err
	}

	if err := checkSignature(sig); err != nil {
		return nil, err
	}

	return sig, nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the digest with the
// ledger stamp embedded into the final hash.
func stamp(digest []byte) []byte {

	// Hash the digest into a 32 byte array. This provides a data length
	// consistency regardless of the digest size.
	txHash := crypto.Keccak256(digest)

	// The stamp keeps signatures produced here unique to this ledger.
	stamp := []byte("\x19Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash)
}

// checkSignature validates the length and recovery id of the signature.
func checkSignature(sig []byte) error {
	if len(sig) != crypto.SignatureLength {
		return ErrInvalidSignature
	}

	v := sig[crypto.RecoveryIDOffset]
	if v != ledgerID && v != ledgerID+1 {
		return errors.New("invalid recovery id")
	}

	return nil
}
