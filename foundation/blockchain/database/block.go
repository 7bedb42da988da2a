package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// MaxDifficulty is the largest difficulty a hex encoded sha256 hash can
// satisfy. Each extra level multiplies the expected work by 16, so anything
// above single digits will not finish in practice.
const MaxDifficulty = 64

// =============================================================================

// BlockHeader represents the information covered by the block hash besides
// the transactions.
type BlockHeader struct {
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
	TimeStamp     int64  `json:"timestamp"`       // Time the block was constructed in unix milliseconds.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  []Tx
	Hash   string
}

// NewBlock constructs a block with a nonce of zero and its initial hash.
func NewBlock(timeStamp int64, prevBlockHash string, trans []Tx) Block {
	b := Block{
		Header: BlockHeader{
			PrevBlockHash: prevBlockHash,
			TimeStamp:     timeStamp,
			Nonce:         0,
		},
		Trans: append([]Tx(nil), trans...),
	}
	b.Hash = b.CalculateHash()

	return b
}

// CalculateHash returns the hash of the previous hash, timestamp,
// transactions and nonce. Transaction order is part of the hash.
func (b Block) CalculateHash() string {
	prefix, err := hashPrefix(b.Header, b.Trans)
	if err != nil {
		return signature.ZeroHash
	}

	return hashNonce(prefix, b.Header.Nonce)
}

// Mine performs the proof of work for the block, updating the nonce and
// hash once a solution is found. Pointer semantics are being used since a
// nonce is being discovered.
func (b *Block) Mine(ctx context.Context, difficulty uint16, workers int) error {
	nonce, hash, err := FindNonce(ctx, b.Header, b.Trans, difficulty, workers)
	if err != nil {
		return err
	}

	b.Header.Nonce = nonce
	b.Hash = hash

	return nil
}

// ValidateBlock checks the block hash, its proof of work, the link to the
// previous block and the validity of every transaction.
func (b Block) ValidateBlock(prevBlock Block, difficulty uint16) error {
	if hash := b.CalculateHash(); b.Hash != hash {
		return fmt.Errorf("%w: block hash %s does not match contents %s", ErrChainIntegrity, b.Hash, hash)
	}

	if !IsHashSolved(difficulty, b.Hash) {
		return fmt.Errorf("%w: block hash %s does not solve difficulty %d", ErrChainIntegrity, b.Hash, difficulty)
	}

	if b.Header.PrevBlockHash != prevBlock.Hash {
		return fmt.Errorf("%w: parent block hash doesn't match, got %s, exp %s", ErrChainIntegrity, b.Header.PrevBlockHash, prevBlock.Hash)
	}

	if b.Header.TimeStamp < prevBlock.Header.TimeStamp {
		return fmt.Errorf("%w: block timestamp %d is before parent block %d", ErrChainIntegrity, b.Header.TimeStamp, prevBlock.Header.TimeStamp)
	}

	for i, tx := range b.Trans {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("%w: tx[%d]: %s", ErrChainIntegrity, i, err)
		}
	}

	return nil
}

// =============================================================================

// FindNonce searches for a nonce, starting at the header nonce, that makes
// the block hash solve the difficulty. With more than one worker the nonce
// space is split into strided partitions searched in parallel, so the nonce
// found is not necessarily the smallest one. The search is unbounded and only
// stops early when the context is cancelled.
func FindNonce(ctx context.Context, header BlockHeader, trans []Tx, difficulty uint16, workers int) (uint64, string, error) {
	if difficulty > MaxDifficulty {
		return 0, "", fmt.Errorf("%w: %d is greater than %d", ErrDifficulty, difficulty, MaxDifficulty)
	}

	prefix, err := hashPrefix(header, trans)
	if err != nil {
		return 0, "", err
	}

	if workers <= 1 {
		return searchNonce(ctx, prefix, header.Nonce, 1, difficulty)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		nonce uint64
		hash  string
		err   error
	}
	found := make(chan result, workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()

			nonce, hash, err := searchNonce(ctx, prefix, header.Nonce+uint64(i), uint64(workers), difficulty)
			found <- result{nonce: nonce, hash: hash, err: err}
			if err == nil {
				cancel()
			}
		}()
	}

	wg.Wait()
	close(found)

	var firstErr error
	for r := range found {
		if r.err == nil {
			return r.nonce, r.hash, nil
		}
		if firstErr == nil {
			firstErr = r.err
		}
	}

	return 0, "", firstErr
}

// IsHashSolved checks the hash to make sure it complies with the proof of
// work rules. The first difficulty hex characters need to be 0's.
func IsHashSolved(difficulty uint16, hash string) bool {
	if len(hash) != 64 || difficulty > MaxDifficulty {
		return false
	}

	for i := 0; i < int(difficulty); i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}

// =============================================================================

// searchNonce walks the nonce space from start in steps of stride.
func searchNonce(ctx context.Context, prefix []byte, start uint64, stride uint64, difficulty uint16) (uint64, string, error) {
	buf := make([]byte, len(prefix), len(prefix)+20)
	copy(buf, prefix)

	var attempts uint64
	for nonce := start; ; nonce += stride {

		// Check for cancellation every 65536 attempts.
		if attempts&0xFFFF == 0 {
			if err := ctx.Err(); err != nil {
				return 0, "", err
			}
		}
		attempts++

		hash := sha256.Sum256(strconv.AppendUint(buf[:len(prefix)], nonce, 10))
		hexHash := hex.EncodeToString(hash[:])
		if IsHashSolved(difficulty, hexHash) {
			return nonce, hexHash, nil
		}

		if nonce > math.MaxUint64-stride {
			return 0, "", fmt.Errorf("%w: nonce space exhausted", ErrDifficulty)
		}
	}
}

// hashPrefix returns the bytes hashed ahead of the nonce: the previous
// hash, the timestamp and the transactions in their recorded form.
func hashPrefix(header BlockHeader, trans []Tx) ([]byte, error) {
	data, err := json.Marshal(records(trans))
	if err != nil {
		return nil, err
	}

	prefix := make([]byte, 0, len(header.PrevBlockHash)+20+len(data))
	prefix = append(prefix, header.PrevBlockHash...)
	prefix = strconv.AppendInt(prefix, header.TimeStamp, 10)
	prefix = append(prefix, data...)

	return prefix, nil
}

// hashNonce completes the block hash for the specified nonce.
func hashNonce(prefix []byte, nonce uint64) string {
	hash := sha256.Sum256(strconv.AppendUint(prefix, nonce, 10))
	return hex.EncodeToString(hash[:])
}
