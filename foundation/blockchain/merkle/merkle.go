// Package merkle builds a binary merkle tree over the transactions of a block
// so a single transaction can be proven to belong to it.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNoLeaves is returned when a tree is constructed without any data.
var ErrNoLeaves = errors.New("merkle: cannot construct tree with no leaves")

// Prefixes keep a leaf hash from ever colliding with an inner node hash.
const (
	leafPrefix byte = 0x00
	nodePrefix byte = 0x01
)

// Tree represents a merkle tree stored level by level. The first level holds
// the leaf hashes and the last level holds only the root. A node without a
// sibling is paired with itself.
type Tree struct {
	levels [][][]byte
}

// New constructs a tree from the serialized leaves, keeping their order.
func New(leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}

	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = hashLeaf(leaf)
	}

	levels := [][][]byte{level}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			j := i + 1
			if j == len(level) {
				j = i
			}
			next = append(next, hashNodes(level[i], level[j]))
		}

		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels}, nil
}

// Len returns the number of leaves in the tree.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Root returns the merkle root.
func (t *Tree) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex returns the merkle root as a 0x prefixed hex string.
func (t *Tree) RootHex() string {
	return hexutil.Encode(t.Root())
}

// =============================================================================

// Step is one sibling hash on the path from a leaf to the root.
type Step struct {
	Hash []byte `json:"hash"`
	Left bool   `json:"left"` // The sibling sits to the left of the path.
}

// String implements the fmt.Stringer interface for logging.
func (s Step) String() string {
	side := "right"
	if s.Left {
		side = "left"
	}
	return fmt.Sprintf("%s:%s", side, hexutil.Encode(s.Hash))
}

// Proof returns the sibling hashes needed to rebuild the root from the leaf
// at the specified index.
func (t *Tree) Proof(index int) ([]Step, error) {
	if index < 0 || index >= t.Len() {
		return nil, fmt.Errorf("merkle: leaf index %d out of range [0,%d)", index, t.Len())
	}

	proof := make([]Step, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling >= len(level) {
			sibling = index
		}

		proof = append(proof, Step{Hash: level[sibling], Left: sibling < index})
		index /= 2
	}

	return proof, nil
}

// Verify reports whether the leaf and proof rebuild the specified root.
func Verify(leaf []byte, proof []Step, root []byte) bool {
	hash := hashLeaf(leaf)
	for _, step := range proof {
		switch step.Left {
		case true:
			hash = hashNodes(step.Hash, hash)
		default:
			hash = hashNodes(hash, step.Hash)
		}
	}

	return bytes.Equal(hash, root)
}

// =============================================================================

func hashLeaf(data []byte) []byte {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(data)
	return h.Sum(nil)
}

func hashNodes(left []byte, right []byte) []byte {
	h := sha256.New()
	h.Write([]byte{nodePrefix})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
