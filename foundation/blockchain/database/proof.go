package database

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxProof proves that a transaction is recorded in a block.
type TxProof struct {
	Tx     BlockTx       `json:"tx"`
	Index  int           `json:"index"`
	TxRoot string        `json:"tx_root"`
	Steps  []merkle.Step `json:"steps"`
}

// Verify reports whether the proof rebuilds its transaction root.
func (p TxProof) Verify() bool {
	leaf, err := json.Marshal(p.Tx)
	if err != nil {
		return false
	}

	root, err := hexutil.Decode(p.TxRoot)
	if err != nil {
		return false
	}

	return merkle.Verify(leaf, p.Steps, root)
}

// TxRoot returns the merkle root over the block's transactions in their
// recorded form.
func (b Block) TxRoot() (string, error) {
	tree, err := b.txTree()
	if err != nil {
		return "", err
	}

	return tree.RootHex(), nil
}

// TxProof returns the proof for the transaction at the specified index.
func (b Block) TxProof(index int) (TxProof, error) {
	tree, err := b.txTree()
	if err != nil {
		return TxProof{}, err
	}

	steps, err := tree.Proof(index)
	if err != nil {
		return TxProof{}, err
	}

	proof := TxProof{
		Tx:     b.Trans[index].Record(),
		Index:  index,
		TxRoot: tree.RootHex(),
		Steps:  steps,
	}

	return proof, nil
}

func (b Block) txTree() (*merkle.Tree, error) {
	leaves := make([][]byte, len(b.Trans))
	for i, tx := range b.Trans {
		data, err := json.Marshal(tx.Record())
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
		leaves[i] = data
	}

	return merkle.New(leaves)
}
