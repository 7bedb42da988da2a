package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SubmitTx is what a wallet posts to have a signed transfer added to the
// pending transactions.
type SubmitTx struct {
	From  database.AccountID `json:"from" validate:"required,account"`
	To    database.AccountID `json:"to" validate:"required,account"`
	Value uint64             `json:"value"`
	Sig   string             `json:"sig" validate:"required"`
}

// toBlockTx converts the submitted transfer to its recorded form.
func (st SubmitTx) toBlockTx() database.BlockTx {
	return database.BlockTx{
		From:  st.From,
		To:    st.To,
		Value: st.Value,
		Sig:   st.Sig,
	}
}

// =============================================================================

type tx struct {
	Kind     string             `json:"kind"`
	From     database.AccountID `json:"from,omitempty"`
	FromName string             `json:"from_name,omitempty"`
	To       database.AccountID `json:"to"`
	ToName   string             `json:"to_name"`
	Value    uint64             `json:"value"`
	Sig      string             `json:"sig,omitempty"`
}

func toTx(ns *nameservice.NameService, btx database.BlockTx) tx {
	t := tx{
		Kind:   "mint",
		To:     btx.To,
		ToName: ns.Lookup(btx.To),
		Value:  btx.Value,
	}

	if btx.From != "" {
		t.Kind = "transfer"
		t.From = btx.From
		t.FromName = ns.Lookup(btx.From)
		t.Sig = btx.Sig
	}

	return t
}

func toTxs(ns *nameservice.NameService, trans []database.Tx) []tx {
	out := make([]tx, len(trans))
	for i, tran := range trans {
		out[i] = toTx(ns, tran.Record())
	}
	return out
}

type block struct {
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     int64  `json:"timestamp"`
	Nonce         uint64 `json:"nonce"`
	TxRoot        string `json:"tx_root"`
	Trans         []tx   `json:"trans"`
}

func toBlock(ns *nameservice.NameService, blk database.Block) block {

	// A block always carries at least the mint, so the root only fails to
	// build for a block that never went through the ledger.
	txRoot, _ := blk.TxRoot()

	return block{
		Hash:          blk.Hash,
		PrevBlockHash: blk.Header.PrevBlockHash,
		TimeStamp:     blk.Header.TimeStamp,
		Nonce:         blk.Header.Nonce,
		TxRoot:        txRoot,
		Trans:         toTxs(ns, blk.Trans),
	}
}

func toBlocks(ns *nameservice.NameService, blks []database.Block) []block {
	out := make([]block, len(blks))
	for i, blk := range blks {
		out[i] = toBlock(ns, blk)
	}
	return out
}

type proofStep struct {
	Hash string `json:"hash"`
	Left bool   `json:"left"`
}

type txProof struct {
	Tx     tx          `json:"tx"`
	Index  int         `json:"index"`
	TxRoot string      `json:"tx_root"`
	Steps  []proofStep `json:"steps"`
}

func toTxProof(ns *nameservice.NameService, proof database.TxProof) txProof {
	steps := make([]proofStep, len(proof.Steps))
	for i, step := range proof.Steps {
		steps[i] = proofStep{
			Hash: hexutil.Encode(step.Hash),
			Left: step.Left,
		}
	}

	return txProof{
		Tx:     toTx(ns, proof.Tx),
		Index:  proof.Index,
		TxRoot: proof.TxRoot,
		Steps:  steps,
	}
}

type balance struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance int64              `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type chainStatus struct {
	Valid  bool   `json:"valid"`
	Blocks int    `json:"blocks"`
	Error  string `json:"error,omitempty"`
}
