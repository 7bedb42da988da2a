package balance_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/balance"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	to       = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	miner    = database.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
)

func TestReplay(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}
	from := database.PublicKeyToAccountID(pk.PublicKey)

	type tx struct {
		transfer bool
		value    uint64
		to       database.AccountID
	}

	type table struct {
		name   string
		blocks [][]tx
		final  map[database.AccountID]int64
	}

	tt := []table{
		{
			name: "basic",
			blocks: [][]tx{
				{{transfer: false, value: 50, to: miner}},
				{{transfer: true, value: 100, to: to}, {transfer: true, value: 20, to: miner}, {transfer: false, value: 50, to: miner}},
			},
			final: map[database.AccountID]int64{
				from:  -120,
				to:    100,
				miner: 120,
			},
		},
	}

	t.Log("Given the need to replay the chain into balances.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of blocks.", testID)
			{
				f := func(t *testing.T) {
					var blocks []database.Block
					var minted int64

					for _, blkTxs := range tst.blocks {
						var trans []database.Tx
						for _, btx := range blkTxs {
							if btx.transfer {
								transfer, err := database.NewTransfer(from, btx.to, btx.value, pk)
								if err != nil {
									t.Fatalf("\t%s\tTest %d:\tShould be able to sign transfer: %v", failed, testID, err)
								}
								trans = append(trans, transfer)
								continue
							}

							mint, err := database.NewMint(btx.to, btx.value)
							if err != nil {
								t.Fatalf("\t%s\tTest %d:\tShould be able to construct mint: %v", failed, testID, err)
							}
							trans = append(trans, mint)
							minted += int64(btx.value)
						}
						blocks = append(blocks, database.NewBlock(0, signature.ZeroHash, trans))
					}

					sheet := balance.Replay(blocks)

					for accountID, exp := range tst.final {
						id, _ := database.ToAccountID(string(accountID))
						if got := sheet.Balance(id); got != exp {
							t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, got)
							t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, exp)
							t.Fatalf("\t%s\tTest %d:\tShould get back the right balance for %s.", failed, testID, accountID)
						}
						t.Logf("\t%s\tTest %d:\tShould get back the right balance for %s.", success, testID, accountID)
					}

					if total := sheet.Total(); total != minted {
						t.Fatalf("\t%s\tTest %d:\tShould have a total equal to the minted value, got %d, exp %d.", failed, testID, total, minted)
					}
					t.Logf("\t%s\tTest %d:\tShould have a total equal to the minted value.", success, testID)

					if got := sheet.Balance("0x0000000000000000000000000000000000000001"); got != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould get zero for an unknown account.", failed, testID)
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}
