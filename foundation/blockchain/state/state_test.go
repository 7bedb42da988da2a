package state_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"go.uber.org/zap/zaptest"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newState(t *testing.T, difficulty uint16, reward uint64) *state.State {
	t.Helper()

	log := zaptest.NewLogger(t).Sugar()

	st, err := state.New(state.Config{
		Genesis:       genesis.New(difficulty, reward),
		MiningWorkers: 2,
		EvHandler: func(v string, args ...any) {
			log.Infof(v, args...)
		},
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	return st
}

func newKey(t *testing.T) signature.KeyPair {
	t.Helper()

	kp, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	return kp
}

// lower returns the account in lowercase with its 0x prefix.
func lower(accountID database.AccountID) database.AccountID {
	return database.AccountID(strings.ToLower(string(accountID)))
}

// signTransfer signs a transfer built by hand, so the accounts and value
// are used exactly as given.
func signTransfer(t *testing.T, kp signature.KeyPair, from, to database.AccountID, value uint64) database.Transfer {
	t.Helper()

	tx := database.Transfer{FromID: from, ToID: to, Value: value}

	digest, err := tx.Digest()
	if err != nil {
		t.Fatalf("Should be able to get the digest: %s", err)
	}

	if tx.Sig, err = signature.Sign(digest, kp.PrivateKey); err != nil {
		t.Fatalf("Should be able to sign the digest: %s", err)
	}

	return tx
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	st := newState(t, 2, 50)

	chain := st.RetrieveChain()
	if len(chain) != 1 {
		t.Fatalf("Should have only the genesis block, got %d blocks.", len(chain))
	}

	gen := chain[0]
	if gen.Header.PrevBlockHash != signature.ZeroHash {
		t.Fatalf("Should link the genesis block to the zero hash: %s", gen.Header.PrevBlockHash)
	}

	if gen.Hash != gen.CalculateHash() {
		t.Fatalf("Should have the genesis hash match its contents.")
	}

	if len(gen.Trans) != 1 {
		t.Fatalf("Should have a single genesis transaction, got %d.", len(gen.Trans))
	}

	mint, ok := gen.Trans[0].(database.Mint)
	if !ok || mint.ToID != database.GenesisAccountID || mint.Value != 0 {
		t.Fatalf("Should have a zero value mint to the genesis account: %v", gen.Trans[0])
	}

	if gen.Header.TimeStamp != st.RetrieveGenesis().Date.UnixMilli() {
		t.Fatalf("Should stamp the genesis block with the genesis date.")
	}

	if st.RetrieveLatestBlock().Hash != gen.Hash {
		t.Fatalf("Should have genesis as the latest block.")
	}

	if !st.IsChainValid() {
		t.Fatalf("Should have a valid chain: %v", st.ValidateChain())
	}

	if other := newState(t, 2, 50); other.RetrieveLatestBlock().Hash != gen.Hash {
		t.Fatalf("Should get the same genesis block for the same parameters.")
	}

	if _, err := state.New(state.Config{Genesis: genesis.New(0, 50)}); err == nil {
		t.Fatalf("Should not construct a ledger with no difficulty.")
	}

	if _, err := state.New(state.Config{Genesis: genesis.New(1, math.MaxUint64)}); err == nil {
		t.Fatalf("Should not construct a ledger with a reward that can't fit a balance.")
	}

	if _, err := state.New(state.Config{Genesis: genesis.New(65, 50)}); err == nil {
		t.Fatalf("Should not construct a ledger with a difficulty above 64.")
	}
}

func Test_TransferAndMine(t *testing.T) {
	st := newState(t, 2, 50)

	alice := newKey(t)
	bob := newKey(t)
	miner := newKey(t)

	aliceID := database.AccountID(alice.Address)
	bobID := database.AccountID(bob.Address)
	minerID := database.AccountID(miner.Address)

	t.Log("Given the need to transfer value and mine it into a block.")
	{
		t.Logf("\tTest 0:\tWhen alice sends bob 50.")
		{
			tx, err := database.NewTransfer(aliceID, bobID, 50, alice.PrivateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the transfer: %v", failed, err)
			}

			if err := st.AddTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add the transfer: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add the transfer.", success)

			if n := st.QueryMempoolLength(); n != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have 1 pending transfer, got %d.", failed, n)
			}

			if bal := st.QueryBalance(bobID); bal != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould not count pending transfers, got %d.", failed, bal)
			}
			t.Logf("\t%s\tTest 0:\tShould not count pending transfers.", success)

			block, err := st.MinePendingTransactions(context.Background(), minerID)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine the block.", success)

			if !database.IsHashSolved(2, block.Hash) {
				t.Fatalf("\t%s\tTest 0:\tShould have a hash with 2 leading zeros: %s", failed, block.Hash)
			}

			if len(block.Trans) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have the transfer and the reward, got %d.", failed, len(block.Trans))
			}

			if reward, ok := block.Trans[1].(database.Mint); !ok || reward.ToID != minerID || reward.Value != 50 {
				t.Fatalf("\t%s\tTest 0:\tShould end the block with the reward: %v", failed, block.Trans[1])
			}
			t.Logf("\t%s\tTest 0:\tShould end the block with the reward.", success)

			if n := st.QueryMempoolLength(); n != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould clear the mined transfers, got %d.", failed, n)
			}

			exp := map[database.AccountID]int64{minerID: 50, aliceID: -50, bobID: 50}
			for id, bal := range exp {
				if got := st.QueryBalance(id); got != bal {
					t.Fatalf("\t%s\tTest 0:\tShould have a balance of %d for %s, got %d.", failed, bal, id, got)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould have the right balances.", success)
		}

		t.Logf("\tTest 1:\tWhen the miner mines an empty mempool.")
		{
			block, err := st.MinePendingTransactions(context.Background(), minerID)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mine the block: %v", failed, err)
			}

			if len(block.Trans) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould have only the reward, got %d.", failed, len(block.Trans))
			}
			t.Logf("\t%s\tTest 1:\tShould have only the reward.", success)

			if bal := st.QueryBalance(minerID); bal != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould have a miner balance of 100, got %d.", failed, bal)
			}
			t.Logf("\t%s\tTest 1:\tShould have a miner balance of 100.", success)

			if bal := st.QueryBalance(lower(minerID)); bal != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould match the account in any case, got %d.", failed, bal)
			}
		}

		t.Logf("\tTest 2:\tWhen the chain is audited.")
		{
			chain := st.RetrieveChain()
			if len(chain) != 3 {
				t.Fatalf("\t%s\tTest 2:\tShould have 3 blocks, got %d.", failed, len(chain))
			}

			for i := 1; i < len(chain); i++ {
				if chain[i].Header.PrevBlockHash != chain[i-1].Hash {
					t.Fatalf("\t%s\tTest 2:\tShould link block %d to block %d.", failed, i, i-1)
				}
			}
			t.Logf("\t%s\tTest 2:\tShould link every block to its parent.", success)

			if err := st.ValidateChain(); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould have a valid chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould have a valid chain.", success)

			var total int64
			for _, bal := range st.QueryBalances() {
				total += bal
			}
			if total != 100 {
				t.Fatalf("\t%s\tTest 2:\tShould have balances summing to the minted value, got %d.", failed, total)
			}
			t.Logf("\t%s\tTest 2:\tShould have balances summing to the minted value.", success)

			if blocks := st.QueryBlocksByAccount(bobID); len(blocks) != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould find one block for bob, got %d.", failed, len(blocks))
			}

			if blocks := st.QueryBlocksByAccount(minerID); len(blocks) != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould find two blocks for the miner, got %d.", failed, len(blocks))
			}

			if blocks := st.QueryBlocksByNumber(state.QueryLatest, state.QueryLatest); len(blocks) != 1 || blocks[0].Hash != chain[2].Hash {
				t.Fatalf("\t%s\tTest 2:\tShould get back the latest block.", failed)
			}

			if blocks := st.QueryBlocksByNumber(0, state.QueryLatest); len(blocks) != 3 {
				t.Fatalf("\t%s\tTest 2:\tShould get back every block, got %d.", failed, len(blocks))
			}

			proof, err := st.QueryTxProof(1, 0)
			if err != nil || !proof.Verify() || proof.Tx.From != aliceID {
				t.Fatalf("\t%s\tTest 2:\tShould be able to prove the transfer is in block 1: %v", failed, err)
			}

			if _, err := st.QueryTxProof(1, 2); !errors.Is(err, state.ErrNotFound) {
				t.Fatalf("\t%s\tTest 2:\tShould not find a tx past the end of the block, got %v.", failed, err)
			}

			if _, err := st.QueryTxProof(9, 0); !errors.Is(err, state.ErrNotFound) {
				t.Fatalf("\t%s\tTest 2:\tShould not find a block past the latest, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould be able to prove a transaction is in a block.", success)
		}
	}
}

func Test_Rejection(t *testing.T) {
	st := newState(t, 1, 50)

	alice := newKey(t)
	bob := newKey(t)

	aliceID := database.AccountID(alice.Address)
	bobID := database.AccountID(bob.Address)

	mint, err := database.NewMint(bobID, 1000)
	if err != nil {
		t.Fatalf("Should be able to construct a mint: %s", err)
	}

	forged, err := database.NewTransfer(aliceID, bobID, 50, bob.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to construct a transfer with the wrong key: %s", err)
	}

	tampered, err := database.NewTransfer(aliceID, bobID, 50, alice.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign the transfer: %s", err)
	}
	tampered.Value = 5000

	type table struct {
		name string
		tx   database.Tx
	}

	tt := []table{
		{name: "mint", tx: mint},
		{name: "wrong key", tx: forged},
		{name: "tampered", tx: tampered},
		{name: "unsigned", tx: database.Transfer{FromID: aliceID, ToID: bobID, Value: 10}},
		{name: "no to", tx: database.Transfer{FromID: aliceID, Value: 10, Sig: tampered.Sig}},
		{name: "lowercase accounts", tx: signTransfer(t, alice, lower(aliceID), lower(bobID), 10)},
		{name: "lowercase to", tx: signTransfer(t, alice, aliceID, lower(bobID), 10)},
		{name: "above max value", tx: signTransfer(t, alice, aliceID, bobID, database.MaxValue+1)},
		{name: "max uint64 value", tx: signTransfer(t, alice, aliceID, bobID, math.MaxUint64)},
		{name: "nil", tx: nil},
	}

	t.Log("Given the need to reject transactions that can't be added.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, tst.name)
			{
				f := func(t *testing.T) {
					if err := st.AddTransaction(tst.tx); !errors.Is(err, database.ErrInvalidTransaction) {
						t.Fatalf("\t%s\tTest %d:\tShould get an invalid transaction error: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get an invalid transaction error.", success, testID)

					if n := st.QueryMempoolLength(); n != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould leave the mempool unchanged, got %d.", failed, testID, n)
					}
					t.Logf("\t%s\tTest %d:\tShould leave the mempool unchanged.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_MaxValue(t *testing.T) {
	st := newState(t, 1, 50)

	alice := newKey(t)
	bob := newKey(t)
	miner := newKey(t)

	aliceID := database.AccountID(alice.Address)
	bobID := database.AccountID(bob.Address)

	t.Log("Given the need to move the largest value a balance can hold.")
	{
		tx, err := database.NewTransfer(aliceID, bobID, database.MaxValue, alice.PrivateKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transfer: %v", failed, err)
		}

		if err := st.AddTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould be able to add the transfer: %v", failed, err)
		}

		if _, err := st.MinePendingTransactions(context.Background(), database.AccountID(miner.Address)); err != nil {
			t.Fatalf("\t%s\tShould be able to mine the transfer: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to add and mine the transfer.", success)

		if bal := st.QueryBalance(aliceID); bal != -math.MaxInt64 {
			t.Fatalf("\t%s\tShould debit the sender, got %d.", failed, bal)
		}

		if bal := st.QueryBalance(bobID); bal != math.MaxInt64 {
			t.Fatalf("\t%s\tShould credit the recipient, got %d.", failed, bal)
		}
		t.Logf("\t%s\tShould debit the sender and credit the recipient.", success)
	}
}

func Test_Shutdown(t *testing.T) {
	st := newState(t, 1, 50)

	alice := newKey(t)
	bob := newKey(t)

	tx, err := database.NewTransfer(database.AccountID(alice.Address), database.AccountID(bob.Address), 10, alice.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign the transfer: %s", err)
	}

	if err := st.AddTransaction(tx); err != nil {
		t.Fatalf("Should be able to add the transfer: %s", err)
	}

	if err := st.Shutdown(); err != nil {
		t.Fatalf("Should be able to shut down the ledger: %s", err)
	}

	if n := st.QueryMempoolLength(); n != 0 {
		t.Fatalf("Should discard the pending transfers on shutdown, got %d.", n)
	}

	if !st.IsChainValid() || len(st.RetrieveChain()) != 1 {
		t.Fatalf("Should leave the chain untouched on shutdown.")
	}
}

func Test_MiningFailures(t *testing.T) {
	st := newState(t, 6, 50)

	alice := newKey(t)
	bob := newKey(t)

	tx, err := database.NewTransfer(database.AccountID(alice.Address), database.AccountID(bob.Address), 10, alice.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign the transfer: %s", err)
	}

	if err := st.AddTransaction(tx); err != nil {
		t.Fatalf("Should be able to add the transfer: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := st.MinePendingTransactions(ctx, database.AccountID(bob.Address)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Should stop mining when cancelled: %v", err)
	}

	if _, err := st.MinePendingTransactions(context.Background(), "bill"); !errors.Is(err, database.ErrConstruction) {
		t.Fatalf("Should not mine to a malformed beneficiary: %v", err)
	}

	if n := len(st.RetrieveChain()); n != 1 {
		t.Fatalf("Should leave the chain unchanged, got %d blocks.", n)
	}

	if n := st.QueryMempoolLength(); n != 1 {
		t.Fatalf("Should leave the mempool unchanged, got %d.", n)
	}
}

func Test_Tampering(t *testing.T) {
	st := newState(t, 1, 50)

	alice := newKey(t)
	bob := newKey(t)
	aliceID := database.AccountID(alice.Address)
	bobID := database.AccountID(bob.Address)

	for i := 0; i < 2; i++ {
		tx, err := database.NewTransfer(aliceID, bobID, 10, alice.PrivateKey)
		if err != nil {
			t.Fatalf("Should be able to sign the transfer: %s", err)
		}
		if err := st.AddTransaction(tx); err != nil {
			t.Fatalf("Should be able to add the transfer: %s", err)
		}
		if _, err := st.MinePendingTransactions(context.Background(), bobID); err != nil {
			t.Fatalf("Should be able to mine the block: %s", err)
		}
	}

	gen := st.RetrieveGenesis()

	if err := state.ValidateBlocks(gen, st.RetrieveChain()); err != nil {
		t.Fatalf("Should have a valid chain: %s", err)
	}

	type table struct {
		name   string
		tamper func(chain []database.Block)
	}

	tt := []table{
		{
			name: "value",
			tamper: func(chain []database.Block) {
				tx := chain[1].Trans[0].(database.Transfer)
				tx.Value = 1000
				chain[1].Trans[0] = tx
			},
		},
		{
			name: "rehashed value",
			tamper: func(chain []database.Block) {
				tx := chain[1].Trans[0].(database.Transfer)
				tx.Value = 1000
				chain[1].Trans[0] = tx
				chain[1].Hash = chain[1].CalculateHash()
			},
		},
		{
			name: "reward",
			tamper: func(chain []database.Block) {
				chain[2].Trans[1] = database.Mint{ToID: bobID, Value: 5000}
				chain[2].Hash = chain[2].CalculateHash()
			},
		},
		{
			name: "link",
			tamper: func(chain []database.Block) {
				chain[2].Header.PrevBlockHash = signature.ZeroHash
			},
		},
		{
			name: "genesis",
			tamper: func(chain []database.Block) {
				chain[0].Trans[0] = database.Mint{ToID: bobID, Value: 1000}
				chain[0].Hash = chain[0].CalculateHash()
			},
		},
	}

	t.Log("Given the need to detect a tampered chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the %s is tampered with.", testID, tst.name)
			{
				f := func(t *testing.T) {
					chain := st.RetrieveChain()
					tst.tamper(chain)

					if err := state.ValidateBlocks(gen, chain); !errors.Is(err, database.ErrChainIntegrity) {
						t.Fatalf("\t%s\tTest %d:\tShould detect the tampering: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould detect the tampering.", success, testID)

					if !st.IsChainValid() {
						t.Fatalf("\t%s\tTest %d:\tShould not change the ledger through a retrieved chain.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not change the ledger through a retrieved chain.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_ConcurrentAdds(t *testing.T) {
	st := newState(t, 2, 50)

	alice := newKey(t)
	bob := newKey(t)
	aliceID := database.AccountID(alice.Address)
	bobID := database.AccountID(bob.Address)

	const trans = 20

	var wg sync.WaitGroup
	wg.Add(trans + 1)

	for i := 0; i < trans; i++ {
		go func() {
			defer wg.Done()

			tx, err := database.NewTransfer(aliceID, bobID, 1, alice.PrivateKey)
			if err != nil {
				t.Errorf("Should be able to sign the transfer: %s", err)
				return
			}
			if err := st.AddTransaction(tx); err != nil {
				t.Errorf("Should be able to add the transfer: %s", err)
			}
		}()
	}

	go func() {
		defer wg.Done()

		if _, err := st.MinePendingTransactions(context.Background(), bobID); err != nil {
			t.Errorf("Should be able to mine the block: %s", err)
		}
	}()

	wg.Wait()

	if _, err := st.MinePendingTransactions(context.Background(), bobID); err != nil {
		t.Fatalf("Should be able to mine the block: %s", err)
	}

	if n := st.QueryMempoolLength(); n != 0 {
		t.Fatalf("Should have mined every transfer, got %d pending.", n)
	}

	if bal := st.QueryBalance(aliceID); bal != -trans {
		t.Fatalf("Should have every transfer applied once, got %d.", bal)
	}

	if !st.IsChainValid() {
		t.Fatalf("Should have a valid chain: %v", st.ValidateChain())
	}
}
