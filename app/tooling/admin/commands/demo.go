package commands

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"go.uber.org/zap"
)

// DemoResult holds the accounts, the balances after each block and the
// final chain observed while running the demo.
type DemoResult struct {
	Alice  database.AccountID
	Bob    database.AccountID
	Miner  database.AccountID
	First  map[database.AccountID]int64
	Second map[database.AccountID]int64
	Chain  []database.Block
}

// Demo runs the two user scenario against an in-memory ledger and returns
// the balances it observed. Alice sends one hundred to Bob and Bob sends
// fifty back, the miner mines both transfers, and then mines a block with
// only the reward. The chain is audited at the end.
func Demo(ctx context.Context, log *zap.SugaredLogger, gen genesis.Genesis, workers int) (DemoResult, error) {
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "command", "demo")
	}

	st, err := state.New(state.Config{
		Genesis:       gen,
		MiningWorkers: workers,
		EvHandler:     ev,
	})
	if err != nil {
		return DemoResult{}, err
	}
	defer st.Shutdown()

	alice, err := signature.GenerateKey()
	if err != nil {
		return DemoResult{}, err
	}
	bob, err := signature.GenerateKey()
	if err != nil {
		return DemoResult{}, err
	}
	miner, err := signature.GenerateKey()
	if err != nil {
		return DemoResult{}, err
	}

	res := DemoResult{
		Alice: database.AccountID(alice.Address),
		Bob:   database.AccountID(bob.Address),
		Miner: database.AccountID(miner.Address),
	}

	log.Infow("demo", "status", "accounts", "alice", res.Alice, "bob", res.Bob, "miner", res.Miner)

	transfers := []struct {
		from  database.AccountID
		to    database.AccountID
		value uint64
		kp    signature.KeyPair
	}{
		{from: res.Alice, to: res.Bob, value: 100, kp: alice},
		{from: res.Bob, to: res.Alice, value: 50, kp: bob},
	}

	for _, tr := range transfers {
		tx, err := database.NewTransfer(tr.from, tr.to, tr.value, tr.kp.PrivateKey)
		if err != nil {
			return DemoResult{}, fmt.Errorf("signing transfer: %w", err)
		}

		if err := st.AddTransaction(tx); err != nil {
			return DemoResult{}, fmt.Errorf("adding transfer: %w", err)
		}

		log.Infow("demo", "status", "transfer pending", "tx", tx.String())
	}

	if _, err := st.MinePendingTransactions(ctx, res.Miner); err != nil {
		return DemoResult{}, fmt.Errorf("mining transfers: %w", err)
	}

	res.First = balancesOf(st, res)
	logBalances(log, "after first block", res, res.First)

	if _, err := st.MinePendingTransactions(ctx, res.Miner); err != nil {
		return DemoResult{}, fmt.Errorf("mining empty block: %w", err)
	}

	res.Second = balancesOf(st, res)
	logBalances(log, "after second block", res, res.Second)

	if err := st.ValidateChain(); err != nil {
		return DemoResult{}, fmt.Errorf("auditing chain: %w", err)
	}

	res.Chain = st.RetrieveChain()
	log.Infow("demo", "status", "chain valid", "blocks", len(res.Chain))

	return res, nil
}

func balancesOf(st *state.State, res DemoResult) map[database.AccountID]int64 {
	return map[database.AccountID]int64{
		res.Alice: st.QueryBalance(res.Alice),
		res.Bob:   st.QueryBalance(res.Bob),
		res.Miner: st.QueryBalance(res.Miner),
	}
}

func logBalances(log *zap.SugaredLogger, status string, res DemoResult, bals map[database.AccountID]int64) {
	log.Infow("demo", "status", status, "alice", bals[res.Alice], "bob", bals[res.Bob], "miner", bals[res.Miner])
}
