package worker_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"go.uber.org/zap/zaptest"
)

func Test_MineOnSignal(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	ev := func(v string, args ...any) {
		log.Infof(v, args...)
	}

	st, err := state.New(state.Config{
		Genesis:   genesis.New(1, 50),
		EvHandler: ev,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	sender, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	miner, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}
	minerID := database.AccountID(miner.Address)

	worker.Run(st, minerID, ev)
	defer st.Shutdown()

	tx, err := database.NewTransfer(database.AccountID(sender.Address), minerID, 10, sender.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign the transfer: %s", err)
	}

	if err := st.AddTransaction(tx); err != nil {
		t.Fatalf("Should be able to add the transfer: %s", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for st.QueryMempoolLength() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Should mine the pending transfer in the background.")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if bal := st.QueryBalance(minerID); bal != 60 {
		t.Fatalf("Should pay the transfer and the reward to the miner, got %d.", bal)
	}

	if !st.IsChainValid() {
		t.Fatalf("Should have a valid chain: %v", st.ValidateChain())
	}
}

func Test_ShutdownCancelsMining(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	ev := func(v string, args ...any) {
		log.Infof(v, args...)
	}

	// A difficulty this high won't be solved before the shutdown.
	st, err := state.New(state.Config{
		Genesis:   genesis.New(10, 50),
		EvHandler: ev,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	sender, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	miner, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}
	minerID := database.AccountID(miner.Address)

	worker.Run(st, minerID, ev)

	tx, err := database.NewTransfer(database.AccountID(sender.Address), minerID, 10, sender.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign the transfer: %s", err)
	}

	if err := st.AddTransaction(tx); err != nil {
		t.Fatalf("Should be able to add the transfer: %s", err)
	}

	// Give the worker a moment to start the proof of work.
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		st.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("Should stop the proof of work on shutdown.")
	}

	if n := len(st.RetrieveChain()); n != 1 {
		t.Fatalf("Should not append a block once mining is cancelled, got %d blocks.", n)
	}

	if n := st.QueryMempoolLength(); n != 0 {
		t.Fatalf("Should discard the pending transfer on shutdown, got %d.", n)
	}
}
