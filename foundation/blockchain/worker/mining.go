package worker

import (
	"context"
	"errors"
	"time"
)

// mineLoop waits for mining signals until the worker is shut down.
func (w *Worker) mineLoop() {
	w.evHandler("worker: mineLoop: G started")
	defer w.evHandler("worker: mineLoop: G completed")

	for {
		select {
		case <-w.startMining:
			if w.isShutdown() {
				continue
			}
			w.mineBlock()

		case <-w.shut:
			w.evHandler("worker: mineLoop: received shut signal")
			return
		}
	}
}

// mineBlock seals the transfers pending right now into one block that ends
// with the reward paid to the beneficiary. Transfers accepted while the
// proof of work runs stay pending and cause another round to be signaled.
func (w *Worker) mineBlock() {
	pending := w.state.QueryMempoolLength()
	if pending == 0 {
		w.evHandler("worker: mineBlock: nothing pending, no block mined")
		return
	}

	w.evHandler("worker: mineBlock: MINING: started: Txs[%d]", pending)
	defer w.evHandler("worker: mineBlock: MINING: completed")

	// A cancel left over from a previous round must not stop this one.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: mineBlock: MINING: dropped stale cancel")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	waitWatcher := w.watchCancel(ctx, cancel)

	start := time.Now()
	block, err := w.state.MinePendingTransactions(ctx, w.beneficiaryID)
	elapsed := time.Since(start)

	cancel()
	waitWatcher()

	switch {
	case errors.Is(err, context.Canceled):
		w.evHandler("worker: mineBlock: MINING: CANCEL: abandoned after %v, transfers stay pending", elapsed)
		return

	case err != nil:
		w.evHandler("worker: mineBlock: MINING: ERROR: %s", err)
		return
	}

	w.evHandler("worker: mineBlock: MINING: block[%s] trans[%d] reward[%s] took[%v]", block.Hash, len(block.Trans), w.beneficiaryID, elapsed)

	if left := w.state.QueryMempoolLength(); left > 0 && !w.isShutdown() {
		w.evHandler("worker: mineBlock: transfers arrived while mining: Txs[%d]", left)
		w.SignalStartMining()
	}
}

// watchCancel stops the proof of work when a cancel or shutdown signal
// arrives. The returned function blocks until the watcher has exited.
func (w *Worker) watchCancel(ctx context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})

	go func() {
		defer close(done)

		select {
		case <-w.cancelMining:
			w.evHandler("worker: watchCancel: MINING: CANCEL: requested")
			cancel()
		case <-w.shut:
			w.evHandler("worker: watchCancel: MINING: CANCEL: shutdown")
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() { <-done }
}
