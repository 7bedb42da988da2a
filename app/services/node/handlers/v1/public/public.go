// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/validate"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log           *zap.SugaredLogger
	State         *state.State
	NS            *nameservice.NameService
	WS            websocket.Upgrader
	Evts          *events.Events
	BeneficiaryID database.AccountID
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, open := <-ch:
			if !open {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a signed transfer to the pending transactions.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var submit SubmitTx
	if err := web.Decode(r, &submit); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(submit); err != nil {
		return err
	}

	tran, err := database.ToTx(submit.toBlockTx())
	if err != nil {
		return errs.FromLedger(err)
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "from", submit.From, "to", submit.To, "value", submit.Value)

	if err := h.State.AddTransaction(tran); err != nil {
		return errs.FromLedger(err)
	}

	resp := struct {
		Status  string `json:"status"`
		Pending int    `json:"pending"`
	}{
		Status:  "transaction added to mempool",
		Pending: h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.paramAccount(r)
	if err != nil {
		return err
	}

	trans := []tx{}
	for _, tran := range h.State.RetrieveMempool() {
		if accountID != "" && tran.FromID != accountID && tran.ToID != accountID {
			continue
		}
		trans = append(trans, toTx(h.NS, tran.Record()))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Balances returns the current balances for all accounts or the specified
// account.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.paramAccount(r)
	if err != nil {
		return err
	}

	var sheet map[database.AccountID]int64
	switch accountID {
	case "":
		sheet = h.State.QueryBalances()

	default:
		sheet = map[database.AccountID]int64{
			accountID: h.State.QueryBalance(accountID),
		}
	}

	bals := make([]balance, 0, len(sheet))
	for account, bal := range sheet {
		bals = append(bals, balance{
			Account: account,
			Name:    h.NS.Lookup(account),
			Balance: bal,
		})
	}

	sort.Slice(bals, func(i, j int) bool {
		return bals[i].Account < bals[j].Account
	})

	resp := balances{
		LatestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted: h.State.QueryMempoolLength(),
		Balances:    bals,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByAccount returns all the blocks and their details, or only the
// blocks the specified account has a transaction in.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.paramAccount(r)
	if err != nil {
		return err
	}

	blocks := h.State.QueryBlocksByAccount(accountID)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, toBlocks(h.NS, blocks), http.StatusOK)
}

// BlocksByNumber returns the blocks between the from and to heights. The
// word latest can be used for either height.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := parseHeight(web.Param(r, "from"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("from: %w", err), http.StatusBadRequest)
	}

	to, err := parseHeight(web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("to: %w", err), http.StatusBadRequest)
	}

	if from != state.QueryLatest && from > to {
		return errs.NewTrusted(errors.New("from is greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, toBlocks(h.NS, blocks), http.StatusOK)
}

// TxProof returns the merkle proof that a transaction is recorded in the
// block at the specified height.
func (h Handlers) TxProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := parseHeight(web.Param(r, "number"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("number: %w", err), http.StatusBadRequest)
	}

	index, err := strconv.Atoi(web.Param(r, "index"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("index: %w", err), http.StatusBadRequest)
	}

	proof, err := h.State.QueryTxProof(height, index)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, toTxProof(h.NS, proof), http.StatusOK)
}

// SignalMining asks the mining worker to mine the pending transactions.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errors.New("background mining is not enabled on this node"), http.StatusServiceUnavailable)
	}

	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine mines the pending transactions into a new block, paying the reward
// to the node's beneficiary, and returns the block once it's appended.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.State.MinePendingTransactions(ctx, h.BeneficiaryID)
	if err != nil {
		if ctx.Err() != nil {
			return errs.NewTrusted(err, http.StatusRequestTimeout)
		}
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, blk), http.StatusCreated)
}

// ValidateChain audits the chain from genesis to the latest block.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := chainStatus{
		Valid:  true,
		Blocks: len(h.State.RetrieveChain()),
	}

	if err := h.State.ValidateChain(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// paramAccount returns the account route parameter in checksummed form or
// an empty account when the parameter wasn't provided.
func (h Handlers) paramAccount(r *http.Request) (database.AccountID, error) {
	param := web.Param(r, "account")
	if param == "" {
		return "", nil
	}

	accountID, err := h.NS.Resolve(param)
	if err != nil {
		return "", errs.NewTrusted(err, http.StatusBadRequest)
	}

	return accountID, nil
}

// parseHeight converts a block height parameter.
func parseHeight(param string) (uint64, error) {
	if param == "latest" {
		return state.QueryLatest, nil
	}

	return strconv.ParseUint(param, 10, 64)
}
