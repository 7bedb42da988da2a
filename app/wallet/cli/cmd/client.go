package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// nodeClient calls the public api of a ledger node.
type nodeClient struct {
	http *http.Client
}

func newClient(timeout time.Duration) nodeClient {
	return nodeClient{
		http: &http.Client{Timeout: timeout},
	}
}

// submit posts the signed transfer and returns the number of pending
// transactions on the node.
func (c nodeClient) submit(ctx context.Context, url string, tx database.Transfer) (int, error) {
	data, err := json.Marshal(tx.Record())
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/v1/tx/submit", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		Pending int `json:"pending"`
	}
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}

	return resp.Pending, nil
}

// balance returns the balance of the account as of the latest block.
func (c nodeClient) balance(ctx context.Context, url string, accountID database.AccountID) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/balances/list/%s", url, accountID), nil)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Balances []struct {
			Balance int64 `json:"balance"`
		} `json:"balances"`
	}
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}

	if len(resp.Balances) == 0 {
		return 0, nil
	}

	return resp.Balances[0].Balance, nil
}

func (c nodeClient) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var er errs.Response
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
			return fmt.Errorf("node responded with status %d", resp.StatusCode)
		}

		if len(er.Fields) > 0 {
			return fmt.Errorf("node rejected the request: %s: %v", er.Error, er.Fields)
		}
		return errors.New(er.Error)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
