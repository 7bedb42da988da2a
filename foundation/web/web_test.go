package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/web"
)

func TestHandle(t *testing.T) {
	var order []string

	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	shutdown := make(chan os.Signal, 1)
	app := web.NewApp(shutdown, mw("app"))

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil {
			return err
		}

		resp := struct {
			Account string `json:"account"`
			TraceID string `json:"trace_id"`
		}{
			Account: web.Param(r, "account"),
			TraceID: v.TraceID,
		}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
	app.Handle(http.MethodGet, "v1", "/balances/list/:account", h, mw("route"))

	r := httptest.NewRequest(http.MethodGet, "/v1/balances/list/kennedy", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Should receive a status code of 200, got %d.", w.Code)
	}

	var got struct {
		Account string `json:"account"`
		TraceID string `json:"trace_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Should be able to decode the response: %s", err)
	}

	if got.Account != "kennedy" {
		t.Fatalf("Should get back the route parameter, got %q.", got.Account)
	}

	if got.TraceID == "" {
		t.Fatalf("Should have a trace id for the request.")
	}

	if strings.Join(order, ",") != "app,route" {
		t.Fatalf("Should run app middleware before route middleware, got %v.", order)
	}
}

func TestShutdownError(t *testing.T) {
	shutdown := make(chan os.Signal, 1)
	app := web.NewApp(shutdown)

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	}
	app.Handle(http.MethodGet, "", "/fail", h)

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	select {
	case <-shutdown:
	default:
		t.Fatalf("Should signal a shutdown.")
	}
}

func TestDecode(t *testing.T) {
	var val struct {
		Value uint64 `json:"value"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"value":10}`))
	if err := web.Decode(r, &val); err != nil || val.Value != 10 {
		t.Fatalf("Should be able to decode the body: %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"tip":10}`))
	if err := web.Decode(r, &val); err == nil {
		t.Fatalf("Should reject unknown fields.")
	}
}
