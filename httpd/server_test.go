package httpd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/paperdesk/desk"
	"github.com/rustyeddy/paperdesk/hub"
	"github.com/rustyeddy/paperdesk/ledger"
	"github.com/rustyeddy/paperdesk/market"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	state, err := market.NewState([]market.Seed{
		{Symbol: "ACME", Price: decimal.NewFromInt(200)},
		{Symbol: "BOLT", Price: decimal.NewFromInt(320)},
	}, 10)
	require.NoError(t, err)

	led := ledger.New(ledger.NewMemory(), decimal.NewFromInt(100000))
	d := desk.New(state, led, hub.New())

	srv := httptest.NewServer(New("", d, state).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, account string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if account != "" {
		req.Header.Set(AccountHeader, account)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func TestPricesEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, "/api/prices", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var prices map[string]decimal.Decimal
	require.NoError(t, json.Unmarshal(body, &prices))
	assert.Len(t, prices, 2)
	assert.True(t, prices["ACME"].Equal(decimal.NewFromInt(200)))
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, "/api/history?instrument=ACME", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var hist []decimal.Decimal
	require.NoError(t, json.Unmarshal(body, &hist))
	assert.Len(t, hist, 1)

	// Untracked instruments yield an empty sequence with a 200, not an error.
	resp, body = doJSON(t, srv, http.MethodGet, "/api/history?instrument=NOPE", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]\n", string(body))
}

func TestIdentityRequired(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	for _, probe := range []struct{ method, path string }{
		{http.MethodGet, "/api/portfolio"},
		{http.MethodGet, "/api/trades"},
		{http.MethodPost, "/api/trade"},
		{http.MethodPost, "/api/deposit"},
	} {
		resp, _ := doJSON(t, srv, probe.method, probe.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", probe.method, probe.path)
	}
}

func TestTradeEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/trade", "alice",
		TradeRequest{Side: ledger.Buy, Instrument: "ACME", Qty: 10})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var snap ledger.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.True(t, snap.Cash.Equal(decimal.NewFromInt(98000)))
	require.Len(t, snap.Holdings, 1)
	assert.Equal(t, int64(10), snap.Holdings[0].Qty)
}

func TestTradeEndpointErrorMapping(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	cases := []struct {
		name   string
		req    TradeRequest
		status int
	}{
		{"unknown instrument", TradeRequest{Side: ledger.Buy, Instrument: "NOPE", Qty: 1}, http.StatusBadRequest},
		{"zero qty", TradeRequest{Side: ledger.Buy, Instrument: "ACME", Qty: 0}, http.StatusBadRequest},
		{"bad side", TradeRequest{Side: "hold", Instrument: "ACME", Qty: 1}, http.StatusBadRequest},
		{"insufficient funds", TradeRequest{Side: ledger.Buy, Instrument: "ACME", Qty: 1000}, http.StatusUnprocessableEntity},
		{"insufficient holdings", TradeRequest{Side: ledger.Sell, Instrument: "ACME", Qty: 1}, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, srv, http.MethodPost, "/api/trade", "alice", tc.req)
			assert.Equal(t, tc.status, resp.StatusCode)

			var fail map[string]string
			require.NoError(t, json.Unmarshal(body, &fail))
			assert.NotEmpty(t, fail["error"])
		})
	}
}

func TestDepositEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/deposit", "alice",
		DepositRequest{Amount: decimal.NewFromInt(-5)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/deposit", "alice",
		DepositRequest{Amount: decimal.NewFromInt(500)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap ledger.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.True(t, snap.Cash.Equal(decimal.NewFromInt(100500)))
}

func TestTradesEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/trade", "alice",
			TradeRequest{Side: ledger.Buy, Instrument: "ACME", Qty: int64(i + 1)})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := doJSON(t, srv, http.MethodGet, "/api/trades?limit=2", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recs []ledger.TradeRecord
	require.NoError(t, json.Unmarshal(body, &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, int64(3), recs[0].Qty, "newest first")

	resp, _ = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/trades?limit=%d", -1), "alice", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// An account with no trades gets an empty list, not null.
	resp, body = doJSON(t, srv, http.MethodGet, "/api/trades", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]\n", string(body))
}
