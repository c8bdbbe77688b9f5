// Package httpd is the thin transport over the desk: JSON endpoints for
// orders and queries, a WebSocket endpoint for push sessions, and the
// Prometheus exposition handler. Identity verification happens upstream; this
// layer only requires that a verified account identifier arrives with each
// request.
package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/paperdesk/desk"
	"github.com/rustyeddy/paperdesk/ledger"
	"github.com/rustyeddy/paperdesk/market"
	"github.com/rustyeddy/paperdesk/metrics"
)

// AccountHeader carries the collaborator-verified identity. Requests without
// it never reach the core.
const AccountHeader = "X-Account"

const defaultTradeHistory = 50

type Server struct {
	desk   *desk.Desk
	market *market.State
	addr   string
}

func New(addr string, d *desk.Desk, m *market.State) *Server {
	return &Server{desk: d, market: m, addr: addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/prices", s.handlePrices)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/portfolio", s.requireAccount(s.handlePortfolio))
	mux.HandleFunc("GET /api/trades", s.requireAccount(s.handleTrades))
	mux.HandleFunc("POST /api/trade", s.requireAccount(s.handleTrade))
	mux.HandleFunc("POST /api/deposit", s.requireAccount(s.handleDeposit))
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type accountHandler func(w http.ResponseWriter, r *http.Request, account string)

func (s *Server) requireAccount(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := r.Header.Get(AccountHeader)
		if account == "" {
			writeError(w, http.StatusUnauthorized, errors.New("missing account identity"))
			return
		}
		next(w, r, account)
	}
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.market.Prices())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("instrument")
	if symbol == "" {
		writeJSON(w, http.StatusOK, s.market.Histories())
		return
	}
	// Untracked instruments yield an empty sequence, not an error.
	writeJSON(w, http.StatusOK, s.market.History(symbol))
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request, account string) {
	snap, err := s.desk.Portfolio(account)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request, account string) {
	limit := defaultTradeHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	recs, err := s.desk.Trades(account, limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if recs == nil {
		recs = []ledger.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// TradeRequest is the inbound order shape.
type TradeRequest struct {
	Side       ledger.Side `json:"side"`
	Instrument string      `json:"instrument"`
	Qty        int64       `json:"qty"`
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, account string) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("malformed trade request"))
		return
	}

	snap, err := s.desk.Execute(account, req.Instrument, req.Side, req.Qty)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DepositRequest is the inbound deposit shape.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, account string) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("malformed deposit request"))
		return
	}

	snap, err := s.desk.Deposit(account, req.Amount)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// statusFor maps core errors onto HTTP statuses: validation and business-rule
// rejections are the caller's fault; anything else is a transient store or
// internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, desk.ErrUnknownInstrument),
		errors.Is(err, desk.ErrBadQuantity),
		errors.Is(err, desk.ErrBadSide),
		errors.Is(err, ledger.ErrBadAmount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientHoldings):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpd: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
