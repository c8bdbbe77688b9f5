// Package desk is the trade processor: it validates orders against the live
// market, drives the ledger, and feeds the session fan-out with market and
// portfolio events.
package desk

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/paperdesk/hub"
	"github.com/rustyeddy/paperdesk/ledger"
	"github.com/rustyeddy/paperdesk/market"
	"github.com/rustyeddy/paperdesk/metrics"
)

type Desk struct {
	market *market.State
	ledger *ledger.Ledger
	hub    *hub.Hub
}

func New(m *market.State, l *ledger.Ledger, h *hub.Hub) *Desk {
	return &Desk{market: m, ledger: l, hub: h}
}

// Execute validates and executes one order, returning the updated portfolio
// snapshot. Validation fails fast in a fixed order: unknown instrument, bad
// quantity, bad side, then the ledger's funds/holdings checks. The execution
// price is the one read here, before the account's critical section is
// taken — a trade fills at the price visible when it was validated, with the
// staleness window bounded by lock latency.
func (d *Desk) Execute(account, instrument string, side ledger.Side, qty int64) (ledger.PortfolioSnapshot, error) {
	price, tracked := d.market.Price(instrument)
	if !tracked {
		metrics.Reject("unknown_instrument")
		return ledger.PortfolioSnapshot{}, ErrUnknownInstrument
	}
	if qty <= 0 {
		metrics.Reject("bad_quantity")
		return ledger.PortfolioSnapshot{}, ErrBadQuantity
	}
	if !side.Valid() {
		metrics.Reject("bad_side")
		return ledger.PortfolioSnapshot{}, ErrBadSide
	}

	var rec ledger.TradeRecord
	var err error
	if side == ledger.Buy {
		rec, err = d.ledger.ApplyBuy(account, instrument, qty, price)
	} else {
		rec, err = d.ledger.ApplySell(account, instrument, qty, price)
	}
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			metrics.Reject("insufficient_funds")
		case errors.Is(err, ledger.ErrInsufficientHoldings):
			metrics.Reject("insufficient_holdings")
		}
		return ledger.PortfolioSnapshot{}, err
	}
	metrics.Trade(string(side))

	snap, err := d.Portfolio(account)
	if err != nil {
		return ledger.PortfolioSnapshot{}, err
	}

	d.hub.PublishToAccount(account, hub.NewTradeEvent(rec))
	d.hub.PublishToAccount(account, hub.NewPortfolioEvent(snap))
	return snap, nil
}

// Deposit adds cash to the account and pushes the refreshed portfolio to its
// sessions.
func (d *Desk) Deposit(account string, amount decimal.Decimal) (ledger.PortfolioSnapshot, error) {
	if err := d.ledger.Deposit(account, amount); err != nil {
		if errors.Is(err, ledger.ErrBadAmount) {
			metrics.Reject("bad_amount")
		}
		return ledger.PortfolioSnapshot{}, err
	}
	metrics.Deposit()

	snap, err := d.Portfolio(account)
	if err != nil {
		return ledger.PortfolioSnapshot{}, err
	}

	d.hub.PublishToAccount(account, hub.NewPortfolioEvent(snap))
	return snap, nil
}

// Portfolio values the account against the current price map.
func (d *Desk) Portfolio(account string) (ledger.PortfolioSnapshot, error) {
	acct, err := d.ledger.Account(account)
	if err != nil {
		return ledger.PortfolioSnapshot{}, err
	}
	return ledger.Snapshot(acct, d.market.Prices()), nil
}

// Trades returns the account's most recent trade records, newest first.
func (d *Desk) Trades(account string, limit int) ([]ledger.TradeRecord, error) {
	return d.ledger.RecentTrades(account, limit)
}

// Attach registers a new session and immediately pushes the current market
// state plus the owning account's portfolio, so a fresh connection never
// waits for the next tick.
func (d *Desk) Attach(s *hub.Session) error {
	snap, err := d.Portfolio(s.Account)
	if err != nil {
		return err
	}

	d.hub.Register(s)
	d.hub.Push(s, hub.NewPricesEvent(d.market.Prices()))
	d.hub.Push(s, hub.NewHistoryEvent(d.market.Histories()))
	d.hub.Push(s, hub.NewPortfolioEvent(snap))
	return nil
}

// Detach removes a session from the fan-out set.
func (d *Desk) Detach(s *hub.Session) {
	d.hub.Unregister(s)
}

// PushTo delivers an event to a single session, bypassing the account fan-out.
func (d *Desk) PushTo(s *hub.Session, event any) {
	d.hub.Push(s, event)
}

// OnTick is wired as the market ticker's callback: every tick's price map and
// history map go to all live sessions.
func (d *Desk) OnTick(prices map[string]decimal.Decimal, history map[string][]decimal.Decimal) {
	metrics.Tick()
	d.hub.PublishGlobal(hub.NewPricesEvent(prices))
	d.hub.PublishGlobal(hub.NewHistoryEvent(history))
}
