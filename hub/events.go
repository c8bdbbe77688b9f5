package hub

import (
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/paperdesk/ledger"
)

func init() {
	// Monetary fields go over the wire as plain 2-decimal JSON numbers,
	// not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// PricesEvent carries the full current price map. Broadcast to every live
// session once per tick.
type PricesEvent struct {
	Type   string                     `json:"type"`
	Prices map[string]decimal.Decimal `json:"prices"`
}

func NewPricesEvent(prices map[string]decimal.Decimal) PricesEvent {
	return PricesEvent{Type: "prices", Prices: prices}
}

// HistoryEvent carries every instrument's bounded price history, oldest
// entry first.
type HistoryEvent struct {
	Type    string                       `json:"type"`
	History map[string][]decimal.Decimal `json:"history"`
}

func NewHistoryEvent(history map[string][]decimal.Decimal) HistoryEvent {
	return HistoryEvent{Type: "history", History: history}
}

// PortfolioEvent carries one account's portfolio snapshot. Pushed only to
// that account's sessions.
type PortfolioEvent struct {
	Type      string                   `json:"type"`
	Portfolio ledger.PortfolioSnapshot `json:"portfolio"`
}

func NewPortfolioEvent(snap ledger.PortfolioSnapshot) PortfolioEvent {
	return PortfolioEvent{Type: "portfolio", Portfolio: snap}
}

// TradeNotice is the completed-trade payload inside a TradeEvent.
type TradeNotice struct {
	Side       ledger.Side     `json:"side"`
	Instrument string          `json:"instrument"`
	Qty        int64           `json:"qty"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
}

// TradeEvent notifies an account's sessions that one of its trades completed.
type TradeEvent struct {
	Type  string      `json:"type"`
	Trade TradeNotice `json:"trade"`
}

func NewTradeEvent(rec ledger.TradeRecord) TradeEvent {
	return TradeEvent{
		Type: "trade",
		Trade: TradeNotice{
			Side:       rec.Side,
			Instrument: rec.Instrument,
			Qty:        rec.Qty,
			Price:      rec.Price,
			Total:      rec.Total,
		},
	}
}
