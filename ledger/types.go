package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool { return s == Buy || s == Sell }

// Holding is an account's position in one instrument. AvgCost is the
// quantity-weighted mean of all buy fills and is kept at full precision
// internally; it is rounded to 2 decimals only at the wire. A holding whose
// quantity reaches zero is deleted, never stored as zero.
type Holding struct {
	Instrument string
	Qty        int64
	AvgCost    decimal.Decimal
}

// Account is the full ledger state of one identity. Holdings is keyed by
// instrument symbol.
type Account struct {
	ID       string
	Cash     decimal.Decimal
	Realized decimal.Decimal
	Holdings map[string]Holding
}

func newAccount(id string, cash decimal.Decimal) *Account {
	return &Account{
		ID:       id,
		Cash:     cash,
		Realized: decimal.Zero,
		Holdings: make(map[string]Holding),
	}
}

// clone copies a for mutate-then-commit: pending changes are applied to the
// copy, persisted, and only then swapped into the cache.
func (a *Account) clone() *Account {
	c := &Account{
		ID:       a.ID,
		Cash:     a.Cash,
		Realized: a.Realized,
		Holdings: make(map[string]Holding, len(a.Holdings)),
	}
	for sym, h := range a.Holdings {
		c.Holdings[sym] = h
	}
	return c
}

// TradeRecord is one executed trade. Records are immutable and append-only;
// IDs are ULIDs so lexicographic order matches execution order.
type TradeRecord struct {
	ID         string          `json:"id"`
	Account    string          `json:"account"`
	Instrument string          `json:"instrument"`
	Side       Side            `json:"side"`
	Qty        int64           `json:"qty"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	Time       time.Time       `json:"time"`
}
