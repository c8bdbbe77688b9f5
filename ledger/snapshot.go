package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// HoldingView is one holding enriched with the current price and its
// unrealized P&L, all monetary fields rounded to 2 decimals.
type HoldingView struct {
	Instrument   string          `json:"instrument"`
	Qty          int64           `json:"qty"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Unrealized   decimal.Decimal `json:"unrealized"`
}

// PortfolioSnapshot is the derived valuation of one account against the
// current market. It is never stored; recompute it whenever it is needed.
type PortfolioSnapshot struct {
	Cash       decimal.Decimal `json:"cash"`
	Realized   decimal.Decimal `json:"realized"`
	Unrealized decimal.Decimal `json:"unrealized"`
	Holdings   []HoldingView   `json:"holdings"`
}

// Snapshot values an account at the given price map. It is a pure function of
// its inputs: the same account state and prices always produce the same
// snapshot. Holdings come out sorted by instrument. A holding whose
// instrument is missing from prices (which the static instrument set should
// make impossible) is valued at its cost basis, i.e. zero unrealized.
func Snapshot(a Account, prices map[string]decimal.Decimal) PortfolioSnapshot {
	snap := PortfolioSnapshot{
		Cash:       a.Cash.Round(2),
		Realized:   a.Realized.Round(2),
		Unrealized: decimal.Zero,
		Holdings:   make([]HoldingView, 0, len(a.Holdings)),
	}

	for sym, h := range a.Holdings {
		price, ok := prices[sym]
		if !ok {
			price = h.AvgCost
		}
		unreal := price.Sub(h.AvgCost).Mul(decimal.NewFromInt(h.Qty)).Round(2)
		snap.Holdings = append(snap.Holdings, HoldingView{
			Instrument:   sym,
			Qty:          h.Qty,
			AvgCost:      h.AvgCost.Round(2),
			CurrentPrice: price,
			Unrealized:   unreal,
		})
		snap.Unrealized = snap.Unrealized.Add(unreal)
	}

	sort.Slice(snap.Holdings, func(i, j int) bool {
		return snap.Holdings[i].Instrument < snap.Holdings[j].Instrument
	})
	return snap
}
