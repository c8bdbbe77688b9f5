package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RecentTrades returns up to limit trades for the account, newest first.
// The trade_id tiebreak keeps same-timestamp trades in execution order
// because trade IDs are time-sortable ULIDs.
func (s *SQLite) RecentTrades(account string, limit int) ([]TradeRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT trade_id, account, instrument, side, qty, price, total, time
		FROM trades
		WHERE account = ?
		ORDER BY time DESC, trade_id DESC
		LIMIT ?`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		var side, price, total string
		if err := rows.Scan(
			&rec.ID,
			&rec.Account,
			&rec.Instrument,
			&side,
			&rec.Qty,
			&price,
			&total,
			&rec.Time,
		); err != nil {
			return nil, err
		}
		rec.Side = Side(side)
		if rec.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("trade %s: bad price %q: %w", rec.ID, price, err)
		}
		if rec.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("trade %s: bad total %q: %w", rec.ID, total, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
