package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// SQLite is the durable Store backend. Each ApplyTrade runs in one SQL
// transaction, so the account row, the holding row and the trade append
// become visible together or not at all.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateAccount(a *Account) error {
	_, err := s.db.Exec(`
		INSERT INTO accounts (id, cash, realized)
		VALUES (?, ?, ?)`,
		a.ID, a.Cash.String(), a.Realized.String(),
	)
	return err
}

func (s *SQLite) LoadAccount(id string) (*Account, error) {
	row := s.db.QueryRow(`SELECT cash, realized FROM accounts WHERE id = ?`, id)

	var cash, realized string
	if err := row.Scan(&cash, &realized); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	a := &Account{ID: id, Holdings: make(map[string]Holding)}
	var err error
	if a.Cash, err = decimal.NewFromString(cash); err != nil {
		return nil, fmt.Errorf("account %s: bad cash %q: %w", id, cash, err)
	}
	if a.Realized, err = decimal.NewFromString(realized); err != nil {
		return nil, fmt.Errorf("account %s: bad realized %q: %w", id, realized, err)
	}

	rows, err := s.db.Query(`
		SELECT instrument, qty, avg_cost
		FROM holdings
		WHERE account = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var h Holding
		var avg string
		if err := rows.Scan(&h.Instrument, &h.Qty, &avg); err != nil {
			return nil, err
		}
		if h.AvgCost, err = decimal.NewFromString(avg); err != nil {
			return nil, fmt.Errorf("holding %s/%s: bad avg_cost %q: %w", id, h.Instrument, avg, err)
		}
		a.Holdings[h.Instrument] = h
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLite) ApplyTrade(a *Account, rec TradeRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE accounts SET cash = ?, realized = ? WHERE id = ?`,
		a.Cash.String(), a.Realized.String(), a.ID,
	); err != nil {
		return err
	}

	if h, ok := a.Holdings[rec.Instrument]; ok {
		if _, err := tx.Exec(`
			INSERT INTO holdings (account, instrument, qty, avg_cost)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(account, instrument)
			DO UPDATE SET qty = excluded.qty, avg_cost = excluded.avg_cost`,
			a.ID, h.Instrument, h.Qty, h.AvgCost.String(),
		); err != nil {
			return err
		}
	} else {
		// Position fully closed: the row goes away rather than lingering at zero.
		if _, err := tx.Exec(`
			DELETE FROM holdings WHERE account = ? AND instrument = ?`,
			a.ID, rec.Instrument,
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO trades (trade_id, account, instrument, side, qty, price, total, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Account, rec.Instrument, string(rec.Side),
		rec.Qty, rec.Price.String(), rec.Total.String(), rec.Time,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) SaveAccount(a *Account) error {
	_, err := s.db.Exec(`
		UPDATE accounts SET cash = ?, realized = ? WHERE id = ?`,
		a.Cash.String(), a.Realized.String(), a.ID,
	)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
