package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/paperdesk/internal/id"
)

// DefaultFunding is the cash balance a brand-new account starts with.
var DefaultFunding = decimal.NewFromInt(100000)

// Ledger owns all account state: cash, realized P&L, holdings and the trade
// log. Accounts are materialized lazily with default funding on first touch
// and are partitioned for locking — a trade holds only its own account's
// mutex, so trades by different accounts never contend. All mutation goes
// through the Store first; the in-memory cache is updated only after the
// store commit succeeds.
type Ledger struct {
	store   Store
	funding decimal.Decimal

	mu       sync.Mutex // guards the accounts map, never held across store calls
	accounts map[string]*entry
}

// entry pairs one cached account with its critical-section lock.
type entry struct {
	mu   sync.Mutex
	acct *Account // nil until materialized
}

func New(store Store, funding decimal.Decimal) *Ledger {
	if !funding.IsPositive() {
		funding = DefaultFunding
	}
	return &Ledger{
		store:    store,
		funding:  funding,
		accounts: make(map[string]*entry),
	}
}

// lockEntry returns the entry for account with its mutex held, materializing
// the account from the store (or creating it with default funding) on first
// touch. Callers must unlock e.mu when done.
func (l *Ledger) lockEntry(account string) (*entry, error) {
	l.mu.Lock()
	e, ok := l.accounts[account]
	if !ok {
		e = &entry{}
		l.accounts[account] = e
	}
	l.mu.Unlock()

	e.mu.Lock()
	if e.acct != nil {
		return e, nil
	}

	stored, err := l.store.LoadAccount(account)
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("load account %s: %w", account, err)
	}
	if stored != nil {
		e.acct = stored
		return e, nil
	}

	fresh := newAccount(account, l.funding)
	if err := l.store.CreateAccount(fresh); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("create account %s: %w", account, err)
	}
	e.acct = fresh
	return e, nil
}

// Account returns a copy of the account's current state, materializing it on
// first access.
func (l *Ledger) Account(account string) (Account, error) {
	e, err := l.lockEntry(account)
	if err != nil {
		return Account{}, err
	}
	defer e.mu.Unlock()
	return *e.acct.clone(), nil
}

// ApplyBuy executes a buy fill at price: the holding's average cost becomes
// the quantity-weighted mean of all fills, cash drops by the rounded total,
// and a trade record is appended. Fails with ErrInsufficientFunds when the
// total exceeds cash; validation of instrument and quantity is the trade
// processor's job.
func (l *Ledger) ApplyBuy(account, instrument string, qty int64, price decimal.Decimal) (TradeRecord, error) {
	e, err := l.lockEntry(account)
	if err != nil {
		return TradeRecord{}, err
	}
	defer e.mu.Unlock()

	total := price.Mul(decimal.NewFromInt(qty)).Round(2)
	if e.acct.Cash.LessThan(total) {
		return TradeRecord{}, ErrInsufficientFunds
	}

	next := e.acct.clone()
	h := next.Holdings[instrument]
	h.Instrument = instrument

	oldQty := decimal.NewFromInt(h.Qty)
	addQty := decimal.NewFromInt(qty)
	newQty := oldQty.Add(addQty)
	h.AvgCost = h.AvgCost.Mul(oldQty).Add(price.Mul(addQty)).Div(newQty)
	h.Qty += qty
	next.Holdings[instrument] = h
	next.Cash = next.Cash.Sub(total)

	rec := TradeRecord{
		ID:         id.New(),
		Account:    account,
		Instrument: instrument,
		Side:       Buy,
		Qty:        qty,
		Price:      price,
		Total:      total,
		Time:       time.Now().UTC(),
	}

	if err := l.store.ApplyTrade(next, rec); err != nil {
		return TradeRecord{}, fmt.Errorf("commit buy: %w", err)
	}
	e.acct = next
	return rec, nil
}

// ApplySell executes a sell fill at price: realized P&L grows by
// (price - avgCost) x qty rounded to 2 decimals, cash grows by the rounded
// total, and the average cost is left untouched. Selling the entire position
// deletes the holding. Fails with ErrInsufficientHoldings when qty exceeds
// the owned quantity.
func (l *Ledger) ApplySell(account, instrument string, qty int64, price decimal.Decimal) (TradeRecord, error) {
	e, err := l.lockEntry(account)
	if err != nil {
		return TradeRecord{}, err
	}
	defer e.mu.Unlock()

	h, ok := e.acct.Holdings[instrument]
	if !ok || h.Qty < qty {
		return TradeRecord{}, ErrInsufficientHoldings
	}

	total := price.Mul(decimal.NewFromInt(qty)).Round(2)
	pnl := price.Sub(h.AvgCost).Mul(decimal.NewFromInt(qty)).Round(2)

	next := e.acct.clone()
	if h.Qty == qty {
		delete(next.Holdings, instrument)
	} else {
		h.Qty -= qty
		next.Holdings[instrument] = h
	}
	next.Cash = next.Cash.Add(total)
	next.Realized = next.Realized.Add(pnl)

	rec := TradeRecord{
		ID:         id.New(),
		Account:    account,
		Instrument: instrument,
		Side:       Sell,
		Qty:        qty,
		Price:      price,
		Total:      total,
		Time:       time.Now().UTC(),
	}

	if err := l.store.ApplyTrade(next, rec); err != nil {
		return TradeRecord{}, fmt.Errorf("commit sell: %w", err)
	}
	e.acct = next
	return rec, nil
}

// Deposit adds a strictly positive amount to the account's cash. Holdings and
// realized P&L are untouched.
func (l *Ledger) Deposit(account string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrBadAmount
	}

	e, err := l.lockEntry(account)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	next := e.acct.clone()
	next.Cash = next.Cash.Add(amount.Round(2))

	if err := l.store.SaveAccount(next); err != nil {
		return fmt.Errorf("commit deposit: %w", err)
	}
	e.acct = next
	return nil
}

// RecentTrades returns the account's most recent trade records, newest first.
func (l *Ledger) RecentTrades(account string, limit int) ([]TradeRecord, error) {
	return l.store.RecentTrades(account, limit)
}
