package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(NewMemory(), decimal.NewFromInt(100000))
}

func mustBuy(t *testing.T, l *Ledger, acct, instr string, qty int64, price string) TradeRecord {
	t.Helper()
	rec, err := l.ApplyBuy(acct, instr, qty, dec(t, price))
	require.NoError(t, err)
	return rec
}

func mustSell(t *testing.T, l *Ledger, acct, instr string, qty int64, price string) TradeRecord {
	t.Helper()
	rec, err := l.ApplySell(acct, instr, qty, dec(t, price))
	require.NoError(t, err)
	return rec
}

func TestAccountMaterializedWithDefaultFunding(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	a, err := l.Account("alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", a.ID)
	assert.True(t, a.Cash.Equal(dec(t, "100000")))
	assert.True(t, a.Realized.IsZero())
	assert.Empty(t, a.Holdings)
}

// The worked scenario: buy 10 @ 200.00, then sell 4 @ 220.00.
func TestBuyThenPartialSell(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	rec := mustBuy(t, l, "alice", "ACME", 10, "200.00")
	assert.Equal(t, Buy, rec.Side)
	assert.True(t, rec.Total.Equal(dec(t, "2000.00")))

	a, err := l.Account("alice")
	require.NoError(t, err)
	assert.True(t, a.Cash.Equal(dec(t, "98000.00")), "cash %s", a.Cash)
	h := a.Holdings["ACME"]
	assert.Equal(t, int64(10), h.Qty)
	assert.True(t, h.AvgCost.Equal(dec(t, "200.00")))

	rec = mustSell(t, l, "alice", "ACME", 4, "220.00")
	assert.True(t, rec.Total.Equal(dec(t, "880.00")))

	a, err = l.Account("alice")
	require.NoError(t, err)
	assert.True(t, a.Cash.Equal(dec(t, "98880.00")), "cash %s", a.Cash)
	assert.True(t, a.Realized.Equal(dec(t, "80.00")), "realized %s", a.Realized)

	h = a.Holdings["ACME"]
	assert.Equal(t, int64(6), h.Qty)
	assert.True(t, h.AvgCost.Equal(dec(t, "200.00")), "sell must not change avg cost")
}

func TestBuyAveragesCostAcrossFills(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	mustBuy(t, l, "bob", "ACME", 5, "100.00")
	mustBuy(t, l, "bob", "ACME", 5, "200.00")

	a, err := l.Account("bob")
	require.NoError(t, err)
	h := a.Holdings["ACME"]
	assert.Equal(t, int64(10), h.Qty)
	assert.True(t, h.AvgCost.Equal(dec(t, "150.00")), "avg %s", h.AvgCost)

	// Another fill keeps the weighted mean: (150*10 + 250*2) / 12 = 166.67 rounded.
	mustBuy(t, l, "bob", "ACME", 2, "250.00")
	a, err = l.Account("bob")
	require.NoError(t, err)
	assert.Equal(t, "166.67", a.Holdings["ACME"].AvgCost.Round(2).String())
}

func TestSellEntirePositionDeletesHolding(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	mustBuy(t, l, "carol", "ACME", 5, "100.00")
	mustSell(t, l, "carol", "ACME", 5, "110.00")

	a, err := l.Account("carol")
	require.NoError(t, err)
	_, exists := a.Holdings["ACME"]
	assert.False(t, exists, "zero-quantity holding must be deleted, not retained")
	assert.True(t, a.Realized.Equal(dec(t, "50.00")))
}

func TestBuyRejectedOnInsufficientFunds(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	_, err := l.ApplyBuy("dave", "ACME", 1000, dec(t, "200.00")) // 200000 > 100000
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	a, err := l.Account("dave")
	require.NoError(t, err)
	assert.True(t, a.Cash.Equal(dec(t, "100000")), "no state change on rejection")
	assert.Empty(t, a.Holdings)

	recs, err := l.RecentTrades("dave", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSellRejectedOnInsufficientHoldings(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	mustBuy(t, l, "erin", "ACME", 5, "100.00")

	_, err := l.ApplySell("erin", "ACME", 6, dec(t, "100.00"))
	assert.ErrorIs(t, err, ErrInsufficientHoldings)

	// Never-held instrument behaves the same.
	_, err = l.ApplySell("erin", "BOLT", 1, dec(t, "100.00"))
	assert.ErrorIs(t, err, ErrInsufficientHoldings)

	a, err := l.Account("erin")
	require.NoError(t, err)
	assert.Equal(t, int64(5), a.Holdings["ACME"].Qty)
	assert.True(t, a.Realized.IsZero())
}

func TestDeposit(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	assert.ErrorIs(t, l.Deposit("frank", dec(t, "-5")), ErrBadAmount)
	assert.ErrorIs(t, l.Deposit("frank", decimal.Zero), ErrBadAmount)

	a, err := l.Account("frank")
	require.NoError(t, err)
	assert.True(t, a.Cash.Equal(dec(t, "100000")), "cash unchanged after rejected deposit")

	require.NoError(t, l.Deposit("frank", dec(t, "2500.50")))
	a, err = l.Account("frank")
	require.NoError(t, err)
	assert.True(t, a.Cash.Equal(dec(t, "102500.50")))
	assert.True(t, a.Realized.IsZero())
	assert.Empty(t, a.Holdings)
}

func TestRecentTradesNewestFirst(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	mustBuy(t, l, "gina", "ACME", 1, "100.00")
	mustBuy(t, l, "gina", "ACME", 2, "101.00")
	mustSell(t, l, "gina", "ACME", 3, "102.00")

	recs, err := l.RecentTrades("gina", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, Sell, recs[0].Side)
	assert.Equal(t, int64(2), recs[1].Qty)
	assert.Greater(t, recs[0].ID, recs[1].ID, "ULIDs must sort in execution order")
}

// failStore wraps a Store and fails every mutating call, for atomicity checks.
type failStore struct {
	Store
}

var errStore = errors.New("store down")

func (f *failStore) ApplyTrade(a *Account, rec TradeRecord) error { return errStore }
func (f *failStore) SaveAccount(a *Account) error                 { return errStore }

func TestStoreFailureLeavesNoPartialState(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	l := New(mem, decimal.NewFromInt(100000))
	mustBuy(t, l, "hank", "ACME", 5, "100.00")

	// Swap in a failing store and try to mutate.
	l.store = &failStore{Store: mem}

	_, err := l.ApplyBuy("hank", "ACME", 1, dec(t, "100.00"))
	assert.ErrorIs(t, err, errStore)
	_, err = l.ApplySell("hank", "ACME", 1, dec(t, "100.00"))
	assert.ErrorIs(t, err, errStore)
	assert.ErrorIs(t, l.Deposit("hank", dec(t, "10")), errStore)

	a, err := l.Account("hank")
	require.NoError(t, err)
	assert.True(t, a.Cash.Equal(dec(t, "99500.00")), "cash %s", a.Cash)
	assert.Equal(t, int64(5), a.Holdings["ACME"].Qty)
	assert.True(t, a.Realized.IsZero())
}

func TestConcurrentTradesOnOneAccountDoNotInterleave(t *testing.T) {
	t.Parallel()
	l := newTestLedger(t)

	const workers = 8
	const each = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_, err := l.ApplyBuy("ivy", "ACME", 1, decimal.NewFromInt(10))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	a, err := l.Account("ivy")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*each), a.Holdings["ACME"].Qty)
	assert.True(t, a.Cash.Equal(dec(t, "98000")), "cash %s", a.Cash) // 100000 - 200*10
	assert.True(t, a.Holdings["ACME"].AvgCost.Equal(dec(t, "10")))

	recs, err := l.RecentTrades("ivy", workers*each+1)
	require.NoError(t, err)
	assert.Len(t, recs, workers*each)
}
