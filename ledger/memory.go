package ledger

import (
	"sort"
	"sync"
)

// Memory is a volatile Store for tests, demos and the memory backend in the
// config. It keeps the same atomicity contract as SQLite trivially, since a
// single mutex covers every write.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]*Account
	trades   map[string][]TradeRecord
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*Account),
		trades:   make(map[string][]TradeRecord),
	}
}

func (m *Memory) CreateAccount(a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a.clone()
	return nil
}

func (m *Memory) LoadAccount(id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return a.clone(), nil
}

func (m *Memory) ApplyTrade(a *Account, rec TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a.clone()
	m.trades[a.ID] = append(m.trades[a.ID], rec)
	return nil
}

func (m *Memory) SaveAccount(a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a.clone()
	return nil
}

func (m *Memory) RecentTrades(account string, limit int) ([]TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.trades[account]
	out := make([]TradeRecord, len(recs))
	copy(out, recs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
