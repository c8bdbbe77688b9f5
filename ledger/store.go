package ledger

// Store is the durable side of the ledger. ApplyTrade and SaveAccount must be
// atomic per account: either the whole write lands or none of it does. The
// Ledger calls them with the account's critical section held, passes the
// post-mutation state, and commits its in-memory cache only after the store
// reports success — a store failure therefore leaves no partial state
// anywhere.
type Store interface {
	// CreateAccount persists a freshly materialized account.
	CreateAccount(a *Account) error

	// LoadAccount returns the stored account, or nil if it has never existed.
	LoadAccount(id string) (*Account, error)

	// ApplyTrade atomically writes the account's new cash/realized balances,
	// upserts or deletes the holding touched by rec, and appends rec itself.
	ApplyTrade(a *Account, rec TradeRecord) error

	// SaveAccount writes cash and realized for deposits and other
	// holdings-neutral balance changes.
	SaveAccount(a *Account) error

	// RecentTrades returns up to limit trade records for the account,
	// newest first.
	RecentTrades(account string, limit int) ([]TradeRecord, error)

	Close() error
}
