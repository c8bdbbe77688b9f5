// ledger/schema.go
package ledger

// Monetary columns are TEXT holding decimal strings so values round-trip
// exactly; qty is a plain integer.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	cash TEXT NOT NULL,
	realized TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	account TEXT NOT NULL,
	instrument TEXT NOT NULL,
	qty INTEGER NOT NULL,
	avg_cost TEXT NOT NULL,
	PRIMARY KEY (account, instrument)
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	account TEXT NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	qty INTEGER NOT NULL,
	price TEXT NOT NULL,
	total TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account_time ON trades(account, time);
`
