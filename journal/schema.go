package journal

const Schema = `
CREATE TABLE IF NOT EXISTS account (
	id TEXT PRIMARY KEY,
	cash TEXT NOT NULL,
	total_value TEXT NOT NULL,
	last_reconciled DATETIME
);

CREATE TABLE IF NOT EXISTS positions (
	symbol TEXT PRIMARY KEY,
	quantity REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_price REAL NOT NULL,
	target_price REAL NOT NULL,
	current_price REAL NOT NULL,
	entry_commission TEXT NOT NULL,
	opened_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS fills (
	fill_id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	commission TEXT NOT NULL,
	cash_delta TEXT NOT NULL,
	realized_pl TEXT NOT NULL,
	stop_price REAL NOT NULL DEFAULT 0,
	target_price REAL NOT NULL DEFAULT 0,
	time DATETIME NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS performance (
	time DATETIME NOT NULL,
	total_value TEXT NOT NULL,
	cash TEXT NOT NULL,
	positions_value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_time ON fills(time);
CREATE INDEX IF NOT EXISTS idx_performance_time ON performance(time);
`
