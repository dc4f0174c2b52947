package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the durable Store. Each Apply runs in a single transaction so a
// fill, its position change and the account update land together or not at
// all.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Apply(mut Mutation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	f := mut.Fill
	if _, err := tx.Exec(`
		INSERT INTO fills
		(fill_id, order_id, symbol, side, quantity, price, commission, cash_delta, realized_pl, stop_price, target_price, time, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.OrderID, f.Symbol, f.Side.String(), f.Quantity, f.Price,
		f.Commission, f.CashDelta, f.RealizedPL, f.StopPrice, f.TargetPrice, f.Time, f.Reason,
	); err != nil {
		return err
	}

	switch {
	case mut.Position != nil:
		p := mut.Position
		if _, err := tx.Exec(`
			INSERT INTO positions
			(symbol, quantity, entry_price, stop_price, target_price, current_price, entry_commission, opened_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(symbol) DO UPDATE SET
				quantity = excluded.quantity,
				entry_price = excluded.entry_price,
				stop_price = excluded.stop_price,
				target_price = excluded.target_price,
				current_price = excluded.current_price,
				entry_commission = excluded.entry_commission,
				opened_at = excluded.opened_at`,
			p.Symbol, p.Quantity, p.EntryPrice, p.StopPrice, p.TargetPrice,
			p.CurrentPrice, p.EntryCommission, p.OpenedAt,
		); err != nil {
			return err
		}
	case mut.Removed != "":
		if _, err := tx.Exec(`DELETE FROM positions WHERE symbol = ?`, mut.Removed); err != nil {
			return err
		}
	}

	if err := saveAccount(tx, mut.Account); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) SaveAccount(a Account) error {
	return saveAccount(s.db, a)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveAccount(e execer, a Account) error {
	_, err := e.Exec(`
		INSERT INTO account (id, cash, total_value, last_reconciled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cash = excluded.cash,
			total_value = excluded.total_value,
			last_reconciled = excluded.last_reconciled`,
		a.ID, a.Cash, a.TotalValue, a.LastReconciled,
	)
	return err
}

func (s *SQLite) RecordPerformance(rec PerformanceRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO performance (time, total_value, cash, positions_value)
		VALUES (?, ?, ?, ?)`,
		rec.Time, rec.TotalValue, rec.Cash, rec.PositionsValue,
	)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
