package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rustyeddy/falcon/market"
)

func sideFromString(s string) (market.Side, error) {
	switch s {
	case "buy":
		return market.Buy, nil
	case "sell":
		return market.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

// GetFill returns a single fill record by ID.
func (s *SQLite) GetFill(fillID string) (Fill, error) {
	row := s.db.QueryRow(`
		SELECT fill_id, order_id, symbol, side, quantity, price, commission, cash_delta, realized_pl, stop_price, target_price, time, reason
		FROM fills
		WHERE fill_id = ?`, fillID)

	rec, err := scanFill(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Fill{}, fmt.Errorf("fill %q not found", fillID)
		}
		return Fill{}, err
	}
	return rec, nil
}

// ListFillsBetween returns fills whose time is within [start, end), oldest
// first.
func (s *SQLite) ListFillsBetween(start, end time.Time) ([]Fill, error) {
	rows, err := s.db.Query(`
		SELECT fill_id, order_id, symbol, side, quantity, price, commission, cash_delta, realized_pl, stop_price, target_price, time, reason
		FROM fills
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fill
	for rows.Next() {
		rec, err := scanFill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFill(row rowScanner) (Fill, error) {
	var rec Fill
	var side string
	if err := row.Scan(
		&rec.ID,
		&rec.OrderID,
		&rec.Symbol,
		&side,
		&rec.Quantity,
		&rec.Price,
		&rec.Commission,
		&rec.CashDelta,
		&rec.RealizedPL,
		&rec.StopPrice,
		&rec.TargetPrice,
		&rec.Time,
		&rec.Reason,
	); err != nil {
		return Fill{}, err
	}
	var err error
	rec.Side, err = sideFromString(side)
	return rec, err
}

// LoadAccount returns the singleton account row, or false when none has
// been written yet.
func (s *SQLite) LoadAccount(id string) (Account, bool, error) {
	var a Account
	var last sql.NullTime
	row := s.db.QueryRow(`
		SELECT id, cash, total_value, last_reconciled
		FROM account WHERE id = ?`, id)
	if err := row.Scan(&a.ID, &a.Cash, &a.TotalValue, &last); err != nil {
		if err == sql.ErrNoRows {
			return Account{}, false, nil
		}
		return Account{}, false, err
	}
	if last.Valid {
		a.LastReconciled = last.Time
	}
	return a, true, nil
}

// LoadPositions returns the full position table keyed by symbol.
func (s *SQLite) LoadPositions() (map[string]Position, error) {
	rows, err := s.db.Query(`
		SELECT symbol, quantity, entry_price, stop_price, target_price, current_price, entry_commission, opened_at
		FROM positions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Position)
	for rows.Next() {
		var p Position
		if err := rows.Scan(
			&p.Symbol, &p.Quantity, &p.EntryPrice, &p.StopPrice,
			&p.TargetPrice, &p.CurrentPrice, &p.EntryCommission, &p.OpenedAt,
		); err != nil {
			return nil, err
		}
		out[p.Symbol] = p
	}
	return out, rows.Err()
}

// ListPerformanceBetween returns performance rows within [start, end),
// oldest first.
func (s *SQLite) ListPerformanceBetween(start, end time.Time) ([]PerformanceRecord, error) {
	rows, err := s.db.Query(`
		SELECT time, total_value, cash, positions_value
		FROM performance
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PerformanceRecord
	for rows.Next() {
		var rec PerformanceRecord
		if err := rows.Scan(&rec.Time, &rec.TotalValue, &rec.Cash, &rec.PositionsValue); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
