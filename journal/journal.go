// Package journal is the persistence boundary of the trading core: an
// append-only fill history, an upsertable position table, a singleton
// account row, and an append-only performance history. Every write the
// ledger performs goes through a single atomic Store operation.
package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/falcon/market"
)

// Fill is the immutable record of a completed order. CashDelta is the
// signed effect on account cash, stamped by the ledger when the fill is
// applied; the sum of all CashDeltas plus initial capital equals current
// cash at all times.
type Fill struct {
	ID          string
	OrderID     string
	Symbol      string
	Side        market.Side
	Quantity    float64
	Price       float64
	Commission  decimal.Decimal
	CashDelta   decimal.Decimal
	RealizedPL  decimal.Decimal // exits only
	StopPrice   float64         // entries only
	TargetPrice float64         // entries only
	Time        time.Time
	Reason      string
}

// Position is one open holding. The ledger owns these records exclusively;
// CurrentPrice is the latest mark and never affects cash on its own.
type Position struct {
	Symbol          string
	Quantity        float64
	EntryPrice      float64
	StopPrice       float64
	TargetPrice     float64
	CurrentPrice    float64
	EntryCommission decimal.Decimal
	OpenedAt        time.Time
}

// MarketValue returns quantity times the latest mark, rounded to cents.
func (p Position) MarketValue() decimal.Decimal {
	return decimal.NewFromFloat(p.Quantity).
		Mul(decimal.NewFromFloat(p.CurrentPrice)).
		Round(2)
}

// Account is the singleton balance record for a trading session.
// TotalValue is a cached derived value; cash plus marked position value is
// always the authority and reconciliation corrects any drift.
type Account struct {
	ID             string
	Cash           decimal.Decimal
	TotalValue     decimal.Decimal
	LastReconciled time.Time
}

// PerformanceRecord is one row of the append-only reconciliation and
// performance history.
type PerformanceRecord struct {
	Time           time.Time
	TotalValue     decimal.Decimal
	Cash           decimal.Decimal
	PositionsValue decimal.Decimal
}

// Mutation is the atomic unit of persistence for one applied fill: the
// fill row, the resulting position state, and the updated account. When
// Position is nil the position named by Removed was closed and its row is
// deleted.
type Mutation struct {
	Fill     Fill
	Position *Position
	Removed  string
	Account  Account
}

// Store persists ledger state. Apply must be all-or-nothing: a failed
// Apply leaves no trace of the mutation.
type Store interface {
	Apply(Mutation) error
	SaveAccount(Account) error
	RecordPerformance(PerformanceRecord) error
	Close() error
}
