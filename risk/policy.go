package risk

import "time"

// Policy holds account-level limits checked before every entry.
type Policy struct {
	// Exposure limits
	MaxOpenPositions    int     // e.g. 3
	MaxPositionFraction float64 // notional as fraction of equity, e.g. 0.25

	// Trade constraints
	MinRR float64 // e.g. 1.5

	// Circuit breaker
	MaxDailyLossPct float64 // e.g. 0.03
}

// TradeIntent is a fully planned entry awaiting approval.
type TradeIntent struct {
	Now      time.Time
	Symbol   string
	Quantity float64

	Entry  float64
	Stop   float64
	Target float64
}

// AccountSnapshot is the ledger state the policy evaluates against.
type AccountSnapshot struct {
	Cash          float64
	Equity        float64
	OpenPositions int
}

// PnLSnapshot carries realized results for the circuit breaker.
type PnLSnapshot struct {
	DayRealized float64
}
