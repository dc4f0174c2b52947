package risk

import "math"

// Inputs sizes one long equity entry from available cash.
type Inputs struct {
	Cash         float64
	SizeFraction float64 // fraction of cash committed per trade, e.g. 0.20
	Price        float64
	StopPct      float64 // stop distance below entry, e.g. 0.02
	RiskReward   float64 // target distance as a multiple of stop distance
}

type Result struct {
	Quantity float64 // whole shares, never fractional
	Stop     float64
	Target   float64
	Notional float64 // Quantity * Price before commission
}

// Calculate allocates floor(SizeFraction * Cash / Price) whole shares and
// derives the protective stop and profit target from the entry price. A
// quantity of zero means the account cannot afford a single share at the
// configured fraction; the caller skips the trade.
func Calculate(in Inputs) Result {
	if in.Price <= 0 || in.Cash <= 0 || in.SizeFraction <= 0 {
		return Result{}
	}

	qty := math.Floor(in.SizeFraction * in.Cash / in.Price)
	if qty <= 0 {
		return Result{}
	}

	stop := in.Price * (1 - in.StopPct)
	target := in.Price + in.RiskReward*(in.Price-stop)

	return Result{
		Quantity: qty,
		Stop:     stop,
		Target:   target,
		Notional: qty * in.Price,
	}
}
