// Package market holds the primitive market-data types shared by the
// detector, engine and ledger.
package market

import (
	"fmt"
	"time"
)

// Bar is a single OHLCV aggregate for one instrument. Bars are immutable
// once produced and arrive in strictly increasing timestamp order; the
// consumer decides what to do with duplicates and regressions.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks the bar for internal consistency: a real timestamp, a
// positive close, and open/close inside the high-low range.
func (b Bar) Validate() error {
	switch {
	case b.Time.IsZero():
		return fmt.Errorf("bar %s: zero timestamp", b.Symbol)
	case b.High < b.Low:
		return fmt.Errorf("bar %s: high %.4f below low %.4f", b.Symbol, b.High, b.Low)
	case b.Open < b.Low || b.Open > b.High:
		return fmt.Errorf("bar %s: open %.4f outside range", b.Symbol, b.Open)
	case b.Close < b.Low || b.Close > b.High:
		return fmt.Errorf("bar %s: close %.4f outside range", b.Symbol, b.Close)
	case b.Close <= 0:
		return fmt.Errorf("bar %s: non-positive close", b.Symbol)
	}
	return nil
}

// Range returns the high-low spread of the bar.
func (b Bar) Range() float64 { return b.High - b.Low }

// Body returns the absolute open-close distance.
func (b Bar) Body() float64 {
	if b.Close >= b.Open {
		return b.Close - b.Open
	}
	return b.Open - b.Close
}

// Bullish reports whether the bar closed above its open.
func (b Bar) Bullish() bool { return b.Close > b.Open }

// LowerWick returns the distance from the bottom of the body to the low.
func (b Bar) LowerWick() float64 {
	bodyLow := b.Open
	if b.Close < bodyLow {
		bodyLow = b.Close
	}
	return bodyLow - b.Low
}

// UpperWick returns the distance from the high to the top of the body.
func (b Bar) UpperWick() float64 {
	bodyHigh := b.Open
	if b.Close > bodyHigh {
		bodyHigh = b.Close
	}
	return b.High - bodyHigh
}

// ClosesInTopQuartile reports whether the close sits in the top quarter of
// the bar's range. A zero-range bar trivially qualifies.
func (b Bar) ClosesInTopQuartile() bool {
	r := b.Range()
	if r <= 0 {
		return true
	}
	return b.Close >= b.High-r/4
}

// Engulfs reports a bullish engulfing relation: this bar is bullish and its
// body fully contains the previous bar's body.
func (b Bar) Engulfs(prev Bar) bool {
	if !b.Bullish() {
		return false
	}
	bodyLow, bodyHigh := b.Open, b.Close
	prevLow, prevHigh := prev.Open, prev.Close
	if prevLow > prevHigh {
		prevLow, prevHigh = prevHigh, prevLow
	}
	return bodyLow <= prevLow && bodyHigh >= prevHigh
}

// Side is the direction of an order.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}
