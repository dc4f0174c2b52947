package engine

import (
	"fmt"

	"github.com/rustyeddy/falcon/market"
	"github.com/rustyeddy/falcon/risk"
)

// Config holds the sizing and exit parameters applied to every trade.
type Config struct {
	SizeFraction   float64 // fraction of cash per entry
	StopPct        float64 // stop distance below entry
	RiskReward     float64 // target distance as multiple of stop distance
	CommissionRate float64 // per-side, on notional
	Window         market.Window
	Policy         risk.Policy
}

func DefaultConfig() Config {
	w, _ := market.NewWindow("09:30", "11:00")
	return Config{
		SizeFraction:   0.20,
		StopPct:        0.02,
		RiskReward:     2.0,
		CommissionRate: 0.001,
		Window:         w,
		Policy: risk.Policy{
			MaxOpenPositions: 5,
			MinRR:            1.5,
		},
	}
}

func (c Config) Validate() error {
	if c.SizeFraction <= 0 || c.SizeFraction > 1 {
		return fmt.Errorf("engine: size fraction %v out of (0, 1]", c.SizeFraction)
	}
	if c.StopPct <= 0 || c.StopPct >= 1 {
		return fmt.Errorf("engine: stop pct %v out of (0, 1)", c.StopPct)
	}
	if c.RiskReward <= 0 {
		return fmt.Errorf("engine: risk reward %v must be positive", c.RiskReward)
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("engine: commission rate %v must not be negative", c.CommissionRate)
	}
	return nil
}
