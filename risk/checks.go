package risk

import "fmt"

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	PlannedRisk    float64 // $ lost if the stop fills exactly
	PlannedRiskPct float64
	PlannedRR      float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate applies the policy to a planned entry. All checks run so the
// decision lists every violation, not just the first.
func Evaluate(p Policy, intent TradeIntent, acct AccountSnapshot, pnl PnLSnapshot) Decision {
	d := Decision{Allowed: true}

	if intent.Entry <= 0 || intent.Stop <= 0 {
		d.add("NO_STOP_OR_ENTRY", "entry and stop must be set")
		return d
	}
	if intent.Quantity <= 0 {
		d.add("NO_QUANTITY", "quantity must be positive")
		return d
	}

	d.PlannedRisk = intent.Quantity * (intent.Entry - intent.Stop)
	d.PlannedRiskPct = RiskPct(d.PlannedRisk, acct.Equity)
	d.PlannedRR = RR(intent.Entry, intent.Stop, intent.Target)

	if p.MinRR > 0 && d.PlannedRR < p.MinRR {
		d.add("RR_TOO_LOW",
			fmt.Sprintf("RR %.2f below minimum %.2f", d.PlannedRR, p.MinRR))
	}

	if p.MaxOpenPositions > 0 && acct.OpenPositions >= p.MaxOpenPositions {
		d.add("TOO_MANY_OPEN_POSITIONS",
			fmt.Sprintf("open positions %d >= max %d", acct.OpenPositions, p.MaxOpenPositions))
	}

	if p.MaxPositionFraction > 0 && acct.Equity > 0 {
		frac := intent.Quantity * intent.Entry / acct.Equity
		if frac > p.MaxPositionFraction {
			d.add("POSITION_TOO_LARGE",
				fmt.Sprintf("notional %.2f%% of equity exceeds max %.2f%%",
					100*frac, 100*p.MaxPositionFraction))
		}
	}

	if p.MaxDailyLossPct > 0 {
		limit := -p.MaxDailyLossPct * acct.Equity
		if pnl.DayRealized <= limit {
			d.add("DAILY_LOSS_LIMIT",
				fmt.Sprintf("day realized %.2f <= limit %.2f", pnl.DayRealized, limit))
		}
	}

	return d
}
