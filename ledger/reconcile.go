package ledger

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/falcon/journal"
)

// Report describes the outcome of one reconciliation pass.
type Report struct {
	At         time.Time
	Stored     decimal.Decimal
	Calculated decimal.Decimal
	Delta      decimal.Decimal
	Corrected  bool
	Alarm      bool
}

// AlarmFunc is invoked when a reconciliation delta exceeds the alert
// thresholds. It runs outside the ledger lock, so handlers may call back
// into the ledger.
type AlarmFunc func(Report)

// Reconciler periodically recomputes account equity from first
// principles (cash plus marked position value) and corrects the cached
// total when it drifts. The computed value always wins.
type Reconciler struct {
	ledger *Ledger

	epsilon  decimal.Decimal
	alertAbs decimal.Decimal
	alertPct decimal.Decimal

	onAlarm AlarmFunc
	now     func() time.Time
}

// NewReconciler returns a reconciler with the default thresholds: drift
// under one cent is ignored, drift over $100 or 1% of computed equity
// raises an alarm.
func NewReconciler(l *Ledger, onAlarm AlarmFunc) *Reconciler {
	return &Reconciler{
		ledger:   l,
		epsilon:  decimal.NewFromFloat(0.01),
		alertAbs: decimal.NewFromInt(100),
		alertPct: decimal.NewFromFloat(0.01),
		onAlarm:  onAlarm,
		now:      time.Now,
	}
}

// Reconcile runs one pass. It is idempotent: a second pass over an
// unchanged ledger finds zero delta. Every pass stamps LastReconciled,
// persists the account and appends a performance record, even when
// nothing drifted.
func (r *Reconciler) Reconcile() (Report, error) {
	l := r.ledger
	l.mu.Lock()

	positionsValue := decimal.Zero
	for _, pos := range l.positions {
		positionsValue = positionsValue.Add(pos.MarketValue())
	}
	calc := l.account.Cash.Add(positionsValue)

	rep := Report{
		At:         r.now(),
		Stored:     l.account.TotalValue,
		Calculated: calc,
		Delta:      calc.Sub(l.account.TotalValue),
	}

	if rep.Delta.Abs().GreaterThan(r.epsilon) {
		rep.Corrected = true
		if rep.Delta.Abs().GreaterThan(r.alertAbs) ||
			rep.Delta.Abs().GreaterThan(r.alertPct.Mul(calc.Abs())) {
			rep.Alarm = true
		}
	}

	l.account.TotalValue = calc
	l.account.LastReconciled = rep.At

	perf := journal.PerformanceRecord{
		Time:           rep.At,
		TotalValue:     calc,
		Cash:           l.account.Cash,
		PositionsValue: positionsValue,
	}

	// Persist before releasing the lock. A fill committed between the
	// snapshot and the save would otherwise be overwritten with stale
	// cash. Only the alarm callback runs unlocked.
	err := l.store.SaveAccount(l.account)
	if err == nil {
		err = l.store.RecordPerformance(perf)
	}
	l.mu.Unlock()
	if err != nil {
		return rep, err
	}

	if rep.Alarm && r.onAlarm != nil {
		r.onAlarm(rep)
	}
	return rep, nil
}

// Run reconciles every interval until ctx is cancelled, running one pass
// immediately on start.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if rep, err := r.Reconcile(); err != nil {
			log.Printf("reconcile: %v", err)
		} else if rep.Corrected {
			log.Printf("reconcile: corrected %s -> %s (delta %s)",
				rep.Stored.StringFixed(2), rep.Calculated.StringFixed(2), rep.Delta.StringFixed(2))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
