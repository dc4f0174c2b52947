// Package engine turns detector entry signals into sized, commissioned
// fills and manages the lifecycle of open positions against incoming
// bars. All balance changes go through the ledger; the engine never
// touches cash directly.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/falcon/detector"
	"github.com/rustyeddy/falcon/internal/id"
	"github.com/rustyeddy/falcon/journal"
	"github.com/rustyeddy/falcon/ledger"
	"github.com/rustyeddy/falcon/market"
	"github.com/rustyeddy/falcon/risk"
)

// Listener is notified about trade lifecycle events. Callbacks run after
// the ledger has committed, outside any engine lock, so they may query
// the ledger freely.
type Listener interface {
	OnFill(journal.Fill)
	OnPositionOpened(journal.Position)
	OnPositionClosed(journal.Fill)
}

type Engine struct {
	mu          sync.Mutex
	cfg         Config
	ledger      *ledger.Ledger
	listener    Listener
	dayRealized float64
}

func New(cfg Config, led *ledger.Ledger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, ledger: led}, nil
}

// SetListener sets an optional lifecycle listener.
func (e *Engine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// OnEntrySignal sizes and places a long entry for an EntryReady event.
// A signal for a symbol with an open position is ignored and returns no
// order. Business refusals (zero size, policy violations, insufficient
// cash) come back as a rejected order with a nil error; only ledger
// transaction failures surface as errors.
func (e *Engine) OnEntrySignal(ev detector.Event) (*Order, error) {
	if ev.Type != detector.EventEntry {
		return nil, fmt.Errorf("engine: not an entry event: %v", ev.Type)
	}
	if _, open := e.ledger.Position(ev.Symbol); open {
		return nil, nil
	}

	cash, _ := e.ledger.Cash().Float64()
	sized := risk.Calculate(risk.Inputs{
		Cash:         cash,
		SizeFraction: e.cfg.SizeFraction,
		Price:        ev.Price,
		StopPct:      e.cfg.StopPct,
		RiskReward:   e.cfg.RiskReward,
	})

	ord := &Order{
		ID:       id.New(),
		Symbol:   ev.Symbol,
		Side:     market.Buy,
		Quantity: sized.Quantity,
		Price:    ev.Price,
		Status:   OrderPending,
		Time:     ev.Time,
	}

	if sized.Quantity <= 0 {
		ord.Status = OrderRejected
		ord.Reason = "ZERO_QUANTITY"
		return ord, nil
	}

	decision := risk.Evaluate(e.cfg.Policy,
		risk.TradeIntent{
			Now:      ev.Time,
			Symbol:   ev.Symbol,
			Quantity: sized.Quantity,
			Entry:    ev.Price,
			Stop:     sized.Stop,
			Target:   sized.Target,
		},
		e.accountSnapshot(cash),
		risk.PnLSnapshot{DayRealized: e.DayRealized()})
	if !decision.Allowed {
		ord.Status = OrderRejected
		ord.Reason = violationCodes(decision)
		return ord, nil
	}

	fill := journal.Fill{
		ID:          id.New(),
		OrderID:     ord.ID,
		Symbol:      ev.Symbol,
		Side:        market.Buy,
		Quantity:    sized.Quantity,
		Price:       ev.Price,
		Commission:  e.commission(sized.Notional),
		StopPrice:   sized.Stop,
		TargetPrice: sized.Target,
		Time:        ev.Time,
		Reason:      "Entry",
	}

	applied, err := e.ledger.ApplyFill(fill)
	switch {
	case errors.Is(err, ledger.ErrInsufficientCash):
		ord.Status = OrderRejected
		ord.Reason = "INSUFFICIENT_CASH"
		return ord, nil
	case errors.Is(err, ledger.ErrDuplicatePosition):
		ord.Status = OrderRejected
		ord.Reason = "POSITION_OPEN"
		return ord, nil
	case err != nil:
		return nil, err
	}

	ord.Status = OrderFilled

	if l := e.currentListener(); l != nil {
		l.OnFill(applied)
		if pos, ok := e.ledger.Position(ev.Symbol); ok {
			l.OnPositionOpened(pos)
		}
	}
	return ord, nil
}

// OnBar checks the open position for the bar's symbol against its exit
// conditions. When stop and target are both touched within one bar the
// stop wins. Bars past the trading window flatten at the close. A bar
// that triggers nothing just refreshes the position's mark.
func (e *Engine) OnBar(bar market.Bar) (*journal.Fill, error) {
	pos, open := e.ledger.Position(bar.Symbol)
	if !open {
		return nil, nil
	}

	var price float64
	var reason string
	switch {
	case hitStop(pos, bar):
		price, reason = pos.StopPrice, "StopLoss"
	case hitTarget(pos, bar):
		price, reason = pos.TargetPrice, "TakeProfit"
	case e.cfg.Window.Ended(bar.Time):
		price, reason = bar.Close, "EndOfWindow"
	default:
		e.ledger.MarkToMarket(bar.Symbol, bar.Close)
		return nil, nil
	}

	return e.exit(pos, price, bar.Time, reason)
}

// CloseAll flattens every open position at its last marked price, used
// at shutdown when the feed ends before the window does.
func (e *Engine) CloseAll(at time.Time, reason string) ([]journal.Fill, error) {
	if reason == "" {
		reason = "ManualClose"
	}

	var fills []journal.Fill
	for _, pos := range e.ledger.Positions() {
		f, err := e.exit(pos, pos.CurrentPrice, at, reason)
		if err != nil {
			return fills, err
		}
		if f != nil {
			fills = append(fills, *f)
		}
	}
	return fills, nil
}

func (e *Engine) exit(pos journal.Position, price float64, at time.Time, reason string) (*journal.Fill, error) {
	notional := pos.Quantity * price
	fill := journal.Fill{
		ID:         id.New(),
		OrderID:    id.New(),
		Symbol:     pos.Symbol,
		Side:       market.Sell,
		Quantity:   pos.Quantity,
		Price:      price,
		Commission: e.commission(notional),
		Time:       at,
		Reason:     reason,
	}

	applied, err := e.ledger.ApplyFill(fill)
	if err != nil {
		return nil, fmt.Errorf("exit %s (%s): %w", pos.Symbol, reason, err)
	}

	pl, _ := applied.RealizedPL.Float64()
	e.mu.Lock()
	e.dayRealized += pl
	e.mu.Unlock()

	if l := e.currentListener(); l != nil {
		l.OnFill(applied)
		l.OnPositionClosed(applied)
	}
	return &applied, nil
}

// DayRealized returns the realized P&L accumulated since the last reset.
func (e *Engine) DayRealized() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dayRealized
}

// ResetDay clears the realized P&L counter at the start of a session.
func (e *Engine) ResetDay() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dayRealized = 0
}

func (e *Engine) commission(notional float64) decimal.Decimal {
	return decimal.NewFromFloat(notional).
		Mul(decimal.NewFromFloat(e.cfg.CommissionRate)).
		Round(2)
}

func (e *Engine) accountSnapshot(cash float64) risk.AccountSnapshot {
	positions := e.ledger.Positions()
	equity := decimal.NewFromFloat(cash)
	for _, pos := range positions {
		equity = equity.Add(pos.MarketValue())
	}
	eq, _ := equity.Float64()

	return risk.AccountSnapshot{
		Cash:          cash,
		Equity:        eq,
		OpenPositions: len(positions),
	}
}

func (e *Engine) currentListener() Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listener
}

func violationCodes(d risk.Decision) string {
	codes := make([]string, 0, len(d.Violations))
	for _, v := range d.Violations {
		codes = append(codes, v.Code)
	}
	return strings.Join(codes, ",")
}
