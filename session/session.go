// Package session runs the trading loop: it routes bars to per-symbol
// detectors, forwards entry signals to the engine and keeps the
// reconciler ticking alongside.
package session

import (
	"log"
	"time"

	"github.com/rustyeddy/falcon/detector"
	"github.com/rustyeddy/falcon/engine"
	"github.com/rustyeddy/falcon/market"
)

// Session binds one symbol's detector to the shared engine. Exits are
// checked before the detector sees the bar so a stop fill and a fresh
// entry signal on the same bar cannot stack.
type Session struct {
	symbol  string
	det     *detector.Detector
	eng     *engine.Engine
	lastBar time.Time
}

func New(symbol string, cfg detector.Config, eng *engine.Engine) *Session {
	return &Session{
		symbol: symbol,
		det:    detector.New(symbol, cfg),
		eng:    eng,
	}
}

func (s *Session) Symbol() string { return s.symbol }

// State exposes the detector state for status reporting.
func (s *Session) State() detector.State { return s.det.State() }

// OnBar advances the session by one bar. Malformed or out-of-order bars
// are logged and skipped; only engine and ledger failures propagate.
func (s *Session) OnBar(bar market.Bar) error {
	if bar.Symbol != s.symbol {
		return nil
	}

	// Malformed or regressed bars must not reach the engine either; a
	// bogus low would stop a live position out at a phantom price.
	if err := bar.Validate(); err != nil {
		log.Printf("session %s: skip bar: %v", s.symbol, err)
		return nil
	}
	if !s.lastBar.IsZero() && !bar.Time.After(s.lastBar) {
		log.Printf("session %s: skip out-of-order bar %s", s.symbol, bar.Time.Format("15:04:05"))
		return nil
	}
	s.lastBar = bar.Time

	if _, err := s.eng.OnBar(bar); err != nil {
		return err
	}

	ev, err := s.det.Observe(bar)
	if err != nil {
		log.Printf("session %s: skip bar %s: %v", s.symbol, bar.Time.Format("15:04:05"), err)
		return nil
	}
	if ev == nil || ev.Type != detector.EventEntry {
		return nil
	}

	ord, err := s.eng.OnEntrySignal(*ev)
	if err != nil {
		return err
	}
	if ord != nil && ord.Status == engine.OrderRejected {
		log.Printf("session %s: entry at %.2f rejected: %s", s.symbol, ev.Price, ord.Reason)
	}
	return nil
}
