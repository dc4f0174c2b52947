// Package detector classifies an incoming bar stream into breakout, retest
// and entry events for one instrument.
//
// The detector is a per-symbol state machine:
//
//	Idle -> BreakoutPending -> RetestConfirmed -> EntryReady -> Idle
//
// Only one sequence is in flight at a time; a newer breakout above a higher
// resistance supersedes the active one. Any sequence still pending when the
// trading window closes is discarded.
package detector

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/falcon/market"
)

var (
	// ErrOutOfOrderBar reports a bar at or before the last observed
	// timestamp. The bar is skipped and detector state is unchanged.
	ErrOutOfOrderBar = errors.New("detector: bar out of order")

	// ErrMalformedBar reports a bar whose OHLC values are not internally
	// consistent. The bar is skipped and detector state is unchanged.
	ErrMalformedBar = errors.New("detector: malformed bar")
)

// State identifies the detector's position in the breakout/retest sequence.
type State int8

const (
	Idle State = iota
	BreakoutPending
	RetestConfirmed
	EntryReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case BreakoutPending:
		return "breakout-pending"
	case RetestConfirmed:
		return "retest-confirmed"
	case EntryReady:
		return "entry-ready"
	default:
		return fmt.Sprintf("state(%d)", int8(s))
	}
}

// EventType distinguishes the signal events a detector emits.
type EventType int8

const (
	EventBreakout EventType = iota + 1
	EventRetest
	EventEntry
)

func (e EventType) String() string {
	switch e {
	case EventBreakout:
		return "breakout"
	case EventRetest:
		return "retest"
	case EventEntry:
		return "entry"
	default:
		return fmt.Sprintf("event(%d)", int8(e))
	}
}

// Event is a signal emitted by Observe. Level is the broken resistance,
// Price the trigger price for the event type (breakout close, retest touch,
// or entry price).
type Event struct {
	Type   EventType
	Symbol string
	Level  float64
	Price  float64
	Time   time.Time
}

// Config holds the tunable detection parameters.
type Config struct {
	Lookback            int     // swing lookback in bars
	BreakoutThreshold   float64 // close must exceed resistance by this fraction
	RetestTolerance     float64 // band around the broken level, as a fraction
	RequireConfirmation bool    // demand a reversal candle before entry
	WickRatio           float64 // min lower wick as a fraction of bar range
	Window              market.Window
}

// DefaultConfig returns the parameters the strategy was tuned with.
func DefaultConfig() Config {
	w, _ := market.NewWindow("09:30", "11:00")
	return Config{
		Lookback:          20,
		BreakoutThreshold: 0.001,
		RetestTolerance:   0.003,
		WickRatio:         0.5,
		Window:            w,
	}
}

// Detector tracks swing levels and the active signal sequence for one
// symbol. It is not safe for concurrent use; drive it from a single
// goroutine, one bar at a time.
type Detector struct {
	cfg    Config
	symbol string

	swings *swingTracker

	state        State
	level        float64 // resistance broken by the active sequence
	breakoutTime time.Time
	retestBar    market.Bar // set while waiting on a confirmation candle
	prevBar      market.Bar
	havePrev     bool
	lastTime     time.Time
}

// New returns a Detector for symbol with cfg. Zero-valued tunables fall
// back to the defaults.
func New(symbol string, cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.Lookback <= 0 {
		cfg.Lookback = def.Lookback
	}
	if cfg.BreakoutThreshold <= 0 {
		cfg.BreakoutThreshold = def.BreakoutThreshold
	}
	if cfg.RetestTolerance <= 0 {
		cfg.RetestTolerance = def.RetestTolerance
	}
	if cfg.WickRatio <= 0 {
		cfg.WickRatio = def.WickRatio
	}
	return &Detector{
		cfg:    cfg,
		symbol: symbol,
		swings: newSwingTracker(cfg.Lookback),
	}
}

// State returns the current sequence state.
func (d *Detector) State() State { return d.state }

// Level returns the resistance level of the active sequence, or 0 when Idle.
func (d *Detector) Level() float64 {
	if d.state == Idle {
		return 0
	}
	return d.level
}

// Observe ingests one bar and returns at most one signal event. Bars that
// are out of order or malformed are skipped with an error and leave all
// state untouched.
func (d *Detector) Observe(bar market.Bar) (*Event, error) {
	if err := bar.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBar, err)
	}
	if !d.lastTime.IsZero() && !bar.Time.After(d.lastTime) {
		return nil, fmt.Errorf("%w: %s at %s, last %s",
			ErrOutOfOrderBar, bar.Symbol, bar.Time.Format(time.RFC3339), d.lastTime.Format(time.RFC3339))
	}
	d.lastTime = bar.Time

	d.swings.Push(bar)
	prev, havePrev := d.prevBar, d.havePrev
	d.prevBar, d.havePrev = bar, true

	// A sequence that outlives the trading window is stale; signals must
	// not fire outside the intended horizon.
	if !d.cfg.Window.Contains(bar.Time) {
		d.reset()
		return nil, nil
	}

	resistance, ok := d.swings.Resistance()

	// Breakout first: from Idle, or superseding the active sequence when a
	// higher resistance has formed and broken.
	if ok && bar.Close > resistance*(1+d.cfg.BreakoutThreshold) {
		if d.state == Idle || resistance > d.level {
			d.state = BreakoutPending
			d.level = resistance
			d.breakoutTime = bar.Time
			return &Event{
				Type:   EventBreakout,
				Symbol: d.symbol,
				Level:  resistance,
				Price:  bar.Close,
				Time:   bar.Time,
			}, nil
		}
	}

	switch d.state {
	case BreakoutPending:
		lower := d.level * (1 - d.cfg.RetestTolerance)
		upper := d.level * (1 + d.cfg.RetestTolerance)

		// Falling back through the level beyond tolerance invalidates the
		// setup outright.
		if bar.Close < lower {
			d.reset()
			return nil, nil
		}
		if bar.Low >= lower && bar.Low <= upper {
			if !d.cfg.RequireConfirmation {
				return d.fireEntry(bar.Low, bar.Time), nil
			}
			if d.confirms(bar, prev, havePrev) {
				return d.fireEntry(bar.Close, bar.Time), nil
			}
			d.state = RetestConfirmed
			d.retestBar = bar
			return &Event{
				Type:   EventRetest,
				Symbol: d.symbol,
				Level:  d.level,
				Price:  bar.Low,
				Time:   bar.Time,
			}, nil
		}
		return nil, nil

	case RetestConfirmed:
		// The confirmation candle must be the retest bar or the one after.
		if d.confirms(bar, d.retestBar, true) {
			return d.fireEntry(bar.Close, bar.Time), nil
		}
		d.reset()
		return nil, nil

	default:
		return nil, nil
	}
}

// fireEntry emits the one-shot entry signal and re-arms the detector.
func (d *Detector) fireEntry(price float64, t time.Time) *Event {
	ev := &Event{
		Type:   EventEntry,
		Symbol: d.symbol,
		Level:  d.level,
		Price:  price,
		Time:   t,
	}
	d.reset()
	return ev
}

// confirms reports whether bar qualifies as a reversal candle: a long lower
// wick, a bullish engulfing of prev, or a close in the top quartile of the
// bar's range.
func (d *Detector) confirms(bar, prev market.Bar, havePrev bool) bool {
	if r := bar.Range(); r > 0 && bar.LowerWick() >= d.cfg.WickRatio*r {
		return true
	}
	if havePrev && bar.Engulfs(prev) {
		return true
	}
	return bar.ClosesInTopQuartile()
}

func (d *Detector) reset() {
	d.state = Idle
	d.level = 0
	d.breakoutTime = time.Time{}
	d.retestBar = market.Bar{}
}
