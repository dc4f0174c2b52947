package market

import (
	"fmt"
	"time"
)

// Window is a bounded intraday trading interval, expressed as wall-clock
// offsets from midnight in the feed's timezone. Both bounds are inclusive.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// NewWindow parses "HH:MM" start and end clock times into a Window.
func NewWindow(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	if e <= s {
		return Window{}, fmt.Errorf("window end %s must be after start %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// Contains reports whether t's wall-clock time falls inside the window.
func (w Window) Contains(t time.Time) bool {
	c := clockOf(t)
	return c >= w.Start && c <= w.End
}

// Ended reports whether t's wall-clock time is at or past the window end.
func (w Window) Ended(t time.Time) bool {
	return clockOf(t) >= w.End
}
