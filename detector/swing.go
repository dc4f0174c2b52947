package detector

import "github.com/rustyeddy/falcon/market"

// maxSwings bounds how many recent swing highs feed the resistance level.
const maxSwings = 10

// swingTracker keeps a rolling window of bars and derives resistance from
// fractal swing highs: a bar whose high strictly exceeds the highs of the
// two bars on either side. Resistance is recomputed from scratch on every
// push so it can never be partially stale.
type swingTracker struct {
	lookback int
	bars     []market.Bar
}

func newSwingTracker(lookback int) *swingTracker {
	return &swingTracker{lookback: lookback}
}

// Push appends a bar to the rolling window, discarding bars that have
// slid out of the lookback.
func (s *swingTracker) Push(bar market.Bar) {
	s.bars = append(s.bars, bar)
	if len(s.bars) > s.lookback {
		s.bars = s.bars[len(s.bars)-s.lookback:]
	}
}

// Resistance returns the highest recent swing high and whether one exists.
// A fractal needs two bars on each side, so the two newest bars can never
// be swing highs themselves.
func (s *swingTracker) Resistance() (float64, bool) {
	if len(s.bars) < s.lookback {
		return 0, false
	}

	var swings []float64
	for i := 2; i < len(s.bars)-2; i++ {
		h := s.bars[i].High
		if h > s.bars[i-1].High && h > s.bars[i-2].High &&
			h > s.bars[i+1].High && h > s.bars[i+2].High {
			swings = append(swings, h)
		}
	}
	if len(swings) > maxSwings {
		swings = swings[len(swings)-maxSwings:]
	}
	if len(swings) == 0 {
		return 0, false
	}

	max := swings[0]
	for _, v := range swings[1:] {
		if v > max {
			max = v
		}
	}
	return max, true
}
