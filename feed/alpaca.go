package feed

import (
	"fmt"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/rustyeddy/falcon/market"
)

// AlpacaSource fetches one-minute bars from the Alpaca market data API
// and replays them in timestamp order across symbols. Credentials come
// from the standard APCA_* environment variables.
type AlpacaSource struct {
	client  *marketdata.Client
	symbols []string
	from    time.Time
	to      time.Time

	bars []market.Bar
	pos  int
}

func NewAlpacaSource(symbols []string, from, to time.Time) *AlpacaSource {
	return &AlpacaSource{
		client:  marketdata.NewClient(marketdata.ClientOpts{}),
		symbols: symbols,
		from:    from,
		to:      to,
	}
}

// Next fetches all bars on first use, then iterates. One upfront request
// per symbol keeps replay deterministic once the data is in hand.
func (s *AlpacaSource) Next() (market.Bar, bool, error) {
	if s.bars == nil {
		if err := s.fetch(); err != nil {
			return market.Bar{}, false, err
		}
	}
	if s.pos >= len(s.bars) {
		return market.Bar{}, false, nil
	}
	b := s.bars[s.pos]
	s.pos++
	return b, true, nil
}

func (s *AlpacaSource) Close() error { return nil }

func (s *AlpacaSource) fetch() error {
	all := make([]market.Bar, 0, 1024)

	for _, sym := range s.symbols {
		bars, err := s.client.GetBars(sym, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneMin,
			Start:     s.from,
			End:       s.to,
		})
		if err != nil {
			return fmt.Errorf("get bars %s: %w", sym, err)
		}

		for _, b := range bars {
			all = append(all, market.Bar{
				Symbol: sym,
				Time:   b.Timestamp,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: float64(b.Volume),
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Time.Before(all[j].Time)
	})
	s.bars = all
	return nil
}
