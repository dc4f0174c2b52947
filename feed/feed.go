// Package feed supplies intraday bars to sessions, either replayed from
// CSV files or fetched from the Alpaca market data API.
package feed

import "github.com/rustyeddy/falcon/market"

// Source yields bars in time order. Next returns ok=false at the end of
// the stream.
type Source interface {
	Next() (market.Bar, bool, error)
	Close() error
}
