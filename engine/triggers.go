package engine

import (
	"github.com/rustyeddy/falcon/journal"
	"github.com/rustyeddy/falcon/market"
)

func hitStop(pos journal.Position, b market.Bar) bool {
	return pos.StopPrice > 0 && b.Low <= pos.StopPrice
}

func hitTarget(pos journal.Position, b market.Bar) bool {
	return pos.TargetPrice > 0 && b.High >= pos.TargetPrice
}
