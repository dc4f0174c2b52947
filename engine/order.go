package engine

import (
	"time"

	"github.com/rustyeddy/falcon/market"
)

type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderFilled
	OrderRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "pending"
	case OrderFilled:
		return "filled"
	case OrderRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Order is the record of one entry attempt. Rejections keep the order
// around with the refusal reason so sessions can report why a signal
// produced no position.
type Order struct {
	ID       string
	Symbol   string
	Side     market.Side
	Quantity float64
	Price    float64 // requested fill price
	Status   OrderStatus
	Time     time.Time
	Reason   string // refusal code when rejected
}
