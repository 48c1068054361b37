package model

import "main/internal/model/enum"

// OrderEvent is a single on-chain order lifecycle notification.
// Events for one order arrive in causal order: new, zero or more
// takes, then optionally a cancel. A take that consumes the remaining
// size terminates the order without a separate event.
type OrderEvent struct {
	Kind    enum.OrderEventKind
	OrderID uint64
	Owner   string
	Pair    string
	Side    enum.OrderSide
	Price   Price
	Size    Size
	TsNano  int64
}
