package book

import (
	"errors"

	"main/internal/model"
	"main/internal/model/enum"
)

var (
	ErrDuplicateOrder   = errors.New("book: order already exists")
	ErrUnknownOrder     = errors.New("book: order not found")
	ErrUnsupportedEvent = errors.New("book: unsupported order event kind")
)

// ActiveOrder is the local view of one resting limit order.
type ActiveOrder struct {
	ID    uint64
	Owner string
	Pair  string
	Side  enum.OrderSide
	Price model.Price
	Size  model.Size
}

// ActiveOrders applies order lifecycle events in causal order to the
// set of resting orders. Not safe for concurrent use; it belongs to a
// single FIFO consumer loop.
type ActiveOrders struct {
	orders map[uint64]*ActiveOrder
}

// NewActiveOrders creates an empty tracker.
func NewActiveOrders() *ActiveOrders {
	return &ActiveOrders{orders: make(map[uint64]*ActiveOrder)}
}

// Apply updates the tracker from one lifecycle event and returns the
// affected order's latest state. A take that consumes the remaining
// size removes the order; sub-unit dust counts as fully taken.
func (a *ActiveOrders) Apply(ev model.OrderEvent) (ActiveOrder, error) {
	switch ev.Kind {
	case enum.OrderEventNew:
		if _, ok := a.orders[ev.OrderID]; ok {
			return ActiveOrder{}, ErrDuplicateOrder
		}
		o := &ActiveOrder{
			ID:    ev.OrderID,
			Owner: ev.Owner,
			Pair:  ev.Pair,
			Side:  ev.Side,
			Price: ev.Price,
			Size:  ev.Size,
		}
		a.orders[o.ID] = o
		return *o, nil

	case enum.OrderEventTake:
		o, ok := a.orders[ev.OrderID]
		if !ok {
			return ActiveOrder{}, ErrUnknownOrder
		}
		o.Size -= ev.Size
		out := *o
		if o.Size <= 0 {
			out.Size = 0
			delete(a.orders, o.ID)
		}
		return out, nil

	case enum.OrderEventCancel:
		o, ok := a.orders[ev.OrderID]
		if !ok {
			return ActiveOrder{}, ErrUnknownOrder
		}
		delete(a.orders, o.ID)
		return *o, nil

	default:
		return ActiveOrder{}, ErrUnsupportedEvent
	}
}

// Order returns the current state of one resting order.
func (a *ActiveOrders) Order(id uint64) (ActiveOrder, bool) {
	o, ok := a.orders[id]
	if !ok {
		return ActiveOrder{}, false
	}
	return *o, true
}

// Count returns the number of resting orders.
func (a *ActiveOrders) Count() int {
	return len(a.orders)
}

// OnSide returns the resting orders of one side.
func (a *ActiveOrders) OnSide(side enum.OrderSide) []ActiveOrder {
	out := make([]ActiveOrder, 0, len(a.orders))
	for _, o := range a.orders {
		if o.Side == side {
			out = append(out, *o)
		}
	}
	return out
}
