package enum

type OrderSide uint8

const (
	_order_side_beg OrderSide = iota
	OrderSideBuy
	OrderSideSell
	_order_side_end
)

func (s OrderSide) IsAvailable() bool {
	return s > _order_side_beg && s < _order_side_end
}

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "buy"
	case OrderSideSell:
		return "sell"
	default:
		return "unknown"
	}
}

type OrderEventKind uint8

const (
	_order_event_kind_beg OrderEventKind = iota
	OrderEventNew
	OrderEventTake
	OrderEventCancel
	_order_event_kind_end
)

func (k OrderEventKind) IsAvailable() bool {
	return k > _order_event_kind_beg && k < _order_event_kind_end
}

func (k OrderEventKind) String() string {
	switch k {
	case OrderEventNew:
		return "new"
	case OrderEventTake:
		return "take"
	case OrderEventCancel:
		return "cancel"
	default:
		return "unknown"
	}
}
