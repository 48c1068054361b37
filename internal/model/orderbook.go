package model

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price Price
	Size  Size
}

// OrderBook is a full snapshot of both sides of a pair's book.
// Bids are sorted descending by price, asks ascending; each snapshot
// fully replaces the previous one.
type OrderBook struct {
	Pair   string
	Bids   []BookLevel
	Asks   []BookLevel
	TsNano int64
}

// BestBid returns the highest bid level.
func (b OrderBook) BestBid() (BookLevel, bool) {
	if len(b.Bids) == 0 {
		return BookLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask level.
func (b OrderBook) BestAsk() (BookLevel, bool) {
	if len(b.Asks) == 0 {
		return BookLevel{}, false
	}
	return b.Asks[0], true
}

// MidPrice returns the midpoint of the best bid and ask.
func (b OrderBook) MidPrice() (Price, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}

// Spread returns the distance between the best ask and best bid.
func (b OrderBook) Spread() (Price, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// Crossed reports whether the best bid is at or above the best ask.
func (b OrderBook) Crossed() bool {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	return okBid && okAsk && bid.Price >= ask.Price
}
