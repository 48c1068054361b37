package book

import (
	"main/internal/model"
	"main/internal/model/enum"
)

// Inventory tracks per-asset balances from fills against the
// strategy's own orders. Amounts are scaled integers in each asset's
// native scale. Not safe for concurrent use.
type Inventory struct {
	balances map[string]int64
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{balances: make(map[string]int64)}
}

// Deposit credits an asset, e.g. from the startup balance query.
func (i *Inventory) Deposit(asset string, amount int64) {
	i.balances[asset] += amount
}

// ApplyTake adjusts balances for a fill of size at price on the given
// pair. A take against our buy order spends quote and receives base;
// against our sell order the reverse.
func (i *Inventory) ApplyTake(pair model.Pair, side enum.OrderSide, price model.Price, size model.Size) {
	notional := scaleNotional(price, size, pair.Scale)
	switch side {
	case enum.OrderSideBuy:
		i.balances[pair.Base] += int64(size)
		i.balances[pair.Quote] -= notional
	case enum.OrderSideSell:
		i.balances[pair.Base] -= int64(size)
		i.balances[pair.Quote] += notional
	}
}

// Balance returns the tracked amount of one asset.
func (i *Inventory) Balance(asset string) int64 {
	return i.balances[asset]
}

// Count returns the number of tracked assets.
func (i *Inventory) Count() int {
	return len(i.balances)
}

// scaleNotional computes price*size rescaled into the quote asset's
// scale, which by convention equals the pair's price scale.
func scaleNotional(price model.Price, size model.Size, scale model.ScaleSpec) int64 {
	n := int64(price) * int64(size)
	for s := scale.SizeScale; s > 0; s-- {
		n /= 10
	}
	return n
}
