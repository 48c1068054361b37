package model

import "strconv"

// Price is a scaled integer. The scale is defined per pair.
type Price int64

func (p Price) AppendString(priceScale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(p), priceScale)
}

// Size is a scaled integer. The scale is defined per pair.
type Size int64

func (s Size) AppendString(sizeScale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(s), sizeScale)
}

// Notional is a scaled integer using the pair's price scale.
type Notional int64

func (n Notional) AppendString(notionalScale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(n), notionalScale)
}

func appendScaledInt(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
		return buf
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	buf = append(buf, digits[idx:]...)
	return buf
}

// ScaleSpec defines scaling for a pair's numeric fields.
// Example: PriceScale=8 means the integer price is scaled by 1e8.
type ScaleSpec struct {
	PriceScale int `json:"priceScale"`
	SizeScale  int `json:"sizeScale"`
}

// Pair identifies a traded asset pair, e.g. WETH/USDC.
type Pair struct {
	Name  string    `json:"name"`
	Base  string    `json:"base"`
	Quote string    `json:"quote"`
	Scale ScaleSpec `json:"scale"`
}
