package model

import "strconv"

// Price is an integer number of ticks. How many decimals a tick carries is
// a display concern configured by the caller.
type Price int64

// Mul returns the notional value of q units traded at p.
func (p Price) Mul(q Quantity) Notional {
	return Notional(p) * Notional(q)
}

// AppendString appends p as a decimal with scale fractional digits.
func (p Price) AppendString(scale int, buf []byte) []byte {
	return appendFixed(buf, int64(p), scale)
}

// Quantity is a whole number of units.
type Quantity int64

// AppendString appends q as a decimal with scale fractional digits.
func (q Quantity) AppendString(scale int, buf []byte) []byte {
	return appendFixed(buf, int64(q), scale)
}

// Notional is price times quantity, carried with the price scale.
type Notional int64

// AppendString appends n as a decimal with scale fractional digits.
func (n Notional) AppendString(scale int, buf []byte) []byte {
	return appendFixed(buf, int64(n), scale)
}

// FormatPrice renders p with the given scale, e.g. 12345 at scale 2 is "123.45".
func FormatPrice(p Price, scale int) string {
	var buf [32]byte
	return string(p.AppendString(scale, buf[:0]))
}

// appendFixed writes value with a decimal point inserted scale digits from
// the right. Values shorter than the scale get a leading "0.".
func appendFixed(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	mag := uint64(value)
	if value < 0 {
		buf = append(buf, '-')
		mag = -mag
	}

	var tmp [24]byte
	digits := strconv.AppendUint(tmp[:0], mag, 10)

	cut := len(digits) - scale
	if cut <= 0 {
		buf = append(buf, '0', '.')
		for ; cut < 0; cut++ {
			buf = append(buf, '0')
		}
		return append(buf, digits...)
	}
	buf = append(buf, digits[:cut]...)
	buf = append(buf, '.')
	return append(buf, digits[cut:]...)
}
