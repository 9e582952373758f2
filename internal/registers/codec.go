package registers

// Word joins a HIGH and LOW register byte.
func Word(high, low byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// Split is the inverse of Word.
func Split(v uint16) (high, low byte) {
	return byte(v >> 8), byte(v)
}

// Hundredths converts a raw readout in hundredths of a unit to the unit.
func Hundredths(raw uint16) float64 {
	return float64(raw) / 100
}

// FromHundredths encodes a physical value as a raw readout, rounding to the
// nearest hundredth and saturating at the 16-bit range.
func FromHundredths(v float64) uint16 {
	raw := v*100 + 0.5
	switch {
	case raw < 0:
		return 0
	case raw > 0xFFFF:
		return 0xFFFF
	}
	return uint16(raw)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
