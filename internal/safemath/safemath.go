package safemath

import (
	"errors"
	"math/bits"
)

var ErrOverflow = errors.New("number overflow")

func Add32(a, b uint32) (uint32, bool) {
	v, carry := bits.Add32(a, b, 0)
	return v, carry == 0
}

func Add64(a, b uint64) (uint64, bool) {
	v, carry := bits.Add64(a, b, 0)
	return v, carry == 0
}

func Sub32(a, b uint32) (uint32, bool) {
	v, borrow := bits.Sub32(a, b, 0)
	return v, borrow == 0
}

func Sub64(a, b uint64) (uint64, bool) {
	v, borrow := bits.Sub64(a, b, 0)
	return v, borrow == 0
}

// SaturatingAdd64 clamps to the maximum uint64 instead of wrapping.
func SaturatingAdd64(a, b uint64) uint64 {
	v, ok := Add64(a, b)
	if !ok {
		return ^uint64(0)
	}
	return v
}
