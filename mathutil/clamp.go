package mathutil

import (
	"golang.org/x/exp/constraints"
)

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Wrap maps i onto [0, n) circularly, so -1 becomes n-1 and n becomes 0.
// n must be positive.
func Wrap[T constraints.Signed](i, n T) T {
	if n <= 0 {
		panic("mathutil: Wrap requires a positive length")
	}
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}
