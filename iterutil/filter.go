package iterutil

import (
	"iter"
)

// Filter yields the position and value of every element of s that satisfies
// keep. Positions refer to s, not to the filtered sequence.
func Filter[Slice ~[]E, E any](s Slice, keep func(E) bool) iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		for i, v := range s {
			if !keep(v) {
				continue
			}
			if !yield(i, v) {
				return
			}
		}
	}
}
