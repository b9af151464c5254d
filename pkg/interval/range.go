// Package interval maps half-open ranges [Lower, Upper) of an ordered key to
// values, with a single-value Map and an accumulating Multimap.
//
// A range contains its lower bound and excludes its upper bound. Ranges with
// Lower >= Upper are empty: they contain no point and intersect nothing.
package interval

import (
	"cmp"
	"fmt"
)

// Range is the half-open interval [Lower, Upper).
type Range[K cmp.Ordered] struct {
	Lower K `json:"lower"`
	Upper K `json:"upper"`
}

// Of returns the range [lower, upper).
func Of[K cmp.Ordered](lower, upper K) Range[K] {
	return Range[K]{Lower: lower, Upper: upper}
}

// Empty reports whether the range has zero or negative width.
func (r Range[K]) Empty() bool {
	return !(r.Lower < r.Upper)
}

// Contains reports whether Lower <= p < Upper.
func (r Range[K]) Contains(p K) bool {
	return r.Lower <= p && p < r.Upper
}

// Overlaps reports whether the two ranges share at least one point. Ranges
// that only touch at a boundary do not overlap.
func (r Range[K]) Overlaps(o Range[K]) bool {
	return max(r.Lower, o.Lower) < min(r.Upper, o.Upper)
}

// Intersect returns the common part of both ranges and whether it is non-empty.
func (r Range[K]) Intersect(o Range[K]) (Range[K], bool) {
	out := Range[K]{Lower: max(r.Lower, o.Lower), Upper: min(r.Upper, o.Upper)}
	return out, !out.Empty()
}

func (r Range[K]) String() string {
	return fmt.Sprintf("[%v,%v)", r.Lower, r.Upper)
}

// entry is one stored association. seq records insertion order.
type entry[K cmp.Ordered, V any] struct {
	rng   Range[K]
	value V
	seq   uint64
}

// compareEntries orders by lower bound, then by insertion.
func compareEntries[K cmp.Ordered, V any](a, b entry[K, V]) int {
	if c := cmp.Compare(a.rng.Lower, b.rng.Lower); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}
