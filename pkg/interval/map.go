package interval

import (
	"cmp"
	"iter"
	"slices"
	"sort"
)

// Map associates ranges with single values. A point lookup returns at most one
// value.
//
// When several stored ranges cover a point, the one with the greatest lower
// bound wins (the innermost, latest-starting range); among ranges sharing that
// lower bound the most recently inserted wins. Putting a range equal to a
// stored one replaces its value.
//
// The zero Map is empty and ready to use. A Map is not safe for concurrent
// writers; guard Put externally if needed.
type Map[K cmp.Ordered, V any] struct {
	entries []entry[K, V]
	seq     uint64
}

// NewMap returns an empty Map.
func NewMap[K cmp.Ordered, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// Put associates value with r.
func (m *Map[K, V]) Put(r Range[K], value V) {
	m.seq++
	if i := m.indexOf(r); i >= 0 {
		m.entries = slices.Delete(m.entries, i, i+1)
	}
	e := entry[K, V]{rng: r, value: value, seq: m.seq}
	i, _ := slices.BinarySearchFunc(m.entries, e, compareEntries[K, V])
	m.entries = slices.Insert(m.entries, i, e)
}

func (m *Map[K, V]) indexOf(r Range[K]) int {
	for i := m.lowerBound(r.Lower); i < len(m.entries) && m.entries[i].rng.Lower == r.Lower; i++ {
		if m.entries[i].rng.Upper == r.Upper {
			return i
		}
	}
	return -1
}

// lowerBound returns the first index whose lower bound is >= k.
func (m *Map[K, V]) lowerBound(k K) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].rng.Lower >= k
	})
}

// Get returns the value of the range containing p.
func (m *Map[K, V]) Get(p K) (V, bool) {
	_, v, ok := m.Lookup(p)
	return v, ok
}

// Lookup returns the winning range containing p together with its value.
func (m *Map[K, V]) Lookup(p K) (Range[K], V, bool) {
	// Entries after this index start beyond p.
	end := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].rng.Lower > p
	})
	for i := end - 1; i >= 0; i-- {
		if e := m.entries[i]; e.rng.Contains(p) {
			return e.rng, e.value, true
		}
	}
	var zero V
	return Range[K]{}, zero, false
}

// Len returns the number of stored associations.
func (m *Map[K, V]) Len() int { return len(m.entries) }

// All iterates over the associations ordered by lower bound, then insertion.
func (m *Map[K, V]) All() iter.Seq2[Range[K], V] {
	return func(yield func(Range[K], V) bool) {
		for _, e := range m.entries {
			if !yield(e.rng, e.value) {
				return
			}
		}
	}
}

// MarshalJSON encodes the map as a list of {"lower","upper","value"} objects.
func (m Map[K, V]) MarshalJSON() ([]byte, error) {
	return marshalEntries(m.entries)
}

// UnmarshalJSON replaces the contents with the decoded associations, inserted
// in list order.
func (m *Map[K, V]) UnmarshalJSON(data []byte) error {
	items, err := unmarshalEntries[K, V](data)
	if err != nil {
		return err
	}
	*m = Map[K, V]{}
	for _, it := range items {
		m.Put(Range[K]{Lower: it.Lower, Upper: it.Upper}, it.Value)
	}
	return nil
}
