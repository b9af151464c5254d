package interval

import (
	"cmp"
	"iter"
	"slices"
)

// Multimap associates ranges with values where stored ranges may overlap.
// Queries return the union of values of every stored range that shares at
// least one point with the query.
//
// The zero Multimap is empty and ready to use. It is not safe for concurrent
// writers.
type Multimap[K cmp.Ordered, V comparable] struct {
	entries []entry[K, V]
	seq     uint64
}

// NewMultimap returns an empty Multimap.
func NewMultimap[K cmp.Ordered, V comparable]() *Multimap[K, V] {
	return &Multimap[K, V]{}
}

// Put adds an association. Overlaps are allowed; nothing is replaced.
func (m *Multimap[K, V]) Put(r Range[K], value V) {
	m.seq++
	e := entry[K, V]{rng: r, value: value, seq: m.seq}
	i, _ := slices.BinarySearchFunc(m.entries, e, compareEntries[K, V])
	m.entries = slices.Insert(m.entries, i, e)
}

// Get returns the distinct values of every stored range intersecting q,
// ordered by the lower bound of their range, then insertion. Empty queries
// and empty stored ranges never match.
func (m *Multimap[K, V]) Get(q Range[K]) []V {
	if q.Empty() {
		return nil
	}
	var out []V
	seen := make(map[V]struct{})
	for _, e := range m.entries {
		if e.rng.Lower >= q.Upper {
			break // sorted by lower bound: nothing further can intersect
		}
		if !e.rng.Overlaps(q) {
			continue
		}
		if _, dup := seen[e.value]; dup {
			continue
		}
		seen[e.value] = struct{}{}
		out = append(out, e.value)
	}
	return out
}

// At returns the distinct values of every stored range containing p.
func (m *Multimap[K, V]) At(p K) []V {
	var out []V
	seen := make(map[V]struct{})
	for _, e := range m.entries {
		if e.rng.Lower > p {
			break
		}
		if !e.rng.Contains(p) {
			continue
		}
		if _, dup := seen[e.value]; dup {
			continue
		}
		seen[e.value] = struct{}{}
		out = append(out, e.value)
	}
	return out
}

// Len returns the number of stored associations.
func (m *Multimap[K, V]) Len() int { return len(m.entries) }

// All iterates over the associations ordered by lower bound, then insertion.
func (m *Multimap[K, V]) All() iter.Seq2[Range[K], V] {
	return func(yield func(Range[K], V) bool) {
		for _, e := range m.entries {
			if !yield(e.rng, e.value) {
				return
			}
		}
	}
}

// MarshalJSON encodes the multimap as a list of {"lower","upper","value"} objects.
func (m Multimap[K, V]) MarshalJSON() ([]byte, error) {
	return marshalEntries(m.entries)
}

// UnmarshalJSON replaces the contents with the decoded associations.
func (m *Multimap[K, V]) UnmarshalJSON(data []byte) error {
	items, err := unmarshalEntries[K, V](data)
	if err != nil {
		return err
	}
	*m = Multimap[K, V]{}
	for _, it := range items {
		m.Put(Range[K]{Lower: it.Lower, Upper: it.Upper}, it.Value)
	}
	return nil
}
