// Package intervals provides a sorted integer-keyed map with "at or below" /
// "at or above" lookups. Stores are built once per index pass and read-only
// afterwards, so no locking is needed.
package intervals

import "sort"

// Store maps int keys (line numbers or byte offsets) to values in key order.
type Store[V any] struct {
	keys []int
	vals []V
}

// Set inserts or overwrites the value at key, keeping keys sorted.
func (s *Store[V]) Set(key int, v V) {
	i := sort.SearchInts(s.keys, key)
	if i < len(s.keys) && s.keys[i] == key {
		s.vals[i] = v
		return
	}
	s.keys = append(s.keys, 0)
	s.vals = append(s.vals, v)
	copy(s.keys[i+1:], s.keys[i:])
	copy(s.vals[i+1:], s.vals[i:])
	s.keys[i] = key
	s.vals[i] = v
}

// Get returns the value at exactly key.
func (s *Store[V]) Get(key int) (V, bool) {
	i := sort.SearchInts(s.keys, key)
	if i < len(s.keys) && s.keys[i] == key {
		return s.vals[i], true
	}
	var zero V
	return zero, false
}

// AtOrBelow returns the entry with the greatest key <= key.
func (s *Store[V]) AtOrBelow(key int) (int, V, bool) {
	i := s.IndexAtOrBelow(key)
	if i < 0 {
		var zero V
		return 0, zero, false
	}
	return s.keys[i], s.vals[i], true
}

// AtOrAbove returns the entry with the smallest key >= key.
func (s *Store[V]) AtOrAbove(key int) (int, V, bool) {
	i := sort.SearchInts(s.keys, key)
	if i >= len(s.keys) {
		var zero V
		return 0, zero, false
	}
	return s.keys[i], s.vals[i], true
}

// IndexAtOrBelow returns the position of the greatest key <= key, or -1.
func (s *Store[V]) IndexAtOrBelow(key int) int {
	i := sort.SearchInts(s.keys, key)
	if i < len(s.keys) && s.keys[i] == key {
		return i
	}
	return i - 1
}

// At returns the entry at position i in key order.
func (s *Store[V]) At(i int) (int, V) {
	return s.keys[i], s.vals[i]
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	return len(s.keys)
}

// Values returns all values in key order.
func (s *Store[V]) Values() []V {
	out := make([]V, len(s.vals))
	copy(out, s.vals)
	return out
}
