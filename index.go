// Package kvindex provides an in-memory ordered key-value index: a B+ tree
// over a caller-supplied key order, with point lookups, bounded and paginated
// range scans, predicate scans with bookmark resumption, and size and median
// statistics. Equal keys collapse into one slot that counts its duplicates;
// the latest written value wins on lookup while Len still counts every write.
//
// The index is not safe for concurrent use.
package kvindex

import (
	"golang.org/x/exp/constraints"

	"kvindex/bptree"
)

// Search modes for GetKV.
const (
	EQ = bptree.EQ
	LE = bptree.LE
	GE = bptree.GE
	LT = bptree.LT
	GT = bptree.GT
)

// Index is a thin facade over the tree.
type Index[K, V any] struct {
	tree *bptree.Tree[K, V]
}

// New builds an index with the given maximum node size (even, at least 4)
// and key order.
func New[K, V any](maxNodeSize int, cmp bptree.Comparator[K]) (*Index[K, V], error) {
	tree, err := bptree.New[K, V](maxNodeSize, cmp)
	if err != nil {
		return nil, err
	}
	return &Index[K, V]{tree: tree}, nil
}

// NewOrdered builds an index keyed by a naturally ordered type.
func NewOrdered[K constraints.Ordered, V any](maxNodeSize int) (*Index[K, V], error) {
	return New[K, V](maxNodeSize, bptree.Ordered[K]())
}

// Tree exposes the underlying tree, mainly for the instrumentation hooks.
func (i *Index[K, V]) Tree() *bptree.Tree[K, V] { return i.tree }

// Put stores value under key. Storing under an existing key replaces the
// value and grows the duplicate count, so Len still grows by one.
func (i *Index[K, V]) Put(key K, value V) error {
	return i.tree.Insert(key, value)
}

// Get returns the value stored under key.
func (i *Index[K, V]) Get(key K) (V, bool) {
	return i.tree.Get(key)
}

// GetKV resolves key under a search mode (EQ, LE, GE, LT, GT) and returns
// the matching key-value pair.
func (i *Index[K, V]) GetKV(key K, mode bptree.Mode) (K, V, bool) {
	return i.tree.GetKV(key, mode)
}

// Delete removes key and all of its duplicates, returning the stored value.
func (i *Index[K, V]) Delete(key K) (V, bool, error) {
	return i.tree.Delete(key)
}

// Keys returns the keys of the closed interval [start, end] in ascending
// order, after skipping offset matches and capped at limit. Nil bounds are
// open; a negative limit is unbounded. Duplicates appear individually.
func (i *Index[K, V]) Keys(start, end *K, offset, limit int) []K {
	return i.tree.RangeKeys(start, end, offset, limit)
}

// Values is Keys for the stored values.
func (i *Index[K, V]) Values(start, end *K, offset, limit int) []V {
	return i.tree.RangeValues(start, end, offset, limit)
}

// Range is Keys for full key-value pairs.
func (i *Index[K, V]) Range(start, end *K, offset, limit int) []bptree.Pair[K, V] {
	return i.tree.RangeKV(start, end, offset, limit)
}

// Find returns the keys satisfying match in ascending order, once per
// collapsed duplicate group. A bookmark restarts the scan at the leaf holding
// the bookmark key and leaves out the bookmark match itself; matches that
// precede it in that leaf are returned again. A negative limit is unbounded.
// A predicate encoded as
// a comparator adapts with func(k K) bool { return cmp(k, k) == 0 }.
func (i *Index[K, V]) Find(match func(K) bool, bookmark *K, limit int) []K {
	return i.tree.FindKeys(match, bookmark, limit)
}

// FindValues is Find for the stored values.
func (i *Index[K, V]) FindValues(match func(K) bool, bookmark *K, limit int) []V {
	return i.tree.FindValues(match, bookmark, limit)
}

// Len returns the number of stored elements, duplicates counted
// individually.
func (i *Index[K, V]) Len() int {
	return i.tree.Size()
}

// MiddleKey returns the median key of the stored multiset.
func (i *Index[K, V]) MiddleKey() (K, bool) {
	return i.tree.MiddleKey()
}

// IntegrityCheck verifies the structural invariants of the underlying tree.
func (i *Index[K, V]) IntegrityCheck() error {
	return i.tree.IntegrityCheck()
}
