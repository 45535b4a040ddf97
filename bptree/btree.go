// Package bptree implements an in-memory B+ tree ordered by a caller-supplied
// comparator. Every node stores its cells in a sorted doubly-linked list;
// equal keys collapse into a single cell whose duplicate counter grows while
// the stored value is replaced, so the latest write wins on lookup. Leaves
// form a sibling chain that range scans and predicate scans walk left to
// right.
//
// The tree is not safe for concurrent use; callers that share one wrap it in
// their own mutual exclusion.
package bptree

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"kvindex/sortedlist"
)

// Comparator defines a total order on keys: negative when a sorts before b,
// zero on equality, positive otherwise.
type Comparator[K any] func(a, b K) int

// Ordered returns the natural comparator for ordered primitive keys.
func Ordered[K constraints.Ordered]() Comparator[K] {
	return func(a, b K) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
}

// Mode is the point-search semantic used by GetKV.
type Mode = sortedlist.Mode

// Search modes, re-exported from the cell list.
const (
	EQ = sortedlist.EQ
	LE = sortedlist.LE
	GE = sortedlist.GE
	LT = sortedlist.LT
	GT = sortedlist.GT
)

// Pair couples a key with its stored value.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// AccessCounter observes every node visit during descent and chain walks.
// The argument is the visited node as an opaque identity, usable as a map key
// for locality profiling.
type AccessCounter func(n any)

// RebalanceCounter observes every structural rebalance step: a split, a
// merge, a sibling distribution, or a root collapse.
type RebalanceCounter func()

func dummyAccessCounter(any) {}

// Tree is the index. The comparator is fixed at construction and applied to
// every operation.
type Tree[K, V any] struct {
	root                 *node[K, V]
	leftmost, rightmost  *node[K, V] // ends of the leaf chain
	size                 int         // counts duplicates individually
	maxNodeSize          int
	half                 int // minimum occupancy of non-root nodes
	cmp                  Comparator[K]
	log                  logr.Logger
	countAccess          AccessCounter
	countRebalance       RebalanceCounter
}

// New creates an empty tree. maxNodeSize must be even and at least 4.
func New[K, V any](maxNodeSize int, cmp Comparator[K]) (*Tree[K, V], error) {
	if maxNodeSize < 4 || maxNodeSize%2 != 0 {
		return nil, errors.Wrapf(ErrPrecondition, "max node size %d must be even and at least 4", maxNodeSize)
	}
	return &Tree[K, V]{
		maxNodeSize:    maxNodeSize,
		half:           maxNodeSize / 2,
		cmp:            cmp,
		log:            logr.Discard(),
		countAccess:    dummyAccessCounter,
		countRebalance: func() {},
	}, nil
}

// SetLogger routes structural events (splits, merges, distributions, root
// transitions) to log at verbosity 1.
func (t *Tree[K, V]) SetLogger(log logr.Logger) {
	t.log = log
}

// SetAccessCounter installs a hook observing node visits.
func (t *Tree[K, V]) SetAccessCounter(ac AccessCounter) {
	t.countAccess = ac
}

// SetRebalanceCounter installs a hook observing rebalance steps.
func (t *Tree[K, V]) SetRebalanceCounter(rc RebalanceCounter) {
	t.countRebalance = rc
}

// Size returns the number of stored elements, duplicates counted
// individually.
func (t *Tree[K, V]) Size() int { return t.size }

// Height returns the number of node levels; 0 means empty.
func (t *Tree[K, V]) Height() int {
	h := 0
	for n := t.root; n != nil; n = n.leftMostChild {
		h++
		if n.leaf {
			break
		}
	}
	return h
}

func (t *Tree[K, V]) cellCmp(a, b *cell[K, V]) int {
	return t.cmp(a.key, b.key)
}

// findLeaf descends to the leaf whose key range covers key, or nil on an
// empty tree. A separator comparing equal to the key routes left: separators
// mean "at or below goes left", so the actual cell is reachable.
func (t *Tree[K, V]) findLeaf(key K) *node[K, V] {
	n := t.root
	if n == nil {
		return nil
	}
	probe := &cell[K, V]{key: key}
	for !n.leaf {
		t.countAccess(n)
		ln := n.cells.Search(t.cellCmp, probe, sortedlist.LE)
		switch {
		case ln == nil:
			n = n.leftMostChild
		case t.cmp(ln.Elem().key, key) < 0:
			n = ln.Elem().rightChild
		case ln.Prev() != nil:
			n = ln.Prev().Elem().rightChild
		default:
			n = n.leftMostChild
		}
		assert(n != nil, "descent fell off an interior node")
	}
	t.countAccess(n)
	return n
}

// Insert stores value under key. A key comparing equal to a stored one
// collapses into its cell: the duplicate counter grows and the value is
// replaced. Size grows by one either way.
func (t *Tree[K, V]) Insert(key K, value V) error {
	if t.root == nil {
		root := newNode[K, V](true)
		root.cells.Insert(t.cellCmp, &cell[K, V]{key: key, value: value})
		t.root = root
		t.leftmost, t.rightmost = root, root
		t.size++
		return nil
	}
	leaf := t.findLeaf(key)
	leaf.cells.Insert(t.cellCmp, &cell[K, V]{key: key, value: value})
	if err := t.balance(leaf); err != nil {
		return err
	}
	t.size++
	return nil
}

// Delete removes key together with every duplicate collapsed into it and
// returns the removed value. The false result means the key was absent.
func (t *Tree[K, V]) Delete(key K) (V, bool, error) {
	var zero V
	leaf := t.findLeaf(key)
	if leaf == nil {
		return zero, false, nil
	}
	removed := leaf.cells.Delete(t.cellCmp, &cell[K, V]{key: key})
	if removed == nil {
		return zero, false, nil
	}
	t.size -= 1 + removed.Duplicates()
	if err := t.balance(leaf); err != nil {
		return removed.Elem().value, true, err
	}
	return removed.Elem().value, true, nil
}

// Get returns the value stored under key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	var zero V
	leaf := t.findLeaf(key)
	if leaf == nil {
		return zero, false
	}
	ln := leaf.cells.Search(t.cellCmp, &cell[K, V]{key: key}, sortedlist.EQ)
	if ln == nil {
		return zero, false
	}
	return ln.Elem().value, true
}

// GetKV resolves key under the given search mode and returns the matching
// key-value pair. When the located leaf itself has no match the lookup hops
// one leaf over: left for LE and LT, right for GE and GT.
func (t *Tree[K, V]) GetKV(key K, mode Mode) (K, V, bool) {
	var zk K
	var zv V
	leaf := t.findLeaf(key)
	if leaf == nil {
		return zk, zv, false
	}
	ln := leaf.cells.Search(t.cellCmp, &cell[K, V]{key: key}, mode)
	if ln == nil {
		switch mode {
		case sortedlist.LE, sortedlist.LT:
			if leaf.left != nil {
				t.countAccess(leaf.left)
				ln = leaf.left.cells.Max()
			}
		case sortedlist.GE, sortedlist.GT:
			if leaf.right != nil {
				t.countAccess(leaf.right)
				ln = leaf.right.cells.Min()
			}
		}
	}
	if ln == nil {
		return zk, zv, false
	}
	c := ln.Elem()
	return c.key, c.value, true
}
