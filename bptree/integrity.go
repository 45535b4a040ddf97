package bptree

import "github.com/pkg/errors"

// IntegrityCheck verifies the structural invariants of the tree: uniform
// leaf depth, occupancy bounds of non-root nodes, separator discipline in
// both directions, parent back-link consistency, leaf-chain order, and the
// size accounting including duplicates.
func (t *Tree[K, V]) IntegrityCheck() error {
	if t.root == nil {
		if t.size != 0 || t.leftmost != nil || t.rightmost != nil {
			return errors.Wrap(ErrInvariantBroken, "empty tree with residual state")
		}
		return nil
	}
	if t.root.parent != nil || t.root.parentCell != nil {
		return errors.Wrap(ErrInvariantBroken, "root has a parent")
	}
	chained := chainIntegrityCheck(
		t.checkOccupancy,
		t.checkChildren,
		t.checkSeparators,
	)
	leafDepth := -1
	if err := t.runRecursiveUntilError(t.root, 0, &leafDepth, chained); err != nil {
		return err
	}
	return t.checkLeafChain()
}

func chainIntegrityCheck[K, V any](funcs ...func(level int, n *node[K, V]) error) func(level int, n *node[K, V]) error {
	return func(level int, n *node[K, V]) error {
		for _, f := range funcs {
			if err := f(level, n); err != nil {
				return err
			}
		}
		return nil
	}
}

func (t *Tree[K, V]) runRecursiveUntilError(n *node[K, V], level int, leafDepth *int, fun func(int, *node[K, V]) error) error {
	if err := fun(level, n); err != nil {
		return err
	}
	if n.leaf {
		if *leafDepth == -1 {
			*leafDepth = level
		}
		if *leafDepth != level {
			return errors.Wrapf(ErrInvariantBroken, "leaf at depth %d, expected %d", level, *leafDepth)
		}
		return nil
	}
	if n.leftMostChild != nil {
		if err := t.runRecursiveUntilError(n.leftMostChild, level+1, leafDepth, fun); err != nil {
			return err
		}
	}
	for ln := n.cells.Min(); ln != nil; ln = ln.Next() {
		if c := ln.Elem(); c.rightChild != nil {
			if err := t.runRecursiveUntilError(c.rightChild, level+1, leafDepth, fun); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tree[K, V]) checkOccupancy(level int, n *node[K, V]) error {
	count := n.cells.Len()
	if n == t.root {
		if count > t.maxNodeSize {
			return errors.Wrapf(ErrInvariantBroken, "root holds %d cells, max %d", count, t.maxNodeSize)
		}
		return nil
	}
	if count < t.half || count > t.maxNodeSize {
		return errors.Wrapf(ErrInvariantBroken, "node holds %d cells outside [%d,%d]", count, t.half, t.maxNodeSize)
	}
	return nil
}

func (t *Tree[K, V]) checkChildren(level int, n *node[K, V]) error {
	if n.leaf {
		for ln := n.cells.Min(); ln != nil; ln = ln.Next() {
			if ln.Elem().rightChild != nil {
				return errors.Wrap(ErrInvariantBroken, "leaf cell has a child")
			}
		}
		return nil
	}
	if n.leftMostChild == nil {
		return errors.Wrap(ErrInvariantBroken, "interior node without left-most child")
	}
	if n.leftMostChild.parent != n || n.leftMostChild.parentCell != nil {
		return errors.Wrap(ErrInvariantBroken, "left-most child does not point back at its parent")
	}
	for ln := n.cells.Min(); ln != nil; ln = ln.Next() {
		c := ln.Elem()
		if c.rightChild == nil {
			return errors.Wrap(ErrInvariantBroken, "interior cell without child")
		}
		if c.rightChild.parent != n || c.rightChild.parentCell != c {
			return errors.Wrap(ErrInvariantBroken, "child does not point back at its parent cell")
		}
	}
	return nil
}

func (t *Tree[K, V]) checkSeparators(level int, n *node[K, V]) error {
	if n.leaf {
		return nil
	}
	prev := n.leftMostChild
	for ln := n.cells.Min(); ln != nil; ln = ln.Next() {
		c := ln.Elem()
		if mx, ok := t.subtreeMax(prev); ok && t.cmp(mx, c.key) > 0 {
			return errors.Wrapf(ErrInvariantBroken, "separator %v below the max %v of the subtree to its left", c.key, mx)
		}
		if mn, ok := t.subtreeMin(c.rightChild); !ok || t.cmp(mn, c.key) <= 0 {
			return errors.Wrapf(ErrInvariantBroken, "separator %v not strictly below its right subtree", c.key)
		}
		prev = c.rightChild
	}
	return nil
}

func (t *Tree[K, V]) subtreeMax(n *node[K, V]) (K, bool) {
	var zero K
	for n != nil && !n.leaf {
		if mx := n.cells.Max(); mx != nil {
			n = mx.Elem().rightChild
		} else {
			n = n.leftMostChild
		}
	}
	if n == nil || n.cells.Max() == nil {
		return zero, false
	}
	return n.cells.Max().Elem().key, true
}

func (t *Tree[K, V]) subtreeMin(n *node[K, V]) (K, bool) {
	var zero K
	for n != nil && !n.leaf {
		if n.leftMostChild != nil {
			n = n.leftMostChild
		} else if mn := n.cells.Min(); mn != nil {
			n = mn.Elem().rightChild
		} else {
			n = nil
		}
	}
	if n == nil || n.cells.Min() == nil {
		return zero, false
	}
	return n.cells.Min().Elem().key, true
}

func (t *Tree[K, V]) checkLeafChain() error {
	first := t.root
	for !first.leaf {
		first = first.leftMostChild
	}
	if t.leftmost != first {
		return errors.Wrap(ErrInvariantBroken, "leftmost leaf out of sync with the tree")
	}
	total := 0
	var prev *K
	var last *node[K, V]
	for leaf := t.leftmost; leaf != nil; leaf = leaf.right {
		if !leaf.leaf {
			return errors.Wrap(ErrInvariantBroken, "non-leaf node on the leaf chain")
		}
		if leaf.right != nil && leaf.right.left != leaf {
			return errors.Wrap(ErrInvariantBroken, "leaf chain back link broken")
		}
		for ln := leaf.cells.Min(); ln != nil; ln = ln.Next() {
			k := ln.Elem().key
			if prev != nil && t.cmp(*prev, k) >= 0 {
				return errors.Wrapf(ErrInvariantBroken, "leaf chain out of order at %v", k)
			}
			kk := k
			prev = &kk
			total += 1 + ln.Duplicates()
		}
		last = leaf
	}
	if t.rightmost != last {
		return errors.Wrap(ErrInvariantBroken, "rightmost leaf out of sync with the tree")
	}
	if total != t.size {
		return errors.Wrapf(ErrInvariantBroken, "size %d but the leaf chain holds %d", t.size, total)
	}
	return nil
}
