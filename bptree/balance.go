package bptree

import (
	"github.com/pkg/errors"
)

// balance restores the occupancy bounds starting at start and walking the
// spine upward. Splits and merges change the affected parent's cell count and
// hand it back to the loop; distribution leaves every parent count untouched
// and terminates it.
func (t *Tree[K, V]) balance(start *node[K, V]) error {
	if err := t.rebalance(start); err != nil {
		return errors.WithMessage(err, "failed while balancing")
	}
	return nil
}

func (t *Tree[K, V]) rebalance(start *node[K, V]) error {
	for n := start; n != nil; {
		count := n.cells.Len()
		switch {
		case count > t.maxNodeSize:
			next, err := t.split(n)
			if err != nil {
				return err
			}
			n = next
		case count >= t.half:
			return nil
		case n == t.root:
			if count == 0 {
				t.removeRoot()
			}
			return nil
		case n.right != nil && n.right.cells.Len() > t.half:
			return t.distributeFromRight(n.right, n)
		case n.left != nil && n.left.cells.Len() > t.half:
			return t.distributeFromLeft(n.left, n)
		case n.right != nil:
			next, err := t.merge(n, n.right)
			if err != nil {
				return err
			}
			n = next
		case n.left != nil:
			next, err := t.merge(n.left, n)
			if err != nil {
				return err
			}
			n = next
		default:
			return errors.Wrap(ErrInvariantBroken, "underflowing node has no sibling")
		}
	}
	return nil
}

// removeRoot collapses an empty root onto its left-most child. An empty leaf
// root empties the tree.
func (t *Tree[K, V]) removeRoot() {
	old := t.root
	t.root = old.leftMostChild
	if t.root != nil {
		t.root.parent = nil
		t.root.parentCell = nil
	} else {
		t.leftmost, t.rightmost = nil, nil
	}
	t.log.V(1).Info("root removed", "height", t.Height())
	t.countRebalance()
}

// split cuts an overflowing node in two and lifts a separator into the
// parent: copied from the left half's max for leaves, promoted out of the
// left half for interior nodes. A splitting root grows a fresh interior root
// above itself. Returns the parent so the caller can keep balancing upward.
func (t *Tree[K, V]) split(n *node[K, V]) (*node[K, V], error) {
	cut := t.half - 1
	if !n.leaf {
		// the separator is promoted out of the left half afterwards, so it
		// keeps one extra cell here
		cut = t.half
	}
	_, rightCells, err := n.cells.SplitAt(cut)
	if err != nil {
		return nil, errors.WithMessage(err, "cutting overflowing cells")
	}
	sep := n.cells.Max().Elem()
	sepKey := sep.key

	right := newNode[K, V](n.leaf)
	right.setCells(rightCells)
	if !n.leaf {
		n.cells.Delete(t.cellCmp, sep)
		right.setLeftMostChild(sep.rightChild)
	}

	right.right = n.right
	if n.right != nil {
		n.right.left = right
	}
	right.left = n
	n.right = right
	if n.leaf && t.rightmost == n {
		t.rightmost = right
	}

	parent := n.parent
	if parent == nil {
		parent = newNode[K, V](false)
		parent.setLeftMostChild(n)
		t.root = parent
	}
	pc := &cell[K, V]{key: sepKey, rightChild: right}
	parent.cells.Insert(t.cellCmp, pc)
	right.parent = parent
	right.parentCell = pc

	t.log.V(1).Info("split", "leaf", n.leaf, "separator", sepKey)
	t.countRebalance()
	return parent, nil
}

// effectiveParentCell resolves the separator standing between a node and its
// left neighbour. A node on a left-most chain has no parent cell of its own,
// so the walk climbs until one exists; the parent's min cell is the last
// resort.
func (t *Tree[K, V]) effectiveParentCell(n *node[K, V]) (*cell[K, V], error) {
	for p := n; p != nil; p = p.parent {
		if p.parentCell != nil {
			return p.parentCell, nil
		}
	}
	if n.parent != nil && n.parent.cells.Min() != nil {
		return n.parent.cells.Min().Elem(), nil
	}
	return nil, errors.Wrap(ErrInvariantBroken, "no effective parent cell")
}

// merge absorbs source, the right sibling of target, and removes it from its
// parent. For interior nodes the separator key is bridged back in so that
// source's left-most subtree keeps a covering cell. Returns the parent that
// lost a cell so balancing continues there.
func (t *Tree[K, V]) merge(target, source *node[K, V]) (*node[K, V], error) {
	epc, err := t.effectiveParentCell(source)
	if err != nil {
		return nil, err
	}
	if !target.leaf {
		target.cells.Insert(t.cellCmp, &cell[K, V]{key: epc.key, rightChild: source.leftMostChild})
	}
	target.cells.Append(source.cells)
	target.reinforceChildParents()

	target.right = source.right
	if source.right != nil {
		source.right.left = target
	}

	parent := source.parent
	if parent == nil {
		return nil, errors.Wrap(ErrInvariantBroken, "merge source has no parent")
	}
	if source.parentCell == nil {
		// source was the left-most child: its parent's min cell steps into
		// that role, and the separator above inherits the promoted key
		mn := parent.cells.Min()
		if mn == nil {
			return nil, errors.Wrap(ErrInvariantBroken, "merge source parent holds no cells")
		}
		promoted := mn.Elem()
		parent.setLeftMostChild(promoted.rightChild)
		parent.cells.Delete(t.cellCmp, promoted)
		epc.key = promoted.key
	} else {
		parent.cells.Delete(t.cellCmp, source.parentCell)
	}

	if t.rightmost == source {
		t.rightmost = target
	}
	t.log.V(1).Info("merge", "leaf", target.leaf)
	t.countRebalance()
	return parent, nil
}

// distributeFromRight tops up target from its right sibling. The donated
// slice is the source's left portion; its boundary cell supplies the
// replacement separator key and, for interior nodes, the source's new
// left-most child.
func (t *Tree[K, V]) distributeFromRight(source, target *node[K, V]) error {
	epc, err := t.effectiveParentCell(source)
	if err != nil {
		return err
	}
	donated, kept, err := source.cells.SplitAt(source.cells.Len() - t.half - 1)
	if err != nil {
		return errors.WithMessage(err, "cutting donor cells")
	}
	boundary := donated.Max().Elem()
	source.setCells(kept)

	if !target.leaf {
		target.cells.Insert(t.cellCmp, &cell[K, V]{key: epc.key, rightChild: source.leftMostChild})
		donated.Delete(t.cellCmp, boundary)
		source.setLeftMostChild(boundary.rightChild)
	}
	target.cells.Append(donated)
	target.reinforceChildParents()

	if target.leaf {
		epc.key = target.cells.Max().Elem().key
	} else {
		epc.key = boundary.key
	}
	t.log.V(1).Info("distribute", "from", "right", "leaf", target.leaf)
	t.countRebalance()
	return nil
}

// distributeFromLeft tops up target from its left sibling. The source keeps
// its left portion; the boundary cell it retains (leaves) or promotes out
// (interior) supplies the replacement separator key and, for interior nodes,
// target's new left-most child.
func (t *Tree[K, V]) distributeFromLeft(source, target *node[K, V]) error {
	epc, err := t.effectiveParentCell(target)
	if err != nil {
		return err
	}
	cut := t.half - 1
	if !target.leaf {
		// the boundary cell is promoted out afterwards, keep one extra
		cut = t.half
	}
	_, donated, err := source.cells.SplitAt(cut)
	if err != nil {
		return errors.WithMessage(err, "cutting donor cells")
	}
	if !target.leaf {
		target.cells.Insert(t.cellCmp, &cell[K, V]{key: epc.key, rightChild: target.leftMostChild})
	}
	target.cells.Prepend(donated)

	boundary := source.cells.Max().Elem()
	if !target.leaf {
		source.cells.Delete(t.cellCmp, boundary)
		target.setLeftMostChild(boundary.rightChild)
	}
	target.reinforceChildParents()
	epc.key = boundary.key

	t.log.V(1).Info("distribute", "from", "left", "leaf", target.leaf)
	t.countRebalance()
	return nil
}
