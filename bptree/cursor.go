package bptree

// RangeKV returns the key-value pairs of the closed interval [start, end] in
// ascending order, skipping the first offset matches and then emitting at
// most limit. A nil bound leaves that side open and a negative limit is
// unbounded. Duplicates are emitted individually.
func (t *Tree[K, V]) RangeKV(start, end *K, offset, limit int) []Pair[K, V] {
	cells := t.rangeCells(start, end, offset, limit)
	out := make([]Pair[K, V], 0, len(cells))
	for _, c := range cells {
		out = append(out, Pair[K, V]{Key: c.key, Value: c.value})
	}
	return out
}

// RangeKeys is RangeKV reduced to the keys.
func (t *Tree[K, V]) RangeKeys(start, end *K, offset, limit int) []K {
	cells := t.rangeCells(start, end, offset, limit)
	out := make([]K, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.key)
	}
	return out
}

// RangeValues is RangeKV reduced to the values.
func (t *Tree[K, V]) RangeValues(start, end *K, offset, limit int) []V {
	cells := t.rangeCells(start, end, offset, limit)
	out := make([]V, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.value)
	}
	return out
}

// rangeCells walks the leaf chain from the leaf covering start to the leaf
// covering end, collecting the cells inside the closed bounds and applying
// offset and limit across leaf boundaries.
func (t *Tree[K, V]) rangeCells(start, end *K, offset, limit int) []*cell[K, V] {
	if t.root == nil || limit == 0 {
		return nil
	}
	startLeaf := t.leftmost
	if start != nil {
		startLeaf = t.findLeaf(*start)
	}
	endLeaf := t.rightmost
	if end != nil {
		endLeaf = t.findLeaf(*end)
	}
	var lo, hi *(*cell[K, V])
	if start != nil {
		c := &cell[K, V]{key: *start}
		lo = &c
	}
	if end != nil {
		c := &cell[K, V]{key: *end}
		hi = &c
	}
	var out []*cell[K, V]
	for leaf := startLeaf; leaf != nil; leaf = leaf.right {
		t.countAccess(leaf)
		for _, c := range leaf.cells.CollectRange(t.cellCmp, lo, hi, true) {
			if offset > 0 {
				offset--
				continue
			}
			out = append(out, c)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
		if leaf == endLeaf {
			break
		}
	}
	return out
}

// FindKV scans the leaves left to right and collects the pairs whose keys
// satisfy match, once per collapsed cell. A bookmark resumes the scan at the
// bookmark's own leaf and skips the bookmark match itself; a negative limit
// is unbounded.
func (t *Tree[K, V]) FindKV(match func(K) bool, bookmark *K, limit int) []Pair[K, V] {
	if t.root == nil || limit == 0 {
		return nil
	}
	leaf := t.leftmost
	skip := false
	if bookmark != nil {
		leaf = t.findLeaf(*bookmark)
		skip = true
	}
	cellMatch := func(c *cell[K, V]) bool { return match(c.key) }
	var out []Pair[K, V]
	for ; leaf != nil; leaf = leaf.right {
		t.countAccess(leaf)
		for _, c := range leaf.cells.FindMatches(cellMatch) {
			if skip && t.cmp(c.key, *bookmark) == 0 {
				skip = false
				continue
			}
			out = append(out, Pair[K, V]{Key: c.key, Value: c.value})
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}

// FindKeys is FindKV reduced to the keys.
func (t *Tree[K, V]) FindKeys(match func(K) bool, bookmark *K, limit int) []K {
	pairs := t.FindKV(match, bookmark, limit)
	out := make([]K, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Key)
	}
	return out
}

// FindValues is FindKV reduced to the values.
func (t *Tree[K, V]) FindValues(match func(K) bool, bookmark *K, limit int) []V {
	pairs := t.FindKV(match, bookmark, limit)
	out := make([]V, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Value)
	}
	return out
}

// MiddleKey returns the key at position (size-1)/2 of the ascending multiset,
// walking the leaf chain with duplicates counted individually.
func (t *Tree[K, V]) MiddleKey() (K, bool) {
	var zero K
	if t.size == 0 {
		return zero, false
	}
	remaining := (t.size - 1) / 2
	for leaf := t.leftmost; leaf != nil; leaf = leaf.right {
		t.countAccess(leaf)
		for ln := leaf.cells.Min(); ln != nil; ln = ln.Next() {
			span := 1 + ln.Duplicates()
			if remaining < span {
				return ln.Elem().key, true
			}
			remaining -= span
		}
	}
	return zero, false
}
