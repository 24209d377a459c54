package vdom

// patchChildren reconciles the children of n1 into those of n2.
// anchor is the host node the children end before (nil for element children).
func (r *Renderer) patchChildren(n1, n2 *Node, container, anchor any, parent *Instance) {
	c1, c2 := n1.Children, n2.Children
	switch {
	case len(c2) == 0:
		r.unmountChildren(c1)
	case len(c1) == 0:
		r.mountChildren(c2, container, anchor, parent)
	default:
		r.patchKeyedChildren(c1, c2, container, anchor, parent)
	}
}

// patchKeyedChildren reconciles two child lists:
//
//  1. patch the common prefix
//  2. patch the common suffix
//  3. mount what is left of c2 if c1 is exhausted
//  4. unmount what is left of c1 if c2 is exhausted
//  5. otherwise match the middle ranges by key, unmount unmatched old
//     children and move only those matched children that are not on the
//     longest increasing subsequence of old positions
func (r *Renderer) patchKeyedChildren(c1, c2 []*Node, container, anchor any, parent *Instance) {
	checkKeys(c1)
	checkKeys(c2)

	i := 0
	l2 := len(c2)
	e1 := len(c1) - 1
	e2 := l2 - 1

	// 1. prefix
	for i <= e1 && i <= e2 {
		if !sameNode(c1[i], c2[i]) {
			break
		}
		r.patch(c1[i], c2[i], container, nil, parent)
		i++
	}

	// 2. suffix
	for i <= e1 && i <= e2 {
		if !sameNode(c1[e1], c2[e2]) {
			break
		}
		r.patch(c1[e1], c2[e2], container, nil, parent)
		e1--
		e2--
	}

	switch {
	// 3. only new nodes remain
	case i > e1:
		if i <= e2 {
			at := r.anchorAfter(c2, e2, anchor)
			for ; i <= e2; i++ {
				r.patch(nil, c2[i], container, at, parent)
			}
		}

	// 4. only old nodes remain
	case i > e2:
		for ; i <= e1; i++ {
			r.unmount(c1[i], true)
		}

	// 5. unknown sequence
	default:
		s1, s2 := i, i

		keyToNewIndex := make(map[any]int)
		for k := s2; k <= e2; k++ {
			if key := c2[k].Key; key != nil {
				keyToNewIndex[key] = k
			}
		}

		patched := 0
		toBePatched := e2 - s2 + 1
		moved := false
		maxNewIndexSoFar := 0

		// newIndexToOldIndex[k] is one plus the old index matched to new
		// index s2+k, or zero when the new node has no match.
		newIndexToOldIndex := make([]int, toBePatched)

		for j := s1; j <= e1; j++ {
			prev := c1[j]
			if patched >= toBePatched {
				// Every new node is matched; the rest can only be removed.
				r.unmount(prev, true)
				continue
			}

			newIndex := -1
			if prev.Key != nil {
				if k, ok := keyToNewIndex[prev.Key]; ok {
					newIndex = k
				}
			} else {
				for k := s2; k <= e2; k++ {
					if newIndexToOldIndex[k-s2] == 0 && sameNode(prev, c2[k]) {
						newIndex = k
						break
					}
				}
			}
			// Same key but a different type cannot be patched in place.
			if newIndex >= 0 && !sameNode(prev, c2[newIndex]) {
				newIndex = -1
			}

			if newIndex < 0 {
				r.unmount(prev, true)
				continue
			}

			newIndexToOldIndex[newIndex-s2] = j + 1
			if newIndex >= maxNewIndexSoFar {
				maxNewIndexSoFar = newIndex
			} else {
				moved = true
			}
			r.patch(prev, c2[newIndex], container, nil, parent)
			patched++
		}

		var stable []int
		if moved {
			stable = Sequence(newIndexToOldIndex)
		}
		j := len(stable) - 1

		// Walk backwards so each node's successor is already in place.
		for k := toBePatched - 1; k >= 0; k-- {
			idx := s2 + k
			next := c2[idx]
			at := r.anchorAfter(c2, idx, anchor)

			switch {
			case newIndexToOldIndex[k] == 0:
				r.patch(nil, next, container, at, parent)
			case moved:
				if j < 0 || k != stable[j] {
					r.move(next, container, at)
				} else {
					j--
				}
			}
		}
	}
}

// anchorAfter returns the first host node of c2[idx+1], or anchor when idx
// is the last index.
func (r *Renderer) anchorAfter(c2 []*Node, idx int, anchor any) any {
	if idx+1 < len(c2) {
		return hostFirst(c2[idx+1])
	}
	return anchor
}
