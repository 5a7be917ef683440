package edit

import "reflect"

// Compute returns the edit script that turns oldItems into newItems, with
// items matched by ==. Ops are ordered by new index, followed by Deletes
// in old order.
//
// Duplicates are matched at most once: the first occurrence of a value in
// oldItems pairs with the first occurrence in newItems, and any further
// copies are treated as unmatched.
func Compute[T comparable](oldItems, newItems []T, allowReuse bool) []Op {
	first := make(map[T]int, len(oldItems))
	for i, v := range oldItems {
		if _, seen := first[v]; !seen {
			first[v] = i
		}
	}

	m := newMatching(len(oldItems), len(newItems))
	for j, v := range newItems {
		if i, ok := first[v]; ok && m.oldToNew[i] < 0 {
			m.pair(i, j)
		}
	}
	return m.script(allowReuse)
}

// ComputeKeys is Compute for keys of arbitrary dynamic type. Keys whose
// dynamic type is not comparable never match anything.
func ComputeKeys(oldKeys, newKeys []any, allowReuse bool) []Op {
	first := make(map[any]int, len(oldKeys))
	for i, k := range oldKeys {
		if !keyable(k) {
			continue
		}
		if _, seen := first[k]; !seen {
			first[k] = i
		}
	}

	m := newMatching(len(oldKeys), len(newKeys))
	for j, k := range newKeys {
		if !keyable(k) {
			continue
		}
		if i, ok := first[k]; ok && m.oldToNew[i] < 0 {
			m.pair(i, j)
		}
	}
	return m.script(allowReuse)
}

func keyable(k any) bool {
	if k == nil {
		return true
	}
	return reflect.TypeOf(k).Comparable()
}

// matching is the bidirectional old/new index map.
type matching struct {
	oldToNew []int
	newToOld []int
}

func newMatching(nOld, nNew int) *matching {
	m := &matching{
		oldToNew: make([]int, nOld),
		newToOld: make([]int, nNew),
	}
	for i := range m.oldToNew {
		m.oldToNew[i] = -1
	}
	for j := range m.newToOld {
		m.newToOld[j] = -1
	}
	return m
}

func (m *matching) pair(i, j int) {
	m.oldToNew[i] = j
	m.newToOld[j] = i
}

// stable marks the matched old items that never need to move: those whose
// new indices, read in old order, form the longest increasing subsequence.
func (m *matching) stable() []bool {
	var seq, at []int
	for i, j := range m.oldToNew {
		if j >= 0 {
			seq = append(seq, j)
			at = append(at, i)
		}
	}
	stable := make([]bool, len(m.oldToNew))
	for _, k := range LongestIncreasingSubsequence(seq) {
		stable[at[k]] = true
	}
	return stable
}

// script walks both lists with one cursor each and emits the ops.
func (m *matching) script(allowReuse bool) []Op {
	nOld, nNew := len(m.oldToNew), len(m.newToOld)
	stable := m.stable()
	consumed := make([]bool, nOld)
	ops := make([]Op, 0, nNew)

	// cursor is the old item physically following the last item left in
	// place; spare scans for removed items that can be recycled elsewhere.
	cursor, spare := 0, 0

	for j := 0; j < nNew; j++ {
		for cursor < nOld && (consumed[cursor] || (m.oldToNew[cursor] >= 0 && !stable[cursor])) {
			cursor++
		}

		if i := m.newToOld[j]; i >= 0 {
			consumed[i] = true
			if stable[i] {
				ops = append(ops, Op{Kind: Leave, From: i, To: j})
				cursor = i + 1
			} else {
				ops = append(ops, Op{Kind: Move, From: i, To: j})
			}
			continue
		}

		if allowReuse {
			if cursor < nOld && m.oldToNew[cursor] < 0 {
				ops = append(ops, Op{Kind: Modify, From: cursor, To: j})
				consumed[cursor] = true
				cursor++
				continue
			}
			for spare < nOld && (consumed[spare] || m.oldToNew[spare] >= 0) {
				spare++
			}
			if spare < nOld {
				ops = append(ops, Op{Kind: MoveModify, From: spare, To: j})
				consumed[spare] = true
				continue
			}
		}

		ops = append(ops, Op{Kind: Insert, From: -1, To: j})
	}

	for i := 0; i < nOld; i++ {
		if !consumed[i] {
			ops = append(ops, Op{Kind: Delete, From: i, To: -1})
		}
	}
	return ops
}

// Count returns how many ops of the given kind a script contains.
func Count(ops []Op, kind Kind) int {
	n := 0
	for _, op := range ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
