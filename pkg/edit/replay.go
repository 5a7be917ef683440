package edit

import "slices"

// Replay applies ops to a physical copy of oldItems the way a renderer
// applies them to live nodes, and returns the resulting list:
//
//   - Delete removes the old item.
//   - Leave and Modify keep the old slot where it is; Modify replaces its
//     content with the new item.
//   - Move, MoveModify and Insert place the slot right before the slot of
//     the next new index, processing new indices from last to first.
//
// A correct script makes the result equal to newItems.
func Replay[T any](oldItems []T, ops []Op, newItems []T) []T {
	vals := make(map[int]T, len(oldItems)+len(newItems))
	live := make([]int, len(oldItems))
	for i, v := range oldItems {
		live[i] = i
		vals[i] = v
	}

	slotFor := make([]int, len(newItems))
	opFor := make([]Op, len(newItems))
	nextID := len(oldItems)

	for _, op := range ops {
		switch op.Kind {
		case Delete:
			live = removeID(live, op.From)
		case Leave, Move:
			slotFor[op.To] = op.From
			opFor[op.To] = op
		case Modify, MoveModify:
			slotFor[op.To] = op.From
			opFor[op.To] = op
			vals[op.From] = newItems[op.To]
		case Insert:
			slotFor[op.To] = nextID
			opFor[op.To] = op
			vals[nextID] = newItems[op.To]
			nextID++
		}
	}

	before := -1
	for j := len(newItems) - 1; j >= 0; j-- {
		id := slotFor[j]
		if opFor[j].Relocates() {
			live = removeID(live, id)
			at := len(live)
			if before >= 0 {
				at = slices.Index(live, before)
			}
			live = slices.Insert(live, at, id)
		}
		before = id
	}

	out := make([]T, len(live))
	for k, id := range live {
		out[k] = vals[id]
	}
	return out
}

func removeID(live []int, id int) []int {
	if k := slices.Index(live, id); k >= 0 {
		return slices.Delete(live, k, k+1)
	}
	return live
}
