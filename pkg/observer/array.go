package observer

import (
	"slices"
	"sort"

	"github.com/vango-dev/trellis/internal/identity"
)

// Array is the proxy of a *[]any. SetAt is a keyed write; every other
// mutator rewrites the sequence and notifies all dependents.
type Array struct {
	core
	target *[]any
}

func wrapArray(t *Tracker, v any, key regKey) Proxy {
	a := &Array{
		core:   core{id: ID(key.addr), kind: KindArray, t: t},
		target: v.(*[]any),
	}
	track(t.registry, key, a)
	return a
}

// Raw implements Proxy.
func (a *Array) Raw() any { return a.target }

// Target returns the wrapped slice pointer.
func (a *Array) Target() *[]any { return a.target }

// At returns element i, or nil when i is out of range.
func (a *Array) At(i int) any {
	a.mu.RLock()
	var v any
	if i >= 0 && i < len(*a.target) {
		v = (*a.target)[i]
	}
	a.mu.RUnlock()

	a.read(i)
	return a.wrap(v)
}

// Len returns the number of elements.
func (a *Array) Len() int {
	a.mu.RLock()
	n := len(*a.target)
	a.mu.RUnlock()

	a.readAll()
	return n
}

// Values returns a copy of the elements.
func (a *Array) Values() []any {
	a.mu.RLock()
	out := slices.Clone(*a.target)
	a.mu.RUnlock()

	a.readAll()
	return a.wrapAll(out)
}

// Range calls fn for each element in order until fn returns false.
func (a *Array) Range(fn func(i int, v any) bool) {
	for i, v := range a.Values() {
		if !fn(i, v) {
			return
		}
	}
}

// IndexOf returns the index of the first element identical to v, or -1.
func (a *Array) IndexOf(v any) int {
	v = Raw(v)
	a.mu.RLock()
	idx := -1
	for i, x := range *a.target {
		if identity.Same(x, v) {
			idx = i
			break
		}
	}
	a.mu.RUnlock()

	a.readAll()
	return idx
}

// SetAt stores v at index i. Writing past the end grows the slice with
// nils and counts as a structural write.
func (a *Array) SetAt(i int, v any) {
	if i < 0 {
		panic("observer: negative array index")
	}
	v = Raw(v)

	a.mu.Lock()
	s := *a.target
	grew := i >= len(s)
	if grew {
		s = append(s, make([]any, i+1-len(s))...)
	}
	s[i] = v
	*a.target = s
	a.mu.Unlock()

	if grew {
		a.t.notifyAll(a.id)
		return
	}
	a.t.notify(a.id, i)
}

// Push appends vs and returns the new length.
func (a *Array) Push(vs ...any) int {
	a.mu.Lock()
	*a.target = append(*a.target, rawAll(vs)...)
	n := len(*a.target)
	a.mu.Unlock()

	a.t.notifyAll(a.id)
	return n
}

// Pop removes and returns the last element, or nil when empty.
func (a *Array) Pop() any {
	a.mu.Lock()
	s := *a.target
	if len(s) == 0 {
		a.mu.Unlock()
		a.readAll()
		return nil
	}
	v := s[len(s)-1]
	s[len(s)-1] = nil
	*a.target = s[:len(s)-1]
	a.mu.Unlock()

	a.t.notifyAll(a.id)
	return v
}

// Shift removes and returns the first element, or nil when empty.
func (a *Array) Shift() any {
	a.mu.Lock()
	s := *a.target
	if len(s) == 0 {
		a.mu.Unlock()
		a.readAll()
		return nil
	}
	v := s[0]
	*a.target = slices.Delete(s, 0, 1)
	a.mu.Unlock()

	a.t.notifyAll(a.id)
	return v
}

// Unshift prepends vs and returns the new length.
func (a *Array) Unshift(vs ...any) int {
	a.mu.Lock()
	*a.target = slices.Insert(*a.target, 0, rawAll(vs)...)
	n := len(*a.target)
	a.mu.Unlock()

	a.t.notifyAll(a.id)
	return n
}

// Splice removes deleteCount elements at start, inserts items there, and
// returns the removed elements. Out-of-range arguments are clamped.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	a.mu.Lock()
	s := *a.target
	start = clamp(start, 0, len(s))
	end := clamp(start+max(deleteCount, 0), start, len(s))

	removed := slices.Clone(s[start:end])
	*a.target = slices.Replace(s, start, end, rawAll(items)...)
	a.mu.Unlock()

	a.t.notifyAll(a.id)
	return removed
}

// Reverse reverses the elements in place.
func (a *Array) Reverse() {
	a.mu.Lock()
	slices.Reverse(*a.target)
	a.mu.Unlock()

	a.t.notifyAll(a.id)
}

// Sort sorts the elements with less. The sort is stable.
func (a *Array) Sort(less func(x, y any) bool) {
	a.mu.Lock()
	s := *a.target
	sort.SliceStable(s, func(i, j int) bool { return less(s[i], s[j]) })
	a.mu.Unlock()

	a.t.notifyAll(a.id)
}

// Fill sets elements in [start, end) to v. Out-of-range bounds are clamped.
func (a *Array) Fill(v any, start, end int) {
	v = Raw(v)
	a.mu.Lock()
	s := *a.target
	start = clamp(start, 0, len(s))
	end = clamp(end, start, len(s))
	for i := start; i < end; i++ {
		s[i] = v
	}
	a.mu.Unlock()

	a.t.notifyAll(a.id)
}

func rawAll(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = Raw(v)
	}
	return out
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
