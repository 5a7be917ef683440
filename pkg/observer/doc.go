// Package observer tracks which updatables read which data, and tells them
// when that data changes.
//
// Data is observed through proxies: Object wraps a map[string]any, Array a
// *[]any, Map a map[any]any and Set a map[any]struct{}. Reads through a
// proxy while an evaluation is open record a dependency edge; writes call
// Update on every updatable with an edge to what was written.
//
//	t := observer.NewTracker()
//	state := t.Object(map[string]any{"count": 0})
//
//	t.StartUpdating(c)
//	_ = state.Get("count") // c now depends on state
//	t.EndUpdating(c)
//
//	state.Set("count", 1) // calls c.Update()
//
// An updatable that implements PropertyTracker and returns true records
// edges per key, so writes to other keys of the same target leave it alone.
// Structural reads such as Len, Keys and Range always depend on the whole
// target.
//
// Nested containers are wrapped lazily: a read returns a proxy only while
// an evaluation is open, and the raw value otherwise.
package observer
