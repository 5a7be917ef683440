package observer

// Batch runs fn with notifications held back. When the outermost batch
// ends, every affected updatable is updated once.
//
//	t.Batch(func() {
//	    user.Set("first", "Ada")
//	    user.Set("last", "Lovelace")
//	})
//	// dependents of user update once
func (t *Tracker) Batch(fn func()) {
	t.mu.Lock()
	t.batchDepth++
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.batchDepth--
		if t.batchDepth > 0 {
			t.mu.Unlock()
			return
		}
		pending := t.pending
		t.pending = nil
		t.mu.Unlock()

		for _, u := range dedupe(pending) {
			u.Update()
		}
	}()

	fn()
}

// dedupe keeps the first occurrence of each updatable.
func dedupe(us []Updatable) []Updatable {
	if len(us) < 2 {
		return us
	}
	seen := make(map[Updatable]bool, len(us))
	out := us[:0]
	for _, u := range us {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
