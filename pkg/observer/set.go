package observer

// Set is the proxy of a map[any]struct{}. Members must be comparable.
type Set struct {
	core
	target map[any]struct{}
}

func wrapSet(t *Tracker, v any, key regKey) Proxy {
	s := &Set{
		core:   core{id: ID(key.addr), kind: KindSet, t: t},
		target: v.(map[any]struct{}),
	}
	track(t.registry, key, s)
	return s
}

// Raw implements Proxy.
func (s *Set) Raw() any { return s.target }

// Target returns the wrapped map.
func (s *Set) Target() map[any]struct{} { return s.target }

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	v = Raw(v)
	s.mu.RLock()
	_, ok := s.target[v]
	s.mu.RUnlock()

	s.read(v)
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	s.mu.RLock()
	n := len(s.target)
	s.mu.RUnlock()

	s.readAll()
	return n
}

// Values returns the members in unspecified order.
func (s *Set) Values() []any {
	s.mu.RLock()
	out := make([]any, 0, len(s.target))
	for v := range s.target {
		out = append(out, v)
	}
	s.mu.RUnlock()

	s.readAll()
	return s.wrapAll(out)
}

// Range calls fn for each member until fn returns false.
func (s *Set) Range(fn func(v any) bool) {
	for _, v := range s.Values() {
		if !fn(v) {
			return
		}
	}
}

// Add inserts v and notifies.
func (s *Set) Add(v any) {
	v = Raw(v)
	s.mu.Lock()
	s.target[v] = struct{}{}
	s.mu.Unlock()

	s.t.notify(s.id, v)
}

// Delete removes v and notifies. A missing member is recorded as a read.
func (s *Set) Delete(v any) bool {
	v = Raw(v)
	s.mu.Lock()
	_, ok := s.target[v]
	if ok {
		delete(s.target, v)
	}
	s.mu.Unlock()

	if !ok {
		s.read(v)
		return false
	}
	s.t.notify(s.id, v)
	return true
}

// Clear removes every member and notifies all dependents.
func (s *Set) Clear() {
	s.mu.Lock()
	clear(s.target)
	s.mu.Unlock()

	s.t.notifyAll(s.id)
}
