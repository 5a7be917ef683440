package observer

// Map is the proxy of a map[any]any. Keys must be comparable.
type Map struct {
	core
	target map[any]any
}

func wrapMap(t *Tracker, v any, key regKey) Proxy {
	m := &Map{
		core:   core{id: ID(key.addr), kind: KindMap, t: t},
		target: v.(map[any]any),
	}
	track(t.registry, key, m)
	return m
}

// Raw implements Proxy.
func (m *Map) Raw() any { return m.target }

// Target returns the wrapped map.
func (m *Map) Target() map[any]any { return m.target }

// Get returns the value under key, or nil.
func (m *Map) Get(key any) any {
	key = Raw(key)
	m.mu.RLock()
	v := m.target[key]
	m.mu.RUnlock()

	m.read(key)
	return m.wrap(v)
}

// Has reports whether key is present.
func (m *Map) Has(key any) bool {
	key = Raw(key)
	m.mu.RLock()
	_, ok := m.target[key]
	m.mu.RUnlock()

	m.read(key)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	m.mu.RLock()
	n := len(m.target)
	m.mu.RUnlock()

	m.readAll()
	return n
}

// Keys returns the keys in unspecified order.
func (m *Map) Keys() []any {
	m.mu.RLock()
	keys := make([]any, 0, len(m.target))
	for k := range m.target {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	m.readAll()
	return keys
}

// Range calls fn for each entry until fn returns false.
func (m *Map) Range(fn func(key, value any) bool) {
	for _, k := range m.Keys() {
		m.mu.RLock()
		v, ok := m.target[k]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if !fn(m.wrap(k), m.wrap(v)) {
			return
		}
	}
}

// Set stores value under key and notifies.
func (m *Map) Set(key, value any) {
	key = Raw(key)
	m.mu.Lock()
	m.target[key] = Raw(value)
	m.mu.Unlock()

	m.t.notify(m.id, key)
}

// Delete removes key and notifies. A missing key is recorded as a read.
func (m *Map) Delete(key any) bool {
	key = Raw(key)
	m.mu.Lock()
	_, ok := m.target[key]
	if ok {
		delete(m.target, key)
	}
	m.mu.Unlock()

	if !ok {
		m.read(key)
		return false
	}
	m.t.notify(m.id, key)
	return true
}

// Clear removes every entry and notifies all dependents.
func (m *Map) Clear() {
	m.mu.Lock()
	clear(m.target)
	m.mu.Unlock()

	m.t.notifyAll(m.id)
}
