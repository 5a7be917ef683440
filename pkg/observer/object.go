package observer

import "sort"

// Object is the proxy of a map[string]any.
type Object struct {
	core
	target map[string]any
}

func wrapObject(t *Tracker, v any, key regKey) Proxy {
	o := &Object{
		core:   core{id: ID(key.addr), kind: KindObject, t: t},
		target: v.(map[string]any),
	}
	track(t.registry, key, o)
	return o
}

// Raw implements Proxy.
func (o *Object) Raw() any { return o.target }

// Target returns the wrapped map. Writes to it bypass notification.
func (o *Object) Target() map[string]any { return o.target }

// Get returns the value under key, or nil.
func (o *Object) Get(key string) any {
	o.mu.RLock()
	v := o.target[key]
	o.mu.RUnlock()

	o.read(key)
	return o.wrap(v)
}

// Lookup is Get with a presence flag.
func (o *Object) Lookup(key string) (any, bool) {
	o.mu.RLock()
	v, ok := o.target[key]
	o.mu.RUnlock()

	o.read(key)
	return o.wrap(v), ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	o.mu.RLock()
	_, ok := o.target[key]
	o.mu.RUnlock()

	o.read(key)
	return ok
}

// Len returns the number of keys.
func (o *Object) Len() int {
	o.mu.RLock()
	n := len(o.target)
	o.mu.RUnlock()

	o.readAll()
	return n
}

// Keys returns the keys in sorted order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	keys := make([]string, 0, len(o.target))
	for k := range o.target {
		keys = append(keys, k)
	}
	o.mu.RUnlock()

	o.readAll()
	sort.Strings(keys)
	return keys
}

// Range calls fn for each entry in key order until fn returns false.
func (o *Object) Range(fn func(key string, value any) bool) {
	for _, k := range o.Keys() {
		o.mu.RLock()
		v, ok := o.target[k]
		o.mu.RUnlock()
		if !ok {
			continue
		}
		if !fn(k, o.wrap(v)) {
			return
		}
	}
}

// Set stores value under key and notifies. Proxies are stored unwrapped.
func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	o.target[key] = Raw(value)
	o.mu.Unlock()

	o.t.notify(o.id, key)
}

// Delete removes key and notifies. Deleting a missing key changes nothing
// and is recorded as a read of that key.
func (o *Object) Delete(key string) bool {
	o.mu.Lock()
	_, ok := o.target[key]
	if ok {
		delete(o.target, key)
	}
	o.mu.Unlock()

	if !ok {
		o.read(key)
		return false
	}
	o.t.notify(o.id, key)
	return true
}

// Clear removes every key and notifies all dependents.
func (o *Object) Clear() {
	o.mu.Lock()
	clear(o.target)
	o.mu.Unlock()

	o.t.notifyAll(o.id)
}
