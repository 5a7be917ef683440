package observer

import (
	"fmt"
	"sync"

	"github.com/vango-dev/trellis/internal/errors"
)

// ErrCannotObserve is returned by Wrap for values that have no proxy kind.
var ErrCannotObserve = errors.New("T002")

// Proxy is implemented by Object, Array, Map and Set.
type Proxy interface {
	// ID identifies the wrapped target.
	ID() ID
	// Kind reports which proxy type this is.
	Kind() Kind
	// Raw returns the wrapped target.
	Raw() any
	// Tracker returns the tracker the proxy reports to.
	Tracker() *Tracker
}

// core is the state every proxy shares.
type core struct {
	id   ID
	kind Kind
	t    *Tracker
	mu   sync.RWMutex
}

func (c *core) ID() ID            { return c.id }
func (c *core) Kind() Kind        { return c.kind }
func (c *core) Tracker() *Tracker { return c.t }

func (c *core) read(key any) { c.t.record(c.id, key) }

func (c *core) readAll() { c.t.record(c.id, Whole) }

// wrap proxies nested containers, but only while an evaluation is open.
func (c *core) wrap(v any) any {
	if !c.t.Tracking() {
		return v
	}
	return c.t.Observe(v)
}

func (c *core) wrapAll(vs []any) []any {
	if !c.t.Tracking() {
		return vs
	}
	for i, v := range vs {
		vs[i] = c.t.Observe(v)
	}
	return vs
}

// Observe returns the canonical proxy for v. Proxies are returned as is;
// values that cannot be observed are returned unchanged. Observing the same
// target twice yields the same proxy for as long as it is reachable.
func (t *Tracker) Observe(v any) any {
	if _, ok := v.(Proxy); ok {
		return v
	}
	kind, ok := kindOf(v)
	if !ok {
		return v
	}

	s := strategies[kind]
	key := regKey{kind: kind, addr: s.addr(v)}

	t.registry.wrapMu.Lock()
	defer t.registry.wrapMu.Unlock()
	if p := t.registry.lookup(key); p != nil {
		return p
	}
	return s.wrap(t, v, key)
}

// Wrap is Observe for callers that need a proxy.
func (t *Tracker) Wrap(v any) (Proxy, error) {
	p, ok := t.Observe(v).(Proxy)
	if !ok {
		return nil, ErrCannotObserve.WithDetail(fmt.Sprintf("got %T", v))
	}
	return p, nil
}

// Object returns the proxy for m, creating an empty map when m is nil.
func (t *Tracker) Object(m map[string]any) *Object {
	if m == nil {
		m = make(map[string]any)
	}
	return t.Observe(m).(*Object)
}

// Array returns the proxy for p, creating an empty slice when p is nil.
func (t *Tracker) Array(p *[]any) *Array {
	if p == nil {
		p = new([]any)
	}
	return t.Observe(p).(*Array)
}

// Map returns the proxy for m, creating an empty map when m is nil.
func (t *Tracker) Map(m map[any]any) *Map {
	if m == nil {
		m = make(map[any]any)
	}
	return t.Observe(m).(*Map)
}

// Set returns the proxy for m, creating an empty set when m is nil.
func (t *Tracker) Set(m map[any]struct{}) *Set {
	if m == nil {
		m = make(map[any]struct{})
	}
	return t.Observe(m).(*Set)
}

// Raw unwraps a proxy. Other values are returned unchanged.
func Raw(v any) any {
	if p, ok := v.(Proxy); ok {
		return p.Raw()
	}
	return v
}
