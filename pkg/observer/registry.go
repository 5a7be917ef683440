package observer

import (
	"reflect"
	"runtime"
	"sync"
	"unsafe"
	"weak"
)

// ID identifies an observed target by its address. Edges are keyed by ID,
// so dependencies survive the proxy being collected and recreated.
type ID uintptr

// Kind is the category of an observed target.
type Kind uint8

const (
	KindObject Kind = iota
	KindArray
	KindMap
	KindSet

	numKinds
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindSet:
		return "Set"
	default:
		return "Unknown"
	}
}

// strategy is how one kind of target is identified and wrapped.
type strategy struct {
	addr func(v any) uintptr
	wrap func(t *Tracker, v any, key regKey) Proxy
}

var strategies = [numKinds]strategy{
	KindObject: {addr: mapAddr, wrap: wrapObject},
	KindArray:  {addr: arrayAddr, wrap: wrapArray},
	KindMap:    {addr: mapAddr, wrap: wrapMap},
	KindSet:    {addr: mapAddr, wrap: wrapSet},
}

// kindOf reports the kind of v, or false when v cannot be observed.
// nil targets cannot be observed.
func kindOf(v any) (Kind, bool) {
	switch x := v.(type) {
	case map[string]any:
		return KindObject, x != nil
	case *[]any:
		return KindArray, x != nil
	case map[any]any:
		return KindMap, x != nil
	case map[any]struct{}:
		return KindSet, x != nil
	}
	return 0, false
}

func mapAddr(v any) uintptr {
	return uintptr(reflect.ValueOf(v).UnsafePointer())
}

func arrayAddr(v any) uintptr {
	return uintptr(unsafe.Pointer(v.(*[]any)))
}

type regKey struct {
	kind Kind
	addr uintptr
}

// weakProxy is a weak reference to one proxy.
type weakProxy interface {
	value() Proxy
}

type weakRef[P any] struct {
	ptr weak.Pointer[P]
}

func (w weakRef[P]) value() Proxy {
	p := w.ptr.Value()
	if p == nil {
		return nil
	}
	return any(p).(Proxy)
}

// registry maps targets to proxies without keeping either alive. An entry
// is purged once its proxy is collected.
type registry struct {
	wrapMu sync.Mutex // serialises lookup-then-wrap

	mu      sync.Mutex
	entries map[regKey]weakProxy
}

func newRegistry() *registry {
	return &registry{entries: make(map[regKey]weakProxy)}
}

func (r *registry) lookup(key regKey) Proxy {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		return e.value()
	}
	return nil
}

// track stores a weak reference to p and arranges for its removal.
func track[P any](r *registry, key regKey, p *P) {
	r.mu.Lock()
	r.entries[key] = weakRef[P]{ptr: weak.Make(p)}
	r.mu.Unlock()

	runtime.AddCleanup(p, r.purge, key)
}

// purge drops key unless a newer proxy has taken its place.
func (r *registry) purge(key regKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok && e.value() == nil {
		delete(r.entries, key)
	}
}

// Len returns the number of live registry entries.
func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.value() != nil {
			n++
		}
	}
	return n
}
