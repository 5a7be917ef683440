package dom

import (
	"sync/atomic"

	"golang.org/x/net/html"
)

// Listener handles a dispatched event.
type Listener func(*Event)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

var listenerSeq atomic.Uint64

// Event is dispatched to a node and bubbles to its ancestors.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node
	Detail        any

	stopped bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// AddEventListener registers fn for events of the given type on n.
func AddEventListener(n *html.Node, typ string, fn Listener) ListenerID {
	id := ListenerID(listenerSeq.Add(1))
	st := stateOf(n, true)
	states.Lock()
	if st.listeners == nil {
		st.listeners = make(map[string][]listenerEntry)
	}
	st.listeners[typ] = append(st.listeners[typ], listenerEntry{id: id, fn: fn})
	states.Unlock()
	return id
}

// RemoveEventListener unregisters a listener. Unknown ids are ignored.
func RemoveEventListener(n *html.Node, typ string, id ListenerID) {
	st := stateOf(n, false)
	if st == nil {
		return
	}
	states.Lock()
	defer states.Unlock()
	entries := st.listeners[typ]
	for i, e := range entries {
		if e.id == id {
			st.listeners[typ] = append(entries[:i:i], entries[i+1:]...)
			pruneLocked(n, st)
			return
		}
	}
}

// ListenerCount returns how many listeners of a type are registered on n.
func ListenerCount(n *html.Node, typ string) int {
	st := stateOf(n, false)
	if st == nil {
		return 0
	}
	states.Lock()
	defer states.Unlock()
	return len(st.listeners[typ])
}

// Dispatch delivers ev to target and then to each ancestor until a
// listener stops propagation.
func Dispatch(target *html.Node, ev *Event) {
	ev.Target = target
	for n := target; n != nil && !ev.stopped; n = n.Parent {
		st := stateOf(n, false)
		if st == nil {
			continue
		}
		states.Lock()
		entries := append([]listenerEntry(nil), st.listeners[ev.Type]...)
		states.Unlock()

		ev.CurrentTarget = n
		for _, e := range entries {
			e.fn(ev)
		}
	}
}
