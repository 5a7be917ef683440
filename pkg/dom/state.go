package dom

import (
	"runtime"
	"sync"
	"weak"

	"golang.org/x/net/html"
)

// nodeState holds what a browser keeps on a DOM object but html.Node can't.
type nodeState struct {
	props     map[string]any
	listeners map[string][]listenerEntry
}

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// states is keyed by weak pointers so it never keeps a node alive.
var states = struct {
	sync.Mutex
	m map[weak.Pointer[html.Node]]*nodeState
}{m: make(map[weak.Pointer[html.Node]]*nodeState)}

func stateOf(n *html.Node, create bool) *nodeState {
	key := weak.Make(n)

	states.Lock()
	defer states.Unlock()

	st, ok := states.m[key]
	if !ok && create {
		st = &nodeState{}
		states.m[key] = st
		runtime.AddCleanup(n, func(k weak.Pointer[html.Node]) {
			states.Lock()
			delete(states.m, k)
			states.Unlock()
		}, key)
	}
	return st
}

// pruneLocked drops the entry of n once nothing is left on it, so a table
// value that refers back to n does not outlive its last listener.
func pruneLocked(n *html.Node, st *nodeState) {
	if len(st.props) > 0 {
		return
	}
	for _, entries := range st.listeners {
		if len(entries) > 0 {
			return
		}
	}
	delete(states.m, weak.Make(n))
}

// SetProperty assigns a property on n.
func SetProperty(n *html.Node, name string, value any) {
	st := stateOf(n, true)
	states.Lock()
	if st.props == nil {
		st.props = make(map[string]any)
	}
	st.props[name] = value
	states.Unlock()
	notify(n, Mutation{Kind: MutationProperty, Target: n, Name: name})
}

// DeleteProperty removes a property from n.
func DeleteProperty(n *html.Node, name string) {
	st := stateOf(n, false)
	if st == nil {
		return
	}
	states.Lock()
	_, had := st.props[name]
	delete(st.props, name)
	pruneLocked(n, st)
	states.Unlock()
	if had {
		notify(n, Mutation{Kind: MutationProperty, Target: n, Name: name})
	}
}

// Property returns a property previously assigned on n.
func Property(n *html.Node, name string) (any, bool) {
	st := stateOf(n, false)
	if st == nil {
		return nil, false
	}
	states.Lock()
	defer states.Unlock()
	v, ok := st.props[name]
	return v, ok
}
