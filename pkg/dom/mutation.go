package dom

import (
	"sync"

	"golang.org/x/net/html"
)

// MutationKind classifies a recorded change.
type MutationKind uint8

const (
	MutationChildList MutationKind = iota + 1
	MutationAttributes
	MutationCharacterData
	MutationProperty
)

// String returns the string representation of the MutationKind.
func (k MutationKind) String() string {
	switch k {
	case MutationChildList:
		return "childList"
	case MutationAttributes:
		return "attributes"
	case MutationCharacterData:
		return "characterData"
	case MutationProperty:
		return "property"
	default:
		return "unknown"
	}
}

// Mutation is one recorded change.
type Mutation struct {
	Kind     MutationKind
	Target   *html.Node
	Name     string
	OldValue string
	Added    *html.Node
	Removed  *html.Node
}

// Recorder collects mutations made inside a subtree.
type Recorder struct {
	root    *html.Node
	mu      sync.Mutex
	records []Mutation
}

var recorders = struct {
	sync.Mutex
	byRoot map[*html.Node][]*Recorder
}{byRoot: make(map[*html.Node][]*Recorder)}

// Record starts recording mutations in root's subtree, root included.
func Record(root *html.Node) *Recorder {
	r := &Recorder{root: root}
	recorders.Lock()
	recorders.byRoot[root] = append(recorders.byRoot[root], r)
	recorders.Unlock()
	return r
}

// Stop detaches the recorder.
func (r *Recorder) Stop() {
	recorders.Lock()
	defer recorders.Unlock()
	list := recorders.byRoot[r.root]
	for i, x := range list {
		if x == r {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(recorders.byRoot, r.root)
	} else {
		recorders.byRoot[r.root] = list
	}
}

// Records returns the mutations seen so far.
func (r *Recorder) Records() []Mutation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mutation(nil), r.records...)
}

// Reset drops the recorded mutations.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}

// Touched returns the distinct targets of the recorded mutations.
func (r *Recorder) Touched() []*html.Node {
	seen := make(map[*html.Node]bool)
	var out []*html.Node
	for _, m := range r.Records() {
		if !seen[m.Target] {
			seen[m.Target] = true
			out = append(out, m.Target)
		}
	}
	return out
}

func (r *Recorder) add(m Mutation) {
	r.mu.Lock()
	r.records = append(r.records, m)
	r.mu.Unlock()
}

// notify delivers m to every recorder whose root contains at.
func notify(at *html.Node, m Mutation) {
	recorders.Lock()
	if len(recorders.byRoot) == 0 {
		recorders.Unlock()
		return
	}
	var hit []*Recorder
	for n := at; n != nil; n = n.Parent {
		hit = append(hit, recorders.byRoot[n]...)
	}
	recorders.Unlock()

	for _, r := range hit {
		r.add(m)
	}
}
