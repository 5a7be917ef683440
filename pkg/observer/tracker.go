package observer

import (
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/vango-dev/trellis/internal/errors"
)

// ErrUnbalanced is returned by EndUpdating when the updatable is not the
// innermost open evaluation.
var ErrUnbalanced = errors.New("T001")

// Updatable is anything that can be told its inputs changed.
type Updatable interface {
	Update()
}

// PropertyTracker is implemented by updatables that want per-key edges.
type PropertyTracker interface {
	TracksProperties() bool
}

// wholeKey is the edge key of whole-target dependencies.
type wholeKey struct{}

// Whole is the key of a whole-target dependency. DependentsOf(p, Whole)
// returns every updatable that depends on p.
var Whole any = wholeKey{}

type edge struct {
	target ID
	key    any
}

// Dependency is one edge as reported by DependenciesOf.
type Dependency struct {
	Target ID
	Key    any
}

// IsWhole reports whether d depends on the whole target.
func (d Dependency) IsWhole() bool {
	return d.Key == Whole
}

type frame struct {
	u      Updatable
	byProp bool
	edges  mapset.Set[edge]
}

// Tracker owns the proxy registry and the dependency edge store.
//
// Evaluations nest: StartUpdating pushes a frame, EndUpdating pops it and
// replaces the updatable's edges with the reads made inside the frame.
// Reads in a nested evaluation belong only to the innermost frame.
type Tracker struct {
	logger *slog.Logger

	mu    sync.Mutex
	stack []*frame
	subs  map[ID]map[any]mapset.Set[Updatable]
	deps  map[Updatable]mapset.Set[edge]

	batchDepth int
	pending    []Updatable

	registry *registry
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the tracker's logger.
func WithLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = l
	}
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		subs:     make(map[ID]map[any]mapset.Set[Updatable]),
		deps:     make(map[Updatable]mapset.Set[edge]),
		registry: newRegistry(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default().With("component", "observer")
	}
	return t
}

// StartUpdating opens an evaluation for u.
func (t *Tracker) StartUpdating(u Updatable) {
	byProp := false
	if pt, ok := u.(PropertyTracker); ok {
		byProp = pt.TracksProperties()
	}

	t.mu.Lock()
	t.stack = append(t.stack, &frame{
		u:      u,
		byProp: byProp,
		edges:  mapset.NewThreadUnsafeSet[edge](),
	})
	t.mu.Unlock()
}

// EndUpdating closes u's evaluation and commits the reads it made as u's
// full edge set. It fails without changing anything when u is not the
// innermost open evaluation.
func (t *Tracker) EndUpdating(u Updatable) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.stack)
	if n == 0 || t.stack[n-1].u != u {
		t.logger.Warn("unbalanced evaluation bracket", ErrUnbalanced.LogFields()...)
		return ErrUnbalanced
	}
	top := t.stack[n-1]
	t.stack[n-1] = nil
	t.stack = t.stack[:n-1]

	t.commitLocked(u, top.edges)
	return nil
}

// Untracked runs fn with dependency recording suspended.
func (t *Tracker) Untracked(fn func()) {
	t.mu.Lock()
	t.stack = append(t.stack, &frame{})
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.stack = t.stack[:len(t.stack)-1]
		t.mu.Unlock()
	}()

	fn()
}

// Tracking reports whether reads are being recorded right now.
func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trackingLocked()
}

func (t *Tracker) trackingLocked() bool {
	n := len(t.stack)
	return n > 0 && t.stack[n-1].u != nil
}

// Current returns the innermost open updatable, or nil.
func (t *Tracker) Current() Updatable {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.stack); n > 0 {
		return t.stack[n-1].u
	}
	return nil
}

// record adds an edge from the innermost evaluation to target/key.
func (t *Tracker) record(target ID, key any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.stack)
	if n == 0 {
		return
	}
	f := t.stack[n-1]
	if f.u == nil {
		return
	}
	if !f.byProp {
		key = Whole
	}
	f.edges.Add(edge{target: target, key: key})
}

// commitLocked replaces u's edges with next.
func (t *Tracker) commitLocked(u Updatable, next mapset.Set[edge]) {
	prev, ok := t.deps[u]
	if !ok {
		prev = mapset.NewThreadUnsafeSet[edge]()
	}

	for e := range prev.Difference(next).Iter() {
		t.unsubscribeLocked(u, e)
	}
	for e := range next.Difference(prev).Iter() {
		byKey, ok := t.subs[e.target]
		if !ok {
			byKey = make(map[any]mapset.Set[Updatable])
			t.subs[e.target] = byKey
		}
		set, ok := byKey[e.key]
		if !ok {
			set = mapset.NewThreadUnsafeSet[Updatable]()
			byKey[e.key] = set
		}
		set.Add(u)
	}

	if next.Cardinality() == 0 {
		delete(t.deps, u)
		return
	}
	t.deps[u] = next
}

func (t *Tracker) unsubscribeLocked(u Updatable, e edge) {
	byKey, ok := t.subs[e.target]
	if !ok {
		return
	}
	set, ok := byKey[e.key]
	if !ok {
		return
	}
	set.Remove(u)
	if set.Cardinality() == 0 {
		delete(byKey, e.key)
	}
	if len(byKey) == 0 {
		delete(t.subs, e.target)
	}
}

// ClearDependenciesOf removes every edge of u.
func (t *Tracker) ClearDependenciesOf(u Updatable) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.deps[u]
	if !ok {
		return
	}
	for e := range prev.Iter() {
		t.unsubscribeLocked(u, e)
	}
	delete(t.deps, u)
}

// DependenciesOf lists u's committed edges.
func (t *Tracker) DependenciesOf(u Updatable) []Dependency {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.deps[u]
	if !ok {
		return nil
	}
	out := make([]Dependency, 0, prev.Cardinality())
	for e := range prev.Iter() {
		out = append(out, Dependency{Target: e.target, Key: e.key})
	}
	return out
}

// DependentsOf lists the updatables a write to key of p would notify.
// With key Whole it lists every updatable that depends on p at all.
func (t *Tracker) DependentsOf(p Proxy, key any) []Updatable {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dependentsLocked(p.ID(), key)
}

func (t *Tracker) dependentsLocked(target ID, key any) []Updatable {
	byKey, ok := t.subs[target]
	if !ok {
		return nil
	}

	seen := mapset.NewThreadUnsafeSet[Updatable]()
	if key == Whole {
		for _, set := range byKey {
			seen = seen.Union(set)
		}
	} else {
		if set, ok := byKey[Whole]; ok {
			seen = seen.Union(set)
		}
		if set, ok := byKey[key]; ok {
			seen = seen.Union(set)
		}
	}
	return seen.ToSlice()
}

// notify calls Update on everything a write to target/key affects. Inside
// a batch the calls are queued instead.
func (t *Tracker) notify(target ID, key any) {
	t.mu.Lock()
	targets := t.dependentsLocked(target, key)
	if len(targets) == 0 {
		t.mu.Unlock()
		return
	}
	if t.batchDepth > 0 {
		t.pending = append(t.pending, targets...)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	for _, u := range targets {
		u.Update()
	}
}

// notifyAll is notify for structural writes.
func (t *Tracker) notifyAll(target ID) {
	t.notify(target, Whole)
}
