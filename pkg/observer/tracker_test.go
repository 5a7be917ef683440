package observer

import (
	"errors"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type counter struct {
	n     int
	props bool
}

func (c *counter) Update()                { c.n++ }
func (c *counter) TracksProperties() bool { return c.props }

func newTestTracker() *Tracker {
	return NewTracker(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// eval runs fn as one evaluation of u.
func eval(t *testing.T, tr *Tracker, u Updatable, fn func()) {
	t.Helper()
	tr.StartUpdating(u)
	fn()
	if err := tr.EndUpdating(u); err != nil {
		t.Fatalf("EndUpdating() error = %v", err)
	}
}

func TestObserveIsIdempotent(t *testing.T) {
	tr := newTestTracker()

	m := map[string]any{"a": 1}
	p1 := tr.Observe(m)
	p2 := tr.Observe(m)
	if p1 != p2 {
		t.Error("observing the same map twice returned different proxies")
	}
	if tr.Observe(p1) != p1 {
		t.Error("observing a proxy did not return it unchanged")
	}

	items := []any{1, 2}
	if tr.Observe(&items) != tr.Observe(&items) {
		t.Error("observing the same slice pointer twice returned different proxies")
	}

	if _, ok := p1.(*Object); !ok {
		t.Fatalf("Observe(map[string]any) = %T, want *Object", p1)
	}
	if got := Raw(p1).(map[string]any); got["a"] != 1 {
		t.Errorf("Raw() did not return the target")
	}
}

func TestObservePassesThroughUnsupported(t *testing.T) {
	tr := newTestTracker()

	var nilMap map[string]any
	tests := []any{42, "text", nil, []int{1}, nilMap, struct{}{}}
	for _, v := range tests {
		got := tr.Observe(v)
		if _, ok := got.(Proxy); ok {
			t.Errorf("Observe(%T) returned a proxy", v)
		}
	}

	if _, err := tr.Wrap(42); !errors.Is(err, ErrCannotObserve) {
		t.Errorf("Wrap(42) error = %v, want ErrCannotObserve", err)
	}
}

func TestObserveKinds(t *testing.T) {
	tr := newTestTracker()

	tests := []struct {
		v    any
		want Kind
	}{
		{map[string]any{}, KindObject},
		{&[]any{}, KindArray},
		{map[any]any{}, KindMap},
		{map[any]struct{}{}, KindSet},
	}
	for _, tt := range tests {
		p, err := tr.Wrap(tt.v)
		if err != nil {
			t.Fatalf("Wrap(%T) error = %v", tt.v, err)
		}
		if p.Kind() != tt.want {
			t.Errorf("Wrap(%T).Kind() = %v, want %v", tt.v, p.Kind(), tt.want)
		}
		if p.Tracker() != tr {
			t.Errorf("Wrap(%T).Tracker() is not the wrapping tracker", tt.v)
		}
	}
}

func TestReadsRecordEdges(t *testing.T) {
	tr := newTestTracker()
	obj := tr.Object(map[string]any{"x": 1})
	arr := tr.Array(&[]any{1, 2})
	other := tr.Object(nil)
	c := &counter{}

	eval(t, tr, c, func() {
		_ = obj.Get("x")
		_ = arr.Len()
	})

	obj.Set("x", 2)
	arr.Push(3)
	other.Set("x", 1)

	if c.n != 2 {
		t.Errorf("updates = %d, want 2", c.n)
	}
}

func TestWholeTargetDependentsSeeEveryKey(t *testing.T) {
	tr := newTestTracker()
	obj := tr.Object(map[string]any{"x": 1, "y": 2})
	c := &counter{}

	eval(t, tr, c, func() { _ = obj.Get("x") })

	obj.Set("y", 3)
	if c.n != 1 {
		t.Errorf("updates = %d, want 1", c.n)
	}
}

func TestPropertyTrackersDependOnKeys(t *testing.T) {
	tr := newTestTracker()
	obj := tr.Object(map[string]any{"x": 1, "y": 2})
	c := &counter{props: true}

	eval(t, tr, c, func() { _ = obj.Get("x") })

	obj.Set("y", 3)
	if c.n != 0 {
		t.Fatalf("write to unread key notified: updates = %d", c.n)
	}
	obj.Set("x", 3)
	if c.n != 1 {
		t.Fatalf("updates = %d, want 1", c.n)
	}

	// structural reads depend on every key
	eval(t, tr, c, func() { _ = obj.Keys() })
	obj.Set("z", 1)
	if c.n != 2 {
		t.Errorf("updates = %d, want 2", c.n)
	}
}

func TestEdgesArePruned(t *testing.T) {
	tr := newTestTracker()
	a := tr.Object(map[string]any{"v": 1})
	b := tr.Object(map[string]any{"v": 1})
	c := &counter{}

	eval(t, tr, c, func() {
		_ = a.Get("v")
		_ = b.Get("v")
	})
	if got := len(tr.DependenciesOf(c)); got != 2 {
		t.Fatalf("DependenciesOf() has %d edges, want 2", got)
	}

	eval(t, tr, c, func() { _ = a.Get("v") })

	b.Set("v", 2)
	if c.n != 0 {
		t.Errorf("pruned target still notifies: updates = %d", c.n)
	}
	a.Set("v", 2)
	if c.n != 1 {
		t.Errorf("updates = %d, want 1", c.n)
	}

	want := []Dependency{{Target: a.ID(), Key: Whole}}
	if diff := cmp.Diff(want, tr.DependenciesOf(c)); diff != "" {
		t.Errorf("DependenciesOf() mismatch (-want +got):\n%s", diff)
	}
	if !tr.DependenciesOf(c)[0].IsWhole() {
		t.Error("IsWhole() = false for a whole-target edge")
	}
	if len(tr.DependentsOf(b, Whole)) != 0 {
		t.Error("b still has dependents")
	}
}

func TestNestedEvaluationsAttributeToInnermost(t *testing.T) {
	tr := newTestTracker()
	x := tr.Object(map[string]any{"v": 1})
	y := tr.Object(map[string]any{"v": 1})
	outer, inner := &counter{}, &counter{}

	tr.StartUpdating(outer)
	eval(t, tr, inner, func() { _ = x.Get("v") })
	_ = y.Get("v")
	if err := tr.EndUpdating(outer); err != nil {
		t.Fatalf("EndUpdating(outer) error = %v", err)
	}

	x.Set("v", 2)
	if inner.n != 1 || outer.n != 0 {
		t.Errorf("after write to x: inner=%d outer=%d, want 1 0", inner.n, outer.n)
	}
	y.Set("v", 2)
	if inner.n != 1 || outer.n != 1 {
		t.Errorf("after write to y: inner=%d outer=%d, want 1 1", inner.n, outer.n)
	}
}

func TestEndUpdatingUnbalanced(t *testing.T) {
	tr := newTestTracker()
	a, b := &counter{}, &counter{}

	if err := tr.EndUpdating(a); !errors.Is(err, ErrUnbalanced) {
		t.Errorf("EndUpdating() on empty stack error = %v, want ErrUnbalanced", err)
	}

	tr.StartUpdating(a)
	tr.StartUpdating(b)
	if err := tr.EndUpdating(a); !errors.Is(err, ErrUnbalanced) {
		t.Errorf("EndUpdating(outer) error = %v, want ErrUnbalanced", err)
	}
	if tr.Current() != b {
		t.Error("failed EndUpdating changed the stack")
	}
}

func TestClearDependenciesOf(t *testing.T) {
	tr := newTestTracker()
	obj := tr.Object(map[string]any{"v": 1})
	c := &counter{props: true}

	eval(t, tr, c, func() {
		_ = obj.Get("v")
		_ = obj.Len()
	})
	tr.ClearDependenciesOf(c)
	tr.ClearDependenciesOf(c)

	obj.Set("v", 2)
	if c.n != 0 {
		t.Errorf("updates = %d, want 0", c.n)
	}
	if deps := tr.DependenciesOf(c); deps != nil {
		t.Errorf("DependenciesOf() = %v, want nil", deps)
	}
}

func TestIdenticalWriteStillNotifies(t *testing.T) {
	tr := newTestTracker()
	obj := tr.Object(map[string]any{"v": 1})
	c := &counter{}

	eval(t, tr, c, func() { _ = obj.Get("v") })
	obj.Set("v", 1)
	if c.n != 1 {
		t.Errorf("updates = %d, want 1", c.n)
	}
}

func TestDeleteMissingKeyRecordsRead(t *testing.T) {
	tr := newTestTracker()
	obj := tr.Object(nil)
	c := &counter{props: true}

	eval(t, tr, c, func() {
		if obj.Delete("missing") {
			t.Error("Delete(missing) = true")
		}
	})
	if c.n != 0 {
		t.Fatalf("deleting a missing key notified")
	}

	obj.Set("missing", 1)
	if c.n != 1 {
		t.Errorf("updates = %d, want 1", c.n)
	}
	if !obj.Delete("missing") {
		t.Error("Delete(present) = false")
	}
	if c.n != 2 {
		t.Errorf("updates = %d, want 2", c.n)
	}
}

func TestLazyWrapping(t *testing.T) {
	tr := newTestTracker()
	nested := map[string]any{"n": 1}
	obj := tr.Object(map[string]any{"nested": nested})

	if _, ok := obj.Get("nested").(map[string]any); !ok {
		t.Errorf("untracked read returned %T, want raw map", obj.Get("nested"))
	}

	c := &counter{}
	var got any
	eval(t, tr, c, func() { got = obj.Get("nested") })

	p, ok := got.(*Object)
	if !ok {
		t.Fatalf("tracked read returned %T, want *Object", got)
	}
	if tr.Observe(nested) != p {
		t.Error("lazily wrapped proxy is not the canonical proxy")
	}
}

func TestWritesStoreRawTargets(t *testing.T) {
	tr := newTestTracker()
	child := tr.Array(&[]any{1})
	obj := tr.Object(nil)

	obj.Set("child", child)
	if _, ok := obj.Target()["child"].(*[]any); !ok {
		t.Errorf("stored %T, want *[]any", obj.Target()["child"])
	}
}

func TestBatchDeliversOnce(t *testing.T) {
	tr := newTestTracker()
	obj := tr.Object(map[string]any{"a": 1, "b": 2})
	c := &counter{}

	eval(t, tr, c, func() { _ = obj.Len() })

	tr.Batch(func() {
		obj.Set("a", 10)
		tr.Batch(func() {
			obj.Set("b", 20)
		})
		if c.n != 0 {
			t.Error("notified inside a batch")
		}
	})
	if c.n != 1 {
		t.Errorf("updates = %d, want 1", c.n)
	}
}

func TestUntracked(t *testing.T) {
	tr := newTestTracker()
	obj := tr.Object(map[string]any{"v": 1})
	c := &counter{}

	eval(t, tr, c, func() {
		tr.Untracked(func() {
			if tr.Tracking() {
				t.Error("Tracking() = true inside Untracked")
			}
			_ = obj.Get("v")
		})
	})

	obj.Set("v", 2)
	if c.n != 0 {
		t.Errorf("untracked read created an edge")
	}
}

func TestMapProxy(t *testing.T) {
	tr := newTestTracker()
	m := tr.Map(nil)
	c := &counter{props: true}

	eval(t, tr, c, func() { _ = m.Has(1) })

	m.Set(2, "two")
	if c.n != 0 {
		t.Fatalf("write to another key notified")
	}
	m.Set(1, "one")
	if c.n != 1 {
		t.Fatalf("updates = %d, want 1", c.n)
	}
	if got := m.Get(1); got != "one" {
		t.Errorf("Get(1) = %v", got)
	}
	m.Clear()
	if c.n != 2 {
		t.Errorf("Clear() updates = %d, want 2", c.n)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after Clear", m.Len())
	}
}

func TestSetProxy(t *testing.T) {
	tr := newTestTracker()
	s := tr.Set(nil)
	c := &counter{}

	eval(t, tr, c, func() { _ = s.Has("a") })

	s.Add("a")
	s.Add("b")
	if c.n != 2 {
		t.Errorf("updates = %d, want 2", c.n)
	}
	if !s.Has("a") || s.Len() != 2 {
		t.Errorf("membership wrong: Has(a)=%v Len=%d", s.Has("a"), s.Len())
	}
	if s.Delete("zzz") {
		t.Error("Delete(missing) = true")
	}
	if !s.Delete("a") {
		t.Error("Delete(a) = false")
	}
}

func TestRegistryDropsCollectedProxies(t *testing.T) {
	tr := newTestTracker()
	target := map[string]any{"v": 1}

	id := func() ID {
		return tr.Observe(target).(Proxy).ID()
	}()

	for i := 0; i < 20 && tr.registry.Len() > 0; i++ {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	if n := tr.registry.Len(); n != 0 {
		t.Skipf("proxy not collected after repeated GC (%d live entries)", n)
	}

	if got := tr.Observe(target).(Proxy).ID(); got != id {
		t.Errorf("re-created proxy ID = %v, want %v", got, id)
	}
	runtime.KeepAlive(target)
}
