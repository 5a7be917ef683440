package observer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/trellis/pkg/queue"
)

type change struct {
	New, Old any
}

func newTestScheduler() (*queue.Scheduler, *queue.ManualHost) {
	host := queue.NewManualHost()
	return queue.New(
		queue.WithHost(host),
		queue.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	), host
}

func TestWatcherSeedsAndReacts(t *testing.T) {
	tr := newTestTracker()
	sched, host := newTestScheduler()
	state := tr.Object(map[string]any{"count": 1})

	var changes []change
	w := NewWatcher(tr, sched, nil,
		func() any { return state.Get("count") },
		func(n, o any) { changes = append(changes, change{n, o}) },
	)
	if w.Value() != 1 {
		t.Fatalf("Value() = %v, want 1", w.Value())
	}

	state.Set("count", 2)
	if len(changes) != 0 {
		t.Fatal("callback ran before the flush")
	}
	if !sched.IsPending(w) {
		t.Fatal("watcher was not queued")
	}

	host.Frame()
	if diff := cmp.Diff([]change{{2, 1}}, changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcherSkipsUnchangedValues(t *testing.T) {
	tr := newTestTracker()
	state := tr.Object(map[string]any{"a": 1, "b": 1})

	calls := 0
	NewWatcher(tr, nil, nil,
		func() any { return state.Get("a").(int) > 0 },
		func(any, any) { calls++ },
	)

	state.Set("b", 2)
	state.Set("a", 5)
	if calls != 0 {
		t.Errorf("callback calls = %d, want 0", calls)
	}
	state.Set("a", -1)
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
}

func TestWatcherPropertyTracking(t *testing.T) {
	tr := newTestTracker()
	sched, host := newTestScheduler()
	state := tr.Object(map[string]any{"a": 1, "b": 1})

	w := NewWatcher(tr, sched, nil, func() any { return state.Get("a") }, nil, WithPropertyTracking())
	if !w.TracksProperties() {
		t.Fatal("TracksProperties() = false")
	}

	state.Set("b", 2)
	if sched.IsPending(w) {
		t.Error("write to another key queued the watcher")
	}
	state.Set("a", 2)
	host.Frame()
	if w.Value() != 2 {
		t.Errorf("Value() = %v, want 2", w.Value())
	}
}

func TestWatcherDisconnectCancelsQueuedRun(t *testing.T) {
	tr := newTestTracker()
	sched, host := newTestScheduler()
	state := tr.Object(map[string]any{"v": 1})

	calls := 0
	w := NewWatcher(tr, sched, nil, func() any { return state.Get("v") }, func(any, any) { calls++ })

	state.Set("v", 2)
	w.Disconnect()
	w.Disconnect()
	host.Settle(5)

	if calls != 0 {
		t.Errorf("callback calls = %d, want 0", calls)
	}
	if w.Connected() {
		t.Error("Connected() = true after Disconnect")
	}
	if deps := tr.DependenciesOf(w); len(deps) != 0 {
		t.Errorf("DependenciesOf() = %v, want none", deps)
	}

	w.Update()
	if sched.Pending() != 0 {
		t.Error("disconnected watcher queued itself")
	}
	if err := w.UpdateImmediately(); err != nil || calls != 0 {
		t.Errorf("UpdateImmediately() on disconnected = %v, calls = %d", err, calls)
	}
}

func TestWatcherReconnect(t *testing.T) {
	tr := newTestTracker()
	state := tr.Object(map[string]any{"v": 1})

	var changes []change
	w := NewWatcher(tr, nil, nil, func() any { return state.Get("v") }, func(n, o any) {
		changes = append(changes, change{n, o})
	})
	w.Disconnect()
	state.Set("v", 2)

	if err := w.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if w.Value() != 2 {
		t.Errorf("Value() after Connect = %v, want 2", w.Value())
	}
	if len(changes) != 0 {
		t.Errorf("Connect ran the callback: %v", changes)
	}

	state.Set("v", 3)
	if diff := cmp.Diff([]change{{3, 2}}, changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

type pathContext []int

func (p pathContext) DocumentPosition() []int { return p }

func TestWatchersRunBeforeTheirContext(t *testing.T) {
	tr := newTestTracker()
	sched, host := newTestScheduler()
	state := tr.Object(map[string]any{"v": 1})

	var order []string
	render := &orderedUpdate{name: "render", order: &order}
	NewWatcher(tr, sched, pathContext{0}, func() any { return state.Get("v") }, func(any, any) {
		order = append(order, "watcher")
	})

	sched.Enqueue(render, pathContext{0}, queue.PriorityComponent)
	state.Set("v", 2)
	host.Frame()

	if diff := cmp.Diff([]string{"watcher", "render"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

type orderedUpdate struct {
	name  string
	order *[]string
}

func (u *orderedUpdate) UpdateImmediately() error {
	*u.order = append(*u.order, u.name)
	return nil
}
