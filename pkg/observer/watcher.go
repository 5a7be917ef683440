package observer

import (
	"sync"

	"github.com/vango-dev/trellis/internal/identity"
	"github.com/vango-dev/trellis/pkg/queue"
)

// Watcher re-evaluates fn when its dependencies change and calls cb with
// the new and old values when the result changed.
type Watcher struct {
	t     *Tracker
	sched queue.Enqueuer
	ctx   queue.Context
	fn    func() any
	cb    func(newValue, oldValue any)

	byProp bool

	mu        sync.Mutex
	value     any
	connected bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPropertyTracking makes the watcher depend on individual keys rather
// than whole targets.
func WithPropertyTracking() WatcherOption {
	return func(w *Watcher) {
		w.byProp = true
	}
}

// NewWatcher creates a connected watcher and evaluates fn once to seed
// Value. Changes are queued on sched; with a nil sched they are applied
// synchronously. ctx orders the watcher among other queued work and may
// be nil.
func NewWatcher(t *Tracker, sched queue.Enqueuer, ctx queue.Context, fn func() any, cb func(newValue, oldValue any), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		t:         t,
		sched:     sched,
		ctx:       ctx,
		fn:        fn,
		cb:        cb,
		connected: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	if v, err := w.evaluate(); err == nil {
		w.value = v
	}
	return w
}

// TracksProperties implements PropertyTracker.
func (w *Watcher) TracksProperties() bool { return w.byProp }

// Value returns the last computed value.
func (w *Watcher) Value() any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Connected reports whether the watcher still reacts to changes.
func (w *Watcher) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// Update implements Updatable.
func (w *Watcher) Update() {
	if !w.Connected() {
		return
	}
	if w.sched == nil {
		if err := w.UpdateImmediately(); err != nil {
			w.t.logger.Error("watcher update failed", "error", err)
		}
		return
	}
	w.sched.Enqueue(w, w.ctx, queue.PriorityWatcher)
}

// UpdateImmediately re-evaluates now and calls the callback if the value
// changed.
func (w *Watcher) UpdateImmediately() error {
	if !w.Connected() {
		return nil
	}
	next, err := w.evaluate()
	if err != nil {
		return err
	}

	w.mu.Lock()
	prev := w.value
	w.value = next
	w.mu.Unlock()

	if w.cb != nil && !identity.Same(next, prev) {
		w.cb(next, prev)
	}
	return nil
}

// Disconnect stops the watcher: its edges are dropped and any queued run
// is cancelled. Calling it again does nothing.
func (w *Watcher) Disconnect() {
	w.mu.Lock()
	if !w.connected {
		w.mu.Unlock()
		return
	}
	w.connected = false
	w.mu.Unlock()

	w.t.ClearDependenciesOf(w)
	if w.sched != nil {
		w.sched.Cancel(w)
	}
}

// Connect reconnects a disconnected watcher and re-evaluates it without
// calling the callback.
func (w *Watcher) Connect() error {
	w.mu.Lock()
	if w.connected {
		w.mu.Unlock()
		return nil
	}
	w.connected = true
	w.mu.Unlock()

	v, err := w.evaluate()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.value = v
	w.mu.Unlock()
	return nil
}

func (w *Watcher) evaluate() (v any, err error) {
	w.t.StartUpdating(w)
	defer func() {
		if endErr := w.t.EndUpdating(w); endErr != nil && err == nil {
			err = endErr
		}
	}()
	return w.fn(), nil
}
