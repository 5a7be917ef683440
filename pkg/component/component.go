// Package component ties the observer, the scheduler and templates
// together: a Component re-renders its host element whenever data its
// last render read changes.
package component

import (
	"log/slog"
	"sync"

	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/observer"
	"github.com/vango-dev/trellis/pkg/queue"
	"github.com/vango-dev/trellis/pkg/template"
)

// RenderFunc produces the component's markup. Reads made through observer
// proxies while it runs become the component's dependencies.
type RenderFunc func(c *Component) *template.Result

// Component renders into its own host element.
type Component struct {
	tracker  *observer.Tracker
	sched    *queue.Scheduler
	bindings *template.Registry
	logger   *slog.Logger

	render RenderFunc
	host   *html.Node
	parent *Component

	mu        sync.Mutex
	children  []*Component
	watchers  []*observer.Watcher
	inst      *template.Instance
	connected bool
	renders   int
}

// Option configures a Component.
type Option func(*Component)

// WithTracker sets the dependency tracker.
func WithTracker(t *observer.Tracker) Option {
	return func(c *Component) {
		c.tracker = t
	}
}

// WithScheduler sets the scheduler re-renders are queued on.
func WithScheduler(s *queue.Scheduler) Option {
	return func(c *Component) {
		c.sched = s
	}
}

// WithBindings sets the binding registry used by the component's
// templates.
func WithBindings(r *template.Registry) Option {
	return func(c *Component) {
		c.bindings = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Component) {
		c.logger = l
	}
}

// WithHostTag sets the host element's tag. The default is "div".
func WithHostTag(tag string) Option {
	return func(c *Component) {
		c.host = dom.NewElement(tag)
	}
}

// New creates an unmounted component.
func New(render RenderFunc, opts ...Option) *Component {
	c := &Component{render: render}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracker == nil {
		c.tracker = observer.NewTracker()
	}
	if c.sched == nil {
		c.sched = queue.New()
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "component")
	}
	if c.host == nil {
		c.host = dom.NewElement("div")
	}
	return c
}

// Child creates a component that shares c's tracker, scheduler, bindings
// and logger. It is disposed with c.
func (c *Component) Child(render RenderFunc, opts ...Option) *Component {
	base := []Option{
		WithTracker(c.tracker),
		WithScheduler(c.sched),
		WithBindings(c.bindings),
		WithLogger(c.logger),
	}
	child := New(render, append(base, opts...)...)
	child.parent = c

	c.mu.Lock()
	c.children = append(c.children, child)
	c.mu.Unlock()
	return child
}

// Host returns the element the component renders into.
func (c *Component) Host() *html.Node { return c.host }

// Parent returns the component c was created from, or nil.
func (c *Component) Parent() *Component { return c.parent }

// Tracker returns the component's tracker.
func (c *Component) Tracker() *observer.Tracker { return c.tracker }

// Scheduler returns the component's scheduler.
func (c *Component) Scheduler() *queue.Scheduler { return c.sched }

// State wraps m in an observed object owned by the component's tracker.
func (c *Component) State(m map[string]any) *observer.Object {
	return c.tracker.Object(m)
}

// Instance returns the template instance of the last render.
func (c *Component) Instance() *template.Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inst
}

// Renders returns how many times the component has rendered.
func (c *Component) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// TracksProperties implements observer.PropertyTracker.
func (c *Component) TracksProperties() bool { return true }

// DocumentPosition implements queue.Context.
func (c *Component) DocumentPosition() []int { return dom.Path(c.host) }

// Connected reports whether the component is mounted.
func (c *Component) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Update implements observer.Updatable by queueing a render.
func (c *Component) Update() {
	if !c.Connected() {
		return
	}
	c.sched.Enqueue(c, c, queue.PriorityComponent)
}

// UpdateImmediately renders now.
func (c *Component) UpdateImmediately() error {
	if !c.Connected() {
		return nil
	}
	res, err := c.evaluate()
	if err != nil {
		return err
	}
	inst, err := template.Render(res, c.host,
		template.WithContext(c),
		template.WithBindings(c.bindings),
	)

	c.mu.Lock()
	c.inst = inst
	c.renders++
	c.mu.Unlock()
	return err
}

func (c *Component) evaluate() (res *template.Result, err error) {
	c.tracker.StartUpdating(c)
	defer func() {
		if endErr := c.tracker.EndUpdating(c); endErr != nil && err == nil {
			err = endErr
		}
	}()
	return c.render(c), nil
}

// Watch creates a watcher owned by c. It runs before c's own render when
// both are queued, and is disconnected when c is disposed.
func (c *Component) Watch(fn func() any, cb func(newValue, oldValue any), opts ...observer.WatcherOption) *observer.Watcher {
	w := observer.NewWatcher(c.tracker, c.sched, c, fn, cb, opts...)
	c.mu.Lock()
	c.watchers = append(c.watchers, w)
	c.mu.Unlock()
	return w
}

// Mount implements template.Dynamic: it inserts the host element and
// renders synchronously.
func (c *Component) Mount(parent, before *html.Node) error {
	dom.InsertBefore(parent, c.host, before)

	c.mu.Lock()
	c.connected = true
	watchers := append([]*observer.Watcher(nil), c.watchers...)
	c.mu.Unlock()

	for _, w := range watchers {
		if err := w.Connect(); err != nil {
			return err
		}
	}
	return c.UpdateImmediately()
}

// Unmount implements template.Dynamic: it disposes the component and
// detaches its host element.
func (c *Component) Unmount() {
	c.Dispose()
	dom.Remove(c.host)
}

// Dispose stops the component and its children from reacting to changes
// and releases its rendered content. It can be mounted again afterwards.
func (c *Component) Dispose() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	watchers := append([]*observer.Watcher(nil), c.watchers...)
	children := append([]*Component(nil), c.children...)
	c.inst = nil
	c.mu.Unlock()

	for _, w := range watchers {
		w.Disconnect()
	}
	for _, child := range children {
		child.Dispose()
	}
	c.tracker.ClearDependenciesOf(c)
	c.sched.Cancel(c)

	if _, err := template.Render(nil, c.host); err != nil {
		c.logger.Warn("releasing rendered content failed", "error", err)
	}
}
