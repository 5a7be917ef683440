// Package trellis is a reactive templating runtime. Components render
// markup templates into an HTML node tree, and only the parts of the tree
// that read changed data are patched.
//
// Most programs use the process-wide runtime:
//
//	rt := trellis.Default()
//	state := rt.Tracker.Object(map[string]any{"count": 0})
//	c := rt.Component(func(*component.Component) *template.Result {
//	    return template.HTML(counter, state.Get("count"))
//	})
//	c.Mount(root, nil)
package trellis

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/trellis/internal/config"
	"github.com/vango-dev/trellis/pkg/component"
	"github.com/vango-dev/trellis/pkg/observer"
	"github.com/vango-dev/trellis/pkg/queue"
	"github.com/vango-dev/trellis/pkg/template"
)

// Runtime bundles the services components share.
type Runtime struct {
	Tracker   *observer.Tracker
	Scheduler *queue.Scheduler
	Bindings  *template.Registry
	Logger    *slog.Logger

	// Metrics is nil unless WithMetrics was given.
	Metrics *queue.Metrics
}

type options struct {
	logger   *slog.Logger
	host     queue.Host
	metrics  *queue.Metrics
	tracer   trace.Tracer
	maxRuns  int
	bindings *template.Registry
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger sets the logger shared by the tracker and scheduler.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHost sets the frame host. The default is a LoopHost.
func WithHost(h queue.Host) Option {
	return func(o *options) {
		o.host = h
	}
}

// WithMetrics records scheduler metrics.
func WithMetrics(m *queue.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer used for flush spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithMaxUpdatesPerFlush sets the runaway bound.
func WithMaxUpdatesPerFlush(n int) Option {
	return func(o *options) {
		o.maxRuns = n
	}
}

// WithBindings sets the binding registry.
func WithBindings(r *template.Registry) Option {
	return func(o *options) {
		o.bindings = r
	}
}

// WithConfig applies the scheduler, logging and metrics settings of cfg.
// Options given after it take precedence.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.host = queue.NewLoopHost(cfg.Scheduler.FrameInterval)
		o.maxRuns = cfg.Scheduler.MaxUpdatesPerFlush
		if cfg.Metrics.Enabled {
			o.metrics = queue.NewMetrics(queue.WithNamespace(cfg.Metrics.Namespace))
		}
	}
}

// New creates a runtime.
func New(opts ...Option) *Runtime {
	o := options{maxRuns: queue.DefaultMaxUpdatesPerFlush}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.bindings == nil {
		o.bindings = template.NewRegistry()
	}
	if o.host == nil {
		o.host = queue.NewLoopHost(0)
	}

	schedOpts := []queue.Option{
		queue.WithHost(o.host),
		queue.WithLogger(o.logger.With("component", "scheduler")),
		queue.WithMetrics(o.metrics),
		queue.WithMaxUpdatesPerFlush(o.maxRuns),
	}
	if o.tracer != nil {
		schedOpts = append(schedOpts, queue.WithTracer(o.tracer))
	}

	return &Runtime{
		Tracker:   observer.NewTracker(observer.WithLogger(o.logger.With("component", "tracker"))),
		Scheduler: queue.New(schedOpts...),
		Bindings:  o.bindings,
		Logger:    o.logger,
		Metrics:   o.metrics,
	}
}

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
)

// Default returns the process-wide runtime, creating it on first use.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRuntime = New()
	})
	return defaultRuntime
}

// Component creates a component wired to the runtime's services.
func (rt *Runtime) Component(render component.RenderFunc, opts ...component.Option) *component.Component {
	base := []component.Option{
		component.WithTracker(rt.Tracker),
		component.WithScheduler(rt.Scheduler),
		component.WithBindings(rt.Bindings),
		component.WithLogger(rt.Logger.With("component", "component")),
	}
	return component.New(render, append(base, opts...)...)
}

// Watch creates a watcher ordered before all component renders.
func (rt *Runtime) Watch(fn func() any, cb func(newValue, oldValue any), opts ...observer.WatcherOption) *observer.Watcher {
	return observer.NewWatcher(rt.Tracker, rt.Scheduler, nil, fn, cb, opts...)
}

// Batch runs fn with change notifications held until it returns.
func (rt *Runtime) Batch(fn func()) {
	rt.Tracker.Batch(fn)
}
