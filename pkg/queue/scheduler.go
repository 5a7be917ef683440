package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/dom"
)

// Updatable is a unit of work the scheduler runs.
type Updatable interface {
	UpdateImmediately() error
}

// Connectable is implemented by updatables that can be disconnected while
// queued. A disconnected entry is skipped when it reaches the front.
type Connectable interface {
	Connected() bool
}

// Context orders entries: its document position is a child-index path, and
// a path that is a prefix of another (an ancestor) sorts first. A nil
// Context sorts before every other context.
type Context interface {
	DocumentPosition() []int
}

// Priority orders entries that share a context. Lower runs first.
type Priority int

const (
	// PriorityWatcher runs a context's watchers before its render.
	PriorityWatcher Priority = 0
	// PriorityComponent runs a context's render pass.
	PriorityComponent Priority = 1
)

// Enqueuer is the part of the scheduler updatables need.
type Enqueuer interface {
	Enqueue(u Updatable, ctx Context, p Priority)
	Cancel(u Updatable)
}

// State is the flush state machine's current state.
type State uint8

const (
	StateIdle State = iota
	StateDraining
	StateAwaitingSettle
	StateRunningCallbacks
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDraining:
		return "Draining"
	case StateAwaitingSettle:
		return "AwaitingSettle"
	case StateRunningCallbacks:
		return "RunningCallbacks"
	default:
		return "Unknown"
	}
}

// DefaultMaxUpdatesPerFlush is how often one updatable may run per flush.
const DefaultMaxUpdatesPerFlush = 3

type entry struct {
	u    Updatable
	ctx  Context
	prio Priority
	seq  uint64
	pos  []int

	canceled bool
}

// Scheduler batches updatables and runs them once per frame.
type Scheduler struct {
	host    Host
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	maxRuns int

	mu        sync.Mutex
	state     State
	scheduled bool
	pending   map[Updatable]*entry
	batch     map[Updatable]*entry
	seq       uint64
	callbacks []func()

	// per-flush bookkeeping, reset when the flush returns to Idle
	runs       map[Updatable]int
	tripped    map[Updatable]bool
	cycles     int
	processed  int
	flushStart time.Time
	span       trace.Span
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithHost sets the frame host. The default is a ManualHost.
func WithHost(h Host) Option {
	return func(s *Scheduler) {
		s.host = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer used for flush spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = t
	}
}

// WithMaxUpdatesPerFlush sets the runaway bound. Values < 1 are ignored.
func WithMaxUpdatesPerFlush(n int) Option {
	return func(s *Scheduler) {
		if n >= 1 {
			s.maxRuns = n
		}
	}
}

// New creates an idle scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		maxRuns: DefaultMaxUpdatesPerFlush,
		pending: make(map[Updatable]*entry),
		runs:    make(map[Updatable]int),
		tripped: make(map[Updatable]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.host == nil {
		s.host = NewManualHost()
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "scheduler")
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("trellis")
	}
	return s
}

// Host returns the frame host.
func (s *Scheduler) Host() Host {
	return s.host
}

// State returns the current flush state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the number of queued updatables.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// IsPending reports whether u is queued.
func (s *Scheduler) IsPending(u Updatable) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[u]
	return ok
}

// Enqueue queues u unless it is already queued or has been dropped by the
// runaway bound during the current flush. The first enqueue while idle
// requests a frame.
func (s *Scheduler) Enqueue(u Updatable, ctx Context, p Priority) {
	s.mu.Lock()
	if s.tripped[u] {
		s.mu.Unlock()
		return
	}
	if _, ok := s.pending[u]; ok {
		s.mu.Unlock()
		return
	}
	s.seq++
	s.pending[u] = &entry{u: u, ctx: ctx, prio: p, seq: s.seq}
	s.metrics.recordQueueDepth(len(s.pending))
	request := s.requestLocked()
	s.mu.Unlock()

	if request {
		s.host.RequestFrame(s.flush)
	}
}

// Cancel removes u from the queue if it is waiting, including the batch
// currently being drained.
func (s *Scheduler) Cancel(u Updatable) {
	s.mu.Lock()
	delete(s.pending, u)
	if e, ok := s.batch[u]; ok {
		e.canceled = true
	}
	s.metrics.recordQueueDepth(len(s.pending))
	s.mu.Unlock()
}

// OnFlushComplete registers cb to run once, after the queue of the current
// (or next) flush has fully drained.
func (s *Scheduler) OnFlushComplete(cb func()) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, cb)
	request := s.requestLocked()
	s.mu.Unlock()

	if request {
		s.host.RequestFrame(s.flush)
	}
}

// WaitFlush blocks until the next flush completes or ctx is done.
func (s *Scheduler) WaitFlush(ctx context.Context) error {
	done := make(chan struct{})
	s.OnFlushComplete(func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestLocked reports whether a frame must be requested and marks it.
func (s *Scheduler) requestLocked() bool {
	if s.state != StateIdle || s.scheduled {
		return false
	}
	s.scheduled = true
	return true
}

// flush is the frame callback: Idle → Draining.
func (s *Scheduler) flush() {
	s.mu.Lock()
	s.scheduled = false
	s.cycles = 0
	s.processed = 0
	s.flushStart = time.Now()
	_, s.span = s.tracer.Start(context.Background(), "trellis.flush")
	s.mu.Unlock()

	s.drain()
}

// drain runs one snapshot of the queue, then yields.
func (s *Scheduler) drain() {
	s.mu.Lock()
	s.state = StateDraining
	s.cycles++
	batch := s.snapshotLocked()
	s.mu.Unlock()

	for _, e := range batch {
		if c, ok := e.u.(Connectable); ok && !c.Connected() {
			continue
		}
		if !s.admit(e) {
			continue
		}
		s.run(e)
	}

	s.mu.Lock()
	s.batch = nil
	s.state = StateAwaitingSettle
	s.mu.Unlock()
	s.host.Yield(s.afterDrain)
}

// snapshotLocked takes the queue and sorts it by document position, then
// priority, then enqueue order.
func (s *Scheduler) snapshotLocked() []*entry {
	batch := make([]*entry, 0, len(s.pending))
	for _, e := range s.pending {
		if e.ctx != nil {
			e.pos = e.ctx.DocumentPosition()
		}
		batch = append(batch, e)
	}
	s.pending = make(map[Updatable]*entry)
	s.batch = make(map[Updatable]*entry, len(batch))
	for _, e := range batch {
		s.batch[e.u] = e
	}
	s.metrics.recordQueueDepth(0)

	sort.Slice(batch, func(i, j int) bool {
		a, b := batch[i], batch[j]
		if (a.ctx == nil) != (b.ctx == nil) {
			return a.ctx == nil
		}
		if c := dom.ComparePaths(a.pos, b.pos); c != 0 {
			return c < 0
		}
		if a.prio != b.prio {
			return a.prio < b.prio
		}
		return a.seq < b.seq
	})
	return batch
}

// admit skips cancelled entries and applies the runaway bound. Once an updatable is over the bound it
// is dropped, and further enqueues are ignored until the flush ends.
func (s *Scheduler) admit(e *entry) bool {
	s.mu.Lock()
	if e.canceled {
		s.mu.Unlock()
		return false
	}
	n := s.runs[e.u] + 1
	if n > s.maxRuns {
		s.tripped[e.u] = true
		delete(s.pending, e.u)
		s.mu.Unlock()

		err := errors.New("T071").WithDetail(fmt.Sprintf("%T ran %d times in one flush", e.u, s.maxRuns))
		s.logger.Warn("possible infinite update loop", err.LogFields()...)
		s.metrics.recordRunawayBreak()
		return false
	}
	s.runs[e.u] = n
	s.processed++
	s.mu.Unlock()
	return true
}

// run calls UpdateImmediately, turning panics and errors into log entries.
func (s *Scheduler) run(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			s.reportError("update", e.u, errors.FromPanic("T070", r))
		}
	}()

	s.metrics.recordUpdate()
	if err := e.u.UpdateImmediately(); err != nil {
		s.reportError("update", e.u, errors.New("T070").Wrap(err))
	}
}

func (s *Scheduler) reportError(stage string, u any, err *errors.TrellisError) {
	fields := append(err.LogFields(), "stage", stage)
	if u != nil {
		fields = append(fields, "updatable", fmt.Sprintf("%T", u))
	}
	s.logger.Error("update failed", fields...)
	s.metrics.recordError(stage)

	s.mu.Lock()
	span := s.span
	s.mu.Unlock()
	if span != nil {
		span.RecordError(err)
	}
}

// afterDrain: AwaitingSettle → Draining when more work arrived, otherwise
// RunningCallbacks.
func (s *Scheduler) afterDrain() {
	s.mu.Lock()
	if len(s.pending) > 0 {
		s.mu.Unlock()
		s.drain()
		return
	}
	s.state = StateRunningCallbacks
	cbs := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, cb := range cbs {
		s.runCallback(cb)
	}

	s.mu.Lock()
	s.state = StateAwaitingSettle
	s.mu.Unlock()
	s.host.Yield(s.afterCallbacks)
}

func (s *Scheduler) runCallback(cb func()) {
	defer func() {
		if r := recover(); r != nil {
			s.reportError("callback", nil, errors.FromPanic("T072", r))
		}
	}()
	cb()
}

// afterCallbacks: AwaitingSettle → Draining when callbacks queued more
// work, RunningCallbacks when they registered more callbacks, else Idle.
func (s *Scheduler) afterCallbacks() {
	s.mu.Lock()
	switch {
	case len(s.pending) > 0:
		s.mu.Unlock()
		s.drain()
		return
	case len(s.callbacks) > 0:
		s.mu.Unlock()
		s.afterDrain()
		return
	}

	s.state = StateIdle
	cycles, processed := s.cycles, s.processed
	elapsed := time.Since(s.flushStart)
	span := s.span
	tripped := len(s.tripped)
	s.span = nil
	s.runs = make(map[Updatable]int)
	s.tripped = make(map[Updatable]bool)
	s.mu.Unlock()

	s.metrics.recordFlush(cycles, elapsed.Seconds())
	if span != nil {
		span.SetAttributes(
			attribute.Int("trellis.updates", processed),
			attribute.Int("trellis.cycles", cycles),
		)
		if tripped > 0 {
			span.SetStatus(codes.Error, "runaway updatables dropped")
		}
		span.End()
	}
	s.logger.Debug("flush complete", "updates", processed, "cycles", cycles, "duration", elapsed)
}
