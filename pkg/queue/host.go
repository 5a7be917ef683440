package queue

import (
	"sync"
	"time"
)

// Host supplies the two suspension points a flush needs.
type Host interface {
	// RequestFrame runs fn on the next frame.
	RequestFrame(fn func())

	// Yield runs fn after the current task, before the next frame.
	Yield(fn func())
}

// ManualHost is a Host driven by explicit calls to Frame.
type ManualHost struct {
	mu     sync.Mutex
	frames []func()
	yields []func()
}

// NewManualHost creates an idle ManualHost.
func NewManualHost() *ManualHost {
	return &ManualHost{}
}

// RequestFrame implements Host.
func (h *ManualHost) RequestFrame(fn func()) {
	h.mu.Lock()
	h.frames = append(h.frames, fn)
	h.mu.Unlock()
}

// Yield implements Host.
func (h *ManualHost) Yield(fn func()) {
	h.mu.Lock()
	h.yields = append(h.yields, fn)
	h.mu.Unlock()
}

// Frame runs the frame callbacks requested so far, then drains yields
// until none are left. Frames requested meanwhile wait for the next call.
func (h *ManualHost) Frame() {
	h.mu.Lock()
	frames := h.frames
	h.frames = nil
	h.mu.Unlock()

	for _, fn := range frames {
		fn()
		h.drainYields()
	}
	h.drainYields()
}

// Settle calls Frame until no frame is pending, up to maxFrames times.
// It returns the number of frames run.
func (h *ManualHost) Settle(maxFrames int) int {
	n := 0
	for ; n < maxFrames && h.Pending(); n++ {
		h.Frame()
	}
	return n
}

// Pending reports whether a frame or yield is waiting.
func (h *ManualHost) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames) > 0 || len(h.yields) > 0
}

func (h *ManualHost) drainYields() {
	for {
		h.mu.Lock()
		if len(h.yields) == 0 {
			h.mu.Unlock()
			return
		}
		fn := h.yields[0]
		h.yields = h.yields[1:]
		h.mu.Unlock()
		fn()
	}
}

// DefaultFrameInterval is the LoopHost frame period.
const DefaultFrameInterval = 16 * time.Millisecond

// LoopHost runs all callbacks on one goroutine, with frames driven by a
// ticker. Code that touches observed data or the output tree from other
// goroutines should hand the work to Post.
type LoopHost struct {
	interval time.Duration
	tasks    chan func()
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu     sync.Mutex
	frames []func()
	yields []func()
}

// NewLoopHost starts the loop goroutine. An interval <= 0 uses
// DefaultFrameInterval.
func NewLoopHost(interval time.Duration) *LoopHost {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	h := &LoopHost{
		interval: interval,
		tasks:    make(chan func(), 64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

// RequestFrame implements Host.
func (h *LoopHost) RequestFrame(fn func()) {
	h.mu.Lock()
	h.frames = append(h.frames, fn)
	h.mu.Unlock()
}

// Yield implements Host.
func (h *LoopHost) Yield(fn func()) {
	h.mu.Lock()
	h.yields = append(h.yields, fn)
	h.mu.Unlock()
}

// Post runs fn on the loop goroutine as its own task.
func (h *LoopHost) Post(fn func()) {
	select {
	case h.tasks <- fn:
	case <-h.stop:
	}
}

// Stop ends the loop and waits for it to exit. It is safe to call from
// several goroutines.
func (h *LoopHost) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *LoopHost) run() {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case fn := <-h.tasks:
			fn()
			h.drainYields()
		case <-ticker.C:
			h.mu.Lock()
			frames := h.frames
			h.frames = nil
			h.mu.Unlock()
			for _, fn := range frames {
				fn()
				h.drainYields()
			}
		}
	}
}

func (h *LoopHost) drainYields() {
	for {
		h.mu.Lock()
		if len(h.yields) == 0 {
			h.mu.Unlock()
			return
		}
		fn := h.yields[0]
		h.yields = h.yields[1:]
		h.mu.Unlock()
		fn()
	}
}
