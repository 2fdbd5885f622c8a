package platform

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFrameInterval is the frame pacing used when none is configured.
const DefaultFrameInterval = 16667 * time.Microsecond

// RunLoop is a Backend that owns the process main loop.
//
// Run executes tasks and frames on the calling goroutine, which becomes the
// UI thread. Frames are delivered on demand: the vsync timer is armed only
// while a frame request is pending, so an idle app sleeps.
type RunLoop struct {
	interval time.Duration

	tasks chan func()
	wake  chan struct{}
	quit  chan struct{}

	frameRequested atomic.Bool
	running        atomic.Bool

	mu           sync.Mutex
	onBeginFrame func(raw time.Duration)
	onDrawFrame  func()

	epoch time.Time
}

// NewRunLoop creates a run loop delivering frames at the given interval.
// A non-positive interval selects DefaultFrameInterval.
func NewRunLoop(interval time.Duration) *RunLoop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &RunLoop{
		interval: interval,
		tasks:    make(chan func(), 128),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		epoch:    time.Now(),
	}
}

// ScheduleFrame requests one begin/draw pair from the loop.
func (l *RunLoop) ScheduleFrame() {
	if l.frameRequested.Swap(true) {
		return
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// SetOnBeginFrame installs the begin-frame hook.
func (l *RunLoop) SetOnBeginFrame(fn func(raw time.Duration)) {
	l.mu.Lock()
	l.onBeginFrame = fn
	l.mu.Unlock()
}

// SetOnDrawFrame installs the draw-frame hook.
func (l *RunLoop) SetOnDrawFrame(fn func()) {
	l.mu.Lock()
	l.onDrawFrame = fn
	l.mu.Unlock()
}

// PostTask enqueues a task on the UI thread. Safe from any goroutine.
func (l *RunLoop) PostTask(task func()) {
	if task == nil {
		return
	}
	select {
	case l.tasks <- task:
	case <-l.quit:
	}
}

// NewTimer creates a started timer whose callback runs on the UI thread.
func (l *RunLoop) NewTimer(delay time.Duration, repeat bool, callback func()) Timer {
	return newLoopTimer(l, delay, repeat, callback)
}

// Run executes the loop until Quit is called. The calling goroutine becomes
// the UI thread.
func (l *RunLoop) Run() {
	if l.running.Swap(true) {
		panic("fresco: RunLoop.Run called twice")
	}
	defer l.running.Store(false)

	// The vsync timer is parked on a far-future deadline while no frame is
	// requested and re-armed to the frame interval when one is.
	const parked = 24 * time.Hour
	vsync := time.NewTimer(parked)
	defer vsync.Stop()
	armed := false

	for {
		if l.frameRequested.Load() && !armed {
			if !vsync.Stop() {
				select {
				case <-vsync.C:
				default:
				}
			}
			vsync.Reset(l.interval)
			armed = true
		}

		select {
		case task := <-l.tasks:
			task()
		case <-l.wake:
			// Re-check frame request at top of loop.
		case <-vsync.C:
			armed = false
			if l.frameRequested.Swap(false) {
				l.deliverFrame()
			}
			vsync.Reset(parked)
		case <-l.quit:
			return
		}
	}
}

// Quit stops the loop after the current iteration.
func (l *RunLoop) Quit() {
	close(l.quit)
}

func (l *RunLoop) deliverFrame() {
	l.mu.Lock()
	begin := l.onBeginFrame
	draw := l.onDrawFrame
	l.mu.Unlock()

	raw := time.Since(l.epoch)
	if begin != nil {
		begin(raw)
	}
	if draw != nil {
		draw()
	}
}
