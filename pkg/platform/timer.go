package platform

import (
	"sync"
	"time"
)

// loopTimer delivers its callback through the run loop's task queue so timer
// work always executes on the UI thread.
//
// Repeating timers track a target fire time and re-arm relative to it, so a
// slow callback delays at most one fire instead of accumulating wall-clock
// drift across the timer's lifetime.
type loopTimer struct {
	loop  *RunLoop
	mu    sync.Mutex
	timer *time.Timer
	// active means a fire is still pending; canceled is set only by Cancel,
	// so a posted task can tell a consumed one-shot from a canceled one.
	active   bool
	canceled bool
	repeat   bool
	interval time.Duration
	target   time.Time
	callback func()
}

func newLoopTimer(loop *RunLoop, delay time.Duration, repeat bool, callback func()) *loopTimer {
	t := &loopTimer{
		loop:     loop,
		active:   true,
		repeat:   repeat,
		interval: delay,
		target:   time.Now().Add(delay),
		callback: callback,
	}
	t.timer = time.AfterFunc(delay, t.fire)
	return t
}

func (t *loopTimer) fire() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	if t.repeat {
		t.target = t.target.Add(t.interval)
		next := time.Until(t.target)
		if next <= 0 {
			// Missed one or more fires; skip ahead rather than bursting.
			t.target = time.Now().Add(t.interval)
			next = t.interval
		}
		t.timer.Reset(next)
	} else {
		t.active = false
	}
	callback := t.callback
	t.mu.Unlock()

	if callback != nil {
		t.loop.PostTask(func() {
			t.mu.Lock()
			canceled := t.canceled
			t.mu.Unlock()
			if canceled {
				return
			}
			callback()
		})
	}
}

// Cancel stops the timer. A callback already posted but not yet run is
// suppressed too.
func (t *loopTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.canceled = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// IsActive reports whether the timer still has a pending fire.
func (t *loopTimer) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
