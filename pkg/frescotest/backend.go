// Package frescotest provides test doubles for driving frames
// deterministically: a controllable clock and a synchronous backend that
// replaces the run loop in tests.
package frescotest

import (
	"sort"
	"time"

	"github.com/go-fresco/fresco/pkg/platform"
)

// TestBackend is a platform.Backend that records frame requests and lets
// tests deliver begin/draw-frame pairs synchronously. Posted tasks and
// timers are held until the test drains or advances them.
type TestBackend struct {
	clock *FakeClock

	onBeginFrame func(raw time.Duration)
	onDrawFrame  func()

	frameRequests   int
	requestsGranted int
	tasks           []func()
	timers          []*testTimer
}

// NewTestBackend creates a backend with its own fake clock.
func NewTestBackend() *TestBackend {
	return &TestBackend{clock: NewFakeClock()}
}

// Clock returns the backend's fake clock.
func (b *TestBackend) Clock() *FakeClock {
	return b.clock
}

// ScheduleFrame records a frame request. No callback fires until the test
// calls PumpFrame.
func (b *TestBackend) ScheduleFrame() {
	b.frameRequests++
}

// SetOnBeginFrame installs the begin-frame hook.
func (b *TestBackend) SetOnBeginFrame(fn func(raw time.Duration)) {
	b.onBeginFrame = fn
}

// SetOnDrawFrame installs the draw-frame hook.
func (b *TestBackend) SetOnDrawFrame(fn func()) {
	b.onDrawFrame = fn
}

// PostTask holds the task until RunTasks or PumpFrame drains it.
func (b *TestBackend) PostTask(task func()) {
	if task == nil {
		return
	}
	b.tasks = append(b.tasks, task)
}

// FrameRequestCount returns the total number of ScheduleFrame calls.
func (b *TestBackend) FrameRequestCount() int {
	return b.frameRequests
}

// HasPendingFrame reports whether a requested frame has not yet been pumped.
func (b *TestBackend) HasPendingFrame() bool {
	return b.frameRequests > b.requestsGranted
}

// RunTasks drains and runs all posted tasks in order. Tasks posted while
// draining run in the same pass.
func (b *TestBackend) RunTasks() {
	for len(b.tasks) > 0 {
		task := b.tasks[0]
		b.tasks = b.tasks[1:]
		task()
	}
}

// PumpFrame delivers one begin/draw-frame pair synchronously with the given
// raw timestamp, consuming one pending frame request if any. Posted tasks
// run first, matching the run loop's task-before-vsync ordering.
func (b *TestBackend) PumpFrame(raw time.Duration) {
	b.RunTasks()
	if b.frameRequests > b.requestsGranted {
		b.requestsGranted = b.frameRequests
	}
	if b.onBeginFrame != nil {
		b.onBeginFrame(raw)
	}
	if b.onDrawFrame != nil {
		b.onDrawFrame()
	}
}

// NewTimer creates a fake timer scheduled against the backend's clock.
// Timers fire when AdvanceTimers moves the clock past their due time.
func (b *TestBackend) NewTimer(delay time.Duration, repeat bool, callback func()) platform.Timer {
	t := &testTimer{
		backend:  b,
		due:      b.clock.Now().Add(delay),
		interval: delay,
		repeat:   repeat,
		callback: callback,
		active:   true,
	}
	b.timers = append(b.timers, t)
	return t
}

// AdvanceTimers moves the clock forward by d and fires every timer that
// comes due, in due order. Repeating timers reschedule relative to their
// previous due time, so a large advance fires them multiple times.
func (b *TestBackend) AdvanceTimers(d time.Duration) {
	deadline := b.clock.Now().Add(d)
	for {
		next := b.nextDueTimer(deadline)
		if next == nil {
			break
		}
		b.clock.Set(next.due)
		next.fire()
	}
	b.clock.Set(deadline)
}

func (b *TestBackend) nextDueTimer(deadline time.Time) *testTimer {
	var candidates []*testTimer
	for _, t := range b.timers {
		if t.active && !t.due.After(deadline) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].due.Before(candidates[j].due)
	})
	return candidates[0]
}

type testTimer struct {
	backend  *TestBackend
	due      time.Time
	interval time.Duration
	repeat   bool
	callback func()
	active   bool
}

func (t *testTimer) fire() {
	if t.repeat {
		t.due = t.due.Add(t.interval)
	} else {
		t.active = false
	}
	if t.callback != nil {
		t.callback()
	}
}

func (t *testTimer) Cancel() {
	t.active = false
}

func (t *testTimer) IsActive() bool {
	return t.active
}
