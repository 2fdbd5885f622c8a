// Package platform defines the host capability surface the frame scheduler
// consumes: frame scheduling hooks, task posting, and timers.
//
// The scheduler never talks to an OS event loop directly. Embedders provide a
// [Backend]; the in-package [RunLoop] is the production host for environments
// where Fresco owns the main loop, and frescotest.TestBackend drives frames
// synchronously in tests.
package platform

import "time"

// Backend is the host environment surface consumed by the frame scheduler.
//
// All callbacks are delivered on the backend's single logical UI thread.
// Implementations must invoke OnBeginFrame and OnDrawFrame as a pair, in that
// order, once per granted ScheduleFrame request.
type Backend interface {
	// ScheduleFrame requests exactly one future begin/draw-frame callback
	// pair from the host event loop.
	ScheduleFrame()

	// SetOnBeginFrame installs the begin-frame hook. The raw timestamp is
	// host frame time, monotonic, with an arbitrary epoch.
	SetOnBeginFrame(fn func(raw time.Duration))

	// SetOnDrawFrame installs the draw-frame hook.
	SetOnDrawFrame(fn func())

	// PostTask enqueues a task for later execution on the UI thread.
	PostTask(task func())

	// NewTimer creates a started timer that invokes callback on the UI
	// thread after delay, repeating at the same interval when repeat is true.
	NewTimer(delay time.Duration, repeat bool, callback func()) Timer
}

// Timer is a cancellable timer handle.
type Timer interface {
	// Cancel stops the timer. Safe to call repeatedly and after firing.
	Cancel()

	// IsActive reports whether the timer still has a pending fire.
	IsActive() bool
}
