// Package animation provides animation primitives driven by the frame
// scheduler.
//
// # Core Components
//
//   - [Ticker]: the low-level per-animation clock. Fires a callback once per
//     scheduled frame while active, with elapsed time measured in frame
//     timestamps (so time dilation slows it).
//
//   - [AnimationController]: drives a value from 0.0 to 1.0 over a duration
//     with configurable easing curves, built on Ticker.
//
//   - [Tween]: interpolates between begin and end values of any type using
//     the controller's current value.
//
// All animation types are confined to the UI thread.
package animation

import (
	"time"

	"github.com/go-fresco/fresco/pkg/scheduler"
)

// TickerCallback receives the time elapsed since the ticker started.
type TickerCallback func(elapsed time.Duration)

// TickerProvider creates tickers. Implemented by states that own animations
// so the framework can mute or reclaim their tickers.
type TickerProvider interface {
	CreateTicker(onTick TickerCallback) *Ticker
}

// Ticker calls a callback once per frame while active.
//
// A ticker registers one transient frame callback per tick with its
// scheduler. Elapsed time is relative to the frame timestamp of the first
// tick after Start, so all tickers started in the same frame agree on zero.
type Ticker struct {
	scheduler *scheduler.FrameScheduler
	onTick    TickerCallback

	future      *TickerFuture
	muted       bool
	startTime   *time.Duration
	animationID int // pending transient callback id, 0 when none
	disposed    bool
}

// NewTicker creates an inactive ticker that ticks through the given
// scheduler.
func NewTicker(sched *scheduler.FrameScheduler, onTick TickerCallback) *Ticker {
	return &Ticker{scheduler: sched, onTick: onTick}
}

// IsActive reports whether the ticker has been started and not yet stopped.
// A muted ticker is still active.
func (t *Ticker) IsActive() bool {
	return t.future != nil
}

// IsTicking reports whether the ticker is active and actually scheduling
// frame callbacks.
func (t *Ticker) IsTicking() bool {
	return t.future != nil && !t.muted
}

// Muted reports whether tick callbacks are suppressed.
func (t *Ticker) Muted() bool {
	return t.muted
}

// SetMuted suppresses or resumes tick callbacks. The ticker's clock keeps
// running while muted: after unmuting, elapsed time includes the muted
// interval.
func (t *Ticker) SetMuted(muted bool) {
	if t.muted == muted {
		return
	}
	t.muted = muted
	if muted {
		t.unscheduleTick()
	} else if t.IsActive() && t.animationID == 0 {
		t.scheduleTick()
	}
}

// Start activates the ticker. The returned future completes when the ticker
// is stopped without cancellation.
//
// Starting an already-active ticker is a programmer error and panics when
// scheduler.DebugChecks is set.
func (t *Ticker) Start() *TickerFuture {
	if scheduler.DebugChecks {
		if t.disposed {
			panic("fresco: Ticker.Start called after Dispose")
		}
		if t.IsActive() {
			panic("fresco: Ticker.Start called while already active")
		}
	}
	if t.IsActive() {
		return t.future
	}
	t.future = newTickerFuture()
	if !t.muted {
		t.scheduleTick()
	}
	return t.future
}

// Stop deactivates the ticker. With canceled false the future completes;
// with canceled true the future is canceled and never completes. Calling
// Stop on an inactive ticker is a no-op.
func (t *Ticker) Stop(canceled bool) {
	if !t.IsActive() {
		return
	}
	// Detach local state before resolving so listeners observing the future
	// can immediately restart the ticker.
	future := t.future
	t.future = nil
	t.startTime = nil
	t.unscheduleTick()

	if canceled {
		future.cancel()
	} else {
		future.complete()
	}
}

// AbsorbTicker transfers the active state of other into t, then disposes
// other. Used to preserve animation continuity when a ticker's provider
// changes. t must be inactive.
func (t *Ticker) AbsorbTicker(other *Ticker) {
	if scheduler.DebugChecks && t.IsActive() {
		panic("fresco: AbsorbTicker called on an active ticker")
	}
	if other == nil {
		return
	}
	t.future = other.future
	t.startTime = other.startTime

	// The source must not cancel the transferred future on dispose.
	other.future = nil
	other.startTime = nil
	other.unscheduleTick()
	other.Dispose()

	if t.IsTicking() && t.animationID == 0 {
		t.scheduleTick()
	}
}

// Dispose releases the ticker. An outstanding future is canceled, never
// completed. Safe to call in any state, including repeatedly.
func (t *Ticker) Dispose() {
	if t.future != nil {
		future := t.future
		t.future = nil
		t.startTime = nil
		t.unscheduleTick()
		future.cancel()
	}
	t.disposed = true
}

func (t *Ticker) scheduleTick() {
	t.animationID = t.scheduler.ScheduleFrameCallback(t.tick)
}

func (t *Ticker) unscheduleTick() {
	if t.animationID != 0 {
		t.scheduler.CancelFrameCallback(t.animationID)
		t.animationID = 0
	}
}

// tick runs once per frame while the ticker is ticking. The first tick seeds
// the start time from the frame timestamp.
func (t *Ticker) tick(timeStamp time.Duration) {
	t.animationID = 0
	if !t.IsTicking() {
		return
	}
	if t.startTime == nil {
		start := timeStamp
		t.startTime = &start
	}
	elapsed := timeStamp - *t.startTime

	if t.onTick != nil {
		t.onTick(elapsed)
	}

	// The callback may have stopped, restarted, or disposed the ticker.
	// Re-arm only if it is still ticking and did not already schedule.
	if t.IsTicking() && t.animationID == 0 {
		t.scheduleTick()
	}
}
