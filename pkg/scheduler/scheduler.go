// Package scheduler owns frame production timing: when frames run, which
// callbacks run in which phase, and how raw host timestamps map to animation
// time.
//
// A [FrameScheduler] is a constructible service. Applications normally use
// the shared instance owned by the fresco package; tests create as many
// independent schedulers as they need.
//
// Callback phases per frame, in order: transient (animations), persistent
// (build/layout/paint), post-frame. Transient and post-frame registrations
// are single-shot with snapshot-before-iterate semantics: callbacks
// registered while a batch is running go to the next frame, never the
// current one.
package scheduler

import (
	"sort"
	"time"

	"github.com/go-fresco/fresco/pkg/errors"
	"github.com/go-fresco/fresco/pkg/platform"
)

// DebugChecks gates assertion-class programmer-error checks (starting an
// active ticker, mis-phased frame calls). When false, misuse is undefined
// but non-panicking.
var DebugChecks = true

func debugAssert(cond bool, msg string) {
	if DebugChecks && !cond {
		panic("fresco: " + msg)
	}
}

// FrameCallback is invoked with the current frame timestamp.
//
// The timestamp is epoch-adjusted and dilation-scaled; it is monotonic
// across frames, including across time dilation changes.
type FrameCallback func(timeStamp time.Duration)

// FrameScheduler coordinates frame production for one logical UI thread.
//
// All methods must be called from the backend's UI thread. The scheduler
// holds no locks; reentrant mutation during dispatch is handled with the
// snapshot-before-iterate pattern.
type FrameScheduler struct {
	backend platform.Backend

	phase             SchedulerPhase
	hasScheduledFrame bool
	framesEnabled     bool
	framePending      bool
	hooksInstalled    bool

	nextCallbackID     int
	transientCallbacks map[int]FrameCallback
	removedIDs         map[int]struct{}

	persistentCallbacks []FrameCallback
	postFrameCallbacks  []FrameCallback

	warmUpFrame                bool
	rescheduleAfterWarmUpFrame bool

	timeDilation             float64
	epochStart               time.Duration
	firstRawTimeStampInEpoch *time.Duration
	lastRawTimeStamp         time.Duration
	currentFrameTimeStamp    *time.Duration
}

// New creates a frame scheduler driven by the given backend.
func New(backend platform.Backend) *FrameScheduler {
	return &FrameScheduler{
		backend:            backend,
		framesEnabled:      true,
		transientCallbacks: make(map[int]FrameCallback),
		removedIDs:         make(map[int]struct{}),
		timeDilation:       1,
	}
}

// Phase returns the current scheduler phase.
func (s *FrameScheduler) Phase() SchedulerPhase {
	return s.phase
}

// HasScheduledFrame reports whether a frame has been requested from the host
// and not yet delivered.
func (s *FrameScheduler) HasScheduledFrame() bool {
	return s.hasScheduledFrame
}

// TransientCallbackCount returns the number of pending transient callbacks.
// Nonzero means animations are active.
func (s *FrameScheduler) TransientCallbackCount() int {
	return len(s.transientCallbacks)
}

// CurrentFrameTimeStamp returns the adjusted timestamp of the frame being
// processed. The second result is false outside a frame.
func (s *FrameScheduler) CurrentFrameTimeStamp() (time.Duration, bool) {
	if s.currentFrameTimeStamp == nil {
		return 0, false
	}
	return *s.currentFrameTimeStamp, true
}

// TimeDilation returns the current time dilation factor.
func (s *FrameScheduler) TimeDilation() float64 {
	return s.timeDilation
}

// SetTimeDilation slows animation time by the given factor (2.0 means half
// speed). The epoch is reset so adjusted timestamps never go backward across
// the change.
func (s *FrameScheduler) SetTimeDilation(dilation float64) {
	debugAssert(dilation > 0, "time dilation must be positive")
	if dilation <= 0 || dilation == s.timeDilation {
		return
	}
	s.resetEpoch()
	s.timeDilation = dilation
}

// resetEpoch captures the adjusted value of the last raw timestamp as the new
// epoch base. Future timestamps are measured from there, so a dilation change
// rescales only time that has not happened yet.
func (s *FrameScheduler) resetEpoch() {
	s.epochStart = s.adjustForEpoch(s.lastRawTimeStamp)
	s.firstRawTimeStampInEpoch = nil
}

// adjustForEpoch maps a raw host timestamp onto the dilated epoch timeline.
func (s *FrameScheduler) adjustForEpoch(raw time.Duration) time.Duration {
	var sinceEpoch time.Duration
	if s.firstRawTimeStampInEpoch != nil {
		sinceEpoch = raw - *s.firstRawTimeStampInEpoch
	}
	return time.Duration(float64(sinceEpoch)/s.timeDilation) + s.epochStart
}

// FramesEnabled reports whether frame scheduling requests reach the host.
func (s *FrameScheduler) FramesEnabled() bool {
	return s.framesEnabled
}

// SetFramesEnabled turns host frame scheduling on or off. A request made
// while disabled is remembered and performed on re-enable.
func (s *FrameScheduler) SetFramesEnabled(enabled bool) {
	if s.framesEnabled == enabled {
		return
	}
	s.framesEnabled = enabled
	if enabled && s.framePending {
		s.framePending = false
		s.ScheduleFrame()
	}
}

// ScheduleFrame asks the host for one begin/draw frame pair. Idempotent
// while a frame is already scheduled.
func (s *FrameScheduler) ScheduleFrame() {
	if s.hasScheduledFrame {
		return
	}
	if !s.framesEnabled {
		s.framePending = true
		return
	}
	s.ensureFrameHooks()
	s.backend.ScheduleFrame()
	s.hasScheduledFrame = true
}

func (s *FrameScheduler) ensureFrameHooks() {
	if s.hooksInstalled {
		return
	}
	s.backend.SetOnBeginFrame(s.HandleBeginFrame)
	s.backend.SetOnDrawFrame(s.HandleDrawFrame)
	s.hooksInstalled = true
}

// EnsureVisualUpdate schedules a frame only when the phase is Idle or
// PostFrameCallbacks. Mid-frame, a frame is already in flight and its
// persistent callbacks have not yet run, so the update is already covered.
func (s *FrameScheduler) EnsureVisualUpdate() {
	switch s.phase {
	case PhaseIdle, PhasePostFrameCallbacks:
		s.ScheduleFrame()
	}
}

// ScheduleFrameCallback registers a single-shot transient callback for the
// next frame and schedules that frame. Returns an id for cancellation.
func (s *FrameScheduler) ScheduleFrameCallback(callback FrameCallback) int {
	s.ScheduleFrame()
	s.nextCallbackID++
	s.transientCallbacks[s.nextCallbackID] = callback
	return s.nextCallbackID
}

// CancelFrameCallback removes a pending transient callback. Ids that already
// fired or never existed are inert.
func (s *FrameScheduler) CancelFrameCallback(id int) {
	delete(s.transientCallbacks, id)
	s.removedIDs[id] = struct{}{}
}

// AddPersistentFrameCallback registers a callback invoked every frame after
// transient callbacks, in registration order. Persistent callbacks can never
// be removed; they run for the lifetime of the scheduler.
func (s *FrameScheduler) AddPersistentFrameCallback(callback FrameCallback) {
	s.persistentCallbacks = append(s.persistentCallbacks, callback)
}

// AddPostFrameCallback registers a single-shot callback invoked after
// persistent callbacks in the current or next frame. Registering a
// post-frame callback does NOT schedule a frame.
func (s *FrameScheduler) AddPostFrameCallback(callback FrameCallback) {
	s.postFrameCallbacks = append(s.postFrameCallbacks, callback)
}

// ScheduleWarmUpFrame pumps a synthetic frame as soon as possible, without
// waiting for host vsync. Used at startup so the first real frame does not
// have to do all the initial build/layout work within its budget.
//
// Host frames that arrive while the warm-up frame runs are deferred: their
// begin half only records that a reschedule is needed, and their draw half
// re-requests a frame instead of running callbacks.
func (s *FrameScheduler) ScheduleWarmUpFrame() {
	if s.warmUpFrame || s.phase != PhaseIdle {
		return
	}
	s.warmUpFrame = true
	hadScheduledFrame := s.hasScheduledFrame

	// Two separate tasks so host tasks queued between them still run between
	// the begin and draw halves, matching real frame interleaving.
	s.backend.PostTask(func() {
		s.handleBeginFrameLocked(s.lastRawTimeStamp)
	})
	s.backend.PostTask(func() {
		s.handleDrawFrameLocked()
		// Ensure the epoch ignores the synthetic frame's timing so the first
		// real frame after warm-up does not jump.
		s.resetEpoch()
		s.warmUpFrame = false
		if hadScheduledFrame {
			s.ScheduleFrame()
		}
	})
}

// HandleBeginFrame runs the begin-frame half of the pipeline: epoch
// adjustment, then the transient callback batch.
//
// Called by the host; may also be called directly by tests driving frames.
func (s *FrameScheduler) HandleBeginFrame(rawTimeStamp time.Duration) {
	if s.warmUpFrame {
		// A synthetic warm-up frame is in progress; let it finish
		// uninterrupted and re-request this frame afterwards.
		s.rescheduleAfterWarmUpFrame = true
		return
	}
	s.handleBeginFrameLocked(rawTimeStamp)
}

func (s *FrameScheduler) handleBeginFrameLocked(rawTimeStamp time.Duration) {
	if s.firstRawTimeStampInEpoch == nil {
		raw := rawTimeStamp
		s.firstRawTimeStampInEpoch = &raw
	}
	adjusted := s.adjustForEpoch(rawTimeStamp)
	s.currentFrameTimeStamp = &adjusted
	s.lastRawTimeStamp = rawTimeStamp

	debugAssert(s.phase == PhaseIdle, "HandleBeginFrame called in phase "+s.phase.String())
	s.hasScheduledFrame = false

	s.phase = PhaseTransientCallbacks
	callbacks := s.transientCallbacks
	s.transientCallbacks = make(map[int]FrameCallback)
	for _, id := range sortedCallbackIDs(callbacks) {
		if _, removed := s.removedIDs[id]; removed {
			continue
		}
		s.invokeFrameCallback(callbacks[id], adjusted)
	}
	clear(s.removedIDs)
	s.phase = PhaseMidFrameMicrotasks
}

// HandleDrawFrame runs the draw-frame half of the pipeline: persistent
// callbacks, then the post-frame callback batch, then back to Idle.
func (s *FrameScheduler) HandleDrawFrame() {
	if s.rescheduleAfterWarmUpFrame {
		// The deferred host frame's draw half. Skip callbacks entirely and
		// get a fresh frame scheduled once the warm-up frame is done.
		s.rescheduleAfterWarmUpFrame = false
		s.AddPostFrameCallback(func(time.Duration) {
			s.hasScheduledFrame = false
			s.ScheduleFrame()
		})
		return
	}
	s.handleDrawFrameLocked()
}

func (s *FrameScheduler) handleDrawFrameLocked() {
	debugAssert(s.phase == PhaseMidFrameMicrotasks, "HandleDrawFrame called in phase "+s.phase.String())
	timeStamp := s.lastFrameTimeStamp()

	s.phase = PhasePersistentCallbacks
	for _, callback := range s.persistentCallbacks {
		s.invokeFrameCallback(callback, timeStamp)
	}

	s.phase = PhasePostFrameCallbacks
	callbacks := s.postFrameCallbacks
	s.postFrameCallbacks = nil
	for _, callback := range callbacks {
		s.invokeFrameCallback(callback, timeStamp)
	}

	s.currentFrameTimeStamp = nil
	s.phase = PhaseIdle
}

func (s *FrameScheduler) lastFrameTimeStamp() time.Duration {
	if s.currentFrameTimeStamp != nil {
		return *s.currentFrameTimeStamp
	}
	return s.adjustForEpoch(s.lastRawTimeStamp)
}

// invokeFrameCallback isolates one callback: a panic is reported and does not
// prevent other callbacks or the rest of the frame from running.
func (s *FrameScheduler) invokeFrameCallback(callback FrameCallback, timeStamp time.Duration) {
	if callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			errors.ReportPanic(&errors.PanicError{
				Op:         "scheduler." + s.phase.String(),
				Value:      r,
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	callback(timeStamp)
}

// sortedCallbackIDs yields transient callback ids in registration order so a
// batch replays deterministically.
func sortedCallbackIDs(callbacks map[int]FrameCallback) []int {
	ids := make([]int, 0, len(callbacks))
	for id := range callbacks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
