package scheduler

import "fmt"

// SchedulerPhase identifies where in the frame lifecycle the scheduler is.
//
// Phases are totally ordered. Exactly one full cycle
// Idle → TransientCallbacks → MidFrameMicrotasks → PersistentCallbacks →
// PostFrameCallbacks → Idle occurs per frame.
type SchedulerPhase int

const (
	// PhaseIdle means no frame is being processed.
	PhaseIdle SchedulerPhase = iota
	// PhaseTransientCallbacks means transient frame callbacks (animations)
	// are running.
	PhaseTransientCallbacks
	// PhaseMidFrameMicrotasks is the window between transient callbacks and
	// the draw-frame half of the cycle. Reserved for deferred work scheduled
	// by transient callbacks.
	PhaseMidFrameMicrotasks
	// PhasePersistentCallbacks means persistent frame callbacks (build,
	// layout, paint) are running.
	PhasePersistentCallbacks
	// PhasePostFrameCallbacks means post-frame callbacks are running.
	PhasePostFrameCallbacks
)

func (p SchedulerPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTransientCallbacks:
		return "transientCallbacks"
	case PhaseMidFrameMicrotasks:
		return "midFrameMicrotasks"
	case PhasePersistentCallbacks:
		return "persistentCallbacks"
	case PhasePostFrameCallbacks:
		return "postFrameCallbacks"
	default:
		return fmt.Sprintf("SchedulerPhase(%d)", int(p))
	}
}
