package scheduler

import (
	"testing"
	"time"

	"github.com/go-fresco/fresco/pkg/errors"
	"github.com/go-fresco/fresco/pkg/frescotest"
)

func newTestScheduler() (*FrameScheduler, *frescotest.TestBackend) {
	backend := frescotest.NewTestBackend()
	return New(backend), backend
}

func TestFramePhasesRunInOrder(t *testing.T) {
	s, backend := newTestScheduler()

	var order []string
	var phases []SchedulerPhase

	s.ScheduleFrameCallback(func(time.Duration) {
		order = append(order, "transient")
		phases = append(phases, s.Phase())
	})
	s.AddPersistentFrameCallback(func(time.Duration) {
		order = append(order, "persistent")
		phases = append(phases, s.Phase())
	})
	s.AddPostFrameCallback(func(time.Duration) {
		order = append(order, "postFrame")
		phases = append(phases, s.Phase())
	})

	backend.PumpFrame(16 * time.Millisecond)

	want := []string{"transient", "persistent", "postFrame"}
	if len(order) != len(want) {
		t.Fatalf("callback order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("callback order = %v, want %v", order, want)
		}
	}

	wantPhases := []SchedulerPhase{PhaseTransientCallbacks, PhasePersistentCallbacks, PhasePostFrameCallbacks}
	for i := range wantPhases {
		if phases[i] != wantPhases[i] {
			t.Errorf("phase during %s = %v, want %v", order[i], phases[i], wantPhases[i])
		}
	}

	if s.Phase() != PhaseIdle {
		t.Errorf("phase after frame = %v, want idle", s.Phase())
	}
}

func TestScheduleFrameIsIdempotent(t *testing.T) {
	s, backend := newTestScheduler()

	s.ScheduleFrame()
	s.ScheduleFrame()
	s.ScheduleFrame()

	if got := backend.FrameRequestCount(); got != 1 {
		t.Errorf("backend requests = %d, want 1", got)
	}
	if !s.HasScheduledFrame() {
		t.Error("a frame should be scheduled")
	}

	backend.PumpFrame(0)
	if s.HasScheduledFrame() {
		t.Error("scheduled flag should clear when the frame begins")
	}
}

func TestTransientCallbackRegisteredDuringBatchRunsNextFrame(t *testing.T) {
	s, backend := newTestScheduler()

	var ran []string
	s.ScheduleFrameCallback(func(time.Duration) {
		ran = append(ran, "first")
		s.ScheduleFrameCallback(func(time.Duration) {
			ran = append(ran, "second")
		})
	})

	backend.PumpFrame(16 * time.Millisecond)
	if len(ran) != 1 || ran[0] != "first" {
		t.Fatalf("after frame 1: ran = %v, want [first]", ran)
	}
	if !s.HasScheduledFrame() {
		t.Fatal("registering mid-batch should schedule the next frame")
	}

	backend.PumpFrame(32 * time.Millisecond)
	if len(ran) != 2 || ran[1] != "second" {
		t.Errorf("after frame 2: ran = %v, want [first second]", ran)
	}
}

func TestCancelledTransientCallbackIsSkippedWithinBatch(t *testing.T) {
	s, backend := newTestScheduler()

	var ran []string
	var victimID int
	s.ScheduleFrameCallback(func(time.Duration) {
		ran = append(ran, "canceller")
		s.CancelFrameCallback(victimID)
	})
	victimID = s.ScheduleFrameCallback(func(time.Duration) {
		ran = append(ran, "victim")
	})

	backend.PumpFrame(16 * time.Millisecond)

	if len(ran) != 1 || ran[0] != "canceller" {
		t.Errorf("ran = %v, want [canceller]", ran)
	}
	if s.TransientCallbackCount() != 0 {
		t.Errorf("transient count = %d, want 0", s.TransientCallbackCount())
	}
}

func TestTimeStampsStayMonotonicAcrossDilationChange(t *testing.T) {
	s, backend := newTestScheduler()

	var stamps []time.Duration
	record := func(ts time.Duration) {
		stamps = append(stamps, ts)
		s.ScheduleFrameCallback(func(time.Duration) {})
	}
	s.AddPersistentFrameCallback(record)

	s.ScheduleFrame()
	backend.PumpFrame(10 * time.Millisecond)

	s.SetTimeDilation(2)
	backend.PumpFrame(20 * time.Millisecond)
	backend.PumpFrame(30 * time.Millisecond)

	for i := 1; i < len(stamps); i++ {
		if stamps[i] < stamps[i-1] {
			t.Fatalf("timestamps went backward: %v", stamps)
		}
	}

	// 10ms of raw time at half speed advances animation time by 5ms.
	if got := stamps[2] - stamps[1]; got != 5*time.Millisecond {
		t.Errorf("dilated frame delta = %v, want 5ms", got)
	}
}

func TestWarmUpFramePumpsWithoutVsyncAndDefersHostFrame(t *testing.T) {
	s, backend := newTestScheduler()

	var transientRuns int
	s.ScheduleFrameCallback(func(time.Duration) {
		transientRuns++
	})
	var persistentRuns int
	s.AddPersistentFrameCallback(func(time.Duration) {
		persistentRuns++
	})

	s.ScheduleWarmUpFrame()

	// A host frame arriving mid-warm-up must not run callbacks; it defers
	// and re-requests once the warm-up frame finishes.
	s.HandleBeginFrame(42 * time.Millisecond)
	s.HandleDrawFrame()
	if transientRuns != 0 || persistentRuns != 0 {
		t.Fatalf("deferred host frame ran callbacks: transient=%d persistent=%d", transientRuns, persistentRuns)
	}

	requestsBefore := backend.FrameRequestCount()
	backend.RunTasks()

	if transientRuns != 1 {
		t.Errorf("warm-up frame should run the transient batch once, got %d", transientRuns)
	}
	if persistentRuns != 1 {
		t.Errorf("warm-up frame should run persistent callbacks once, got %d", persistentRuns)
	}
	if backend.FrameRequestCount() <= requestsBefore {
		t.Error("the deferred host frame should be re-requested after warm-up")
	}
	if s.Phase() != PhaseIdle {
		t.Errorf("phase after warm-up = %v, want idle", s.Phase())
	}
}

func TestWarmUpFrameDoesNotSkewEpoch(t *testing.T) {
	s, backend := newTestScheduler()

	var stamps []time.Duration
	s.AddPersistentFrameCallback(func(ts time.Duration) {
		stamps = append(stamps, ts)
	})

	s.ScheduleWarmUpFrame()
	backend.RunTasks()

	s.ScheduleFrame()
	backend.PumpFrame(100 * time.Millisecond)
	s.ScheduleFrame()
	backend.PumpFrame(116 * time.Millisecond)

	for i := 1; i < len(stamps); i++ {
		if stamps[i] < stamps[i-1] {
			t.Fatalf("timestamps went backward after warm-up: %v", stamps)
		}
	}
	// Raw delta between the two real frames is preserved.
	if got := stamps[len(stamps)-1] - stamps[len(stamps)-2]; got != 16*time.Millisecond {
		t.Errorf("real frame delta = %v, want 16ms", got)
	}
}

func TestEnsureVisualUpdateOnlySchedulesWhenIdleOrPostFrame(t *testing.T) {
	s, backend := newTestScheduler()

	s.AddPersistentFrameCallback(func(time.Duration) {
		before := backend.FrameRequestCount()
		s.EnsureVisualUpdate()
		if backend.FrameRequestCount() != before {
			t.Error("EnsureVisualUpdate mid-frame should not request a new frame")
		}
	})
	s.AddPostFrameCallback(func(time.Duration) {
		before := backend.FrameRequestCount()
		s.EnsureVisualUpdate()
		if backend.FrameRequestCount() != before+1 {
			t.Error("EnsureVisualUpdate post-frame should request a new frame")
		}
	})

	s.ScheduleFrame()
	backend.PumpFrame(16 * time.Millisecond)

	s.EnsureVisualUpdate()
	if !s.HasScheduledFrame() {
		t.Error("EnsureVisualUpdate while idle should schedule a frame")
	}
}

func TestFramesDisabledHoldsRequestUntilReEnabled(t *testing.T) {
	s, backend := newTestScheduler()

	s.SetFramesEnabled(false)
	s.ScheduleFrame()

	if got := backend.FrameRequestCount(); got != 0 {
		t.Fatalf("disabled scheduler reached the backend: %d requests", got)
	}

	s.SetFramesEnabled(true)
	if got := backend.FrameRequestCount(); got != 1 {
		t.Errorf("re-enable should flush the held request, got %d", got)
	}
}

type panicRecorder struct {
	panics []*errors.PanicError
}

func (h *panicRecorder) HandleError(err *errors.FrameworkError) {}

func (h *panicRecorder) HandlePanic(err *errors.PanicError) {
	h.panics = append(h.panics, err)
}

func (h *panicRecorder) HandleRenderError(err *errors.RenderError) {}

func (h *panicRecorder) HandleBuildError(err *errors.BuildError) {}

func TestPanickingCallbackDoesNotStopTheFrame(t *testing.T) {
	handler := &panicRecorder{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	s, backend := newTestScheduler()

	var persistentRan bool
	s.ScheduleFrameCallback(func(time.Duration) {
		panic("animation exploded")
	})
	s.AddPersistentFrameCallback(func(time.Duration) {
		persistentRan = true
	})

	backend.PumpFrame(16 * time.Millisecond)

	if !persistentRan {
		t.Error("persistent callbacks should run after a transient panic")
	}
	if len(handler.panics) != 1 {
		t.Fatalf("expected 1 reported panic, got %d", len(handler.panics))
	}
	if s.Phase() != PhaseIdle {
		t.Errorf("phase after frame = %v, want idle", s.Phase())
	}
}

func TestCurrentFrameTimeStampOnlyAvailableInFrame(t *testing.T) {
	s, backend := newTestScheduler()

	if _, ok := s.CurrentFrameTimeStamp(); ok {
		t.Error("no frame timestamp should exist before the first frame")
	}

	var sawStamp bool
	s.AddPersistentFrameCallback(func(ts time.Duration) {
		current, ok := s.CurrentFrameTimeStamp()
		sawStamp = ok && current == ts
	})

	s.ScheduleFrame()
	backend.PumpFrame(16 * time.Millisecond)

	if !sawStamp {
		t.Error("the frame timestamp should be readable during the frame")
	}
	if _, ok := s.CurrentFrameTimeStamp(); ok {
		t.Error("the frame timestamp should clear after the frame")
	}
}
