package fresco

import (
	"testing"
	"time"

	"github.com/go-fresco/fresco/pkg/config"
	"github.com/go-fresco/fresco/pkg/frescotest"
)

func resetBindings() {
	mu.Lock()
	binding = nil
	runLoop = nil
	debugSrv = nil
	mu.Unlock()
}

func testConfig() *config.Resolved {
	return &config.Resolved{
		FrameInterval: 16 * time.Millisecond,
		TimeDilation:  1,
		DebugMode:     true,
	}
}

func TestInitExposesBindings(t *testing.T) {
	resetBindings()
	t.Cleanup(resetBindings)

	backend := frescotest.NewTestBackend()
	if err := Init(Options{Backend: backend, Config: testConfig()}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	b := Renderer()
	if b == nil {
		t.Fatal("Renderer returned nil after Init")
	}
	if Scheduler() != b.Scheduler() {
		t.Error("Scheduler accessor does not match the binding's scheduler")
	}

	// The binding registers its frame callback on the provided backend.
	Scheduler().EnsureVisualUpdate()
	if !backend.HasPendingFrame() {
		t.Error("EnsureVisualUpdate did not reach the injected backend")
	}
}

func TestInitTwiceFails(t *testing.T) {
	resetBindings()
	t.Cleanup(resetBindings)

	opts := Options{Backend: frescotest.NewTestBackend(), Config: testConfig()}
	if err := Init(opts); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(opts); err == nil {
		t.Error("second Init should fail")
	}
}

func TestAccessorsPanicBeforeInit(t *testing.T) {
	resetBindings()

	defer func() {
		if recover() == nil {
			t.Error("Renderer should panic before Init")
		}
	}()
	Renderer()
}

func TestInitAppliesTimeDilation(t *testing.T) {
	resetBindings()
	t.Cleanup(resetBindings)

	cfg := testConfig()
	cfg.TimeDilation = 2
	if err := Init(Options{Backend: frescotest.NewTestBackend(), Config: cfg}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := Scheduler().TimeDilation(); got != 2 {
		t.Errorf("TimeDilation = %v, want 2", got)
	}
}
