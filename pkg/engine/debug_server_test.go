package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-fresco/fresco/pkg/core"
	"github.com/go-fresco/fresco/pkg/graphics"
)

// waitForServer polls the health endpoint until ready or timeout.
func waitForServer(port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://localhost:%d/health", port)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

// waitForServerDown polls until the server stops responding or timeout.
func waitForServerDown(port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://localhost:%d/health", port)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err != nil {
			return nil
		}
		resp.Body.Close()
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("server still running after %v", timeout)
}

func startTestServer(t *testing.T, h *testHarness) (*DebugServer, int) {
	t.Helper()
	srv := NewDebugServer(h.binding, zerolog.Nop())
	port, err := srv.Start(0)
	if err != nil {
		t.Fatalf("failed to start debug server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	if err := waitForServer(port, 2*time.Second); err != nil {
		t.Fatalf("server not ready: %v", err)
	}
	return srv, port
}

func TestDebugServer_StartStop(t *testing.T) {
	h := newTestHarness(t)
	srv, port := startTestServer(t, h)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", port))
	if err != nil {
		t.Fatalf("failed to reach health endpoint: %v", err)
	}
	defer resp.Body.Close()

	var health map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", health["status"])
	}
	if health["session"] != srv.SessionID() {
		t.Errorf("health session = %q, want %q", health["session"], srv.SessionID())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("stop returned error: %v", err)
	}
	if err := waitForServerDown(port, 2*time.Second); err != nil {
		t.Errorf("server did not stop: %v", err)
	}
}

func TestDebugServer_RenderTreeEndpoint(t *testing.T) {
	h := newTestHarness(t)
	root := core.MountRoot(h.owner, h.view, colorWidget{color: graphics.RGB(1, 2, 3)})
	h.binding.SetRootElement(root)
	h.backend.PumpFrame(16 * time.Millisecond)

	_, port := startTestServer(t, h)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/render-tree", port))
	if err != nil {
		t.Fatalf("failed to reach render-tree endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}

	var tree RenderTreeNode
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		t.Fatalf("failed to decode render tree: %v", err)
	}
	if !tree.IsRepaintBoundary {
		t.Error("root view should be a repaint boundary")
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child under the view, got %d", len(tree.Children))
	}
	if float64(tree.Size.Width) != 800 || float64(tree.Size.Height) != 600 {
		t.Errorf("root size = %vx%v, want 800x600", tree.Size.Width, tree.Size.Height)
	}
}

func TestDebugServer_ElementTreeEndpoint(t *testing.T) {
	h := newTestHarness(t)
	root := core.MountRoot(h.owner, h.view, colorWidget{color: graphics.RGB(1, 2, 3)})
	h.binding.SetRootElement(root)
	h.backend.PumpFrame(16 * time.Millisecond)

	_, port := startTestServer(t, h)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/element-tree", port))
	if err != nil {
		t.Fatalf("failed to reach element-tree endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var tree ElementTreeNode
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		t.Fatalf("failed to decode element tree: %v", err)
	}
	if tree.NeedsBuild {
		t.Error("clean tree should not report needsBuild")
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child element, got %d", len(tree.Children))
	}
}

func TestDebugServer_ElementTreeWithoutRoot(t *testing.T) {
	h := newTestHarness(t)
	_, port := startTestServer(t, h)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/element-tree", port))
	if err != nil {
		t.Fatalf("failed to reach element-tree endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 with no root, got %d", resp.StatusCode)
	}
}

func TestDebugServer_FramesEndpoint(t *testing.T) {
	h := newTestHarness(t)
	root := core.MountRoot(h.owner, h.view, colorWidget{color: graphics.RGB(1, 2, 3)})
	h.binding.SetRootElement(root)
	h.backend.PumpFrame(16 * time.Millisecond)

	_, port := startTestServer(t, h)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/frames?limit=10", port))
	if err != nil {
		t.Fatalf("failed to reach frames endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var timeline FrameTimeline
	if err := json.NewDecoder(resp.Body).Decode(&timeline); err != nil {
		t.Fatalf("failed to decode timeline: %v", err)
	}
	if len(timeline.Samples) != 1 {
		t.Errorf("expected 1 sample, got %d", len(timeline.Samples))
	}
	if timeline.ThresholdMs <= 0 {
		t.Errorf("threshold should be positive, got %v", timeline.ThresholdMs)
	}
}

func TestDebugServer_MethodNotAllowed(t *testing.T) {
	h := newTestHarness(t)
	_, port := startTestServer(t, h)

	resp, err := http.Post(fmt.Sprintf("http://localhost:%d/health", port), "application/json", nil)
	if err != nil {
		t.Fatalf("failed to reach health endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405 for POST, got %d", resp.StatusCode)
	}
}

func TestDebugServer_FailFastOnPortConflict(t *testing.T) {
	blocker, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to create blocker listener: %v", err)
	}
	defer blocker.Close()

	blockedPort := blocker.Addr().(*net.TCPAddr).Port

	h := newTestHarness(t)
	srv := NewDebugServer(h.binding, zerolog.Nop())
	if _, err := srv.Start(blockedPort); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
		t.Error("expected error when binding to occupied port, got nil")
	}
}

func TestDebugServer_AlreadyRunningReturnsPort(t *testing.T) {
	h := newTestHarness(t)
	srv, port1 := startTestServer(t, h)

	port2, err := srv.Start(0)
	if err != nil {
		t.Fatalf("second start returned error: %v", err)
	}
	if port1 != port2 {
		t.Errorf("expected same port %d, got %d", port1, port2)
	}
}
