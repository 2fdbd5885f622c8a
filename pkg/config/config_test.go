package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fresco.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fresco.yaml: %v", err)
	}
	return dir
}

func TestResolveMissingFileUsesDefaults(t *testing.T) {
	resolved, err := Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := &Resolved{
		FrameInterval: DefaultFrameInterval,
		TimeDilation:  1,
		DebugMode:     true,
		DebugPort:     0,
	}
	if diff := cmp.Diff(want, resolved); diff != "" {
		t.Errorf("resolved config mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveParsesFullConfig(t *testing.T) {
	dir := writeConfig(t, `
frame:
  interval: 8333us
  timeDilation: 2.5
debug:
  enabled: false
  serverPort: 9100
`)

	resolved, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := &Resolved{
		FrameInterval: 8333 * time.Microsecond,
		TimeDilation:  2.5,
		DebugMode:     false,
		DebugPort:     9100,
	}
	if diff := cmp.Diff(want, resolved); diff != "" {
		t.Errorf("resolved config mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"negative dilation", "frame:\n  timeDilation: -1\n"},
		{"negative interval", "frame:\n  interval: -5ms\n"},
		{"unparseable interval", "frame:\n  interval: fast\n"},
		{"port out of range", "debug:\n  serverPort: 70000\n"},
		{"malformed yaml", "frame: [\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeConfig(t, tc.content)
			if _, err := Resolve(dir); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadOptionalRoundTrip(t *testing.T) {
	enabled := true
	cfg := &Config{
		Frame: FrameConfig{Interval: Duration(16 * time.Millisecond), TimeDilation: 2},
		Debug: DebugConfig{Enabled: &enabled, ServerPort: 8099},
	}

	dir := writeConfig(t, `
frame:
  interval: 16ms
  timeDilation: 2
debug:
  enabled: true
  serverPort: 8099
`)

	loaded, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("loaded config mismatch (-want +got):\n%s", diff)
	}
}
