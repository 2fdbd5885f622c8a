// Package config loads the optional fresco.yaml runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFrameInterval is the vsync interval used when fresco.yaml does not
// set one (60Hz).
const DefaultFrameInterval = 16667 * time.Microsecond

// Config represents the optional fresco.yaml configuration.
type Config struct {
	Frame FrameConfig `yaml:"frame"`
	Debug DebugConfig `yaml:"debug"`
}

// FrameConfig contains frame production settings.
type FrameConfig struct {
	// Interval is the target frame interval, e.g. "16.667ms".
	Interval Duration `yaml:"interval,omitempty"`
	// TimeDilation slows animation time by the given factor.
	TimeDilation float64 `yaml:"timeDilation,omitempty"`
}

// Duration wraps time.Duration so yaml values like "16ms" parse through
// time.ParseDuration instead of as raw nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// DebugConfig contains debugging and inspection settings.
type DebugConfig struct {
	// Enabled turns on debug-mode assertions and panic capture.
	Enabled *bool `yaml:"enabled,omitempty"`
	// ServerPort starts the HTTP debug server when positive.
	ServerPort int `yaml:"serverPort,omitempty"`
}

// Resolved contains configuration values with defaults applied.
type Resolved struct {
	FrameInterval time.Duration
	TimeDilation  float64
	DebugMode     bool
	DebugPort     int
}

// LoadOptional reads fresco.yaml from dir if present. A missing file yields
// an empty config, not an error.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "fresco.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read fresco.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse fresco.yaml: %w", err)
	}

	return &cfg, nil
}

// Resolve loads fresco.yaml (if present) and applies defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve()
}

// Resolve applies defaults and validates the configuration.
func (c *Config) Resolve() (*Resolved, error) {
	interval := time.Duration(c.Frame.Interval)
	if interval == 0 {
		interval = DefaultFrameInterval
	}
	if interval < 0 {
		return nil, fmt.Errorf("frame.interval must be positive, got %v", interval)
	}

	dilation := c.Frame.TimeDilation
	if dilation == 0 {
		dilation = 1
	}
	if dilation < 0 {
		return nil, fmt.Errorf("frame.timeDilation must be positive, got %v", dilation)
	}

	if c.Debug.ServerPort < 0 || c.Debug.ServerPort > 65535 {
		return nil, fmt.Errorf("debug.serverPort out of range: %d", c.Debug.ServerPort)
	}

	debugMode := true
	if c.Debug.Enabled != nil {
		debugMode = *c.Debug.Enabled
	}

	return &Resolved{
		FrameInterval: interval,
		TimeDilation:  dilation,
		DebugMode:     debugMode,
		DebugPort:     c.Debug.ServerPort,
	}, nil
}
