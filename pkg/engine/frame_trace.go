package engine

import (
	"sync"
	"time"

	"github.com/go-fresco/fresco/pkg/core"
	"github.com/go-fresco/fresco/pkg/layout"
)

const (
	frameTraceSamplesDefault   = 240
	defaultFrameTraceThreshold = 16667 * time.Microsecond
)

// FramePhaseTimings breaks a frame's wall time down by pipeline phase,
// in milliseconds.
type FramePhaseTimings struct {
	BuildMs       float64 `json:"buildMs"`
	LayoutMs      float64 `json:"layoutMs"`
	CompositingMs float64 `json:"compositingMs"`
	PaintMs       float64 `json:"paintMs"`
	CompositeMs   float64 `json:"compositeMs"`
}

// FrameCounts sizes the trees the frame walked.
type FrameCounts struct {
	RenderNodeCount  int `json:"renderNodeCount"`
	ElementNodeCount int `json:"elementNodeCount"`
	ViewCount        int `json:"viewCount"`
}

// FrameFlags marks conditions worth seeing next to a slow sample.
type FrameFlags struct {
	RasterBackpressure bool `json:"rasterBackpressure,omitempty"`
}

// FrameSample is one recorded frame.
type FrameSample struct {
	Timestamp        int64             `json:"ts"`
	FrameTimeStampMs float64           `json:"frameTimeStampMs"`
	FrameMs          float64           `json:"frameMs"`
	Phases           FramePhaseTimings `json:"phases"`
	Counts           FrameCounts       `json:"counts"`
	Flags            FrameFlags        `json:"flags"`
}

// FrameTimeline is what the frames endpoint serves: the retained samples
// plus drop statistics.
type FrameTimeline struct {
	Samples       []FrameSample `json:"samples"`
	DroppedFrames int           `json:"droppedFrames"`
	ThresholdMs   float64       `json:"thresholdMs"`
}

// FrameTraceBuffer retains the last capacity frames in a ring. Writes come
// from the frame callback; the debug server reads snapshots concurrently.
type FrameTraceBuffer struct {
	mu        sync.RWMutex
	samples   []FrameSample
	index     int
	count     int
	dropped   int
	threshold time.Duration
}

// NewFrameTraceBuffer creates a ring holding capacity samples. Non-positive
// arguments fall back to the defaults (240 samples, one 60Hz interval).
func NewFrameTraceBuffer(capacity int, threshold time.Duration) *FrameTraceBuffer {
	if capacity <= 0 {
		capacity = frameTraceSamplesDefault
	}
	if threshold <= 0 {
		threshold = defaultFrameTraceThreshold
	}
	return &FrameTraceBuffer{
		samples:   make([]FrameSample, capacity),
		threshold: threshold,
	}
}

// Capacity returns how many samples the ring retains.
func (b *FrameTraceBuffer) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// SetThreshold changes the duration beyond which a frame counts as
// dropped.
func (b *FrameTraceBuffer) SetThreshold(threshold time.Duration) {
	if threshold <= 0 {
		threshold = defaultFrameTraceThreshold
	}
	b.mu.Lock()
	b.threshold = threshold
	b.mu.Unlock()
}

// Threshold returns the current dropped-frame cutoff.
func (b *FrameTraceBuffer) Threshold() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.threshold
}

// Add stores a sample, evicting the oldest once the ring is full, and
// counts the frame as dropped when it ran past the threshold.
func (b *FrameTraceBuffer) Add(sample FrameSample, frameDuration time.Duration) {
	b.mu.Lock()
	b.samples[b.index] = sample
	b.index = (b.index + 1) % len(b.samples)
	if b.count < len(b.samples) {
		b.count++
	}
	if frameDuration > b.threshold {
		b.dropped++
	}
	b.mu.Unlock()
}

// Snapshot copies the retained samples oldest-first along with the drop
// statistics, so readers never alias the live ring.
func (b *FrameTraceBuffer) Snapshot() FrameTimeline {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return FrameTimeline{ThresholdMs: durationToMillis(b.threshold)}
	}

	result := make([]FrameSample, b.count)
	if b.count < len(b.samples) {
		copy(result, b.samples[:b.count])
	} else {
		copy(result, b.samples[b.index:])
		copy(result[len(b.samples)-b.index:], b.samples[:b.index])
	}

	return FrameTimeline{
		Samples:       result,
		DroppedFrames: b.dropped,
		ThresholdMs:   durationToMillis(b.threshold),
	}
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func countRenderTree(root layout.RenderObject) int {
	if root == nil {
		return 0
	}
	count := 1
	if cv, ok := root.(layout.ChildVisitor); ok {
		cv.VisitChildren(func(child layout.RenderObject) {
			count += countRenderTree(child)
		})
	}
	return count
}

func countElementTree(root core.Element) int {
	if root == nil {
		return 0
	}
	count := 1
	root.VisitChildren(func(child core.Element) bool {
		count += countElementTree(child)
		return true
	})
	return count
}
