// Package engine glues the frame scheduler to the widget and render
// pipelines. The RendererBinding owns the per-frame draw sequence, pointer
// routing, hover tracking, and handoff of painted layer trees to the
// rasterizer.
package engine

import (
	"time"

	"github.com/go-fresco/fresco/pkg/core"
	"github.com/go-fresco/fresco/pkg/graphics"
	"github.com/go-fresco/fresco/pkg/layout"
	"github.com/go-fresco/fresco/pkg/scheduler"
)

// View is a render surface attached to the binding. After paint, the
// binding asks each view for its composited layer tree once per drawn
// frame, and routes pointer events through its hit test.
type View interface {
	// CompositeFrame snapshots the view's painted layer tree. The snapshot
	// is immutable and safe to hand to the rasterizer.
	CompositeFrame() *graphics.LayerTree

	// HitTest accumulates the render objects under position, deepest first.
	HitTest(position graphics.Offset, result *layout.HitTestResult) bool
}

// RendererBinding connects a FrameScheduler to a BuildOwner and its render
// pipeline. It registers a single persistent frame callback that runs
// build, layout, compositing bits, and paint in order, then composites
// every attached view.
//
// All methods must be called on the scheduler's UI thread. The rasterizer
// is the only component that leaves it.
type RendererBinding struct {
	scheduler  *scheduler.FrameScheduler
	owner      *core.BuildOwner
	views      []View
	rasterizer *Rasterizer
	mouse      *MouseTracker
	trace      *FrameTraceBuffer

	rootElement core.Element

	pointerRoutes    map[int64][]PointerTarget
	pointerPositions map[int64]graphics.Offset

	frameCount     int
	cachedCounts   FrameCounts
	countsStamped  bool
	lastFrameStart time.Time
}

// NewRendererBinding wires the build owner's dirty hooks into the
// scheduler and registers the persistent draw-frame callback.
func NewRendererBinding(sched *scheduler.FrameScheduler, owner *core.BuildOwner) *RendererBinding {
	b := &RendererBinding{
		scheduler:        sched,
		owner:            owner,
		trace:            NewFrameTraceBuffer(frameTraceSamplesDefault, defaultFrameTraceThreshold),
		pointerRoutes:    make(map[int64][]PointerTarget),
		pointerPositions: make(map[int64]graphics.Offset),
	}
	b.mouse = NewMouseTracker(b)
	owner.OnNeedsFrame = sched.EnsureVisualUpdate
	owner.Pipeline().OnNeedsVisualUpdate = sched.EnsureVisualUpdate
	sched.AddPersistentFrameCallback(b.drawFrame)
	return b
}

// Scheduler returns the frame scheduler driving this binding.
func (b *RendererBinding) Scheduler() *scheduler.FrameScheduler {
	return b.scheduler
}

// BuildOwner returns the widget build owner.
func (b *RendererBinding) BuildOwner() *core.BuildOwner {
	return b.owner
}

// Pipeline returns the render pipeline owner.
func (b *RendererBinding) Pipeline() *layout.PipelineOwner {
	return b.owner.Pipeline()
}

// FrameTrace returns the frame timing ring buffer.
func (b *RendererBinding) FrameTrace() *FrameTraceBuffer {
	return b.trace
}

// MouseTracker returns the hover tracker for this binding.
func (b *RendererBinding) MouseTracker() *MouseTracker {
	return b.mouse
}

// SetRasterizer installs the rasterizer that receives composited layer
// trees. A nil rasterizer disables submission; frames still paint.
func (b *RendererBinding) SetRasterizer(r *Rasterizer) {
	b.rasterizer = r
}

// AttachView adds a view to the binding and schedules a frame so it gets
// composited.
func (b *RendererBinding) AttachView(view View) {
	b.views = append(b.views, view)
	b.scheduler.EnsureVisualUpdate()
}

// DetachView removes a previously attached view.
func (b *RendererBinding) DetachView(view View) {
	for i, v := range b.views {
		if v == view {
			b.views = append(b.views[:i], b.views[i+1:]...)
			return
		}
	}
}

// Views returns the currently attached views.
func (b *RendererBinding) Views() []View {
	return b.views
}

// SetRootElement records the mounted root element for tree inspection.
func (b *RendererBinding) SetRootElement(root core.Element) {
	b.rootElement = root
}

// RootElement returns the mounted root element, or nil before mount.
func (b *RendererBinding) RootElement() core.Element {
	return b.rootElement
}

// drawFrame is the persistent frame callback: flush build, layout,
// compositing bits, and paint, then composite each attached view. It runs
// once per drawn frame, after all transient callbacks.
func (b *RendererBinding) drawFrame(timeStamp time.Duration) {
	frameStart := time.Now()
	var sample FrameSample
	sample.Timestamp = frameStart.UnixMilli()
	sample.FrameTimeStampMs = durationToMillis(timeStamp)

	phaseStart := time.Now()
	b.owner.FlushBuild()
	sample.Phases.BuildMs = durationToMillis(time.Since(phaseStart))

	pipeline := b.owner.Pipeline()

	phaseStart = time.Now()
	pipeline.FlushLayout()
	sample.Phases.LayoutMs = durationToMillis(time.Since(phaseStart))

	phaseStart = time.Now()
	pipeline.FlushCompositingBits()
	sample.Phases.CompositingMs = durationToMillis(time.Since(phaseStart))

	phaseStart = time.Now()
	pipeline.FlushPaint()
	sample.Phases.PaintMs = durationToMillis(time.Since(phaseStart))

	phaseStart = time.Now()
	for _, view := range b.views {
		tree := view.CompositeFrame()
		if tree == nil || b.rasterizer == nil {
			continue
		}
		if !b.rasterizer.Submit(tree) {
			// Previous frame still in flight; redraw once it drains.
			sample.Flags.RasterBackpressure = true
			b.scheduler.EnsureVisualUpdate()
		}
	}
	sample.Phases.CompositeMs = durationToMillis(time.Since(phaseStart))

	b.stampCounts(&sample)

	frameDuration := time.Since(frameStart)
	sample.FrameMs = durationToMillis(frameDuration)
	b.trace.Add(sample, frameDuration)
	b.lastFrameStart = frameStart
	b.frameCount++

	if b.mouse.hasPosition() {
		b.scheduler.AddPostFrameCallback(func(time.Duration) {
			b.mouse.refresh()
		})
	}
}

// stampCounts fills tree size counters, recomputing every tenth frame to
// keep traversal cost out of the steady-state frame.
func (b *RendererBinding) stampCounts(sample *FrameSample) {
	if !b.countsStamped || b.frameCount%10 == 0 {
		b.cachedCounts = FrameCounts{
			RenderNodeCount:  b.countRenderNodes(),
			ElementNodeCount: countElementTree(b.rootElement),
			ViewCount:        len(b.views),
		}
		b.countsStamped = true
	}
	sample.Counts = b.cachedCounts
}

func (b *RendererBinding) countRenderNodes() int {
	total := 0
	for _, view := range b.views {
		if node, ok := view.(layout.RenderObject); ok {
			total += countRenderTree(node)
		}
	}
	return total
}
