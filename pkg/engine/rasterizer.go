package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/go-fresco/fresco/pkg/graphics"
)

// Surface is the output target the rasterizer draws into.
//
// BeginFrame returns a canvas sized for the frame; Present submits it.
// Implementations are called from the rasterizer's goroutine, never the
// UI thread.
type Surface interface {
	BeginFrame(size graphics.Size) graphics.Canvas
	Present() error
}

// Rasterizer draws composited layer trees on a surface, off the UI thread.
//
// At most one frame is in flight at a time, gated by a weighted semaphore.
// A Submit that arrives while the previous frame is still drawing is
// rejected rather than queued; the binding reschedules a frame instead,
// so the rasterizer always draws the freshest tree. Submitted trees are
// immutable snapshots and are only read here.
type Rasterizer struct {
	surface Surface
	sem     *semaphore.Weighted
	log     zerolog.Logger
}

// NewRasterizer creates a rasterizer drawing to the given surface.
func NewRasterizer(surface Surface, log zerolog.Logger) *Rasterizer {
	return &Rasterizer{
		surface: surface,
		sem:     semaphore.NewWeighted(1),
		log:     log,
	}
}

// Submit hands a layer tree to the rasterizer. Returns false when a
// previous frame is still in flight, in which case the tree is dropped.
func (r *Rasterizer) Submit(tree *graphics.LayerTree) bool {
	if tree == nil {
		return true
	}
	if !r.sem.TryAcquire(1) {
		return false
	}
	go func() {
		defer r.sem.Release(1)
		r.draw(tree)
	}()
	return true
}

// WaitIdle blocks until any in-flight frame has been presented. Intended
// for shutdown and tests.
func (r *Rasterizer) WaitIdle() {
	// Acquire only fails on context cancellation; Background has none.
	_ = r.sem.Acquire(context.Background(), 1)
	r.sem.Release(1)
}

func (r *Rasterizer) draw(tree *graphics.LayerTree) {
	start := time.Now()
	canvas := r.surface.BeginFrame(tree.Size())
	tree.Raster(canvas)
	canvas.Flush()
	if err := r.surface.Present(); err != nil {
		r.log.Error().Err(err).Msg("present failed")
		return
	}
	r.log.Trace().
		Dur("raster", time.Since(start)).
		Float64("width", tree.Size().Width).
		Float64("height", tree.Size().Height).
		Msg("frame presented")
}
