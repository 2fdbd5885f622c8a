package layout

import (
	"github.com/go-fresco/fresco/pkg/graphics"
)

// PaintContext carries the canvas a render object paints into, plus the
// recorder needed to embed child layers by reference.
type PaintContext struct {
	canvas   graphics.Canvas
	recorder *graphics.PictureRecorder
}

// NewPaintContext wraps a canvas for direct painting, without layer support.
// Used by tests and by render objects that rasterize straight to a surface.
func NewPaintContext(canvas graphics.Canvas) *PaintContext {
	return &PaintContext{canvas: canvas}
}

// Canvas returns the canvas to paint into.
func (ctx *PaintContext) Canvas() graphics.Canvas {
	return ctx.canvas
}

// PaintChild paints a child at the given offset.
//
// A repaint boundary child is not painted inline: its layer is recorded by
// reference, so the parent's display list stays valid when only the child
// changes. Non-boundary children paint directly into this context under a
// translation.
func (ctx *PaintContext) PaintChild(child RenderObject, offset graphics.Offset) {
	if child.IsRepaintBoundary() && ctx.recorder != nil {
		if layerNode, ok := child.(interface{ EnsureLayer() *graphics.Layer }); ok {
			ctx.recorder.DrawChildLayer(layerNode.EnsureLayer(), offset)
			return
		}
	}
	clearNeedsPaint(child)
	ctx.canvas.Save()
	ctx.canvas.Translate(offset.X, offset.Y)
	child.Paint(ctx)
	ctx.canvas.Restore()
}

// HitTestEntry records one render object hit during a hit test.
type HitTestEntry struct {
	Target RenderObject
}

// HitTestResult accumulates the render objects hit at a position, ordered
// from the most specific (deepest) target to the least.
type HitTestResult struct {
	path []HitTestEntry
}

// Add appends a render object to the hit path.
func (r *HitTestResult) Add(target RenderObject) {
	r.path = append(r.path, HitTestEntry{Target: target})
}

// Path returns the accumulated hit entries, deepest first.
func (r *HitTestResult) Path() []HitTestEntry {
	return r.path
}
