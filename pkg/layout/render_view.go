package layout

import (
	"github.com/go-fresco/fresco/pkg/graphics"
)

// ViewConfiguration describes the output surface a render tree targets.
type ViewConfiguration struct {
	Size             graphics.Size
	DevicePixelRatio float64
}

// RenderView is the root of the render tree. It bridges the pipeline owner
// and the compositor: layout starts here with tight constraints derived from
// the view configuration, and CompositeFrame turns the painted layer tree
// into the immutable snapshot handed to the rasterizer.
type RenderView struct {
	RenderBoxBase
	child         RenderObject
	configuration ViewConfiguration
}

// NewRenderView creates a render view for the given configuration.
func NewRenderView(configuration ViewConfiguration) *RenderView {
	v := &RenderView{configuration: configuration}
	v.SetSelf(v)
	return v
}

// Configuration returns the current view configuration.
func (v *RenderView) Configuration() ViewConfiguration {
	return v.configuration
}

// SetConfiguration updates the output surface description, typically on a
// window resize, and schedules a full relayout.
func (v *RenderView) SetConfiguration(configuration ViewConfiguration) {
	if v.configuration == configuration {
		return
	}
	v.configuration = configuration
	v.MarkNeedsLayout()
}

// Child returns the root content render object.
func (v *RenderView) Child() RenderObject {
	return v.child
}

// SetChild replaces the root content render object.
func (v *RenderView) SetChild(child RenderObject) {
	if v.child == child {
		return
	}
	if v.child != nil {
		SetParentOnChild(v.child, nil)
	}
	v.child = child
	if child != nil {
		child.SetOwner(v.Owner())
		SetParentOnChild(child, v)
	}
	v.MarkNeedsLayout()
}

// VisitChildren calls the visitor for the child, if any.
func (v *RenderView) VisitChildren(visitor func(RenderObject)) {
	if v.child != nil {
		visitor(v.child)
	}
}

// IsRepaintBoundary reports true: the view always owns the root layer.
func (v *RenderView) IsRepaintBoundary() bool {
	return true
}

// PrepareInitialFrame schedules the first layout and paint. Call once after
// the view is attached to a pipeline owner, before the first frame.
func (v *RenderView) PrepareInitialFrame() {
	v.MarkNeedsLayout()
	v.MarkNeedsCompositingBitsUpdate()
	v.MarkNeedsPaint()
}

// PerformLayout sizes the view to its configuration and lays out the child
// under tight constraints. The child therefore always becomes a relayout
// boundary.
func (v *RenderView) PerformLayout() {
	v.SetSize(v.configuration.Size)
	if v.child != nil {
		v.child.Layout(Tight(v.configuration.Size), false)
	}
}

// Paint paints the child into the root layer.
func (v *RenderView) Paint(ctx *PaintContext) {
	if v.child != nil {
		ctx.PaintChild(v.child, graphics.Offset{})
	}
}

// HitTest walks the render tree at the given position. The view itself is
// always added last so the path is never empty for in-surface positions.
func (v *RenderView) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if v.child != nil {
		v.child.HitTest(position, result)
	}
	result.Add(v)
	return true
}

// CompositeFrame snapshots the current layer tree for rasterization. The
// returned tree references the view's layers; callers must rasterize it
// before the next paint flush mutates layer content.
func (v *RenderView) CompositeFrame() *graphics.LayerTree {
	return graphics.NewLayerTree(v.EnsureLayer(), v.configuration.Size, v.configuration.DevicePixelRatio)
}
