// Package layout implements the render tree: render objects with box layout,
// the dirty-tracking invariants that make incremental updates cheap, and the
// PipelineOwner that flushes dirty nodes each frame.
//
// The flush loop only needs a narrow interface per phase, so capabilities
// beyond the core [RenderObject] contract are expressed as small interfaces
// discovered by type assertion ([ChildVisitor], [RepaintBoundaryNode]),
// rather than a monolithic base class.
package layout

import (
	"github.com/go-fresco/fresco/pkg/graphics"
)

// RenderObject handles layout, painting, and hit testing.
type RenderObject interface {
	Layout(constraints Constraints, parentUsesSize bool)
	Size() graphics.Size
	Paint(ctx *PaintContext)
	HitTest(position graphics.Offset, result *HitTestResult) bool
	ParentData() any
	SetParentData(data any)
	MarkNeedsLayout()
	MarkNeedsPaint()
	MarkNeedsCompositingBitsUpdate()
	SetOwner(owner *PipelineOwner)
	IsRepaintBoundary() bool
}

// ChildVisitor is implemented by render objects that have children.
type ChildVisitor interface {
	// VisitChildren calls the visitor function for each child.
	VisitChildren(visitor func(RenderObject))
}

// RepaintBoundaryNode is the narrow interface the paint flush needs from
// repaint boundaries.
type RepaintBoundaryNode interface {
	IsRepaintBoundary() bool
	NeedsPaint() bool
}

// BoxParentData stores the offset for a child in a box layout.
type BoxParentData struct {
	Offset graphics.Offset
}

// ChildOffset returns the parent-assigned offset of a child, or zero if the
// child carries no box parent data.
func ChildOffset(child RenderObject) graphics.Offset {
	if data, ok := child.ParentData().(*BoxParentData); ok && data != nil {
		return data.Offset
	}
	return graphics.Offset{}
}

// RenderBoxBase provides base behavior for render boxes.
//
// Concrete render objects embed RenderBoxBase, call SetSelf with themselves,
// and implement PerformLayout plus Paint. The base owns the dirty flags,
// boundary caching, depth tracking, and the stable layer of repaint
// boundaries.
type RenderBoxBase struct {
	size       graphics.Size
	parentData any
	owner      *PipelineOwner
	self       RenderObject
	parent     RenderObject // non-owning backref, broken on unmount
	depth      int          // tree depth (root = 0)

	relayoutBoundary RenderObject // cached nearest relayout boundary
	needsLayout      bool
	constraints      Constraints // last received constraints

	repaintBoundary RenderObject // cached nearest repaint boundary
	needsPaint      bool
	layer           *graphics.Layer // stable layer for boundaries

	needsCompositingBitsUpdate bool
	needsCompositing           bool
}

// SetSelf registers the concrete render object for scheduling.
// New render objects always need initial layout, paint, and compositing
// bits.
func (r *RenderBoxBase) SetSelf(self RenderObject) {
	r.self = self
	r.needsLayout = true
	r.needsPaint = true
	r.needsCompositingBitsUpdate = true
}

// Self returns the concrete render object registered via SetSelf.
func (r *RenderBoxBase) Self() RenderObject {
	return r.self
}

// Size returns the current size of the render box.
func (r *RenderBoxBase) Size() graphics.Size {
	return r.size
}

// SetSize updates the render box size. A size change marks paint dirty since
// the content must be re-recorded at the new size.
func (r *RenderBoxBase) SetSize(size graphics.Size) {
	if r.size == size {
		return
	}
	r.size = size
	r.MarkNeedsPaint()
}

// ParentData returns the parent-assigned data for this render box.
func (r *RenderBoxBase) ParentData() any {
	return r.parentData
}

// SetParentData assigns parent-controlled data to this render box.
// If the offset in BoxParentData changes, the parent is marked for repaint
// since its recorded child-layer ops embed the old offset.
func (r *RenderBoxBase) SetParentData(data any) {
	if newData, ok := data.(*BoxParentData); ok {
		oldData, hadOldData := r.parentData.(*BoxParentData)
		movedChild := !hadOldData || oldData.Offset != newData.Offset
		if movedChild && r.parent != nil {
			r.parent.MarkNeedsPaint()
		}
	}
	r.parentData = data
}

// SetOwner assigns the pipeline owner for scheduling layout and paint, and
// propagates it through the subtree. Nodes that were dirtied while detached
// reschedule themselves here, since MarkNeedsLayout and friends had no owner
// to talk to at the time.
func (r *RenderBoxBase) SetOwner(owner *PipelineOwner) {
	if r.owner == owner {
		return
	}
	r.owner = owner
	if owner != nil {
		if r.needsLayout && r.relayoutBoundary != nil {
			r.needsLayout = false
			r.MarkNeedsLayout()
		}
		if r.needsCompositingBitsUpdate {
			r.needsCompositingBitsUpdate = false
			r.MarkNeedsCompositingBitsUpdate()
		}
		if r.needsPaint && r.layer != nil {
			r.needsPaint = false
			r.MarkNeedsPaint()
		}
	}
	if visitor, ok := r.self.(ChildVisitor); ok {
		visitor.VisitChildren(func(child RenderObject) {
			child.SetOwner(owner)
		})
	}
}

// Owner returns the pipeline owner, nil while detached.
func (r *RenderBoxBase) Owner() *PipelineOwner {
	return r.owner
}

// Parent returns the parent render object.
func (r *RenderBoxBase) Parent() RenderObject {
	return r.parent
}

// SetParent sets the parent render object and computes depth.
// Cached boundaries and constraints are cleared to prevent stale references
// when the object is reparented into a different subtree.
func (r *RenderBoxBase) SetParent(parent RenderObject) {
	if r.parent == parent {
		return
	}
	oldParent := r.parent
	r.parent = parent
	if parent == nil {
		r.depth = 0
	} else if getter, ok := parent.(interface{ Depth() int }); ok {
		r.depth = getter.Depth() + 1
	} else {
		r.depth = 1
	}
	r.relayoutBoundary = nil
	r.constraints = Constraints{}
	r.needsLayout = true
	r.repaintBoundary = nil
	r.needsPaint = true
	r.needsCompositingBitsUpdate = true
	if r.layer != nil {
		// Layer identity is preserved across reparenting; only its content
		// goes stale.
		r.layer.MarkDirty()
	}

	// Both parents' recorded child-layer ops are stale now.
	if oldParent != nil {
		oldParent.MarkNeedsPaint()
		oldParent.MarkNeedsCompositingBitsUpdate()
	}
	if parent != nil {
		parent.MarkNeedsPaint()
		parent.MarkNeedsCompositingBitsUpdate()
	}
}

// Depth returns the tree depth (root = 0).
func (r *RenderBoxBase) Depth() int {
	return r.depth
}

// RelayoutBoundary returns the cached nearest relayout boundary.
func (r *RenderBoxBase) RelayoutBoundary() RenderObject {
	return r.relayoutBoundary
}

// NeedsLayout returns true if this render box needs layout.
func (r *RenderBoxBase) NeedsLayout() bool {
	return r.needsLayout
}

// Constraints returns the last received constraints.
func (r *RenderBoxBase) Constraints() Constraints {
	return r.constraints
}

// IsRepaintBoundary returns whether this render object repaints separately.
// Override in render objects that should isolate their paint.
func (r *RenderBoxBase) IsRepaintBoundary() bool {
	return false
}

// RepaintBoundary returns the cached nearest repaint boundary.
func (r *RenderBoxBase) RepaintBoundary() RenderObject {
	return r.repaintBoundary
}

// NeedsPaint returns true if this render box needs painting.
func (r *RenderBoxBase) NeedsPaint() bool {
	return r.needsPaint
}

// ClearNeedsPaint marks this render object as painted.
func (r *RenderBoxBase) ClearNeedsPaint() {
	r.needsPaint = false
}

// NeedsCompositing reports whether this node or a descendant below the next
// repaint boundary requires its own composited layer.
func (r *RenderBoxBase) NeedsCompositing() bool {
	return r.needsCompositing
}

// NeedsCompositingBitsUpdate returns true if the compositing flag is stale.
func (r *RenderBoxBase) NeedsCompositingBitsUpdate() bool {
	return r.needsCompositingBitsUpdate
}

// AlwaysNeedsCompositing is overridden by render objects that must have
// their own composited layer regardless of descendants.
func (r *RenderBoxBase) AlwaysNeedsCompositing() bool {
	return false
}

// Layer returns the cached layer for repaint boundaries.
func (r *RenderBoxBase) Layer() *graphics.Layer {
	return r.layer
}

// EnsureLayer returns the existing layer or creates one if needed.
// The layer has stable identity: never replace it, only mark it dirty.
func (r *RenderBoxBase) EnsureLayer() *graphics.Layer {
	if r.layer == nil {
		r.layer = &graphics.Layer{Dirty: true, Size: r.size}
	}
	return r.layer
}

// MarkNeedsLayout marks this render box as needing layout.
//
// When a node needs layout, the dirty flag walks up the tree until it
// reaches a relayout boundary; the boundary is scheduled with the pipeline
// owner. During the flush, layout propagates from the boundary down through
// every marked node, so the change reaches this node without re-laying-out
// anything above the boundary.
func (r *RenderBoxBase) MarkNeedsLayout() {
	if r.needsLayout {
		return
	}
	r.needsLayout = true

	if r.owner == nil || r.self == nil {
		return
	}

	if r.relayoutBoundary == r.self {
		r.owner.ScheduleLayout(r.self)
		return
	}

	if r.parent != nil {
		r.parent.MarkNeedsLayout()
		return
	}

	// No parent and no boundary: tree is still being assembled.
	r.owner.ScheduleLayout(r.self)
}

// MarkNeedsPaint marks this render box as needing paint.
//
// The dirty flag walks up until it reaches a repaint boundary, which is
// scheduled with the pipeline owner. Ancestor boundaries reference this
// boundary's layer rather than its content, so they do not repaint.
func (r *RenderBoxBase) MarkNeedsPaint() {
	r.needsPaint = true

	// Boundary status is read live rather than cached so render objects
	// whose IsRepaintBoundary answer changes (offstage toggles) behave.
	var isBoundary bool
	if r.self != nil {
		isBoundary = r.self.IsRepaintBoundary()
	}
	wasBoundary := r.layer != nil

	if isBoundary != wasBoundary && r.parent != nil {
		r.parent.MarkNeedsPaint()
	}
	if !isBoundary && r.layer != nil {
		r.layer.Dispose()
		r.layer = nil
	}

	if r.owner == nil || r.self == nil {
		if r.layer != nil {
			r.layer.MarkDirty()
		}
		return
	}

	if isBoundary {
		r.EnsureLayer().MarkDirty()
		r.owner.SchedulePaint(r.self)
		return
	}

	if r.parent != nil {
		r.parent.MarkNeedsPaint()
		return
	}

	r.owner.SchedulePaint(r.self)
}

// MarkNeedsCompositingBitsUpdate marks the compositing flag stale.
//
// The flag walks up until it reaches a node that is already marked or a
// repaint boundary; the boundary (or root) is scheduled so FlushCompositingBits
// can recompute the subtree bottom-up.
func (r *RenderBoxBase) MarkNeedsCompositingBitsUpdate() {
	if r.needsCompositingBitsUpdate {
		return
	}
	r.needsCompositingBitsUpdate = true

	if r.parent != nil {
		if marked, ok := r.parent.(interface{ NeedsCompositingBitsUpdate() bool }); ok && marked.NeedsCompositingBitsUpdate() {
			return
		}
		isBoundary := r.self != nil && r.self.IsRepaintBoundary()
		if !isBoundary {
			r.parent.MarkNeedsCompositingBitsUpdate()
			return
		}
	}

	if r.owner != nil && r.self != nil {
		r.owner.ScheduleCompositingBitsUpdate(r.self)
	}
}

// compositingUpdater is the narrow interface FlushCompositingBits needs.
type compositingUpdater interface {
	UpdateCompositingBits()
	NeedsCompositing() bool
}

// UpdateCompositingBits recomputes needsCompositing for this node and any
// stale descendants, bottom-up. A node needs compositing when it is a
// repaint boundary, always requires a layer, or any child does.
func (r *RenderBoxBase) UpdateCompositingBits() {
	if !r.needsCompositingBitsUpdate {
		return
	}
	old := r.needsCompositing
	r.needsCompositing = false

	if visitor, ok := r.self.(ChildVisitor); ok {
		visitor.VisitChildren(func(child RenderObject) {
			if updater, ok := child.(compositingUpdater); ok {
				updater.UpdateCompositingBits()
				if updater.NeedsCompositing() {
					r.needsCompositing = true
				}
			}
		})
	}

	isBoundary := r.self != nil && r.self.IsRepaintBoundary()
	always := false
	if a, ok := r.self.(interface{ AlwaysNeedsCompositing() bool }); ok {
		always = a.AlwaysNeedsCompositing()
	}
	if isBoundary || always {
		r.needsCompositing = true
	}

	if old != r.needsCompositing {
		r.MarkNeedsPaint()
	}
	r.needsCompositingBitsUpdate = false
}

// Layout handles boundary determination and delegates to PerformLayout.
//
// A node becomes a relayout boundary when it receives tight constraints, has
// no parent, or its parent does not use its size. Boundaries contain layout
// changes: the MarkNeedsLayout walk stops there, so ancestors are never
// re-laid-out for a descendant-only change.
//
// The needsLayout flag is cleared before PerformLayout runs. If PerformLayout
// panics, the node is left clean (no retry storm) and the pipeline owner
// reports the failure; if it genuinely changed and needs another pass, it
// must be re-marked by whatever changed it.
func (r *RenderBoxBase) Layout(constraints Constraints, parentUsesSize bool) {
	shouldBeBoundary := constraints.IsTight() || r.parent == nil || !parentUsesSize

	if shouldBeBoundary {
		r.relayoutBoundary = r.self
	} else if r.parent != nil {
		if getter, ok := r.parent.(interface{ RelayoutBoundary() RenderObject }); ok {
			r.relayoutBoundary = getter.RelayoutBoundary()
		}
	}

	// Repaint boundary is inherited unless this node isolates paint itself.
	if r.self != nil && r.self.IsRepaintBoundary() {
		r.repaintBoundary = r.self
		// Schedule on first layout: SetSelf pre-set needsPaint but had no
		// owner to schedule with. Without this, an outer boundary can be
		// skipped when an inner boundary schedules first (MarkNeedsPaint
		// stops at the first boundary).
		if r.needsPaint && r.owner != nil {
			r.EnsureLayer().MarkDirty()
			r.owner.SchedulePaint(r.self)
		}
	} else if r.parent != nil {
		if getter, ok := r.parent.(interface{ RepaintBoundary() RenderObject }); ok {
			r.repaintBoundary = getter.RepaintBoundary()
		}
	}

	// Unchanged subtrees skip layout entirely.
	if !r.needsLayout && r.constraints == constraints {
		return
	}

	r.constraints = constraints
	r.needsLayout = false

	if performer, ok := r.self.(interface{ PerformLayout() }); ok {
		performer.PerformLayout()
	}
}

// Dispose releases resources held by this render box and removes it from any
// pending dirty lists. Call when the render object is permanently removed
// from the tree; backend resources (layers, typeface handles behind them)
// are released synchronously, not left to the garbage collector.
func (r *RenderBoxBase) Dispose() {
	if r.owner != nil && r.self != nil {
		r.owner.Remove(r.self)
	}
	if r.layer != nil {
		r.layer.Dispose()
		r.layer = nil
	}
	r.owner = nil
	r.parent = nil
}

// HitTestSelf reports whether the position lies within this box's bounds.
func (r *RenderBoxBase) HitTestSelf(position graphics.Offset) bool {
	return r.size.Contains(position)
}

// HitTestChildren hit-tests children in reverse paint order, translating the
// position into each child's coordinate space via its parent data offset.
func (r *RenderBoxBase) HitTestChildren(position graphics.Offset, result *HitTestResult) bool {
	visitor, ok := r.self.(ChildVisitor)
	if !ok {
		return false
	}
	var children []RenderObject
	visitor.VisitChildren(func(child RenderObject) {
		children = append(children, child)
	})
	// Last-painted child is visually topmost; test it first.
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		offset := ChildOffset(child)
		if child.HitTest(position.Sub(offset), result) {
			return true
		}
	}
	return false
}

// SetParentOnChild sets the parent reference on a child render object,
// marking both the old and new parent as needing layout when it changes.
func SetParentOnChild(child, parent RenderObject) {
	if child == nil {
		return
	}
	getter, _ := child.(interface{ Parent() RenderObject })
	setter, ok := child.(interface{ SetParent(RenderObject) })
	if !ok {
		return
	}
	currentParent := RenderObject(nil)
	if getter != nil {
		currentParent = getter.Parent()
	}
	if currentParent == parent {
		return
	}
	setter.SetParent(parent)
	if currentParent != nil {
		currentParent.MarkNeedsLayout()
	}
	if parent != nil {
		parent.MarkNeedsLayout()
	}
}

// getDepth returns the tree depth of a render object.
func getDepth(obj RenderObject) int {
	if getter, ok := obj.(interface{ Depth() int }); ok {
		return getter.Depth()
	}
	return 0
}
