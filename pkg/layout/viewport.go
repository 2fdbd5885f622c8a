package layout

import (
	"math"

	"github.com/go-fresco/fresco/pkg/graphics"
)

// RenderViewport is a multi-child container with an out-of-band center
// child. Children before the center grow upward (negative main axis) from
// the viewport origin plus the scroll offset; the center child and those
// after it grow downward. The center is designated by key rather than by
// position, so list edits around it do not change what is anchored.
type RenderViewport struct {
	RenderBoxBase
	children  []RenderObject
	keys      []any
	axis      FlexDirection
	offset    float64 // scroll offset along the main axis
	centerKey any

	// center resolution is deferred until the end of a child-list
	// transaction so a batch of inserts or removals triggers one scan, not
	// one per edit.
	centerIndex   int
	centerPending bool
	inTransaction bool
}

// NewRenderViewport creates a viewport scrolling along the given axis.
func NewRenderViewport(axis FlexDirection) *RenderViewport {
	v := &RenderViewport{axis: axis, centerIndex: -1}
	v.SetSelf(v)
	return v
}

// ScrollOffset returns the current scroll offset.
func (v *RenderViewport) ScrollOffset() float64 {
	return v.offset
}

// SetScrollOffset updates the scroll offset. Child offsets are assigned
// during layout, so scrolling re-runs layout on this boundary.
func (v *RenderViewport) SetScrollOffset(offset float64) {
	if v.offset == offset {
		return
	}
	v.offset = offset
	v.MarkNeedsLayout()
}

// CenterKey returns the key of the center child, or nil when the first
// child anchors the viewport.
func (v *RenderViewport) CenterKey() any {
	return v.centerKey
}

// SetCenterKey designates which child anchors the viewport.
func (v *RenderViewport) SetCenterKey(key any) {
	if v.centerKey == key {
		return
	}
	v.centerKey = key
	v.invalidateCenter()
	v.MarkNeedsLayout()
}

// BeginChildTransaction opens a batch of child-list edits. Center resolution
// is suppressed until the matching EndChildTransaction, so a reconciliation
// pass that inserts and removes many children scans for the center once.
func (v *RenderViewport) BeginChildTransaction() {
	v.inTransaction = true
}

// EndChildTransaction closes the batch and resolves the center if any edit
// invalidated it.
func (v *RenderViewport) EndChildTransaction() {
	v.inTransaction = false
	if v.centerPending {
		v.resolveCenter()
	}
}

// SetChildren replaces the child list in one transaction. The new children
// carry no keys; use SetChildrenWithKeys to keep the center key resolvable.
func (v *RenderViewport) SetChildren(children []RenderObject) {
	v.SetChildrenWithKeys(children, nil)
}

// SetChildrenWithKeys replaces the child list and its keys in one
// transaction, so the center is re-resolved once for the whole batch.
// keys may be nil or shorter than children; missing entries are nil.
func (v *RenderViewport) SetChildrenWithKeys(children []RenderObject, keys []any) {
	v.BeginChildTransaction()
	for _, child := range v.children {
		SetParentOnChild(child, nil)
	}
	v.children = v.children[:0]
	v.keys = v.keys[:0]
	for i, child := range children {
		v.children = append(v.children, child)
		if i < len(keys) {
			v.keys = append(v.keys, keys[i])
		} else {
			v.keys = append(v.keys, nil)
		}
		child.SetOwner(v.Owner())
		SetParentOnChild(child, v)
	}
	v.invalidateCenter()
	v.MarkNeedsLayout()
	v.EndChildTransaction()
}

// InsertChild adds a child with its key at the given index.
func (v *RenderViewport) InsertChild(index int, key any, child RenderObject) {
	if index < 0 || index > len(v.children) {
		index = len(v.children)
	}
	v.children = append(v.children, nil)
	copy(v.children[index+1:], v.children[index:])
	v.children[index] = child
	v.keys = append(v.keys, nil)
	copy(v.keys[index+1:], v.keys[index:])
	v.keys[index] = key

	child.SetOwner(v.Owner())
	SetParentOnChild(child, v)
	v.invalidateCenter()
	v.MarkNeedsLayout()
}

// RemoveChild detaches a child from the viewport.
func (v *RenderViewport) RemoveChild(child RenderObject) {
	for i, c := range v.children {
		if c == child {
			v.children = append(v.children[:i], v.children[i+1:]...)
			v.keys = append(v.keys[:i], v.keys[i+1:]...)
			SetParentOnChild(child, nil)
			v.invalidateCenter()
			v.MarkNeedsLayout()
			return
		}
	}
}

// Children returns the current child list.
func (v *RenderViewport) Children() []RenderObject {
	return v.children
}

// VisitChildren calls the visitor for each child in order.
func (v *RenderViewport) VisitChildren(visitor func(RenderObject)) {
	for _, child := range v.children {
		visitor(child)
	}
}

// CenterIndex returns the resolved index of the center child, resolving it
// first if a pending edit invalidated it. Returns 0 when no key matches.
func (v *RenderViewport) CenterIndex() int {
	if v.centerPending && !v.inTransaction {
		v.resolveCenter()
	}
	return v.centerIndex
}

func (v *RenderViewport) invalidateCenter() {
	v.centerPending = true
	if !v.inTransaction {
		v.resolveCenter()
	}
}

// resolveCenter recomputes the center index with one linear scan.
func (v *RenderViewport) resolveCenter() {
	v.centerPending = false
	v.centerIndex = 0
	if v.centerKey == nil {
		return
	}
	for i, key := range v.keys {
		if key == v.centerKey {
			v.centerIndex = i
			return
		}
	}
}

func (v *RenderViewport) mainAxis(size graphics.Size) float64 {
	if v.axis == FlexHorizontal {
		return size.Width
	}
	return size.Height
}

func (v *RenderViewport) makeOffset(main float64) graphics.Offset {
	if v.axis == FlexHorizontal {
		return graphics.Offset{X: main}
	}
	return graphics.Offset{Y: main}
}

func (v *RenderViewport) childConstraints() Constraints {
	constraints := v.Constraints()
	if v.axis == FlexHorizontal {
		return Constraints{
			MinHeight: constraints.MinHeight,
			MaxHeight: constraints.MaxHeight,
			MaxWidth:  math.MaxFloat64,
		}
	}
	return Constraints{
		MinWidth:  constraints.MinWidth,
		MaxWidth:  constraints.MaxWidth,
		MaxHeight: math.MaxFloat64,
	}
}

// PerformLayout lays out every child unbounded along the main axis, then
// positions the center child at the scroll offset, children after it
// stacked forward, and children before it stacked backward.
func (v *RenderViewport) PerformLayout() {
	constraints := v.Constraints()
	v.SetSize(constraints.Biggest())
	if len(v.children) == 0 {
		return
	}

	center := v.CenterIndex()
	inner := v.childConstraints()
	for _, child := range v.children {
		child.Layout(inner, true)
	}

	cursor := -v.offset
	for i := center; i < len(v.children); i++ {
		child := v.children[i]
		child.SetParentData(&BoxParentData{Offset: v.makeOffset(cursor)})
		cursor += v.mainAxis(child.Size())
	}
	cursor = -v.offset
	for i := center - 1; i >= 0; i-- {
		child := v.children[i]
		cursor -= v.mainAxis(child.Size())
		child.SetParentData(&BoxParentData{Offset: v.makeOffset(cursor)})
	}
}

func (v *RenderViewport) Paint(ctx *PaintContext) {
	size := v.Size()
	viewport := graphics.RectFromLTWH(0, 0, size.Width, size.Height)
	for _, child := range v.children {
		offset := ChildOffset(child)
		bounds := graphics.RectFromOffsetSize(offset, child.Size())
		if bounds.Intersect(viewport).IsEmpty() {
			continue
		}
		ctx.PaintChild(child, offset)
	}
}

func (v *RenderViewport) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if !v.HitTestSelf(position) {
		return false
	}
	if v.HitTestChildren(position, result) {
		return true
	}
	result.Add(v)
	return true
}
