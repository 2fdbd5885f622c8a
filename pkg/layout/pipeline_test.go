package layout

import (
	"testing"

	"github.com/go-fresco/fresco/pkg/errors"
	"github.com/go-fresco/fresco/pkg/graphics"
)

// spyBox is a configurable render box for pipeline tests. It counts layout
// and paint calls, can act as a repaint boundary, and can lay out its
// children tight (making them relayout boundaries) or loose.
type spyBox struct {
	RenderBoxBase
	children      []RenderObject
	fixed         graphics.Size
	tightChildren bool
	isBoundary    bool
	layoutPanics  bool
	paintPanics   bool
	onLayout      func()
	onPaint       func()
	layoutCount   int
	paintCount    int
}

func newSpyBox(width, height float64) *spyBox {
	b := &spyBox{fixed: graphics.Size{Width: width, Height: height}}
	b.SetSelf(b)
	return b
}

func (b *spyBox) addChild(child RenderObject) {
	b.children = append(b.children, child)
	child.SetOwner(b.Owner())
	SetParentOnChild(child, b)
}

func (b *spyBox) VisitChildren(visitor func(RenderObject)) {
	for _, child := range b.children {
		visitor(child)
	}
}

func (b *spyBox) IsRepaintBoundary() bool {
	return b.isBoundary
}

func (b *spyBox) PerformLayout() {
	b.layoutCount++
	if b.layoutPanics {
		panic("layout failure")
	}
	if b.onLayout != nil {
		b.onLayout()
	}
	for _, child := range b.children {
		if b.tightChildren {
			child.Layout(Tight(b.fixed), false)
		} else {
			child.Layout(Loose(b.fixed), true)
		}
		child.SetParentData(&BoxParentData{})
	}
	b.SetSize(b.Constraints().Constrain(b.fixed))
}

func (b *spyBox) Paint(ctx *PaintContext) {
	b.paintCount++
	if b.paintPanics {
		panic("paint failure")
	}
	if b.onPaint != nil {
		b.onPaint()
	}
	for _, child := range b.children {
		ctx.PaintChild(child, ChildOffset(child))
	}
}

func (b *spyBox) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if !b.HitTestSelf(position) {
		return false
	}
	if b.HitTestChildren(position, result) {
		return true
	}
	result.Add(b)
	return true
}

// captureHandler records reported errors for assertions.
type captureHandler struct {
	renderErrors []*errors.RenderError
	panics       []*errors.PanicError
}

func (h *captureHandler) HandleError(err *errors.FrameworkError) {}

func (h *captureHandler) HandlePanic(err *errors.PanicError) {
	h.panics = append(h.panics, err)
}

func (h *captureHandler) HandleBuildError(err *errors.BuildError) {}

func (h *captureHandler) HandleRenderError(err *errors.RenderError) {
	h.renderErrors = append(h.renderErrors, err)
}

// buildTree assembles root -> mid -> leaf where mid is a relayout boundary
// (root lays its children out tight) and leaf is not.
func buildTree(t *testing.T) (*PipelineOwner, *spyBox, *spyBox, *spyBox) {
	t.Helper()
	owner := NewPipelineOwner()
	root := newSpyBox(800, 600)
	root.tightChildren = true
	mid := newSpyBox(800, 600)
	leaf := newSpyBox(100, 100)
	root.addChild(mid)
	mid.addChild(leaf)
	owner.SetRootNode(root)
	owner.FlushLayout()
	owner.FlushCompositingBits()
	owner.FlushPaint()
	return owner, root, mid, leaf
}

func TestFlushLayoutReachesWholeTreeInitially(t *testing.T) {
	_, root, mid, leaf := buildTree(t)
	if root.layoutCount != 1 || mid.layoutCount != 1 || leaf.layoutCount != 1 {
		t.Fatalf("expected one layout each, got root=%d mid=%d leaf=%d",
			root.layoutCount, mid.layoutCount, leaf.layoutCount)
	}
}

func TestRelayoutBoundaryContainsDirtyWalk(t *testing.T) {
	owner, root, mid, leaf := buildTree(t)

	leaf.MarkNeedsLayout()
	if root.NeedsLayout() {
		t.Fatal("dirty walk crossed the relayout boundary into the root")
	}
	if !mid.NeedsLayout() {
		t.Fatal("expected the boundary itself to be marked")
	}

	owner.FlushLayout()
	if root.layoutCount != 1 {
		t.Fatalf("root laid out again: count=%d", root.layoutCount)
	}
	if mid.layoutCount != 2 || leaf.layoutCount != 2 {
		t.Fatalf("boundary subtree not re-laid-out: mid=%d leaf=%d", mid.layoutCount, leaf.layoutCount)
	}
}

func TestPipelineFlushIsIdempotentOnCleanTree(t *testing.T) {
	owner, root, mid, leaf := buildTree(t)

	owner.FlushLayout()
	owner.FlushCompositingBits()
	owner.FlushPaint()

	if root.layoutCount != 1 || mid.layoutCount != 1 || leaf.layoutCount != 1 {
		t.Fatalf("clean flush performed layout: root=%d mid=%d leaf=%d",
			root.layoutCount, mid.layoutCount, leaf.layoutCount)
	}
	if root.paintCount != 1 {
		t.Fatalf("clean flush performed paint: root=%d", root.paintCount)
	}
}

func TestFlushLayoutProcessesCascadedDirtyNodes(t *testing.T) {
	owner := NewPipelineOwner()
	root := newSpyBox(800, 600)
	root.tightChildren = true
	first := newSpyBox(400, 300)
	second := newSpyBox(400, 300)
	root.addChild(first)
	root.addChild(second)
	owner.SetRootNode(root)
	owner.FlushLayout()

	// Laying out one boundary dirties a sibling boundary mid-flush.
	first.onLayout = func() {
		first.onLayout = nil
		second.MarkNeedsLayout()
	}
	first.MarkNeedsLayout()
	owner.FlushLayout()

	if second.NeedsLayout() {
		t.Fatal("cascaded dirty node survived the flush")
	}
	if second.layoutCount != 2 {
		t.Fatalf("cascaded boundary not re-laid-out: count=%d", second.layoutCount)
	}
}

func TestFlushLayoutIsolatesPanickingNode(t *testing.T) {
	handler := &captureHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	owner := NewPipelineOwner()
	root := newSpyBox(800, 600)
	root.tightChildren = true
	bad := newSpyBox(100, 100)
	good := newSpyBox(100, 100)
	root.addChild(bad)
	root.addChild(good)
	owner.SetRootNode(root)
	owner.FlushLayout()

	bad.layoutPanics = true
	bad.MarkNeedsLayout()
	good.MarkNeedsLayout()
	owner.FlushLayout()

	if len(handler.renderErrors) != 1 {
		t.Fatalf("expected one reported render error, got %d", len(handler.renderErrors))
	}
	if handler.renderErrors[0].Phase != "layout" {
		t.Fatalf("wrong phase: %s", handler.renderErrors[0].Phase)
	}
	if bad.Size() != (graphics.Size{}) {
		t.Fatalf("panicking node should get zero size, got %v", bad.Size())
	}
	if bad.NeedsLayout() {
		t.Fatal("panicking node left dirty; frame loop would wedge")
	}
	if good.layoutCount != 2 {
		t.Fatalf("healthy sibling skipped after panic: count=%d", good.layoutCount)
	}
}

func TestRepaintBoundaryContainsPaintInvalidation(t *testing.T) {
	owner := NewPipelineOwner()
	root := newSpyBox(800, 600)
	root.isBoundary = true
	inner := newSpyBox(400, 300)
	inner.isBoundary = true
	leaf := newSpyBox(100, 100)
	root.addChild(inner)
	inner.addChild(leaf)
	owner.SetRootNode(root)
	owner.FlushLayout()
	owner.FlushCompositingBits()
	owner.FlushPaint()

	rootPaints := root.paintCount
	leaf.MarkNeedsPaint()
	owner.FlushPaint()

	if root.paintCount != rootPaints {
		t.Fatal("paint invalidation crossed the repaint boundary")
	}
	if inner.paintCount != 2 {
		t.Fatalf("boundary not re-recorded: count=%d", inner.paintCount)
	}
}

func TestFlushPaintRecordsChildLayersBeforeParents(t *testing.T) {
	owner := NewPipelineOwner()
	root := newSpyBox(800, 600)
	root.isBoundary = true
	child := newSpyBox(400, 300)
	child.isBoundary = true
	root.addChild(child)
	owner.SetRootNode(root)
	owner.FlushLayout()
	owner.FlushCompositingBits()

	var recorded []*spyBox
	root.onPaint = func() { recorded = append(recorded, root) }
	child.onPaint = func() { recorded = append(recorded, child) }
	owner.FlushPaint()

	if len(recorded) != 2 || recorded[0] != child || recorded[1] != root {
		t.Fatalf("expected child recorded before parent, got %d records", len(recorded))
	}
	if child.Layer() == nil || child.Layer().Content == nil {
		t.Fatal("child boundary has no recorded layer content")
	}
	if child.Layer().Dirty {
		t.Fatal("child layer still dirty after flush")
	}
	if root.Layer().Content.OpCount() == 0 {
		t.Fatal("root display list empty; child layer reference missing")
	}
}

func TestCompositedLayersMatchRepaintBoundaries(t *testing.T) {
	owner := NewPipelineOwner()
	root := newSpyBox(800, 600)
	root.isBoundary = true
	boundaryChild := newSpyBox(400, 300)
	boundaryChild.isBoundary = true
	plainChild := newSpyBox(200, 200)
	root.addChild(boundaryChild)
	root.addChild(plainChild)
	owner.SetRootNode(root)
	owner.FlushLayout()
	owner.FlushCompositingBits()
	owner.FlushPaint()

	var boundaries, layers int
	var walk func(RenderObject)
	walk = func(obj RenderObject) {
		if obj.IsRepaintBoundary() {
			boundaries++
		}
		if holder, ok := obj.(interface{ Layer() *graphics.Layer }); ok && holder.Layer() != nil {
			layers++
		}
		if visitor, ok := obj.(ChildVisitor); ok {
			visitor.VisitChildren(walk)
		}
	}
	walk(root)

	if boundaries != layers {
		t.Fatalf("layer/boundary mismatch: %d boundaries, %d layers", boundaries, layers)
	}
	if !root.NeedsCompositing() {
		t.Fatal("root with boundary descendant must need compositing")
	}
	if plainChild.NeedsCompositing() {
		t.Fatal("plain leaf must not need compositing")
	}
}

func TestFlushPaintIsolatesPanickingBoundary(t *testing.T) {
	handler := &captureHandler{}
	errors.SetHandler(handler)
	defer errors.SetHandler(nil)

	owner := NewPipelineOwner()
	root := newSpyBox(800, 600)
	root.isBoundary = true
	bad := newSpyBox(100, 100)
	bad.isBoundary = true
	root.addChild(bad)
	owner.SetRootNode(root)
	owner.FlushLayout()
	owner.FlushCompositingBits()
	owner.FlushPaint()

	previous := bad.Layer().Content
	bad.paintPanics = true
	bad.MarkNeedsPaint()
	owner.FlushPaint()

	if len(handler.renderErrors) != 1 {
		t.Fatalf("expected one reported render error, got %d", len(handler.renderErrors))
	}
	if handler.renderErrors[0].Phase != "paint" {
		t.Fatalf("wrong phase: %s", handler.renderErrors[0].Phase)
	}
	if bad.NeedsPaint() {
		t.Fatal("panicking boundary left paint-dirty")
	}
	if bad.Layer().Content != previous {
		t.Fatal("panicking boundary should keep its previous content")
	}
}

func TestDisposeRemovesNodeFromDirtyLists(t *testing.T) {
	owner, _, mid, leaf := buildTree(t)

	leaf.MarkNeedsLayout()
	mid.MarkNeedsPaint()
	midCount := mid.layoutCount
	mid.Dispose()
	owner.FlushLayout()
	owner.FlushPaint()

	if mid.layoutCount != midCount {
		t.Fatal("disposed node was laid out")
	}
}

func TestOnNeedsVisualUpdateFiresOncePerDirtyBatch(t *testing.T) {
	owner, _, _, leaf := buildTree(t)

	requests := 0
	owner.OnNeedsVisualUpdate = func() { requests++ }

	leaf.MarkNeedsLayout()
	leaf.MarkNeedsPaint()
	if requests != 1 {
		t.Fatalf("expected one visual update request for the batch, got %d", requests)
	}
}
