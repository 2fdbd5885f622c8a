package layout

import (
	"sort"

	"github.com/go-fresco/fresco/pkg/errors"
	"github.com/go-fresco/fresco/pkg/graphics"
)

// DebugChecks enables internal consistency assertions in the flush phases.
var DebugChecks = true

// PipelineOwner tracks dirty render objects and flushes them in phases:
// layout, then compositing bits, then paint. Each phase drains its own dirty
// list in depth order so parents are processed before (layout) or after
// (paint) their children as the phase requires.
type PipelineOwner struct {
	rootNode RenderObject

	nodesNeedingLayout         []RenderObject
	nodesNeedingLayoutSet      map[RenderObject]bool
	nodesNeedingPaint          []RenderObject
	nodesNeedingPaintSet       map[RenderObject]bool
	nodesNeedingCompositing    []RenderObject
	nodesNeedingCompositingSet map[RenderObject]bool

	// OnNeedsVisualUpdate is invoked whenever a node is scheduled while the
	// dirty lists were empty. The binding hooks this up to request a frame.
	OnNeedsVisualUpdate func()
}

// NewPipelineOwner creates an empty pipeline owner.
func NewPipelineOwner() *PipelineOwner {
	return &PipelineOwner{
		nodesNeedingLayoutSet:      make(map[RenderObject]bool),
		nodesNeedingPaintSet:       make(map[RenderObject]bool),
		nodesNeedingCompositingSet: make(map[RenderObject]bool),
	}
}

// SetRootNode attaches the root render object and schedules it for its
// initial layout and paint.
func (p *PipelineOwner) SetRootNode(root RenderObject) {
	if p.rootNode == root {
		return
	}
	p.rootNode = root
	if root == nil {
		return
	}
	root.SetOwner(p)
	root.MarkNeedsLayout()
	root.MarkNeedsCompositingBitsUpdate()
	root.MarkNeedsPaint()
}

// RootNode returns the attached root render object.
func (p *PipelineOwner) RootNode() RenderObject {
	return p.rootNode
}

// ScheduleLayout adds a relayout boundary to the layout dirty list.
func (p *PipelineOwner) ScheduleLayout(obj RenderObject) {
	if p.nodesNeedingLayoutSet[obj] {
		return
	}
	p.requestVisualUpdate()
	p.nodesNeedingLayoutSet[obj] = true
	p.nodesNeedingLayout = append(p.nodesNeedingLayout, obj)
}

// SchedulePaint adds a repaint boundary to the paint dirty list.
func (p *PipelineOwner) SchedulePaint(obj RenderObject) {
	if p.nodesNeedingPaintSet[obj] {
		return
	}
	p.requestVisualUpdate()
	p.nodesNeedingPaintSet[obj] = true
	p.nodesNeedingPaint = append(p.nodesNeedingPaint, obj)
}

// ScheduleCompositingBitsUpdate adds a node to the compositing dirty list.
func (p *PipelineOwner) ScheduleCompositingBitsUpdate(obj RenderObject) {
	if p.nodesNeedingCompositingSet[obj] {
		return
	}
	p.requestVisualUpdate()
	p.nodesNeedingCompositingSet[obj] = true
	p.nodesNeedingCompositing = append(p.nodesNeedingCompositing, obj)
}

// Remove drops a render object from every dirty list. Called when an object
// is disposed so the flush never touches a dead node.
func (p *PipelineOwner) Remove(obj RenderObject) {
	if p.nodesNeedingLayoutSet[obj] {
		delete(p.nodesNeedingLayoutSet, obj)
		p.nodesNeedingLayout = removeNode(p.nodesNeedingLayout, obj)
	}
	if p.nodesNeedingPaintSet[obj] {
		delete(p.nodesNeedingPaintSet, obj)
		p.nodesNeedingPaint = removeNode(p.nodesNeedingPaint, obj)
	}
	if p.nodesNeedingCompositingSet[obj] {
		delete(p.nodesNeedingCompositingSet, obj)
		p.nodesNeedingCompositing = removeNode(p.nodesNeedingCompositing, obj)
	}
}

func removeNode(nodes []RenderObject, obj RenderObject) []RenderObject {
	for i, n := range nodes {
		if n == obj {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

// NeedsLayout reports whether any node awaits layout.
func (p *PipelineOwner) NeedsLayout() bool {
	return len(p.nodesNeedingLayout) > 0
}

// NeedsPaint reports whether any node awaits paint.
func (p *PipelineOwner) NeedsPaint() bool {
	return len(p.nodesNeedingPaint) > 0
}

func (p *PipelineOwner) requestVisualUpdate() {
	if len(p.nodesNeedingLayout) == 0 && len(p.nodesNeedingPaint) == 0 &&
		len(p.nodesNeedingCompositing) == 0 && p.OnNeedsVisualUpdate != nil {
		p.OnNeedsVisualUpdate()
	}
}

// FlushLayout lays out every dirty relayout boundary, shallowest first, so a
// parent's layout (which may re-lay-out and clean descendants) runs before
// any stale descendant entry is considered. Layout may dirty deeper nodes;
// the loop repeats until the list is empty.
//
// A panic inside a node's layout is contained to that node: the failure is
// reported, the node gets a zero size, and its dirty bit stays cleared so a
// single broken node cannot wedge the frame loop.
func (p *PipelineOwner) FlushLayout() {
	var processed map[RenderObject]bool
	if DebugChecks {
		processed = make(map[RenderObject]bool)
	}
	for len(p.nodesNeedingLayout) > 0 {
		dirty := p.nodesNeedingLayout
		p.nodesNeedingLayout = nil
		p.nodesNeedingLayoutSet = make(map[RenderObject]bool)
		sort.SliceStable(dirty, func(i, j int) bool {
			return getDepth(dirty[i]) < getDepth(dirty[j])
		})
		for _, node := range dirty {
			if DebugChecks && processed[node] {
				panic("layout: node laid out twice in one flush; layout must not dirty an already processed boundary")
			}
			if !nodeNeedsLayout(node) {
				continue
			}
			if DebugChecks {
				processed[node] = true
			}
			p.layoutNode(node)
		}
	}
}

func nodeNeedsLayout(node RenderObject) bool {
	if getter, ok := node.(interface{ NeedsLayout() bool }); ok {
		return getter.NeedsLayout()
	}
	return true
}

func (p *PipelineOwner) layoutNode(node RenderObject) {
	defer func() {
		if recovered := recover(); recovered != nil {
			errors.ReportRenderError(&errors.RenderError{
				Phase:     "layout",
				Node:      describeNode(node),
				Recovered: recovered,
			})
			if setter, ok := node.(interface{ SetSize(graphics.Size) }); ok {
				setter.SetSize(graphics.Size{})
			}
		}
	}()
	constraints := Constraints{}
	if getter, ok := node.(interface{ Constraints() Constraints }); ok {
		constraints = getter.Constraints()
	}
	node.Layout(constraints, false)
}

// FlushCompositingBits recomputes the needsCompositing flag for every
// scheduled subtree, shallowest first. Recomputation is bottom-up within
// each subtree: a node's flag derives from its children's.
func (p *PipelineOwner) FlushCompositingBits() {
	if len(p.nodesNeedingCompositing) == 0 {
		return
	}
	dirty := p.nodesNeedingCompositing
	p.nodesNeedingCompositing = nil
	p.nodesNeedingCompositingSet = make(map[RenderObject]bool)
	sort.SliceStable(dirty, func(i, j int) bool {
		return getDepth(dirty[i]) < getDepth(dirty[j])
	})
	for _, node := range dirty {
		if updater, ok := node.(compositingUpdater); ok {
			updater.UpdateCompositingBits()
		}
	}
}

// FlushPaint re-records the display list of every dirty repaint boundary,
// deepest first. When a parent boundary then paints and reaches a child
// boundary, the child's layer is already current, so the parent records a
// reference to the layer rather than the child's content.
//
// A panic inside a node's paint is contained: the failure is reported, the
// boundary keeps its previous content, and the dirty bit stays cleared.
func (p *PipelineOwner) FlushPaint() {
	if len(p.nodesNeedingPaint) == 0 {
		return
	}
	dirty := p.nodesNeedingPaint
	p.nodesNeedingPaint = nil
	p.nodesNeedingPaintSet = make(map[RenderObject]bool)
	sort.SliceStable(dirty, func(i, j int) bool {
		return getDepth(dirty[i]) > getDepth(dirty[j])
	})
	for _, node := range dirty {
		if nodeNeedsLayout(node) {
			// Layout never completed for this subtree; skip rather than
			// paint stale geometry. Clear the flag so we do not spin.
			clearNeedsPaint(node)
			continue
		}
		p.paintBoundary(node)
	}
}

func clearNeedsPaint(node RenderObject) {
	if c, ok := node.(interface{ ClearNeedsPaint() }); ok {
		c.ClearNeedsPaint()
	}
}

func (p *PipelineOwner) paintBoundary(node RenderObject) {
	clearNeedsPaint(node)
	defer func() {
		if recovered := recover(); recovered != nil {
			errors.ReportRenderError(&errors.RenderError{
				Phase:     "paint",
				Node:      describeNode(node),
				Recovered: recovered,
			})
		}
	}()

	layerNode, ok := node.(interface{ EnsureLayer() *graphics.Layer })
	if !ok {
		return
	}
	layer := layerNode.EnsureLayer()
	layer.Size = node.Size()

	recorder := &graphics.PictureRecorder{}
	canvas := recorder.BeginRecording(node.Size())
	ctx := &PaintContext{canvas: canvas, recorder: recorder}
	node.Paint(ctx)
	layer.SetContent(recorder.EndRecording())
}

func describeNode(node RenderObject) string {
	if d, ok := node.(interface{ Describe() string }); ok {
		return d.Describe()
	}
	return "RenderObject"
}
