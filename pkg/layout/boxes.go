package layout

import (
	"math"

	"github.com/go-fresco/fresco/pkg/graphics"
)

// singleChildBase holds the one child of a box render object.
type singleChildBase struct {
	RenderBoxBase
	child RenderObject
}

// Child returns the single child, or nil.
func (r *singleChildBase) Child() RenderObject {
	return r.child
}

// SetChild replaces the single child.
func (r *singleChildBase) SetChild(child RenderObject) {
	if r.child == child {
		return
	}
	if r.child != nil {
		SetParentOnChild(r.child, nil)
	}
	r.child = child
	if child != nil {
		child.SetOwner(r.Owner())
		SetParentOnChild(child, r.Self())
	}
	r.MarkNeedsLayout()
}

// VisitChildren calls the visitor for the child, if any.
func (r *singleChildBase) VisitChildren(visitor func(RenderObject)) {
	if r.child != nil {
		visitor(r.child)
	}
}

// RenderConstrainedBox imposes additional constraints on its child.
// Without a child it sizes itself to the smallest size the combined
// constraints allow.
type RenderConstrainedBox struct {
	singleChildBase
	additional Constraints
}

// NewRenderConstrainedBox creates a constrained box with the given
// additional constraints.
func NewRenderConstrainedBox(additional Constraints) *RenderConstrainedBox {
	b := &RenderConstrainedBox{additional: additional}
	b.SetSelf(b)
	return b
}

// AdditionalConstraints returns the extra constraints applied to the child.
func (r *RenderConstrainedBox) AdditionalConstraints() Constraints {
	return r.additional
}

// SetAdditionalConstraints updates the extra constraints.
func (r *RenderConstrainedBox) SetAdditionalConstraints(additional Constraints) {
	if r.additional == additional {
		return
	}
	r.additional = additional
	r.MarkNeedsLayout()
}

func (r *RenderConstrainedBox) PerformLayout() {
	constraints := r.Constraints()
	inner := r.additional.Enforce(constraints)
	if r.child != nil {
		r.child.Layout(inner, true)
		r.child.SetParentData(&BoxParentData{})
		r.SetSize(constraints.Constrain(r.child.Size()))
		return
	}
	r.SetSize(inner.Smallest())
}

func (r *RenderConstrainedBox) Paint(ctx *PaintContext) {
	if r.child != nil {
		ctx.PaintChild(r.child, graphics.Offset{})
	}
}

func (r *RenderConstrainedBox) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if !r.HitTestSelf(position) {
		return false
	}
	if r.HitTestChildren(position, result) {
		return true
	}
	result.Add(r)
	return true
}

// EdgeInsets describes padding on each side of a box.
type EdgeInsets struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// EdgeInsetsAll returns uniform insets on all four sides.
func EdgeInsetsAll(value float64) EdgeInsets {
	return EdgeInsets{Left: value, Top: value, Right: value, Bottom: value}
}

// Horizontal returns the total horizontal inset.
func (e EdgeInsets) Horizontal() float64 {
	return e.Left + e.Right
}

// Vertical returns the total vertical inset.
func (e EdgeInsets) Vertical() float64 {
	return e.Top + e.Bottom
}

// RenderPadding insets its child by the given edge insets.
type RenderPadding struct {
	singleChildBase
	padding EdgeInsets
}

// NewRenderPadding creates a padding box.
func NewRenderPadding(padding EdgeInsets) *RenderPadding {
	b := &RenderPadding{padding: padding}
	b.SetSelf(b)
	return b
}

// Padding returns the current insets.
func (r *RenderPadding) Padding() EdgeInsets {
	return r.padding
}

// SetPadding updates the insets.
func (r *RenderPadding) SetPadding(padding EdgeInsets) {
	if r.padding == padding {
		return
	}
	r.padding = padding
	r.MarkNeedsLayout()
}

func (r *RenderPadding) PerformLayout() {
	constraints := r.Constraints()
	if r.child == nil {
		r.SetSize(constraints.Constrain(graphics.Size{
			Width:  r.padding.Horizontal(),
			Height: r.padding.Vertical(),
		}))
		return
	}
	inner := constraints.Deflate(r.padding.Horizontal(), r.padding.Vertical())
	r.child.Layout(inner, true)
	r.child.SetParentData(&BoxParentData{Offset: graphics.Offset{X: r.padding.Left, Y: r.padding.Top}})
	childSize := r.child.Size()
	r.SetSize(constraints.Constrain(graphics.Size{
		Width:  childSize.Width + r.padding.Horizontal(),
		Height: childSize.Height + r.padding.Vertical(),
	}))
}

func (r *RenderPadding) Paint(ctx *PaintContext) {
	if r.child != nil {
		ctx.PaintChild(r.child, ChildOffset(r.child))
	}
}

func (r *RenderPadding) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if !r.HitTestSelf(position) {
		return false
	}
	if r.HitTestChildren(position, result) {
		return true
	}
	result.Add(r)
	return true
}

// RenderColoredBox fills its bounds with a solid color, then paints its
// child on top.
type RenderColoredBox struct {
	singleChildBase
	color graphics.Color
}

// NewRenderColoredBox creates a colored box.
func NewRenderColoredBox(color graphics.Color) *RenderColoredBox {
	b := &RenderColoredBox{color: color}
	b.SetSelf(b)
	return b
}

// Color returns the fill color.
func (r *RenderColoredBox) Color() graphics.Color {
	return r.color
}

// SetColor updates the fill color. Color changes affect paint only.
func (r *RenderColoredBox) SetColor(color graphics.Color) {
	if r.color == color {
		return
	}
	r.color = color
	r.MarkNeedsPaint()
}

func (r *RenderColoredBox) PerformLayout() {
	constraints := r.Constraints()
	if r.child != nil {
		r.child.Layout(constraints.Loosen(), true)
		r.child.SetParentData(&BoxParentData{})
		r.SetSize(constraints.Constrain(r.child.Size()))
		return
	}
	r.SetSize(constraints.Biggest())
}

func (r *RenderColoredBox) Paint(ctx *PaintContext) {
	size := r.Size()
	if !size.IsEmpty() {
		ctx.Canvas().DrawRect(graphics.RectFromLTWH(0, 0, size.Width, size.Height), graphics.FillPaint(r.color))
	}
	if r.child != nil {
		ctx.PaintChild(r.child, graphics.Offset{})
	}
}

func (r *RenderColoredBox) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if !r.HitTestSelf(position) {
		return false
	}
	if r.HitTestChildren(position, result) {
		return true
	}
	result.Add(r)
	return true
}

// RenderParagraph draws a measured block of text. The paragraph is laid out
// against the incoming max width, so text re-wraps when constraints change.
type RenderParagraph struct {
	RenderBoxBase
	text      string
	style     graphics.TextStyle
	paragraph *graphics.Paragraph
}

// NewRenderParagraph creates a text box.
func NewRenderParagraph(text string, style graphics.TextStyle) *RenderParagraph {
	p := &RenderParagraph{text: text, style: style}
	p.SetSelf(p)
	return p
}

// Text returns the current text.
func (r *RenderParagraph) Text() string {
	return r.text
}

// SetText replaces the text. Measurement depends on content, so this
// invalidates layout.
func (r *RenderParagraph) SetText(text string) {
	if r.text == text {
		return
	}
	r.text = text
	r.MarkNeedsLayout()
}

// SetStyle replaces the text style. Font size affects measurement.
func (r *RenderParagraph) SetStyle(style graphics.TextStyle) {
	if r.style == style {
		return
	}
	r.style = style
	r.MarkNeedsLayout()
}

// Paragraph returns the paragraph measured during the last layout.
func (r *RenderParagraph) Paragraph() *graphics.Paragraph {
	return r.paragraph
}

func (r *RenderParagraph) PerformLayout() {
	constraints := r.Constraints()
	maxWidth := constraints.MaxWidth
	if math.IsInf(maxWidth, 1) || maxWidth == math.MaxFloat64 {
		maxWidth = 0
	}
	r.paragraph = graphics.NewParagraph(r.text, r.style, maxWidth)
	r.SetSize(constraints.Constrain(r.paragraph.Size()))
}

func (r *RenderParagraph) Paint(ctx *PaintContext) {
	if r.paragraph != nil {
		ctx.Canvas().DrawParagraph(r.paragraph, graphics.Offset{})
	}
}

func (r *RenderParagraph) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if !r.HitTestSelf(position) {
		return false
	}
	result.Add(r)
	return true
}

// RenderRepaintBoundary isolates its child's painting into a separate layer.
// Paint changes below it never invalidate ancestors; paint changes above it
// never re-record its subtree.
type RenderRepaintBoundary struct {
	singleChildBase
}

// NewRenderRepaintBoundary creates a repaint boundary.
func NewRenderRepaintBoundary() *RenderRepaintBoundary {
	b := &RenderRepaintBoundary{}
	b.SetSelf(b)
	return b
}

func (r *RenderRepaintBoundary) IsRepaintBoundary() bool {
	return true
}

func (r *RenderRepaintBoundary) PerformLayout() {
	constraints := r.Constraints()
	if r.child != nil {
		r.child.Layout(constraints, true)
		r.child.SetParentData(&BoxParentData{})
		r.SetSize(r.child.Size())
		return
	}
	r.SetSize(constraints.Smallest())
}

func (r *RenderRepaintBoundary) Paint(ctx *PaintContext) {
	if r.child != nil {
		ctx.PaintChild(r.child, graphics.Offset{})
	}
}

func (r *RenderRepaintBoundary) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if !r.HitTestSelf(position) {
		return false
	}
	if r.HitTestChildren(position, result) {
		return true
	}
	result.Add(r)
	return true
}

// FlexDirection selects the main axis of a RenderFlex.
type FlexDirection int

const (
	FlexHorizontal FlexDirection = iota
	FlexVertical
)

// FlexChild reports the flex factor for a render box.
type FlexChild interface {
	FlexFactor() int
}

// RenderFlex lays out children along one axis. Children with a flex factor
// share the remaining main-axis space proportionally; the rest are laid out
// loose and keep their natural size.
type RenderFlex struct {
	RenderBoxBase
	children  []RenderObject
	direction FlexDirection
}

// NewRenderFlex creates a flex container with the given main axis.
func NewRenderFlex(direction FlexDirection) *RenderFlex {
	f := &RenderFlex{direction: direction}
	f.SetSelf(f)
	return f
}

// Direction returns the main axis.
func (r *RenderFlex) Direction() FlexDirection {
	return r.direction
}

// SetDirection updates the main axis.
func (r *RenderFlex) SetDirection(direction FlexDirection) {
	if r.direction == direction {
		return
	}
	r.direction = direction
	r.MarkNeedsLayout()
}

// Children returns the current child list.
func (r *RenderFlex) Children() []RenderObject {
	return r.children
}

// SetChildren replaces the child list.
func (r *RenderFlex) SetChildren(children []RenderObject) {
	for _, child := range r.children {
		SetParentOnChild(child, nil)
	}
	r.children = r.children[:0]
	for _, child := range children {
		r.children = append(r.children, child)
		child.SetOwner(r.Owner())
		SetParentOnChild(child, r)
	}
	r.MarkNeedsLayout()
}

// InsertChild adds a child at the given index.
func (r *RenderFlex) InsertChild(index int, child RenderObject) {
	if index < 0 || index > len(r.children) {
		index = len(r.children)
	}
	r.children = append(r.children, nil)
	copy(r.children[index+1:], r.children[index:])
	r.children[index] = child
	child.SetOwner(r.Owner())
	SetParentOnChild(child, r)
	r.MarkNeedsLayout()
}

// RemoveChild detaches a child from the container.
func (r *RenderFlex) RemoveChild(child RenderObject) {
	for i, c := range r.children {
		if c == child {
			r.children = append(r.children[:i], r.children[i+1:]...)
			SetParentOnChild(child, nil)
			r.MarkNeedsLayout()
			return
		}
	}
}

// VisitChildren calls the visitor for each child in order.
func (r *RenderFlex) VisitChildren(visitor func(RenderObject)) {
	for _, child := range r.children {
		visitor(child)
	}
}

func (r *RenderFlex) mainAxis(size graphics.Size) float64 {
	if r.direction == FlexHorizontal {
		return size.Width
	}
	return size.Height
}

func (r *RenderFlex) crossAxis(size graphics.Size) float64 {
	if r.direction == FlexHorizontal {
		return size.Height
	}
	return size.Width
}

func (r *RenderFlex) makeSize(main, cross float64) graphics.Size {
	if r.direction == FlexHorizontal {
		return graphics.Size{Width: main, Height: cross}
	}
	return graphics.Size{Width: cross, Height: main}
}

func (r *RenderFlex) makeOffset(main, cross float64) graphics.Offset {
	if r.direction == FlexHorizontal {
		return graphics.Offset{X: main, Y: cross}
	}
	return graphics.Offset{X: cross, Y: main}
}

func (r *RenderFlex) flexConstraints(constraints Constraints, main float64) Constraints {
	if r.direction == FlexHorizontal {
		return Constraints{
			MinWidth:  main,
			MaxWidth:  main,
			MaxHeight: constraints.MaxHeight,
		}
	}
	return Constraints{
		MaxWidth:  constraints.MaxWidth,
		MinHeight: main,
		MaxHeight: main,
	}
}

func (r *RenderFlex) PerformLayout() {
	constraints := r.Constraints()
	maxMain := r.mainAxis(constraints.Biggest())

	mainSize := 0.0
	crossSize := 0.0
	totalFlex := 0
	var flexChildren []RenderObject
	var flexFactors []int

	for _, child := range r.children {
		if factor := flexFactor(child); factor > 0 && maxMain != math.MaxFloat64 {
			flexChildren = append(flexChildren, child)
			flexFactors = append(flexFactors, factor)
			totalFlex += factor
			continue
		}
		child.Layout(Loose(constraints.Biggest()), true)
		childSize := child.Size()
		mainSize += r.mainAxis(childSize)
		crossSize = math.Max(crossSize, r.crossAxis(childSize))
	}

	remaining := math.Max(maxMain-mainSize, 0)
	for i, child := range flexChildren {
		allocated := remaining * float64(flexFactors[i]) / float64(totalFlex)
		child.Layout(r.flexConstraints(constraints, allocated), true)
		childSize := child.Size()
		mainSize += r.mainAxis(childSize)
		crossSize = math.Max(crossSize, r.crossAxis(childSize))
	}

	finalMain := mainSize
	if totalFlex > 0 {
		finalMain = maxMain
	}
	r.SetSize(constraints.Constrain(r.makeSize(finalMain, crossSize)))

	cursor := 0.0
	for _, child := range r.children {
		child.SetParentData(&BoxParentData{Offset: r.makeOffset(cursor, 0)})
		cursor += r.mainAxis(child.Size())
	}
}

func flexFactor(child RenderObject) int {
	if flexible, ok := child.(FlexChild); ok {
		return flexible.FlexFactor()
	}
	return 0
}

func (r *RenderFlex) Paint(ctx *PaintContext) {
	for _, child := range r.children {
		ctx.PaintChild(child, ChildOffset(child))
	}
}

func (r *RenderFlex) HitTest(position graphics.Offset, result *HitTestResult) bool {
	if !r.HitTestSelf(position) {
		return false
	}
	if r.HitTestChildren(position, result) {
		return true
	}
	result.Add(r)
	return true
}
