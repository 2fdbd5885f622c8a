package graphics

import "image"

// DisplayList is an immutable list of drawing operations.
// It can be replayed onto any Canvas implementation.
type DisplayList struct {
	ops  []displayOp
	size Size
}

// Replay replays the recorded operations onto the provided canvas.
func (d *DisplayList) Replay(canvas Canvas) {
	for _, op := range d.ops {
		op.execute(canvas)
	}
}

// Size returns the size recorded when the display list was created.
func (d *DisplayList) Size() Size {
	return d.size
}

// OpCount returns the number of recorded operations.
func (d *DisplayList) OpCount() int {
	return len(d.ops)
}

// PictureRecorder records drawing commands into a display list.
type PictureRecorder struct {
	ops       []displayOp
	recording bool
	size      Size
}

// BeginRecording starts a new recording session.
func (r *PictureRecorder) BeginRecording(size Size) Canvas {
	r.ops = r.ops[:0]
	r.recording = true
	r.size = size
	return &recordingCanvas{recorder: r}
}

// EndRecording finishes the recording and returns a display list.
func (r *PictureRecorder) EndRecording() *DisplayList {
	if !r.recording {
		return &DisplayList{size: r.size}
	}
	r.recording = false
	ops := make([]displayOp, len(r.ops))
	copy(ops, r.ops)
	return &DisplayList{
		ops:  ops,
		size: r.size,
	}
}

// DrawChildLayer records a reference to a child repaint boundary's layer at
// the given offset. When the display list is replayed during compositing, the
// child layer's current content is composited at the recorded position. The
// reference is stable: re-recording the child layer does not invalidate
// display lists that point at it.
func (r *PictureRecorder) DrawChildLayer(layer *Layer, offset Offset) {
	r.append(opDrawChildLayer{layer: layer, offset: offset})
}

func (r *PictureRecorder) append(op displayOp) {
	if !r.recording {
		return
	}
	r.ops = append(r.ops, op)
}

type displayOp interface {
	execute(canvas Canvas)
}

type recordingCanvas struct {
	recorder *PictureRecorder
}

func (c *recordingCanvas) Save() {
	c.recorder.append(opSave{})
}

func (c *recordingCanvas) SaveLayerAlpha(bounds Rect, alpha float64) {
	c.recorder.append(opSaveLayerAlpha{bounds: bounds, alpha: alpha})
}

func (c *recordingCanvas) Restore() {
	c.recorder.append(opRestore{})
}

func (c *recordingCanvas) Translate(dx, dy float64) {
	c.recorder.append(opTranslate{dx: dx, dy: dy})
}

func (c *recordingCanvas) Scale(sx, sy float64) {
	c.recorder.append(opScale{sx: sx, sy: sy})
}

func (c *recordingCanvas) Rotate(radians float64) {
	c.recorder.append(opRotate{radians: radians})
}

func (c *recordingCanvas) ClipRect(rect Rect) {
	c.recorder.append(opClipRect{rect: rect})
}

func (c *recordingCanvas) Clear(color Color) {
	c.recorder.append(opClear{color: color})
}

func (c *recordingCanvas) DrawRect(rect Rect, paint Paint) {
	c.recorder.append(opDrawRect{rect: rect, paint: paint})
}

func (c *recordingCanvas) DrawLine(start, end Offset, paint Paint) {
	c.recorder.append(opDrawLine{start: start, end: end, paint: paint})
}

func (c *recordingCanvas) DrawCircle(center Offset, radius float64, paint Paint) {
	c.recorder.append(opDrawCircle{center: center, radius: radius, paint: paint})
}

func (c *recordingCanvas) DrawParagraph(paragraph *Paragraph, position Offset) {
	c.recorder.append(opDrawParagraph{paragraph: paragraph, position: position})
}

func (c *recordingCanvas) DrawImage(img image.Image, position Offset) {
	c.recorder.append(opDrawImage{img: img, position: position})
}

func (c *recordingCanvas) Flush() {}

type opSave struct{}

func (opSave) execute(canvas Canvas) { canvas.Save() }

type opSaveLayerAlpha struct {
	bounds Rect
	alpha  float64
}

func (op opSaveLayerAlpha) execute(canvas Canvas) { canvas.SaveLayerAlpha(op.bounds, op.alpha) }

type opRestore struct{}

func (opRestore) execute(canvas Canvas) { canvas.Restore() }

type opTranslate struct {
	dx, dy float64
}

func (op opTranslate) execute(canvas Canvas) { canvas.Translate(op.dx, op.dy) }

type opScale struct {
	sx, sy float64
}

func (op opScale) execute(canvas Canvas) { canvas.Scale(op.sx, op.sy) }

type opRotate struct {
	radians float64
}

func (op opRotate) execute(canvas Canvas) { canvas.Rotate(op.radians) }

type opClipRect struct {
	rect Rect
}

func (op opClipRect) execute(canvas Canvas) { canvas.ClipRect(op.rect) }

type opClear struct {
	color Color
}

func (op opClear) execute(canvas Canvas) { canvas.Clear(op.color) }

type opDrawRect struct {
	rect  Rect
	paint Paint
}

func (op opDrawRect) execute(canvas Canvas) { canvas.DrawRect(op.rect, op.paint) }

type opDrawLine struct {
	start, end Offset
	paint      Paint
}

func (op opDrawLine) execute(canvas Canvas) { canvas.DrawLine(op.start, op.end, op.paint) }

type opDrawCircle struct {
	center Offset
	radius float64
	paint  Paint
}

func (op opDrawCircle) execute(canvas Canvas) { canvas.DrawCircle(op.center, op.radius, op.paint) }

type opDrawParagraph struct {
	paragraph *Paragraph
	position  Offset
}

func (op opDrawParagraph) execute(canvas Canvas) { canvas.DrawParagraph(op.paragraph, op.position) }

type opDrawImage struct {
	img      image.Image
	position Offset
}

func (op opDrawImage) execute(canvas Canvas) { canvas.DrawImage(op.img, op.position) }

type opDrawChildLayer struct {
	layer  *Layer
	offset Offset
}

func (op opDrawChildLayer) execute(canvas Canvas) {
	if op.layer == nil || op.layer.Content == nil {
		return
	}
	canvas.Save()
	canvas.Translate(op.offset.X, op.offset.Y)
	op.layer.Content.Replay(canvas)
	canvas.Restore()
}
