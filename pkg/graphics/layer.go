package graphics

// Layer holds the recorded content of a repaint boundary.
//
// A layer has stable identity: parent boundaries reference child layers via
// DrawChildLayer ops, so the pointer must never be replaced, only its content
// swapped. Re-recording a boundary updates Content in place; ancestors keep
// compositing the fresh content without re-recording themselves.
type Layer struct {
	// Dirty is true when the layer's content is stale and must be re-recorded
	// before the next composite.
	Dirty bool

	// Size is the logical size of the layer's content.
	Size Size

	// Content is the recorded display list, nil until first recording.
	Content *DisplayList
}

// MarkDirty flags the layer's content as stale.
func (l *Layer) MarkDirty() {
	l.Dirty = true
}

// SetContent replaces the layer's content and clears the dirty flag.
func (l *Layer) SetContent(content *DisplayList) {
	l.Content = content
	l.Dirty = false
}

// Composite replays the layer's content onto the canvas.
func (l *Layer) Composite(canvas Canvas) {
	if l.Content == nil {
		return
	}
	l.Content.Replay(canvas)
}

// Dispose releases the layer's content. The layer must not be composited
// after disposal.
func (l *Layer) Dispose() {
	l.Content = nil
	l.Dirty = false
}

// LayerTree is an immutable snapshot of a frame's root layer, handed off to
// the rasterizer after the paint phase completes.
//
// The consuming thread must treat the tree as read-only: it composites the
// referenced layers but never mutates them. The UI thread only touches layer
// content between frames, after the rasterizer releases the previous tree.
type LayerTree struct {
	root  *Layer
	size  Size
	scale float64
}

// NewLayerTree captures a snapshot of the root layer for presentation.
func NewLayerTree(root *Layer, size Size, scale float64) *LayerTree {
	return &LayerTree{root: root, size: size, scale: scale}
}

// Size returns the logical size of the frame.
func (t *LayerTree) Size() Size {
	return t.size
}

// Raster composites the tree onto the provided canvas at device scale.
func (t *LayerTree) Raster(canvas Canvas) {
	if t.root == nil {
		return
	}
	canvas.Save()
	if t.scale != 0 && t.scale != 1 {
		canvas.Scale(t.scale, t.scale)
	}
	t.root.Composite(canvas)
	canvas.Restore()
	canvas.Flush()
}
