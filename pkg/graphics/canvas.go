// Package graphics provides the renderer capability surface consumed by the
// frame pipeline: geometry primitives, a Canvas recording interface, display
// lists, and the layer types used for compositing.
//
// The pipeline core never talks to a concrete GPU backend. Painting records
// operations against the [Canvas] interface into a [DisplayList]; compositing
// replays display lists onto whatever Canvas the embedder provides.
package graphics

import "image"

// Canvas records or renders drawing commands.
//
// Implementations include the internal recording canvas returned by
// [PictureRecorder.BeginRecording] and embedder-provided canvases that
// rasterize to a surface.
type Canvas interface {
	// Save pushes the current transform and clip state.
	Save()

	// SaveLayerAlpha saves a new layer with the given opacity (0.0 to 1.0).
	// All drawing until the matching Restore call is composited with this
	// opacity.
	SaveLayerAlpha(bounds Rect, alpha float64)

	// Restore pops the most recent transform and clip state.
	Restore()

	// Translate moves the origin by the given offset.
	Translate(dx, dy float64)

	// Scale scales the coordinate system by the given factors.
	Scale(sx, sy float64)

	// Rotate rotates the coordinate system by radians.
	Rotate(radians float64)

	// ClipRect restricts future drawing to the given rectangle.
	ClipRect(rect Rect)

	// Clear fills the entire canvas with the given color.
	Clear(color Color)

	// DrawRect draws a rectangle with the provided paint.
	DrawRect(rect Rect, paint Paint)

	// DrawLine draws a line segment with the provided paint.
	DrawLine(start, end Offset, paint Paint)

	// DrawCircle draws a circle with the provided paint.
	DrawCircle(center Offset, radius float64, paint Paint)

	// DrawParagraph draws a laid-out paragraph at the given position.
	DrawParagraph(paragraph *Paragraph, position Offset)

	// DrawImage draws an image with its top-left corner at the given position.
	DrawImage(img image.Image, position Offset)

	// Flush submits any pending drawing to the underlying surface.
	// A no-op for recording canvases.
	Flush()
}
