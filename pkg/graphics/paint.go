package graphics

// PaintStyle selects between filling and stroking.
type PaintStyle int

const (
	// PaintStyleFill fills the interior of shapes.
	PaintStyleFill PaintStyle = iota
	// PaintStyleStroke strokes the outline of shapes.
	PaintStyleStroke
)

// Paint describes how shapes are drawn: color, fill or stroke, and stroke width.
type Paint struct {
	Color       Color
	Style       PaintStyle
	StrokeWidth float64
}

// FillPaint returns a fill paint with the given color.
func FillPaint(color Color) Paint {
	return Paint{Color: color, Style: PaintStyleFill}
}

// StrokePaint returns a stroke paint with the given color and width.
func StrokePaint(color Color, width float64) Paint {
	return Paint{Color: color, Style: PaintStyleStroke, StrokeWidth: width}
}
