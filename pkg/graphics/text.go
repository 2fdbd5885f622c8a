package graphics

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// TextStyle describes how a paragraph is rendered.
type TextStyle struct {
	Color    Color
	FontSize float64
}

// Paragraph is a measured block of text, opaque to the pipeline core.
//
// Shaping here is intentionally minimal: a fixed-metrics face from
// x/image/font with greedy word wrapping. Embedders with a real text stack
// substitute their own measurement by drawing through a backend canvas; the
// pipeline only needs Size and the DrawParagraph op.
type Paragraph struct {
	Text  string
	Style TextStyle

	lines []string
	size  Size
}

// face is the measurement face for the built-in paragraph service.
var face font.Face = basicfont.Face7x13

// NewParagraph lays out text constrained to maxWidth logical pixels.
// A maxWidth of 0 or less means unconstrained.
func NewParagraph(text string, style TextStyle, maxWidth float64) *Paragraph {
	p := &Paragraph{Text: text, Style: style}
	p.layout(maxWidth)
	return p
}

func (p *Paragraph) layout(maxWidth float64) {
	scale := 1.0
	if p.Style.FontSize > 0 {
		scale = p.Style.FontSize / float64(face.Metrics().Height.Ceil())
	}
	lineHeight := float64(face.Metrics().Height.Ceil()) * scale

	var lines []string
	widest := 0.0
	for _, raw := range strings.Split(p.Text, "\n") {
		for _, line := range wrapLine(raw, maxWidth, scale) {
			lines = append(lines, line)
			if w := measure(line) * scale; w > widest {
				widest = w
			}
		}
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	p.lines = lines
	p.size = Size{Width: widest, Height: lineHeight * float64(len(lines))}
}

// Size returns the measured size of the paragraph.
func (p *Paragraph) Size() Size {
	return p.size
}

// Lines returns the wrapped lines of the paragraph.
func (p *Paragraph) Lines() []string {
	return p.lines
}

// measure returns the advance width of s in unscaled face units.
func measure(s string) float64 {
	return float64(font.MeasureString(face, s).Ceil())
}

// wrapLine splits a single line into wrapped lines fitting maxWidth.
func wrapLine(line string, maxWidth, scale float64) []string {
	if maxWidth <= 0 || measure(line)*scale <= maxWidth {
		return []string{line}
	}
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{line}
	}
	var out []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate)*scale > maxWidth {
			out = append(out, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(out, current)
}
