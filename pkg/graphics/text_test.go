package graphics

import (
	"strings"
	"testing"
)

func TestParagraphSingleLineMeasurement(t *testing.T) {
	p := NewParagraph("hello", TextStyle{}, 0)

	if got := len(p.Lines()); got != 1 {
		t.Fatalf("line count = %d, want 1", got)
	}
	size := p.Size()
	if size.Width <= 0 || size.Height <= 0 {
		t.Fatalf("paragraph size = %v, want positive dimensions", size)
	}

	wider := NewParagraph("hello world", TextStyle{}, 0)
	if wider.Size().Width <= size.Width {
		t.Errorf("longer text measured %v, want wider than %v", wider.Size().Width, size.Width)
	}
	if wider.Size().Height != size.Height {
		t.Errorf("single-line heights differ: %v vs %v", wider.Size().Height, size.Height)
	}
}

func TestParagraphWrapsAtMaxWidth(t *testing.T) {
	text := "one two three four five six"
	unconstrained := NewParagraph(text, TextStyle{}, 0)
	wrapped := NewParagraph(text, TextStyle{}, unconstrained.Size().Width/2)

	if got := len(wrapped.Lines()); got < 2 {
		t.Fatalf("line count = %d, want wrapping into at least 2 lines", got)
	}
	if wrapped.Size().Width > unconstrained.Size().Width/2 {
		t.Errorf("wrapped width = %v, exceeds max width %v",
			wrapped.Size().Width, unconstrained.Size().Width/2)
	}
	if joined := strings.Join(wrapped.Lines(), " "); joined != text {
		t.Errorf("wrapping lost content: %q", joined)
	}
	if wrapped.Size().Height <= unconstrained.Size().Height {
		t.Error("wrapped paragraph should be taller than the unconstrained one")
	}
}

func TestParagraphHonorsExplicitNewlines(t *testing.T) {
	p := NewParagraph("first\nsecond\nthird", TextStyle{}, 0)
	if got := len(p.Lines()); got != 3 {
		t.Fatalf("line count = %d, want 3", got)
	}
}

func TestParagraphFontSizeScalesMeasurement(t *testing.T) {
	small := NewParagraph("scaling", TextStyle{FontSize: 13}, 0)
	large := NewParagraph("scaling", TextStyle{FontSize: 26}, 0)

	if large.Size().Width <= small.Size().Width {
		t.Errorf("width at 26px = %v, want larger than %v at 13px",
			large.Size().Width, small.Size().Width)
	}
	if large.Size().Height <= small.Size().Height {
		t.Errorf("height at 26px = %v, want larger than %v at 13px",
			large.Size().Height, small.Size().Height)
	}
}

func TestParagraphEmptyTextStillHasOneLine(t *testing.T) {
	p := NewParagraph("", TextStyle{}, 0)
	if got := len(p.Lines()); got != 1 {
		t.Fatalf("line count = %d, want 1", got)
	}
	if p.Size().Height <= 0 {
		t.Error("empty paragraph should keep one line of height")
	}
}

// paragraphCapture records replayed DrawParagraph calls.
type paragraphCapture struct {
	Canvas
	paragraphs []*Paragraph
	positions  []Offset
}

func (c *paragraphCapture) DrawParagraph(paragraph *Paragraph, position Offset) {
	c.paragraphs = append(c.paragraphs, paragraph)
	c.positions = append(c.positions, position)
}

func TestDisplayListReplaysDrawParagraph(t *testing.T) {
	p := NewParagraph("replayed", TextStyle{}, 0)
	var recorder PictureRecorder
	canvas := recorder.BeginRecording(Size{Width: 100, Height: 20})
	canvas.DrawParagraph(p, Offset{X: 4, Y: 8})
	list := recorder.EndRecording()

	capture := &paragraphCapture{}
	list.Replay(capture)

	if len(capture.paragraphs) != 1 || capture.paragraphs[0] != p {
		t.Fatalf("replayed paragraphs = %v, want the recorded one", capture.paragraphs)
	}
	if capture.positions[0] != (Offset{X: 4, Y: 8}) {
		t.Errorf("replayed position = %v, want (4, 8)", capture.positions[0])
	}
}
