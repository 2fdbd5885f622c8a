package engine

import (
	"github.com/go-fresco/fresco/pkg/graphics"
	"github.com/go-fresco/fresco/pkg/layout"
)

// HoverTarget receives mouse enter/exit notifications from the tracker.
type HoverTarget interface {
	HandleMouseEnter()
	HandleMouseExit()
}

// MouseTracker tracks which render objects the mouse is hovering.
//
// Hover state is re-evaluated in two situations: when a hover event moves
// the pointer, and in a post-frame callback after each drawn frame, since
// layout or paint can move content under a stationary mouse.
type MouseTracker struct {
	binding *RendererBinding

	position   graphics.Offset
	hasPointer bool
	hovered    map[HoverTarget]struct{}
}

// NewMouseTracker creates a tracker bound to the given binding.
func NewMouseTracker(binding *RendererBinding) *MouseTracker {
	return &MouseTracker{
		binding: binding,
		hovered: make(map[HoverTarget]struct{}),
	}
}

func (m *MouseTracker) hasPosition() bool {
	return m.hasPointer
}

// handleHover records the new mouse position and re-evaluates hover state.
func (m *MouseTracker) handleHover(position graphics.Offset) {
	m.position = position
	m.hasPointer = true
	m.refresh()
}

// ClearPointer forgets the mouse position, exiting every hovered target.
// Call when the mouse leaves the window.
func (m *MouseTracker) ClearPointer() {
	m.hasPointer = false
	for target := range m.hovered {
		target.HandleMouseExit()
	}
	clear(m.hovered)
}

// refresh re-runs the hit test at the last known position and delivers
// exit notifications before enter notifications.
func (m *MouseTracker) refresh() {
	if !m.hasPointer {
		return
	}

	result := &layout.HitTestResult{}
	m.binding.hitTestViews(m.position, result)

	next := make(map[HoverTarget]struct{})
	var entered []HoverTarget
	for _, entry := range result.Path() {
		target, ok := entry.Target.(HoverTarget)
		if !ok {
			continue
		}
		next[target] = struct{}{}
		if _, was := m.hovered[target]; !was {
			entered = append(entered, target)
		}
	}

	for target := range m.hovered {
		if _, still := next[target]; !still {
			target.HandleMouseExit()
		}
	}
	for _, target := range entered {
		target.HandleMouseEnter()
	}
	m.hovered = next
}
