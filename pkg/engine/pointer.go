package engine

import (
	"time"

	"github.com/go-fresco/fresco/pkg/errors"
	"github.com/go-fresco/fresco/pkg/graphics"
	"github.com/go-fresco/fresco/pkg/layout"
)

// PointerPhase identifies the stage of a pointer interaction.
type PointerPhase int

const (
	PointerPhaseDown PointerPhase = iota
	PointerPhaseMove
	PointerPhaseUp
	PointerPhaseCancel
	PointerPhaseHover
)

// PointerEvent is a pointer input delivered by the embedder in logical
// coordinates.
type PointerEvent struct {
	PointerID int64
	Phase     PointerPhase
	Position  graphics.Offset
	Delta     graphics.Offset
	TimeStamp time.Duration
}

// PointerTarget receives pointer events routed by the binding.
type PointerTarget interface {
	HandlePointer(event PointerEvent)
}

// HandlePointer routes a pointer event through the attached views.
//
// The hit test runs once, on the down event; the resulting route is cached
// and reused for subsequent move and up events of the same pointer, so a
// drag keeps delivering to the targets it started on even when they move
// out from under the pointer. Hover events re-route every time and feed
// the mouse tracker instead of the cached route.
//
// A panicking target is isolated per event: the panic is reported and the
// remaining events still dispatch.
func (b *RendererBinding) HandlePointer(event PointerEvent) {
	defer func() {
		if r := recover(); r != nil {
			errors.ReportPanic(&errors.PanicError{
				Op:         "engine.HandlePointer",
				Value:      r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
		}
	}()

	if event.Phase == PointerPhaseHover {
		b.mouse.handleHover(event.Position)
		return
	}

	if last, ok := b.pointerPositions[event.PointerID]; ok && event.Phase != PointerPhaseDown {
		event.Delta = event.Position.Sub(last)
	}
	b.pointerPositions[event.PointerID] = event.Position

	var targets []PointerTarget
	switch event.Phase {
	case PointerPhaseDown:
		result := &layout.HitTestResult{}
		if b.hitTestViews(event.Position, result) {
			targets = collectPointerTargets(result.Path())
		}
		if len(targets) > 0 {
			b.pointerRoutes[event.PointerID] = targets
		}
	default:
		targets = b.pointerRoutes[event.PointerID]
	}

	if event.Phase == PointerPhaseUp || event.Phase == PointerPhaseCancel {
		delete(b.pointerRoutes, event.PointerID)
		delete(b.pointerPositions, event.PointerID)
	}

	for _, target := range targets {
		target.HandlePointer(event)
	}
}

// hitTestViews runs the hit test against attached views in order, stopping
// at the first view that claims the position.
func (b *RendererBinding) hitTestViews(position graphics.Offset, result *layout.HitTestResult) bool {
	for _, view := range b.views {
		if view.HitTest(position, result) {
			return true
		}
	}
	return false
}

// collectPointerTargets extracts the pointer targets from a hit path,
// deepest first, dropping duplicates.
func collectPointerTargets(entries []layout.HitTestEntry) []PointerTarget {
	targets := make([]PointerTarget, 0, len(entries))
	seen := make(map[PointerTarget]struct{})
	for _, entry := range entries {
		target, ok := entry.Target.(PointerTarget)
		if !ok {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	return targets
}
