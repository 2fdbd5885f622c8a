// Package core provides the widget and element framework interfaces and lifecycle.
//
// Widget is an immutable description of part of the UI. Widgets are lightweight
// configuration objects that can be created frequently without performance
// concerns. Element is the instantiation of a Widget at a particular location
// in the tree; elements manage lifecycle and identity, and own the render
// objects that do layout and painting.
//
// Rebuilds are driven by the BuildOwner: elements marked dirty are rebuilt in
// depth order during the frame's build flush, and child lists are reconciled
// against the previous frame's elements so state survives reorders when
// widgets carry keys.
package core

import (
	"github.com/go-fresco/fresco/pkg/layout"
)

// Widget is an immutable description of part of the UI.
type Widget interface {
	// CreateElement instantiates the element that will manage this widget's
	// position in the tree.
	CreateElement() Element

	// Key identifies this widget among siblings during reconciliation.
	// Widgets with equal keys and equal types update in place; nil-keyed
	// widgets match by position.
	Key() any
}

// StatelessWidget builds a subtree purely from its own configuration.
type StatelessWidget interface {
	Widget
	Build(ctx BuildContext) Widget
}

// StatefulWidget creates mutable state that outlives widget rebuilds.
type StatefulWidget interface {
	Widget
	CreateState() State
}

// State holds mutable state for a StatefulWidget.
//
// Lifecycle: CreateState, InitState (once, after the element is wired up),
// Build (every rebuild), DidUpdateWidget (when a new widget of the same type
// updates the element in place), Dispose (once, on unmount).
type State interface {
	InitState()
	Build(ctx BuildContext) Widget
	DidUpdateWidget(oldWidget StatefulWidget)
	Dispose()
}

// Element is the instantiation of a Widget at a location in the tree.
type Element interface {
	// Mount attaches the element below parent at the given slot, creating
	// any state and render objects, and builds its children.
	Mount(parent Element, slot any)

	// Update replaces the element's widget with a new configuration of the
	// same type and key, and schedules a rebuild.
	Update(newWidget Widget)

	// Unmount permanently removes the element, its state, and its render
	// objects from the tree.
	Unmount()

	// RebuildIfNeeded rebuilds the element if it is dirty and mounted.
	RebuildIfNeeded()

	// MarkNeedsBuild schedules the element for rebuild in the next frame.
	MarkNeedsBuild()

	Widget() Widget
	Depth() int
	VisitChildren(visitor func(Element) bool)
}

// BuildContext is the interface widgets use to interact with their location
// in the tree during build.
type BuildContext interface {
	// FindAncestor walks up the element tree and returns the first ancestor
	// matching the predicate, or nil.
	FindAncestor(predicate func(Element) bool) Element
}

// RenderObjectProvider is implemented by elements that can surface a render
// object, either their own or their first descendant's.
type RenderObjectProvider interface {
	RenderObject() layout.RenderObject
}
