package core

import (
	"github.com/go-fresco/fresco/pkg/layout"
)

// RenderObjectWidget creates a render object directly.
type RenderObjectWidget interface {
	Widget
	CreateRenderObject(ctx BuildContext) layout.RenderObject
	UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject)
}

// StatelessBase provides a default Key implementation for stateless widgets.
// Embed it in your widget struct and implement Build and CreateElement:
//
//	type Greeting struct {
//	    core.StatelessBase
//	    Name string
//	}
//
//	func (g Greeting) CreateElement() core.Element {
//	    return core.NewStatelessElement(g, nil)
//	}
type StatelessBase struct{}

// Key returns nil (no key).
func (StatelessBase) Key() any { return nil }

// StatefulBase provides a default Key implementation for stateful widgets.
type StatefulBase struct{}

// Key returns nil (no key).
func (StatefulBase) Key() any { return nil }

// RenderObjectBase provides a default Key implementation for render object
// widgets.
type RenderObjectBase struct{}

// Key returns nil (no key).
func (RenderObjectBase) Key() any { return nil }
