package core

import (
	"github.com/go-fresco/fresco/pkg/layout"
)

// rootWidget adapts a render view plus an application widget into the
// RenderObjectWidget shape so the root of the element tree is an ordinary
// RenderObjectElement.
type rootWidget struct {
	view  *layout.RenderView
	child Widget
}

func (w rootWidget) CreateElement() Element {
	return NewRenderObjectElement(w, nil)
}

func (w rootWidget) Key() any {
	return nil
}

func (w rootWidget) ChildWidget() Widget {
	return w.child
}

func (w rootWidget) CreateRenderObject(ctx BuildContext) layout.RenderObject {
	return w.view
}

func (w rootWidget) UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject) {}

// MountRoot attaches the render view to the build owner's pipeline and mounts
// the application widget beneath it. The returned element stays valid for the
// life of the tree; pass it to UpdateRootWidget to swap the application.
func MountRoot(owner *BuildOwner, view *layout.RenderView, app Widget) Element {
	owner.Pipeline().SetRootNode(view)
	view.PrepareInitialFrame()

	element := NewRenderObjectElement(rootWidget{view: view, child: app}, owner)
	element.Mount(nil, nil)
	return element
}

// UpdateRootWidget replaces the application widget under a mounted root.
func UpdateRootWidget(root Element, app Widget) {
	element, ok := root.(*RenderObjectElement)
	if !ok {
		return
	}
	widget, ok := element.Widget().(rootWidget)
	if !ok {
		return
	}
	widget.child = app
	element.Update(widget)
}
