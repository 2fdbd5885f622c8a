package core

import "sync"

// StateBase carries the plumbing a State needs: the element backref for
// SetState, disposer bookkeeping, and no-op defaults for the optional
// lifecycle hooks. Embed it and override what the state actually uses:
//
//	type counterState struct {
//	    core.StateBase
//	    count int
//	}
//
//	func (s *counterState) Build(ctx core.BuildContext) core.Widget {
//	    ...
//	}
type StateBase struct {
	element   *StatefulElement
	disposers []func()
	disposed  bool
	mu        sync.Mutex
}

// SetElement wires the state to its element. The element calls this during
// mount; states never call it themselves.
func (s *StateBase) SetElement(element *StatefulElement) {
	s.element = element
}

// Element returns the owning element, or nil before mount or after dispose.
func (s *StateBase) Element() *StatefulElement {
	return s.element
}

// SetState runs fn and marks the element dirty so the next frame rebuilds
// it. After dispose it does nothing. UI thread only.
func (s *StateBase) SetState(fn func()) {
	if s.disposed {
		return
	}
	if fn != nil {
		fn()
	}
	if s.element != nil {
		s.element.MarkNeedsBuild()
	}
}

// OnDispose registers cleanup to run when the state is disposed, returning
// a func that unregisters it. Registering on an already-disposed state runs
// the cleanup immediately.
func (s *StateBase) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		cleanup()
		return func() {}
	}

	index := len(s.disposers)
	s.disposers = append(s.disposers, cleanup)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if index < len(s.disposers) {
			s.disposers[index] = nil
		}
	}
}

// RunDisposers marks the state disposed and runs the registered cleanups,
// newest first. Safe to call more than once.
func (s *StateBase) RunDisposers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true

	for i := len(s.disposers) - 1; i >= 0; i-- {
		if s.disposers[i] != nil {
			s.disposers[i]()
		}
	}
	s.disposers = nil
}

// Dispose implements State. An override that frees its own resources must
// still end in RunDisposers (or s.StateBase.Dispose).
func (s *StateBase) Dispose() {
	s.RunDisposers()
}

// InitState implements State with a no-op.
func (s *StateBase) InitState() {}

// Build implements State; embedders override it.
func (s *StateBase) Build(ctx BuildContext) Widget {
	return nil
}

// DidUpdateWidget implements State with a no-op.
func (s *StateBase) DidUpdateWidget(oldWidget StatefulWidget) {}

// IsDisposed reports whether Dispose has run.
func (s *StateBase) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
