package animation

type futureState int

const (
	futurePending futureState = iota
	futureCompleted
	futureCanceled
)

// TickerFuture represents the eventual completion of a ticker's activity.
//
// The future completes when the ticker is stopped without cancellation.
// Cancellation (Stop(true), Dispose, AbsorbTicker of the source) never
// completes the future: Done never fires and WhenComplete callbacks never
// run. Code that must observe cancellation uses OrCanceled or
// WhenCompleteOrCancel.
//
// TickerFuture is confined to the UI thread, except Done, whose returned
// channel may be received from any goroutine.
type TickerFuture struct {
	state       futureState
	done        chan struct{}
	completeFns []func()
	cancelFns   []func()
}

func newTickerFuture() *TickerFuture {
	return &TickerFuture{done: make(chan struct{})}
}

// Done returns a channel closed when the future completes. The channel is
// never closed for a canceled future.
func (f *TickerFuture) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the future has completed.
func (f *TickerFuture) IsComplete() bool {
	return f.state == futureCompleted
}

// IsCanceled reports whether the future was canceled.
func (f *TickerFuture) IsCanceled() bool {
	return f.state == futureCanceled
}

// WhenComplete registers fn to run when the future completes. If the future
// is already complete, fn runs immediately. Canceled futures never invoke it.
func (f *TickerFuture) WhenComplete(fn func()) {
	if fn == nil {
		return
	}
	switch f.state {
	case futureCompleted:
		fn()
	case futurePending:
		f.completeFns = append(f.completeFns, fn)
	}
}

// OrCanceled registers fn to run if the future is canceled. This is the
// derived observer for cancellation; the future itself stays unresolved.
func (f *TickerFuture) OrCanceled(fn func()) {
	if fn == nil {
		return
	}
	switch f.state {
	case futureCanceled:
		fn()
	case futurePending:
		f.cancelFns = append(f.cancelFns, fn)
	}
}

// WhenCompleteOrCancel registers fn to run on either outcome, with canceled
// reporting which one occurred.
func (f *TickerFuture) WhenCompleteOrCancel(fn func(canceled bool)) {
	f.WhenComplete(func() { fn(false) })
	f.OrCanceled(func() { fn(true) })
}

func (f *TickerFuture) complete() {
	if f.state != futurePending {
		return
	}
	f.state = futureCompleted
	close(f.done)
	fns := f.completeFns
	f.completeFns = nil
	f.cancelFns = nil
	for _, fn := range fns {
		fn()
	}
}

func (f *TickerFuture) cancel() {
	if f.state != futurePending {
		return
	}
	f.state = futureCanceled
	fns := f.cancelFns
	f.completeFns = nil
	f.cancelFns = nil
	for _, fn := range fns {
		fn()
	}
}
