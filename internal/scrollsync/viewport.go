package scrollsync

import "sync"

// Viewport is an in-memory pane. It implements both Pane and Preview and
// clamps scroll offsets the way a browser does.
type Viewport struct {
	mu           sync.Mutex
	scrollTop    float64
	scrollHeight float64
	clientHeight float64
	anchors      []Anchor
	lastOpts     ScrollOptions
	onScroll     func()
}

func NewViewport(scrollHeight, clientHeight float64) *Viewport {
	return &Viewport{scrollHeight: scrollHeight, clientHeight: clientHeight}
}

// OnScroll registers fn to run after every change of the scroll offset,
// like a DOM scroll listener.
func (v *Viewport) OnScroll(fn func()) {
	v.mu.Lock()
	v.onScroll = fn
	v.mu.Unlock()
}

func (v *Viewport) Geometry() Geometry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Geometry{ScrollTop: v.scrollTop, ScrollHeight: v.scrollHeight, ClientHeight: v.clientHeight}
}

func (v *Viewport) SetScrollTop(top float64) {
	v.mu.Lock()
	top = clamp(top, 0, max(v.scrollHeight-v.clientHeight, 0))
	changed := top != v.scrollTop
	v.scrollTop = top
	fn := v.onScroll
	v.mu.Unlock()

	if changed && fn != nil {
		fn()
	}
}

// SetContent replaces the rendered blocks and the content height.
func (v *Viewport) SetContent(anchors []Anchor, scrollHeight float64) {
	v.mu.Lock()
	v.anchors = append([]Anchor(nil), anchors...)
	v.scrollHeight = scrollHeight
	v.mu.Unlock()
}

func (v *Viewport) Anchors() []Anchor {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Anchor(nil), v.anchors...)
}

// ScrollIntoView scrolls to anchors[index]. Smooth scrolling is applied
// instantly.
func (v *Viewport) ScrollIntoView(index int, opts ScrollOptions) {
	v.mu.Lock()
	if index < 0 || index >= len(v.anchors) {
		v.mu.Unlock()
		return
	}
	a := v.anchors[index]
	v.lastOpts = opts
	top := a.Top
	if opts.Block == AlignCenter {
		top = a.Top + a.Height/2 - v.clientHeight/2
	}
	v.mu.Unlock()

	v.SetScrollTop(top)
}

// LastScrollOptions returns the options of the latest ScrollIntoView.
func (v *Viewport) LastScrollOptions() ScrollOptions {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastOpts
}
