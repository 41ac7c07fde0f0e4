// Package scrollsync keeps a source editor and its rendered preview aligned.
//
// Two modes are supported. Percentage mode maps one pane's relative scroll
// position onto the other and works in both directions. Anchor mode scrolls
// the preview to the block whose source line is nearest to an editor line.
package scrollsync

import (
	"math"

	"github.com/dgallion1/notedit/internal/doctree"
)

// NoLine marks the absence of a source line.
const NoLine = -1

// Geometry is the scroll geometry of a pane, in pixels.
type Geometry struct {
	ScrollTop    float64 `json:"scroll_top"`
	ScrollHeight float64 `json:"scroll_height"`
	ClientHeight float64 `json:"client_height"`
}

// Range is the maximum scroll offset. It is zero or negative when the
// content fits.
func (g Geometry) Range() float64 {
	return g.ScrollHeight - g.ClientHeight
}

// Percentage returns the relative scroll position clamped to [0,1]. A pane
// whose content fits reports 0.
func (g Geometry) Percentage() float64 {
	r := g.Range()
	if r <= 0 || math.IsNaN(r) {
		return 0
	}
	return clamp(g.ScrollTop/r, 0, 1)
}

// Pane is a scrollable surface.
type Pane interface {
	Geometry() Geometry
	SetScrollTop(top float64)
}

// ScrollInfo reports the pane's current position.
func ScrollInfo(p Pane) doctree.ScrollState {
	g := p.Geometry()
	return doctree.ScrollState{ScrollTop: g.ScrollTop, ScrollPercentage: g.Percentage()}
}

// scrollEpsilon absorbs floating-point error when a percentage is mapped
// back onto the pane it was read from.
const scrollEpsilon = 1e-6

// ScrollToPercentage moves p to pct of its range and reports whether it
// moved. A pane already at the target is not touched, so a mirrored sync
// fires no further scroll event.
func ScrollToPercentage(p Pane, pct float64) bool {
	g := p.Geometry()
	target := TopForPercentage(g, pct)
	if math.Abs(target-g.ScrollTop) <= scrollEpsilon {
		return false
	}
	p.SetScrollTop(target)
	return true
}

// TopForPercentage returns the scroll offset at pct of g's range.
func TopForPercentage(g Geometry, pct float64) float64 {
	r := g.Range()
	if r <= 0 || math.IsNaN(pct) {
		return 0
	}
	return clamp(pct, 0, 1) * r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
