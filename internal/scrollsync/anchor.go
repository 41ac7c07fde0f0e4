package scrollsync

// Anchor is a rendered block carrying the source line it came from.
type Anchor struct {
	Line   int     `json:"line"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Alignment positions a block inside the viewport.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
)

// ScrollOptions controls ScrollIntoView.
type ScrollOptions struct {
	Block  Alignment
	Smooth bool
}

// Preview is the rendered pane. Anchors are in document order.
type Preview interface {
	Pane
	Anchors() []Anchor
	ScrollIntoView(index int, opts ScrollOptions)
}

// NearestAnchor returns the index of the line closest to target. On ties the
// earliest index wins. It reports false for an empty set or NoLine.
func NearestAnchor(lines []int, target int) (int, bool) {
	if len(lines) == 0 || target == NoLine {
		return 0, false
	}
	best, bestDist := 0, distance(lines[0], target)
	for i := 1; i < len(lines); i++ {
		if d := distance(lines[i], target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, true
}

// AnchorLines extracts the source lines of anchors.
func AnchorLines(anchors []Anchor) []int {
	lines := make([]int, len(anchors))
	for i, a := range anchors {
		lines[i] = a.Line
	}
	return lines
}

// LineAt returns the source line of the last anchor starting at or above
// top, or NoLine when top is above every anchor.
func LineAt(anchors []Anchor, top float64) int {
	line := NoLine
	for _, a := range anchors {
		if a.Top > top {
			break
		}
		line = a.Line
	}
	return line
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
