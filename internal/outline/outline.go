// Package outline extracts a navigable heading tree from markdown source.
package outline

import (
	"regexp"
	"strings"

	"github.com/dgallion1/notedit/internal/doctree"
	"github.com/dgallion1/notedit/internal/wikiref"
)

var (
	headingRe  = regexp.MustCompile(`^(#+)\s+(.*\S)\s*$`)
	breakRunRe = regexp.MustCompile(`^\s*(?:-\s*){3,}$|^\s*(?:\*\s*){3,}$|^\s*(?:_\s*){3,}$`)
)

// Extract scans text line by line and returns the heading forest.
// onActivate is stored on every node and called with the node's 1-based
// source line when the node is activated; it is never called here.
func Extract(text string, onActivate func(sourceLine int)) []*doctree.HeaderNode {
	type stackEntry struct {
		node  *doctree.HeaderNode
		level int
	}

	var roots []*doctree.HeaderNode
	var stack []stackEntry
	pendingSeparator := false
	seenHeader := false

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if IsThematicBreak(line) {
			pendingSeparator = true
			continue
		}

		level, label, ok := parseHeading(line)
		if !ok {
			continue
		}

		node := doctree.NewHeaderNode(label, i+1, onActivate)
		node.SeparatorBefore = pendingSeparator && seenHeader
		pendingSeparator = false
		seenHeader = true

		// Pop everything at the same depth or deeper.
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, stackEntry{node: node, level: level})
	}

	return roots
}

// IsThematicBreak reports whether line is a horizontal rule: three or more of
// the same character from -, * or _, optionally separated by whitespace.
func IsThematicBreak(line string) bool {
	return breakRunRe.MatchString(line)
}

// parseHeading returns the level and display label of an ATX heading line.
// Lines made only of '#' are not headings.
func parseHeading(line string) (int, string, bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	label := strings.TrimSpace(wikiref.Rewrite(m[2]))
	if label == "" {
		return 0, "", false
	}
	return len(m[1]), label, true
}

// Entry is a heading paired with its depth in the forest.
type Entry struct {
	Node  *doctree.HeaderNode
	Depth int
}

// Flatten lists the forest in document order.
func Flatten(forest []*doctree.HeaderNode) []Entry {
	var out []Entry
	var walk func(nodes []*doctree.HeaderNode, depth int)
	walk = func(nodes []*doctree.HeaderNode, depth int) {
		for _, n := range nodes {
			out = append(out, Entry{Node: n, Depth: depth})
			walk(n.Children, depth+1)
		}
	}
	walk(forest, 0)
	return out
}

// Find returns the heading whose source line is closest at or above line,
// or nil if line precedes every heading.
func Find(forest []*doctree.HeaderNode, line int) *doctree.HeaderNode {
	var found *doctree.HeaderNode
	for _, e := range Flatten(forest) {
		if e.Node.SourceLine > line {
			break
		}
		found = e.Node
	}
	return found
}
