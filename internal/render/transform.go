package render

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/notedit/internal/doctree"
	"github.com/dgallion1/notedit/internal/outline"
)

var (
	lineOffsetKey  = parser.NewContextKey()
	attachmentsKey = parser.NewContextKey()
)

// sourceLineTransformer tags every block node with the line it starts on.
type sourceLineTransformer struct{}

func (sourceLineTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	starts := lineStarts(reader.Source())
	offset, _ := pc.Get(lineOffsetKey).(int)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() == ast.KindDocument {
			return ast.WalkContinue, nil
		}
		if n.Type() != ast.TypeBlock {
			return ast.WalkSkipChildren, nil
		}
		line, ok := blockLine(n, starts)
		if !ok && n.Kind() == ast.KindThematicBreak {
			line, ok = ruleLine(n, reader.Source(), starts)
		}
		if ok {
			n.SetAttributeString(SourceLineAttr, []byte(strconv.Itoa(line+offset)))
		}
		return ast.WalkContinue, nil
	})
}

// blockLine finds the 1-based line a block starts on, descending into child
// blocks for containers such as lists and blockquotes. Fenced code blocks
// start at their opening fence.
func blockLine(n ast.Node, starts []int) (int, bool) {
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		if fenced.Info != nil {
			return lineAt(starts, fenced.Info.Segment.Start), true
		}
		if fenced.Lines().Len() > 0 {
			return lineAt(starts, fenced.Lines().At(0).Start) - 1, true
		}
		return 0, false
	}
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lineAt(starts, lines.At(0).Start), true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if line, ok := blockLine(c, starts); ok {
			return line, true
		}
	}
	return 0, false
}

// ruleLine locates a top-level thematic break, which carries no source
// segments, by scanning forward from the end of the preceding block.
func ruleLine(n ast.Node, src []byte, starts []int) (int, bool) {
	if p := n.Parent(); p == nil || p.Kind() != ast.KindDocument {
		return 0, false
	}
	from := 1
	if prev := n.PreviousSibling(); prev != nil {
		end, ok := blockEnd(prev, src, starts)
		if !ok {
			return 0, false
		}
		from = end + 1
	}
	for line := from; line <= len(starts); line++ {
		if outline.IsThematicBreak(lineText(src, starts, line)) {
			return line, true
		}
	}
	return 0, false
}

// blockEnd returns the last source line of a top-level block.
func blockEnd(n ast.Node, src []byte, starts []int) (int, bool) {
	switch node := n.(type) {
	case *ast.ThematicBreak:
		return ruleLine(node, src, starts)
	case *ast.Heading:
		lines := node.Lines()
		if lines.Len() == 0 {
			return blockLine(node, starts)
		}
		end := lineAt(starts, lines.At(lines.Len()-1).Start)
		if !strings.HasPrefix(strings.TrimLeft(lineText(src, starts, end), " "), "#") {
			end++ // setext underline
		}
		return end, true
	}
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lineAt(starts, lines.At(lines.Len()-1).Start), true
	}
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if end, ok := blockEnd(c, src, starts); ok {
			return end, true
		}
	}
	return blockLine(n, starts)
}

// lineText returns the 1-based line without its terminator.
func lineText(src []byte, starts []int, line int) string {
	if line < 1 || line > len(starts) {
		return ""
	}
	end := len(src)
	if line < len(starts) {
		end = starts[line] - 1
	}
	return strings.TrimRight(string(src[starts[line-1]:end]), "\r")
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineAt converts a byte offset to a 1-based line number.
func lineAt(starts []int, pos int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > pos })
}

// attachmentTransformer rewrites link and image destinations that name an
// attachment.
type attachmentTransformer struct{}

func (attachmentTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	files, _ := pc.Get(attachmentsKey).([]doctree.FileRef)
	if len(files) == 0 {
		return
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			if u, ok := ResolveAttachment(files, string(node.Destination)); ok {
				node.Destination = []byte(u)
			}
		case *ast.Link:
			if u, ok := ResolveAttachment(files, string(node.Destination)); ok {
				node.Destination = []byte(u)
			}
		}
		return ast.WalkContinue, nil
	})
}

// ResolveAttachment maps a link destination to an attachment URL. The
// destination may be "attachment:<id or name>" or the attachment's file name.
func ResolveAttachment(files []doctree.FileRef, dest string) (string, bool) {
	if dest == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(dest); err == nil {
		dest = unescaped
	}

	if key, ok := strings.CutPrefix(dest, "attachment:"); ok {
		for _, f := range files {
			if f.ID == key || f.Name == key {
				return f.URL, f.URL != ""
			}
		}
		return "", false
	}

	for _, f := range files {
		if f.Name != "" && f.Name == dest {
			return f.URL, f.URL != ""
		}
	}
	return "", false
}
