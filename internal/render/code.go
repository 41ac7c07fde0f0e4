package render

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer prints code blocks like goldmark's html renderer but
// keeps node attributes on <pre>, which the stock renderer drops.
type codeBlockRenderer struct {
	writer html.Writer
}

func (r codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFenced)
	reg.Register(ast.KindCodeBlock, r.renderIndented)
}

func (r codeBlockRenderer) renderFenced(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)
	if !entering {
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkContinue, nil
	}
	r.openPre(w, n)
	_, _ = w.WriteString("<code")
	if lang := n.Language(source); lang != nil {
		_, _ = w.WriteString(` class="language-`)
		r.writer.Write(w, lang)
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')
	r.writeLines(w, source, n)
	return ast.WalkContinue, nil
}

func (r codeBlockRenderer) renderIndented(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkContinue, nil
	}
	r.openPre(w, node)
	_, _ = w.WriteString("<code>")
	r.writeLines(w, source, node)
	return ast.WalkContinue, nil
}

func (r codeBlockRenderer) openPre(w util.BufWriter, n ast.Node) {
	_, _ = w.WriteString("<pre")
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, nil)
	}
	_ = w.WriteByte('>')
}

func (r codeBlockRenderer) writeLines(w util.BufWriter, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.writer.RawWrite(w, line.Value(source))
	}
}
