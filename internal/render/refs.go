package render

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dgallion1/notedit/internal/wikiref"
)

// KindReference is the node kind of an inline [[kind:value|alias]] reference.
var KindReference = ast.NewNodeKind("Reference")

// Reference is an inline reference node.
type Reference struct {
	ast.BaseInline
	Ref wikiref.Ref
}

func (n *Reference) Kind() ast.NodeKind { return KindReference }

func (n *Reference) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Kind":  n.Ref.Kind,
		"Value": n.Ref.Value,
		"Alias": n.Ref.Alias,
	}, nil)
}

type referenceParser struct{}

func (referenceParser) Trigger() []byte { return []byte{'['} }

func (referenceParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	ref, n, ok := wikiref.MatchPrefix(line)
	if !ok {
		return nil
	}
	block.Advance(n)
	return &Reference{Ref: ref}
}

type referenceRenderer struct{}

func (r referenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindReference, r.render)
}

func (referenceRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	ref := node.(*Reference).Ref

	_, _ = w.WriteString(`<span class="ref"`)
	if ref.Kind != "" {
		_, _ = w.WriteString(` data-ref-kind="`)
		_, _ = w.Write(util.EscapeHTML([]byte(ref.Kind)))
		_ = w.WriteByte('"')
	}
	_, _ = w.WriteString(` data-ref-value="`)
	_, _ = w.Write(util.EscapeHTML([]byte(ref.Value)))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML([]byte(ref.Display())))
	_, _ = w.WriteString("</span>")
	return ast.WalkSkipChildren, nil
}

type referenceExtension struct{}

// References renders [[kind:value|alias]] as a span showing the alias, or the
// value when no alias is given.
var References goldmark.Extender = referenceExtension{}

func (referenceExtension) Extend(m goldmark.Markdown) {
	// Ahead of the link parser, which also triggers on '['.
	m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(referenceParser{}, 199)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(referenceRenderer{}, 500)))
}
