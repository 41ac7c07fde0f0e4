// Package render turns markdown into preview HTML whose block elements carry
// the 1-based source line that produced them.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/dgallion1/notedit/internal/doctree"
)

// SourceLineAttr is the attribute that tags rendered blocks with their source line.
const SourceLineAttr = "data-source-line"

// Options controls the goldmark engine.
type Options struct {
	Extensions []string // Names from the extension registry; empty means GFM defaults
	HardWraps  bool
}

// Markdown renders markdown documents. Raw HTML in the source is never
// emitted, which is what keeps the preview sanitized.
type Markdown struct {
	md goldmark.Markdown
}

// New builds a renderer. A single instance is safe for concurrent use.
func New(opts Options) *Markdown {
	rendererOptions := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(codeBlockRenderer{writer: html.DefaultWriter}, 100)),
	}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	exts := append(collectExtensions(opts.Extensions), References)

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(attachmentTransformer{}, 100),
				util.Prioritized(sourceLineTransformer{}, 1000),
			),
		),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return &Markdown{md: md}
}

// Render converts markdown to annotated HTML. Links and images that name an
// attachment are pointed at the attachment's URL.
func (m *Markdown) Render(ctx context.Context, markdown string, files []doctree.FileRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, offset := stripFrontMatter([]byte(markdown))

	pc := parser.NewContext()
	pc.Set(lineOffsetKey, offset)
	pc.Set(attachmentsKey, files)

	var buf bytes.Buffer
	if err := m.md.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// collectExtensions resolves extension names against the registry. Unknown
// names are skipped; if nothing is left, GFM is used.
func collectExtensions(names []string) []goldmark.Extender {
	var extenders []goldmark.Extender
	seen := map[goldmark.Extender]struct{}{}
	for _, name := range names {
		ext, ok := extensionRegistry[normalizeExtension(name)]
		if !ok {
			continue
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		extenders = append(extenders, ext)
		seen[ext] = struct{}{}
	}
	if len(extenders) == 0 {
		return []goldmark.Extender{extension.GFM}
	}
	return extenders
}

// UnknownExtensions returns the names that collectExtensions would skip.
func UnknownExtensions(names []string) []string {
	var unknown []string
	for _, name := range names {
		if _, ok := extensionRegistry[normalizeExtension(name)]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

func normalizeExtension(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
