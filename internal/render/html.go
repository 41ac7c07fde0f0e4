package render

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// SourceLines returns the source-line tags of rendered blocks in document order.
func SourceLines(markup string) ([]int, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var lines []int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key != SourceLineAttr {
					continue
				}
				if line, err := strconv.Atoi(attr.Val); err == nil {
					lines = append(lines, line)
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return lines, nil
}
