package render

import (
	"bytes"

	"github.com/adrg/frontmatter"
)

// stripFrontMatter removes a leading YAML or TOML front matter block and
// returns the body plus the number of source lines removed, so rendered line
// tags still point into the original text. A block that does not decode to a
// non-empty mapping is left in place; its opening "---" is then a rule.
func stripFrontMatter(src []byte) ([]byte, int) {
	if !hasFrontMatter(src) {
		return src, 0
	}

	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil || len(meta) == 0 {
		return src, 0
	}
	return body, bytes.Count(src, []byte("\n")) - bytes.Count(body, []byte("\n"))
}

// hasFrontMatter reports whether src opens with a delimiter line that is
// closed again later.
func hasFrontMatter(src []byte) bool {
	lines := bytes.Split(src, []byte("\n"))
	if len(lines) < 2 {
		return false
	}
	delim := bytes.TrimRight(lines[0], "\r")
	if !bytes.Equal(delim, []byte("---")) && !bytes.Equal(delim, []byte("+++")) {
		return false
	}
	for _, l := range lines[1:] {
		if bytes.Equal(bytes.TrimRight(l, "\r \t"), delim) {
			return true
		}
	}
	return false
}
