package doctree

// Document is the editable state of one editing session.
type Document struct {
	Text        string    // Raw markdown source
	Attachments []FileRef // Files attached to the note, in display order
}

// FileRef describes an attachment. Only metadata travels with a document.
type FileRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// ParsedDocument is one rendered preview.
type ParsedDocument struct {
	HTML     string // Sanitized markup; blocks carry data-source-line
	Revision string // SHA-256 hex of the markdown that produced HTML
}

// HeaderNode is a heading in the outline forest.
type HeaderNode struct {
	Label           string        `json:"label"`
	SourceLine      int           `json:"source_line"` // 1-based line of the heading itself
	Children        []*HeaderNode `json:"children"`
	SeparatorBefore bool          `json:"separator_before"`

	onActivate func(int)
}

// NewHeaderNode builds a node whose activation reports sourceLine to onActivate.
func NewHeaderNode(label string, sourceLine int, onActivate func(int)) *HeaderNode {
	return &HeaderNode{Label: label, SourceLine: sourceLine, onActivate: onActivate}
}

// Activate invokes the node's activation handler with its source line.
func (n *HeaderNode) Activate() {
	if n.onActivate != nil {
		n.onActivate(n.SourceLine)
	}
}

// ScrollState is a pane's scroll position in absolute and relative terms.
type ScrollState struct {
	ScrollTop        float64 `json:"scroll_top"`
	ScrollPercentage float64 `json:"scroll_percentage"` // in [0,1]
}
