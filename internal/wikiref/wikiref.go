// Package wikiref handles inline references of the form [[kind:value|alias]].
package wikiref

import (
	"regexp"
	"strings"
)

// Ref is a single inline reference.
type Ref struct {
	Kind  string // May be empty when the reference has no "kind:" prefix
	Value string
	Alias string
}

// Display returns the text shown for the reference: the alias if present,
// else the value.
func (r Ref) Display() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Value
}

var refRe = regexp.MustCompile(`\[\[(?:([^\[\]|:]+):)?([^\[\]|]+?)(?:\|([^\[\]]*))?\]\]`)

func fromSubmatch(s string, m []int) Ref {
	var r Ref
	if m[2] >= 0 {
		r.Kind = strings.TrimSpace(s[m[2]:m[3]])
	}
	r.Value = strings.TrimSpace(s[m[4]:m[5]])
	if m[6] >= 0 {
		r.Alias = strings.TrimSpace(s[m[6]:m[7]])
	}
	return r
}

// Rewrite replaces every reference in s with its display text.
func Rewrite(s string) string {
	if !strings.Contains(s, "[[") {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, m := range refRe.FindAllStringSubmatchIndex(s, -1) {
		sb.WriteString(s[last:m[0]])
		sb.WriteString(fromSubmatch(s, m).Display())
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// FindAll returns the references in s in order of appearance.
func FindAll(s string) []Ref {
	var refs []Ref
	for _, m := range refRe.FindAllStringSubmatchIndex(s, -1) {
		refs = append(refs, fromSubmatch(s, m))
	}
	return refs
}

// MatchPrefix reports whether b starts with a reference and returns it along
// with the number of bytes it spans.
func MatchPrefix(b []byte) (Ref, int, bool) {
	if len(b) < 4 || b[0] != '[' || b[1] != '[' {
		return Ref{}, 0, false
	}
	m := refRe.FindSubmatchIndex(b)
	if m == nil || m[0] != 0 {
		return Ref{}, 0, false
	}
	return fromSubmatch(string(b[:m[1]]), m), m[1], true
}
