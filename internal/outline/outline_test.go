package outline

import "testing"

func TestExtract_Nesting(t *testing.T) {
	forest := Extract("# A\n---\n## B\n### C\n## D", nil)

	if len(forest) != 1 {
		t.Fatalf("expected 1 root, got %d", len(forest))
	}
	a := forest[0]
	if a.Label != "A" {
		t.Errorf("expected root %q, got %q", "A", a.Label)
	}
	if a.SeparatorBefore {
		t.Error("expected A.SeparatorBefore to be false")
	}
	if len(a.Children) != 2 {
		t.Fatalf("expected 2 children under A, got %d", len(a.Children))
	}

	b, d := a.Children[0], a.Children[1]
	if b.Label != "B" || d.Label != "D" {
		t.Errorf("expected children [B D], got [%s %s]", b.Label, d.Label)
	}
	if !b.SeparatorBefore {
		t.Error("expected B.SeparatorBefore to be true")
	}
	if d.SeparatorBefore {
		t.Error("expected D.SeparatorBefore to be false")
	}
	if len(b.Children) != 1 || b.Children[0].Label != "C" {
		t.Fatalf("expected B.children = [C], got %+v", b.Children)
	}
	if len(d.Children) != 0 {
		t.Errorf("expected D to have no children, got %d", len(d.Children))
	}

	wantLines := map[string]int{"A": 1, "B": 3, "C": 4, "D": 5}
	for _, e := range Flatten(forest) {
		if e.Node.SourceLine != wantLines[e.Node.Label] {
			t.Errorf("%s: expected line %d, got %d", e.Node.Label, wantLines[e.Node.Label], e.Node.SourceLine)
		}
	}
}

func TestExtract_FirstHeaderNeverFlagged(t *testing.T) {
	forest := Extract("***\n---\n\n# First\n___\n# Second", nil)
	if len(forest) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(forest))
	}
	if forest[0].SeparatorBefore {
		t.Error("expected the first heading to ignore preceding rules")
	}
	if !forest[1].SeparatorBefore {
		t.Error("expected the second heading to be flagged")
	}
}

func TestExtract_SeparatorIsStickyUntilConsumed(t *testing.T) {
	forest := Extract("# A\n---\n\ntext\n- - -\n\n## B\n## C", nil)
	b, c := forest[0].Children[0], forest[0].Children[1]
	if !b.SeparatorBefore {
		t.Error("expected B to consume the pending separator")
	}
	if c.SeparatorBefore {
		t.Error("expected the flag to be cleared after B")
	}
}

func TestExtract_LinkRewriting(t *testing.T) {
	forest := Extract("# See [[entity:Acme Corp|Acme]]\n# See [[entity:Acme Corp]]", nil)
	if len(forest) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(forest))
	}
	if forest[0].Label != "See Acme" {
		t.Errorf("expected %q, got %q", "See Acme", forest[0].Label)
	}
	if forest[1].Label != "See Acme Corp" {
		t.Errorf("expected %q, got %q", "See Acme Corp", forest[1].Label)
	}
}

func TestExtract_MalformedHeadersSkipped(t *testing.T) {
	forest := Extract("# A\n---\n###\n#\n#nospace\n## B", nil)
	if len(forest) != 1 {
		t.Fatalf("expected 1 root, got %d", len(forest))
	}
	a := forest[0]
	if len(a.Children) != 1 || a.Children[0].Label != "B" {
		t.Fatalf("expected A.children = [B], got %+v", a.Children)
	}
	// The malformed lines must not consume the separator.
	if !a.Children[0].SeparatorBefore {
		t.Error("expected B to still carry the separator")
	}
}

func TestExtract_ShallowerHeadingBecomesRoot(t *testing.T) {
	forest := Extract("### deep\n# top\n## mid", nil)
	if len(forest) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(forest))
	}
	if forest[0].Label != "deep" || forest[1].Label != "top" {
		t.Errorf("unexpected roots %q, %q", forest[0].Label, forest[1].Label)
	}
	if len(forest[1].Children) != 1 {
		t.Errorf("expected mid under top, got %d children", len(forest[1].Children))
	}
}

func TestExtract_ActivationReportsOwnLine(t *testing.T) {
	var got []int
	forest := Extract("intro\n\n# One\n\n## Two\r\n", func(line int) { got = append(got, line) })
	if len(got) != 0 {
		t.Fatalf("expected no activation during extraction, got %v", got)
	}

	forest[0].Activate()
	forest[0].Children[0].Activate()

	if len(got) != 2 || got[0] != 3 || got[1] != 5 {
		t.Errorf("expected activations [3 5], got %v", got)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	if forest := Extract("", nil); len(forest) != 0 {
		t.Errorf("expected empty forest, got %d roots", len(forest))
	}
}

func TestIsThematicBreak(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"---", true},
		{"***", true},
		{"___", true},
		{"- - -", true},
		{" *  *  * ", true},
		{"-----", true},
		{"--", false},
		{"-*-", false},
		{"--- text", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsThematicBreak(tt.line); got != tt.want {
			t.Errorf("IsThematicBreak(%q): expected %v, got %v", tt.line, tt.want, got)
		}
	}
}

func TestFind(t *testing.T) {
	forest := Extract("# A\ntext\n## B\ntext\n# C", nil)
	tests := []struct {
		line int
		want string
	}{
		{2, "A"},
		{3, "B"},
		{4, "B"},
		{10, "C"},
	}
	for _, tt := range tests {
		got := Find(forest, tt.line)
		if got == nil || got.Label != tt.want {
			t.Errorf("line %d: expected %q, got %+v", tt.line, tt.want, got)
		}
	}

	if Find(Extract("text\n# A", nil), 1) != nil {
		t.Error("expected nil before the first heading")
	}
}

func TestFlatten_Depths(t *testing.T) {
	entries := Flatten(Extract("# A\n## B\n### C\n# D", nil))
	want := []struct {
		label string
		depth int
	}{{"A", 0}, {"B", 1}, {"C", 2}, {"D", 0}}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].Node.Label != w.label || entries[i].Depth != w.depth {
			t.Errorf("entry %d: expected %s@%d, got %s@%d", i, w.label, w.depth, entries[i].Node.Label, entries[i].Depth)
		}
	}
}
