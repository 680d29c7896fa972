package deconstruct

import (
	"errors"
	"strings"
	"testing"
)

func newTestTable(t *testing.T) (*FilterTable, map[string]FilterID) {
	t.Helper()
	tbl := NewFilterTable()
	ids := map[string]FilterID{}
	for _, f := range []struct{ name, members string }{
		{"LETTERS", "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		{"PUNCTUATION", "'.,!?-"},
		{"SPACE", " "},
		{"OPEN", "(["},
		{"CLOSE", ")]"},
		{"VERBATIM", ""},
		{"HYPHEN", ""},
	} {
		id, err := tbl.Add(f.name, f.members)
		if err != nil {
			t.Fatalf("add filter %s: %v", f.name, err)
		}
		ids[f.name] = id
	}
	return tbl, ids
}

func texts(blocks []*Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Text
	}
	return out
}

func TestScanCoalescesRuns(t *testing.T) {
	tbl, ids := newTestTable(t)
	d := New(tbl)

	blocks := d.Deconstruct("Hi, you~")
	got := strings.Join(texts(blocks), "|")
	if got != "Hi|,| |you|~" {
		t.Fatalf("unexpected blocks: %q", got)
	}
	if blocks[0].Filter != ids["LETTERS"] || blocks[1].Filter != ids["PUNCTUATION"] {
		t.Errorf("unexpected filters: %d %d", blocks[0].Filter, blocks[1].Filter)
	}
	if blocks[4].Filter != Undefined {
		t.Errorf("expected '~' to be UNDEFINED, got %s", tbl.Name(blocks[4].Filter))
	}
	if blocks[3].Start != 4 || blocks[3].End != 7 {
		t.Errorf("unexpected range for %q: [%d,%d)", blocks[3].Text, blocks[3].Start, blocks[3].End)
	}
	for i, b := range blocks {
		if b.Left != i-1 {
			t.Errorf("block %d: left = %d", i, b.Left)
		}
	}
	if blocks[len(blocks)-1].Right != -1 {
		t.Errorf("last block should have no right neighbor")
	}
}

func TestMergeApostrophe(t *testing.T) {
	tbl, ids := newTestTable(t)
	d := New(tbl)
	if err := d.AddRules(`merge LETTERS PUNCTUATION:"'" LETTERS => LETTERS`); err != nil {
		t.Fatalf("add rules: %v", err)
	}

	// Inspect the arena directly so dead blocks are visible.
	a := d.scan("(let's)")
	for i := range a {
		d.rules[0].apply(a, i)
	}
	// ( let ' s )
	if len(a) != 5 {
		t.Fatalf("expected 5 scanned blocks, got %d", len(a))
	}
	merged := a[2]
	if merged.Text != "let's" || merged.Filter != ids["LETTERS"] {
		t.Fatalf("unexpected merged block %q (%s)", merged.Text, tbl.Name(merged.Filter))
	}
	if a[1].Alive || a[3].Alive {
		t.Errorf("merged neighbors should be dead")
	}
	if merged.Left != 0 || merged.Right != 4 {
		t.Errorf("merged block linked to %d/%d, want 0/4", merged.Left, merged.Right)
	}
	if a[0].Right != 2 || a[4].Left != 2 {
		t.Errorf("outer blocks not relinked: %d %d", a[0].Right, a[4].Left)
	}
	if merged.Start != 1 || merged.End != 6 {
		t.Errorf("unexpected merged range [%d,%d)", merged.Start, merged.End)
	}

	blocks := d.Deconstruct("(let's)")
	if got := strings.Join(texts(blocks), "|"); got != "(|let's|)" {
		t.Fatalf("unexpected live blocks %q", got)
	}
	if blocks[1].Left != 0 || blocks[1].Right != 2 {
		t.Errorf("compacted links wrong: %d %d", blocks[1].Left, blocks[1].Right)
	}
}

func TestMergeOnlyMatchesText(t *testing.T) {
	tbl, _ := newTestTable(t)
	d := New(tbl)
	if err := d.AddRules(`merge LETTERS PUNCTUATION:"'" LETTERS => LETTERS`); err != nil {
		t.Fatalf("add rules: %v", err)
	}
	blocks := d.Deconstruct("a.b")
	if len(blocks) != 3 {
		t.Fatalf("rule should not fire on '.', got %q", texts(blocks))
	}
}

func TestRulesIgnoreSentenceBoundaries(t *testing.T) {
	tbl, _ := newTestTable(t)
	d := New(tbl)
	if err := d.AddRules(`merge * PUNCTUATION * => LETTERS`); err != nil {
		t.Fatalf("add rules: %v", err)
	}
	blocks := d.Deconstruct("'s")
	if len(blocks) != 2 {
		t.Fatalf("boundary block must not merge, got %q", texts(blocks))
	}
}

func TestRepeatedMergesStayLinked(t *testing.T) {
	tbl, _ := newTestTable(t)
	d := New(tbl)
	if err := d.AddRules(`merge LETTERS PUNCTUATION:"-" LETTERS => LETTERS`); err != nil {
		t.Fatalf("add rules: %v", err)
	}
	blocks := d.Deconstruct("a-b c-d")
	if got := strings.Join(texts(blocks), "|"); got != "a-b| |c-d" {
		t.Fatalf("unexpected blocks %q", got)
	}
}

func TestReclassifyKeepsNeighbors(t *testing.T) {
	tbl, ids := newTestTable(t)
	d := New(tbl)
	if err := d.AddRules(`reclassify LETTERS PUNCTUATION:"-" LETTERS => HYPHEN`); err != nil {
		t.Fatalf("add rules: %v", err)
	}
	blocks := d.Deconstruct("well-known")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %q", texts(blocks))
	}
	if blocks[1].Filter != ids["HYPHEN"] {
		t.Errorf("expected HYPHEN, got %s", tbl.Name(blocks[1].Filter))
	}
	if len(blocks[1].Rules) != 1 {
		t.Errorf("expected the rule to be recorded, got %v", blocks[1].Rules)
	}
}

func TestContainWithin(t *testing.T) {
	tbl, ids := newTestTable(t)
	d := New(tbl)
	if err := d.AddRules("contain OPEN CLOSE => VERBATIM"); err != nil {
		t.Fatalf("add rules: %v", err)
	}
	blocks := d.Deconstruct("say [Bilbo Baggins] now")
	got := strings.Join(texts(blocks), "|")
	if got != "say| |[Bilbo Baggins]| |now" {
		t.Fatalf("unexpected blocks %q", got)
	}
	if blocks[2].Filter != ids["VERBATIM"] {
		t.Errorf("expected VERBATIM, got %s", tbl.Name(blocks[2].Filter))
	}
	if blocks[2].Start != 4 || blocks[2].End != 19 {
		t.Errorf("unexpected range [%d,%d)", blocks[2].Start, blocks[2].End)
	}
}

func TestContainWithoutCloseIsNoop(t *testing.T) {
	tbl, _ := newTestTable(t)
	d := New(tbl)
	if err := d.AddRules("contain OPEN CLOSE => VERBATIM"); err != nil {
		t.Fatalf("add rules: %v", err)
	}
	blocks := d.Deconstruct("say [Bilbo")
	if got := strings.Join(texts(blocks), "|"); got != "say| |[|Bilbo" {
		t.Fatalf("unexpected blocks %q", got)
	}
}

func TestUnknownFilterLenientAndStrict(t *testing.T) {
	tbl, ids := newTestTable(t)

	lenient := New(tbl)
	if err := lenient.AddRules(`reclassify LETTERS PUNCTUATION LETTERS => NOPE`); err != nil {
		t.Fatalf("lenient mode should accept the rule: %v", err)
	}
	blocks := lenient.Deconstruct("a.b")
	if blocks[1].Filter != ids["PUNCTUATION"] {
		t.Errorf("disabled rule must leave classification alone, got %s", tbl.Name(blocks[1].Filter))
	}

	strict := New(tbl)
	strict.Strict = true
	err := strict.AddRules(`reclassify LETTERS PUNCTUATION LETTERS => NOPE`)
	if !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("expected ErrUnknownFilter, got %v", err)
	}
}

func TestRuleOrderIsTieBreak(t *testing.T) {
	tbl, ids := newTestTable(t)
	d := New(tbl)
	src := `
# first registered wins the block
reclassify LETTERS PUNCTUATION LETTERS => HYPHEN
reclassify LETTERS PUNCTUATION LETTERS => VERBATIM
`
	if err := d.AddRules(src); err != nil {
		t.Fatalf("add rules: %v", err)
	}
	blocks := d.Deconstruct("a-b")
	// The second rule no longer matches because the block is now HYPHEN.
	if blocks[1].Filter != ids["HYPHEN"] {
		t.Errorf("expected HYPHEN, got %s", tbl.Name(blocks[1].Filter))
	}
}

func TestFilterCategories(t *testing.T) {
	tbl := NewFilterTable()
	letters := tbl.MustAdd("letters", "", "L")
	digits := tbl.MustAdd("NUMBERS", "", "Nd")
	if _, err := tbl.Add("LETTERS", "x"); err == nil {
		t.Errorf("duplicate filter names should be rejected")
	}
	if _, err := tbl.Add("bad", "", "NotACategory"); err == nil {
		t.Errorf("unknown category should be rejected")
	}
	if tbl.Classify('é') != letters || tbl.Classify('7') != digits || tbl.Classify(' ') != Undefined {
		t.Errorf("unexpected classification")
	}
	if id, ok := tbl.Lookup("Letters"); !ok || id != letters {
		t.Errorf("lookup should be case-insensitive")
	}
}
