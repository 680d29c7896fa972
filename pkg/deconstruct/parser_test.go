package deconstruct

import "testing"

func TestParseRules(t *testing.T) {
	src := `
# apostrophes join words
merge LETTERS PUNCTUATION:"'" LETTERS => LETTERS
reclassify * PUNCTUATION:"\"" * => QUOTE
contain OPEN CLOSE => VERBATIM
`
	specs, err := ParseRules(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(specs))
	}

	tests := []struct {
		name string
		got  RuleSpec
		want RuleSpec
	}{
		{"merge", specs[0], RuleSpec{Kind: Merge, Left: "LETTERS", Current: "PUNCTUATION", Right: "LETTERS", Text: "'", MatchText: true, Target: "LETTERS"}},
		{"reclassify", specs[1], RuleSpec{Kind: Reclassify, Left: "*", Current: "PUNCTUATION", Right: "*", Text: `"`, MatchText: true, Target: "QUOTE"}},
		{"contain", specs[2], RuleSpec{Kind: Contain, Open: "OPEN", Close: "CLOSE", Target: "VERBATIM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %+v, want %+v", tt.got, tt.want)
			}
		})
	}
}

func TestParseRulesErrors(t *testing.T) {
	for _, src := range []string{
		"merge LETTERS PUNCTUATION => LETTERS",
		"explode A B C => D",
		`contain OPEN => X`,
	} {
		if _, err := ParseRules(src); err == nil {
			t.Errorf("expected parse error for %q", src)
		}
	}
}

func TestRuleSpecName(t *testing.T) {
	s := RuleSpec{Kind: Merge, Left: "A", Current: "B", Right: "C", Text: "'", MatchText: true, Target: "D"}
	if got := s.Name(); got != `merge A B:"'" C => D` {
		t.Errorf("unexpected name %q", got)
	}
}
