package deconstruct

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ruleFile is the grammar of the rule language:
//
//	# comment
//	merge      LETTERS PUNCTUATION:"'" LETTERS => LETTERS
//	reclassify LETTERS PUNCTUATION:"-" LETTERS => HYPHEN
//	contain    OPEN CLOSE => VERBATIM
type ruleFile struct {
	Lines []*ruleLine `@@*`
}

type ruleLine struct {
	Merge      *contextRule `  "merge" @@`
	Reclassify *contextRule `| "reclassify" @@`
	Contain    *containRule `| "contain" @@`
}

type contextRule struct {
	Left    string  `@(Ident | "*")`
	Current string  `@(Ident | "*")`
	Text    *string `( ":" @String )?`
	Right   string  `@(Ident | "*")`
	Target  string  `"=>" @Ident`
}

type containRule struct {
	Open   string `@Ident`
	Close  string `@Ident`
	Target string `"=>" @Ident`
}

var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\r\n]*`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Arrow", Pattern: `=>`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[*:]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var ruleParser = participle.MustBuild[ruleFile](
	participle.Lexer(ruleLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
)

// ParseRules parses rule-language source into rule specs, in source order.
func ParseRules(src string) ([]RuleSpec, error) {
	f, err := ruleParser.ParseString("rules", src)
	if err != nil {
		return nil, fmt.Errorf("parse deconstruction rules: %w", err)
	}

	specs := make([]RuleSpec, 0, len(f.Lines))
	for _, l := range f.Lines {
		switch {
		case l.Merge != nil:
			specs = append(specs, l.Merge.spec(Merge))
		case l.Reclassify != nil:
			specs = append(specs, l.Reclassify.spec(Reclassify))
		case l.Contain != nil:
			specs = append(specs, RuleSpec{
				Kind:   Contain,
				Open:   l.Contain.Open,
				Close:  l.Contain.Close,
				Target: l.Contain.Target,
			})
		}
	}
	return specs, nil
}

func (c *contextRule) spec(kind RuleKind) RuleSpec {
	s := RuleSpec{
		Kind:    kind,
		Left:    c.Left,
		Current: c.Current,
		Right:   c.Right,
		Target:  c.Target,
	}
	if c.Text != nil {
		s.Text = *c.Text
		s.MatchText = true
	}
	return s
}
