package construct

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/japaniel/conlang/pkg/deconstruct"
	"github.com/japaniel/conlang/pkg/lexicon"
	"github.com/japaniel/conlang/pkg/phonology"
	"github.com/japaniel/conlang/pkg/selection"
)

func newTestFilters(t *testing.T) *deconstruct.Deconstructor {
	t.Helper()
	tbl := deconstruct.NewFilterTable()
	tbl.MustAdd("LETTERS", "", "L")
	tbl.MustAdd("PUNCTUATION", "", "P")
	tbl.MustAdd("SPACE", " ")
	tbl.MustAdd("NUMBER", "", "Nd")
	d := deconstruct.New(tbl)
	if err := d.AddRules(`merge LETTERS PUNCTUATION:"'" LETTERS => LETTERS`); err != nil {
		t.Fatalf("add rules: %v", err)
	}
	return d
}

func wireRules(t *testing.T, g *Generator) {
	t.Helper()
	for _, r := range []struct{ filter, handler string }{
		{"LETTERS", "generate"},
		{"PUNCTUATION", "punctuation"},
		{"NUMBER", "number"},
		{"SPACE", "verbatim"},
	} {
		h, err := Builtin(r.handler)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.AddRule(r.filter, r.handler, h); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	a := phonology.NewAlphabet()
	for _, c := range "ktrsn" {
		if err := a.AddConsonant(phonology.Letter{Key: c}); err != nil {
			t.Fatal(err)
		}
	}
	for _, v := range "aio" {
		if err := a.AddVowel(phonology.Letter{Key: v}); err != nil {
			t.Fatal(err)
		}
	}
	m := phonology.NewModel(a)
	m.AddSyllable("CV", 2, "open")
	m.AddSyllable("CVC", 1, "closed")
	var cons, vows []phonology.WeightedLetter
	for _, c := range "ktrsn" {
		cons = append(cons, phonology.WeightedLetter{Letter: c, Weight: 1})
	}
	for _, v := range "aio" {
		vows = append(vows, phonology.WeightedLetter{Letter: v, Weight: 1})
	}
	if err := m.AddGroup('C', cons...); err != nil {
		t.Fatal(err)
	}
	if err := m.AddGroup('V', vows...); err != nil {
		t.Fatal(err)
	}

	g := New(newTestFilters(t), m, lexicon.New(), selection.NewSelector(m))
	wireRules(t, g)
	return g
}

// newCaseGenerator builds a language that can only produce "ka" syllables,
// with custom upper-case forms for both letters.
func newCaseGenerator(t *testing.T) *Generator {
	t.Helper()
	a := phonology.NewAlphabet()
	if err := a.AddConsonant(phonology.Letter{Key: 'k', Upper: "Q"}); err != nil {
		t.Fatal(err)
	}
	if err := a.AddVowel(phonology.Letter{Key: 'a', Upper: "Á"}); err != nil {
		t.Fatal(err)
	}
	m := phonology.NewModel(a)
	m.AddSyllable("CV", 1)
	if err := m.AddGroup('C', phonology.WeightedLetter{Letter: 'k'}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddGroup('V', phonology.WeightedLetter{Letter: 'a'}); err != nil {
		t.Fatal(err)
	}
	g := New(newTestFilters(t), m, lexicon.New(), selection.NewSelector(m))
	wireRules(t, g)
	return g
}

func wordNamed(t *testing.T, res *Result, actual string) *WordInfo {
	t.Helper()
	for _, w := range res.Words {
		if w.Actual == actual {
			return w
		}
	}
	t.Fatalf("no word %q in %q", actual, res.Text)
	return nil
}

func TestGenerateIsDeterministic(t *testing.T) {
	const input = "The quick brown fox jumps over the lazy dog."
	a, err := newTestGenerator(t).GenerateString(input)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newTestGenerator(t).GenerateString(input)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("outputs differ:\n%q\n%q", a, b)
	}
	if !strings.HasSuffix(a, ".") || strings.Count(a, " ") != 8 {
		t.Errorf("punctuation and spacing should survive: %q", a)
	}
}

func TestSeedIndependentOfPosition(t *testing.T) {
	g1 := newTestGenerator(t)
	g1.Options.Memoize = false
	first, err := g1.Generate("dog ran home")
	if err != nil {
		t.Fatal(err)
	}
	g2 := newTestGenerator(t)
	g2.Options.Memoize = false
	fifth, err := g2.Generate("one two three four dog")
	if err != nil {
		t.Fatal(err)
	}
	a, b := wordNamed(t, first, "dog"), wordNamed(t, fifth, "dog")
	if a.Core != b.Core || a.Seed != b.Seed {
		t.Fatalf("core differs by position: %q vs %q", a.Core, b.Core)
	}
}

func TestAffixStackingDogs(t *testing.T) {
	g := newTestGenerator(t)
	g.Lexicon.AddAffix(&lexicon.Affix{Key: "s", Value: "-da", Match: lexicon.Suffix, Emit: lexicon.Suffix})
	g.Lexicon.AddAffix(&lexicon.Affix{Key: "'s", Value: "-doo", Match: lexicon.Suffix, Emit: lexicon.Suffix})

	res, err := g.Generate("dog's")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Words) != 1 {
		t.Fatalf("apostrophe merge should give one word, got %d", len(res.Words))
	}
	w := res.Words[0]
	if w.Root != "dog" {
		t.Errorf("root = %q, want dog", w.Root)
	}
	if len(w.Suffixes) != 1 || w.Suffixes[0].Affix.Key != "'s" {
		t.Fatalf("unexpected suffixes %+v", w.Suffixes)
	}
	if w.Final != w.Core+"-doo" {
		t.Errorf("final = %q, want %q", w.Final, w.Core+"-doo")
	}

	plain, err := newTestGenerator(t).Generate("dog")
	if err != nil {
		t.Fatal(err)
	}
	if plain.Words[0].Core != w.Core {
		t.Errorf("affix changed the core: %q vs %q", plain.Words[0].Core, w.Core)
	}
}

func TestMemoizationSkipsSelection(t *testing.T) {
	g := newTestGenerator(t)
	calls := 0
	g.Selector.AddLetterRule(selection.LetterRule{Name: "count", Apply: func(*selection.LetterQuery) { calls++ }})

	first, err := g.GenerateString("elf")
	if err != nil {
		t.Fatal(err)
	}
	if calls == 0 {
		t.Fatal("first occurrence should run letter selection")
	}
	calls = 0
	res, err := g.Generate("elf")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("memoized word ran selection %d times", calls)
	}
	if res.Output != first || res.Words[0].Source != FromVocabulary {
		t.Errorf("got %q from %s, want %q from vocabulary", res.Output, res.Words[0].Source, first)
	}
	if v, ok := g.Lexicon.Vocabulary("ELF"); !ok || v != first {
		t.Errorf("vocabulary entry = %q, %v", v, ok)
	}
}

func TestCaseFidelity(t *testing.T) {
	g := newCaseGenerator(t)
	tests := []struct {
		in, want string
	}{
		{"elf", "ka"},
		{"Elf", "Qa"},
		{"ELF", "QÁ"},
	}
	for _, tt := range tests {
		got, err := g.GenerateString(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s -> %q, want %q", tt.in, got, tt.want)
		}
	}

	// Mixed case is left lower unless random casing is on.
	if got, _ := g.GenerateString("eLf"); got != "ka" {
		t.Errorf("mixed without random case = %q", got)
	}
	g.Options.RandomCase = true
	a, _ := g.GenerateString("eLf")
	b, _ := g.GenerateString("eLf")
	if a != b {
		t.Errorf("random case must be reproducible: %q vs %q", a, b)
	}
	switch a {
	case "ka", "Qa", "kÁ", "QÁ":
	default:
		t.Errorf("random case produced %q", a)
	}
}

func TestCaseFollowsChosenLetters(t *testing.T) {
	a := phonology.NewAlphabet()
	for _, l := range []phonology.Letter{
		{Key: 'n'},
		{Key: 'g'},
		{Key: 'ŋ', Lower: "ng", Upper: "Ŋ"},
	} {
		if err := a.AddConsonant(l); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.AddVowel(phonology.Letter{Key: 'a'}); err != nil {
		t.Fatal(err)
	}
	m := phonology.NewModel(a)
	m.AddSyllable("NGV", 1)
	for key, r := range map[rune]rune{'N': 'n', 'G': 'g', 'V': 'a'} {
		if err := m.AddGroup(key, phonology.WeightedLetter{Letter: r}); err != nil {
			t.Fatal(err)
		}
	}
	g := New(newTestFilters(t), m, lexicon.New(), selection.NewSelector(m))
	g.Options.Estimator = func(string) int { return 1 }
	wireRules(t, g)

	tests := []struct {
		in, want string
	}{
		{"Elf", "Nga"},
		{"ELF", "NGA"},
		// memoized
		{"Elf", "Nga"},
	}
	for _, tt := range tests {
		got, err := g.GenerateString(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s -> %q, want %q", tt.in, got, tt.want)
		}
	}
	if got, _ := g.Clone().GenerateString("Elf"); got != "Nga" {
		t.Errorf("clone -> %q", got)
	}
}

func TestExhaustionMarksOnlyFailingWord(t *testing.T) {
	g := newTestGenerator(t)
	g.Selector.AddSyllableRule(selection.SyllableRule{Name: "no-dog", Apply: func(q *selection.SyllableQuery) {
		if q.Word == "dog" {
			q.Exclude(func(*phonology.Syllable) bool { return true })
		}
	}})

	res, err := g.Generate("the dog.")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v", res.Errors)
	}
	var ex *selection.ExhaustedError
	if !errors.As(res.Errors[0], &ex) || ex.Rule != "no-dog" {
		t.Fatalf("expected exhaustion by no-dog, got %v", res.Errors[0])
	}
	if !strings.HasSuffix(res.Output, " {!dog}.") {
		t.Errorf("output = %q", res.Output)
	}
	if the := wordNamed(t, res, "the"); the.Err != nil || the.Final == "" {
		t.Errorf("the should still be generated: %+v", the)
	}
	if _, ok := g.Lexicon.Vocabulary("dog"); ok {
		t.Error("failed word must not be memoized")
	}
}

func TestFlags(t *testing.T) {
	g := newTestGenerator(t)
	dog, err := g.GenerateString("dog")
	if err != nil {
		t.Fatal(err)
	}
	cat, err := g.GenerateString("cat")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in, want string
	}{
		{"Frodo::keep", "Frodo"},
		{"dog::as=woof", "woof"},
		{"big dog::hideprev", dog},
		{"dog::hidenext big", dog},
		{"dog::hide !", " !"},
		{"dog::root=cat", cat},
		{"Frodo::keep.", "Frodo."},
		{"Frodo::keep, dog", "Frodo, " + dog},
		{"dog::as=woof!", "woof!"},
		{"dog::as=woof,hide.", "."},
	}
	for _, tt := range tests {
		got, err := g.GenerateString(tt.in)
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s -> %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCustomFlagAndUnknownFlag(t *testing.T) {
	g := newTestGenerator(t)
	g.RegisterFlag("shout", func(s *Sentence, w *WordInfo, arg string) error {
		w.Final = strings.ToUpper(w.Actual) + arg
		w.IsProcessed = true
		return nil
	})
	got, err := g.GenerateString("hey::shout=ho you::bogus")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "HEYho ") {
		t.Errorf("got %q", got)
	}
}

func TestExtractFlags(t *testing.T) {
	clean, marks, err := extractFlags("a::keep b c::as=x,noaffix", "::")
	if err != nil {
		t.Fatal(err)
	}
	if clean != "a b c" {
		t.Fatalf("clean = %q", clean)
	}
	if len(marks) != 2 || marks[0].pos != 0 || marks[1].pos != 4 {
		t.Fatalf("marks = %+v", marks)
	}
	if f := marks[1].flags; len(f) != 2 || f[0] != (Flag{Name: "as", Arg: "x"}) || f[1].Name != "noaffix" {
		t.Errorf("flags = %+v", f)
	}

	if clean, marks, _ := extractFlags("a :: b", "::"); clean != "a :: b" || marks != nil {
		t.Errorf("detached marker should stay literal: %q %v", clean, marks)
	}
	clean, marks, err = extractFlags("Frodo::keep, dog::as=woof!", "::")
	if err != nil {
		t.Fatal(err)
	}
	if clean != "Frodo, dog!" {
		t.Errorf("trailing punctuation must stay in the text: %q", clean)
	}
	if len(marks) != 2 || marks[0].flags[0] != (Flag{Name: "keep"}) || marks[1].flags[0] != (Flag{Name: "as", Arg: "woof"}) {
		t.Errorf("marks = %+v", marks)
	}

	if _, _, err := extractFlags("a::=x", "::"); err == nil {
		t.Error("expected error for nameless flag")
	}
}

func TestInterceptorShortCircuits(t *testing.T) {
	g := newTestGenerator(t)
	g.Intercept(AffixesExtracted, func(s *Sentence, w *WordInfo) error {
		if w.Root == "ring" {
			w.Final = "precious"
			w.IsProcessed = true
		}
		return nil
	})
	got, err := g.GenerateString("one ring")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, " precious") {
		t.Errorf("got %q", got)
	}
}

func TestAffixHooksAndProceduralAffixes(t *testing.T) {
	g := newTestGenerator(t)
	g.Lexicon.AddAffix(&lexicon.Affix{Key: "ly", Match: lexicon.Suffix, Emit: lexicon.Suffix, Groups: "VC"})
	g.Lexicon.AddAffix(&lexicon.Affix{Key: "un", Value: "-no", Match: lexicon.Prefix, Emit: lexicon.Prefix})
	g.OnPrefix(func(s *Sentence, w *WordInfo, a *AffixInfo) error {
		a.Text = strings.TrimPrefix(a.Text, "-")
		return nil
	})

	res, err := g.Generate("unkindly slowly")
	if err != nil {
		t.Fatal(err)
	}
	kind, slow := wordNamed(t, res, "unkindly"), wordNamed(t, res, "slowly")
	if kind.Root != "kind" || slow.Root != "slow" {
		t.Fatalf("roots: %q %q", kind.Root, slow.Root)
	}
	ly := kind.Suffixes[0].Text
	if len([]rune(ly)) != 2 || ly != slow.Suffixes[0].Text {
		t.Errorf("procedural affix should be stable: %q vs %q", ly, slow.Suffixes[0].Text)
	}
	if kind.Final != "no"+kind.Core+ly {
		t.Errorf("final = %q", kind.Final)
	}
}

func TestRootLexiconSkipsSelection(t *testing.T) {
	g := newTestGenerator(t)
	g.Lexicon.AddRoot("kind", "sira")
	g.Lexicon.AddAffix(&lexicon.Affix{Key: "ness", Value: "tok", Match: lexicon.Suffix, Emit: lexicon.Suffix})
	res, err := g.Generate("Kindness")
	if err != nil {
		t.Fatal(err)
	}
	w := res.Words[0]
	if w.Source != FromRoot || len(w.Letters) != 0 {
		t.Errorf("root hit should not select letters: %+v", w)
	}
	if res.Output != "Siratok" {
		t.Errorf("output = %q", res.Output)
	}
}

func TestFixedSyllables(t *testing.T) {
	g := newTestGenerator(t)
	g.Lexicon.SetSyllables("a", "CVC", "CV", "CV")
	res, err := g.Generate("a")
	if err != nil {
		t.Fatal(err)
	}
	w := res.Words[0]
	if len(w.Syllables) != 3 || len(w.Letters) != 7 {
		t.Fatalf("syllables %d letters %d", len(w.Syllables), len(w.Letters))
	}
	if w.Syllables[1].Prev() != w.Syllables[0] || w.Syllables[2].Next() != nil {
		t.Error("syllables are not linked")
	}
	if w.Letters[3].Prev().Next() != w.Letters[3] {
		t.Error("letters are not linked")
	}
}

func TestTablesAndTrace(t *testing.T) {
	g := newTestGenerator(t)
	g.Punctuation["."] = "·"
	g.Numbers['1'] = "un"
	g.Numbers['2'] = "du"
	// Shift the offset so that "dog" seeds to zero.
	g.Seeder.Offset = -g.Seeder.Seed("dog")
	res, err := g.Generate("dog 12.")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(res.Output, " undu·") {
		t.Errorf("output = %q", res.Output)
	}
	tr := res.Trace()
	if len(tr.Words) != 4 || tr.Words[0].Source != string(FromGenerated) || tr.Words[0].Stage != "processed" {
		t.Fatalf("trace = %+v", tr.Words)
	}
	if seed := tr.Words[0].Seed; seed == nil || *seed != 0 {
		t.Errorf("dog seed = %v, want 0", seed)
	}
	if tr.Words[2].Seed != nil {
		t.Errorf("number word should carry no seed: %d", *tr.Words[2].Seed)
	}
	data, err := json.Marshal(tr.Words[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"seed":0`) {
		t.Errorf("zero seed missing from %s", data)
	}
}

func TestUnknownFilterRule(t *testing.T) {
	g := newTestGenerator(t)
	if err := g.AddRule("NOPE", "generate", Generate); err != nil {
		t.Errorf("lenient mode should skip: %v", err)
	}
	g.Options.Strict = true
	err := g.AddRule("NOPE", "generate", Generate)
	if !errors.Is(err, deconstruct.ErrUnknownFilter) {
		t.Errorf("strict mode error = %v", err)
	}
	if _, err := Builtin("explode"); err == nil {
		t.Error("unknown builtin should fail")
	}
}

func TestCloneIsolatesMemoization(t *testing.T) {
	g := newTestGenerator(t)
	c := g.Clone()
	if _, err := c.Generate("elf"); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Lexicon.Vocabulary("elf"); ok {
		t.Error("clone memoized into the original lexicon")
	}
}

func TestEnglishSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"dog", 1},
		{"elf", 1},
		{"make", 1},
		{"table", 2},
		{"banana", 3},
		{"rhythm", 1},
		{"yes", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := EnglishSyllables(tt.word); got != tt.want {
			t.Errorf("EnglishSyllables(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestSyllableCountSkew(t *testing.T) {
	g := newTestGenerator(t)
	g.Options.SkewMin = ConstantSkew(1)
	g.Options.SkewMax = LinearSkew(1, 0.5)
	// banana: 3 estimated, factor in [1, 2).
	if n := g.syllableCount("banana", 0); n != 3 {
		t.Errorf("low end = %d", n)
	}
	if n := g.syllableCount("banana", 0.99); n != 5 {
		t.Errorf("high end = %d", n)
	}
	g.Options.SkewMin = ConstantSkew(0)
	g.Options.SkewMax = ConstantSkew(0)
	if n := g.syllableCount("banana", 0.5); n != 1 {
		t.Errorf("count must floor at 1, got %d", n)
	}
}
