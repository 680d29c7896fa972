package language

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/japaniel/conlang/pkg/construct"
	"github.com/japaniel/conlang/pkg/deconstruct"
	"github.com/japaniel/conlang/pkg/lexicon"
	"github.com/japaniel/conlang/pkg/phonology"
	"github.com/japaniel/conlang/pkg/selection"
)

// ValidationError lists every problem found while building a language.
type ValidationError struct {
	Language string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("language %q: %d problem(s): %s", e.Language, len(e.Problems), strings.Join(e.Problems, "; "))
}

// Language is a loaded, validated definition. Its components are read-only
// once built; generators get their own lexicon copy.
type Language struct {
	Name          string
	Definition    *Definition
	Filters       *deconstruct.FilterTable
	Deconstructor *deconstruct.Deconstructor
	Model         *phonology.Model
	Lexicon       *lexicon.Lexicon
	Selector      *selection.Selector
	Seeder        selection.Seeder
	// Estimators maps estimator names usable in options.estimator to
	// implementations. "english" is always present.
	Estimators map[string]construct.SyllableEstimator
	Logger     *log.Logger

	// Warnings holds the problems tolerated in lenient mode.
	Warnings []string
}

// Load reads and builds the language file at path.
func Load(path string, logger *log.Logger) (*Language, error) {
	def, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return Build(def, logger)
}

type problems struct {
	fatal []string
	soft  []string
}

func (p *problems) errorf(format string, args ...any) { p.fatal = append(p.fatal, fmt.Sprintf(format, args...)) }
func (p *problems) warnf(format string, args ...any)  { p.soft = append(p.soft, fmt.Sprintf(format, args...)) }

func singleRune(s string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(s)
	return r, size > 0 && size == len(s) && r != utf8.RuneError
}

// Build wires a definition. Malformed entries always fail; references to
// unknown filters, groups, letters or handlers fail only in strict mode and
// are otherwise logged and skipped.
func Build(def *Definition, logger *log.Logger) (*Language, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	logger = logger.WithPrefix(def.Name)
	p := &problems{}

	l := &Language{
		Name:       def.Name,
		Definition: def,
		Filters:    deconstruct.NewFilterTable(),
		Lexicon:    lexicon.New(),
		Estimators: map[string]construct.SyllableEstimator{"english": construct.EnglishSyllables},
		Logger:     logger,
	}

	hash, err := selection.ParseHash(def.Seed.Hash)
	if err != nil {
		p.errorf("%v", err)
	}
	l.Seeder = selection.Seeder{Offset: def.Seed.Offset, Hash: hash}

	for _, f := range def.Filters {
		if _, err := l.Filters.Add(f.Name, f.Members, f.Categories...); err != nil {
			p.errorf("%v", err)
		}
	}

	l.Deconstructor = deconstruct.New(l.Filters)
	l.Deconstructor.Strict = def.Strict
	l.Deconstructor.Logger = logger.WithPrefix(def.Name + "/deconstruct")
	if err := l.Deconstructor.AddRules(def.Deconstruction); err != nil {
		p.errorf("deconstruction: %v", err)
	}

	for i, c := range def.Construction {
		if _, ok := l.Filters.Lookup(c.Filter); !ok {
			p.warnf("construction rule %d: unknown filter %q", i, c.Filter)
		}
		if _, err := construct.Builtin(c.Handler); err != nil {
			p.warnf("construction rule %d: %v", i, err)
		}
	}

	l.Model = buildModel(def, p)
	buildLexicon(def, l.Lexicon, l.Model, p)
	l.Selector = buildSelector(def, l.Model, p)

	for key := range def.Numbers {
		if _, ok := singleRune(key); !ok {
			p.errorf("numbers: key %q must be a single character", key)
		}
	}

	sort.Strings(p.soft)
	if len(p.fatal) > 0 || (def.Strict && len(p.soft) > 0) {
		return nil, &ValidationError{Language: def.Name, Problems: append(p.fatal, p.soft...)}
	}
	for _, w := range p.soft {
		logger.Warn("language problem ignored", "problem", w)
	}
	l.Warnings = p.soft
	return l, nil
}

func buildModel(def *Definition, p *problems) *phonology.Model {
	a := phonology.NewAlphabet()
	add := func(kind string, defs []LetterDef, fn func(phonology.Letter) error) {
		for _, ld := range defs {
			key, ok := singleRune(ld.Key)
			if !ok {
				p.errorf("%s %q: key must be a single character", kind, ld.Key)
				continue
			}
			err := fn(phonology.Letter{
				Key:           key,
				Name:          ld.Name,
				Pronunciation: ld.Pronunciation,
				Lower:         ld.Lower,
				Upper:         ld.Upper,
				Weight:        ld.Weight,
			})
			if err != nil {
				p.errorf("%s: %v", kind, err)
			}
		}
	}
	add("consonant", def.Alphabet.Consonants, a.AddConsonant)
	add("vowel", def.Alphabet.Vowels, a.AddVowel)

	m := phonology.NewModel(a)
	for _, sd := range def.Syllables {
		m.AddSyllable(sd.Template, sd.Weight, sd.Tags...)
	}

	keys := make([]string, 0, len(def.Groups))
	for k := range def.Groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key, ok := singleRune(k)
		if !ok {
			p.errorf("group %q: key must be a single character", k)
			continue
		}
		var letters []phonology.WeightedLetter
		for _, wl := range def.Groups[k] {
			r, ok := singleRune(wl.Letter)
			if !ok {
				p.errorf("group %q: letter %q must be a single character", k, wl.Letter)
				continue
			}
			letters = append(letters, phonology.WeightedLetter{Letter: r, Weight: wl.Weight})
		}
		if err := m.AddGroup(key, letters...); err != nil {
			p.errorf("%v", err)
		}
	}
	for _, err := range m.Validate() {
		p.warnf("%v", err)
	}
	return m
}

func buildLexicon(def *Definition, lex *lexicon.Lexicon, m *phonology.Model, p *problems) {
	lex.CustomOrder = def.Options.CustomAffixOrder
	for word, out := range def.Lexicon.Vocabulary {
		lex.AddVocabulary(word, out)
	}
	for root, out := range def.Lexicon.Roots {
		lex.AddRoot(root, out)
	}
	for root, templates := range def.Lexicon.Syllables {
		for _, t := range templates {
			if _, ok := m.SyllableByTemplate(t); ok {
				continue
			}
			for _, slot := range t {
				if _, ok := m.Groups[slot]; !ok {
					p.warnf("lexicon syllables for %q: unknown letter group %q", root, slot)
				}
			}
		}
		lex.SetSyllables(root, templates...)
	}
	for _, ad := range def.Affixes {
		if ad.Key == "" {
			p.errorf("affix with empty key")
			continue
		}
		match, err := lexicon.ParseSide(ad.Match)
		if err != nil {
			p.errorf("affix %q: %v", ad.Key, err)
			continue
		}
		emit := match
		if ad.Emit != "" {
			if emit, err = lexicon.ParseSide(ad.Emit); err != nil {
				p.errorf("affix %q: %v", ad.Key, err)
				continue
			}
		}
		if ad.Value == "" {
			if ad.Groups == "" {
				p.warnf("affix %q has neither value nor groups", ad.Key)
			}
			for _, slot := range ad.Groups {
				if _, ok := m.Groups[slot]; !ok {
					p.warnf("affix %q: unknown letter group %q", ad.Key, slot)
				}
			}
		}
		lex.AddAffix(&lexicon.Affix{
			Key:    ad.Key,
			Value:  ad.Value,
			Match:  match,
			Emit:   emit,
			Order:  ad.Order,
			Groups: ad.Groups,
		})
	}
}

func buildSelector(def *Definition, m *phonology.Model, p *problems) *selection.Selector {
	sel := selection.NewSelector(m)
	for i, rd := range def.Selection.Letters {
		switch strings.ToLower(rd.Rule) {
		case "exclude-start":
			sel.AddLetterRule(selection.ExcludeLettersAtStart(rd.Letters))
		case "exclude-end":
			sel.AddLetterRule(selection.ExcludeLettersAtEnd(rd.Letters))
		case "exclude-after":
			sel.AddLetterRule(selection.ExcludeAfter(rd.After, rd.Letters))
		case "no-double":
			sel.AddLetterRule(selection.NoDoubleLetters())
		case "scale":
			sel.AddLetterRule(selection.ScaleLetters(rd.Letters, rd.Factor))
		default:
			p.warnf("letter rule %d: unknown rule %q", i, rd.Rule)
		}
	}
	for i, rd := range def.Selection.Syllables {
		switch strings.ToLower(rd.Rule) {
		case "exclude-start-tags":
			sel.AddSyllableRule(selection.ExcludeSyllableTagsAtStart(rd.Tags...))
		case "exclude-end-tags":
			sel.AddSyllableRule(selection.ExcludeSyllableTagsAtEnd(rd.Tags...))
		case "scale-tag":
			for _, tag := range rd.Tags {
				sel.AddSyllableRule(selection.ScaleSyllableTag(tag, rd.Factor))
			}
		case "no-repeat":
			sel.AddSyllableRule(selection.NoRepeatedSyllable())
		default:
			p.warnf("syllable rule %d: unknown rule %q", i, rd.Rule)
		}
	}
	return sel
}

// NewGenerator returns a generator for this language with its own copy of
// the lexicon.
func (l *Language) NewGenerator() (*construct.Generator, error) {
	def := l.Definition
	g := construct.New(l.Deconstructor, l.Model, l.Lexicon.Clone(), l.Selector)
	g.Seeder = l.Seeder
	g.Logger = l.Logger.WithPrefix(l.Name + "/construct")

	opts := construct.DefaultOptions()
	opts.Strict = def.Strict
	opts.RandomCase = def.Options.RandomCase
	if def.Options.AutoCase != nil {
		opts.AutoCase = *def.Options.AutoCase
	}
	if def.Options.Memoize != nil {
		opts.Memoize = *def.Options.Memoize
	}
	if def.Options.FlagMarker != nil {
		opts.FlagMarker = *def.Options.FlagMarker
	}
	if def.Options.FailurePrefix != "" || def.Options.FailureSuffix != "" {
		pre, suf := def.Options.FailurePrefix, def.Options.FailureSuffix
		opts.FailureMarker = func(actual string) string { return pre + actual + suf }
	}
	if name := def.Options.Estimator; name != "" {
		est, ok := l.Estimators[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("language %q: unknown syllable estimator %q", l.Name, name)
		}
		opts.Estimator = est
	}
	if def.Skew.Min != 0 || def.Skew.MinStep != 0 {
		opts.SkewMin = construct.LinearSkew(def.Skew.Min, def.Skew.MinStep)
	}
	if def.Skew.Max != 0 || def.Skew.MaxStep != 0 {
		opts.SkewMax = construct.LinearSkew(def.Skew.Max, def.Skew.MaxStep)
	}
	g.Options = opts

	for _, c := range def.Construction {
		h, err := construct.Builtin(c.Handler)
		if err != nil {
			continue
		}
		if err := g.AddRule(c.Filter, c.Handler, h); err != nil {
			return nil, err
		}
	}
	for k, v := range def.Punctuation {
		g.Punctuation[k] = v
	}
	for k, v := range def.Numbers {
		r, _ := utf8.DecodeRuneInString(k)
		g.Numbers[r] = v
	}
	if def.Lexicon.ElideBoundaryVowels {
		g.OnPrefix(construct.ElidePrefixVowel(l.Model.Alphabet))
		g.OnSuffix(construct.ElideSuffixVowel(l.Model.Alphabet))
	}
	return g, nil
}
