// Package construct drives word generation: it deconstructs a sentence into
// blocks, turns each live block into a WordInfo and runs the per-filter
// construction rules over the words from left to right.
package construct

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"

	"github.com/japaniel/conlang/pkg/deconstruct"
	"github.com/japaniel/conlang/pkg/lexicon"
	"github.com/japaniel/conlang/pkg/phonology"
	"github.com/japaniel/conlang/pkg/selection"
)

// Handler processes one word. A handler that finishes the word sets
// w.IsProcessed; otherwise the next rule for the filter runs.
type Handler func(s *Sentence, w *WordInfo) error

// Rule is a named handler bound to one filter.
type Rule struct {
	Filter  deconstruct.FilterID
	Name    string
	Handler Handler
}

// Interceptor runs when a word reaches a stage of the generate pipeline.
type Interceptor func(s *Sentence, w *WordInfo) error

// AffixHook may rewrite a.Text. Setting a.Processed stops later hooks for
// that affix.
type AffixHook func(s *Sentence, w *WordInfo, a *AffixInfo) error

// SyllableEstimator guesses how many syllables a root has.
type SyllableEstimator func(root string) int

// SkewFunc maps an estimated syllable count to a scale factor bound.
type SkewFunc func(estimated int) float64

// Options tune generation. The zero value is usable but plain; see
// DefaultOptions.
type Options struct {
	AutoCase   bool
	RandomCase bool
	Memoize    bool
	// Strict turns unknown filter names in AddRule into errors.
	Strict bool
	// FlagMarker introduces flag commands after a word. Empty disables flags.
	FlagMarker string
	Estimator  SyllableEstimator
	SkewMin    SkewFunc
	SkewMax    SkewFunc
	// FailureMarker renders the output of a word whose generation failed.
	FailureMarker func(actual string) string
}

// DefaultOptions returns the options used by New.
func DefaultOptions() Options {
	return Options{
		AutoCase:      true,
		Memoize:       true,
		FlagMarker:    "::",
		Estimator:     EnglishSyllables,
		SkewMin:       ConstantSkew(1),
		SkewMax:       ConstantSkew(1),
		FailureMarker: func(actual string) string { return "{!" + actual + "}" },
	}
}

// Generator turns sentences into conlang text. A Generator is not safe for
// concurrent use; memoization writes into its Lexicon. Use Clone to get an
// independent generator per goroutine.
type Generator struct {
	Filters       *deconstruct.FilterTable
	Deconstructor *deconstruct.Deconstructor
	Model         *phonology.Model
	Cases         *phonology.CaseTable
	Lexicon       *lexicon.Lexicon
	Selector      *selection.Selector
	Seeder        selection.Seeder
	Options       Options
	Logger        *log.Logger

	// Punctuation maps block text, or single characters, to replacements.
	Punctuation map[string]string
	// Numbers maps digits to replacements.
	Numbers map[rune]string

	rules        []Rule
	interceptors map[Stage][]Interceptor
	prefixHooks  []AffixHook
	suffixHooks  []AffixHook
	flags        map[string]FlagAction
	procedural   map[string]string
	// memo keeps the letter split of memoized words for case restoration.
	memo map[string][]phonology.Segment
}

// New wires a generator from its collaborators with DefaultOptions and the
// built-in flags registered.
func New(d *deconstruct.Deconstructor, model *phonology.Model, lex *lexicon.Lexicon, sel *selection.Selector) *Generator {
	g := &Generator{
		Filters:       d.Filters,
		Deconstructor: d,
		Model:         model,
		Cases:         phonology.NewCaseTable(model.Alphabet),
		Lexicon:       lex,
		Selector:      sel,
		Options:       DefaultOptions(),
		Logger:        log.NewWithOptions(io.Discard, log.Options{Prefix: "construct"}),
		Punctuation:   map[string]string{},
		Numbers:       map[rune]string{},
		interceptors:  map[Stage][]Interceptor{},
		flags:         map[string]FlagAction{},
		procedural:    map[string]string{},
		memo:          map[string][]phonology.Segment{},
	}
	registerBuiltinFlags(g)
	return g
}

// Clone returns a generator sharing configuration with g but owning a copy
// of the lexicon, so memoization in one does not race with the other.
func (g *Generator) Clone() *Generator {
	c := *g
	c.Lexicon = g.Lexicon.Clone()
	c.Cases = phonology.NewCaseTable(g.Model.Alphabet)
	c.procedural = map[string]string{}
	c.memo = make(map[string][]phonology.Segment, len(g.memo))
	for k, v := range g.memo {
		c.memo[k] = v
	}
	return &c
}

// AddRule binds handler to the named filter after any existing rules for it.
// An unknown filter is logged and skipped unless Options.Strict is set.
func (g *Generator) AddRule(filter, name string, h Handler) error {
	id, ok := g.Filters.Lookup(filter)
	if !ok {
		if g.Options.Strict {
			return fmt.Errorf("construction rule %q: %w: %s", name, deconstruct.ErrUnknownFilter, filter)
		}
		g.Logger.Warn("construction rule references unknown filter; rule skipped", "rule", name, "filter", filter)
		return nil
	}
	g.rules = append(g.rules, Rule{Filter: id, Name: name, Handler: h})
	return nil
}

// Rules returns the registered construction rules in order.
func (g *Generator) Rules() []Rule { return g.rules }

// Intercept registers fn to run whenever a word reaches stage.
func (g *Generator) Intercept(stage Stage, fn Interceptor) {
	g.interceptors[stage] = append(g.interceptors[stage], fn)
}

// OnPrefix registers a hook for every emitted prefix.
func (g *Generator) OnPrefix(h AffixHook) { g.prefixHooks = append(g.prefixHooks, h) }

// OnSuffix registers a hook for every emitted suffix.
func (g *Generator) OnSuffix(h AffixHook) { g.suffixHooks = append(g.suffixHooks, h) }

// GenerateString is Generate returning only the output text.
func (g *Generator) GenerateString(sentence string) (string, error) {
	res, err := g.Generate(sentence)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// Generate processes one sentence. Word-level failures do not abort the
// sentence; they are rendered with the failure marker and collected in
// Result.Errors. The returned error covers only flag parsing.
func (g *Generator) Generate(sentence string) (*Result, error) {
	input := norm.NFC.String(sentence)
	clean, marks, err := extractFlags(input, g.Options.FlagMarker)
	if err != nil {
		return nil, err
	}

	s := &Sentence{Input: input, Text: clean, gen: g}
	s.Blocks = g.Deconstructor.Deconstruct(clean)
	s.Words = make([]*WordInfo, len(s.Blocks))
	for i, b := range s.Blocks {
		s.Words[i] = &WordInfo{
			Index:      i,
			Actual:     b.Text,
			Filter:     b.Filter,
			FilterName: g.Filters.Name(b.Filter),
			Block:      b,
			sentence:   s,
		}
	}
	for _, m := range marks {
		if w := s.wordAt(m.pos); w != nil {
			w.Flags = append(w.Flags, m.flags...)
		}
	}

	for _, w := range s.Words {
		if err := g.process(s, w); err != nil {
			g.fail(s, w, err)
		}
	}

	var out strings.Builder
	for _, w := range s.Words {
		if !w.Hidden {
			out.WriteString(w.Final)
		}
	}
	s.Output = out.String()
	return s, nil
}

func (g *Generator) process(s *Sentence, w *WordInfo) error {
	for _, f := range w.Flags {
		action, ok := g.flags[f.Name]
		if !ok {
			g.Logger.Warn("unknown flag ignored", "flag", f.Name, "word", w.Actual)
			continue
		}
		if err := action(s, w, f.Arg); err != nil {
			return fmt.Errorf("flag %s: %w", f.Name, err)
		}
	}
	for _, r := range g.rules {
		if w.IsProcessed {
			break
		}
		if r.Filter != w.Filter {
			continue
		}
		if err := r.Handler(s, w); err != nil {
			return fmt.Errorf("rule %s: %w", r.Name, err)
		}
	}
	if !w.IsProcessed {
		return Verbatim(s, w)
	}
	return nil
}

func (g *Generator) fail(s *Sentence, w *WordInfo, err error) {
	w.Err = err
	w.Final = g.Options.FailureMarker(w.Actual)
	w.Source = FromFailure
	w.IsProcessed = true
	s.Errors = append(s.Errors, &WordError{Word: w.Actual, Index: w.Index, Err: err})
	g.Logger.Warn("word generation failed", "word", w.Actual, "err", err)
}

// advance moves w to stage and runs its interceptors. It reports true when
// an interceptor finished the word.
func (g *Generator) advance(s *Sentence, w *WordInfo, stage Stage) (bool, error) {
	w.Stage = stage
	for _, fn := range g.interceptors[stage] {
		if err := fn(s, w); err != nil {
			return false, fmt.Errorf("interceptor at %s: %w", stage, err)
		}
		if w.IsProcessed {
			return true, nil
		}
	}
	return false, nil
}

// WordError wraps the failure of a single word.
type WordError struct {
	Word  string
	Index int
	Err   error
}

func (e *WordError) Error() string {
	return fmt.Sprintf("word %d %q: %v", e.Index, e.Word, e.Err)
}

func (e *WordError) Unwrap() error { return e.Err }
