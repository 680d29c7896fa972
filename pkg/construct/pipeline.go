package construct

import (
	"fmt"
	"math"
	"strings"

	"github.com/japaniel/conlang/pkg/lexicon"
	"github.com/japaniel/conlang/pkg/phonology"
	"github.com/japaniel/conlang/pkg/selection"
)

// Generate is the default handler for word-like filters. It runs the word
// through vocabulary lookup, affix extraction, syllable and letter
// selection, affix reassembly, memoization and case restoration.
func Generate(s *Sentence, w *WordInfo) error {
	g := s.gen
	w.Case = phonology.ClassifyCase(w.Actual)

	if v, ok := g.Lexicon.Vocabulary(w.Actual); ok && len(w.Flags) == 0 {
		w.Final = v
		w.Source = FromVocabulary
		if segs, ok := g.memo[strings.ToLower(w.Actual)]; ok && phonology.JoinLower(segs) == v {
			w.segments = segs
		}
		return g.finish(s, w)
	}
	if done, err := g.advance(s, w, VocabularyChecked); done || err != nil {
		return err
	}

	if w.SkipLexeme {
		w.Root = w.Actual
	} else {
		ex := g.Lexicon.Extract(w.Actual)
		prefixes, suffixes := g.Lexicon.Arrange(ex)
		w.Root = ex.Root
		w.Prefixes = newAffixList(prefixes)
		w.Suffixes = newAffixList(suffixes)
	}
	if w.RootOverride != "" {
		w.Root = w.RootOverride
	}
	if done, err := g.advance(s, w, AffixesExtracted); done || err != nil {
		return err
	}

	if core, ok := g.Lexicon.Root(w.Root); ok {
		w.Core = core
		w.Source = FromRoot
	} else {
		if err := g.populate(s, w); err != nil {
			return err
		}
		if w.IsProcessed {
			return nil
		}
		w.Source = FromGenerated
	}

	if err := g.reassemble(s, w); err != nil {
		return err
	}
	if done, err := g.advance(s, w, AffixesReassembled); done || err != nil {
		return err
	}

	w.Final = w.PrefixText + w.Core + w.SuffixText
	w.segments = g.wordSegments(w)
	if g.Options.Memoize && len(w.Flags) == 0 {
		g.Lexicon.AddVocabulary(w.Actual, w.Final)
		g.memo[strings.ToLower(w.Actual)] = w.segments
	}
	return g.finish(s, w)
}

// wordSegments splits a reassembled word into letters. A generated core is
// split along its chosen letters; affixes and lexicon roots go through the
// case table.
func (g *Generator) wordSegments(w *WordInfo) []phonology.Segment {
	segs := g.Cases.Segments(w.PrefixText)
	var core []phonology.Segment
	var joined strings.Builder
	for _, li := range w.Letters {
		core = append(core, phonology.Segment{Lower: li.Text, Upper: g.Model.Alphabet.Segment(li.Letter).Upper})
		joined.WriteString(li.Text)
	}
	if w.Source != FromGenerated || joined.String() != w.Core {
		core = g.Cases.Segments(w.Core)
	}
	segs = append(segs, core...)
	return append(segs, g.Cases.Segments(w.SuffixText)...)
}

// finish restores the source case and marks the word processed.
func (g *Generator) finish(s *Sentence, w *WordInfo) error {
	if g.Options.AutoCase {
		segs := w.segments
		if segs == nil {
			segs = g.Cases.Segments(w.Final)
		}
		w.Final = g.restoreCase(segs, w.Actual, w.Case)
	}
	if done, err := g.advance(s, w, CaseApplied); done || err != nil {
		return err
	}
	w.Stage = Processed
	w.IsProcessed = true
	return nil
}

func (g *Generator) restoreCase(segs []phonology.Segment, actual string, pattern phonology.CasePattern) string {
	if pattern == phonology.MixedCase && g.Options.RandomCase {
		rng := g.Seeder.Rand(actual)
		return phonology.RandomizeCase(segs, func() bool { return rng.IntN(2) == 1 })
	}
	return phonology.ApplyCase(segs, pattern)
}

// populate fills syllables and letters from the root's seed. Anything an
// interceptor already placed on the word is kept.
func (g *Generator) populate(s *Sentence, w *WordInfo) error {
	w.Seed = g.Seeder.Seed(w.Root)
	w.seeded = true
	rng := selection.NewRand(w.Seed)

	if len(w.Syllables) == 0 {
		if templates, ok := g.Lexicon.Syllables(w.Root); ok {
			for _, t := range templates {
				syl, known := g.Model.SyllableByTemplate(t)
				if !known {
					syl = &phonology.Syllable{Template: t, Weight: 1}
				}
				w.AddSyllable(syl).Processed = true
			}
		} else {
			count := g.syllableCount(w.Root, rng.Float64())
			chosen := make([]*phonology.Syllable, 0, count)
			for i := 0; i < count; i++ {
				syl, err := g.Selector.SelectSyllable(rng, w.Root, i, count, chosen)
				if err != nil {
					return err
				}
				chosen = append(chosen, syl)
				w.AddSyllable(syl).Processed = true
			}
		}
	}
	if done, err := g.advance(s, w, SyllablesPopulated); done || err != nil {
		return err
	}

	if len(w.Letters) == 0 {
		total := 0
		for _, si := range w.Syllables {
			total += len(si.Syllable.Slots())
		}
		chosen := make([]rune, 0, total)
		for _, si := range w.Syllables {
			for slot, group := range si.Syllable.Slots() {
				r, err := g.Selector.SelectLetter(rng, selection.LetterContext{
					Word:          w.Root,
					Syllable:      si.Syllable,
					SyllableIndex: si.Index,
					SyllableCount: len(w.Syllables),
					Group:         group,
					Position:      len(chosen),
					Total:         total,
					Chosen:        chosen,
				})
				if err != nil {
					return err
				}
				chosen = append(chosen, r)
				w.AddLetter(LetterInfo{
					Letter:    r,
					Text:      g.letterText(r),
					Syllable:  si.Index,
					Slot:      slot,
					Group:     group,
					Processed: true,
				})
			}
		}
	}
	var core strings.Builder
	for _, li := range w.Letters {
		core.WriteString(li.Text)
	}
	w.Core = core.String()
	_, err := g.advance(s, w, LettersPopulated)
	return err
}

// syllableCount scales the estimate by a factor u in [0,1) placed between
// the skew bounds, flooring at one syllable.
func (g *Generator) syllableCount(root string, u float64) int {
	est := g.Options.Estimator(root)
	lo, hi := g.Options.SkewMin(est), g.Options.SkewMax(est)
	if hi < lo {
		lo, hi = hi, lo
	}
	n := int(math.Floor(float64(est) * (lo + u*(hi-lo))))
	if n < 1 {
		return 1
	}
	return n
}

func (g *Generator) letterText(r rune) string {
	if l, ok := g.Model.Alphabet.Lookup(r); ok {
		return l.Lower
	}
	return string(r)
}

// reassemble fills every affix's text and joins them around the core.
// Prefixes are written outermost first; suffixes root outward.
func (g *Generator) reassemble(s *Sentence, w *WordInfo) error {
	fill := func(list []*AffixInfo, hooks []AffixHook) error {
		for _, ai := range list {
			if !ai.Processed {
				text, err := g.affixText(ai.Affix)
				if err != nil {
					return err
				}
				ai.Text = text
			}
			for _, h := range hooks {
				if ai.Processed {
					break
				}
				if err := h(s, w, ai); err != nil {
					return fmt.Errorf("affix %s: %w", ai.Affix.Key, err)
				}
			}
			ai.Processed = true
		}
		return nil
	}
	if err := fill(w.Prefixes, g.prefixHooks); err != nil {
		return err
	}
	if err := fill(w.Suffixes, g.suffixHooks); err != nil {
		return err
	}

	var pre, suf strings.Builder
	for i := len(w.Prefixes) - 1; i >= 0; i-- {
		pre.WriteString(w.Prefixes[i].Text)
	}
	for _, ai := range w.Suffixes {
		suf.WriteString(ai.Text)
	}
	w.PrefixText, w.SuffixText = pre.String(), suf.String()
	return nil
}

// affixText returns the fixed value of a, or generates one from its letter
// groups seeded by the affix key. Generated values are cached per generator.
func (g *Generator) affixText(a *lexicon.Affix) (string, error) {
	if !a.Procedural() {
		return a.Value, nil
	}
	key := a.Match.String() + ":" + a.Key
	if v, ok := g.procedural[key]; ok {
		return v, nil
	}
	slots := []rune(a.Groups)
	rng := g.Seeder.Rand(key)
	chosen := make([]rune, 0, len(slots))
	var b strings.Builder
	for i, group := range slots {
		r, err := g.Selector.SelectLetter(rng, selection.LetterContext{
			Word:     a.Key,
			Group:    group,
			Position: i,
			Total:    len(slots),
			Chosen:   chosen,
		})
		if err != nil {
			return "", err
		}
		chosen = append(chosen, r)
		b.WriteString(g.letterText(r))
	}
	g.procedural[key] = b.String()
	return b.String(), nil
}
