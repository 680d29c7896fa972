package construct

import (
	"github.com/japaniel/conlang/pkg/deconstruct"
	"github.com/japaniel/conlang/pkg/lexicon"
	"github.com/japaniel/conlang/pkg/phonology"
)

// Stage is the position of a word in the construction state machine.
type Stage int

const (
	Unprocessed Stage = iota
	VocabularyChecked
	AffixesExtracted
	SyllablesPopulated
	LettersPopulated
	AffixesReassembled
	CaseApplied
	Processed
)

var stageNames = [...]string{
	"unprocessed",
	"vocabulary-checked",
	"affixes-extracted",
	"syllables-populated",
	"letters-populated",
	"affixes-reassembled",
	"case-applied",
	"processed",
}

func (s Stage) String() string {
	if int(s) < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Source records where a word's final text came from.
type Source string

const (
	FromVerbatim   Source = "verbatim"
	FromVocabulary Source = "vocabulary"
	FromRoot       Source = "root"
	FromGenerated  Source = "generated"
	FromFlag       Source = "flag"
	FromTable      Source = "table"
	FromFailure    Source = "failure"
)

// SyllableInfo binds a chosen template to its position in a word.
type SyllableInfo struct {
	Syllable  *phonology.Syllable
	Index     int
	Processed bool
	word      *WordInfo
}

// Prev returns the syllable to the left, or nil.
func (si *SyllableInfo) Prev() *SyllableInfo {
	if si.Index == 0 {
		return nil
	}
	return si.word.Syllables[si.Index-1]
}

// Next returns the syllable to the right, or nil.
func (si *SyllableInfo) Next() *SyllableInfo {
	if si.Index+1 >= len(si.word.Syllables) {
		return nil
	}
	return si.word.Syllables[si.Index+1]
}

// LetterInfo binds a chosen letter to its syllable slot.
type LetterInfo struct {
	Letter rune
	// Text is the written lower-case form of the letter.
	Text      string
	Syllable  int
	Slot      int
	Group     rune
	Index     int
	Processed bool
	word      *WordInfo
}

// Prev returns the letter to the left, or nil.
func (li *LetterInfo) Prev() *LetterInfo {
	if li.Index == 0 {
		return nil
	}
	return li.word.Letters[li.Index-1]
}

// Next returns the letter to the right, or nil.
func (li *LetterInfo) Next() *LetterInfo {
	if li.Index+1 >= len(li.word.Letters) {
		return nil
	}
	return li.word.Letters[li.Index+1]
}

// AffixInfo binds a matched affix to its emitted text. Index counts from
// the root outward within its list.
type AffixInfo struct {
	Affix     *lexicon.Affix
	Text      string
	Index     int
	Processed bool
	list      []*AffixInfo
}

// Inner returns the sibling closer to the root, or nil.
func (ai *AffixInfo) Inner() *AffixInfo {
	if ai.Index == 0 {
		return nil
	}
	return ai.list[ai.Index-1]
}

// Outer returns the sibling farther from the root, or nil.
func (ai *AffixInfo) Outer() *AffixInfo {
	if ai.Index+1 >= len(ai.list) {
		return nil
	}
	return ai.list[ai.Index+1]
}

// WordInfo is the construction unit created from one live block.
type WordInfo struct {
	Index      int
	Actual     string
	Filter     deconstruct.FilterID
	FilterName string
	Block      *deconstruct.Block
	Flags      []Flag

	// Root is the word without its affixes. RootOverride, when set by a
	// flag or interceptor, replaces it before seeding.
	Root         string
	RootOverride string
	SkipLexeme   bool
	Seed         int32
	Case         phonology.CasePattern

	Core       string
	PrefixText string
	SuffixText string
	Final      string

	Syllables []*SyllableInfo
	Letters   []*LetterInfo
	// Prefixes and Suffixes run from the root outward.
	Prefixes []*AffixInfo
	Suffixes []*AffixInfo

	Stage       Stage
	Source      Source
	IsProcessed bool
	Hidden      bool
	Err         error

	segments []phonology.Segment
	seeded   bool
	sentence *Sentence
}

// Prev returns the word built from the block to the left, or nil.
func (w *WordInfo) Prev() *WordInfo {
	if w.Index == 0 {
		return nil
	}
	return w.sentence.Words[w.Index-1]
}

// Next returns the word built from the block to the right, or nil.
func (w *WordInfo) Next() *WordInfo {
	if w.Index+1 >= len(w.sentence.Words) {
		return nil
	}
	return w.sentence.Words[w.Index+1]
}

// HasFlag reports whether the word carries the named flag.
func (w *WordInfo) HasFlag(name string) bool {
	for _, f := range w.Flags {
		if f.Name == name {
			return true
		}
	}
	return false
}

// AddSyllable appends a syllable and links it to its neighbors.
func (w *WordInfo) AddSyllable(s *phonology.Syllable) *SyllableInfo {
	si := &SyllableInfo{Syllable: s, Index: len(w.Syllables), word: w}
	w.Syllables = append(w.Syllables, si)
	return si
}

// AddLetter appends a letter and links it to its neighbors.
func (w *WordInfo) AddLetter(li LetterInfo) *LetterInfo {
	li.Index = len(w.Letters)
	li.word = w
	p := &li
	w.Letters = append(w.Letters, p)
	return p
}

func newAffixList(affixes []*lexicon.Affix) []*AffixInfo {
	list := make([]*AffixInfo, len(affixes))
	for i, a := range affixes {
		list[i] = &AffixInfo{Affix: a, Index: i}
	}
	for _, ai := range list {
		ai.list = list
	}
	return list
}
