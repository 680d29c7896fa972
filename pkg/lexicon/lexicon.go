// Package lexicon stores whole-word and root overrides for a language and
// strips known affixes off input words.
package lexicon

import (
	"sort"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheSize bounds the number of cached affix extractions.
const CacheSize = 4096

// Extraction is the result of stripping every recognized affix off a word.
// Prefixes and Suffixes are in discovery order: outermost first.
type Extraction struct {
	Root     string
	Prefixes []*Affix
	Suffixes []*Affix
}

// Lexicon holds vocabulary, roots, fixed syllable sequences and affixes.
// It is not safe for concurrent mutation; use Clone to give each generator
// its own vocabulary.
type Lexicon struct {
	// CustomOrder arranges affixes by their Order instead of discovery order.
	CustomOrder bool

	vocabulary map[string]string
	roots      map[string]string
	syllables  map[string][]string

	affixes  []*Affix
	prefixes []*Affix
	suffixes []*Affix
	cache    *lru.Cache[string, Extraction]
}

// New returns an empty lexicon.
func New() *Lexicon {
	cache, _ := lru.New[string, Extraction](CacheSize)
	return &Lexicon{
		vocabulary: make(map[string]string),
		roots:      make(map[string]string),
		syllables:  make(map[string][]string),
		cache:      cache,
	}
}

// Clone copies the vocabulary, root and syllable maps. Affixes are shared.
func (l *Lexicon) Clone() *Lexicon {
	c := New()
	c.CustomOrder = l.CustomOrder
	for k, v := range l.vocabulary {
		c.vocabulary[k] = v
	}
	for k, v := range l.roots {
		c.roots[k] = v
	}
	for k, v := range l.syllables {
		c.syllables[k] = v
	}
	c.affixes = l.affixes
	c.prefixes = l.prefixes
	c.suffixes = l.suffixes
	return c
}

func key(word string) string { return strings.ToLower(word) }

// AddVocabulary maps a whole word to its output. Lookups are case-insensitive.
func (l *Lexicon) AddVocabulary(word, output string) {
	l.vocabulary[key(word)] = output
}

// Vocabulary looks up a whole-word override.
func (l *Lexicon) Vocabulary(word string) (string, bool) {
	v, ok := l.vocabulary[key(word)]
	return v, ok
}

// VocabularySize returns the number of vocabulary entries.
func (l *Lexicon) VocabularySize() int { return len(l.vocabulary) }

// EachVocabulary calls fn for every vocabulary entry in key order.
func (l *Lexicon) EachVocabulary(fn func(word, output string)) {
	keys := make([]string, 0, len(l.vocabulary))
	for k := range l.vocabulary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(k, l.vocabulary[k])
	}
}

// AddRoot maps a root to a fixed core; affixes still apply around it.
func (l *Lexicon) AddRoot(root, output string) {
	l.roots[key(root)] = output
}

// Root looks up a root override.
func (l *Lexicon) Root(root string) (string, bool) {
	v, ok := l.roots[key(root)]
	return v, ok
}

// SetSyllables fixes the syllable templates used for root. Letters are
// still drawn normally.
func (l *Lexicon) SetSyllables(root string, templates ...string) {
	l.syllables[key(root)] = templates
}

// Syllables returns the fixed syllable templates for root, if any.
func (l *Lexicon) Syllables(root string) ([]string, bool) {
	v, ok := l.syllables[key(root)]
	return v, ok
}

// AddAffix registers an affix. A key on both the prefix and suffix lists is
// allowed; the two sides are matched independently.
func (l *Lexicon) AddAffix(a *Affix) {
	l.affixes = append(l.affixes, a)
	l.prefixes = byLongestKey(l.affixes, Prefix)
	l.suffixes = byLongestKey(l.affixes, Suffix)
	l.cache.Purge()
}

// Affixes returns the registered affixes in registration order.
func (l *Lexicon) Affixes() []*Affix { return l.affixes }

func byLongestKey(all []*Affix, side Side) []*Affix {
	var out []*Affix
	for _, a := range all {
		if a.Match == side && a.Key != "" {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].Key) > utf8.RuneCountInString(out[j].Key)
	})
	return out
}

// ExtractPrefixes strips prefixes off word, longest key first, restarting
// from the longest key after every match. It returns the affixes outermost
// first and the remaining text. An affix never consumes the whole word.
func (l *Lexicon) ExtractPrefixes(word string) ([]*Affix, string) {
	return strip(l.prefixes, []rune(word), Prefix)
}

// ExtractSuffixes is the suffix counterpart of ExtractPrefixes.
func (l *Lexicon) ExtractSuffixes(word string) ([]*Affix, string) {
	return strip(l.suffixes, []rune(word), Suffix)
}

func strip(candidates []*Affix, rest []rune, side Side) ([]*Affix, string) {
	var found []*Affix
	for {
		matched := false
		for _, a := range candidates {
			n := utf8.RuneCountInString(a.Key)
			if n >= len(rest) {
				continue
			}
			var part string
			if side == Prefix {
				part = string(rest[:n])
			} else {
				part = string(rest[len(rest)-n:])
			}
			if !strings.EqualFold(part, a.Key) {
				continue
			}
			found = append(found, a)
			if side == Prefix {
				rest = rest[n:]
			} else {
				rest = rest[:len(rest)-n]
			}
			matched = true
			break
		}
		if !matched {
			return found, string(rest)
		}
	}
}

// Extract strips prefixes, then suffixes, off word.
func (l *Lexicon) Extract(word string) Extraction {
	if ex, ok := l.cache.Get(word); ok {
		return ex
	}
	prefixes, rest := l.ExtractPrefixes(word)
	suffixes, root := l.ExtractSuffixes(rest)
	ex := Extraction{Root: root, Prefixes: prefixes, Suffixes: suffixes}
	l.cache.Add(word, ex)
	return ex
}

// Arrange distributes the affixes of ex by emit side. Both returned lists
// run from the root outward: index 0 is adjacent to the root. Without custom
// ordering this reverses discovery order, so the last-stripped affix ends up
// next to the root.
func (l *Lexicon) Arrange(ex Extraction) (prefixes, suffixes []*Affix) {
	place := func(list []*Affix) {
		for i := len(list) - 1; i >= 0; i-- {
			a := list[i]
			if a.Emit == Prefix {
				prefixes = append(prefixes, a)
			} else {
				suffixes = append(suffixes, a)
			}
		}
	}
	place(ex.Prefixes)
	place(ex.Suffixes)

	if l.CustomOrder {
		byOrder := func(list []*Affix) {
			sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
		}
		byOrder(prefixes)
		byOrder(suffixes)
	}
	return prefixes, suffixes
}
