// Package phonology holds the phonotactic model of a language: its alphabet,
// syllable templates and weighted letter groups.
package phonology

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Letter is one entry of an alphabet.
type Letter struct {
	Key           rune
	Name          string
	Pronunciation string
	// Lower and Upper are the case pair used when writing the letter. They may
	// differ from generic casing (digraphs, diacritics).
	Lower  string
	Upper  string
	Weight float64
}

// Alphabet splits letters into consonants and vowels. A key exists in at
// most one of the two maps.
type Alphabet struct {
	Consonants map[rune]*Letter
	Vowels     map[rune]*Letter
}

// NewAlphabet returns an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{
		Consonants: make(map[rune]*Letter),
		Vowels:     make(map[rune]*Letter),
	}
}

// AddConsonant registers a consonant. An empty Lower defaults to the key and
// an empty Upper to the generic upper case of Lower.
func (a *Alphabet) AddConsonant(l Letter) error {
	return a.add(a.Consonants, l)
}

// AddVowel registers a vowel with the same defaults as AddConsonant.
func (a *Alphabet) AddVowel(l Letter) error {
	return a.add(a.Vowels, l)
}

func (a *Alphabet) add(m map[rune]*Letter, l Letter) error {
	if _, ok := a.Lookup(l.Key); ok {
		return fmt.Errorf("letter %q already registered", l.Key)
	}
	if l.Lower == "" {
		l.Lower = string(l.Key)
	}
	if l.Upper == "" {
		l.Upper = cases.Upper(language.Und).String(l.Lower)
	}
	if l.Weight == 0 {
		l.Weight = 1
	}
	m[l.Key] = &l
	return nil
}

// Lookup finds a letter in either map.
func (a *Alphabet) Lookup(key rune) (*Letter, bool) {
	if l, ok := a.Consonants[key]; ok {
		return l, true
	}
	l, ok := a.Vowels[key]
	return l, ok
}

// IsVowel reports whether key is a registered vowel.
func (a *Alphabet) IsVowel(key rune) bool {
	_, ok := a.Vowels[key]
	return ok
}

// Letters returns every letter sorted by key, consonants and vowels mixed.
func (a *Alphabet) Letters() []*Letter {
	out := make([]*Letter, 0, len(a.Consonants)+len(a.Vowels))
	for _, l := range a.Consonants {
		out = append(out, l)
	}
	for _, l := range a.Vowels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
