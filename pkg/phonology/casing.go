package phonology

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CasePattern classifies how a source word was capitalized.
type CasePattern int

const (
	// LowerCase has no upper-case letters.
	LowerCase CasePattern = iota
	// Capitalized has only its first letter in upper case.
	Capitalized
	// UpperCase has every letter in upper case.
	UpperCase
	// MixedCase has no recognizable pattern.
	MixedCase
)

func (p CasePattern) String() string {
	switch p {
	case LowerCase:
		return "lower"
	case Capitalized:
		return "capitalized"
	case UpperCase:
		return "upper"
	default:
		return "mixed"
	}
}

// ClassifyCase inspects the letters of word and reports its case pattern.
// A single upper-case letter counts as Capitalized.
func ClassifyCase(word string) CasePattern {
	var letters, uppers int
	firstUpper := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			if letters == 0 {
				firstUpper = true
			}
			uppers++
		}
		letters++
	}
	switch {
	case uppers == 0:
		return LowerCase
	case firstUpper && uppers == 1:
		return Capitalized
	case uppers == letters:
		return UpperCase
	default:
		return MixedCase
	}
}

type casePair struct {
	lower string
	upper string
}

// CaseTable maps the lower-case forms of an alphabet to its upper-case
// forms. Runes outside the table fall back to generic Unicode casing.
type CaseTable struct {
	pairs []casePair
}

// NewCaseTable builds a case table from the letters of a.
func NewCaseTable(a *Alphabet) *CaseTable {
	t := &CaseTable{}
	for _, l := range a.Letters() {
		if l.Lower == "" {
			continue
		}
		t.pairs = append(t.pairs, casePair{lower: l.Lower, upper: l.Upper})
	}
	// Longest lower form first so digraphs win over their first letter.
	sort.SliceStable(t.pairs, func(i, j int) bool {
		return len(t.pairs[i].lower) > len(t.pairs[j].lower)
	})
	return t
}

// Segment is one written letter with its two case forms.
type Segment struct {
	Lower string
	Upper string
}

func runeSegment(r rune, text string) Segment {
	upper := text
	if unicode.IsLetter(r) {
		// Casers carry state, so one is made per use.
		upper = cases.Upper(language.Und).String(text)
	}
	return Segment{Lower: text, Upper: upper}
}

// Segment returns the case forms of the letter keyed by r, or the generic
// forms of r when the alphabet does not know it.
func (a *Alphabet) Segment(r rune) Segment {
	if l, ok := a.Lookup(r); ok {
		return Segment{Lower: l.Lower, Upper: l.Upper}
	}
	return runeSegment(r, string(r))
}

// Segments splits s into letters, longest table form first. Text whose
// letters are already known should be cased from them instead, since a
// greedy split cannot tell "n"+"g" from a digraph "ng".
func (t *CaseTable) Segments(s string) []Segment {
	var out []Segment
	for i := 0; i < len(s); {
		matched := false
		for _, p := range t.pairs {
			if strings.HasPrefix(s[i:], p.lower) {
				out = append(out, Segment{Lower: p.lower, Upper: p.upper})
				i += len(p.lower)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		out = append(out, runeSegment(r, s[i:i+size]))
		i += size
	}
	return out
}

// Upper maps every letter of s to its upper-case form.
func (t *CaseTable) Upper(s string) string { return ApplyCase(t.Segments(s), UpperCase) }

// Capitalize maps only the first letter of s to its upper-case form.
func (t *CaseTable) Capitalize(s string) string { return ApplyCase(t.Segments(s), Capitalized) }

// Randomize upper-cases each letter of s for which coin returns true.
func (t *CaseTable) Randomize(s string, coin func() bool) string {
	return RandomizeCase(t.Segments(s), coin)
}

// Apply restores pattern onto s. MixedCase is left untouched; callers that
// want random casing use Randomize.
func (t *CaseTable) Apply(s string, pattern CasePattern) string {
	return ApplyCase(t.Segments(s), pattern)
}

// JoinLower writes segs in lower case.
func JoinLower(segs []Segment) string {
	var sb strings.Builder
	for _, sg := range segs {
		sb.WriteString(sg.Lower)
	}
	return sb.String()
}

// ApplyCase writes segs in pattern. Capitalized upper-cases the first
// segment that has a distinct upper form; MixedCase writes lower case.
func ApplyCase(segs []Segment, pattern CasePattern) string {
	var sb strings.Builder
	done := pattern != Capitalized
	for _, sg := range segs {
		switch {
		case pattern == UpperCase:
			sb.WriteString(sg.Upper)
		case !done && sg.Upper != sg.Lower:
			sb.WriteString(sg.Upper)
			done = true
		default:
			sb.WriteString(sg.Lower)
		}
	}
	return sb.String()
}

// RandomizeCase upper-cases each segment for which coin returns true.
// Segments without a distinct upper form do not consume a coin.
func RandomizeCase(segs []Segment, coin func() bool) string {
	var sb strings.Builder
	for _, sg := range segs {
		if sg.Upper != sg.Lower && coin() {
			sb.WriteString(sg.Upper)
			continue
		}
		sb.WriteString(sg.Lower)
	}
	return sb.String()
}
