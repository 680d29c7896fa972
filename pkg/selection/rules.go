package selection

import (
	"fmt"
	"strings"

	"github.com/japaniel/conlang/pkg/phonology"
)

func runeSet(s string) map[rune]bool {
	m := make(map[rune]bool)
	for _, r := range s {
		m[r] = true
	}
	return m
}

// ExcludeLettersAtStart never starts a word with any of letters.
func ExcludeLettersAtStart(letters string) LetterRule {
	set := runeSet(letters)
	return LetterRule{
		Name: fmt.Sprintf("exclude-start %q", letters),
		Apply: func(q *LetterQuery) {
			if q.Position == 0 {
				q.Exclude(func(r rune) bool { return set[r] })
			}
		},
	}
}

// ExcludeLettersAtEnd never ends a word with any of letters.
func ExcludeLettersAtEnd(letters string) LetterRule {
	set := runeSet(letters)
	return LetterRule{
		Name: fmt.Sprintf("exclude-end %q", letters),
		Apply: func(q *LetterQuery) {
			if q.Position == q.Total-1 {
				q.Exclude(func(r rune) bool { return set[r] })
			}
		},
	}
}

// ExcludeAfter forbids any of letters directly after any of after.
func ExcludeAfter(after, letters string) LetterRule {
	prev, set := runeSet(after), runeSet(letters)
	return LetterRule{
		Name: fmt.Sprintf("exclude-after %q %q", after, letters),
		Apply: func(q *LetterQuery) {
			if prev[q.Previous()] {
				q.Exclude(func(r rune) bool { return set[r] })
			}
		},
	}
}

// NoDoubleLetters forbids the same letter twice in a row.
func NoDoubleLetters() LetterRule {
	return LetterRule{
		Name: "no-double",
		Apply: func(q *LetterQuery) {
			p := q.Previous()
			if p != 0 {
				q.Exclude(func(r rune) bool { return r == p })
			}
		},
	}
}

// ScaleLetters multiplies the weight of letters by factor.
func ScaleLetters(letters string, factor float64) LetterRule {
	set := runeSet(letters)
	return LetterRule{
		Name: fmt.Sprintf("scale %q x%g", letters, factor),
		Apply: func(q *LetterQuery) {
			q.Scale(func(r rune) bool { return set[r] }, factor)
		},
	}
}

func hasAnyTag(s *phonology.Syllable, tags []string) bool {
	for _, t := range tags {
		if s.HasTag(t) {
			return true
		}
	}
	return false
}

// ExcludeSyllableTagsAtStart keeps syllables carrying any of tags out of the first position.
func ExcludeSyllableTagsAtStart(tags ...string) SyllableRule {
	return SyllableRule{
		Name: "exclude-start-tags " + strings.Join(tags, ","),
		Apply: func(q *SyllableQuery) {
			if q.Position == 0 {
				q.Exclude(func(s *phonology.Syllable) bool { return hasAnyTag(s, tags) })
			}
		},
	}
}

// ExcludeSyllableTagsAtEnd keeps syllables carrying any of tags out of the last position.
func ExcludeSyllableTagsAtEnd(tags ...string) SyllableRule {
	return SyllableRule{
		Name: "exclude-end-tags " + strings.Join(tags, ","),
		Apply: func(q *SyllableQuery) {
			if q.Position == q.Total-1 {
				q.Exclude(func(s *phonology.Syllable) bool { return hasAnyTag(s, tags) })
			}
		},
	}
}

// ScaleSyllableTag multiplies the weight of syllables carrying tag.
func ScaleSyllableTag(tag string, factor float64) SyllableRule {
	return SyllableRule{
		Name: fmt.Sprintf("scale-tag %s x%g", tag, factor),
		Apply: func(q *SyllableQuery) {
			q.Scale(func(s *phonology.Syllable) bool { return s.HasTag(tag) }, factor)
		},
	}
}

// NoRepeatedSyllable forbids drawing the same template twice in a row.
func NoRepeatedSyllable() SyllableRule {
	return SyllableRule{
		Name: "no-repeat-syllable",
		Apply: func(q *SyllableQuery) {
			if p := q.Previous(); p != nil {
				q.Exclude(func(s *phonology.Syllable) bool { return s.Template == p.Template })
			}
		},
	}
}
