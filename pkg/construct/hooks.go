package construct

import (
	"unicode/utf8"

	"github.com/japaniel/conlang/pkg/phonology"
)

// ElideSuffixVowel drops the first vowel of the innermost suffix when the
// core already ends in a vowel.
func ElideSuffixVowel(a *phonology.Alphabet) AffixHook {
	return func(s *Sentence, w *WordInfo, ai *AffixInfo) error {
		if ai.Inner() != nil || w.Core == "" || ai.Text == "" {
			return nil
		}
		last, _ := utf8.DecodeLastRuneInString(w.Core)
		first, size := utf8.DecodeRuneInString(ai.Text)
		if a.IsVowel(last) && a.IsVowel(first) {
			ai.Text = ai.Text[size:]
		}
		return nil
	}
}

// ElidePrefixVowel drops the last vowel of the innermost prefix when the
// core already starts with a vowel.
func ElidePrefixVowel(a *phonology.Alphabet) AffixHook {
	return func(s *Sentence, w *WordInfo, ai *AffixInfo) error {
		if ai.Inner() != nil || w.Core == "" || ai.Text == "" {
			return nil
		}
		first, _ := utf8.DecodeRuneInString(w.Core)
		last, size := utf8.DecodeLastRuneInString(ai.Text)
		if a.IsVowel(first) && a.IsVowel(last) {
			ai.Text = ai.Text[:len(ai.Text)-size]
		}
		return nil
	}
}
