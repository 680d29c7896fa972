package construct

import (
	"strings"
	"unicode"
)

func isEnglishVowel(r rune, first bool) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	case 'y':
		return !first
	}
	return false
}

// EnglishSyllables counts consonant-to-vowel boundaries in root, treating a
// trailing silent "e" as part of the previous syllable. It never returns
// less than one.
func EnglishSyllables(root string) int {
	var letters []rune
	for _, r := range strings.ToLower(root) {
		if unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}
	count := 0
	prevVowel := false
	for i, r := range letters {
		v := isEnglishVowel(r, i == 0)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	n := len(letters)
	if count > 1 && n > 2 && letters[n-1] == 'e' && letters[n-2] != 'l' && !isEnglishVowel(letters[n-2], false) {
		count--
	}
	if count < 1 {
		return 1
	}
	return count
}

// ConstantSkew ignores the estimate and always returns factor.
func ConstantSkew(factor float64) SkewFunc {
	return func(int) float64 { return factor }
}

// LinearSkew returns base plus step per estimated syllable beyond the first,
// so longer words can spread further.
func LinearSkew(base, step float64) SkewFunc {
	return func(est int) float64 { return base + step*float64(est-1) }
}
