package document

import (
	"strings"
	"unicode"
)

// SplitSentences splits text after sentence terminators and newlines.
// Japanese terminators (。！？) always end a sentence; ASCII ones (.!?) only
// when followed by whitespace or the end of text, so "3.14" stays whole.
// Sentences are trimmed and blank ones dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		switch r {
		case '。', '！', '？', '\n':
			flush()
		case '.', '!', '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sentences
}
