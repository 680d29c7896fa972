// Package document turns source material into sentences ready for
// generation: article extraction from HTML, sentence splitting and, for
// Japanese text, kagome-based word segmentation and mora counting.
package document

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/conlang/pkg/construct"
)

// auxiliaryPOS marks auxiliary verbs, which stay attached to the word
// they conjugate.
const auxiliaryPOS = "助動詞"

// Token represents a single analyzed unit of text.
type Token struct {
	Surface    string // The text as it appears (e.g. "行っ")
	Reading    string // The pronunciation (katakana, e.g. "イッ")
	PrimaryPOS string
}

// Analyzer segments Japanese text with the IPA dictionary.
type Analyzer struct {
	mu sync.Mutex
	t  *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

func (a *Analyzer) tokenize(text string) []tokenizer.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.t.Tokenize(text)
}

// Analyze breaks text into tokens with readings and parts of speech.
// Whitespace tokens are dropped.
func (a *Analyzer) Analyze(text string) []Token {
	var result []Token
	for _, token := range a.tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0-3 POS, 4-5 conjugation, 6 base form, 7 reading.
		features := token.Features()
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		result = append(result, Token{
			Surface:    token.Surface,
			Reading:    reading,
			PrimaryPOS: primaryPOS(features),
		})
	}
	return result
}

func primaryPOS(features []string) string {
	if len(features) == 0 {
		return ""
	}
	return features[0]
}

// Segment inserts a space between adjacent Japanese words so the
// deconstructor sees them as separate blocks. Auxiliary verbs stay joined
// to the preceding word, so "行った" remains one word. Other text is left
// alone.
func (a *Analyzer) Segment(text string) string {
	if !ContainsJapanese(text) {
		return text
	}
	var b strings.Builder
	prevWord := false
	for _, token := range a.tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		word := isJapaneseWord(token.Surface)
		if word && prevWord && primaryPOS(token.Features()) != auxiliaryPOS {
			b.WriteByte(' ')
		}
		b.WriteString(token.Surface)
		prevWord = word
	}
	return b.String()
}

// MoraEstimator counts the morae of a Japanese root from its kagome reading
// and defers to fallback for anything else.
func (a *Analyzer) MoraEstimator(fallback construct.SyllableEstimator) construct.SyllableEstimator {
	if fallback == nil {
		fallback = construct.EnglishSyllables
	}
	return func(root string) int {
		if !ContainsJapanese(root) {
			return fallback(root)
		}
		n := 0
		for _, tok := range a.Analyze(root) {
			if tok.Reading != "" {
				n += MoraCount(tok.Reading)
				continue
			}
			if m := MoraCount(tok.Surface); m > 0 {
				n += m
			} else {
				n += utf8.RuneCountInString(tok.Surface)
			}
		}
		if n == 0 {
			return utf8.RuneCountInString(root)
		}
		return n
	}
}

// MoraCount counts the kana morae in s. Small kana merge into the previous
// mora; the sokuon, the moraic n and the long vowel mark count on their own.
func MoraCount(s string) int {
	n := 0
	for _, r := range ToHiragana(s) {
		switch {
		case isSmallKana(r):
		case unicode.Is(unicode.Hiragana, r), r == 'ー':
			n++
		}
	}
	return n
}

func isSmallKana(r rune) bool {
	switch r {
	case 'ぁ', 'ぃ', 'ぅ', 'ぇ', 'ぉ', 'ゃ', 'ゅ', 'ょ', 'ゎ':
		return true
	}
	return false
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// ContainsJapanese reports whether s has any kana or kanji.
func ContainsJapanese(s string) bool {
	for _, r := range s {
		if isJapaneseRune(r) {
			return true
		}
	}
	return false
}

func isJapaneseRune(r rune) bool {
	return unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) || r == 'ー'
}

func isJapaneseWord(surface string) bool {
	for _, r := range surface {
		if !isJapaneseRune(r) && !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return ContainsJapanese(surface)
}
