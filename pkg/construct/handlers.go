package construct

import (
	"fmt"
	"sort"
	"strings"
)

// Verbatim emits the word unchanged.
func Verbatim(s *Sentence, w *WordInfo) error {
	w.Final = w.Actual
	w.Source = FromVerbatim
	w.Stage = Processed
	w.IsProcessed = true
	return nil
}

// Hide drops the word from the output.
func Hide(s *Sentence, w *WordInfo) error {
	w.Hidden = true
	return Verbatim(s, w)
}

// Punctuation substitutes the whole block through the generator's
// punctuation table, falling back to single characters, then to the
// character itself.
func Punctuation(s *Sentence, w *WordInfo) error {
	table := s.gen.Punctuation
	if v, ok := table[w.Actual]; ok {
		w.Final = v
	} else {
		var b strings.Builder
		for _, r := range w.Actual {
			if v, ok := table[string(r)]; ok {
				b.WriteString(v)
			} else {
				b.WriteRune(r)
			}
		}
		w.Final = b.String()
	}
	w.Source = FromTable
	w.Stage = Processed
	w.IsProcessed = true
	return nil
}

// Number substitutes every digit through the generator's number table.
func Number(s *Sentence, w *WordInfo) error {
	var b strings.Builder
	for _, r := range w.Actual {
		if v, ok := s.gen.Numbers[r]; ok {
			b.WriteString(v)
		} else {
			b.WriteRune(r)
		}
	}
	w.Final = b.String()
	w.Source = FromTable
	w.Stage = Processed
	w.IsProcessed = true
	return nil
}

var builtins = map[string]Handler{
	"generate":    Generate,
	"verbatim":    Verbatim,
	"hide":        Hide,
	"punctuation": Punctuation,
	"number":      Number,
}

// Builtin returns the built-in handler registered under name.
func Builtin(name string) (Handler, error) {
	h, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown construction handler %q (have %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return h, nil
}

// BuiltinNames lists the built-in handler names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
