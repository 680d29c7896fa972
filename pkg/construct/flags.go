package construct

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Flag is one command attached to a word, as in "word::name=arg".
type Flag struct {
	Name string
	Arg  string
}

func (f Flag) String() string {
	if f.Arg == "" {
		return f.Name
	}
	return f.Name + "=" + f.Arg
}

// FlagAction runs before the construction rules of the flagged word. It
// may finish the word or change its neighbors.
type FlagAction func(s *Sentence, w *WordInfo, arg string) error

// RegisterFlag adds or replaces the action for name.
func (g *Generator) RegisterFlag(name string, action FlagAction) {
	g.flags[strings.ToLower(name)] = action
}

// Flags lists the registered flag names, sorted.
func (g *Generator) Flags() []string {
	names := make([]string, 0, len(g.flags))
	for n := range g.flags {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type flagMark struct {
	// pos is the rune offset, in the cleaned text, of the character the
	// marker followed.
	pos   int
	flags []Flag
}

// extractFlags strips every "marker commands" run that directly follows a
// non-space character and reports where each was attached. A run ends at
// the first rune outside the flag grammar, so "Frodo::keep." keeps its
// period.
func extractFlags(text, marker string) (string, []flagMark, error) {
	if marker == "" || !strings.Contains(text, marker) {
		return text, nil, nil
	}
	var out strings.Builder
	var marks []flagMark
	n := 0
	attached := false
	for i := 0; i < len(text); {
		if attached && strings.HasPrefix(text[i:], marker) {
			start := i + len(marker)
			flags, size, err := scanFlags(text[start:])
			if err != nil {
				return "", nil, err
			}
			marks = append(marks, flagMark{pos: n - 1, flags: flags})
			i = start + size
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		out.WriteRune(r)
		n++
		attached = !unicode.IsSpace(r)
		i += size
	}
	return out.String(), marks, nil
}

func isFlagNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isFlagArgRune(r rune) bool {
	return r == '-' || isFlagNameRune(r) || unicode.Is(unicode.Mn, r)
}

// span returns the longest prefix of s whose runes satisfy f.
func span(s string, f func(rune) bool) string {
	for i, r := range s {
		if !f(r) {
			return s[:i]
		}
	}
	return s
}

// scanFlags reads "name[=arg]" commands separated by commas from the start
// of src and returns them with the number of bytes consumed. A comma only
// continues the run when another flag name follows it.
func scanFlags(src string) ([]Flag, int, error) {
	var flags []Flag
	i := 0
	for {
		name := span(src[i:], isFlagNameRune)
		j := i + len(name)
		var arg string
		hasArg := strings.HasPrefix(src[j:], "=")
		if hasArg {
			arg = span(src[j+1:], isFlagArgRune)
			j += 1 + len(arg)
		}
		if name == "" {
			if hasArg {
				return nil, 0, fmt.Errorf("flag %q has no name", src[i:j])
			}
			return flags, i, nil
		}
		flags = append(flags, Flag{Name: strings.ToLower(name), Arg: arg})
		i = j
		if strings.HasPrefix(src[i:], ",") && span(src[i+1:], isFlagNameRune) != "" {
			i++
			continue
		}
		return flags, i, nil
	}
}

func registerBuiltinFlags(g *Generator) {
	g.RegisterFlag("keep", func(s *Sentence, w *WordInfo, _ string) error {
		if err := Verbatim(s, w); err != nil {
			return err
		}
		w.Source = FromFlag
		return nil
	})
	g.RegisterFlag("as", func(s *Sentence, w *WordInfo, arg string) error {
		w.Final = arg
		w.Source = FromFlag
		w.Stage = Processed
		w.IsProcessed = true
		return nil
	})
	g.RegisterFlag("hide", func(s *Sentence, w *WordInfo, _ string) error {
		w.Hidden = true
		return nil
	})
	g.RegisterFlag("hideprev", func(s *Sentence, w *WordInfo, _ string) error {
		p := s.prevOfFilter(w)
		if p == nil {
			return nil
		}
		for i := p.Index; i < w.Index; i++ {
			s.Words[i].Hidden = true
		}
		return nil
	})
	g.RegisterFlag("hidenext", func(s *Sentence, w *WordInfo, _ string) error {
		n := s.nextOfFilter(w)
		if n == nil {
			return nil
		}
		for i := w.Index + 1; i <= n.Index; i++ {
			s.Words[i].Hidden = true
		}
		return nil
	})
	g.RegisterFlag("noaffix", func(s *Sentence, w *WordInfo, _ string) error {
		w.SkipLexeme = true
		return nil
	})
	g.RegisterFlag("root", func(s *Sentence, w *WordInfo, arg string) error {
		if arg == "" {
			return fmt.Errorf("root flag needs a value")
		}
		w.RootOverride = arg
		return nil
	})
}
