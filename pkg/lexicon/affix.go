package lexicon

import (
	"fmt"
	"strings"
)

// Side says which end of a word an affix is matched on or emitted at.
type Side int

const (
	Prefix Side = iota
	Suffix
)

func (s Side) String() string {
	if s == Prefix {
		return "prefix"
	}
	return "suffix"
}

// ParseSide accepts "prefix" or "suffix" (case-insensitive).
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prefix":
		return Prefix, nil
	case "suffix":
		return Suffix, nil
	default:
		return Prefix, fmt.Errorf("unknown affix side %q", s)
	}
}

// Affix is a recognized surface pattern and its replacement in the
// generated language.
type Affix struct {
	// Key is the surface text matched on the input word, e.g. "ly".
	Key string
	// Value replaces the affix. Empty means the value is generated from Groups.
	Value string
	Match Side
	Emit  Side
	// Order is the distance from the root when custom ordering is enabled;
	// lower values sit closer to the root.
	Order int
	// Groups is a letter-group template (e.g. "VC") used to generate Value
	// when it is empty.
	Groups string
}

// Procedural reports whether the affix value must be generated.
func (a *Affix) Procedural() bool { return a.Value == "" }

func (a *Affix) String() string {
	return fmt.Sprintf("%s %q", a.Match, a.Key)
}
