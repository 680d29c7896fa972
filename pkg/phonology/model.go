package phonology

import (
	"fmt"
	"sort"
	"strings"
)

// Syllable is a phonotactic template: an ordered string of letter-group keys
// such as "CVC".
type Syllable struct {
	Template string
	Weight   float64
	Tags     []string
}

// Slots returns the template's letter-group keys in order.
func (s *Syllable) Slots() []rune { return []rune(s.Template) }

// HasTag reports whether the syllable carries tag (case-insensitive).
func (s *Syllable) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// WeightedLetter is one member of a letter group.
type WeightedLetter struct {
	Letter rune
	Weight float64
}

// LetterGroup is a weighted set of letters filling one template slot.
type LetterGroup struct {
	Key     rune
	Letters []WeightedLetter
}

// Model is the phonotactic model of a language.
type Model struct {
	Alphabet  *Alphabet
	Syllables []*Syllable
	Groups    map[rune]*LetterGroup
}

// NewModel returns a model over alphabet with no templates or groups.
func NewModel(alphabet *Alphabet) *Model {
	return &Model{
		Alphabet: alphabet,
		Groups:   make(map[rune]*LetterGroup),
	}
}

// AddSyllable appends a template. A zero weight defaults to 1.
func (m *Model) AddSyllable(template string, weight float64, tags ...string) *Syllable {
	if weight == 0 {
		weight = 1
	}
	s := &Syllable{Template: template, Weight: weight, Tags: tags}
	m.Syllables = append(m.Syllables, s)
	return s
}

// AddGroup registers a letter group. Registering the same key twice is an error.
func (m *Model) AddGroup(key rune, letters ...WeightedLetter) error {
	if _, ok := m.Groups[key]; ok {
		return fmt.Errorf("letter group %q already registered", key)
	}
	for i := range letters {
		if letters[i].Weight == 0 {
			letters[i].Weight = 1
		}
	}
	m.Groups[key] = &LetterGroup{Key: key, Letters: letters}
	return nil
}

// SyllableByTemplate finds the first template with the given slot string.
func (m *Model) SyllableByTemplate(template string) (*Syllable, bool) {
	for _, s := range m.Syllables {
		if s.Template == template {
			return s, true
		}
	}
	return nil, false
}

// Validate checks that every template slot names a group and every group
// letter exists in the alphabet.
func (m *Model) Validate() []error {
	var errs []error
	if len(m.Syllables) == 0 {
		errs = append(errs, fmt.Errorf("no syllable templates defined"))
	}
	for _, s := range m.Syllables {
		if s.Template == "" {
			errs = append(errs, fmt.Errorf("empty syllable template"))
		}
		for _, slot := range s.Slots() {
			if _, ok := m.Groups[slot]; !ok {
				errs = append(errs, fmt.Errorf("syllable %q: unknown letter group %q", s.Template, slot))
			}
		}
	}
	keys := make([]rune, 0, len(m.Groups))
	for key := range m.Groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		g := m.Groups[key]
		if len(g.Letters) == 0 {
			errs = append(errs, fmt.Errorf("letter group %q is empty", key))
		}
		for _, wl := range g.Letters {
			if _, ok := m.Alphabet.Lookup(wl.Letter); !ok {
				errs = append(errs, fmt.Errorf("letter group %q: letter %q not in alphabet", key, wl.Letter))
			}
		}
	}
	return errs
}
