// Package selection draws syllable templates and letters by seeded weighted
// random selection, filtered through author rules.
package selection

import (
	"fmt"
	"math/rand/v2"

	"github.com/japaniel/conlang/pkg/phonology"
)

// ExhaustedError is returned when rules leave no candidate to draw from.
type ExhaustedError struct {
	// Kind is "syllable" or "letter".
	Kind     string
	Word     string
	Position int
	Total    int
	// Group is the letter group being filled; zero for syllables.
	Group rune
	// Rule names the rule that removed the last candidate. Empty means the
	// candidate set was empty or weightless before any rule ran.
	Rule string
}

func (e *ExhaustedError) Error() string {
	where := fmt.Sprintf("%s %d/%d of %q", e.Kind, e.Position+1, e.Total, e.Word)
	if e.Group != 0 {
		where += fmt.Sprintf(" (group %q)", e.Group)
	}
	if e.Rule == "" {
		return fmt.Sprintf("no candidates for %s", where)
	}
	return fmt.Sprintf("no candidates for %s: excluded by rule %q", where, e.Rule)
}

// SyllableCandidate is one template under consideration, with the
// request-scoped multiplier rules may scale.
type SyllableCandidate struct {
	Syllable   *phonology.Syllable
	Multiplier float64
}

// Weight is the effective selection weight.
func (c SyllableCandidate) Weight() float64 { return c.Syllable.Weight * c.Multiplier }

// SyllableQuery is passed to syllable rules. Rules edit Candidates.
type SyllableQuery struct {
	Word     string
	Position int
	Total    int
	// Chosen holds the syllables already drawn for this word, in order.
	Chosen     []*phonology.Syllable
	Candidates []SyllableCandidate
}

// Previous returns the left neighbor syllable, or nil.
func (q *SyllableQuery) Previous() *phonology.Syllable {
	if len(q.Chosen) == 0 {
		return nil
	}
	return q.Chosen[len(q.Chosen)-1]
}

// Exclude removes every candidate for which drop returns true.
func (q *SyllableQuery) Exclude(drop func(*phonology.Syllable) bool) {
	kept := q.Candidates[:0]
	for _, c := range q.Candidates {
		if !drop(c.Syllable) {
			kept = append(kept, c)
		}
	}
	q.Candidates = kept
}

// Only keeps exactly the candidates for which keep returns true.
func (q *SyllableQuery) Only(keep func(*phonology.Syllable) bool) {
	q.Exclude(func(s *phonology.Syllable) bool { return !keep(s) })
}

// Replace clears the candidate list and substitutes syllables, each drawn
// by its own weight.
func (q *SyllableQuery) Replace(syllables ...*phonology.Syllable) {
	q.Candidates = q.Candidates[:0]
	for _, syl := range syllables {
		q.Candidates = append(q.Candidates, SyllableCandidate{Syllable: syl, Multiplier: 1})
	}
}

// Scale multiplies the weight of every candidate matching match.
func (q *SyllableQuery) Scale(match func(*phonology.Syllable) bool, factor float64) {
	for i := range q.Candidates {
		if match(q.Candidates[i].Syllable) {
			q.Candidates[i].Multiplier *= factor
		}
	}
}

// SyllableRule inspects and edits the syllable candidate list.
type SyllableRule struct {
	Name  string
	Apply func(q *SyllableQuery)
}

// LetterCandidate is one letter under consideration.
type LetterCandidate struct {
	Letter rune
	// Weight is the letter's weight inside its group times its alphabet weight.
	Weight     float64
	Multiplier float64
}

// Effective is the weight used by the draw.
func (c LetterCandidate) Effective() float64 { return c.Weight * c.Multiplier }

// LetterQuery is passed to letter rules. Rules edit Candidates.
type LetterQuery struct {
	Word          string
	Syllable      *phonology.Syllable
	SyllableIndex int
	SyllableCount int
	Group         rune
	// Position is the letter index within the whole word; Total is the
	// number of letters the word will have.
	Position int
	Total    int
	// Chosen holds the letters already drawn for this word, in order.
	Chosen     []rune
	Candidates []LetterCandidate
}

// Previous returns the letter drawn just before this one, or 0.
func (q *LetterQuery) Previous() rune {
	if len(q.Chosen) == 0 {
		return 0
	}
	return q.Chosen[len(q.Chosen)-1]
}

// Exclude removes every candidate for which drop returns true.
func (q *LetterQuery) Exclude(drop func(rune) bool) {
	kept := q.Candidates[:0]
	for _, c := range q.Candidates {
		if !drop(c.Letter) {
			kept = append(kept, c)
		}
	}
	q.Candidates = kept
}

// Replace clears the candidate list and substitutes letters, each with weight 1.
func (q *LetterQuery) Replace(letters ...rune) {
	q.Candidates = q.Candidates[:0]
	for _, r := range letters {
		q.Candidates = append(q.Candidates, LetterCandidate{Letter: r, Weight: 1, Multiplier: 1})
	}
}

// Scale multiplies the weight of every candidate matching match.
func (q *LetterQuery) Scale(match func(rune) bool, factor float64) {
	for i := range q.Candidates {
		if match(q.Candidates[i].Letter) {
			q.Candidates[i].Multiplier *= factor
		}
	}
}

// LetterRule inspects and edits the letter candidate list.
type LetterRule struct {
	Name  string
	Apply func(q *LetterQuery)
}

// Selector draws syllables and letters from a phonotactic model. Rules run
// in registration order.
type Selector struct {
	Model         *phonology.Model
	SyllableRules []SyllableRule
	LetterRules   []LetterRule
}

// NewSelector returns a selector over model with no rules.
func NewSelector(model *phonology.Model) *Selector {
	return &Selector{Model: model}
}

// AddSyllableRule appends a syllable rule.
func (s *Selector) AddSyllableRule(r SyllableRule) { s.SyllableRules = append(s.SyllableRules, r) }

// AddLetterRule appends a letter rule.
func (s *Selector) AddLetterRule(r LetterRule) { s.LetterRules = append(s.LetterRules, r) }

// SelectSyllable draws the syllable at position of total for word.
func (s *Selector) SelectSyllable(rng *rand.Rand, word string, position, total int, chosen []*phonology.Syllable) (*phonology.Syllable, error) {
	q := &SyllableQuery{
		Word:       word,
		Position:   position,
		Total:      total,
		Chosen:     chosen,
		Candidates: make([]SyllableCandidate, 0, len(s.Model.Syllables)),
	}
	for _, syl := range s.Model.Syllables {
		q.Candidates = append(q.Candidates, SyllableCandidate{Syllable: syl, Multiplier: 1})
	}

	exhausted := func(rule string) error {
		return &ExhaustedError{Kind: "syllable", Word: word, Position: position, Total: total, Rule: rule}
	}
	if len(q.Candidates) == 0 {
		return nil, exhausted("")
	}
	for _, r := range s.SyllableRules {
		r.Apply(q)
		if len(q.Candidates) == 0 {
			return nil, exhausted(r.Name)
		}
	}

	weights := make([]float64, len(q.Candidates))
	for i, c := range q.Candidates {
		weights[i] = c.Weight()
	}
	i, ok := draw(rng, weights)
	if !ok {
		return nil, exhausted("")
	}
	return q.Candidates[i].Syllable, nil
}

// LetterContext locates a letter slot inside the word being built.
type LetterContext struct {
	Word          string
	Syllable      *phonology.Syllable
	SyllableIndex int
	SyllableCount int
	Group         rune
	Position      int
	Total         int
	Chosen        []rune
}

// SelectLetter draws one letter from group lc.Group.
func (s *Selector) SelectLetter(rng *rand.Rand, lc LetterContext) (rune, error) {
	exhausted := func(rule string) error {
		return &ExhaustedError{Kind: "letter", Word: lc.Word, Position: lc.Position, Total: lc.Total, Group: lc.Group, Rule: rule}
	}
	group, ok := s.Model.Groups[lc.Group]
	if !ok {
		return 0, fmt.Errorf("%w: unknown letter group %q", exhausted(""), lc.Group)
	}

	q := &LetterQuery{
		Word:          lc.Word,
		Syllable:      lc.Syllable,
		SyllableIndex: lc.SyllableIndex,
		SyllableCount: lc.SyllableCount,
		Group:         lc.Group,
		Position:      lc.Position,
		Total:         lc.Total,
		Chosen:        lc.Chosen,
		Candidates:    make([]LetterCandidate, 0, len(group.Letters)),
	}
	for _, wl := range group.Letters {
		w := wl.Weight
		if l, ok := s.Model.Alphabet.Lookup(wl.Letter); ok {
			w *= l.Weight
		}
		q.Candidates = append(q.Candidates, LetterCandidate{Letter: wl.Letter, Weight: w, Multiplier: 1})
	}
	if len(q.Candidates) == 0 {
		return 0, exhausted("")
	}
	for _, r := range s.LetterRules {
		r.Apply(q)
		if len(q.Candidates) == 0 {
			return 0, exhausted(r.Name)
		}
	}

	weights := make([]float64, len(q.Candidates))
	for i, c := range q.Candidates {
		weights[i] = c.Effective()
	}
	i, ok := draw(rng, weights)
	if !ok {
		return 0, exhausted("")
	}
	return q.Candidates[i].Letter, nil
}

// draw picks an index with probability proportional to its weight. It
// reports false when no weight is positive.
func draw(rng *rand.Rand, weights []float64) (int, bool) {
	var sum float64
	last := -1
	for i, w := range weights {
		if w > 0 {
			sum += w
			last = i
		}
	}
	if last < 0 {
		return 0, false
	}
	u := rng.Float64() * sum
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		u -= w
		if u <= 0 {
			return i, true
		}
	}
	return last, true
}
