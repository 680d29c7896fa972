package construct

import "strings"

// WordTrace is the debugging view of one word.
type WordTrace struct {
	Actual    string   `json:"actual"`
	Filter    string   `json:"filter"`
	Rules     []string `json:"block_rules,omitempty"`
	Flags     []string `json:"flags,omitempty"`
	Root      string   `json:"root,omitempty"`
	Seed      *int32   `json:"seed,omitempty"`
	Syllables []string `json:"syllables,omitempty"`
	Letters   string   `json:"letters,omitempty"`
	Prefixes  []string `json:"prefixes,omitempty"`
	Suffixes  []string `json:"suffixes,omitempty"`
	Core      string   `json:"core,omitempty"`
	Final     string   `json:"final"`
	Case      string   `json:"case,omitempty"`
	Stage     string   `json:"stage"`
	Source    string   `json:"source"`
	Hidden    bool     `json:"hidden,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// SentenceTrace is the debugging view of a whole pass.
type SentenceTrace struct {
	Input  string      `json:"input"`
	Output string      `json:"output"`
	Words  []WordTrace `json:"words"`
	Errors []string    `json:"errors,omitempty"`
}

// Trace captures the intermediate state of every word.
func (s *Sentence) Trace() SentenceTrace {
	t := SentenceTrace{Input: s.Input, Output: s.Output}
	for _, w := range s.Words {
		wt := WordTrace{
			Actual: w.Actual,
			Filter: w.FilterName,
			Rules:  w.Block.Rules,
			Root:   w.Root,
			Core:   w.Core,
			Final:  w.Final,
			Stage:  w.Stage.String(),
			Source: string(w.Source),
			Hidden: w.Hidden,
		}
		if w.seeded {
			seed := w.Seed
			wt.Seed = &seed
		}
		if w.Source == FromGenerated || w.Source == FromRoot || w.Source == FromVocabulary {
			wt.Case = w.Case.String()
		}
		for _, f := range w.Flags {
			wt.Flags = append(wt.Flags, f.String())
		}
		for _, si := range w.Syllables {
			wt.Syllables = append(wt.Syllables, si.Syllable.Template)
		}
		var letters strings.Builder
		for _, li := range w.Letters {
			letters.WriteString(li.Text)
		}
		wt.Letters = letters.String()
		for _, ai := range w.Prefixes {
			wt.Prefixes = append(wt.Prefixes, ai.Affix.Key+"="+ai.Text)
		}
		for _, ai := range w.Suffixes {
			wt.Suffixes = append(wt.Suffixes, ai.Affix.Key+"="+ai.Text)
		}
		if w.Err != nil {
			wt.Error = w.Err.Error()
		}
		t.Words = append(t.Words, wt)
	}
	for _, err := range s.Errors {
		t.Errors = append(t.Errors, err.Error())
	}
	return t
}
