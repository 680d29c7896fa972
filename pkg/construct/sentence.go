package construct

import "github.com/japaniel/conlang/pkg/deconstruct"

// Sentence holds one generation pass: the blocks, the words built from
// them and the errors collected along the way.
type Sentence struct {
	// Input is the NFC-normalized sentence; Text is Input with flag
	// commands removed.
	Input  string
	Text   string
	Blocks []*deconstruct.Block
	Words  []*WordInfo
	Output string
	Errors []error

	gen *Generator
}

// Result is the value returned by Generate.
type Result = Sentence

// Generator returns the generator running this pass.
func (s *Sentence) Generator() *Generator { return s.gen }

func (s *Sentence) wordAt(pos int) *WordInfo {
	for _, w := range s.Words {
		if w.Block.Contains(pos) {
			return w
		}
	}
	return nil
}

// prevOfFilter returns the nearest word left of w with the same filter.
func (s *Sentence) prevOfFilter(w *WordInfo) *WordInfo {
	for i := w.Index - 1; i >= 0; i-- {
		if s.Words[i].Filter == w.Filter {
			return s.Words[i]
		}
	}
	return nil
}

func (s *Sentence) nextOfFilter(w *WordInfo) *WordInfo {
	for i := w.Index + 1; i < len(s.Words); i++ {
		if s.Words[i].Filter == w.Filter {
			return s.Words[i]
		}
	}
	return nil
}
