// Package language loads a conlang definition from TOML and wires the
// filter table, deconstruction rules, phonotactic model, lexicon and
// selection rules it describes.
package language

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Definition mirrors the TOML layout of a language file.
type Definition struct {
	Name   string `toml:"name"`
	Strict bool   `toml:"strict"`

	Seed    SeedDef    `toml:"seed"`
	Options OptionsDef `toml:"options"`
	Skew    SkewDef    `toml:"skew"`

	Filters        []FilterDef       `toml:"filters"`
	Deconstruction string            `toml:"deconstruction"`
	Construction   []ConstructionDef `toml:"construction"`

	Alphabet  AlphabetDef                    `toml:"alphabet"`
	Syllables []SyllableDef                  `toml:"syllables"`
	Groups    map[string][]WeightedLetterDef `toml:"groups"`

	Lexicon   LexiconDef   `toml:"lexicon"`
	Affixes   []AffixDef   `toml:"affixes"`
	Selection SelectionDef `toml:"selection"`

	Punctuation map[string]string `toml:"punctuation"`
	Numbers     map[string]string `toml:"numbers"`
}

type SeedDef struct {
	Offset int32  `toml:"offset"`
	Hash   string `toml:"hash"`
}

type OptionsDef struct {
	AutoCase         *bool   `toml:"auto_case"`
	RandomCase       bool    `toml:"random_case"`
	Memoize          *bool   `toml:"memoize"`
	CustomAffixOrder bool    `toml:"custom_affix_order"`
	FlagMarker       *string `toml:"flag_marker"`
	// FailurePrefix and FailureSuffix wrap the text of a failed word.
	FailurePrefix string `toml:"failure_prefix"`
	FailureSuffix string `toml:"failure_suffix"`
	Estimator     string `toml:"estimator"`
}

// SkewDef bounds the syllable count scale factor. Each bound is
// base + step*(estimate-1).
type SkewDef struct {
	Min     float64 `toml:"min"`
	Max     float64 `toml:"max"`
	MinStep float64 `toml:"min_step"`
	MaxStep float64 `toml:"max_step"`
}

type FilterDef struct {
	Name       string   `toml:"name"`
	Members    string   `toml:"members"`
	Categories []string `toml:"categories"`
}

type ConstructionDef struct {
	Filter  string `toml:"filter"`
	Handler string `toml:"handler"`
}

type AlphabetDef struct {
	Consonants []LetterDef `toml:"consonants"`
	Vowels     []LetterDef `toml:"vowels"`
}

type LetterDef struct {
	Key           string  `toml:"key"`
	Name          string  `toml:"name"`
	Pronunciation string  `toml:"pronunciation"`
	Lower         string  `toml:"lower"`
	Upper         string  `toml:"upper"`
	Weight        float64 `toml:"weight"`
}

type SyllableDef struct {
	Template string   `toml:"template"`
	Weight   float64  `toml:"weight"`
	Tags     []string `toml:"tags"`
}

type WeightedLetterDef struct {
	Letter string  `toml:"letter"`
	Weight float64 `toml:"weight"`
}

type LexiconDef struct {
	Vocabulary          map[string]string   `toml:"vocabulary"`
	Roots               map[string]string   `toml:"roots"`
	Syllables           map[string][]string `toml:"syllables"`
	ElideBoundaryVowels bool                `toml:"elide_boundary_vowels"`
}

type AffixDef struct {
	Key    string `toml:"key"`
	Value  string `toml:"value"`
	Match  string `toml:"match"`
	Emit   string `toml:"emit"`
	Order  int    `toml:"order"`
	Groups string `toml:"groups"`
}

type SelectionDef struct {
	Letters   []LetterRuleDef   `toml:"letters"`
	Syllables []SyllableRuleDef `toml:"syllables"`
}

type LetterRuleDef struct {
	Rule    string  `toml:"rule"`
	Letters string  `toml:"letters"`
	After   string  `toml:"after"`
	Factor  float64 `toml:"factor"`
}

type SyllableRuleDef struct {
	Rule   string   `toml:"rule"`
	Tags   []string `toml:"tags"`
	Factor float64  `toml:"factor"`
}

// Decode reads a definition. When the document sets strict = true it is
// decoded a second time rejecting unknown keys.
func Decode(r io.Reader) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read language: %w", err)
	}
	var def Definition
	if err := toml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode language: %w", err)
	}
	if def.Strict {
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		var strict Definition
		if err := dec.Decode(&strict); err != nil {
			return nil, fmt.Errorf("decode language: %w", err)
		}
	}
	return &def, nil
}

// DecodeFile reads the definition at path.
func DecodeFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open language: %w", err)
	}
	defer f.Close()
	def, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
