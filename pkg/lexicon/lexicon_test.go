package lexicon

import (
	"testing"
)

func keys(list []*Affix) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Key
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLongestSuffixWins(t *testing.T) {
	lx := New()
	lx.AddAffix(&Affix{Key: "s", Value: "-da", Match: Suffix, Emit: Suffix})
	lx.AddAffix(&Affix{Key: "'s", Value: "-doo", Match: Suffix, Emit: Suffix})

	found, root := lx.ExtractSuffixes("dog's")
	if root != "dog" {
		t.Fatalf("root = %q, want dog", root)
	}
	if got := keys(found); !equal(got, []string{"'s"}) {
		t.Fatalf("affixes = %v, want ['s]", got)
	}
}

func TestStackedAffixes(t *testing.T) {
	lx := New()
	lx.AddAffix(&Affix{Key: "ness", Value: "ur", Match: Suffix, Emit: Suffix})
	lx.AddAffix(&Affix{Key: "es", Value: "i", Match: Suffix, Emit: Suffix})
	lx.AddAffix(&Affix{Key: "un", Value: "na", Match: Prefix, Emit: Prefix})
	lx.AddAffix(&Affix{Key: "re", Value: "ri", Match: Prefix, Emit: Prefix})

	ex := lx.Extract("UnReKindnesses")
	if ex.Root != "Kind" {
		t.Fatalf("root = %q, want Kind", ex.Root)
	}
	if got := keys(ex.Prefixes); !equal(got, []string{"un", "re"}) {
		t.Errorf("prefixes = %v", got)
	}
	if got := keys(ex.Suffixes); !equal(got, []string{"es", "ness"}) {
		t.Errorf("suffixes = %v", got)
	}

	prefixes, suffixes := lx.Arrange(ex)
	// Root-outward: the last-stripped affix sits next to the root.
	if got := keys(prefixes); !equal(got, []string{"re", "un"}) {
		t.Errorf("arranged prefixes = %v", got)
	}
	if got := keys(suffixes); !equal(got, []string{"ness", "es"}) {
		t.Errorf("arranged suffixes = %v", got)
	}
}

func TestAffixNeverConsumesWord(t *testing.T) {
	lx := New()
	lx.AddAffix(&Affix{Key: "s", Match: Suffix})
	found, root := lx.ExtractSuffixes("s")
	if len(found) != 0 || root != "s" {
		t.Errorf("got %v %q", keys(found), root)
	}
	found, root = lx.ExtractSuffixes("ss")
	if len(found) != 1 || root != "s" {
		t.Errorf("got %v %q", keys(found), root)
	}
}

func TestCustomOrderAndEmitSide(t *testing.T) {
	lx := New()
	lx.CustomOrder = true
	lx.AddAffix(&Affix{Key: "ed", Value: "ka", Match: Suffix, Emit: Prefix, Order: 1})
	lx.AddAffix(&Affix{Key: "ly", Value: "mo", Match: Suffix, Emit: Suffix, Order: 5})
	lx.AddAffix(&Affix{Key: "ing", Value: "ru", Match: Suffix, Emit: Suffix, Order: 2})
	lx.AddAffix(&Affix{Key: "pre", Value: "zi", Match: Prefix, Emit: Prefix, Order: 0})

	ex := lx.Extract("prelyinged")
	// "ly" survives: stripping it would consume the whole root.
	if ex.Root != "ly" {
		t.Fatalf("root = %q, want ly", ex.Root)
	}
	prefixes, suffixes := lx.Arrange(ex)
	if got := keys(prefixes); !equal(got, []string{"pre", "ed"}) {
		t.Errorf("prefixes = %v", got)
	}
	if got := keys(suffixes); !equal(got, []string{"ing"}) {
		t.Errorf("suffixes = %v", got)
	}
}

func TestConflictingKeysMatchIndependently(t *testing.T) {
	lx := New()
	lx.AddAffix(&Affix{Key: "a", Value: "x", Match: Prefix})
	lx.AddAffix(&Affix{Key: "a", Value: "y", Match: Suffix})
	ex := lx.Extract("abba")
	if ex.Root != "bb" || len(ex.Prefixes) != 1 || len(ex.Suffixes) != 1 {
		t.Errorf("unexpected extraction %+v", ex)
	}
}

func TestVocabularyIsCaseInsensitive(t *testing.T) {
	lx := New()
	lx.AddVocabulary("Hello", "kaya")
	if v, ok := lx.Vocabulary("HELLO"); !ok || v != "kaya" {
		t.Errorf("lookup failed: %q %v", v, ok)
	}
	lx.AddRoot("dog", "vru")
	if v, ok := lx.Root("Dog"); !ok || v != "vru" {
		t.Errorf("root lookup failed: %q %v", v, ok)
	}
	lx.SetSyllables("cat", "CV", "CVC")
	if v, ok := lx.Syllables("CAT"); !ok || len(v) != 2 {
		t.Errorf("syllables lookup failed: %v %v", v, ok)
	}

	clone := lx.Clone()
	clone.AddVocabulary("new", "word")
	if _, ok := lx.Vocabulary("new"); ok {
		t.Error("clone must not write through to the original")
	}
}

func TestAddAffixPurgesCache(t *testing.T) {
	lx := New()
	if ex := lx.Extract("dogs"); ex.Root != "dogs" {
		t.Fatalf("unexpected root %q", ex.Root)
	}
	lx.AddAffix(&Affix{Key: "s", Match: Suffix})
	if ex := lx.Extract("dogs"); ex.Root != "dog" {
		t.Fatalf("stale cached extraction: %q", ex.Root)
	}
}
