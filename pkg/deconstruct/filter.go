package deconstruct

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// FilterID is an interned filter name. The zero value is the implicit
// UNDEFINED filter given to characters no registered filter claims.
type FilterID int

// Undefined is the filter assigned to unmatched characters.
const Undefined FilterID = 0

// UndefinedName is the reserved name of the Undefined filter.
const UndefinedName = "UNDEFINED"

// ErrUnknownFilter is returned (or logged, in lenient mode) when a rule or
// handler references a filter name that was never registered.
var ErrUnknownFilter = errors.New("unknown filter")

// Filter is a named character-class predicate.
type Filter struct {
	ID         FilterID
	Name       string
	members    map[rune]struct{}
	categories []*unicode.RangeTable
}

// Matches reports whether r belongs to the filter.
func (f *Filter) Matches(r rune) bool {
	if _, ok := f.members[r]; ok {
		return true
	}
	for _, tbl := range f.categories {
		if unicode.Is(tbl, r) {
			return true
		}
	}
	return false
}

// FilterTable holds filters in registration order. The first filter that
// matches a character wins.
type FilterTable struct {
	filters []*Filter
	byName  map[string]FilterID
}

// NewFilterTable creates a table holding only the UNDEFINED filter.
func NewFilterTable() *FilterTable {
	t := &FilterTable{byName: make(map[string]FilterID)}
	t.filters = append(t.filters, &Filter{ID: Undefined, Name: UndefinedName})
	t.byName[UndefinedName] = Undefined
	return t
}

// Add registers a filter with the given member characters and optional
// Unicode category names (e.g. "L", "Nd", "Zs"). Names are case-insensitive.
func (t *FilterTable) Add(name, members string, categories ...string) (FilterID, error) {
	key := normalizeName(name)
	if key == "" {
		return Undefined, fmt.Errorf("filter name must be non-empty")
	}
	if _, exists := t.byName[key]; exists {
		return Undefined, fmt.Errorf("filter %q already registered", key)
	}

	f := &Filter{
		ID:      FilterID(len(t.filters)),
		Name:    key,
		members: make(map[rune]struct{}),
	}
	for _, r := range members {
		f.members[r] = struct{}{}
	}
	for _, c := range categories {
		tbl, ok := unicode.Categories[c]
		if !ok {
			return Undefined, fmt.Errorf("filter %q: unknown unicode category %q", key, c)
		}
		f.categories = append(f.categories, tbl)
	}

	t.filters = append(t.filters, f)
	t.byName[key] = f.ID
	return f.ID, nil
}

// MustAdd is like Add but panics on error. Intended for tests and static tables.
func (t *FilterTable) MustAdd(name, members string, categories ...string) FilterID {
	id, err := t.Add(name, members, categories...)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup resolves a filter name to its ID.
func (t *FilterTable) Lookup(name string) (FilterID, bool) {
	id, ok := t.byName[normalizeName(name)]
	return id, ok
}

// Name returns the registered name of id, or UNDEFINED for unknown ids.
func (t *FilterTable) Name(id FilterID) string {
	if int(id) < 0 || int(id) >= len(t.filters) {
		return UndefinedName
	}
	return t.filters[id].Name
}

// Classify returns the first filter matching r, or Undefined.
func (t *FilterTable) Classify(r rune) FilterID {
	for _, f := range t.filters[1:] {
		if f.Matches(r) {
			return f.ID
		}
	}
	return Undefined
}

// Len returns the number of filters, including UNDEFINED.
func (t *FilterTable) Len() int { return len(t.filters) }

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
