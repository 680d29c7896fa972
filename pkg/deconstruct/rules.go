package deconstruct

import (
	"fmt"
	"strings"
)

// RuleKind selects one of the three rule shapes.
type RuleKind int

const (
	// Merge concatenates left+current+right into current and kills both neighbors.
	Merge RuleKind = iota
	// Reclassify only changes the filter of the current block.
	Reclassify
	// Contain absorbs every block from an open delimiter up to the next close delimiter.
	Contain
)

func (k RuleKind) String() string {
	switch k {
	case Merge:
		return "merge"
	case Reclassify:
		return "reclassify"
	case Contain:
		return "contain"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// Wildcard matches any filter in a rule pattern.
const Wildcard = "*"

// RuleSpec is the author-facing description of a deconstruction rule, with
// filters referenced by name.
type RuleSpec struct {
	Kind RuleKind
	// Left, Current and Right are used by Merge and Reclassify.
	Left    string
	Current string
	Right   string
	// Text, when MatchText is set, must equal the current block's text exactly.
	Text      string
	MatchText bool
	// Open and Close are used by Contain.
	Open   string
	Close  string
	Target string
}

// Name renders the rule in the rule language; it is used in logs and traces.
func (s RuleSpec) Name() string {
	if s.Kind == Contain {
		return fmt.Sprintf("contain %s %s => %s", s.Open, s.Close, s.Target)
	}
	cur := s.Current
	if s.MatchText {
		cur = fmt.Sprintf("%s:%q", s.Current, s.Text)
	}
	return fmt.Sprintf("%s %s %s %s => %s", s.Kind, s.Left, cur, s.Right, s.Target)
}

const anyFilter FilterID = -1

type rule struct {
	spec     RuleSpec
	name     string
	left     FilterID
	current  FilterID
	right    FilterID
	open     FilterID
	close    FilterID
	target   FilterID
	disabled bool
}

// compileRule resolves the filter names of spec against t. Unresolved names
// are collected rather than returned one at a time so a single log line or
// error names all of them.
func compileRule(t *FilterTable, spec RuleSpec) (*rule, []string) {
	r := &rule{spec: spec, name: spec.Name()}
	var missing []string
	resolve := func(name string, allowWildcard bool) FilterID {
		if allowWildcard && strings.TrimSpace(name) == Wildcard {
			return anyFilter
		}
		id, ok := t.Lookup(name)
		if !ok {
			missing = append(missing, name)
			return Undefined
		}
		return id
	}

	switch spec.Kind {
	case Merge, Reclassify:
		r.left = resolve(spec.Left, true)
		r.current = resolve(spec.Current, true)
		r.right = resolve(spec.Right, true)
	case Contain:
		r.open = resolve(spec.Open, false)
		r.close = resolve(spec.Close, false)
	}
	r.target = resolve(spec.Target, false)
	return r, missing
}

func matchFilter(want, got FilterID) bool {
	return want == anyFilter || want == got
}

// apply runs the rule against block i. It reports whether the rule fired.
func (r *rule) apply(a arena, i int) bool {
	if r.disabled || !a[i].Alive {
		return false
	}
	switch r.spec.Kind {
	case Merge, Reclassify:
		return r.applyContext(a, i)
	case Contain:
		return r.applyContain(a, i)
	}
	return false
}

func (r *rule) applyContext(a arena, i int) bool {
	b := a[i]
	l, rt := a.liveLeft(i), a.liveRight(i)
	if l < 0 || rt < 0 {
		return false
	}
	if !matchFilter(r.current, b.Filter) || !matchFilter(r.left, a[l].Filter) || !matchFilter(r.right, a[rt].Filter) {
		return false
	}
	if r.spec.MatchText && b.Text != r.spec.Text {
		return false
	}

	b.Filter = r.target
	b.Rules = append(b.Rules, r.name)
	if r.spec.Kind == Reclassify {
		return true
	}

	b.Text = a[l].Text + b.Text + a[rt].Text
	b.Start = a[l].Start
	b.End = a[rt].End
	a[l].Alive = false
	a[rt].Alive = false
	a.relink(i)
	return true
}

func (r *rule) applyContain(a arena, i int) bool {
	b := a[i]
	if b.Filter != r.open {
		return false
	}

	// Find the closing block first; nothing is mutated unless it exists.
	var span []int
	closeIdx := -1
	for j := a.liveRight(i); j >= 0; j = a.liveRight(j) {
		span = append(span, j)
		if a[j].Filter == r.close {
			closeIdx = j
			break
		}
	}
	if closeIdx < 0 {
		return false
	}

	var sb strings.Builder
	sb.WriteString(b.Text)
	for _, j := range span {
		sb.WriteString(a[j].Text)
		a[j].Alive = false
	}
	b.Text = sb.String()
	b.End = a[closeIdx].End
	b.Filter = r.target
	b.Rules = append(b.Rules, r.name)
	a.relink(i)
	return true
}
