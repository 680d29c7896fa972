// Package deconstruct splits a sentence into adjacency-linked blocks of
// characters sharing one filter, then rewrites those blocks with
// author-supplied merge, reclassify and contain rules.
package deconstruct

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Deconstructor turns sentences into blocks. It is not safe for concurrent
// use while rules are being added; Deconstruct itself keeps no state.
type Deconstructor struct {
	Filters *FilterTable
	// Strict turns unknown filter references into AddRule errors instead of
	// logged no-ops.
	Strict bool
	Logger *log.Logger

	rules []*rule
}

// New creates a Deconstructor over the given filter table.
func New(filters *FilterTable) *Deconstructor {
	return &Deconstructor{
		Filters: filters,
		Logger:  log.NewWithOptions(io.Discard, log.Options{Prefix: "deconstruct"}),
	}
}

// AddRule registers a rule after every already-registered rule. In lenient
// mode a rule that names an unknown filter is kept but never fires.
func (d *Deconstructor) AddRule(spec RuleSpec) error {
	r, missing := compileRule(d.Filters, spec)
	if len(missing) > 0 {
		if d.Strict {
			return fmt.Errorf("rule %q: %w: %s", r.name, ErrUnknownFilter, strings.Join(missing, ", "))
		}
		d.Logger.Warn("rule references unknown filter; rule disabled", "rule", r.name, "filters", strings.Join(missing, ", "))
		r.disabled = true
	}
	d.rules = append(d.rules, r)
	return nil
}

// AddRules parses src in the rule language and registers every rule in order.
func (d *Deconstructor) AddRules(src string) error {
	specs, err := ParseRules(src)
	if err != nil {
		return err
	}
	for _, s := range specs {
		if err := d.AddRule(s); err != nil {
			return err
		}
	}
	return nil
}

// Rules returns the names of the registered rules in registration order.
func (d *Deconstructor) Rules() []string {
	out := make([]string, len(d.rules))
	for i, r := range d.rules {
		out[i] = r.name
	}
	return out
}

// Deconstruct classifies every character of sentence, coalesces runs into
// blocks, links them, and applies the registered rules in order. Only live
// blocks are returned, linked to each other by slice index.
func (d *Deconstructor) Deconstruct(sentence string) []*Block {
	a := d.scan(sentence)
	for _, r := range d.rules {
		for i := range a {
			if r.apply(a, i) {
				d.Logger.Debug("rule fired", "rule", r.name, "text", a[i].Text)
			}
		}
	}
	return a.compact()
}

func (d *Deconstructor) scan(sentence string) arena {
	var a arena
	var cur *Block
	var sb strings.Builder
	pos := 0
	for _, r := range sentence {
		f := d.Filters.Classify(r)
		if cur == nil || cur.Filter != f {
			if cur != nil {
				cur.Text = sb.String()
				sb.Reset()
			}
			cur = &Block{Filter: f, Start: pos, Alive: true}
			a = append(a, cur)
		}
		sb.WriteRune(r)
		pos++
		cur.End = pos
	}
	if cur != nil {
		cur.Text = sb.String()
	}
	for i, b := range a {
		b.Left, b.Right = i-1, i+1
	}
	if len(a) > 0 {
		a[len(a)-1].Right = -1
	}
	return a
}
