// Package rules implements the migration rule registry. A rule knows how
// to enumerate its matches in a parsed tree, describe itself, and produce
// a text edit for one match. Rules never mutate the tree; they propose
// edits against the original source and the pipeline re-parses after
// every application.
package rules

import (
	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/syntax"
)

// Rule is one named migration obstacle detector and rewriter.
type Rule interface {
	// Name returns the stable rule identifier, e.g. "CYAR-0002".
	Name() string
	// Describe returns a short human-readable label.
	Describe() string
	// AppliesTo reports whether the rule runs for the given object kind.
	AppliesTo(kind core.Kind) bool
	// Match enumerates the rule's locations in source order.
	Match(tree *syntax.Tree, ix *core.LineIndex) []core.TextRange
	// Apply produces the edit for one match location. The location must
	// come from Match on the same tree.
	Apply(tree *syntax.Tree, ix *core.LineIndex, loc core.TextRange) (core.TextEdit, error)
}

// Registry holds rules in registration order. Registration order is the
// canonical order hits are reported in.
type Registry struct {
	rules  []Rule
	byName map[string]Rule
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Rule)}
}

// Register adds a rule. Re-registering a name replaces the entry but
// keeps the original position.
func (r *Registry) Register(rule Rule) {
	if _, exists := r.byName[rule.Name()]; exists {
		for i, existing := range r.rules {
			if existing.Name() == rule.Name() {
				r.rules[i] = rule
				break
			}
		}
	} else {
		r.rules = append(r.rules, rule)
	}
	r.byName[rule.Name()] = rule
}

// Get retrieves a rule by name.
func (r *Registry) Get(name string) (Rule, bool) {
	rule, ok := r.byName[name]
	return rule, ok
}

// All returns the rules in registration order.
func (r *Registry) All() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Names returns the registered rule names in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule.Name()
	}
	return out
}

// Hits runs every applicable rule against the tree and collects the
// non-empty results in registration order.
func (r *Registry) Hits(kind core.Kind, tree *syntax.Tree, ix *core.LineIndex) []core.RuleHit {
	hits := []core.RuleHit{}
	for _, rule := range r.rules {
		if !rule.AppliesTo(kind) {
			continue
		}
		locs := rule.Match(tree, ix)
		if len(locs) == 0 {
			continue
		}
		hits = append(hits, core.RuleHit{
			Name:      rule.Name(),
			Locations: locs,
			ShortDesc: rule.Describe(),
		})
	}
	return hits
}

// Default is the process-wide registry. It is populated at init time and
// treated as immutable afterwards.
var Default = NewRegistry()

// rule is the closure-based Rule implementation the built-in rules use.
type rule struct {
	name  string
	desc  string
	kinds []core.Kind
	match func(m *matchContext) []core.TextRange
	apply func(m *matchContext, loc core.TextRange) (core.TextEdit, error)
}

func (r *rule) Name() string     { return r.name }
func (r *rule) Describe() string { return r.desc }

func (r *rule) AppliesTo(kind core.Kind) bool {
	for _, k := range r.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (r *rule) Match(tree *syntax.Tree, ix *core.LineIndex) []core.TextRange {
	return r.match(&matchContext{tree: tree, ix: ix, src: tree.Source()})
}

func (r *rule) Apply(tree *syntax.Tree, ix *core.LineIndex, loc core.TextRange) (core.TextEdit, error) {
	return r.apply(&matchContext{tree: tree, ix: ix, src: tree.Source()}, loc)
}

// matchContext bundles what match and apply closures need.
type matchContext struct {
	tree *syntax.Tree
	ix   *core.LineIndex
	src  string
}

func (m *matchContext) tokenRange(tok syntax.Token) core.TextRange {
	return m.ix.RangeFor(tok.Span())
}

func (m *matchContext) spanRange(span core.Span) core.TextRange {
	return m.ix.RangeFor(span)
}
