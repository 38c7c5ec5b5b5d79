// Package sqlmorph analyzes Oracle PL/SQL objects for PostgreSQL
// migration effort and rewrites them rule by rule. Every operation is a
// pure function of its arguments: the input is lexed and parsed into a
// lossless syntax tree, metadata and rule hits are computed from typed
// views of that tree, and applying a rule splices a targeted text edit
// into the original source. Nothing is shared between calls.
package sqlmorph

import (
	"fmt"

	"github.com/oxhq/sqlmorph/analyze"
	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/parser"
	"github.com/oxhq/sqlmorph/rules"
)

// Analyze parses text as the given object kind and returns its metadata
// record, including the hits of every registered rule in registry order.
func Analyze(kind, text string, ctx core.Context) (core.Metadata, error) {
	k, err := boundaryKind(kind)
	if err != nil {
		return core.Metadata{}, err
	}
	if err := validateContext(ctx); err != nil {
		return core.Metadata{}, err
	}
	entry, _ := parser.EntryFor(k)
	tree := parser.Parse(entry, text)
	return analyze.Run(k, tree, ctx, rules.Default), nil
}

// ApplyRule applies one rule at one location and returns the edited
// text. With a nil location the first match in source order is used; an
// explicit location must be one of the rule's current matches.
func ApplyRule(kind, text, ruleName string, loc *core.TextRange, ctx core.Context) (core.ApplyResult, error) {
	k, err := boundaryKind(kind)
	if err != nil {
		return core.ApplyResult{}, err
	}
	if err := validateContext(ctx); err != nil {
		return core.ApplyResult{}, err
	}
	rule, ok := rules.Default.Get(ruleName)
	if !ok {
		return core.ApplyResult{}, fmt.Errorf("%w: %s", core.ErrUnknownRule, ruleName)
	}

	entry, _ := parser.EntryFor(k)
	tree := parser.Parse(entry, text)
	ix := core.NewLineIndex(text)

	matches := rule.Match(tree, ix)
	if !rule.AppliesTo(k) || len(matches) == 0 {
		return core.ApplyResult{}, fmt.Errorf("%w: %s", core.ErrNoSuchMatch, ruleName)
	}

	target := matches[0]
	if loc != nil {
		found := false
		for _, m := range matches {
			if m.Offset == loc.Offset {
				target = m
				found = true
				break
			}
		}
		if !found {
			return core.ApplyResult{}, fmt.Errorf("%w: %s at %d..%d",
				core.ErrLocationNotFound, ruleName, loc.Offset.Start, loc.Offset.End)
		}
	}

	edit, err := rule.Apply(tree, ix, target)
	if err != nil {
		return core.ApplyResult{}, err
	}
	edited := core.ApplyEdit(text, edit)

	// Progress contract: re-analyzing must yield strictly fewer matches.
	afterTree := parser.Parse(entry, edited)
	after := rule.Match(afterTree, core.NewLineIndex(edited))
	if len(after) >= len(matches) {
		return core.ApplyResult{}, fmt.Errorf("%w: %s", core.ErrRuleNonProgress, ruleName)
	}

	return core.ApplyResult{
		Original: edited,
		Location: target,
		Diff:     core.Diff(text, edited),
	}, nil
}

// Transpile applies every registered rule to saturation in registry
// order and returns the final text with the application trail.
func Transpile(kind, text string, ctx core.Context) (core.TranspileResult, error) {
	k, err := boundaryKind(kind)
	if err != nil {
		return core.TranspileResult{}, err
	}
	if err := validateContext(ctx); err != nil {
		return core.TranspileResult{}, err
	}

	original := text
	entry, _ := parser.EntryFor(k)
	result := core.TranspileResult{}

	for _, rule := range rules.Default.All() {
		if !rule.AppliesTo(k) {
			continue
		}
		// The initial match count bounds the iterations for this rule;
		// the progress contract guarantees termination within it.
		tree := parser.Parse(entry, text)
		ix := core.NewLineIndex(text)
		bound := len(rule.Match(tree, ix))

		for i := 0; i < bound; i++ {
			tree = parser.Parse(entry, text)
			ix = core.NewLineIndex(text)
			matches := rule.Match(tree, ix)
			if len(matches) == 0 {
				break
			}
			edit, err := rule.Apply(tree, ix, matches[0])
			if err != nil {
				return core.TranspileResult{}, err
			}
			edited := core.ApplyEdit(text, edit)
			afterTree := parser.Parse(entry, edited)
			if len(rule.Match(afterTree, core.NewLineIndex(edited))) >= len(matches) {
				return core.TranspileResult{}, fmt.Errorf("%w: %s", core.ErrRuleNonProgress, rule.Name())
			}
			result.Applied = append(result.Applied, core.AppliedRule{
				Name:     rule.Name(),
				Location: matches[0],
			})
			text = edited
		}
	}

	result.Modified = text
	result.Diff = core.Diff(original, text)
	return result, nil
}

// RuleInfo describes one registered rule.
type RuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Rules lists the registered rules in registry order.
func Rules() []RuleInfo {
	var out []RuleInfo
	for _, r := range rules.Default.All() {
		out = append(out, RuleInfo{Name: r.Name(), Description: r.Describe()})
	}
	return out
}

func boundaryKind(kind string) (core.Kind, error) {
	k := core.Kind(kind)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
	}
	return k, nil
}

// validateContext rejects structurally malformed contexts: empty table
// or column names and columns without a type. Unknown type names pass;
// the type space is extensible.
func validateContext(ctx core.Context) error {
	for table, spec := range ctx.Tables {
		if table == "" {
			return fmt.Errorf("%w: empty table name", core.ErrInvalidContext)
		}
		for column, col := range spec.Columns {
			if column == "" {
				return fmt.Errorf("%w: table %s has an empty column name", core.ErrInvalidContext, table)
			}
			if col.Typ == "" {
				return fmt.Errorf("%w: column %s.%s has no type", core.ErrInvalidContext, table, column)
			}
		}
	}
	return nil
}
