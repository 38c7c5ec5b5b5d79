package rules

import (
	"github.com/oxhq/sqlmorph/ast"
	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/syntax"
)

// The built-in CYAR rules. The numeric space is sparse; gaps are
// deliberate and names are never reassigned.
func init() {
	Default.Register(&rule{
		name:  "CYAR-0001",
		desc:  "procedure without parameter list needs () in PL/pgSQL",
		kinds: []core.Kind{core.KindProcedure},
		match: matchMissingParamList,
		apply: applyInsertParamList,
	})
	Default.Register(&rule{
		name:  "CYAR-0002",
		desc:  "IS body introducer becomes AS $$",
		kinds: []core.Kind{core.KindProcedure, core.KindFunction},
		match: matchIsIntroducer,
		apply: applyIsIntroducer,
	})
	Default.Register(&rule{
		name:  "CYAR-0003",
		desc:  "trailing END <name> becomes END; $$ LANGUAGE plpgsql",
		kinds: []core.Kind{core.KindProcedure, core.KindFunction},
		match: matchEndName,
		apply: applyEndName,
	})
	Default.Register(&rule{
		name:  "CYAR-0005",
		desc:  "SYSDATE becomes clock_timestamp()",
		kinds: []core.Kind{core.KindProcedure, core.KindFunction},
		match: matchSysdate,
		apply: applySysdate,
	})
	Default.Register(&rule{
		name:  "CYAR-0006",
		desc:  "NVL becomes COALESCE",
		kinds: []core.Kind{core.KindQuery},
		match: matchNvl,
		apply: applyNvl,
	})
}

// routineOf returns the routine view directly under the root, whichever
// of procedure, function or trigger is present.
func routineOf(tree *syntax.Tree) (ast.Routine, bool) {
	for _, n := range tree.Root().ChildNodes() {
		if p, ok := ast.AsProcedure(n); ok {
			return p, true
		}
		if f, ok := ast.AsFunction(n); ok {
			return f, true
		}
		if t, ok := ast.AsTrigger(n); ok {
			return t, true
		}
	}
	return nil, false
}

// ---- CYAR-0001 ----

func matchMissingParamList(m *matchContext) []core.TextRange {
	for _, n := range m.tree.Root().ChildNodes() {
		p, ok := ast.AsProcedure(n)
		if !ok {
			continue
		}
		header, ok := p.Header()
		if !ok {
			continue
		}
		if _, ok := header.Params(); ok {
			continue
		}
		name, ok := header.Name()
		if !ok {
			continue
		}
		at := name.Syntax().Span().End
		return []core.TextRange{m.spanRange(core.Span{Start: at, End: at})}
	}
	return nil
}

func applyInsertParamList(m *matchContext, loc core.TextRange) (core.TextEdit, error) {
	return core.TextEdit{Range: loc, Replacement: "()"}, nil
}

// ---- CYAR-0002 ----

func matchIsIntroducer(m *matchContext) []core.TextRange {
	r, ok := routineOf(m.tree)
	if !ok {
		return nil
	}
	intro, ok := introducerOf(r)
	if !ok || intro.Kind != syntax.KwIs {
		return nil
	}
	return []core.TextRange{m.tokenRange(intro)}
}

func introducerOf(r ast.Routine) (syntax.Token, bool) {
	switch v := r.(type) {
	case ast.Procedure:
		return v.BodyIntroducer()
	case ast.Function:
		return v.BodyIntroducer()
	}
	return syntax.Token{}, false
}

func applyIsIntroducer(m *matchContext, loc core.TextRange) (core.TextEdit, error) {
	return core.TextEdit{Range: loc, Replacement: "AS $$"}, nil
}

// ---- CYAR-0003 ----

func matchEndName(m *matchContext) []core.TextRange {
	r, ok := routineOf(m.tree)
	if !ok {
		return nil
	}
	body, ok := r.Body()
	if !ok {
		return nil
	}
	end, ok := body.EndToken()
	if !ok {
		return nil
	}
	name, ok := body.EndName()
	if !ok {
		return nil
	}
	span := core.Span{Start: end.Start, End: name.Syntax().Span().End}
	return []core.TextRange{m.spanRange(span)}
}

func applyEndName(m *matchContext, loc core.TextRange) (core.TextEdit, error) {
	return core.TextEdit{Range: loc, Replacement: "END;\n$$ LANGUAGE plpgsql"}, nil
}

// ---- CYAR-0005 ----

func matchSysdate(m *matchContext) []core.TextRange {
	r, ok := routineOf(m.tree)
	if !ok {
		return nil
	}
	body, ok := r.Body()
	if !ok {
		return nil
	}
	var out []core.TextRange
	body.Syntax().Walk(func(n syntax.Node) bool {
		if n.Kind() != syntax.Identifier {
			return true
		}
		ref, _ := ast.AsNameRef(n)
		segs := ref.Segments()
		if len(segs) == 1 && segs[0].Kind == syntax.Ident &&
			core.EqualFold(segs[0].Text(m.src), "sysdate") {
			out = append(out, m.spanRange(n.Span()))
		}
		return true
	})
	return out
}

func applySysdate(m *matchContext, loc core.TextRange) (core.TextEdit, error) {
	return core.TextEdit{Range: loc, Replacement: "clock_timestamp()"}, nil
}

// ---- CYAR-0006 ----

func matchNvl(m *matchContext) []core.TextRange {
	var out []core.TextRange
	for _, inv := range nvlInvocations(m.tree.Root()) {
		out = append(out, m.spanRange(inv.Syntax().Span()))
	}
	return out
}

// applyNvl rewrites one NVL call to COALESCE by replacing its name
// token. When the selected call nests further NVL calls, the innermost
// one is rewritten first; repeated application therefore converges from
// the inside out.
func applyNvl(m *matchContext, loc core.TextRange) (core.TextEdit, error) {
	var target syntax.Node
	found := false
	m.tree.Root().Walk(func(n syntax.Node) bool {
		if n.Kind() == syntax.FunctionInvocation && n.Span() == loc.Offset {
			target = n
			found = true
			return false
		}
		return true
	})
	if !found {
		return core.TextEdit{}, core.ErrInternal
	}

	inner := innermostNvl(target)
	inv, _ := ast.AsFunctionInvocation(inner)
	names := inv.NameTokens()
	if len(names) == 0 {
		return core.TextEdit{}, core.ErrInternal
	}
	return core.TextEdit{
		Range:       m.tokenRange(names[len(names)-1]),
		Replacement: "COALESCE",
	}, nil
}

// nvlInvocations returns every NVL invocation under n in source order.
func nvlInvocations(n syntax.Node) []ast.FunctionInvocation {
	var out []ast.FunctionInvocation
	n.Walk(func(c syntax.Node) bool {
		if inv, ok := ast.AsFunctionInvocation(c); ok && core.EqualFold(inv.NameText(), "nvl") {
			out = append(out, inv)
		}
		return true
	})
	return out
}

// innermostNvl descends to the first NVL invocation that contains no
// further NVL calls, starting at (and including) root.
func innermostNvl(root syntax.Node) syntax.Node {
	all := nvlInvocations(root)
	for _, inv := range all {
		nested := nvlInvocations(inv.Syntax())
		// nvlInvocations includes the node itself; one entry means leaf.
		if len(nested) == 1 {
			return inv.Syntax()
		}
	}
	return root
}
