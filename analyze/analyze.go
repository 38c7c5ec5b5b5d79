// Package analyze computes the migration metadata record from a parsed
// tree. Passes are pure functions over the typed AST; a pass that cannot
// compute a field leaves it zero and the rest of the record still fills
// in.
package analyze

import (
	"github.com/oxhq/sqlmorph/ast"
	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/rules"
	"github.com/oxhq/sqlmorph/syntax"
)

// Run produces the metadata record for one parsed input, including the
// rule hits of every applicable registered rule in registration order.
func Run(kind core.Kind, tree *syntax.Tree, ctx core.Context, reg *rules.Registry) core.Metadata {
	ix := core.NewLineIndex(tree.Source())

	md := core.Metadata{}
	switch kind {
	case core.KindFunction:
		md.Function = routinePass(tree, ctx, ix, func(n syntax.Node) (ast.Routine, bool) {
			f, ok := ast.AsFunction(n)
			return f, ok
		})
	case core.KindProcedure:
		md.Procedure = routinePass(tree, ctx, ix, func(n syntax.Node) (ast.Routine, bool) {
			p, ok := ast.AsProcedure(n)
			return p, ok
		})
	case core.KindTrigger:
		md.Trigger = routinePass(tree, ctx, ix, func(n syntax.Node) (ast.Routine, bool) {
			t, ok := ast.AsTrigger(n)
			return t, ok
		})
	case core.KindQuery:
		md.Query = queryPass(tree)
	}

	md.Diagnostics = tree.Diagnostics()
	md.Rules = reg.Hits(kind, tree, ix)
	return md
}

// routinePass extracts name, lines of code and parameters for functions,
// procedures and triggers.
func routinePass(tree *syntax.Tree, ctx core.Context, ix *core.LineIndex, as func(syntax.Node) (ast.Routine, bool)) *core.RoutineMetadata {
	md := &core.RoutineMetadata{}
	var routine ast.Routine
	for _, n := range tree.Root().ChildNodes() {
		if r, ok := as(n); ok {
			routine = r
			break
		}
	}
	if routine == nil {
		return md
	}

	if name, ok := routine.Name(); ok {
		md.Name = name.Text()
	}
	if body, ok := routine.Body(); ok {
		md.LinesOfCode = linesOfCode(body, ix)
	}
	md.Parameters = parameters(routine, ctx)
	return md
}

// linesOfCode counts the distinct source lines carrying at least one
// non-trivia token strictly between the body's BEGIN and END keywords.
// The keyword lines themselves count only when a statement token shares
// them.
func linesOfCode(body ast.Block, ix *core.LineIndex) int {
	begin, okBegin := body.BeginToken()
	end, okEnd := body.EndToken()
	if !okBegin || !okEnd {
		return 0
	}

	lines := make(map[int]struct{})
	body.Syntax().WalkTokens(func(tok syntax.Token) {
		if tok.Kind.IsTrivia() {
			return
		}
		if tok.Start < begin.End || tok.End > end.Start {
			return
		}
		first := ix.PosFor(tok.Start).Line
		last := ix.PosFor(tok.End - 1).Line
		for l := first; l <= last; l++ {
			lines[l] = struct{}{}
		}
	})
	return len(lines)
}

// parameters lists the header parameters, resolving %TYPE references
// against the analyze context.
func parameters(routine ast.Routine, ctx core.Context) []core.Parameter {
	var list ast.ParamList
	switch v := routine.(type) {
	case ast.Procedure:
		h, ok := v.Header()
		if !ok {
			return nil
		}
		list, ok = h.Params()
		if !ok {
			return nil
		}
	case ast.Function:
		h, ok := v.Header()
		if !ok {
			return nil
		}
		list, ok = h.Params()
		if !ok {
			return nil
		}
	default:
		return nil
	}

	var out []core.Parameter
	for _, p := range list.Params() {
		param := core.Parameter{Mode: p.Mode()}
		if name, ok := p.Name(); ok {
			param.Name = name.Text()
		}
		if dt, ok := p.Datatype(); ok {
			param.Datatype = dt.Text()
			if dt.IsTypeAttr() {
				if parts := dt.QualifiedParts(); len(parts) >= 2 {
					table := parts[len(parts)-2]
					column := parts[len(parts)-1]
					if typ, ok := ctx.ResolveColumn(table, column); ok {
						param.Resolved = string(typ)
					}
				}
			}
		}
		out = append(out, param)
	}
	return out
}

// queryPass counts legacy (+) outer-join markers inside WHERE clauses.
func queryPass(tree *syntax.Tree) *core.QueryMetadata {
	md := &core.QueryMetadata{}
	tree.Root().Walk(func(n syntax.Node) bool {
		if n.Kind() != syntax.WhereClause {
			return true
		}
		w := whereView(n)
		md.OuterJoins += len(w.OuterJoinMarkers())
		return false
	})
	return md
}

func whereView(n syntax.Node) ast.WhereClause {
	w, _ := ast.AsWhereClause(n)
	return w
}
