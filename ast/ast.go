// Package ast layers typed views over the concrete syntax tree. A view
// is a thin wrapper around one syntax.Node of a known kind; accessors
// filter children by kind and never copy or mutate tree data.
package ast

import (
	"strings"

	"github.com/oxhq/sqlmorph/syntax"
)

// Routine is implemented by the views with a header name and a block
// body: Procedure, Function and Trigger. Only Procedure and Function have
// an IS/AS body introducer.
type Routine interface {
	Name() (NameRef, bool)
	Body() (Block, bool)
}

// ---- Names ----

// NameRef wraps an Identifier or QualifiedIdentifier node.
type NameRef struct {
	node syntax.Node
}

// AsNameRef downcasts a generic node to a name reference.
func AsNameRef(n syntax.Node) (NameRef, bool) {
	switch n.Kind() {
	case syntax.Identifier, syntax.QualifiedIdentifier:
		return NameRef{node: n}, true
	}
	return NameRef{}, false
}

// Syntax returns the underlying node.
func (r NameRef) Syntax() syntax.Node { return r.node }

// Segments returns the name tokens, qualification dots excluded.
func (r NameRef) Segments() []syntax.Token {
	var segs []syntax.Token
	for _, tok := range r.node.ChildTokens() {
		switch tok.Kind {
		case syntax.Ident, syntax.QuotedIdent, syntax.BindVar:
			segs = append(segs, tok)
		}
	}
	return segs
}

// Text returns the reference as written, trivia dropped.
func (r NameRef) Text() string {
	var b strings.Builder
	for _, tok := range r.node.ChildTokens() {
		if !tok.Kind.IsTrivia() {
			b.WriteString(tok.Text(r.node.Tree().Source()))
		}
	}
	return b.String()
}

// IsBare reports whether the reference is a single unqualified segment.
func (r NameRef) IsBare() bool { return r.node.Kind() == syntax.Identifier }

// ---- Routines ----

// Procedure wraps a Procedure node.
type Procedure struct {
	node syntax.Node
}

// AsProcedure downcasts a generic node.
func AsProcedure(n syntax.Node) (Procedure, bool) {
	if n.Kind() != syntax.Procedure {
		return Procedure{}, false
	}
	return Procedure{node: n}, true
}

func (p Procedure) Syntax() syntax.Node { return p.node }

// Header returns the procedure header.
func (p Procedure) Header() (ProcedureHeader, bool) {
	n, ok := p.node.FirstNodeOfKind(syntax.ProcedureHeader)
	return ProcedureHeader{node: n}, ok
}

// Name returns the header name.
func (p Procedure) Name() (NameRef, bool) {
	h, ok := p.Header()
	if !ok {
		return NameRef{}, false
	}
	return h.Name()
}

// BodyIntroducer returns the IS or AS token before the body.
func (p Procedure) BodyIntroducer() (syntax.Token, bool) {
	if tok, ok := p.node.FirstTokenOfKind(syntax.KwIs); ok {
		return tok, true
	}
	return p.node.FirstTokenOfKind(syntax.KwAs)
}

// Body returns the statement block.
func (p Procedure) Body() (Block, bool) {
	n, ok := p.node.FirstNodeOfKind(syntax.Block)
	return Block{node: n}, ok
}

// ProcedureHeader wraps a ProcedureHeader node.
type ProcedureHeader struct {
	node syntax.Node
}

func (h ProcedureHeader) Syntax() syntax.Node { return h.node }

// Name returns the declared name.
func (h ProcedureHeader) Name() (NameRef, bool) {
	for _, child := range h.node.ChildNodes() {
		if ref, ok := AsNameRef(child); ok {
			return ref, true
		}
	}
	return NameRef{}, false
}

// Params returns the parameter list when the header has one.
func (h ProcedureHeader) Params() (ParamList, bool) {
	n, ok := h.node.FirstNodeOfKind(syntax.ParamList)
	return ParamList{node: n}, ok
}

// Function wraps a Function node.
type Function struct {
	node syntax.Node
}

// AsFunction downcasts a generic node.
func AsFunction(n syntax.Node) (Function, bool) {
	if n.Kind() != syntax.Function {
		return Function{}, false
	}
	return Function{node: n}, true
}

func (f Function) Syntax() syntax.Node { return f.node }

// Header returns the function header.
func (f Function) Header() (FunctionHeader, bool) {
	n, ok := f.node.FirstNodeOfKind(syntax.FunctionHeader)
	return FunctionHeader{node: n}, ok
}

// Name returns the header name.
func (f Function) Name() (NameRef, bool) {
	h, ok := f.Header()
	if !ok {
		return NameRef{}, false
	}
	return h.Name()
}

// ReturnClause returns the RETURN type clause.
func (f Function) ReturnClause() (ReturnClause, bool) {
	n, ok := f.node.FirstNodeOfKind(syntax.ReturnClause)
	return ReturnClause{node: n}, ok
}

// BodyIntroducer returns the IS or AS token before the body.
func (f Function) BodyIntroducer() (syntax.Token, bool) {
	if tok, ok := f.node.FirstTokenOfKind(syntax.KwIs); ok {
		return tok, true
	}
	return f.node.FirstTokenOfKind(syntax.KwAs)
}

// Body returns the statement block.
func (f Function) Body() (Block, bool) {
	n, ok := f.node.FirstNodeOfKind(syntax.Block)
	return Block{node: n}, ok
}

// FunctionHeader wraps a FunctionHeader node.
type FunctionHeader struct {
	node syntax.Node
}

func (h FunctionHeader) Syntax() syntax.Node { return h.node }

// Name returns the declared name.
func (h FunctionHeader) Name() (NameRef, bool) {
	for _, child := range h.node.ChildNodes() {
		if ref, ok := AsNameRef(child); ok {
			return ref, true
		}
	}
	return NameRef{}, false
}

// Params returns the parameter list when the header has one.
func (h FunctionHeader) Params() (ParamList, bool) {
	n, ok := h.node.FirstNodeOfKind(syntax.ParamList)
	return ParamList{node: n}, ok
}

// ReturnClause wraps a ReturnClause node.
type ReturnClause struct {
	node syntax.Node
}

func (r ReturnClause) Syntax() syntax.Node { return r.node }

// Datatype returns the declared return type.
func (r ReturnClause) Datatype() (Datatype, bool) {
	n, ok := r.node.FirstNodeOfKind(syntax.Datatype)
	return Datatype{node: n}, ok
}

// ---- Parameters ----

// ParamList wraps a ParamList node.
type ParamList struct {
	node syntax.Node
}

func (l ParamList) Syntax() syntax.Node { return l.node }

// Params returns the parameters in declaration order.
func (l ParamList) Params() []Param {
	var out []Param
	for _, n := range l.node.NodesOfKind(syntax.Param) {
		out = append(out, Param{node: n})
	}
	return out
}

// Param wraps a Param node.
type Param struct {
	node syntax.Node
}

func (p Param) Syntax() syntax.Node { return p.node }

// Name returns the parameter name.
func (p Param) Name() (NameRef, bool) {
	for _, child := range p.node.ChildNodes() {
		if ref, ok := AsNameRef(child); ok {
			return ref, true
		}
	}
	return NameRef{}, false
}

// Mode returns the normalized parameter mode: "IN", "OUT" or "IN OUT".
// The default mode is the empty string.
func (p Param) Mode() string {
	n, ok := p.node.FirstNodeOfKind(syntax.ParamMode)
	if !ok {
		return ""
	}
	var parts []string
	for _, tok := range n.ChildTokens() {
		switch tok.Kind {
		case syntax.KwIn:
			parts = append(parts, "IN")
		case syntax.KwOut:
			parts = append(parts, "OUT")
		}
	}
	return strings.Join(parts, " ")
}

// Datatype returns the declared type.
func (p Param) Datatype() (Datatype, bool) {
	n, ok := p.node.FirstNodeOfKind(syntax.Datatype)
	return Datatype{node: n}, ok
}

// Datatype wraps a Datatype node.
type Datatype struct {
	node syntax.Node
}

func (d Datatype) Syntax() syntax.Node { return d.node }

// Text returns the type as written, trivia dropped.
func (d Datatype) Text() string {
	var b strings.Builder
	src := d.node.Tree().Source()
	d.node.WalkTokens(func(tok syntax.Token) {
		if !tok.Kind.IsTrivia() {
			b.WriteString(tok.Text(src))
		}
	})
	return b.String()
}

// IsTypeAttr reports whether the type is a %TYPE reference.
func (d Datatype) IsTypeAttr() bool {
	_, ok := d.node.FirstTokenOfKind(syntax.TypeAttr)
	return ok
}

// QualifiedParts returns the name segments before a %TYPE / %ROWTYPE
// anchor, e.g. ["persons", "id"] for persons.id%TYPE.
func (d Datatype) QualifiedParts() []string {
	var parts []string
	src := d.node.Tree().Source()
	for _, tok := range d.node.ChildTokens() {
		if tok.Kind.IsNameToken() {
			parts = append(parts, tok.Text(src))
		}
	}
	return parts
}

// ---- Blocks ----

// Block wraps a Block node.
type Block struct {
	node syntax.Node
}

// AsBlock downcasts a generic node.
func AsBlock(n syntax.Node) (Block, bool) {
	if n.Kind() != syntax.Block {
		return Block{}, false
	}
	return Block{node: n}, true
}

func (b Block) Syntax() syntax.Node { return b.node }

// BeginToken returns the block's BEGIN keyword.
func (b Block) BeginToken() (syntax.Token, bool) {
	return b.node.FirstTokenOfKind(syntax.KwBegin)
}

// EndToken returns the block's closing END keyword, a direct child.
func (b Block) EndToken() (syntax.Token, bool) {
	var end syntax.Token
	var found bool
	for _, tok := range b.node.ChildTokens() {
		if tok.Kind == syntax.KwEnd {
			end = tok
			found = true
		}
	}
	return end, found
}

// EndName returns the optional label after END.
func (b Block) EndName() (NameRef, bool) {
	end, ok := b.EndToken()
	if !ok {
		return NameRef{}, false
	}
	for _, child := range b.node.ChildNodes() {
		if child.Span().Start >= end.End {
			if ref, ok := AsNameRef(child); ok {
				return ref, true
			}
		}
	}
	return NameRef{}, false
}

// ---- Triggers ----

// Trigger wraps a Trigger node.
type Trigger struct {
	node syntax.Node
}

// AsTrigger downcasts a generic node.
func AsTrigger(n syntax.Node) (Trigger, bool) {
	if n.Kind() != syntax.Trigger {
		return Trigger{}, false
	}
	return Trigger{node: n}, true
}

func (t Trigger) Syntax() syntax.Node { return t.node }

// Name returns the trigger name from its header.
func (t Trigger) Name() (NameRef, bool) {
	h, ok := t.node.FirstNodeOfKind(syntax.TriggerHeader)
	if !ok {
		return NameRef{}, false
	}
	for _, child := range h.ChildNodes() {
		if ref, ok := AsNameRef(child); ok {
			return ref, true
		}
	}
	return NameRef{}, false
}

// Body returns the block inside the trigger body.
func (t Trigger) Body() (Block, bool) {
	body, ok := t.node.FirstNodeOfKind(syntax.TriggerBody)
	if !ok {
		return Block{}, false
	}
	n, ok := body.FirstNodeOfKind(syntax.Block)
	return Block{node: n}, ok
}

// ---- Queries ----

// SelectStmt wraps a SelectStmt node.
type SelectStmt struct {
	node syntax.Node
}

// AsSelectStmt downcasts a generic node.
func AsSelectStmt(n syntax.Node) (SelectStmt, bool) {
	if n.Kind() != syntax.SelectStmt {
		return SelectStmt{}, false
	}
	return SelectStmt{node: n}, true
}

func (s SelectStmt) Syntax() syntax.Node { return s.node }

// Where returns the statement's WHERE clause.
func (s SelectStmt) Where() (WhereClause, bool) {
	n, ok := s.node.FirstNodeOfKind(syntax.WhereClause)
	return WhereClause{node: n}, ok
}

// WhereClause wraps a WhereClause node.
type WhereClause struct {
	node syntax.Node
}

// AsWhereClause downcasts a generic node.
func AsWhereClause(n syntax.Node) (WhereClause, bool) {
	if n.Kind() != syntax.WhereClause {
		return WhereClause{}, false
	}
	return WhereClause{node: n}, true
}

func (w WhereClause) Syntax() syntax.Node { return w.node }

// OuterJoinMarkers returns every legacy (+) marker in the clause.
func (w WhereClause) OuterJoinMarkers() []syntax.Token {
	var out []syntax.Token
	w.node.WalkTokens(func(tok syntax.Token) {
		if tok.Kind == syntax.OuterJoin {
			out = append(out, tok)
		}
	})
	return out
}

// ---- Invocations ----

// FunctionInvocation wraps a FunctionInvocation node.
type FunctionInvocation struct {
	node syntax.Node
}

// AsFunctionInvocation downcasts a generic node.
func AsFunctionInvocation(n syntax.Node) (FunctionInvocation, bool) {
	if n.Kind() != syntax.FunctionInvocation {
		return FunctionInvocation{}, false
	}
	return FunctionInvocation{node: n}, true
}

func (f FunctionInvocation) Syntax() syntax.Node { return f.node }

// NameTokens returns the invoked name's segment tokens.
func (f FunctionInvocation) NameTokens() []syntax.Token {
	var out []syntax.Token
	for _, tok := range f.node.ChildTokens() {
		if tok.Kind.IsNameToken() {
			out = append(out, tok)
		}
	}
	return out
}

// NameText returns the dotted name as written, trivia dropped.
func (f FunctionInvocation) NameText() string {
	var b strings.Builder
	src := f.node.Tree().Source()
	for _, tok := range f.node.ChildTokens() {
		switch {
		case tok.Kind.IsNameToken():
			b.WriteString(tok.Text(src))
		case tok.Kind == syntax.Dot:
			b.WriteString(".")
		}
	}
	return b.String()
}

// Args returns the argument list.
func (f FunctionInvocation) Args() (ArgList, bool) {
	n, ok := f.node.FirstNodeOfKind(syntax.ArgList)
	return ArgList{node: n}, ok
}

// ArgList wraps an ArgList node.
type ArgList struct {
	node syntax.Node
}

func (l ArgList) Syntax() syntax.Node { return l.node }

// Args returns the arguments in order.
func (l ArgList) Args() []syntax.Node {
	return l.node.NodesOfKind(syntax.Arg)
}
