package syntax

import (
	"strings"

	"github.com/oxhq/sqlmorph/core"
)

// Tree is the lossless concrete syntax tree for one parsed input. Nodes
// live in a flat arena owned by the tree; Node values are lightweight
// cursors into it. Concatenating the text of all leaves in order
// reproduces the source byte-for-byte.
type Tree struct {
	src    string
	tokens []Token
	nodes  []greenNode
	diags  []core.Diagnostic
}

// childRef addresses either a node (non-negative arena index) or a token
// (bitwise complement of the token index).
type childRef int32

func nodeRef(i int32) childRef  { return childRef(i) }
func tokenRef(i int32) childRef { return ^childRef(i) }

func (r childRef) isToken() bool { return r < 0 }

type greenNode struct {
	kind     SyntaxKind
	parent   int32 // -1 for the root
	start    int32
	end      int32
	children []childRef
}

// Source returns the input text the tree was parsed from.
func (t *Tree) Source() string { return t.src }

// Tokens returns the full covering token stream, trivia included.
func (t *Tree) Tokens() []Token { return t.tokens }

// Diagnostics returns the parse errors recorded while building the tree.
func (t *Tree) Diagnostics() []core.Diagnostic { return t.diags }

// Root returns the root node.
func (t *Tree) Root() Node { return Node{tree: t, idx: 0} }

// Node is a cursor to one non-terminal in the tree.
type Node struct {
	tree *Tree
	idx  int32
}

func (n Node) green() *greenNode { return &n.tree.nodes[n.idx] }

// Tree returns the tree the node belongs to.
func (n Node) Tree() *Tree { return n.tree }

// Kind returns the node's syntax kind.
func (n Node) Kind() SyntaxKind { return n.green().kind }

// Span returns the node's byte range, the union of its children's spans.
func (n Node) Span() core.Span {
	g := n.green()
	return core.Span{Start: int(g.start), End: int(g.end)}
}

// Text returns the source bytes the node covers.
func (n Node) Text() string {
	s := n.Span()
	return n.tree.src[s.Start:s.End]
}

// Parent returns the enclosing node, or false at the root.
func (n Node) Parent() (Node, bool) {
	p := n.green().parent
	if p < 0 {
		return Node{}, false
	}
	return Node{tree: n.tree, idx: p}, true
}

// NumChildren returns the number of direct children, tokens included.
func (n Node) NumChildren() int { return len(n.green().children) }

// ChildAt returns the i-th direct child.
func (n Node) ChildAt(i int) Child {
	return Child{tree: n.tree, ref: n.green().children[i]}
}

// Child is one direct child of a node: either a sub-node or a token.
type Child struct {
	tree *Tree
	ref  childRef
}

// IsToken reports whether the child is a terminal.
func (c Child) IsToken() bool { return c.ref.isToken() }

// AsNode returns the child as a node when it is one.
func (c Child) AsNode() (Node, bool) {
	if c.ref.isToken() {
		return Node{}, false
	}
	return Node{tree: c.tree, idx: int32(c.ref)}, true
}

// AsToken returns the child as a token when it is one.
func (c Child) AsToken() (Token, bool) {
	if !c.ref.isToken() {
		return Token{}, false
	}
	return c.tree.tokens[^c.ref], true
}

// Kind returns the child's syntax kind.
func (c Child) Kind() SyntaxKind {
	if tok, ok := c.AsToken(); ok {
		return tok.Kind
	}
	node, _ := c.AsNode()
	return node.Kind()
}

// Span returns the child's byte range.
func (c Child) Span() core.Span {
	if tok, ok := c.AsToken(); ok {
		return tok.Span()
	}
	node, _ := c.AsNode()
	return node.Span()
}

// Text returns the child's source bytes.
func (c Child) Text() string {
	s := c.Span()
	return c.tree.src[s.Start:s.End]
}

// ChildNodes returns the direct non-terminal children in order.
func (n Node) ChildNodes() []Node {
	var out []Node
	for _, ref := range n.green().children {
		if !ref.isToken() {
			out = append(out, Node{tree: n.tree, idx: int32(ref)})
		}
	}
	return out
}

// ChildTokens returns the direct terminal children in order, trivia
// included.
func (n Node) ChildTokens() []Token {
	var out []Token
	for _, ref := range n.green().children {
		if ref.isToken() {
			out = append(out, n.tree.tokens[^ref])
		}
	}
	return out
}

// FirstNodeOfKind returns the first direct child node of the given kind.
func (n Node) FirstNodeOfKind(kind SyntaxKind) (Node, bool) {
	for _, ref := range n.green().children {
		if !ref.isToken() {
			child := Node{tree: n.tree, idx: int32(ref)}
			if child.Kind() == kind {
				return child, true
			}
		}
	}
	return Node{}, false
}

// NodesOfKind returns every direct child node of the given kind.
func (n Node) NodesOfKind(kind SyntaxKind) []Node {
	var out []Node
	for _, ref := range n.green().children {
		if !ref.isToken() {
			child := Node{tree: n.tree, idx: int32(ref)}
			if child.Kind() == kind {
				out = append(out, child)
			}
		}
	}
	return out
}

// FirstTokenOfKind returns the first direct child token of the given kind.
func (n Node) FirstTokenOfKind(kind SyntaxKind) (Token, bool) {
	for _, ref := range n.green().children {
		if ref.isToken() {
			tok := n.tree.tokens[^ref]
			if tok.Kind == kind {
				return tok, true
			}
		}
	}
	return Token{}, false
}

// Walk visits the subtree rooted at n in pre-order. The callback returns
// false to skip a node's children.
func (n Node) Walk(fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, ref := range n.green().children {
		if !ref.isToken() {
			Node{tree: n.tree, idx: int32(ref)}.Walk(fn)
		}
	}
}

// WalkTokens visits every leaf token of the subtree in source order,
// trivia included.
func (n Node) WalkTokens(fn func(Token)) {
	for _, ref := range n.green().children {
		if ref.isToken() {
			fn(n.tree.tokens[^ref])
		} else {
			Node{tree: n.tree, idx: int32(ref)}.WalkTokens(fn)
		}
	}
}

// Reconstruct concatenates the leaf text of the subtree. On the root this
// equals the original source.
func (n Node) Reconstruct() string {
	var b strings.Builder
	n.WalkTokens(func(tok Token) {
		b.WriteString(tok.Text(n.tree.src))
	})
	return b.String()
}

// CoveringNode returns the innermost node whose span contains the given
// byte offset.
func (t *Tree) CoveringNode(offset int) Node {
	n := t.Root()
outer:
	for {
		for _, ref := range n.green().children {
			if ref.isToken() {
				continue
			}
			child := Node{tree: t, idx: int32(ref)}
			s := child.Span()
			if s.Contains(offset) && s.Len() > 0 {
				n = child
				continue outer
			}
		}
		return n
	}
}
