package syntax

import "github.com/oxhq/sqlmorph/core"

// EventKind discriminates parser events.
type EventKind uint8

const (
	// EventStart opens a non-terminal of Event.Node.
	EventStart EventKind = iota
	// EventFinish closes the most recently opened non-terminal.
	EventFinish
	// EventToken attaches the token at Event.Token to the open node.
	EventToken
	// EventError records a parse diagnostic without affecting the tree.
	EventError
)

// Event is one step of the flat parse event stream. The parser emits
// events; Build folds them into a Tree.
type Event struct {
	Kind    EventKind
	Node    SyntaxKind // for EventStart
	Token   int32      // token index, for EventToken
	Offset  int        // byte offset, for EventError
	Message string     // for EventError
}

// Build assembles the lossless tree from the token stream and the event
// stream. Tokens not referenced by any EventToken (the trivia) are
// interleaved back in: before a token is attached, all pending trivia in
// front of it attach to the currently open node, and whatever remains at
// the end attaches to the root. The result always satisfies the
// losslessness invariant, whatever the event stream looks like.
func Build(src string, tokens []Token, events []Event) *Tree {
	t := &Tree{src: src, tokens: tokens}
	t.nodes = make([]greenNode, 0, len(events)/2+1)

	var stack []int32
	next := int32(0) // index of the first token not yet in the tree

	attach := func(upto int32) {
		top := stack[len(stack)-1]
		for next < upto {
			t.nodes[top].children = append(t.nodes[top].children, tokenRef(next))
			next++
		}
	}

	// Trivia directly in front of a new node stays with the enclosing
	// node, so node spans begin at their first real token.
	attachTrivia := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		for int(next) < len(tokens) && tokens[next].Kind.IsTrivia() {
			t.nodes[top].children = append(t.nodes[top].children, tokenRef(next))
			next++
		}
	}

	for _, ev := range events {
		switch ev.Kind {
		case EventStart:
			attachTrivia()
			idx := int32(len(t.nodes))
			parent := int32(-1)
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
				t.nodes[parent].children = append(t.nodes[parent].children, nodeRef(idx))
			}
			t.nodes = append(t.nodes, greenNode{kind: ev.Node, parent: parent})
			stack = append(stack, idx)

		case EventToken:
			attach(ev.Token + 1)

		case EventFinish:
			if len(stack) == 1 {
				// Root: adopt any trailing trivia first.
				attach(int32(len(tokens)))
			}
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			t.setSpan(idx, next)

		case EventError:
			t.diags = append(t.diags, core.Diagnostic{
				Offset:  ev.Offset,
				Message: ev.Message,
			})
		}
	}

	// A well-formed event stream leaves the stack empty. Close anything
	// left open so the tree is usable regardless.
	for len(stack) > 0 {
		if len(stack) == 1 {
			top := stack[0]
			for next < int32(len(tokens)) {
				t.nodes[top].children = append(t.nodes[top].children, tokenRef(next))
				next++
			}
		}
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t.setSpan(idx, next)
	}

	if len(t.diags) > 0 {
		ix := core.NewLineIndex(src)
		for i := range t.diags {
			t.diags[i].Pos = ix.PosFor(t.diags[i].Offset)
		}
	}
	return t
}

// setSpan fixes the span of a finished node from its children. Childless
// nodes get a zero-length span anchored at the current position.
func (t *Tree) setSpan(idx, next int32) {
	g := &t.nodes[idx]
	if len(g.children) == 0 {
		anchor := len(t.src)
		if int(next) < len(t.tokens) {
			anchor = t.tokens[next].Start
		}
		g.start = int32(anchor)
		g.end = int32(anchor)
		return
	}
	first := Child{tree: t, ref: g.children[0]}.Span()
	last := Child{tree: t, ref: g.children[len(g.children)-1]}.Span()
	g.start = int32(first.Start)
	g.end = int32(last.End)
}
