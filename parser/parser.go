// Package parser implements a hand-written recursive-descent parser for
// the supported Oracle PL/SQL fragment. The parser walks a token cursor
// with arbitrary lookahead and emits a flat event stream; syntax.Build
// folds the events into the lossless tree. Errors never abort a parse:
// mismatched input is wrapped in Error nodes and parsing resumes at a
// synchronizing token.
package parser

import (
	"fmt"

	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/syntax"
)

// Entry selects the top-level production.
type Entry uint8

const (
	EntryFunction Entry = iota
	EntryProcedure
	EntryTrigger
	EntryView
	EntryQuery
	EntryBlock
	EntryExpression
)

// EntryFor maps a boundary kind to its grammar entry point.
func EntryFor(kind core.Kind) (Entry, bool) {
	switch kind {
	case core.KindFunction:
		return EntryFunction, true
	case core.KindProcedure:
		return EntryProcedure, true
	case core.KindTrigger:
		return EntryTrigger, true
	case core.KindQuery:
		return EntryQuery, true
	}
	return 0, false
}

// Parse lexes and parses src as the given entry production. It always
// consumes the whole input and always returns a tree satisfying the
// losslessness invariant; parse problems are recorded as Error nodes and
// diagnostics on the tree.
func Parse(entry Entry, src string) *syntax.Tree {
	tokens := syntax.Lex(src)
	p := &parser{src: src, tokens: tokens}

	p.start(syntax.Root)
	switch entry {
	case EntryFunction:
		p.parseFunction()
	case EntryProcedure:
		p.parseProcedure()
	case EntryTrigger:
		p.parseTrigger()
	case EntryView:
		p.parseView()
	case EntryQuery:
		p.parseQuery()
	case EntryBlock:
		p.parseBlock()
	case EntryExpression:
		p.parseExpr()
	}
	// Terminator tokens after the object belong to the root.
	for p.at(syntax.Semicolon) || p.at(syntax.Slash) {
		p.bump()
	}
	if !p.atEOF() {
		p.errorNode("unexpected trailing input", nil)
	}
	p.finish()

	return syntax.Build(src, tokens, p.events)
}

type marker int

type parser struct {
	src    string
	tokens []syntax.Token
	pos    int // raw index of the next unconsumed token
	events []syntax.Event
}

// rawNth returns the raw token index of the n-th upcoming non-trivia
// token, or len(tokens) when the stream is exhausted first.
func (p *parser) rawNth(n int) int {
	i := p.pos
	for i < len(p.tokens) {
		if !p.tokens[i].Kind.IsTrivia() {
			if n == 0 {
				return i
			}
			n--
		}
		i++
	}
	return len(p.tokens)
}

// nth peeks at the kind of the n-th upcoming non-trivia token.
func (p *parser) nth(n int) syntax.SyntaxKind {
	i := p.rawNth(n)
	if i >= len(p.tokens) {
		return syntax.EOF
	}
	return p.tokens[i].Kind
}

func (p *parser) current() syntax.SyntaxKind { return p.nth(0) }

func (p *parser) at(kind syntax.SyntaxKind) bool { return p.current() == kind }

func (p *parser) atAny(kinds ...syntax.SyntaxKind) bool {
	cur := p.current()
	for _, k := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}

func (p *parser) atEOF() bool { return p.at(syntax.EOF) }

// currentToken returns the upcoming non-trivia token. At end-of-input it
// returns a zero-length EOF token.
func (p *parser) currentToken() syntax.Token {
	i := p.rawNth(0)
	if i >= len(p.tokens) {
		return syntax.Token{Kind: syntax.EOF, Start: len(p.src), End: len(p.src)}
	}
	return p.tokens[i]
}

// currentOffset returns the byte offset of the upcoming token.
func (p *parser) currentOffset() int { return p.currentToken().Start }

// bump consumes the next non-trivia token. Intervening trivia rides along
// when the builder replays the events.
func (p *parser) bump() {
	i := p.rawNth(0)
	if i >= len(p.tokens) {
		return
	}
	p.events = append(p.events, syntax.Event{Kind: syntax.EventToken, Token: int32(i)})
	p.pos = i + 1
}

// eat consumes the next token when it has the given kind.
func (p *parser) eat(kind syntax.SyntaxKind) bool {
	if !p.at(kind) {
		return false
	}
	p.bump()
	return true
}

// expect consumes the next token of the given kind or records an error
// without consuming anything.
func (p *parser) expect(kind syntax.SyntaxKind) bool {
	if p.eat(kind) {
		return true
	}
	p.errorf("expected %s, found %s", kind, p.current())
	return false
}

func (p *parser) errorf(format string, args ...any) {
	p.events = append(p.events, syntax.Event{
		Kind:    syntax.EventError,
		Offset:  p.currentOffset(),
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *parser) start(kind syntax.SyntaxKind) {
	p.events = append(p.events, syntax.Event{Kind: syntax.EventStart, Node: kind})
}

func (p *parser) finish() {
	p.events = append(p.events, syntax.Event{Kind: syntax.EventFinish})
}

// marker remembers the current event position for a later wrap.
func (p *parser) marker() marker { return marker(len(p.events)) }

// wrap encloses every event since the marker in a new node of the given
// kind. Wrapping the same marker repeatedly nests outward, which is how
// left-associative chains build up.
func (p *parser) wrap(m marker, kind syntax.SyntaxKind) {
	p.events = append(p.events, syntax.Event{})
	copy(p.events[m+1:], p.events[m:])
	p.events[m] = syntax.Event{Kind: syntax.EventStart, Node: kind}
	p.events = append(p.events, syntax.Event{Kind: syntax.EventFinish})
}

// stmtSync is the statement-level synchronizing set: recovery skips to
// one of these (or end-of-input) before resuming.
var stmtSync = []syntax.SyntaxKind{
	syntax.Semicolon,
	syntax.KwEnd,
	syntax.KwBegin,
	syntax.KwException,
	syntax.Slash,
}

// errorNode records a diagnostic, wraps the offending tokens in an Error
// node and skips to the synchronizing set. A nil set skips to
// end-of-input. The error node consumes at least one token when not at a
// sync point, so recovery always makes progress.
func (p *parser) errorNode(msg string, sync []syntax.SyntaxKind) {
	p.errorf("%s", msg)
	p.start(syntax.Error)
	for !p.atEOF() {
		if sync != nil && p.atAny(sync...) {
			break
		}
		p.bump()
	}
	p.finish()
}
