package parser

import "github.com/oxhq/sqlmorph/syntax"

// Binding powers, loosest first. Comparison operators share one level;
// BETWEEN bounds parse above it so AND stays part of the BETWEEN form.
const (
	bpOr      = 1
	bpAnd     = 2
	bpNot     = 3
	bpCompare = 4
	bpConcat  = 5
	bpAdd     = 6
	bpMul     = 7
	bpUnary   = 8
)

var exprSync = []syntax.SyntaxKind{
	syntax.Comma,
	syntax.RParen,
	syntax.Semicolon,
	syntax.KwThen,
	syntax.KwEnd,
	syntax.KwFrom,
	syntax.KwWhere,
	syntax.KwBegin,
}

func (p *parser) parseExpr() { p.parseExprBp(0) }

// parseExprBp is a precedence climber. Every composite expression is
// wrapped in an Expression node; primaries keep their own kinds.
func (p *parser) parseExprBp(minBp int) {
	m := p.marker()

	switch {
	case p.at(syntax.KwNot):
		p.bump()
		p.parseExprBp(bpNot)
		p.wrap(m, syntax.Expression)
	case p.at(syntax.Minus), p.at(syntax.Plus):
		p.bump()
		p.parseExprBp(bpUnary)
		p.wrap(m, syntax.Expression)
	default:
		p.parsePrimary()
	}

	for {
		bp := 0
		op := p.current()
		switch op {
		case syntax.KwOr:
			bp = bpOr
		case syntax.KwAnd:
			bp = bpAnd
		case syntax.Eq, syntax.Neq, syntax.Lt, syntax.Lte, syntax.Gt, syntax.Gte,
			syntax.KwLike, syntax.KwBetween, syntax.KwIn, syntax.KwIs:
			bp = bpCompare
		case syntax.KwNot:
			// a NOT IN (...), a NOT BETWEEN x AND y, a NOT LIKE p
			switch p.nth(1) {
			case syntax.KwIn, syntax.KwBetween, syntax.KwLike:
				bp = bpCompare
			}
		case syntax.Concat:
			bp = bpConcat
		case syntax.Plus, syntax.Minus:
			bp = bpAdd
		case syntax.Star, syntax.Slash:
			bp = bpMul
		}
		if bp == 0 || bp <= minBp {
			return
		}

		switch op {
		case syntax.KwBetween:
			p.bump()
			p.parseExprBp(bpCompare)
			p.expect(syntax.KwAnd)
			p.parseExprBp(bpCompare)
		case syntax.KwIn:
			p.bump()
			p.parseInList()
		case syntax.KwIs:
			p.bump()
			p.eat(syntax.KwNot)
			p.expect(syntax.KwNull)
		case syntax.KwNot:
			p.bump()
			switch {
			case p.eat(syntax.KwIn):
				p.parseInList()
			case p.eat(syntax.KwBetween):
				p.parseExprBp(bpCompare)
				p.expect(syntax.KwAnd)
				p.parseExprBp(bpCompare)
			case p.eat(syntax.KwLike):
				p.parseExprBp(bpCompare)
			}
		default:
			p.bump()
			p.parseExprBp(bp)
		}
		p.wrap(m, syntax.Expression)
	}
}

func (p *parser) parseInList() {
	p.expect(syntax.LParen)
	for !p.at(syntax.RParen) && !p.atEOF() {
		p.parseExprBp(0)
		if !p.eat(syntax.Comma) {
			break
		}
	}
	p.expect(syntax.RParen)
}

func (p *parser) parsePrimary() {
	m := p.marker()
	switch {
	case p.atAny(syntax.Number, syntax.String, syntax.DollarString, syntax.UnterminatedString):
		p.bump()
		p.wrap(m, syntax.Literal)

	case p.at(syntax.KwNull):
		p.bump()
		p.wrap(m, syntax.Literal)

	case p.at(syntax.LParen):
		p.bump()
		p.parseExprBp(0)
		p.expect(syntax.RParen)
		p.wrap(m, syntax.Expression)

	case p.at(syntax.Star):
		p.bump()

	case p.atName():
		if p.atInvocation() {
			p.parseInvocation()
		} else {
			p.parseName()
			// Legacy outer-join marker rides behind column references.
			p.eat(syntax.OuterJoin)
		}

	default:
		p.errorNode("expected expression", exprSync)
	}
}

// atInvocation reports whether the upcoming dotted name is followed by an
// argument list.
func (p *parser) atInvocation() bool {
	n := 1
	for p.nth(n) == syntax.Dot && p.nth(n+1).IsNameToken() {
		n += 2
	}
	return p.nth(n) == syntax.LParen
}

// parseInvocation parses name(args). The name tokens stay direct children
// of the invocation so a bare reference is distinguishable from a call.
func (p *parser) parseInvocation() {
	m := p.marker()
	p.bump() // first name segment
	for p.at(syntax.Dot) && p.nth(1).IsNameToken() {
		p.bump()
		p.bump()
	}
	p.parseArgList()
	p.wrap(m, syntax.FunctionInvocation)
}

func (p *parser) parseArgList() {
	p.start(syntax.ArgList)
	p.expect(syntax.LParen)
	for !p.at(syntax.RParen) && !p.atEOF() {
		p.start(syntax.Arg)
		if p.current().IsNameToken() && p.nth(1) == syntax.Arrow {
			p.bump()
			p.bump()
		}
		if p.at(syntax.Star) {
			p.bump() // COUNT(*)
		} else {
			p.parseExprBp(0)
		}
		p.finish()
		if !p.eat(syntax.Comma) {
			break
		}
	}
	p.expect(syntax.RParen)
	p.finish()
}
