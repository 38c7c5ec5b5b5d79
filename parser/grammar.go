package parser

import (
	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/syntax"
)

// createPrefix consumes CREATE [OR REPLACE] [EDITIONABLE].
func (p *parser) createPrefix() {
	if p.eat(syntax.KwCreate) {
		if p.at(syntax.KwOr) {
			p.bump()
			p.expect(syntax.KwReplace)
		}
		p.eat(syntax.KwEditionable)
	}
}

// parseName parses a possibly qualified, possibly quoted name and wraps
// it in Identifier (single segment) or QualifiedIdentifier (dotted). The
// first segment of a bind-style reference (:NEW.col) is a BindVar token.
func (p *parser) parseName() bool {
	m := p.marker()
	switch {
	case p.at(syntax.BindVar):
		p.bump()
	case p.current().IsNameToken():
		p.bump()
	default:
		p.errorf("expected identifier, found %s", p.current())
		return false
	}
	segments := 1
	for p.at(syntax.Dot) && p.nth(1).IsNameToken() {
		p.bump() // .
		p.bump() // segment
		segments++
	}
	if segments == 1 {
		p.wrap(m, syntax.Identifier)
	} else {
		p.wrap(m, syntax.QualifiedIdentifier)
	}
	return true
}

// atName reports whether a name reference can start here.
func (p *parser) atName() bool {
	return p.current().IsNameToken() || p.at(syntax.BindVar)
}

// ---- Routines ----

func (p *parser) parseFunction() {
	p.start(syntax.Function)
	p.createPrefix()
	p.expect(syntax.KwFunction)

	p.start(syntax.FunctionHeader)
	p.parseName()
	if p.at(syntax.LParen) {
		p.parseParamList()
	}
	p.finish()

	if p.at(syntax.KwReturn) {
		p.start(syntax.ReturnClause)
		p.bump()
		p.parseDatatype()
		p.finish()
	} else {
		p.errorf("expected RETURN clause, found %s", p.current())
	}

	p.parseRoutineBody()
	p.finish()
}

func (p *parser) parseProcedure() {
	p.start(syntax.Procedure)
	p.createPrefix()
	p.expect(syntax.KwProcedure)

	p.start(syntax.ProcedureHeader)
	p.parseName()
	if p.at(syntax.LParen) {
		p.parseParamList()
	}
	p.finish()

	p.parseRoutineBody()
	p.finish()
}

// parseRoutineBody consumes IS|AS and the block. Declarations between the
// introducer and BEGIN need no DECLARE keyword in routine bodies.
func (p *parser) parseRoutineBody() {
	if !p.eat(syntax.KwIs) && !p.eat(syntax.KwAs) {
		p.errorf("expected IS or AS, found %s", p.current())
	}
	p.parseBlock()
}

func (p *parser) parseParamList() {
	p.start(syntax.ParamList)
	p.expect(syntax.LParen)
	for !p.at(syntax.RParen) && !p.atEOF() {
		p.parseParam()
		if !p.eat(syntax.Comma) {
			break
		}
	}
	p.expect(syntax.RParen)
	p.finish()
}

func (p *parser) parseParam() {
	p.start(syntax.Param)
	if !p.parseName() {
		p.errorNode("malformed parameter", []syntax.SyntaxKind{syntax.Comma, syntax.RParen, syntax.Semicolon})
		p.finish()
		return
	}
	if p.at(syntax.KwIn) || p.at(syntax.KwOut) {
		p.start(syntax.ParamMode)
		if p.eat(syntax.KwIn) {
			p.eat(syntax.KwOut)
		} else {
			p.eat(syntax.KwOut)
		}
		p.finish()
	}
	p.eat(syntax.KwNocopy)
	p.parseDatatype()
	if p.eat(syntax.Assign) || p.eat(syntax.KwDefault) {
		p.parseExpr()
	}
	p.finish()
}

// parseDatatype parses a predefined scalar type with optional precision,
// or a qualified reference anchored by %TYPE / %ROWTYPE.
func (p *parser) parseDatatype() {
	p.start(syntax.Datatype)
	if !p.current().IsNameToken() {
		p.errorf("expected datatype, found %s", p.current())
		p.finish()
		return
	}
	p.bump()
	for p.at(syntax.Dot) && p.nth(1).IsNameToken() {
		p.bump()
		p.bump()
	}
	switch {
	case p.at(syntax.TypeAttr), p.at(syntax.RowtypeAttr):
		p.bump()
	case p.at(syntax.LParen):
		// Precision and scale, e.g. NUMBER(10,2) or VARCHAR2(30).
		p.bump()
		for !p.at(syntax.RParen) && !p.atEOF() {
			p.bump()
		}
		p.expect(syntax.RParen)
	}
	p.finish()
}

// ---- Blocks and statements ----

// parseBlock parses [DECLARE] <declarations> BEGIN <statements>
// [EXCEPTION <handlers>] END [label] [;]. It also accepts declarations
// with no DECLARE keyword, as routine bodies have.
func (p *parser) parseBlock() {
	p.start(syntax.Block)
	p.eat(syntax.KwDeclare)
	if !p.at(syntax.KwBegin) && !p.atEOF() {
		p.parseDeclareSection()
	}
	p.expect(syntax.KwBegin)
	p.parseStatements()
	if p.at(syntax.KwException) {
		p.parseExceptionSection()
	}
	p.expect(syntax.KwEnd)
	if p.current().IsNameToken() {
		m := p.marker()
		p.bump()
		p.wrap(m, syntax.Identifier)
	}
	p.eat(syntax.Semicolon)
	p.finish()
}

func (p *parser) parseDeclareSection() {
	p.start(syntax.DeclareSection)
	for !p.atAny(syntax.KwBegin, syntax.KwEnd) && !p.atEOF() {
		before := p.pos
		p.parseDeclItem()
		if p.pos == before {
			p.errorNode("malformed declaration", []syntax.SyntaxKind{syntax.Semicolon, syntax.KwBegin, syntax.KwEnd})
			p.eat(syntax.Semicolon)
		}
	}
	p.finish()
}

// parseDeclItem parses one declaration: name [CONSTANT] type [:= expr] ;
func (p *parser) parseDeclItem() {
	if !p.atName() {
		return
	}
	p.start(syntax.DeclItem)
	p.parseName()
	// CONSTANT is not reserved here; it lexes as a plain identifier.
	if p.current().IsNameToken() && core.EqualFold(p.currentToken().Text(p.src), "constant") {
		p.bump()
	}
	p.parseDatatype()
	if p.eat(syntax.Assign) || p.eat(syntax.KwDefault) {
		p.parseExpr()
	}
	p.expect(syntax.Semicolon)
	p.finish()
}

// parseStatements parses a statement list until a closing keyword.
func (p *parser) parseStatements() {
	for {
		switch p.current() {
		case syntax.EOF, syntax.KwEnd, syntax.KwException, syntax.KwElse, syntax.KwElsif, syntax.KwWhen:
			return
		case syntax.Semicolon:
			// Stray terminator; adopt it and move on.
			p.bump()
			continue
		}
		before := p.pos
		p.parseStatement()
		if p.pos == before {
			// The statement parser got stuck on a token that is itself a
			// sync point. Force progress: one token, one error node.
			p.errorf("unrecognized statement at %s", p.current())
			p.start(syntax.Error)
			p.bump()
			p.finish()
		}
	}
}

func (p *parser) parseStatement() {
	switch p.current() {
	case syntax.KwNull:
		p.start(syntax.NullStmt)
		p.bump()
		p.expect(syntax.Semicolon)
		p.finish()
	case syntax.KwReturn:
		p.start(syntax.ReturnStmt)
		p.bump()
		if !p.at(syntax.Semicolon) && !p.atEOF() {
			p.parseExpr()
		}
		p.expect(syntax.Semicolon)
		p.finish()
	case syntax.KwIf:
		p.parseIfStmt()
	case syntax.KwSelect:
		p.parseSelect()
		p.eat(syntax.Semicolon)
	case syntax.KwInsert:
		p.parseInsert()
	case syntax.KwUpdate:
		p.parseUpdate()
	case syntax.KwBegin, syntax.KwDeclare:
		p.parseBlock()
	default:
		if p.atName() {
			p.parseCallOrAssign()
			return
		}
		p.errorNode("unrecognized statement", stmtSync)
		p.eat(syntax.Semicolon)
	}
}

// parseCallOrAssign disambiguates `name := expr;` from `name [(args)];`
// by scanning past the dotted name for an assignment operator.
func (p *parser) parseCallOrAssign() {
	n := 1 // past the first name segment
	for p.nth(n) == syntax.Dot && p.nth(n+1).IsNameToken() {
		n += 2
	}
	if p.nth(n) == syntax.Assign {
		p.start(syntax.AssignStmt)
		p.parseName()
		p.expect(syntax.Assign)
		p.parseExpr()
		p.expect(syntax.Semicolon)
		p.finish()
		return
	}
	p.start(syntax.ProcedureCall)
	p.parseName()
	if p.at(syntax.LParen) {
		p.parseArgList()
	}
	p.expect(syntax.Semicolon)
	p.finish()
}

func (p *parser) parseIfStmt() {
	p.start(syntax.IfStmt)
	p.expect(syntax.KwIf)
	p.parseExpr()
	p.expect(syntax.KwThen)
	p.parseStatements()
	for p.at(syntax.KwElsif) {
		p.start(syntax.ElsifClause)
		p.bump()
		p.parseExpr()
		p.expect(syntax.KwThen)
		p.parseStatements()
		p.finish()
	}
	if p.at(syntax.KwElse) {
		p.start(syntax.ElseClause)
		p.bump()
		p.parseStatements()
		p.finish()
	}
	p.expect(syntax.KwEnd)
	p.expect(syntax.KwIf)
	p.eat(syntax.Semicolon)
	p.finish()
}

func (p *parser) parseExceptionSection() {
	p.start(syntax.ExceptionSection)
	p.expect(syntax.KwException)
	for p.at(syntax.KwWhen) {
		p.start(syntax.ExceptionHandler)
		p.bump()
		if p.atName() {
			p.parseName()
		} else {
			p.errorf("expected exception name, found %s", p.current())
		}
		p.expect(syntax.KwThen)
		p.parseStatements()
		p.finish()
	}
	p.finish()
}

// ---- Queries and DML ----

func (p *parser) parseQuery() {
	p.start(syntax.Query)
	if p.at(syntax.KwSelect) {
		p.parseSelect()
	} else {
		p.errorNode("expected SELECT", nil)
	}
	p.eat(syntax.Semicolon)
	p.finish()
}

func (p *parser) parseSelect() {
	p.start(syntax.SelectStmt)
	p.expect(syntax.KwSelect)

	p.start(syntax.SelectList)
	for {
		if p.at(syntax.Star) {
			p.bump()
		} else {
			p.parseExpr()
			// Optional column alias, with or without AS.
			if p.eat(syntax.KwAs) {
				if p.current().IsNameToken() {
					p.bump()
				}
			} else if p.current().IsNameToken() {
				p.bump()
			}
		}
		if !p.eat(syntax.Comma) {
			break
		}
	}
	p.finish()

	if p.at(syntax.KwInto) {
		p.start(syntax.IntoClause)
		p.bump()
		for {
			p.parseName()
			if !p.eat(syntax.Comma) {
				break
			}
		}
		p.finish()
	}

	if p.at(syntax.KwFrom) {
		p.start(syntax.FromClause)
		p.bump()
		for {
			p.parseFromItem()
			if !p.eat(syntax.Comma) {
				break
			}
		}
		p.finish()
	}

	if p.at(syntax.KwWhere) {
		p.start(syntax.WhereClause)
		p.bump()
		p.parseExpr()
		p.finish()
	}

	if p.at(syntax.KwOrder) {
		p.start(syntax.OrderByClause)
		p.bump()
		p.expect(syntax.KwBy)
		for {
			p.parseExpr()
			if !p.eat(syntax.Comma) {
				break
			}
		}
		p.finish()
	}
	p.finish()
}

func (p *parser) parseFromItem() {
	p.start(syntax.FromItem)
	if p.atName() {
		p.parseName()
		// Optional table alias.
		if p.current().IsNameToken() {
			p.bump()
		}
	} else {
		p.errorNode("expected table reference", []syntax.SyntaxKind{
			syntax.Comma, syntax.KwWhere, syntax.KwOrder, syntax.Semicolon, syntax.KwEnd,
		})
	}
	p.finish()
}

func (p *parser) parseInsert() {
	p.start(syntax.InsertStmt)
	p.expect(syntax.KwInsert)
	p.expect(syntax.KwInto)
	p.parseName()
	if p.at(syntax.LParen) {
		p.start(syntax.ColumnList)
		p.bump()
		for {
			if !p.parseName() {
				break
			}
			if !p.eat(syntax.Comma) {
				break
			}
		}
		p.expect(syntax.RParen)
		p.finish()
	}
	switch {
	case p.at(syntax.KwValues):
		p.start(syntax.ValuesClause)
		p.bump()
		p.expect(syntax.LParen)
		for !p.at(syntax.RParen) && !p.atEOF() {
			p.parseExpr()
			if !p.eat(syntax.Comma) {
				break
			}
		}
		p.expect(syntax.RParen)
		p.finish()
	case p.at(syntax.KwSelect):
		p.parseSelect()
	default:
		p.errorf("expected VALUES or SELECT, found %s", p.current())
	}
	p.eat(syntax.Semicolon)
	p.finish()
}

func (p *parser) parseUpdate() {
	p.start(syntax.UpdateStmt)
	p.expect(syntax.KwUpdate)
	p.parseName()

	p.start(syntax.SetClause)
	p.expect(syntax.KwSet)
	for {
		if !p.parseName() {
			break
		}
		p.expect(syntax.Eq)
		p.parseExpr()
		if !p.eat(syntax.Comma) {
			break
		}
	}
	p.finish()

	if p.at(syntax.KwWhere) {
		p.start(syntax.WhereClause)
		p.bump()
		p.parseExpr()
		p.finish()
	}
	p.eat(syntax.Semicolon)
	p.finish()
}

// ---- Triggers and views ----

func (p *parser) parseTrigger() {
	p.start(syntax.Trigger)
	p.createPrefix()
	p.expect(syntax.KwTrigger)

	p.start(syntax.TriggerHeader)
	p.parseName()
	p.finish()

	switch {
	case p.eat(syntax.KwBefore), p.eat(syntax.KwAfter):
	case p.eat(syntax.KwInstead):
		p.expect(syntax.KwOf)
	default:
		p.errorf("expected BEFORE, AFTER or INSTEAD OF, found %s", p.current())
	}

	for {
		p.parseTriggerEvent()
		if !p.eat(syntax.KwOr) {
			break
		}
	}

	p.expect(syntax.KwOn)
	p.parseName()

	if p.at(syntax.KwFor) {
		p.bump()
		p.expect(syntax.KwEach)
		p.expect(syntax.KwRow)
	}

	if p.at(syntax.KwWhen) {
		p.start(syntax.WhenClause)
		p.bump()
		p.expect(syntax.LParen)
		p.parseExpr()
		p.expect(syntax.RParen)
		p.finish()
	}

	p.start(syntax.TriggerBody)
	p.parseBlock()
	p.finish()
	p.finish()
}

func (p *parser) parseTriggerEvent() {
	p.start(syntax.TriggerEvent)
	switch {
	case p.eat(syntax.KwInsert), p.eat(syntax.KwDelete):
	case p.eat(syntax.KwUpdate):
		if p.eat(syntax.KwOf) {
			for {
				p.parseName()
				if !p.eat(syntax.Comma) {
					break
				}
			}
		}
	default:
		p.errorf("expected INSERT, UPDATE or DELETE, found %s", p.current())
	}
	p.finish()
}

func (p *parser) parseView() {
	p.start(syntax.View)
	p.createPrefix()
	p.expect(syntax.KwView)
	p.parseName()
	if p.at(syntax.LParen) {
		p.start(syntax.ColumnList)
		p.bump()
		for {
			if !p.parseName() {
				break
			}
			if !p.eat(syntax.Comma) {
				break
			}
		}
		p.expect(syntax.RParen)
		p.finish()
	}
	p.expect(syntax.KwAs)
	if p.at(syntax.KwSelect) {
		p.parseSelect()
	} else {
		p.errorNode("expected SELECT", nil)
	}
	p.eat(syntax.Semicolon)
	p.finish()
}
