// Package syntax provides the token and node kind registry, the lossless
// lexer and the concrete syntax tree for the Oracle PL/SQL fragment this
// tool understands. The tree preserves every byte of the input, comments
// and invalid regions included.
package syntax

import (
	"fmt"
	"strings"
)

// SyntaxKind identifies a terminal token or a non-terminal tree node.
// Terminals and non-terminals share one enumeration space so the tree can
// represent both uniformly.
type SyntaxKind uint16

const (
	// EOF marks the end of the token stream. It never appears in a tree.
	EOF SyntaxKind = iota
	// Unknown covers a single byte the lexer could not classify.
	Unknown

	// Trivia.
	Whitespace
	LineComment
	BlockComment

	// Literals and names.
	Ident
	QuotedIdent
	BindVar // :NEW, :OLD and other colon-prefixed names
	Number
	String
	DollarString
	DollarQuote // a bare $$ body delimiter
	UnterminatedString

	// Punctuation and operators.
	LParen
	RParen
	Comma
	Semicolon
	Dot
	DotDot
	Colon
	Plus
	Minus
	Star
	Slash
	Percent
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	Assign      // :=
	Arrow       // =>
	Concat      // ||
	TypeAttr    // %TYPE
	RowtypeAttr // %ROWTYPE
	OuterJoin   // (+)

	// Keywords, Oracle and PostgreSQL. Matched case-insensitively.
	KwAfter
	KwAnd
	KwAs
	KwBefore
	KwBegin
	KwBetween
	KwBy
	KwCreate
	KwDeclare
	KwDefault
	KwDelete
	KwEach
	KwEditionable
	KwElse
	KwElsif
	KwEnd
	KwException
	KwFor
	KwFrom
	KwFunction
	KwIf
	KwIn
	KwInsert
	KwInstead
	KwInto
	KwIs
	KwLanguage
	KwLike
	KwNocopy
	KwNot
	KwNull
	KwOf
	KwOn
	KwOr
	KwOrder
	KwOut
	KwProcedure
	KwReplace
	KwReturn
	KwRow
	KwSelect
	KwSet
	KwThen
	KwTrigger
	KwUpdate
	KwValues
	KwView
	KwWhen
	KwWhere

	terminalEnd // marker, not a real kind

	// Non-terminals, one per grammar production.
	Root
	Error
	Function
	FunctionHeader
	Procedure
	ProcedureHeader
	ParamList
	Param
	ParamMode
	Datatype
	ReturnClause
	Block
	DeclareSection
	DeclItem
	ExceptionSection
	ExceptionHandler
	NullStmt
	ReturnStmt
	AssignStmt
	IfStmt
	ElsifClause
	ElseClause
	ProcedureCall
	ArgList
	Arg
	SelectStmt
	SelectList
	IntoClause
	FromClause
	FromItem
	WhereClause
	OrderByClause
	InsertStmt
	UpdateStmt
	SetClause
	ColumnList
	ValuesClause
	Expression
	FunctionInvocation
	Identifier
	QualifiedIdentifier
	Literal
	Trigger
	TriggerHeader
	TriggerEvent
	TriggerBody
	WhenClause
	View
	Query

	kindCount // marker
)

// keywordSpellings pairs each keyword spelling with its kind. The table is
// the single source of truth for keyword recognition.
var keywordSpellings = []struct {
	word string
	kind SyntaxKind
}{
	{"after", KwAfter},
	{"and", KwAnd},
	{"as", KwAs},
	{"before", KwBefore},
	{"begin", KwBegin},
	{"between", KwBetween},
	{"by", KwBy},
	{"create", KwCreate},
	{"declare", KwDeclare},
	{"default", KwDefault},
	{"delete", KwDelete},
	{"each", KwEach},
	{"editionable", KwEditionable},
	{"else", KwElse},
	{"elsif", KwElsif},
	{"end", KwEnd},
	{"exception", KwException},
	{"for", KwFor},
	{"from", KwFrom},
	{"function", KwFunction},
	{"if", KwIf},
	{"in", KwIn},
	{"insert", KwInsert},
	{"instead", KwInstead},
	{"into", KwInto},
	{"is", KwIs},
	{"language", KwLanguage},
	{"like", KwLike},
	{"nocopy", KwNocopy},
	{"not", KwNot},
	{"null", KwNull},
	{"of", KwOf},
	{"on", KwOn},
	{"or", KwOr},
	{"order", KwOrder},
	{"out", KwOut},
	{"procedure", KwProcedure},
	{"replace", KwReplace},
	{"return", KwReturn},
	{"row", KwRow},
	{"select", KwSelect},
	{"set", KwSet},
	{"then", KwThen},
	{"trigger", KwTrigger},
	{"update", KwUpdate},
	{"values", KwValues},
	{"view", KwView},
	{"when", KwWhen},
	{"where", KwWhere},
}

// keywords maps lowercase spellings to kinds, built once at init.
var keywords = func() map[string]SyntaxKind {
	m := make(map[string]SyntaxKind, len(keywordSpellings))
	for _, e := range keywordSpellings {
		m[e.word] = e.kind
	}
	return m
}()

// KeywordKind returns the keyword kind for an identifier spelling, folding
// ASCII case. The second result is false for non-keywords.
func KeywordKind(ident string) (SyntaxKind, bool) {
	if len(ident) > 16 {
		return 0, false // longest keyword is "editionable"
	}
	var buf [16]byte
	for i := 0; i < len(ident); i++ {
		c := ident[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		buf[i] = c
	}
	k, ok := keywords[string(buf[:len(ident)])]
	return k, ok
}

// IsTrivia reports whether the kind is whitespace or a comment.
func (k SyntaxKind) IsTrivia() bool {
	return k == Whitespace || k == LineComment || k == BlockComment
}

// IsKeyword reports whether the kind is a keyword terminal.
func (k SyntaxKind) IsKeyword() bool {
	return k >= KwAfter && k <= KwWhere
}

// IsTerminal reports whether the kind names a token rather than a node.
func (k SyntaxKind) IsTerminal() bool {
	return k < terminalEnd
}

// IsLiteral reports whether the kind is a literal token class.
func (k SyntaxKind) IsLiteral() bool {
	switch k {
	case Number, String, DollarString, UnterminatedString:
		return true
	}
	return false
}

// IsNameToken reports whether the kind can spell an identifier segment.
func (k SyntaxKind) IsNameToken() bool {
	return k == Ident || k == QuotedIdent
}

var kindNames = [kindCount]string{
	EOF:                 "EOF",
	Unknown:             "UNKNOWN",
	Whitespace:          "WHITESPACE",
	LineComment:         "LINE_COMMENT",
	BlockComment:        "BLOCK_COMMENT",
	Ident:               "IDENT",
	QuotedIdent:         "QUOTED_IDENT",
	BindVar:             "BIND_VAR",
	Number:              "NUMBER",
	String:              "STRING",
	DollarString:        "DOLLAR_STRING",
	DollarQuote:         "$$",
	UnterminatedString:  "UNTERMINATED_STRING",
	LParen:              "(",
	RParen:              ")",
	Comma:               ",",
	Semicolon:           ";",
	Dot:                 ".",
	DotDot:              "..",
	Colon:               ":",
	Plus:                "+",
	Minus:               "-",
	Star:                "*",
	Slash:               "/",
	Percent:             "%",
	Eq:                  "=",
	Neq:                 "<>",
	Lt:                  "<",
	Lte:                 "<=",
	Gt:                  ">",
	Gte:                 ">=",
	Assign:              ":=",
	Arrow:               "=>",
	Concat:              "||",
	TypeAttr:            "%TYPE",
	RowtypeAttr:         "%ROWTYPE",
	OuterJoin:           "(+)",
	terminalEnd:         "terminalEnd",
	Root:                "Root",
	Error:               "Error",
	Function:            "Function",
	FunctionHeader:      "FunctionHeader",
	Procedure:           "Procedure",
	ProcedureHeader:     "ProcedureHeader",
	ParamList:           "ParamList",
	Param:               "Param",
	ParamMode:           "ParamMode",
	Datatype:            "Datatype",
	ReturnClause:        "ReturnClause",
	Block:               "Block",
	DeclareSection:      "DeclareSection",
	DeclItem:            "DeclItem",
	ExceptionSection:    "ExceptionSection",
	ExceptionHandler:    "ExceptionHandler",
	NullStmt:            "NullStmt",
	ReturnStmt:          "ReturnStmt",
	AssignStmt:          "AssignStmt",
	IfStmt:              "IfStmt",
	ElsifClause:         "ElsifClause",
	ElseClause:          "ElseClause",
	ProcedureCall:       "ProcedureCall",
	ArgList:             "ArgList",
	Arg:                 "Arg",
	SelectStmt:          "SelectStmt",
	SelectList:          "SelectList",
	IntoClause:          "IntoClause",
	FromClause:          "FromClause",
	FromItem:            "FromItem",
	WhereClause:         "WhereClause",
	OrderByClause:       "OrderByClause",
	InsertStmt:          "InsertStmt",
	UpdateStmt:          "UpdateStmt",
	SetClause:           "SetClause",
	ColumnList:          "ColumnList",
	ValuesClause:        "ValuesClause",
	Expression:          "Expression",
	FunctionInvocation:  "FunctionInvocation",
	Identifier:          "Identifier",
	QualifiedIdentifier: "QualifiedIdentifier",
	Literal:             "Literal",
	Trigger:             "Trigger",
	TriggerHeader:       "TriggerHeader",
	TriggerEvent:        "TriggerEvent",
	TriggerBody:         "TriggerBody",
	WhenClause:          "WhenClause",
	View:                "View",
	Query:               "Query",
}

// String returns a human-readable name for the kind.
func (k SyntaxKind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "INVALID"
}

func init() {
	// Keyword names come straight from the spelling table.
	for _, e := range keywordSpellings {
		kindNames[e.kind] = strings.ToUpper(e.word)
	}
	for k := SyntaxKind(0); k < kindCount; k++ {
		if k != terminalEnd && kindNames[k] == "" {
			panic(fmt.Sprintf("syntax: kind %d missing from name table", k))
		}
	}
}
