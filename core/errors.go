package core

import "errors"

// Boundary and contract errors. Lex and parse problems never surface as
// errors; they live in the tree as tokens and error nodes.
var (
	// ErrInvalidKind reports an unknown object-kind string.
	ErrInvalidKind = errors.New("invalid object kind")
	// ErrInvalidContext reports a malformed analyze context.
	ErrInvalidContext = errors.New("invalid analyze context")
	// ErrUnknownRule reports a rule name missing from the registry.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrNoSuchMatch reports a rule that does not match the input at all.
	ErrNoSuchMatch = errors.New("rule does not match input")
	// ErrLocationNotFound reports a location that is not a current match.
	ErrLocationNotFound = errors.New("location is not a current match")
	// ErrRuleNonProgress reports an apply that failed to reduce the
	// rule's own match count.
	ErrRuleNonProgress = errors.New("rule application made no progress")
	// ErrInternal reports an invariant violation. Seeing it is a bug.
	ErrInternal = errors.New("internal invariant violation")
)
