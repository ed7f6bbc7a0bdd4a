// Package rulefa compiles an ordered list of tagged regex/string rules into
// an NFA, a subset-construction DFA, and an optional minimized DFA.
//
// The pipeline is single-threaded and purely functional at the seams: each
// stage consumes the previous stage's value and returns a new immutable
// artefact. A rule set either compiles cleanly end to end or fails with one
// structured error identifying the offending rule.
package rulefa

import "github.com/coregx/rulefa/rerr"

// SyntaxError, LimitExceeded, and InvariantViolation are aliased from rerr
// so callers of this package never need to import rerr directly; every
// stage (preprocess, nfa, dfa, minimize) returns these same types.
type (
	SyntaxError        = rerr.SyntaxError
	LimitExceeded      = rerr.LimitExceeded
	InvariantViolation = rerr.InvariantViolation
)
