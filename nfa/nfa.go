// Package nfa builds and represents the shared-start nondeterministic
// automaton produced by Thompson/McNaughton-Yamada construction over a
// flatregex postfix program.
//
// The automaton is immutable once built. Every accessor is read-only; there
// is no mutation surface beyond builder, which is consumed internally by
// Build and never exposed to callers.
package nfa

import "github.com/coregx/rulefa/alphabet"

// StateID indexes a state within an NFA. InvalidState never identifies a
// real state; it marks an unpatched hole or "no such transition".
type StateID = uint32

// InvalidState is the sentinel StateID used for unpatched holes.
const InvalidState StateID = alphabet.InvalidState

// Kind identifies what a state tests and how it branches.
type Kind uint8

const (
	// KindChar consumes exactly the byte Ch and transitions to Out.
	KindChar Kind = iota
	// KindCharset consumes any Sigma byte in [Lo, Hi] (or its complement
	// within Sigma when Inverted) and transitions to Out.
	KindCharset
	// KindEpsilon transitions to Out without consuming input.
	KindEpsilon
	// KindSplit transitions to Out1 or Out2 without consuming input. Used
	// for union and the back-edge of Kleene star.
	KindSplit
	// KindMatch has no outgoing transitions; reaching it means rule
	// CaseTag has matched.
	KindMatch
)

type state struct {
	kind     Kind
	ch       byte // KindChar
	lo, hi   byte // KindCharset
	inverted bool // KindCharset
	out      StateID
	out2     StateID // KindSplit only
	caseTag  uint32  // KindMatch
}

// NFA is an immutable Thompson/McNaughton-Yamada automaton over Sigma, with
// one shared start state reaching every rule's fragment by epsilon.
type NFA struct {
	states   []state
	start    StateID
	numCases int
}

// NumStates returns the number of states, including the shared start state.
func (n *NFA) NumStates() int { return len(n.states) }

// NumCases returns the number of rules this NFA was built from. Every
// CaseTag returned by this NFA (and by DFAs built from it) lies in
// [0, NumCases()).
func (n *NFA) NumCases() int { return n.numCases }

// Start returns the shared start state.
func (n *NFA) Start() StateID { return n.start }

// Kind returns the kind of state s.
func (n *NFA) Kind(s StateID) Kind { return n.states[s].kind }

// ByteTransition reports the state reached by consuming byte b from state
// s, if s is a KindChar or KindCharset state whose test b satisfies.
func (n *NFA) ByteTransition(s StateID, b byte) (StateID, bool) {
	st := &n.states[s]
	switch st.kind {
	case KindChar:
		if st.ch == b {
			return st.out, true
		}
	case KindCharset:
		in := b >= st.lo && b <= st.hi
		if st.inverted {
			in = !in
		}
		if in && alphabet.InSigma(b) {
			return st.out, true
		}
	}
	return InvalidState, false
}

// EpsilonTargets returns the epsilon-reachable successors of s: one target
// for KindEpsilon, two for KindSplit, none otherwise.
func (n *NFA) EpsilonTargets(s StateID) []StateID {
	st := &n.states[s]
	switch st.kind {
	case KindEpsilon:
		return []StateID{st.out}
	case KindSplit:
		return []StateID{st.out, st.out2}
	default:
		return nil
	}
}

// CaseTag reports the case tag of s, if s is a KindMatch state.
func (n *NFA) CaseTag(s StateID) (uint32, bool) {
	st := &n.states[s]
	if st.kind != KindMatch {
		return 0, false
	}
	return st.caseTag, true
}
