// Package dfa builds a deterministic automaton from an nfa.NFA by subset
// construction, with a total transition table over Sigma and a single dead
// state absorbing every byte that can't continue any live rule.
package dfa

import "github.com/coregx/rulefa/alphabet"

// StateID indexes a state within a DFA.
type StateID = uint32

// NoCaseTag marks a non-accepting state.
const NoCaseTag = alphabet.NoCaseTag

type dstate struct {
	trans   [256]StateID
	caseTag uint32 // NoCaseTag if non-accepting
}

// DFA is an immutable deterministic automaton, total over every byte value:
// every state has an outgoing transition for every byte 0-255, with bytes
// outside Sigma always routed to the dead state.
type DFA struct {
	states   []dstate
	start    StateID
	dead     StateID
	numCases int
}

// NumStates returns the number of states, including the dead state.
func (d *DFA) NumStates() int { return len(d.states) }

// NumCases returns the number of rules this DFA was built from. Every
// CaseTag returned by this DFA lies in [0, NumCases()).
func (d *DFA) NumCases() int { return d.numCases }

// Start returns the start state.
func (d *DFA) Start() StateID { return d.start }

// Dead returns the dead state: the unique non-accepting state whose every
// transition is a self-loop.
func (d *DFA) Dead() StateID { return d.dead }

// Transition returns the state reached from s on byte b. Always defined.
func (d *DFA) Transition(s StateID, b byte) StateID { return d.states[s].trans[b] }

// CaseTag returns the case tag of s and whether s is accepting.
func (d *DFA) CaseTag(s StateID) (uint32, bool) {
	tag := d.states[s].caseTag
	return tag, tag != NoCaseTag
}

// IsDead reports whether s is the dead state.
func (d *DFA) IsDead(s StateID) bool { return s == d.dead }
