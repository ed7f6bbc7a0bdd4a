// Package alphabet defines the fixed byte alphabet the automaton pipeline
// recognizes and the sentinel values shared across every stage.
package alphabet

// Sigma is the recognized input alphabet: printable ASCII plus tab and
// newline. Transitions outside Sigma are undefined input for every stage
// downstream of the preprocessor.
var Sigma = buildSigma()

func buildSigma() []byte {
	sigma := make([]byte, 0, 97)
	for c := byte(0x20); c <= 0x7E; c++ {
		sigma = append(sigma, c)
	}
	sigma = append(sigma, '\t', '\n')
	return sigma
}

// InSigma reports whether b is a member of the recognized alphabet.
func InSigma(b byte) bool {
	return (b >= 0x20 && b <= 0x7E) || b == '\t' || b == '\n'
}

// NoCaseTag marks a state that carries no rule tag, either because it is
// non-accepting or because it is the dead state.
const NoCaseTag = ^uint32(0)

// InvalidState marks an unreachable or not-yet-assigned state index.
const InvalidState = ^uint32(0)

// Epsilon is the empty-symbol marker used for NFA epsilon transitions. It is
// distinct from every byte in Sigma (Sigma starts at 0x20).
const Epsilon byte = 0x00
