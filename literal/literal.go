// Package literal indexes the purely-literal rules of a rule set (every
// Kind==String rule, plus any Kind==Regex rule whose pattern happens to
// desugar to a single literal) as a static Aho-Corasick automaton.
//
// This index is metadata describing the rule set, not a runtime scanner:
// nothing in this package performs longest-match scanning or drives the
// automaton pipeline. Callers that want a fast pre-check for "could any
// literal rule possibly match this input" can use IsMatch; the DFA and
// minimized DFA remain the only components that actually decide matches.
package literal

import (
	"github.com/coregx/ahocorasick"
	"github.com/coregx/rulefa/rule"
)

// Entry records one literal rule indexed by Index.
type Entry struct {
	RuleIndex int
	Bytes     []byte
}

// Index is a static Aho-Corasick automaton over a rule set's literal
// patterns, alongside the bookkeeping needed to recover which rule a byte
// string belongs to.
type Index struct {
	entries   []Entry
	automaton *ahocorasick.Automaton
}

// Build constructs an Index over every literal-shaped rule in rules. Rules
// that aren't plain literals (true regex patterns using union, star, or
// character classes) are skipped; an Index with no entries has a nil
// automaton and IsMatch always reports false.
func Build(rules []rule.Rule) (*Index, error) {
	idx := &Index{}
	builder := ahocorasick.NewBuilder()
	for i, r := range rules {
		lit, ok := literalBytes(r)
		if !ok {
			continue
		}
		idx.entries = append(idx.entries, Entry{RuleIndex: i, Bytes: lit})
		builder.AddPattern(lit)
	}
	if len(idx.entries) == 0 {
		return idx, nil
	}
	automaton, err := builder.Build()
	if err != nil {
		return nil, err
	}
	idx.automaton = automaton
	return idx, nil
}

// literalBytes reports the exact bytes r matches when r is a pure literal:
// every Kind==String rule, and the degenerate Kind==Regex rule whose
// pattern contains none of the regex metacharacters.
func literalBytes(r rule.Rule) ([]byte, bool) {
	switch r.Kind {
	case rule.String:
		return r.Pattern, len(r.Pattern) > 0
	case rule.Regex:
		if len(r.Pattern) == 0 || containsMetachar(r.Pattern) {
			return nil, false
		}
		lit := make([]byte, 0, len(r.Pattern))
		for i := 0; i < len(r.Pattern); i++ {
			if r.Pattern[i] == '\\' && i+1 < len(r.Pattern) {
				i++
			}
			lit = append(lit, r.Pattern[i])
		}
		return lit, true
	default:
		return nil, false
	}
}

func containsMetachar(pat []byte) bool {
	for i := 0; i < len(pat); i++ {
		if pat[i] == '\\' {
			i++
			continue
		}
		switch pat[i] {
		case '|', '.', '*', '+', '?', '(', ')', '[', ']', '^', '-':
			return true
		}
	}
	return false
}

// Entries returns every literal rule this Index covers, in rule order.
func (idx *Index) Entries() []Entry { return idx.entries }

// IsMatch reports whether any indexed literal occurs anywhere in s.
func (idx *Index) IsMatch(s []byte) bool {
	if idx.automaton == nil {
		return false
	}
	return idx.automaton.IsMatch(s)
}
