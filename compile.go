package rulefa

import (
	"github.com/coregx/rulefa/dfa"
	"github.com/coregx/rulefa/flatregex"
	"github.com/coregx/rulefa/literal"
	"github.com/coregx/rulefa/minimize"
	"github.com/coregx/rulefa/nfa"
	"github.com/coregx/rulefa/preprocess"
	"github.com/coregx/rulefa/rule"
)

// Config controls the compilation pipeline: how many states each stage may
// allocate, and whether the final DFA is minimized.
//
// Example:
//
//	cfg := rulefa.DefaultConfig()
//	cfg.Minimize = false // keep the unminimized subset-construction DFA
//	result, err := rulefa.Compile(rules, cfg)
type Config struct {
	// MaxNFAStates caps the number of states the NFA builder may allocate.
	// Default: 500000.
	MaxNFAStates int

	// MaxDFAStates caps the number of states subset construction may
	// allocate. Default: 500000.
	MaxDFAStates int

	// Minimize runs Hopcroft-style partition refinement over the
	// subset-construction DFA once it's built. Default: true.
	Minimize bool
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		MaxNFAStates: nfa.DefaultMaxStates,
		MaxDFAStates: dfa.DefaultMaxStates,
		Minimize:     true,
	}
}

// Result is the output of a successful Compile: the NFA, the
// subset-construction DFA, the minimized DFA (nil if Config.Minimize was
// false), and a static literal index over the rule set's literal rules.
type Result struct {
	NFA       *nfa.NFA
	DFA       *dfa.DFA
	Minimized *dfa.DFA
	Literals  *literal.Index
}

// Compile runs the full pipeline over rules, in order: preprocess each
// rule's pattern into a flatregex.Program, build the shared-start NFA,
// run subset construction into a DFA, optionally minimize it, and index
// the rule set's literal patterns.
//
// A rule set either compiles cleanly end to end or Compile returns one
// structured error (SyntaxError, LimitExceeded, or InvariantViolation)
// identifying the offending rule.
func Compile(rules []rule.Rule, cfg Config) (*Result, error) {
	programs := make([]flatregex.Program, len(rules))
	for i, r := range rules {
		prog, err := preprocess.Process(r.Pattern, r.Kind, i)
		if err != nil {
			return nil, err
		}
		programs[i] = prog
	}

	n, err := nfa.Build(programs, nfa.WithMaxStates(cfg.MaxNFAStates))
	if err != nil {
		return nil, err
	}

	d, err := dfa.Build(n, dfa.WithMaxStates(cfg.MaxDFAStates))
	if err != nil {
		return nil, err
	}

	result := &Result{NFA: n, DFA: d}

	if cfg.Minimize {
		m, err := minimize.Minimize(d)
		if err != nil {
			return nil, err
		}
		result.Minimized = m
	}

	litIdx, err := literal.Build(rules)
	if err != nil {
		return nil, err
	}
	result.Literals = litIdx

	return result, nil
}
